package web

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// conn is one websocket client. Events from the coordinator queue in a
// ChannelSession and a single writer goroutine drains them, so the
// coordinator never blocks on the network.
type conn struct {
	ws      *websocket.Conn
	session *multiplayer.ChannelSession
	logger  *log.Logger
	mu      sync.Mutex
}

// WriteMessage sends a frame guarded by the write mutex and deadline.
func (c *conn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), sendBuffer)
	c := &conn{
		ws:      ws,
		session: session,
		logger:  s.logger.With("session", session.ID(), "remote", r.RemoteAddr),
	}
	s.sessions.Register(session)
	c.logger.Info("websocket connected")

	go c.writeLoop()
	c.readLoop(s.coord)

	s.coord.Send(multiplayer.SessionDisconnectedMsg{SessionID: session.ID()})
	s.sessions.Unregister(session.ID())
	session.Close()
	ws.Close()
	if n := session.Dropped(); n > 0 {
		c.logger.Warn("events dropped for slow client", "count", n)
	}
	c.logger.Info("websocket disconnected")
}

// readLoop decodes client frames until the connection fails.
// Malformed frames are logged and dropped.
func (c *conn) readLoop(coord *multiplayer.Coordinator) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "err", err)
			}
			return
		}
		msg, err := wire.DecodeMessage(data, c.session.ID())
		if err != nil {
			if errors.Is(err, wire.ErrMalformed) {
				c.logger.Warn("malformed frame dropped", "err", err)
				continue
			}
			c.logger.Error("decode frame", "err", err)
			continue
		}
		coord.Send(msg)
	}
}

func (c *conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt := <-c.session.Events():
			data, err := wire.EncodeEvent(evt)
			if err != nil {
				c.logger.Error("encode event", "err", err)
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("websocket write failed", "err", err)
				c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.ws.Close()
				return
			}
		case <-c.session.Done():
			c.mu.Lock()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			c.mu.Unlock()
			return
		}
	}
}
