package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/wire"
)

// Client is a websocket connection to a tritris server. It implements
// client.Link for remote play.
type Client struct {
	ws     *websocket.Conn
	id     multiplayer.SessionID
	events chan multiplayer.SessionEvent
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	logger *log.Logger
}

// Dial connects to the websocket endpoint at url, e.g. ws://host:8080/ws.
func Dial(ctx context.Context, url string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("web: dial %s: %w", url, err)
	}
	c := &Client{
		ws:     ws,
		events: make(chan multiplayer.SessionEvent, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.readLoop()
	return c, nil
}

// Session returns the id the server assigned, once a room event named it.
// The server stamps sessions itself; clients never send it.
func (c *Client) Session() multiplayer.SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Send encodes and writes a message.
func (c *Client) Send(msg multiplayer.CoordinatorMessage) error {
	data, err := wire.EncodeMessage(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("web: send: %w", err)
	}
	return nil
}

// Events returns decoded server events.
func (c *Client) Events() <-chan multiplayer.SessionEvent {
	return c.events
}

// Done closes when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.mu.Unlock()
	c.shutdown()
	return c.ws.Close()
}

func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readLoop() {
	defer c.shutdown()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("websocket closed", "err", err)
			}
			return
		}
		evt, err := wire.DecodeEvent(data)
		if err != nil {
			c.logger.Warn("bad server frame", "err", err)
			continue
		}
		if e, ok := evt.(multiplayer.RoomUpdatedEvent); ok {
			c.mu.Lock()
			c.id = e.You
			c.mu.Unlock()
		}
		select {
		case c.events <- evt:
		case <-c.done:
			return
		}
	}
}
