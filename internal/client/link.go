package client

import (
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
)

// Link connects a player to a coordinator, either in-process or over a
// network transport.
type Link interface {
	// Session returns the id the coordinator knows this player by.
	Session() multiplayer.SessionID
	// Send delivers a message to the coordinator.
	Send(msg multiplayer.CoordinatorMessage) error
	// Events returns the events the coordinator sends to this player.
	Events() <-chan multiplayer.SessionEvent
	// Done closes when the link is gone.
	Done() <-chan struct{}
	// Close ends the session.
	Close() error
}

// LocalLink is a Link to a coordinator in the same process, used by SSH
// sessions and local play.
type LocalLink struct {
	coord    *multiplayer.Coordinator
	sessions *multiplayer.SessionRegistry
	session  *multiplayer.ChannelSession
}

// NewLocalLink registers a new channel session with the registry.
func NewLocalLink(coord *multiplayer.Coordinator, sessions *multiplayer.SessionRegistry) *LocalLink {
	s := multiplayer.NewChannelSession(multiplayer.NewSessionID(), 64)
	sessions.Register(s)
	return &LocalLink{coord: coord, sessions: sessions, session: s}
}

// Session returns the session id.
func (l *LocalLink) Session() multiplayer.SessionID {
	return l.session.ID()
}

// Send forwards a message to the coordinator.
func (l *LocalLink) Send(msg multiplayer.CoordinatorMessage) error {
	l.coord.Send(msg)
	return nil
}

// Events returns the session's event channel.
func (l *LocalLink) Events() <-chan multiplayer.SessionEvent {
	return l.session.Events()
}

// Done closes when the session is closed.
func (l *LocalLink) Done() <-chan struct{} {
	return l.session.Done()
}

// Close tells the coordinator the session is gone and unregisters it.
func (l *LocalLink) Close() error {
	l.coord.Send(multiplayer.SessionDisconnectedMsg{SessionID: l.session.ID()})
	l.sessions.Unregister(l.session.ID())
	l.session.Close()
	return nil
}
