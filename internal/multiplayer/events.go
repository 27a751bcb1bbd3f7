package multiplayer

import (
	"time"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// SessionEvent represents an event sent from the coordinator to a session.
type SessionEvent interface {
	sessionEvent()
}

// RoomUpdatedEvent carries the room after any change to it.
type RoomUpdatedEvent struct {
	Room RoomInfo
	You  SessionID
}

func (RoomUpdatedEvent) sessionEvent() {}

// RoomErrorEvent is sent when a room operation fails.
type RoomErrorEvent struct {
	Message string
}

func (RoomErrorEvent) sessionEvent() {}

// RoomClosedEvent is sent when a session's room goes away.
type RoomClosedEvent struct {
	Code   string
	Reason string
}

func (RoomClosedEvent) sessionEvent() {}

// MatchStartedEvent is sent when the match begins. Every replica builds its
// kernels from Seed and Settings.
type MatchStartedEvent struct {
	MatchID   MatchID
	Code      string
	Seed      string
	Settings  config.GameSettings
	Countdown time.Duration
	Players   []PlayerInfo
	You       PlayerID
}

func (MatchStartedEvent) sessionEvent() {}

// PlayerState is one player's board in a state broadcast.
type PlayerState struct {
	ID    PlayerID          `json:"id"`
	Name  string            `json:"name"`
	Alive bool              `json:"alive"`
	Left  bool              `json:"left"`
	State tritris.GameState `json:"state"`
}

// StateEvent is broadcast at the match broadcast rate. The recipient's own
// entry holds its confirmed snapshot, other entries hold live state.
type StateEvent struct {
	MatchID     MatchID
	Elapsed     time.Duration
	You         PlayerID
	DoneInputID int64
	Players     []PlayerState
}

func (StateEvent) sessionEvent() {}

// MatchEndedEvent is sent when the match ends.
type MatchEndedEvent struct {
	MatchID MatchID
	Reason  MatchEndReason
	Winner  PlayerID // empty if no winner
	Scores  []PlayerScore
}

func (MatchEndedEvent) sessionEvent() {}

// MatchEndReason describes why a match ended.
type MatchEndReason int

const (
	MatchEndReasonCompleted  MatchEndReason = iota // Game over by the mode's rules
	MatchEndReasonDisconnect                       // Every player left
	MatchEndReasonCancelled                        // Match was stopped
)

func (r MatchEndReason) String() string {
	switch r {
	case MatchEndReasonCompleted:
		return "Match completed"
	case MatchEndReasonDisconnect:
		return "Players disconnected"
	case MatchEndReasonCancelled:
		return "Match cancelled"
	default:
		return "Unknown"
	}
}

// CoordinatorMessage represents a message from a session to the coordinator.
type CoordinatorMessage interface {
	coordinatorMessage()
}

// CreateRoomMsg requests creation of a new room owned by the session.
type CreateRoomMsg struct {
	SessionID SessionID
	Name      string
}

func (CreateRoomMsg) coordinatorMessage() {}

// JoinRoomMsg requests joining an existing room.
type JoinRoomMsg struct {
	SessionID SessionID
	Code      string
	Name      string
}

func (JoinRoomMsg) coordinatorMessage() {}

// LeaveRoomMsg requests leaving the session's room.
type LeaveRoomMsg struct {
	SessionID SessionID
}

func (LeaveRoomMsg) coordinatorMessage() {}

// SetReadyMsg marks a member ready or not.
type SetReadyMsg struct {
	SessionID SessionID
	Ready     bool
}

func (SetReadyMsg) coordinatorMessage() {}

// UpdateSettingsMsg replaces the room settings. Owner only.
type UpdateSettingsMsg struct {
	SessionID SessionID
	Settings  config.GameSettings
}

func (UpdateSettingsMsg) coordinatorMessage() {}

// StartMatchMsg starts a match in the session's room. Owner only.
type StartMatchMsg struct {
	SessionID SessionID
}

func (StartMatchMsg) coordinatorMessage() {}

// PlayerInputsMsg carries a batch of timestamped inputs for one player.
// The sender must own the seat.
type PlayerInputsMsg struct {
	SessionID SessionID
	MatchID   MatchID
	Player    PlayerID
	Inputs    []tritris.Input
}

func (PlayerInputsMsg) coordinatorMessage() {}

// LeaveMatchMsg requests leaving an active match.
type LeaveMatchMsg struct {
	SessionID SessionID
	MatchID   MatchID
}

func (LeaveMatchMsg) coordinatorMessage() {}

// SessionDisconnectedMsg is sent when a session disconnects.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) coordinatorMessage() {}
