// Package multiplayer runs tritris rooms and matches: sessions gather in a
// room, the owner starts a match, and the match owns one authoritative
// kernel per player, replaying their inputs and relaying state.
package multiplayer

import (
	"time"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/core"
)

// PlayerID is an alias to core.PlayerID for convenience.
type PlayerID = core.PlayerID

// Re-export player constants for convenience.
const (
	Player1 = core.Player1
	Player2 = core.Player2
)

// SessionID uniquely identifies a player's session (SSH or websocket connection).
type SessionID string

// MatchID uniquely identifies a game match.
type MatchID string

// Member is a session sitting in a room.
type Member struct {
	Session SessionHandle
	Name    string
	Ready   bool
}

// Room is a group of sessions that play matches together.
type Room struct {
	Code      string
	Owner     SessionID
	Members   []*Member
	Settings  config.GameSettings
	CreatedAt time.Time
	// LastActive is bumped on joins and match ends; idle rooms expire.
	LastActive time.Time

	match *Match
}

func (r *Room) member(id SessionID) (*Member, int) {
	for i, m := range r.Members {
		if m.Session.ID() == id {
			return m, i
		}
	}
	return nil, -1
}

func (r *Room) remove(id SessionID) bool {
	_, i := r.member(id)
	if i < 0 {
		return false
	}
	r.Members = append(r.Members[:i], r.Members[i+1:]...)
	if r.Owner == id && len(r.Members) > 0 {
		r.Owner = r.Members[0].Session.ID()
	}
	return true
}

// allReady reports whether every member except the owner is ready.
func (r *Room) allReady() bool {
	for _, m := range r.Members {
		if m.Session.ID() != r.Owner && !m.Ready {
			return false
		}
	}
	return true
}

// Info returns a copy of the room safe to hand to sessions.
func (r *Room) Info() RoomInfo {
	info := RoomInfo{
		Code:     r.Code,
		Owner:    r.Owner,
		Settings: r.Settings,
		InMatch:  r.match != nil,
		Members:  make([]MemberInfo, len(r.Members)),
	}
	for i, m := range r.Members {
		info.Members[i] = MemberInfo{
			Session: m.Session.ID(),
			Name:    m.Name,
			Ready:   m.Ready,
			Owner:   m.Session.ID() == r.Owner,
		}
	}
	return info
}

// RoomInfo is a read-only view of a room.
type RoomInfo struct {
	Code     string              `json:"code"`
	Owner    SessionID           `json:"owner"`
	Members  []MemberInfo        `json:"members"`
	Settings config.GameSettings `json:"settings"`
	InMatch  bool                `json:"inMatch"`
}

// MemberInfo is a read-only view of a room member.
type MemberInfo struct {
	Session SessionID `json:"session"`
	Name    string    `json:"name"`
	Ready   bool      `json:"ready"`
	Owner   bool      `json:"owner"`
}

// PlayerInfo names a seat in a match.
type PlayerInfo struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// PlayerScore is one player's final tally.
type PlayerScore struct {
	ID    PlayerID `json:"id"`
	Name  string   `json:"name"`
	Score int      `json:"score"`
	Lines int      `json:"lines"`
	Level int      `json:"level"`
	Left  bool     `json:"left"`
}
