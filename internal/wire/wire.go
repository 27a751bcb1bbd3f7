// Package wire is the JSON codec between remote clients and the
// coordinator. Every frame is an envelope {"type": ..., "data": ...}.
// Client frames are decoded strictly: unknown fields, missing input fields
// and out-of-domain values are rejected with ErrMalformed.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
)

// ErrMalformed is returned for frames that do not decode to a valid message.
var ErrMalformed = errors.New("wire: malformed message")

// Client to server frame types.
const (
	TypeCreateRoom = "create_room"
	TypeJoinRoom   = "join_room"
	TypeLeaveRoom  = "leave_room"
	TypeReady      = "ready"
	TypeSettings   = "settings"
	TypeStart      = "start"
	TypeInputs     = "inputs"
	TypeLeaveMatch = "leave_match"
)

// Server to client frame types.
const (
	TypeRoomUpdated  = "room_updated"
	TypeRoomError    = "room_error"
	TypeRoomClosed   = "room_closed"
	TypeMatchStarted = "match_started"
	TypeState        = "state"
	TypeMatchEnded   = "match_ended"
)

// Envelope is the outer frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type roomRequest struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

type readyRequest struct {
	Ready bool `json:"ready"`
}

type settingsRequest struct {
	Settings config.GameSettings `json:"settings"`
}

type inputsRequest struct {
	MatchID string     `json:"matchId"`
	Player  string     `json:"player"`
	Inputs  []rawInput `json:"inputs"`
}

type inputsFrame struct {
	MatchID string  `json:"matchId"`
	Player  string  `json:"player"`
	Inputs  []Input `json:"inputs"`
}

type matchRequest struct {
	MatchID string `json:"matchId"`
}

type roomUpdated struct {
	Room multiplayer.RoomInfo `json:"room"`
	You  string               `json:"you"`
}

type roomError struct {
	Message string `json:"message"`
}

type roomClosed struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type matchStarted struct {
	MatchID   string                   `json:"matchId"`
	Code      string                   `json:"code"`
	Seed      string                   `json:"seed"`
	Settings  config.GameSettings      `json:"settings"`
	Countdown int64                    `json:"countdown"`
	Players   []multiplayer.PlayerInfo `json:"players"`
	You       string                   `json:"you"`
}

type state struct {
	MatchID     string                    `json:"matchId"`
	Elapsed     int64                     `json:"elapsed"`
	You         string                    `json:"you"`
	DoneInputID int64                     `json:"doneInputId"`
	Players     []multiplayer.PlayerState `json:"players"`
}

type matchEnded struct {
	MatchID string                    `json:"matchId"`
	Reason  int                       `json:"reason"`
	Message string                    `json:"message"`
	Winner  string                    `json:"winner"`
	Scores  []multiplayer.PlayerScore `json:"scores"`
}

// EncodeMessage encodes a client message. Session ids are not sent; the
// server stamps them from the connection.
func EncodeMessage(msg multiplayer.CoordinatorMessage) ([]byte, error) {
	switch m := msg.(type) {
	case multiplayer.CreateRoomMsg:
		return encode(TypeCreateRoom, roomRequest{Name: m.Name})
	case multiplayer.JoinRoomMsg:
		return encode(TypeJoinRoom, roomRequest{Code: m.Code, Name: m.Name})
	case multiplayer.LeaveRoomMsg:
		return encode(TypeLeaveRoom, nil)
	case multiplayer.SetReadyMsg:
		return encode(TypeReady, readyRequest{Ready: m.Ready})
	case multiplayer.UpdateSettingsMsg:
		return encode(TypeSettings, settingsRequest{Settings: m.Settings})
	case multiplayer.StartMatchMsg:
		return encode(TypeStart, nil)
	case multiplayer.PlayerInputsMsg:
		frame := inputsFrame{
			MatchID: string(m.MatchID),
			Player:  string(m.Player),
			Inputs:  make([]Input, len(m.Inputs)),
		}
		for i, in := range m.Inputs {
			frame.Inputs[i] = FromInput(in)
		}
		return encode(TypeInputs, frame)
	case multiplayer.LeaveMatchMsg:
		return encode(TypeLeaveMatch, matchRequest{MatchID: string(m.MatchID)})
	default:
		return nil, fmt.Errorf("wire: cannot encode %T", msg)
	}
}

// DecodeMessage decodes a client frame received on the given session.
func DecodeMessage(data []byte, session multiplayer.SessionID) (multiplayer.CoordinatorMessage, error) {
	var env Envelope
	if err := strict(data, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeCreateRoom:
		var req roomRequest
		if err := strictData(env.Data, &req); err != nil {
			return nil, err
		}
		return multiplayer.CreateRoomMsg{SessionID: session, Name: req.Name}, nil

	case TypeJoinRoom:
		var req roomRequest
		if err := strictData(env.Data, &req); err != nil {
			return nil, err
		}
		if req.Code == "" {
			return nil, fmt.Errorf("%w: join without code", ErrMalformed)
		}
		return multiplayer.JoinRoomMsg{SessionID: session, Code: req.Code, Name: req.Name}, nil

	case TypeLeaveRoom:
		return multiplayer.LeaveRoomMsg{SessionID: session}, nil

	case TypeReady:
		var req readyRequest
		if err := strictData(env.Data, &req); err != nil {
			return nil, err
		}
		return multiplayer.SetReadyMsg{SessionID: session, Ready: req.Ready}, nil

	case TypeSettings:
		var req settingsRequest
		if err := strictData(env.Data, &req); err != nil {
			return nil, err
		}
		return multiplayer.UpdateSettingsMsg{SessionID: session, Settings: req.Settings}, nil

	case TypeStart:
		return multiplayer.StartMatchMsg{SessionID: session}, nil

	case TypeInputs:
		var req inputsRequest
		if err := strictData(env.Data, &req); err != nil {
			return nil, err
		}
		if req.MatchID == "" || req.Player == "" {
			return nil, fmt.Errorf("%w: inputs without match or player", ErrMalformed)
		}
		inputs, err := decodeInputs(req.Inputs)
		if err != nil {
			return nil, err
		}
		return multiplayer.PlayerInputsMsg{
			SessionID: session,
			MatchID:   multiplayer.MatchID(req.MatchID),
			Player:    multiplayer.PlayerID(req.Player),
			Inputs:    inputs,
		}, nil

	case TypeLeaveMatch:
		var req matchRequest
		if err := strictData(env.Data, &req); err != nil {
			return nil, err
		}
		return multiplayer.LeaveMatchMsg{SessionID: session, MatchID: multiplayer.MatchID(req.MatchID)}, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
}

// EncodeEvent encodes a server event.
func EncodeEvent(evt multiplayer.SessionEvent) ([]byte, error) {
	switch e := evt.(type) {
	case multiplayer.RoomUpdatedEvent:
		return encode(TypeRoomUpdated, roomUpdated{Room: e.Room, You: string(e.You)})
	case multiplayer.RoomErrorEvent:
		return encode(TypeRoomError, roomError(e))
	case multiplayer.RoomClosedEvent:
		return encode(TypeRoomClosed, roomClosed(e))
	case multiplayer.MatchStartedEvent:
		return encode(TypeMatchStarted, matchStarted{
			MatchID:   string(e.MatchID),
			Code:      e.Code,
			Seed:      e.Seed,
			Settings:  e.Settings,
			Countdown: int64(e.Countdown),
			Players:   e.Players,
			You:       string(e.You),
		})
	case multiplayer.StateEvent:
		return encode(TypeState, state{
			MatchID:     string(e.MatchID),
			Elapsed:     int64(e.Elapsed),
			You:         string(e.You),
			DoneInputID: e.DoneInputID,
			Players:     e.Players,
		})
	case multiplayer.MatchEndedEvent:
		return encode(TypeMatchEnded, matchEnded{
			MatchID: string(e.MatchID),
			Reason:  int(e.Reason),
			Message: e.Reason.String(),
			Winner:  string(e.Winner),
			Scores:  e.Scores,
		})
	default:
		return nil, fmt.Errorf("wire: cannot encode %T", evt)
	}
}

// DecodeEvent decodes a server frame on the client.
func DecodeEvent(data []byte) (multiplayer.SessionEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeRoomUpdated:
		var e roomUpdated
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return multiplayer.RoomUpdatedEvent{Room: e.Room, You: multiplayer.SessionID(e.You)}, nil

	case TypeRoomError:
		var e roomError
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return multiplayer.RoomErrorEvent(e), nil

	case TypeRoomClosed:
		var e roomClosed
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return multiplayer.RoomClosedEvent(e), nil

	case TypeMatchStarted:
		var e matchStarted
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return multiplayer.MatchStartedEvent{
			MatchID:   multiplayer.MatchID(e.MatchID),
			Code:      e.Code,
			Seed:      e.Seed,
			Settings:  e.Settings,
			Countdown: time.Duration(e.Countdown),
			Players:   e.Players,
			You:       multiplayer.PlayerID(e.You),
		}, nil

	case TypeState:
		var e state
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return multiplayer.StateEvent{
			MatchID:     multiplayer.MatchID(e.MatchID),
			Elapsed:     time.Duration(e.Elapsed),
			You:         multiplayer.PlayerID(e.You),
			DoneInputID: e.DoneInputID,
			Players:     e.Players,
		}, nil

	case TypeMatchEnded:
		var e matchEnded
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, err
		}
		return multiplayer.MatchEndedEvent{
			MatchID: multiplayer.MatchID(e.MatchID),
			Reason:  multiplayer.MatchEndReason(e.Reason),
			Winner:  multiplayer.PlayerID(e.Winner),
			Scores:  e.Scores,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
}

func encode(typ string, data any) ([]byte, error) {
	env := Envelope{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("wire: encode %s: %w", typ, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func strict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return nil
}

func strictData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrMalformed)
	}
	return strict(data, v)
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
