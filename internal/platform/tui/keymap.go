package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tritris/internal/client"
	"github.com/vovakirdan/tui-tritris/internal/core"
)

// KeyMapper translates Bubble Tea key messages to game actions.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to an action.
// Returns the action (may be ActionNone) and whether it's a quit request.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return core.ActionQuit, true
	case "a", "left":
		return core.ActionLeft, false
	case "d", "right":
		return core.ActionRight, false
	case "s", "down":
		return core.ActionDown, false
	case "z", "j":
		return core.ActionRotateLeft, false
	case "x", "k", "up":
		return core.ActionRotateRight, false
	case "c", "l":
		return core.ActionRotate180, false
	case " ":
		return core.ActionHardDrop, false
	case "enter":
		return core.ActionConfirm, false
	case "b", "esc":
		return core.ActionBack, false
	case "r":
		return core.ActionRestart, false
	}
	return core.ActionNone, false
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionLeft
	MenuActionRight
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k":
		return MenuActionUp
	case "s", "down", "j":
		return MenuActionDown
	case "a", "left", "h":
		return MenuActionLeft
	case "d", "right", "l":
		return MenuActionRight
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	}
	return MenuActionNone
}

// Terminals send a press and then auto-repeats, never a release. A held
// key is released once no repeat arrived within the window. A lone press
// expires before DAS can charge, so a tap moves exactly once.
const (
	tapWindow    = 90 * time.Millisecond
	repeatWindow = 120 * time.Millisecond
)

// HoldTracker turns terminal key presses into the held key set a
// producer samples each frame.
//
// Movement and soft drop are treated as holds with expiry. Rotations and
// hard drop are pulses: every press is reported for exactly one sample,
// with a released sample in between so repeated presses stay distinct.
type HoldTracker struct {
	state   core.KeyState
	pressed map[core.Action]time.Time
	repeats map[core.Action]int

	pending  map[core.Action]int
	reported map[core.Action]bool
}

// NewHoldTracker creates an empty tracker.
func NewHoldTracker() *HoldTracker {
	return &HoldTracker{
		state:    core.NewKeyState(),
		pressed:  make(map[core.Action]time.Time),
		repeats:  make(map[core.Action]int),
		pending:  make(map[core.Action]int),
		reported: make(map[core.Action]bool),
	}
}

func isPulse(a core.Action) bool {
	switch a {
	case core.ActionRotateLeft, core.ActionRotateRight, core.ActionRotate180, core.ActionHardDrop:
		return true
	}
	return false
}

func isHold(a core.Action) bool {
	switch a {
	case core.ActionLeft, core.ActionRight, core.ActionDown:
		return true
	}
	return false
}

// Press records a key press at the given time. Non-game actions are ignored.
func (h *HoldTracker) Press(a core.Action, now time.Time) {
	switch {
	case isPulse(a):
		h.pending[a]++
	case isHold(a):
		switch a {
		case core.ActionLeft:
			h.drop(core.ActionRight)
		case core.ActionRight:
			h.drop(core.ActionLeft)
		}
		if h.state.Held(a) {
			h.repeats[a]++
		} else {
			h.repeats[a] = 0
		}
		h.state.Press(a)
		h.pressed[a] = now
	}
}

func (h *HoldTracker) drop(a core.Action) {
	h.state.Release(a)
	delete(h.pressed, a)
	delete(h.repeats, a)
}

// Release drops every held key and pending pulse.
func (h *HoldTracker) Release() {
	h.state.Clear()
	clear(h.pressed)
	clear(h.repeats)
	clear(h.pending)
	clear(h.reported)
}

func (h *HoldTracker) expire(now time.Time) {
	for a, at := range h.pressed {
		window := tapWindow
		if h.repeats[a] > 0 {
			window = repeatWindow
		}
		if now.Sub(at) > window {
			h.drop(a)
		}
	}
}

func (h *HoldTracker) pulse(a core.Action) bool {
	if h.reported[a] {
		h.reported[a] = false
		return false
	}
	if h.pending[a] > 0 {
		h.pending[a]--
		h.reported[a] = true
		return true
	}
	return false
}

// Keys samples the key set for one frame.
func (h *HoldTracker) Keys(now time.Time) client.Keys {
	h.expire(now)
	return client.Keys{
		Left:     h.state.Held(core.ActionLeft),
		Right:    h.state.Held(core.ActionRight),
		Down:     h.state.Held(core.ActionDown),
		RotLeft:  h.pulse(core.ActionRotateLeft),
		RotRight: h.pulse(core.ActionRotateRight),
		Rot180:   h.pulse(core.ActionRotate180),
		HardDrop: h.pulse(core.ActionHardDrop),
	}
}
