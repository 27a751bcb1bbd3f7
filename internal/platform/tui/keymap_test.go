package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tritris/internal/client"
	"github.com/vovakirdan/tui-tritris/internal/core"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestMapKey(t *testing.T) {
	km := NewKeyMapper()
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		expected core.Action
		quit     bool
	}{
		{"a", runeKey('a'), core.ActionLeft, false},
		{"left arrow", tea.KeyMsg{Type: tea.KeyLeft}, core.ActionLeft, false},
		{"right arrow", tea.KeyMsg{Type: tea.KeyRight}, core.ActionRight, false},
		{"down arrow", tea.KeyMsg{Type: tea.KeyDown}, core.ActionDown, false},
		{"z", runeKey('z'), core.ActionRotateLeft, false},
		{"up arrow", tea.KeyMsg{Type: tea.KeyUp}, core.ActionRotateRight, false},
		{"c", runeKey('c'), core.ActionRotate180, false},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, core.ActionHardDrop, false},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, core.ActionConfirm, false},
		{"esc", tea.KeyMsg{Type: tea.KeyEscape}, core.ActionBack, false},
		{"r", runeKey('r'), core.ActionRestart, false},
		{"q", runeKey('q'), core.ActionQuit, true},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, core.ActionQuit, true},
		{"unbound", runeKey('y'), core.ActionNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, quit := km.MapKey(tt.msg)
			if action != tt.expected || quit != tt.quit {
				t.Errorf("MapKey() = (%v, %v), expected (%v, %v)", action, quit, tt.expected, tt.quit)
			}
		})
	}
}

func TestMapKeyToMenuAction(t *testing.T) {
	km := NewKeyMapper()
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		expected MenuAction
	}{
		{"up", tea.KeyMsg{Type: tea.KeyUp}, MenuActionUp},
		{"j", runeKey('j'), MenuActionDown},
		{"h", runeKey('h'), MenuActionLeft},
		{"right", tea.KeyMsg{Type: tea.KeyRight}, MenuActionRight},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, MenuActionSelect},
		{"esc", tea.KeyMsg{Type: tea.KeyEscape}, MenuActionBack},
		{"q", runeKey('q'), MenuActionQuit},
		{"x", runeKey('x'), MenuActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := km.MapKeyToMenuAction(tt.msg); got != tt.expected {
				t.Errorf("MapKeyToMenuAction() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestHoldTrackerTapExpires(t *testing.T) {
	h := NewHoldTracker()
	t0 := time.Unix(0, 0)
	h.Press(core.ActionLeft, t0)

	tests := []struct {
		at   time.Duration
		held bool
	}{
		{0, true},
		{50 * time.Millisecond, true},
		{90 * time.Millisecond, true},
		{100 * time.Millisecond, false},
	}
	for _, tt := range tests {
		if got := h.Keys(t0.Add(tt.at)).Left; got != tt.held {
			t.Errorf("Keys(+%v).Left = %v, expected %v", tt.at, got, tt.held)
		}
	}
}

func TestHoldTrackerRepeatsKeepHeld(t *testing.T) {
	h := NewHoldTracker()
	t0 := time.Unix(0, 0)
	last := t0
	for at := time.Duration(0); at <= 400*time.Millisecond; at += 30 * time.Millisecond {
		last = t0.Add(at)
		h.Press(core.ActionDown, last)
		if !h.Keys(last.Add(10 * time.Millisecond)).Down {
			t.Fatalf("Keys(+%v).Down = false, expected held while repeating", at)
		}
	}
	if !h.Keys(last.Add(110 * time.Millisecond)).Down {
		t.Error("repeating key released before the repeat window")
	}
	if h.Keys(last.Add(130 * time.Millisecond)).Down {
		t.Error("repeating key still held after the repeat window")
	}
}

func TestHoldTrackerOppositeDirection(t *testing.T) {
	h := NewHoldTracker()
	t0 := time.Unix(0, 0)
	h.Press(core.ActionLeft, t0)
	h.Press(core.ActionRight, t0.Add(10*time.Millisecond))

	keys := h.Keys(t0.Add(20 * time.Millisecond))
	if keys.Left || !keys.Right {
		t.Errorf("Keys() = %+v, expected only Right held", keys)
	}
}

func TestHoldTrackerPulses(t *testing.T) {
	h := NewHoldTracker()
	t0 := time.Unix(0, 0)
	h.Press(core.ActionHardDrop, t0)
	h.Press(core.ActionHardDrop, t0)
	h.Press(core.ActionRotateRight, t0)

	expected := []client.Keys{
		{HardDrop: true, RotRight: true},
		{},
		{HardDrop: true},
		{},
	}
	for i, want := range expected {
		if got := h.Keys(t0.Add(time.Duration(i) * 16 * time.Millisecond)); got != want {
			t.Errorf("sample %d: Keys() = %+v, expected %+v", i, got, want)
		}
	}
}

func TestHoldTrackerRelease(t *testing.T) {
	h := NewHoldTracker()
	t0 := time.Unix(0, 0)
	h.Press(core.ActionLeft, t0)
	h.Press(core.ActionRotate180, t0)
	h.Press(core.ActionConfirm, t0)
	h.Release()

	if got := h.Keys(t0); got != (client.Keys{}) {
		t.Errorf("Keys() after Release = %+v, expected none", got)
	}
}
