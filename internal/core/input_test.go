package core

import "testing"

func TestActionString(t *testing.T) {
	tests := []struct {
		a        Action
		expected string
	}{
		{ActionLeft, "Left"},
		{ActionHardDrop, "HardDrop"},
		{ActionRotate180, "Rotate180"},
		{Action(99), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.a.String(); got != tc.expected {
			t.Errorf("Action(%d).String() = %q, expected %q", tc.a, got, tc.expected)
		}
	}
}

func TestKeyState(t *testing.T) {
	var k KeyState
	if k.Held(ActionLeft) {
		t.Error("zero KeyState should hold nothing")
	}

	k.Press(ActionLeft)
	k.Press(ActionDown)
	if !k.Held(ActionLeft) || !k.Held(ActionDown) {
		t.Error("pressed actions should be held")
	}

	k.Release(ActionLeft)
	if k.Held(ActionLeft) {
		t.Error("released action should not be held")
	}

	k.Clear()
	if k.Held(ActionDown) {
		t.Error("Clear should release every action")
	}
}
