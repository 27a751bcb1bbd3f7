package core

// Action represents a semantic player intent, abstracted from physical keys.
type Action int

const (
	ActionNone        Action = iota
	ActionLeft               // A, Left arrow
	ActionRight              // D, Right arrow
	ActionDown               // S, Down arrow - soft drop
	ActionRotateLeft         // Z, J
	ActionRotateRight        // X, K, Up arrow
	ActionRotate180          // C, L
	ActionHardDrop           // Space
	ActionConfirm            // Enter - start match, confirm menu entry
	ActionBack               // Escape, B - leave room
	ActionRestart            // R - ask for a rematch
	ActionQuit               // Q, Ctrl+C
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionDown:
		return "Down"
	case ActionRotateLeft:
		return "RotateLeft"
	case ActionRotateRight:
		return "RotateRight"
	case ActionRotate180:
		return "Rotate180"
	case ActionHardDrop:
		return "HardDrop"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// KeyState tracks which actions are currently held.
// Terminals report presses but not releases, so the platform expires a
// held action when it has not been repeated for a while.
type KeyState struct {
	held map[Action]bool
}

// NewKeyState creates an empty key state.
func NewKeyState() KeyState {
	return KeyState{held: make(map[Action]bool)}
}

// Press marks an action as held.
func (k *KeyState) Press(a Action) {
	if k.held == nil {
		k.held = make(map[Action]bool)
	}
	k.held[a] = true
}

// Release marks an action as no longer held.
func (k *KeyState) Release(a Action) {
	delete(k.held, a)
}

// Held returns true if the action is held.
func (k KeyState) Held(a Action) bool {
	return k.held[a]
}

// Clear releases every action.
func (k *KeyState) Clear() {
	for a := range k.held {
		delete(k.held, a)
	}
}
