package core

import "strconv"

// PlayerID identifies a seat in a match: p1, p2, ... in join order.
type PlayerID string

// First two seats, also used for local play.
const (
	Player1 PlayerID = "p1"
	Player2 PlayerID = "p2"
)

// Seat returns the player id of the i-th seat, counting from zero.
func Seat(i int) PlayerID {
	return PlayerID("p" + strconv.Itoa(i+1))
}

// RuntimeConfig contains what the platform passes to a game view at start.
type RuntimeConfig struct {
	ScreenW   int    // Screen width in characters
	ScreenH   int    // Screen height in characters
	FrameRate int    // Redraws per second (default 60)
	Seed      string // Bag seed for local play, empty means random
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:   80,
		ScreenH:   24,
		FrameRate: 60,
	}
}
