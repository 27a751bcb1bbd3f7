package tritris

import (
	"math"
	"time"
)

// FrameRate is the NTSC frame rate the timing tables are expressed in.
const FrameRate = 60.0988

// Frame is the duration of one frame at FrameRate.
var Frame = time.Duration(math.Round(float64(time.Second) / FrameRate))

// Frames converts a frame count to simulation time.
func Frames(n int) time.Duration {
	return time.Duration(n) * Frame
}

// Level and timing constants.
const (
	MaxStartLevel = 29
	// Soft drop bonus points stop accruing from this level on.
	SoftDropBonusLevel = 19
)

var (
	// AnimationDuration is how long a line clear blocks the board.
	AnimationDuration = Frames(20)
	// SoftDropInterval is the repeat interval of a held soft drop.
	SoftDropInterval = Frames(2)
	// FirstGravityDelay is when gravity first acts after the round starts.
	FirstGravityDelay = 750 * time.Millisecond
)

// levelFrames maps the first level of each speed band to its frames per row.
var levelFrames = []struct {
	level  int
	frames int
}{
	{0, 48}, {1, 43}, {2, 38}, {3, 33}, {4, 28},
	{5, 23}, {6, 18}, {7, 13}, {8, 8}, {9, 6},
	{10, 5}, {13, 4}, {16, 3}, {19, 2}, {29, 1},
}

// FallInterval returns the gravity interval for a level.
func FallInterval(level int) time.Duration {
	if level < 0 {
		level = 0
	}
	frames := levelFrames[0].frames
	for _, band := range levelFrames {
		if level >= band.level {
			frames = band.frames
		}
	}
	return Frames(frames)
}

// ClampStartLevel restricts a requested start level to 0..19 or 29.
func ClampStartLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxStartLevel {
		return MaxStartLevel
	}
	if level >= 20 && level < MaxStartLevel {
		return 19
	}
	return level
}

// entryDelayFrames is indexed by bucket; deeper placements spawn sooner.
var entryDelayFrames = [5]int{10, 12, 14, 16, 18}

// EntryDelay returns the spawn delay after a piece lands with its lowest
// cell depth rows above the floor.
func EntryDelay(depth int) time.Duration {
	switch {
	case depth < 2:
		return Frames(entryDelayFrames[0])
	case depth < 6:
		return Frames(entryDelayFrames[1])
	case depth < 10:
		return Frames(entryDelayFrames[2])
	case depth < 14:
		return Frames(entryDelayFrames[3])
	default:
		return Frames(entryDelayFrames[4])
	}
}

// scoreWeights is the line clear score at level 0, by rows cleared at once.
var scoreWeights = map[int]int{
	1: 100,
	2: 300,
	3: 1200,
	4: 3600,
}

// ScoreWeight returns the base points for clearing n rows at once.
func ScoreWeight(n int) int {
	return scoreWeights[n]
}

// TritrisRows is the clear size that counts as a tritris.
const TritrisRows = 3
