package tritris

import (
	"fmt"
	"sync"
	"time"
)

// Input is one player intent scheduled at a simulation time.
type Input struct {
	ID       int64
	Time     time.Duration
	Horz     int  // -1 left, 0 none, 1 right
	Down     bool // one row down
	Rot      int  // -1 left, 1 right, 2 or -2 half turn
	SoftDrop bool // Down comes from a held soft drop
	HardDrop bool
}

// Validate checks every field against its domain.
func (in Input) Validate() error {
	switch {
	case in.ID < 0:
		return fmt.Errorf("%w: id %d", ErrInvalidInput, in.ID)
	case in.Time < 0:
		return fmt.Errorf("%w: time %v", ErrInvalidInput, in.Time)
	case in.Horz < -1 || in.Horz > 1:
		return fmt.Errorf("%w: horizontal direction %d", ErrInvalidInput, in.Horz)
	case in.Rot < -2 || in.Rot > 2:
		return fmt.Errorf("%w: rotation %d", ErrInvalidInput, in.Rot)
	}
	return nil
}

// InputLog is the ordered input stream of one player. The network path
// appends while the simulation path reads, so all methods lock.
type InputLog struct {
	mu       sync.Mutex
	inputs   []Input
	lastID   int64
	lastTime time.Duration
}

// NewInputLog creates an empty log.
func NewInputLog() *InputLog {
	return &InputLog{lastID: -1}
}

// Append adds an input. Ids must strictly increase and times must not
// decrease across appends, including appends of since-pruned inputs.
func (l *InputLog) Append(in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if in.ID <= l.lastID {
		return fmt.Errorf("%w: %d after %d", ErrDuplicateInput, in.ID, l.lastID)
	}
	if in.Time < l.lastTime {
		return fmt.Errorf("%w: %v after %v", ErrOutOfOrderInput, in.Time, l.lastTime)
	}
	l.inputs = append(l.inputs, in)
	l.lastID = in.ID
	l.lastTime = in.Time
	return nil
}

// Next returns the first input with an id above after.
func (l *InputLog) Next(after int64) (Input, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, in := range l.inputs {
		if in.ID > after {
			return in, true
		}
	}
	return Input{}, false
}

// Pending returns a copy of the inputs with ids above after.
func (l *InputLog) Pending(after int64) []Input {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Input
	for _, in := range l.inputs {
		if in.ID > after {
			out = append(out, in)
		}
	}
	return out
}

// Prune drops inputs with ids at or below watermark.
func (l *InputLog) Prune(watermark int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := 0
	for i < len(l.inputs) && l.inputs[i].ID <= watermark {
		i++
	}
	l.inputs = append(l.inputs[:0], l.inputs[i:]...)
}

// Len returns the number of retained inputs.
func (l *InputLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inputs)
}

// LastID returns the highest id ever appended, or -1.
func (l *InputLog) LastID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastID
}
