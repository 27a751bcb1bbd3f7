package tritris

import (
	"fmt"
	"time"
)

// AdvanceToTime runs the game forward to target, applying logged inputs at
// their times. Steps end exactly on gravity ticks, spawn gates, the end of
// a line clear and input times, so the result does not depend on how a
// caller splits time into calls.
//
// A target before the clock returns ErrTimeTravel and changes nothing.
// Negative targets only move the clock: nothing happens before time zero.
func (g *Game) AdvanceToTime(target time.Duration, gravity bool) (Events, error) {
	if target < g.clock {
		return 0, fmt.Errorf("%w: %v < %v", ErrTimeTravel, target, g.clock)
	}
	if target < 0 {
		g.clock = target
		return 0, nil
	}
	if g.clock < 0 {
		g.clock = 0
	}

	var ev Events
	for g.alive {
		at, in, skipped := g.nextEvent(target, gravity)
		ev |= skipped
		if at > target {
			break
		}
		ev |= g.advance(at-g.clock, in, gravity)
		if in != nil {
			g.inputCursor = in.ID
			if in.ID > g.doneInputID {
				g.doneInputID = in.ID
				g.confirmed = g.State()
			}
		}
	}
	if g.alive {
		g.clock = target
	}
	return ev, nil
}

// nextEvent returns the time of the next step and the input it applies, if
// any. A time above target means nothing is due before target.
func (g *Game) nextEvent(target time.Duration, gravity bool) (time.Duration, *Input, Events) {
	at := target + 1
	consider := func(t time.Duration) {
		if t < g.clock {
			t = g.clock
		}
		if t < at {
			at = t
		}
	}

	switch {
	case len(g.clearRows) > 0:
		consider(g.clearEndsAt)
	case g.current == nil:
		consider(g.spawnAt)
	case gravity:
		consider(g.lastMoveDown + g.fallInterval)
	}

	var skipped Events
	for {
		in, ok := g.inputs.Next(g.inputCursor)
		if !ok {
			break
		}
		if in.Time < g.clock {
			// Arrived after the clock passed it; never applied.
			g.inputCursor = in.ID
			if in.ID > g.doneInputID {
				g.doneInputID = in.ID
				g.confirmed = g.State()
			}
			skipped |= EventStaleInput
			continue
		}
		if in.Time <= at && in.Time <= target {
			return in.Time, &in, skipped
		}
		break
	}
	return at, nil, skipped
}
