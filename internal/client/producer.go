// Package client holds the player's side of a match: turning held keys
// into timestamped inputs and predicting the local board ahead of the
// server, then reconciling with the server's confirmed snapshots.
package client

import (
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// Delayed auto shift timing. A held direction moves once, waits DASMax,
// then repeats every DASMax-DASCharged.
var (
	DASMax     = tritris.Frames(16)
	DASCharged = tritris.Frames(10)
)

// Keys is the held state of the game keys in one frame.
type Keys struct {
	Left, Right bool
	Down        bool
	RotLeft     bool
	RotRight    bool
	Rot180      bool
	HardDrop    bool
}

// Producer turns per-frame key state into inputs with increasing ids.
// It is not safe for concurrent use.
type Producer struct {
	nextID   int64
	started  bool
	last     time.Duration
	lastDown time.Duration
	das      time.Duration
	prev     Keys

	// A blocked rotation stays charged and fires again while held.
	leftCharged  bool
	rightCharged bool
}

// NewProducer creates a producer whose first input gets firstID.
func NewProducer(firstID int64) *Producer {
	return &Producer{nextID: firstID}
}

// NextID returns the id the next input will get.
func (p *Producer) NextID() int64 {
	return p.nextID
}

// Next returns the input for the frame at now, if any key asks for one.
func (p *Producer) Next(now time.Duration, keys Keys) (tritris.Input, bool) {
	dt := time.Duration(0)
	if p.started {
		dt = now - p.last
	}
	p.started = true
	p.last = now
	defer func() { p.prev = keys }()

	in := tritris.Input{ID: p.nextID, Time: now}

	if keys.HardDrop && !p.prev.HardDrop {
		in.HardDrop = true
	}

	// Down locks out sideways movement.
	oneSide := keys.Left != keys.Right && !keys.Down
	if oneSide {
		p.das += dt
		justPressed := (keys.Left && !p.prev.Left) || (keys.Right && !p.prev.Right)
		move := false
		if justPressed {
			move = true
			p.das = 0
		} else if p.das >= DASMax {
			move = true
			p.das = DASCharged
		}
		if move {
			if keys.Left {
				in.Horz = -1
			} else {
				in.Horz = 1
			}
		}
	}

	rotLeft := keys.RotLeft && (!p.prev.RotLeft || p.leftCharged)
	rotRight := keys.RotRight && (!p.prev.RotRight || p.rightCharged)
	switch {
	case rotLeft && rotRight, keys.Rot180 && !p.prev.Rot180:
		in.Rot = 2
	case rotRight:
		in.Rot = 1
	case rotLeft:
		in.Rot = -1
	}
	if !keys.RotLeft {
		p.leftCharged = false
	}
	if !keys.RotRight {
		p.rightCharged = false
	}

	if keys.Down && (!p.prev.Down || now-p.lastDown >= tritris.SoftDropInterval) {
		in.Down = true
		in.SoftDrop = true
		p.lastDown = now
	}

	if in.Horz == 0 && in.Rot == 0 && !in.Down && !in.HardDrop {
		return tritris.Input{}, false
	}
	p.nextID++
	return in, true
}

// Feedback tells the producer what the kernel did with an input.
func (p *Producer) Feedback(in tritris.Input, ev tritris.Events) {
	if ev.Has(tritris.EventWallCharge) {
		p.das = DASMax
	}
	switch {
	case ev.Has(tritris.EventPlaced):
		p.leftCharged = false
		p.rightCharged = false
	case ev.Has(tritris.EventRotated):
		p.leftCharged = false
		p.rightCharged = false
	case in.Rot != 0:
		if in.Rot == 1 || in.Rot == 2 {
			p.rightCharged = true
		}
		if in.Rot == -1 || in.Rot == 2 {
			p.leftCharged = true
		}
	}
}
