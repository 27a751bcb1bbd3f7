package tritris

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris/board"
)

// MoveResult describes how a movement request resolved.
type MoveResult struct {
	Place      bool // blocked moving down; the piece must be placed
	Moved      bool // a visible change happened
	Rotated    bool
	WallCharge bool // horizontal movement was blocked
}

func (r MoveResult) events() Events {
	var ev Events
	if r.Moved {
		ev |= EventMoved
	}
	if r.Rotated {
		ev |= EventRotated
	}
	if r.WallCharge {
		ev |= EventWallCharge
	}
	return ev
}

// advance runs one step of dt. The order of the phases below is part of
// the determinism contract between replicas.
func (g *Game) advance(dt time.Duration, in *Input, gravity bool) Events {
	if !g.alive {
		return 0
	}
	g.clock += dt

	var ev Events
	if len(g.clearRows) > 0 {
		if g.clock < g.clearEndsAt {
			return ev
		}
		ev |= g.finishClear()
	}

	if g.current == nil && g.clock >= g.spawnAt {
		ev |= EventSpawn
		ok := g.promote()
		g.lastMoveDown = g.clock
		if !ok {
			g.current = nil
			g.alive = false
			return ev | EventTopOut
		}
	}

	if g.current != nil && !g.board.Valid(g.current) {
		ev |= g.invariant("current piece at %+v is not a valid placement", g.current.State())
	}

	switch {
	case g.current != nil && in != nil:
		ev |= g.applyInput(*in)
	case g.current != nil && gravity && g.clock >= g.lastMoveDown+g.fallInterval:
		res := g.movePiece(0, 0, true)
		g.softDropBonus = 0
		g.lastMoveDown = g.clock
		if res.Place {
			ev |= g.place()
		}
	}
	return ev
}

func (g *Game) applyInput(in Input) Events {
	if in.HardDrop {
		ev := g.movePiece(in.Horz, in.Rot, false).events()
		rows := 0
		for {
			g.current.Translate(0, 1)
			if !g.board.Valid(g.current) {
				g.current.Translate(0, -1)
				break
			}
			rows++
		}
		g.score += rows
		g.softDropBonus = 0
		g.lastMoveDown = g.clock
		return ev | g.place()
	}

	res := g.movePiece(in.Horz, in.Rot, in.Down)
	ev := res.events()
	if in.Down {
		if in.SoftDrop && g.level < SoftDropBonusLevel {
			g.softDropBonus++
		} else {
			g.softDropBonus = 0
		}
		g.lastMoveDown = g.clock
	}
	if res.Place {
		ev |= g.place()
	}
	return ev
}

// movePiece applies translation and rotation, rolling back horizontal
// movement, then rotation, then descent until the piece fits.
func (g *Game) movePiece(horz, rot int, down bool) MoveResult {
	dy := 0
	if down {
		dy = 1
	}
	p := g.current

	p.Translate(horz, dy)
	p.Rotate(rot)
	if g.board.Valid(p) {
		return MoveResult{Moved: horz != 0 || rot != 0, Rotated: rot != 0}
	}

	p.Translate(-horz, 0)
	if g.board.Valid(p) {
		return MoveResult{Moved: rot != 0, Rotated: rot != 0, WallCharge: true}
	}

	p.Rotate(-rot)
	if g.board.Valid(p) {
		return MoveResult{WallCharge: horz != 0}
	}

	p.Translate(0, -dy)
	return MoveResult{Place: true}
}

// place commits the current piece and schedules the next spawn.
func (g *Game) place() Events {
	ev := EventPlaced
	g.board.Place(g.current)
	depth := g.board.Height - 1 - g.current.BottomRow()

	// Full rows wait until a repeat run is finished.
	if !g.chained {
		if rows := g.board.FullRows(); len(rows) > 0 {
			g.clearRows = rows
			g.clearEndsAt = g.clock + AnimationDuration
			ev |= EventLineClear
			if len(rows) >= TritrisRows {
				ev |= EventTritris
			}
		}
	}

	g.spawnAt = g.clock + EntryDelay(depth)
	g.score += g.softDropBonus
	g.softDropBonus = 0
	g.current = nil
	return ev
}

// finishClear scores the animated rows and removes them from the board.
func (g *Game) finishClear() Events {
	var ev Events
	n := len(g.clearRows)

	g.score += ScoreWeight(n) * (g.level + 1)
	g.lines += n
	if g.shouldLevelUp(n) {
		g.level++
		g.fallInterval = FallInterval(g.level)
		ev |= EventLevelUp
	}
	if n >= TritrisRows {
		g.tritrisCount++
	}

	for _, row := range g.clearRows {
		g.board.RemoveRow(row)
	}
	g.clearRows = nil
	g.clearEndsAt = 0
	g.spawnAt += AnimationDuration
	return ev
}

func (g *Game) shouldLevelUp(cleared int) bool {
	if g.level == g.startLevel {
		return g.lines >= (g.startLevel+1)*10 || g.lines >= max(100, g.startLevel*10-50)
	}
	return g.lines/10 > (g.lines-cleared)/10
}

// promote makes the next piece current and deals a new next piece.
// It returns false when the new piece does not fit.
func (g *Game) promote() bool {
	p, err := board.Spawn(g.set, g.nextIndex, g.board.Width)
	if err != nil {
		panic(fmt.Sprintf("tritris: %v", err))
	}
	g.current = &p

	if g.nextRepeats > 0 {
		g.nextRepeats--
		g.chained = true
	} else {
		g.chained = false
		g.nextIndex = g.bag.Draw()
		g.nextRepeats = g.set.Shape(g.nextIndex).Repeat
	}
	return g.board.Valid(g.current)
}

// invariant handles a broken kernel invariant: strict games panic, others
// drop the piece and let a fresh one spawn.
func (g *Game) invariant(format string, args ...any) Events {
	msg := fmt.Sprintf(format, args...)
	if g.opts.Strict {
		panic("tritris: invariant violated: " + msg)
	}
	g.current = nil
	g.spawnAt = g.clock
	return EventInvariant
}
