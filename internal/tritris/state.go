package tritris

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris/bag"
	"github.com/vovakirdan/tui-tritris/internal/tritris/board"
)

// GameState is a complete snapshot of a Game. Loading it into a game built
// with the same options and reading it back yields an equal value.
// Times are simulation durations and encode as integer nanoseconds.
type GameState struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	PieceSet string `json:"pieceSet"`
	Board    string `json:"board"`

	Seed  string `json:"seed"`
	Draws uint64 `json:"draws"`
	Bag   []int  `json:"bag"`

	Current     *board.PieceState `json:"current"`
	NextIndex   int               `json:"nextIndex"`
	NextRepeats int               `json:"nextRepeats"`
	Chained     bool              `json:"chained"`

	StartLevel    int           `json:"startLevel"`
	Level         int           `json:"level"`
	Lines         int           `json:"lines"`
	Score         int           `json:"score"`
	FallInterval  time.Duration `json:"fallInterval"`
	SoftDropBonus int           `json:"softDropBonus"`
	LastMoveDown  time.Duration `json:"lastMoveDown"`
	SpawnAt       time.Duration `json:"spawnAt"`
	ClearEndsAt   time.Duration `json:"clearEndsAt"`
	ClearRows     []int         `json:"clearRows"`
	TritrisCount  int           `json:"tritrisCount"`
	Alive         bool          `json:"alive"`

	Clock       time.Duration `json:"clock"`
	DoneInputID int64         `json:"doneInputId"`
}

// State captures the current snapshot.
func (g *Game) State() GameState {
	s := GameState{
		Width:         g.board.Width,
		Height:        g.board.Height,
		PieceSet:      g.set.Name,
		Board:         g.board.Serialize(),
		Seed:          g.bag.Seed(),
		Draws:         g.bag.Draws(),
		Bag:           g.bag.Contents(),
		NextIndex:     g.nextIndex,
		NextRepeats:   g.nextRepeats,
		Chained:       g.chained,
		StartLevel:    g.startLevel,
		Level:         g.level,
		Lines:         g.lines,
		Score:         g.score,
		FallInterval:  g.fallInterval,
		SoftDropBonus: g.softDropBonus,
		LastMoveDown:  g.lastMoveDown,
		SpawnAt:       g.spawnAt,
		ClearEndsAt:   g.clearEndsAt,
		TritrisCount:  g.tritrisCount,
		Alive:         g.alive,
		Clock:         g.clock,
		DoneInputID:   g.doneInputID,
	}
	if g.current != nil {
		ps := g.current.State()
		s.Current = &ps
	}
	if len(g.clearRows) > 0 {
		s.ClearRows = append([]int(nil), g.clearRows...)
	}
	return s
}

// Load replaces the game's state with a snapshot. The input log is kept;
// inputs above the snapshot's watermark will be applied again.
func (g *Game) Load(s GameState) error {
	if s.PieceSet != g.set.Name {
		return fmt.Errorf("%w: piece set %q, game uses %q", ErrInvalidState, s.PieceSet, g.set.Name)
	}
	b, err := board.Deserialize(s.Board)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if b.Width != s.Width || b.Height != s.Height || b.Width != g.board.Width || b.Height != g.board.Height {
		return fmt.Errorf("%w: board is %dx%d", ErrInvalidState, b.Width, b.Height)
	}
	bg, err := bag.Restore(s.Seed, g.set.Len(), s.Draws, s.Bag)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if g.set.Shape(s.NextIndex) == nil {
		return fmt.Errorf("%w: next piece %d", ErrInvalidState, s.NextIndex)
	}
	var current *board.Piece
	if s.Current != nil {
		p, err := board.PieceFromState(g.set, *s.Current)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		if s.Alive && !b.Valid(&p) {
			return fmt.Errorf("%w: current piece overlaps the board", ErrInvalidState)
		}
		current = &p
	}

	g.board = b
	g.bag = bg
	g.current = current
	g.nextIndex = s.NextIndex
	g.nextRepeats = s.NextRepeats
	g.chained = s.Chained
	g.startLevel = s.StartLevel
	g.level = s.Level
	g.lines = s.Lines
	g.score = s.Score
	g.fallInterval = s.FallInterval
	g.softDropBonus = s.SoftDropBonus
	g.lastMoveDown = s.LastMoveDown
	g.spawnAt = s.SpawnAt
	g.clearEndsAt = s.ClearEndsAt
	g.clearRows = append([]int(nil), s.ClearRows...)
	g.tritrisCount = s.TritrisCount
	g.alive = s.Alive
	g.clock = s.Clock
	g.doneInputID = s.DoneInputID
	g.inputCursor = s.DoneInputID
	g.confirmed = g.State()
	return nil
}
