// Package tritris implements the deterministic simulation kernel of one
// player's board: spawning, gravity, movement, placement, line clears,
// scoring and levels, driven by a simulation clock and a log of timestamped
// inputs. Given the same options and input log every replica reaches the
// same state, which is what client prediction and server authority rely on.
package tritris

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris/bag"
	"github.com/vovakirdan/tui-tritris/internal/tritris/board"
)

// Board size limits.
const (
	MinBoardWidth  = 4
	MaxBoardWidth  = 30
	MinBoardHeight = 8
	MaxBoardHeight = 40
	MaxDensity     = 99
)

// Options configure a new game. They are fixed for the game's lifetime.
type Options struct {
	Seed       string
	StartLevel int
	Width      int
	Height     int
	Set        *board.PieceSet
	// Garbage rows prefilled at the bottom and their fill percentage.
	GarbageHeight  int
	GarbageDensity int
	// Countdown is how long before time zero the clock starts.
	Countdown time.Duration
	// Strict panics on internal invariant violations instead of recovering.
	Strict bool
}

func (o Options) validate() error {
	switch {
	case o.Set == nil || o.Set.Len() == 0:
		return fmt.Errorf("%w: no piece set", ErrInvalidOptions)
	case o.Width < MinBoardWidth || o.Width > MaxBoardWidth:
		return fmt.Errorf("%w: width %d", ErrInvalidOptions, o.Width)
	case o.Height < MinBoardHeight || o.Height > MaxBoardHeight:
		return fmt.Errorf("%w: height %d", ErrInvalidOptions, o.Height)
	case o.GarbageHeight < 0 || o.GarbageHeight > o.Height-4:
		return fmt.Errorf("%w: garbage height %d", ErrInvalidOptions, o.GarbageHeight)
	case o.GarbageDensity < 0 || o.GarbageDensity > MaxDensity:
		return fmt.Errorf("%w: garbage density %d", ErrInvalidOptions, o.GarbageDensity)
	case o.Countdown < 0:
		return fmt.Errorf("%w: countdown %v", ErrInvalidOptions, o.Countdown)
	}
	return nil
}

// Game is one player's simulation. It is not safe for concurrent use except
// through its InputLog.
type Game struct {
	opts  Options
	set   *board.PieceSet
	board *board.Board
	bag   *bag.Bag

	current     *board.Piece
	nextIndex   int
	nextRepeats int
	// chained is set when the next piece continues the current repeat run.
	chained bool

	clock         time.Duration
	startLevel    int
	level         int
	lines         int
	score         int
	fallInterval  time.Duration
	softDropBonus int
	lastMoveDown  time.Duration
	spawnAt       time.Duration
	clearEndsAt   time.Duration
	clearRows     []int
	tritrisCount  int
	alive         bool

	inputs      *InputLog
	doneInputID int64
	// inputCursor is the highest input id consumed or skipped as stale.
	inputCursor int64
	initial     GameState
	confirmed   GameState
}

// New creates a game at its pre-round state: the first piece is already
// current and the clock sits at minus the countdown.
func New(opts Options) (*Game, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	g := &Game{
		opts:        opts,
		set:         opts.Set,
		board:       board.New(opts.Width, opts.Height),
		bag:         bag.New(opts.Seed, opts.Set.Len()),
		clock:       -opts.Countdown,
		startLevel:  ClampStartLevel(opts.StartLevel),
		alive:       true,
		inputs:      NewInputLog(),
		doneInputID: -1,
		inputCursor: -1,
	}
	g.level = g.startLevel
	g.fallInterval = FallInterval(g.level)

	if opts.GarbageHeight > 0 {
		garbage := bag.NewStream(opts.Seed, "garbage", 0)
		g.board.FillGarbage(opts.GarbageHeight, opts.GarbageDensity, garbage.Float)
	}

	g.nextIndex = g.bag.Draw()
	g.nextRepeats = g.set.Shape(g.nextIndex).Repeat
	if !g.promote() {
		g.alive = false
	}
	g.lastMoveDown = FirstGravityDelay

	g.initial = g.State()
	g.confirmed = g.initial
	return g, nil
}

// Reset returns the game to its initial state. The input log is kept.
func (g *Game) Reset() {
	if err := g.Load(g.initial); err != nil {
		panic(fmt.Sprintf("tritris: initial state does not load: %v", err))
	}
}

// AddInput appends an input to the game's log.
func (g *Game) AddInput(in Input) error {
	return g.inputs.Append(in)
}

// Log returns the game's input log. It may be used from other goroutines.
func (g *Game) Log() *InputLog {
	return g.inputs
}

// Options returns the options the game was created with.
func (g *Game) Options() Options { return g.opts }

// Set returns the piece set.
func (g *Game) Set() *board.PieceSet { return g.set }

// Board returns the live board. Callers must not modify it.
func (g *Game) Board() *board.Board { return g.board }

// Current returns a copy of the falling piece, if any.
func (g *Game) Current() (board.Piece, bool) {
	if g.current == nil {
		return board.Piece{}, false
	}
	return *g.current, true
}

// NextIndex returns the type of the next piece.
func (g *Game) NextIndex() int { return g.nextIndex }

// Clock returns the simulation time.
func (g *Game) Clock() time.Duration { return g.clock }

// Alive reports whether the player has not topped out.
func (g *Game) Alive() bool { return g.alive }

// Score returns the score.
func (g *Game) Score() int { return g.score }

// Level returns the current level.
func (g *Game) Level() int { return g.level }

// StartLevel returns the clamped start level.
func (g *Game) StartLevel() int { return g.startLevel }

// Lines returns the number of cleared lines.
func (g *Game) Lines() int { return g.lines }

// TritrisCount returns the number of three-or-more line clears.
func (g *Game) TritrisCount() int { return g.tritrisCount }

// FallInterval returns the gravity interval of the current level.
func (g *Game) FallInterval() time.Duration { return g.fallInterval }

// ClearingRows returns the rows in the running line clear animation.
func (g *Game) ClearingRows() []int {
	return append([]int(nil), g.clearRows...)
}

// ClearProgress returns how far the running line clear animation is, 0..1.
func (g *Game) ClearProgress() float64 {
	if len(g.clearRows) == 0 {
		return 0
	}
	left := g.clearEndsAt - g.clock
	if left <= 0 {
		return 1
	}
	return 1 - float64(left)/float64(AnimationDuration)
}

// DoneInputID returns the highest applied or skipped input id, or -1.
func (g *Game) DoneInputID() int64 { return g.doneInputID }

// Confirmed returns the snapshot taken when the last input was retired.
func (g *Game) Confirmed() GameState { return g.confirmed }

// Initial returns the snapshot of the game at creation.
func (g *Game) Initial() GameState { return g.initial }
