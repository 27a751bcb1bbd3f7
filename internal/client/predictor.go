package client

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// Predictor runs the local player's kernel ahead of the server. Inputs are
// applied immediately and queued for sending; snapshots from the server
// replace the local state and the unconfirmed inputs are replayed on top.
type Predictor struct {
	game   *tritris.Game
	outbox []tritris.Input
}

// NewPredictor creates a predictor with the same options the server uses.
func NewPredictor(opts tritris.Options) (*Predictor, error) {
	game, err := tritris.New(opts)
	if err != nil {
		return nil, err
	}
	return &Predictor{game: game}, nil
}

// Game returns the predicted game.
func (p *Predictor) Game() *tritris.Game {
	return p.game
}

// Advance runs the prediction to now. Times before the clock are ignored.
func (p *Predictor) Advance(now time.Duration) (tritris.Events, error) {
	if now < p.game.Clock() {
		return 0, nil
	}
	return p.game.AdvanceToTime(now, true)
}

// Submit applies an input locally and queues it for the server.
func (p *Predictor) Submit(in tritris.Input) (tritris.Events, error) {
	if in.Time < p.game.Clock() {
		return 0, fmt.Errorf("%w: input at %v, clock at %v", tritris.ErrTimeTravel, in.Time, p.game.Clock())
	}
	if err := p.game.AddInput(in); err != nil {
		return 0, err
	}
	p.outbox = append(p.outbox, in)
	return p.game.AdvanceToTime(in.Time, true)
}

// Drain returns the queued inputs and empties the queue.
func (p *Predictor) Drain() []tritris.Input {
	out := p.outbox
	p.outbox = nil
	return out
}

// Unconfirmed returns how many inputs the server has not applied yet.
func (p *Predictor) Unconfirmed() int {
	return p.game.Log().Len()
}

// Reconcile replaces the local state with a confirmed server snapshot,
// forgets the inputs it covers and replays the rest up to now.
func (p *Predictor) Reconcile(state tritris.GameState, now time.Duration) (tritris.Events, error) {
	p.game.Log().Prune(state.DoneInputID)
	if err := p.game.Load(state); err != nil {
		return 0, fmt.Errorf("client: load server state: %w", err)
	}
	return p.Advance(now)
}
