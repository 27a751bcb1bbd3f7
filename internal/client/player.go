package client

import (
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// Player drives one board from key state: it produces inputs and feeds
// them to the predictor frame by frame. Local games use it without a
// server and simply never reconcile.
type Player struct {
	producer  *Producer
	predictor *Predictor
}

// NewPlayer creates a player for a game with the given options.
func NewPlayer(opts tritris.Options) (*Player, error) {
	pred, err := NewPredictor(opts)
	if err != nil {
		return nil, err
	}
	return &Player{producer: NewProducer(0), predictor: pred}, nil
}

// Game returns the predicted game.
func (p *Player) Game() *tritris.Game {
	return p.predictor.Game()
}

// Predictor returns the player's predictor.
func (p *Player) Predictor() *Predictor {
	return p.predictor
}

// Frame applies whatever input the keys produce at now and advances the
// prediction to now. The input goes first so that it wins a tie with a
// gravity step at the same time, as it does on the server.
// Nothing is produced before time zero or after a top out.
func (p *Player) Frame(now time.Duration, keys Keys) (tritris.Events, error) {
	game := p.predictor.Game()
	var ev tritris.Events
	if now >= 0 && now >= game.Clock() && game.Alive() {
		if in, ok := p.producer.Next(now, keys); ok {
			res, err := p.predictor.Submit(in)
			if err != nil {
				return res, err
			}
			p.producer.Feedback(in, res)
			ev |= res
		}
	}

	res, err := p.predictor.Advance(now)
	return ev | res, err
}

// Drain returns the inputs to send to the server.
func (p *Player) Drain() []tritris.Input {
	return p.predictor.Drain()
}

// Reconcile applies a confirmed server snapshot.
func (p *Player) Reconcile(state tritris.GameState, now time.Duration) (tritris.Events, error) {
	return p.predictor.Reconcile(state, now)
}
