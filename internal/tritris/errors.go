package tritris

import "errors"

var (
	// ErrTimeTravel is returned when asked to advance to a time before the clock.
	ErrTimeTravel = errors.New("tritris: target time is before the clock")
	// ErrInvalidInput is returned for inputs with fields outside their domain.
	ErrInvalidInput = errors.New("tritris: invalid input")
	// ErrDuplicateInput is returned for an input id not above the last appended id.
	ErrDuplicateInput = errors.New("tritris: duplicate input id")
	// ErrOutOfOrderInput is returned for an input timed before the last appended input.
	ErrOutOfOrderInput = errors.New("tritris: input time goes backwards")
	// ErrInvalidOptions is returned by New for unusable options.
	ErrInvalidOptions = errors.New("tritris: invalid options")
	// ErrInvalidState is returned by Load for snapshots that do not fit the game.
	ErrInvalidState = errors.New("tritris: invalid state")
)
