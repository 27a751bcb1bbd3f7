package wire

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// MaxInputsPerMessage caps one inputs batch.
const MaxInputsPerMessage = 256

// Input is the wire form of a tritris.Input. Time is in nanoseconds of
// simulation time; vertDir is true for one row down.
type Input struct {
	ID       int64 `json:"id"`
	Time     int64 `json:"time"`
	HorzDir  int   `json:"horzDir"`
	VertDir  bool  `json:"vertDir"`
	Rot      int   `json:"rot"`
	SoftDrop bool  `json:"softDrop"`
	HardDrop bool  `json:"hardDrop"`
}

// rawInput detects missing fields on decode.
type rawInput struct {
	ID       *int64 `json:"id"`
	Time     *int64 `json:"time"`
	HorzDir  *int   `json:"horzDir"`
	VertDir  *bool  `json:"vertDir"`
	Rot      *int   `json:"rot"`
	SoftDrop *bool  `json:"softDrop"`
	HardDrop *bool  `json:"hardDrop"`
}

// FromInput converts a kernel input to its wire form.
func FromInput(in tritris.Input) Input {
	return Input{
		ID:       in.ID,
		Time:     int64(in.Time),
		HorzDir:  in.Horz,
		VertDir:  in.Down,
		Rot:      in.Rot,
		SoftDrop: in.SoftDrop,
		HardDrop: in.HardDrop,
	}
}

func (r rawInput) toInput() (tritris.Input, error) {
	switch {
	case r.ID == nil:
		return tritris.Input{}, fmt.Errorf("%w: input missing id", ErrMalformed)
	case r.Time == nil:
		return tritris.Input{}, fmt.Errorf("%w: input missing time", ErrMalformed)
	case r.HorzDir == nil:
		return tritris.Input{}, fmt.Errorf("%w: input missing horzDir", ErrMalformed)
	case r.VertDir == nil:
		return tritris.Input{}, fmt.Errorf("%w: input missing vertDir", ErrMalformed)
	case r.Rot == nil:
		return tritris.Input{}, fmt.Errorf("%w: input missing rot", ErrMalformed)
	case r.SoftDrop == nil:
		return tritris.Input{}, fmt.Errorf("%w: input missing softDrop", ErrMalformed)
	case r.HardDrop == nil:
		return tritris.Input{}, fmt.Errorf("%w: input missing hardDrop", ErrMalformed)
	}
	in := tritris.Input{
		ID:       *r.ID,
		Time:     time.Duration(*r.Time),
		Horz:     *r.HorzDir,
		Down:     *r.VertDir,
		Rot:      *r.Rot,
		SoftDrop: *r.SoftDrop,
		HardDrop: *r.HardDrop,
	}
	if err := in.Validate(); err != nil {
		return tritris.Input{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return in, nil
}

func decodeInputs(raw []rawInput) ([]tritris.Input, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty inputs batch", ErrMalformed)
	}
	if len(raw) > MaxInputsPerMessage {
		return nil, fmt.Errorf("%w: %d inputs in one batch", ErrMalformed, len(raw))
	}
	out := make([]tritris.Input, len(raw))
	for i, r := range raw {
		in, err := r.toInput()
		if err != nil {
			return nil, err
		}
		out[i] = in
	}
	return out, nil
}
