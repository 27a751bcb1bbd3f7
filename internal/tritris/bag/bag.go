package bag

import (
	"errors"
	"fmt"
)

// ErrUnknownPiece is returned when restored bag contents name a piece type
// outside the set.
var ErrUnknownPiece = errors.New("bag: unknown piece type")

// Label of the piece stream. Other consumers of the seed use their own label.
const pieceLabel = "bag"

// Bag deals piece type indices. Every cycle contains each type exactly once;
// the bag refills only when it is empty.
type Bag struct {
	rng      *Stream
	size     int
	contents []int
}

// New creates a fresh bag for a set of size piece types.
func New(seed string, size int) *Bag {
	return &Bag{
		rng:  NewStream(seed, pieceLabel, 0),
		size: size,
	}
}

// Restore rebuilds a bag from a snapshot: the stream is positioned after
// draws outputs and the remaining contents are copied.
func Restore(seed string, size int, draws uint64, contents []int) (*Bag, error) {
	for _, t := range contents {
		if t < 0 || t >= size {
			return nil, fmt.Errorf("%w: %d (set has %d)", ErrUnknownPiece, t, size)
		}
	}
	return &Bag{
		rng:      NewStream(seed, pieceLabel, draws),
		size:     size,
		contents: append([]int(nil), contents...),
	}, nil
}

// Draw removes and returns a uniformly chosen remaining piece type.
func (b *Bag) Draw() int {
	if len(b.contents) == 0 {
		for i := 0; i < b.size; i++ {
			b.contents = append(b.contents, i)
		}
	}
	idx := int(b.rng.Float() * float64(len(b.contents)))
	if idx >= len(b.contents) {
		idx = len(b.contents) - 1
	}
	t := b.contents[idx]
	b.contents = append(b.contents[:idx], b.contents[idx+1:]...)
	return t
}

// Draws returns the number of draws made since the bag was seeded.
func (b *Bag) Draws() uint64 {
	return b.rng.Draws()
}

// Seed returns the seed the bag was created from.
func (b *Bag) Seed() string {
	return b.rng.Seed()
}

// Contents returns a copy of the types remaining in the current cycle.
func (b *Bag) Contents() []int {
	return append([]int{}, b.contents...)
}

// Size returns the number of piece types in a full cycle.
func (b *Bag) Size() int {
	return b.size
}
