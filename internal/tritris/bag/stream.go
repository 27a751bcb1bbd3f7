// Package bag implements the seeded piece randomizer shared by every replica
// of a game: an HMAC-SHA256 byte stream and the shuffle bag drawn from it.
package bag

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

const (
	roundSize     = 32
	bytesPerFloat = 4
)

// Stream generates floats in [0, 1) from HMAC-SHA256 rounds keyed by a seed.
// The output depends only on (seed, label, position), so any replica can
// reach the same position by seeking instead of replaying.
type Stream struct {
	seed   string
	label  string
	draws  uint64
	round  uint64
	pos    int
	buffer [roundSize]byte
}

// NewStream creates a stream positioned after the given number of floats.
func NewStream(seed, label string, draws uint64) *Stream {
	cursor := draws * bytesPerFloat
	s := &Stream{
		seed:  seed,
		label: label,
		draws: draws,
		round: cursor / roundSize,
		pos:   int(cursor % roundSize),
	}
	s.generateRound()
	return s
}

// Float returns the next float and advances the stream by one draw.
func (s *Stream) Float() float64 {
	var b [bytesPerFloat]byte
	for i := range b {
		b[i] = s.next()
	}
	s.draws++
	return bytesToFloat(b)
}

// Draws returns how many floats have been taken from the stream.
func (s *Stream) Draws() uint64 {
	return s.draws
}

// Seed returns the stream key.
func (s *Stream) Seed() string {
	return s.seed
}

func (s *Stream) next() byte {
	if s.pos >= roundSize {
		s.round++
		s.pos = 0
		s.generateRound()
	}
	b := s.buffer[s.pos]
	s.pos++
	return b
}

func (s *Stream) generateRound() {
	h := hmac.New(sha256.New, []byte(s.seed))
	fmt.Fprintf(h, "%s:%d", s.label, s.round)
	copy(s.buffer[:], h.Sum(nil))
}

func bytesToFloat(bytes [bytesPerFloat]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		result += float64(b) / math.Pow(256, float64(i+1))
	}
	return result
}
