// Package board implements the playfield geometry of tritris: piece shapes
// and their rotations, the occupancy grid, collision tests and line removal.
package board

import (
	"fmt"

	"github.com/vovakirdan/tui-tritris/internal/core"
)

// Shape is a piece type: a set of cells inside a Size x Size box.
type Shape struct {
	Name  string
	Color core.Color
	Size  int
	// Repeat is how many extra copies are dealt after the shape is drawn.
	Repeat    int
	rotations [4][]core.Point
}

// NewShape builds a shape from rows drawn with '#' for filled cells.
// Rows must form a square.
func NewShape(name string, color core.Color, repeat int, rows ...string) *Shape {
	size := len(rows)
	s := &Shape{Name: name, Color: color, Size: size, Repeat: repeat}
	for y, row := range rows {
		if len(row) != size {
			panic(fmt.Sprintf("board: shape %q row %d is not %d wide", name, y, size))
		}
		for x, r := range row {
			if r == '#' {
				s.rotations[0] = append(s.rotations[0], core.Point{X: x, Y: y})
			}
		}
	}
	for r := 1; r < 4; r++ {
		prev := s.rotations[r-1]
		next := make([]core.Point, len(prev))
		for i, p := range prev {
			next[i] = p.RotateCW(size)
		}
		s.rotations[r] = next
	}
	return s
}

// Cells returns the cell offsets for a rotation in 0..3.
func (s *Shape) Cells(rot int) []core.Point {
	return s.rotations[((rot%4)+4)%4]
}

// PieceSet is the ordered list of shapes dealt by a bag.
type PieceSet struct {
	Name   string
	Shapes []*Shape
}

// Len returns the number of piece types in the set.
func (ps *PieceSet) Len() int {
	return len(ps.Shapes)
}

// Shape returns the shape for a type index, or nil when out of range.
func (ps *PieceSet) Shape(typ int) *Shape {
	if typ < 0 || typ >= len(ps.Shapes) {
		return nil
	}
	return ps.Shapes[typ]
}

// PieceState is the serialized form of a piece.
type PieceState struct {
	Type int `json:"type"`
	X    int `json:"x"`
	Y    int `json:"y"`
	Rot  int `json:"rot"`
}

// Piece is a shape placed at a position and rotation.
type Piece struct {
	Type  int
	X, Y  int
	Rot   int
	shape *Shape
}

// Spawn creates a piece of the given type at the top center of a board.
// The topmost occupied row of the spawn rotation lands on row 0.
func Spawn(set *PieceSet, typ, boardWidth int) (Piece, error) {
	s := set.Shape(typ)
	if s == nil {
		return Piece{}, fmt.Errorf("board: unknown piece type %d in set %q", typ, set.Name)
	}
	top := s.Size
	for _, c := range s.Cells(0) {
		top = core.Min(top, c.Y)
	}
	return Piece{
		Type:  typ,
		X:     (boardWidth - s.Size) / 2,
		Y:     -top,
		shape: s,
	}, nil
}

// PieceFromState restores a piece from its serialized form.
func PieceFromState(set *PieceSet, st PieceState) (Piece, error) {
	s := set.Shape(st.Type)
	if s == nil {
		return Piece{}, fmt.Errorf("board: unknown piece type %d in set %q", st.Type, set.Name)
	}
	return Piece{Type: st.Type, X: st.X, Y: st.Y, Rot: ((st.Rot % 4) + 4) % 4, shape: s}, nil
}

// State returns the serialized form of the piece.
func (p *Piece) State() PieceState {
	return PieceState{Type: p.Type, X: p.X, Y: p.Y, Rot: p.Rot}
}

// Shape returns the piece's shape.
func (p *Piece) Shape() *Shape {
	return p.shape
}

// Cells returns the absolute board cells covered by the piece.
func (p *Piece) Cells() []core.Point {
	offs := p.shape.Cells(p.Rot)
	out := make([]core.Point, len(offs))
	for i, c := range offs {
		out[i] = c.Add(p.X, p.Y)
	}
	return out
}

// Translate moves the piece by (dx, dy).
func (p *Piece) Translate(dx, dy int) {
	p.X += dx
	p.Y += dy
}

// RotateRight turns the piece a quarter turn clockwise.
func (p *Piece) RotateRight() {
	p.Rot = (p.Rot + 1) % 4
}

// RotateLeft turns the piece a quarter turn counter-clockwise.
func (p *Piece) RotateLeft() {
	p.Rot = (p.Rot + 3) % 4
}

// Rotate180 turns the piece half a turn.
func (p *Piece) Rotate180() {
	p.Rot = (p.Rot + 2) % 4
}

// Rotate applies a rotation direction: -1 left, 1 right, 2 or -2 half turn.
// Zero and unknown values leave the piece unchanged.
func (p *Piece) Rotate(dir int) {
	switch dir {
	case -1:
		p.RotateLeft()
	case 1:
		p.RotateRight()
	case 2, -2:
		p.Rotate180()
	}
}

// OutOfBounds reports whether any cell lies outside a w x h board.
func (p *Piece) OutOfBounds(w, h int) bool {
	for _, c := range p.Cells() {
		if c.X < 0 || c.X >= w || c.Y < 0 || c.Y >= h {
			return true
		}
	}
	return false
}

// BottomRow returns the lowest board row the piece covers.
func (p *Piece) BottomRow() int {
	bottom := -1 << 31
	for _, c := range p.Cells() {
		bottom = core.Max(bottom, c.Y)
	}
	return bottom
}
