package board

import (
	"fmt"
	"strings"
)

// Cell values: 0 is empty, 1..n is piece type+1, Garbage marks prefilled rows.
const (
	Empty   = 0
	Garbage = len(cellAlphabet) - 1
)

const cellAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Board is the occupancy grid of one player. Row 0 is the top.
type Board struct {
	Width  int
	Height int
	cells  []uint8
}

// New creates an empty board.
func New(width, height int) *Board {
	return &Board{
		Width:  width,
		Height: height,
		cells:  make([]uint8, width*height),
	}
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{Width: b.Width, Height: b.Height, cells: make([]uint8, len(b.cells))}
	copy(c.cells, b.cells)
	return c
}

// At returns the cell value at (x, y). Out-of-range cells read as empty.
func (b *Board) At(x, y int) int {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return Empty
	}
	return int(b.cells[y*b.Width+x])
}

// Set writes a cell value. Out-of-range writes are ignored.
func (b *Board) Set(x, y, v int) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	b.cells[y*b.Width+x] = uint8(v)
}

// Valid reports whether the piece is inside the board and overlaps nothing.
func (b *Board) Valid(p *Piece) bool {
	if p.OutOfBounds(b.Width, b.Height) {
		return false
	}
	for _, c := range p.Cells() {
		if b.At(c.X, c.Y) != Empty {
			return false
		}
	}
	return true
}

// Place commits the piece's cells to the grid.
func (b *Board) Place(p *Piece) {
	for _, c := range p.Cells() {
		b.Set(c.X, c.Y, p.Type+1)
	}
}

// FullRows returns the indices of completely filled rows, top to bottom.
func (b *Board) FullRows() []int {
	var rows []int
	for y := 0; y < b.Height; y++ {
		full := true
		for x := 0; x < b.Width; x++ {
			if b.At(x, y) == Empty {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, y)
		}
	}
	return rows
}

// RemoveRow deletes a row and shifts everything above it down by one.
// Removing rows top to bottom keeps the remaining indices valid.
func (b *Board) RemoveRow(row int) {
	if row < 0 || row >= b.Height {
		return
	}
	copy(b.cells[b.Width:(row+1)*b.Width], b.cells[:row*b.Width])
	for x := 0; x < b.Width; x++ {
		b.cells[x] = Empty
	}
}

// FillGarbage fills the bottom rows with garbage cells. Each cell is filled
// when rnd()*100 < density, and a full row gets one hole at a random column.
func (b *Board) FillGarbage(rows, density int, rnd func() float64) {
	for y := b.Height - rows; y < b.Height; y++ {
		if y < 0 {
			continue
		}
		filled := 0
		for x := 0; x < b.Width; x++ {
			if rnd()*100 < float64(density) {
				b.Set(x, y, Garbage)
				filled++
			}
		}
		if filled == b.Width {
			hole := int(rnd() * float64(b.Width))
			if hole >= b.Width {
				hole = b.Width - 1
			}
			b.Set(hole, y, Empty)
		}
	}
}

// Serialize encodes the grid as rows of base-36 digits separated by '/'.
func (b *Board) Serialize() string {
	var sb strings.Builder
	sb.Grow(len(b.cells) + b.Height)
	for y := 0; y < b.Height; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		for x := 0; x < b.Width; x++ {
			sb.WriteByte(cellAlphabet[b.At(x, y)])
		}
	}
	return sb.String()
}

// Deserialize decodes a grid produced by Serialize.
func Deserialize(blob string) (*Board, error) {
	rows := strings.Split(blob, "/")
	if blob == "" || len(rows[0]) == 0 {
		return nil, fmt.Errorf("board: empty blob")
	}
	b := New(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != b.Width {
			return nil, fmt.Errorf("board: row %d has width %d, expected %d", y, len(row), b.Width)
		}
		for x := 0; x < len(row); x++ {
			v := strings.IndexByte(cellAlphabet, row[x])
			if v < 0 {
				return nil, fmt.Errorf("board: invalid cell %q at (%d, %d)", row[x], x, y)
			}
			b.Set(x, y, v)
		}
	}
	return b, nil
}
