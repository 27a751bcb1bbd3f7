// Package pieces defines the standard and extended piece sets and registers
// them with the piece-set registry.
package pieces

import (
	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/registry"
	"github.com/vovakirdan/tui-tritris/internal/tritris/board"
)

// Set IDs accepted by match settings.
const (
	Standard = "standard"
	Extended = "extended"
)

// MonoRepeat is how many extra single cells follow a drawn single cell.
const MonoRepeat = 2

func standardShapes() []*board.Shape {
	return []*board.Shape{
		board.NewShape("mono", core.ColorWhite, MonoRepeat, "#"),
		board.NewShape("i3", core.ColorCyan, 0,
			"...",
			"###",
			"..."),
		board.NewShape("v3", core.ColorGreen, 0,
			"#.",
			"##"),
		board.NewShape("o", core.ColorYellow, 0,
			"##",
			"##"),
		board.NewShape("t", core.ColorMagenta, 0,
			"...",
			"###",
			".#."),
		board.NewShape("s", core.ColorGreen, 0,
			"...",
			".##",
			"##."),
		board.NewShape("z", core.ColorRed, 0,
			"...",
			"##.",
			".##"),
		board.NewShape("l", core.ColorOrange, 0,
			"...",
			"###",
			"#.."),
	}
}

var (
	standard = &board.PieceSet{Name: Standard, Shapes: standardShapes()}
	extended = &board.PieceSet{Name: Extended, Shapes: append(standardShapes(),
		board.NewShape("i4", core.ColorCyan, 0,
			"....",
			"####",
			"....",
			"...."),
		board.NewShape("j", core.ColorBlue, 0,
			"...",
			"###",
			"..#"),
	)}
)

func init() {
	registry.Register(Standard, "Standard (8 pieces)", func() *board.PieceSet { return standard })
	registry.Register(Extended, "Extended (10 pieces, 4-line clears)", func() *board.PieceSet { return extended })
}

// MustGet returns a registered set and panics if it is missing.
// Intended for tests and tools that hard-code a set ID.
func MustGet(id string) *board.PieceSet {
	set, err := registry.Create(id)
	if err != nil {
		panic(err)
	}
	return set
}
