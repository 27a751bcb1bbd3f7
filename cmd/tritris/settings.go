package main

import (
	"github.com/spf13/pflag"

	"github.com/vovakirdan/tui-tritris/internal/config"
)

// gameFlags are the game setting flags shared by play, menu and simulate.
type gameFlags struct {
	mode       string
	difficulty string
	level      int
	width      int
	height     int
	set        string
}

func (f *gameFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.mode, "mode", "", "Game mode: classic, garbage")
	fs.StringVar(&f.difficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	fs.IntVar(&f.level, "level", -1, "Start level 0-29 (overrides --difficulty)")
	f.bindBoard(fs)
}

// bindBoard registers only the board flags, for commands that pick the
// mode and difficulty elsewhere.
func (f *gameFlags) bindBoard(fs *pflag.FlagSet) {
	f.level = -1
	fs.IntVar(&f.width, "width", 0, "Board width (0 = default)")
	fs.IntVar(&f.height, "height", 0, "Board height (0 = default)")
	fs.StringVar(&f.set, "set", "", "Piece set id (see 'tritris sets')")
}

// settings applies the flags to the default game settings and validates them.
func (f *gameFlags) settings() (config.GameSettings, error) {
	s := config.DefaultGameSettings()
	if f.mode != "" {
		s.Mode = config.Mode(f.mode)
	}
	if f.difficulty != "" {
		preset, err := config.ParsePreset(f.difficulty)
		if err != nil {
			return s, err
		}
		config.ApplyPreset(&s, preset)
	}
	if f.level >= 0 {
		s.StartLevel = f.level
	}
	if f.width > 0 {
		s.BoardWidth = f.width
	}
	if f.height > 0 {
		s.BoardHeight = f.height
	}
	if f.set != "" {
		s.PieceSet = f.set
	}
	return s, s.Validate()
}
