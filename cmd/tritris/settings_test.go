package main

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"

	"github.com/vovakirdan/tui-tritris/internal/config"
)

func parseGameFlags(t *testing.T, board bool, args ...string) gameFlags {
	t.Helper()
	var f gameFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if board {
		f.bindBoard(fs)
	} else {
		f.bind(fs)
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return f
}

func TestGameFlagsSettings(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(config.GameSettings) bool
	}{
		{"defaults", nil, func(s config.GameSettings) bool { return s == config.DefaultGameSettings() }},
		{"difficulty", []string{"--difficulty", "hard"}, func(s config.GameSettings) bool { return s.StartLevel == 19 }},
		{"level wins", []string{"--difficulty", "hard", "--level", "5"}, func(s config.GameSettings) bool { return s.StartLevel == 5 }},
		{"level zero", []string{"--level", "0", "--difficulty", "normal"}, func(s config.GameSettings) bool { return s.StartLevel == 0 }},
		{"mode", []string{"--mode", "garbage"}, func(s config.GameSettings) bool { return s.Mode == config.ModeGarbage }},
		{"board", []string{"--width", "10", "--height", "20"}, func(s config.GameSettings) bool {
			return s.BoardWidth == 10 && s.BoardHeight == 20
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseGameFlags(t, false, tt.args...)
			s, err := f.settings()
			if err != nil {
				t.Fatalf("settings() error = %v", err)
			}
			if !tt.check(s) {
				t.Errorf("settings() = %+v", s)
			}
		})
	}
}

func TestGameFlagsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"difficulty", []string{"--difficulty", "insane"}},
		{"level", []string{"--level", "30"}},
		{"mode", []string{"--mode", "coop"}},
		{"set", []string{"--set", "nope"}},
		{"width", []string{"--width", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseGameFlags(t, false, tt.args...)
			if _, err := f.settings(); !errors.Is(err, config.ErrInvalidSettings) {
				t.Errorf("settings() error = %v, expected ErrInvalidSettings", err)
			}
		})
	}
}

func TestGameFlagsBoardOnly(t *testing.T) {
	f := parseGameFlags(t, true, "--set", "extended")
	s, err := f.settings()
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if s.PieceSet != "extended" || s.StartLevel != config.DefaultGameSettings().StartLevel {
		t.Errorf("settings() = %+v, expected extended set at the default level", s)
	}
}
