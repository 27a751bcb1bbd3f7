package config

import (
	"fmt"
	"strings"
)

// DifficultyPreset represents a named start level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// Presets lists the presets in menu order.
var Presets = []DifficultyPreset{DifficultyEasy, DifficultyNormal, DifficultyHard}

// StartLevelForPreset returns the start level of a difficulty preset.
func StartLevelForPreset(preset DifficultyPreset) int {
	switch preset {
	case DifficultyNormal:
		return 9
	case DifficultyHard:
		return 19
	default:
		return 0
	}
}

// ParsePreset parses a preset name, case-insensitively.
func ParsePreset(name string) (DifficultyPreset, error) {
	p := DifficultyPreset(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Presets {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSettings, name)
}

// ApplyPreset sets the start level of the settings from a preset.
func ApplyPreset(s *GameSettings, preset DifficultyPreset) {
	s.StartLevel = StartLevelForPreset(preset)
}
