// Package config provides YAML-based server configuration loading,
// environment overrides and the game settings shared by every match.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/registry"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
	"github.com/vovakirdan/tui-tritris/internal/tritris/pieces"
)

// ErrInvalidSettings is returned for configuration values that cannot be used.
var ErrInvalidSettings = errors.New("config: invalid settings")

// ServerConfig contains all configuration for the tritris server.
type ServerConfig struct {
	SSH     SSHConfig     `yaml:"ssh"`
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Match   MatchConfig   `yaml:"match"`
	Game    GameSettings  `yaml:"game"`
	// Strict makes kernels panic on invariant violations.
	Strict bool `yaml:"strict" env:"TRITRIS_STRICT"`
}

// SSHConfig defines the SSH listener.
type SSHConfig struct {
	Addr        string        `yaml:"addr" env:"TRITRIS_SSH_ADDR"`
	HostKeyPath string        `yaml:"host_key_path" env:"TRITRIS_SSH_HOST_KEY"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"TRITRIS_SSH_IDLE_TIMEOUT"`
}

// HTTPConfig defines the HTTP/websocket listener.
type HTTPConfig struct {
	Addr           string        `yaml:"addr" env:"TRITRIS_HTTP_ADDR"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"TRITRIS_HTTP_TIMEOUT"`
}

// StorageConfig defines where scores and match results are kept.
type StorageConfig struct {
	Path string `yaml:"path" env:"TRITRIS_DB_PATH"`
}

// MatchConfig defines match timing.
type MatchConfig struct {
	TickRate       int           `yaml:"tick_rate" env:"TRITRIS_TICK_RATE"`           // server ticks per second
	BroadcastRate  int           `yaml:"broadcast_rate" env:"TRITRIS_BROADCAST_RATE"` // state events per second
	AuthorityDelay time.Duration `yaml:"authority_delay" env:"TRITRIS_AUTHORITY_DELAY"`
	Countdown      time.Duration `yaml:"countdown" env:"TRITRIS_COUNTDOWN"`
	EndDelay       time.Duration `yaml:"end_delay" env:"TRITRIS_END_DELAY"`
	MaxPlayers     int           `yaml:"max_players" env:"TRITRIS_MAX_PLAYERS"`
	RoomTimeout    time.Duration `yaml:"room_timeout"`
	CleanupPeriod  time.Duration `yaml:"cleanup_period"`
}

// Mode selects the match rules.
type Mode string

const (
	// ModeClassic ends when every player has topped out; highest score wins.
	ModeClassic Mode = "classic"
	// ModeVersus ends when at most one player is left; the survivor wins.
	ModeVersus Mode = "versus"
	// ModeGarbage is classic with prefilled garbage rows.
	ModeGarbage Mode = "garbage"
)

// GarbageSettings define the prefilled rows of garbage mode.
type GarbageSettings struct {
	Height  int `yaml:"height" json:"height"`
	Density int `yaml:"density" json:"density"` // percent of filled cells
}

// GameSettings are the per-match game options. They are validated once when
// a match is created and never mutated afterwards.
type GameSettings struct {
	StartLevel  int             `yaml:"start_level" json:"startLevel"`
	BoardWidth  int             `yaml:"board_width" json:"boardWidth"`
	BoardHeight int             `yaml:"board_height" json:"boardHeight"`
	PieceSet    string          `yaml:"piece_set" json:"pieceSet"`
	Mode        Mode            `yaml:"mode" json:"mode"`
	Garbage     GarbageSettings `yaml:"garbage" json:"garbage"`
}

// Validate checks that the settings can build a game.
func (s GameSettings) Validate() error {
	switch {
	case s.StartLevel < 0 || s.StartLevel > tritris.MaxStartLevel:
		return fmt.Errorf("%w: start level %d", ErrInvalidSettings, s.StartLevel)
	case s.BoardWidth < tritris.MinBoardWidth || s.BoardWidth > tritris.MaxBoardWidth:
		return fmt.Errorf("%w: board width %d", ErrInvalidSettings, s.BoardWidth)
	case s.BoardHeight < tritris.MinBoardHeight || s.BoardHeight > tritris.MaxBoardHeight:
		return fmt.Errorf("%w: board height %d", ErrInvalidSettings, s.BoardHeight)
	case !registry.Exists(s.PieceSet):
		return fmt.Errorf("%w: piece set %q", ErrInvalidSettings, s.PieceSet)
	}

	switch s.Mode {
	case ModeClassic, ModeVersus:
	case ModeGarbage:
		if s.Garbage.Height < 1 || s.Garbage.Height > s.BoardHeight-4 {
			return fmt.Errorf("%w: garbage height %d", ErrInvalidSettings, s.Garbage.Height)
		}
		if s.Garbage.Density < 1 || s.Garbage.Density > tritris.MaxDensity {
			return fmt.Errorf("%w: garbage density %d", ErrInvalidSettings, s.Garbage.Density)
		}
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidSettings, s.Mode)
	}
	return nil
}

// Options converts the settings to kernel options for one player.
func (s GameSettings) Options(seed string, countdown time.Duration, strict bool) tritris.Options {
	opts := tritris.Options{
		Seed:       seed,
		StartLevel: s.StartLevel,
		Width:      s.BoardWidth,
		Height:     s.BoardHeight,
		Set:        pieces.MustGet(s.PieceSet),
		Countdown:  countdown,
		Strict:     strict,
	}
	if s.Mode == ModeGarbage {
		opts.GarbageHeight = s.Garbage.Height
		opts.GarbageDensity = s.Garbage.Density
	}
	return opts
}

// Validate checks the whole server configuration.
func (c ServerConfig) Validate() error {
	m := c.Match
	switch {
	case m.TickRate <= 0:
		return fmt.Errorf("%w: tick rate %d", ErrInvalidSettings, m.TickRate)
	case m.BroadcastRate <= 0 || m.BroadcastRate > m.TickRate:
		return fmt.Errorf("%w: broadcast rate %d", ErrInvalidSettings, m.BroadcastRate)
	case m.AuthorityDelay < 0:
		return fmt.Errorf("%w: authority delay %v", ErrInvalidSettings, m.AuthorityDelay)
	case m.Countdown < 0 || m.EndDelay < 0:
		return fmt.Errorf("%w: negative match delay", ErrInvalidSettings)
	case m.MaxPlayers < 1:
		return fmt.Errorf("%w: max players %d", ErrInvalidSettings, m.MaxPlayers)
	}
	return c.Game.Validate()
}

// BroadcastEvery returns how many ticks pass between state broadcasts.
func (m MatchConfig) BroadcastEvery() int {
	if m.BroadcastRate <= 0 {
		return 1
	}
	n := m.TickRate / m.BroadcastRate
	if n < 1 {
		n = 1
	}
	return n
}

// TickInterval returns the duration of one server tick.
func (m MatchConfig) TickInterval() time.Duration {
	if m.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(m.TickRate)
}
