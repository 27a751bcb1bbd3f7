package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris/pieces"
)

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SSH: SSHConfig{
			Addr:        ":2222",
			HostKeyPath: ".ssh/tritris_ed25519",
			IdleTimeout: 10 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			RequestTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Path: "tritris.db",
		},
		Match: MatchConfig{
			TickRate:       60,
			BroadcastRate:  20,
			AuthorityDelay: 100 * time.Millisecond,
			Countdown:      3 * time.Second,
			EndDelay:       3 * time.Second,
			MaxPlayers:     4,
			RoomTimeout:    30 * time.Minute,
			CleanupPeriod:  time.Minute,
		},
		Game: DefaultGameSettings(),
	}
}

// DefaultGameSettings returns the settings of a new room.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		StartLevel:  0,
		BoardWidth:  8,
		BoardHeight: 16,
		PieceSet:    pieces.Standard,
		Mode:        ModeClassic,
		Garbage: GarbageSettings{
			Height:  6,
			Density: 60,
		},
	}
}

// DefaultYAML returns the embedded default server YAML.
func DefaultYAML() []byte {
	return defaultServerYAML
}
