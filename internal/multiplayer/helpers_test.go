package multiplayer

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tritris/internal/config"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// expectEvent reads events until one of type T arrives.
func expectEvent[T SessionEvent](t *testing.T, s *ChannelSession) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-s.Events():
			if e, ok := evt.(T); ok {
				return e
			}
		case <-timeout:
			var zero T
			t.Fatalf("session %s: no %T received", s.ID(), zero)
			return zero
		}
	}
}

// drain discards buffered events.
func drain(s *ChannelSession) {
	for {
		select {
		case <-s.Events():
		default:
			return
		}
	}
}

func testMatchConfig() config.MatchConfig {
	return config.MatchConfig{
		TickRate:      60,
		BroadcastRate: 60,
		MaxPlayers:    4,
		RoomTimeout:   time.Minute,
		CleanupPeriod: time.Minute,
	}
}

func testSettings(mode config.Mode) config.GameSettings {
	s := config.DefaultGameSettings()
	s.Mode = mode
	return s
}
