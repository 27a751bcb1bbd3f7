package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tritris/internal/client"
	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/storage"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// LocalCountdown is the countdown before a local game starts.
const LocalCountdown = 2 * time.Second

// GameModel is the Bubble Tea model for a local game. The board is driven
// by a client player that never reconciles.
type GameModel struct {
	player    *client.Player
	settings  config.GameSettings
	name      string
	seed      string
	store     *storage.Store
	config    core.RuntimeConfig
	screen    *core.Screen
	keyMapper *KeyMapper
	keys      *HoldTracker
	start     time.Time
	high      int
	err       error

	standalone bool
	quitting   bool
	backToMenu bool
	scoreSaved bool
}

// NewGameModel creates a local game. An empty seed in cfg picks a random one.
func NewGameModel(settings config.GameSettings, store *storage.Store, cfg core.RuntimeConfig, name string) (GameModel, error) {
	m := GameModel{
		settings:  settings,
		name:      name,
		store:     store,
		config:    cfg,
		screen:    core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		keyMapper: NewKeyMapper(),
		keys:      NewHoldTracker(),
	}
	if err := m.newGame(cfg.Seed, time.Now()); err != nil {
		return GameModel{}, err
	}
	return m, nil
}

func (m *GameModel) newGame(seed string, now time.Time) error {
	if seed == "" {
		seed = uuid.NewString()
	}
	if err := m.settings.Validate(); err != nil {
		return err
	}
	player, err := client.NewPlayer(m.settings.Options(seed, LocalCountdown, false))
	if err != nil {
		return fmt.Errorf("tui: new game: %w", err)
	}
	m.player = player
	m.seed = seed
	m.start = now
	m.scoreSaved = false
	m.err = nil
	m.keys.Release()
	if m.store != nil {
		if high, err := m.store.HighScore(m.settings.Mode); err == nil {
			m.high = high
		}
	}
	return nil
}

// Init starts the frame loop.
func (m GameModel) Init() tea.Cmd {
	return tickCmd(m.config.FrameRate)
}

// Update handles messages and updates the model state.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg, time.Now())
	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil
	case TickMsg:
		return m.handleTick(time.Time(msg))
	}
	return m, nil
}

func (m GameModel) handleKey(msg tea.KeyMsg, now time.Time) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	action, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		m.quitting = true
		return m, tea.Quit
	}

	game := m.player.Game()
	switch action {
	case core.ActionBack:
		if m.standalone {
			m.quitting = true
			return m, tea.Quit
		}
		m.backToMenu = true
		return m, nil
	case core.ActionRestart:
		if !game.Alive() {
			if err := m.newGame("", now); err != nil {
				m.err = err
			}
		}
		return m, nil
	}

	m.keys.Press(action, now)
	return m, nil
}

func (m GameModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.err == nil {
		m.step(now)
	}
	return m, tickCmd(m.config.FrameRate)
}

// step advances the game to the kernel time of now.
func (m *GameModel) step(now time.Time) {
	game := m.player.Game()
	elapsed := now.Sub(m.start) - LocalCountdown
	if _, err := m.player.Frame(elapsed, m.keys.Keys(now)); err != nil {
		m.err = err
		return
	}
	m.player.Drain()
	game.Log().Prune(game.DoneInputID())

	if !game.Alive() && !m.scoreSaved {
		m.saveScore()
	}
}

func (m *GameModel) saveScore() {
	m.scoreSaved = true
	game := m.player.Game()
	if m.store == nil || game.Score() == 0 {
		return
	}
	//nolint:errcheck // Best-effort save, the game over screen shows regardless
	m.store.SaveScore(storage.ScoreEntry{
		Name:       m.name,
		Mode:       m.settings.Mode,
		PieceSet:   m.settings.PieceSet,
		StartLevel: m.settings.StartLevel,
		Score:      game.Score(),
		Lines:      game.Lines(),
		Level:      game.Level(),
	})
}

func (m *GameModel) render() {
	m.screen.Clear()
	if m.err != nil {
		m.screen.DrawColorText(0, 0, "error: "+m.err.Error(), core.ColorRed)
		m.screen.DrawText(0, 2, "B: back  Q: quit")
		return
	}

	game := m.player.Game()
	own := viewOfGame(game, m.name)
	if !drawPlayfield(m.screen, own, nil) {
		m.screen.DrawText(0, 0, "terminal too small")
		return
	}

	fw, fh := boardSize(game.Board().Width, game.Board().Height, 2)
	px := fw + 2
	m.screen.DrawText(px, fh-6, fmt.Sprintf("BEST  %d", max(m.high, game.Score())))
	m.screen.DrawText(px, fh-5, fmt.Sprintf("TRITRIS %d", game.TritrisCount()))
	if !game.Alive() {
		m.screen.DrawColorText(px, fh-3, "GAME OVER", core.ColorRed)
		m.screen.DrawText(px, fh-2, "R: again  B: menu")
	} else {
		m.screen.DrawColorText(px, fh-2, string(m.settings.Mode), core.ColorGray)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *GameModel) saveScreenshot() {
	m.render()

	dir := filepath.Join(os.Getenv("HOME"), ".tritris", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	filename := fmt.Sprintf("tritris_%s.txt", time.Now().Format("20060102_150405"))
	//nolint:errcheck // Best-effort save
	os.WriteFile(filepath.Join(dir, filename), []byte(m.screen.String()), 0o600)
}

// View renders the current state to a string for display.
func (m GameModel) View() string {
	if m.quitting {
		return ""
	}
	m.render()
	return RenderScreen(m.screen)
}

// Game returns the local kernel.
func (m GameModel) Game() *tritris.Game {
	return m.player.Game()
}

// IsQuitting returns true if user requested to quit entirely.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m GameModel) BackToMenu() bool {
	return m.backToMenu
}

// Run starts a local game in its own Bubble Tea program.
func Run(settings config.GameSettings, store *storage.Store, cfg core.RuntimeConfig, name string) error {
	model, err := NewGameModel(settings, store, cfg, name)
	if err != nil {
		return err
	}
	model.standalone = true
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
