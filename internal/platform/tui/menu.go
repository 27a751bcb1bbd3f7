package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

// MenuChoice is what the player picked in the main menu.
type MenuChoice int

const (
	MenuNone MenuChoice = iota
	MenuSolo
	MenuOnline
	MenuScores
)

type menuItem struct {
	choice MenuChoice
	title  string
}

// MenuModel is the Bubble Tea model for the main menu. Left and right
// change the solo mode and difficulty.
type MenuModel struct {
	items     []menuItem
	cursor    int
	modes     []config.Mode
	mode      int
	preset    int
	width     int
	height    int
	store     *storage.Store
	config    core.RuntimeConfig
	keyMapper *KeyMapper
	quitting  bool
	selected  MenuChoice
}

// NewMenuModel creates a new menu model. The online entry is shown only
// when online play is available.
func NewMenuModel(store *storage.Store, cfg core.RuntimeConfig, online bool) MenuModel {
	items := []menuItem{
		{choice: MenuSolo, title: "Play"},
	}
	if online {
		items = append(items, menuItem{choice: MenuOnline, title: "Online"})
	}
	items = append(items, menuItem{choice: MenuScores, title: "High scores"})

	return MenuModel{
		items:     items,
		modes:     []config.Mode{config.ModeClassic, config.ModeGarbage},
		width:     cfg.ScreenW,
		height:    cfg.ScreenH,
		store:     store,
		config:    cfg,
		keyMapper: NewKeyMapper(),
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.selected = MenuScores
		return m, nil
	case "m":
		m.mode = (m.mode + 1) % len(m.modes)
		return m, nil
	}

	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionLeft:
		m.preset = (m.preset + len(config.Presets) - 1) % len(config.Presets)

	case MenuActionRight:
		m.preset = (m.preset + 1) % len(config.Presets)

	case MenuActionSelect:
		m.selected = m.items[m.cursor].choice
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("  T R I T R I S  ", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(centerText(cursor+item.title, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	settings := fmt.Sprintf("Mode: %s  |  Difficulty: < %s >", m.Mode(), m.Preset())
	if m.store != nil {
		if high, err := m.store.HighScore(m.Mode()); err == nil && high > 0 {
			settings += fmt.Sprintf("  |  Best: %d", high)
		}
	}
	b.WriteString(centerText(settings, m.width))
	b.WriteString("\n\n")

	controls := "Up/Down: Navigate  |  Left/Right: Difficulty  |  M: Mode  |  Enter: Select  |  Q: Quit"
	b.WriteString(centerText(controls, m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the chosen entry, or MenuNone.
func (m MenuModel) Selected() MenuChoice {
	return m.selected
}

// Mode returns the selected solo mode.
func (m MenuModel) Mode() config.Mode {
	return m.modes[m.mode]
}

// Preset returns the selected difficulty preset.
func (m MenuModel) Preset() config.DifficultyPreset {
	return config.Presets[m.preset]
}

// Settings returns the base settings with the menu's mode and difficulty applied.
func (m MenuModel) Settings(base config.GameSettings) config.GameSettings {
	base.Mode = m.Mode()
	config.ApplyPreset(&base, m.Preset())
	return base
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// Config returns the current runtime config (may have been updated by resize).
func (m MenuModel) Config() core.RuntimeConfig {
	return m.config
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	n := len([]rune(text))
	if n >= width {
		return text
	}
	padding := (width - n) / 2
	return strings.Repeat(" ", padding) + text
}
