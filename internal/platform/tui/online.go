package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tritris/internal/client"
	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/registry"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// OnlineState represents the current state of the online flow.
type OnlineState int

const (
	OnlineStateChoose    OnlineState = iota // Create or join
	OnlineStateEnterCode                    // Typing a join code
	OnlineStateWaiting                      // Request sent, no room yet
	OnlineStateRoom                         // In a room, between matches
	OnlineStateInMatch                      // Playing
	OnlineStateEnded                        // Showing a match result
)

// linkClosedMsg is sent when the link to the coordinator is gone.
type linkClosedMsg struct{}

// OnlineModel plays rooms and matches over a client link. The local board
// is predicted from the player's own inputs and reconciled with every
// state broadcast.
type OnlineModel struct {
	link      client.Link
	name      string
	config    core.RuntimeConfig
	screen    *core.Screen
	keyMapper *KeyMapper
	keys      *HoldTracker
	codeInput textinput.Model
	state     OnlineState
	status    string

	room multiplayer.RoomInfo
	you  multiplayer.SessionID

	match  multiplayer.MatchStartedEvent
	player *client.Player
	start  time.Time
	others []multiplayer.PlayerState
	result multiplayer.MatchEndedEvent

	standalone bool
	closed     bool
	backToMenu bool
	quitting   bool
}

// NewOnlineModel creates an online model over an open link.
func NewOnlineModel(link client.Link, name string, cfg core.RuntimeConfig) OnlineModel {
	ti := textinput.New()
	ti.Placeholder = "ABC123"
	ti.CharLimit = 6
	ti.Width = 8

	return OnlineModel{
		link:      link,
		name:      name,
		config:    cfg,
		screen:    core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		keyMapper: NewKeyMapper(),
		keys:      NewHoldTracker(),
		codeInput: ti,
		state:     OnlineStateChoose,
	}
}

// Init starts listening for coordinator events and starts the frame loop.
func (m OnlineModel) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), tickCmd(m.config.FrameRate))
}

// waitForEvent returns a command that waits for the next coordinator event.
func (m OnlineModel) waitForEvent() tea.Cmd {
	events, done := m.link.Events(), m.link.Done()
	return func() tea.Msg {
		select {
		case evt, ok := <-events:
			if !ok {
				return linkClosedMsg{}
			}
			return evt
		case <-done:
			return linkClosedMsg{}
		}
	}
}

// Update handles messages.
func (m OnlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
	case linkClosedMsg:
		m.closed = true
		m.player = nil
		m.state = OnlineStateChoose
		m.status = "Disconnected from server"
		return m, nil
	case multiplayer.SessionEvent:
		m.handleEvent(msg, time.Now())
		return m, m.waitForEvent()
	}
	return m, nil
}

func (m *OnlineModel) handleEvent(evt multiplayer.SessionEvent, now time.Time) {
	switch e := evt.(type) {
	case multiplayer.RoomUpdatedEvent:
		m.room = e.Room
		m.you = e.You
		if m.state == OnlineStateChoose || m.state == OnlineStateWaiting || m.state == OnlineStateEnterCode {
			m.state = OnlineStateRoom
			m.status = ""
		}

	case multiplayer.RoomErrorEvent:
		m.status = e.Message
		if m.state == OnlineStateWaiting {
			m.state = OnlineStateChoose
		}

	case multiplayer.RoomClosedEvent:
		m.room = multiplayer.RoomInfo{}
		m.player = nil
		m.state = OnlineStateChoose
		m.status = fmt.Sprintf("Room %s closed: %s", e.Code, e.Reason)

	case multiplayer.MatchStartedEvent:
		m.startMatch(e, now)

	case multiplayer.StateEvent:
		m.applyState(e, now)

	case multiplayer.MatchEndedEvent:
		if e.MatchID != m.match.MatchID {
			return
		}
		m.result = e
		m.player = nil
		m.keys.Release()
		m.state = OnlineStateEnded
	}
}

func (m *OnlineModel) startMatch(e multiplayer.MatchStartedEvent, now time.Time) {
	player, err := client.NewPlayer(e.Settings.Options(e.Seed, e.Countdown, false))
	if err != nil {
		m.status = err.Error()
		//nolint:errcheck // The match goes on without us either way
		m.link.Send(multiplayer.LeaveMatchMsg{SessionID: m.link.Session(), MatchID: e.MatchID})
		return
	}
	m.match = e
	m.player = player
	m.start = now
	m.others = nil
	m.keys.Release()
	m.state = OnlineStateInMatch
	m.status = ""
}

// matchTime returns the kernel time of now. It is negative during the
// countdown.
func (m *OnlineModel) matchTime(now time.Time) time.Duration {
	return now.Sub(m.start) - m.match.Countdown
}

func (m *OnlineModel) applyState(e multiplayer.StateEvent, now time.Time) {
	if m.player == nil || e.MatchID != m.match.MatchID {
		return
	}

	// The server clock is never ahead of ours.
	if local := now.Sub(m.start); e.Elapsed > local {
		m.start = now.Add(-e.Elapsed)
	}

	m.others = m.others[:0]
	for _, ps := range e.Players {
		if ps.ID != e.You {
			m.others = append(m.others, ps)
			continue
		}
		if _, err := m.player.Reconcile(ps.State, m.matchTime(now)); err != nil {
			m.status = err.Error()
		}
	}
}

func (m OnlineModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.state != OnlineStateInMatch || m.player == nil {
		return m, tickCmd(m.config.FrameRate)
	}

	if _, err := m.player.Frame(m.matchTime(now), m.keys.Keys(now)); err != nil {
		m.status = err.Error()
	}
	if inputs := m.player.Drain(); len(inputs) > 0 {
		err := m.link.Send(multiplayer.PlayerInputsMsg{
			SessionID: m.link.Session(),
			MatchID:   m.match.MatchID,
			Player:    m.match.You,
			Inputs:    inputs,
		})
		if err != nil {
			m.status = err.Error()
		}
	}
	return m, tickCmd(m.config.FrameRate)
}

func (m OnlineModel) handleKey(msg tea.KeyMsg, now time.Time) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.state {
	case OnlineStateChoose:
		return m.handleChooseKey(msg)
	case OnlineStateEnterCode:
		return m.handleCodeKey(msg)
	case OnlineStateWaiting:
		if msg.String() == "esc" {
			m.state = OnlineStateChoose
		}
	case OnlineStateRoom:
		return m.handleRoomKey(msg)
	case OnlineStateInMatch:
		return m.handleMatchKey(msg, now)
	case OnlineStateEnded:
		switch msg.String() {
		case "enter", "esc", " ":
			m.state = OnlineStateRoom
		case "q":
			return m.quit()
		}
	}
	return m, nil
}

func (m OnlineModel) handleChooseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c", "C", "1":
		if m.closed {
			return m, nil
		}
		m.send(multiplayer.CreateRoomMsg{SessionID: m.link.Session(), Name: m.name})
		m.state = OnlineStateWaiting
	case "j", "J", "2":
		if m.closed {
			return m, nil
		}
		m.state = OnlineStateEnterCode
		m.status = ""
		m.codeInput.SetValue("")
		return m, m.codeInput.Focus()
	case "esc", "b":
		return m.back()
	case "q":
		return m.quit()
	}
	return m, nil
}

func (m OnlineModel) handleCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.codeInput.Blur()
		m.state = OnlineStateChoose
		return m, nil
	case "enter":
		code := strings.ToUpper(strings.TrimSpace(m.codeInput.Value()))
		if code == "" {
			return m, nil
		}
		m.codeInput.Blur()
		m.send(multiplayer.JoinRoomMsg{SessionID: m.link.Session(), Code: code, Name: m.name})
		m.state = OnlineStateWaiting
		return m, nil
	}

	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return m, cmd
}

func (m OnlineModel) handleRoomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	owner := m.room.Owner == m.you
	settings := m.room.Settings

	switch msg.String() {
	case "esc", "b":
		m.send(multiplayer.LeaveRoomMsg{SessionID: m.link.Session()})
		m.room = multiplayer.RoomInfo{}
		m.state = OnlineStateChoose
		return m, nil
	case "q":
		return m.quit()
	case " ":
		if !owner {
			m.send(multiplayer.SetReadyMsg{SessionID: m.link.Session(), Ready: !m.ready()})
		}
		return m, nil
	case "enter":
		if owner {
			m.send(multiplayer.StartMatchMsg{SessionID: m.link.Session()})
		}
		return m, nil
	}

	if !owner {
		return m, nil
	}
	switch msg.String() {
	case "m":
		settings.Mode = nextMode(settings.Mode)
	case "p":
		settings.PieceSet = nextPieceSet(settings.PieceSet)
	case "d":
		config.ApplyPreset(&settings, nextPreset(settings.StartLevel))
	case "+", "=":
		settings.StartLevel = min(settings.StartLevel+1, tritris.MaxStartLevel)
	case "-":
		settings.StartLevel = max(settings.StartLevel-1, 0)
	default:
		return m, nil
	}
	m.send(multiplayer.UpdateSettingsMsg{SessionID: m.link.Session(), Settings: settings})
	return m, nil
}

func (m OnlineModel) handleMatchKey(msg tea.KeyMsg, now time.Time) (tea.Model, tea.Cmd) {
	action, isQuit := m.keyMapper.MapKey(msg)
	switch {
	case isQuit:
		return m.quit()
	case action == core.ActionBack:
		m.send(multiplayer.LeaveMatchMsg{SessionID: m.link.Session(), MatchID: m.match.MatchID})
		m.player = nil
		m.keys.Release()
		m.state = OnlineStateRoom
		return m, nil
	}
	m.keys.Press(action, now)
	return m, nil
}

func (m *OnlineModel) send(msg multiplayer.CoordinatorMessage) {
	if err := m.link.Send(msg); err != nil {
		m.status = err.Error()
	}
}

func (m OnlineModel) back() (tea.Model, tea.Cmd) {
	if m.standalone {
		return m.quit()
	}
	m.backToMenu = true
	return m, nil
}

func (m OnlineModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m OnlineModel) ready() bool {
	for _, mem := range m.room.Members {
		if mem.Session == m.you {
			return mem.Ready
		}
	}
	return false
}

var modes = []config.Mode{config.ModeClassic, config.ModeVersus, config.ModeGarbage}

func nextMode(cur config.Mode) config.Mode {
	for i, md := range modes {
		if md == cur {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

func nextPieceSet(cur string) string {
	sets := registry.List()
	for i, s := range sets {
		if s.ID == cur {
			return sets[(i+1)%len(sets)].ID
		}
	}
	return sets[0].ID
}

// nextPreset returns the preset after the one whose level is closest
// below or at the given start level.
func nextPreset(level int) config.DifficultyPreset {
	cur := 0
	for i, p := range config.Presets {
		if config.StartLevelForPreset(p) <= level {
			cur = i
		}
	}
	return config.Presets[(cur+1)%len(config.Presets)]
}

// View renders the current state.
func (m OnlineModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	switch m.state {
	case OnlineStateChoose:
		b.WriteString(m.viewChoose())
	case OnlineStateEnterCode:
		b.WriteString(m.viewEnterCode())
	case OnlineStateWaiting:
		b.WriteString("\n")
		b.WriteString(centerText("CONNECTING", m.config.ScreenW))
		b.WriteString("\n\n")
		b.WriteString(centerText("Please wait...", m.config.ScreenW))
	case OnlineStateRoom:
		b.WriteString(m.viewRoom())
	case OnlineStateInMatch:
		return m.viewMatch()
	case OnlineStateEnded:
		b.WriteString(m.viewEnded())
	}

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(centerText(m.status, m.config.ScreenW))
	}
	return b.String()
}

func (m OnlineModel) viewChoose() string {
	var b strings.Builder
	w := m.config.ScreenW

	b.WriteString("\n")
	b.WriteString(centerText("ONLINE TRITRIS", w))
	b.WriteString("\n\n")
	b.WriteString(centerText("[C] Create a room", w))
	b.WriteString("\n")
	b.WriteString(centerText("[J] Join a room", w))
	b.WriteString("\n\n")
	b.WriteString(centerText("Esc: Back  |  Q: Quit", w))
	return b.String()
}

func (m OnlineModel) viewEnterCode() string {
	var b strings.Builder
	w := m.config.ScreenW

	b.WriteString("\n")
	b.WriteString(centerText("JOIN ROOM", w))
	b.WriteString("\n\n")
	b.WriteString(centerText("Enter the room code:", w))
	b.WriteString("\n\n")
	b.WriteString(centerText(m.codeInput.View(), w))
	b.WriteString("\n\n")
	b.WriteString(centerText("Enter: Join  |  Esc: Back", w))
	return b.String()
}

func (m OnlineModel) viewRoom() string {
	var b strings.Builder
	w := m.config.ScreenW
	s := m.room.Settings

	b.WriteString("\n")
	b.WriteString(centerText(fmt.Sprintf("ROOM %s", m.room.Code), w))
	b.WriteString("\n\n")
	for _, mem := range m.room.Members {
		mark := "   "
		switch {
		case mem.Owner:
			mark = "[*]"
		case mem.Ready:
			mark = "[x]"
		}
		you := ""
		if mem.Session == m.you {
			you = " (you)"
		}
		b.WriteString(centerText(fmt.Sprintf("%s %-12s%s", mark, mem.Name, you), w))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(fmt.Sprintf("Mode: %s  Level: %d  Pieces: %s", s.Mode, s.StartLevel, s.PieceSet), w))
	b.WriteString("\n")
	if m.room.InMatch {
		b.WriteString(centerText("A match is running", w))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.room.Owner == m.you {
		b.WriteString(centerText("Enter: Start  |  M: Mode  |  P: Pieces  |  D/+/-: Level", w))
	} else {
		b.WriteString(centerText("Space: Toggle ready", w))
	}
	b.WriteString("\n")
	b.WriteString(centerText("Esc: Leave room  |  Q: Quit", w))
	return b.String()
}

func (m OnlineModel) viewMatch() string {
	m.screen.Clear()
	if m.player == nil {
		return RenderScreen(m.screen)
	}

	name := m.name
	for _, p := range m.match.Players {
		if p.ID == m.match.You {
			name = p.Name
		}
	}
	own := viewOfGame(m.player.Game(), name)

	others := make([]boardView, 0, len(m.others))
	for _, ps := range m.others {
		v, err := viewOfPlayer(ps)
		if err != nil {
			continue
		}
		others = append(others, v)
	}

	if !drawPlayfield(m.screen, own, others) {
		m.screen.DrawText(0, 0, "terminal too small")
	}
	_, fh := boardSize(own.board.Width, own.board.Height, 2)
	m.screen.DrawColorText(0, fh, string(m.match.Settings.Mode)+"  Esc: leave", core.ColorGray)
	if m.status != "" {
		m.screen.DrawColorText(0, fh+1, m.status, core.ColorRed)
	}
	return RenderScreen(m.screen)
}

func (m OnlineModel) viewEnded() string {
	var b strings.Builder
	w := m.config.ScreenW
	r := m.result

	b.WriteString("\n")
	b.WriteString(centerText("MATCH OVER", w))
	b.WriteString("\n\n")

	winner := "No winner"
	for _, s := range r.Scores {
		if s.ID == r.Winner {
			winner = "Winner: " + s.Name
		}
	}
	b.WriteString(centerText(winner, w))
	b.WriteString("\n\n")
	for _, s := range r.Scores {
		left := ""
		if s.Left {
			left = " (left)"
		}
		b.WriteString(centerText(fmt.Sprintf("%-12s %8d  %3d lines  lv %2d%s", s.Name, s.Score, s.Lines, s.Level, left), w))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(centerText(r.Reason.String(), w))
	b.WriteString("\n\n")
	b.WriteString(centerText("Enter: Back to room  |  Q: Quit", w))
	return b.String()
}

// State returns the current online state.
func (m OnlineModel) State() OnlineState {
	return m.state
}

// BackToMenu returns true if user wants to go back to menu.
func (m OnlineModel) BackToMenu() bool {
	return m.backToMenu
}

// IsQuitting returns true if user wants to quit entirely.
func (m OnlineModel) IsQuitting() bool {
	return m.quitting
}

// RunOnline plays over a link in its own Bubble Tea program.
func RunOnline(link client.Link, name string, cfg core.RuntimeConfig) error {
	model := NewOnlineModel(link, name, cfg)
	model.standalone = true
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
