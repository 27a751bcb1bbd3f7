package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-tritris/internal/client"
	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

// SSHServer serves the terminal client over SSH. Every session plays
// against the shared coordinator through an in-process link.
type SSHServer struct {
	config   config.SSHConfig
	game     config.GameSettings
	server   *ssh.Server
	coord    *multiplayer.Coordinator
	sessions *multiplayer.SessionRegistry
	store    *storage.Store
	logger   *log.Logger
}

// NewSSHServer creates a new SSH server. The coordinator and store may be
// nil; online play and scores are then hidden.
func NewSSHServer(
	cfg config.SSHConfig,
	game config.GameSettings,
	coord *multiplayer.Coordinator,
	sessions *multiplayer.SessionRegistry,
	store *storage.Store,
	logger *log.Logger,
) (*SSHServer, error) {
	if logger == nil {
		logger = log.Default()
	}

	srv := &SSHServer{
		config:   cfg,
		game:     game,
		coord:    coord,
		sessions: sessions,
		store:    store,
		logger:   logger.WithPrefix("ssh"),
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".tritris", "host_key")
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.DefaultConfig()
	cfg.ScreenW = pty.Window.Width
	cfg.ScreenH = pty.Window.Height

	var link client.Link
	if s.coord != nil {
		local := client.NewLocalLink(s.coord, s.sessions)
		link = local
		go func() {
			<-sshSession.Context().Done()
			//nolint:errcheck // Closing a local link cannot fail
			local.Close()
		}()
	}

	model := NewSessionModel(s.store, link, s.game, cfg, sshSession.User())
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until ctx is done.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Addr
}

type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenGame
	screenOnline
	screenScores
)

// SessionModel manages the full session flow: menu, then a game, the
// online lobby or the scoreboard, then back to the menu.
//
// It owns the only frame loop of the program and forwards ticks to the
// active screen. Coordinator events always go to the online model, which
// lives for the whole session so that exactly one reader waits on the link.
type SessionModel struct {
	store    *storage.Store
	link     client.Link
	base     config.GameSettings
	config   core.RuntimeConfig
	username string
	screen   sessionScreen
	menu     MenuModel
	game     GameModel
	online   *OnlineModel
	scores   ScoreboardModel
	status   string
	quitting bool
}

// NewSessionModel creates a new session model. A nil link hides online play.
func NewSessionModel(store *storage.Store, link client.Link, base config.GameSettings, cfg core.RuntimeConfig, username string) SessionModel {
	m := SessionModel{
		store:    store,
		link:     link,
		base:     base,
		config:   cfg,
		username: username,
		menu:     NewMenuModel(store, cfg, link != nil),
	}
	if link != nil {
		online := NewOnlineModel(link, username, cfg)
		m.online = &online
	}
	return m
}

// Init starts the frame loop and, with a link, the event reader.
func (m SessionModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.config.FrameRate)}
	if m.online != nil {
		cmds = append(cmds, m.online.waitForEvent())
	}
	return tea.Batch(cmds...)
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.menu = m.forward(m.menu, msg).(MenuModel)
		if m.online != nil {
			online := m.forward(*m.online, msg).(OnlineModel)
			m.online = &online
		}
		switch m.screen {
		case screenGame:
			m.game = m.forward(m.game, msg).(GameModel)
		case screenScores:
			m.scores = m.forward(m.scores, msg).(ScoreboardModel)
		}
		return m, nil

	case TickMsg:
		switch m.screen {
		case screenGame:
			m.game = m.forward(m.game, msg).(GameModel)
		case screenOnline:
			online := m.forward(*m.online, msg).(OnlineModel)
			m.online = &online
		}
		return m, tickCmd(m.config.FrameRate)

	case multiplayer.SessionEvent, linkClosedMsg:
		if m.online == nil {
			return m, nil
		}
		updated, cmd := m.online.Update(msg)
		online := updated.(OnlineModel)
		m.online = &online
		return m, cmd
	}

	switch m.screen {
	case screenGame:
		return m.updateGame(msg)
	case screenOnline:
		return m.updateOnline(msg)
	case screenScores:
		return m.updateScores(msg)
	}
	return m.updateMenu(msg)
}

// forward updates a sub-model and drops its command.
func (m SessionModel) forward(sub tea.Model, msg tea.Msg) tea.Model {
	updated, _ := sub.Update(msg)
	return updated
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.menu.Update(msg)
	m.menu = updated.(MenuModel)

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.menu.Selected() {
	case MenuSolo:
		game, err := NewGameModel(m.menu.Settings(m.base), m.store, m.config, m.username)
		if err != nil {
			m.status = err.Error()
			m.menu.selected = MenuNone
			return m, nil
		}
		m.game = game
		m.screen = screenGame
	case MenuOnline:
		m.online.backToMenu = false
		m.screen = screenOnline
	case MenuScores:
		m.scores = NewScoreboardModel(m.store, m.config.ScreenW, m.config.ScreenH)
		m.screen = screenScores
	}
	m.status = ""
	return m, cmd
}

func (m SessionModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.game.Update(msg)
	m.game = updated.(GameModel)

	if m.game.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.game.BackToMenu() {
		return m.toMenu(), nil
	}
	return m, cmd
}

func (m SessionModel) updateOnline(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.online.Update(msg)
	online := updated.(OnlineModel)
	m.online = &online

	if m.online.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.online.BackToMenu() {
		return m.toMenu(), nil
	}
	return m, cmd
}

func (m SessionModel) updateScores(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.scores.Update(msg)
	m.scores = updated.(ScoreboardModel)

	if m.scores.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.scores.IsGoingBack() {
		return m.toMenu(), nil
	}
	return m, cmd
}

func (m SessionModel) toMenu() SessionModel {
	m.screen = screenMenu
	m.menu.selected = MenuNone
	return m
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenGame:
		return m.game.View()
	case screenOnline:
		return m.online.View()
	case screenScores:
		return m.scores.View()
	}

	view := m.menu.View()
	if m.status != "" {
		view += "\n" + centerText(m.status, m.config.ScreenW)
	}
	return view
}

// RunMenu runs an offline session: the menu, local games and the scoreboard.
func RunMenu(store *storage.Store, base config.GameSettings, cfg core.RuntimeConfig, name string) error {
	p := tea.NewProgram(NewSessionModel(store, nil, base, cfg, name), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
