package multiplayer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

// MatchResult contains the outcome of a completed match.
type MatchResult struct {
	MatchID  MatchID
	Code     string
	Seed     string
	Mode     config.Mode
	Settings config.GameSettings
	Reason   MatchEndReason
	Winner   PlayerID
	Scores   []PlayerScore
	Duration time.Duration
}

// WinnerName returns the display name of the winner, or empty.
func (r MatchResult) WinnerName() string {
	for _, s := range r.Scores {
		if s.ID == r.Winner {
			return s.Name
		}
	}
	return ""
}

type matchPlayer struct {
	id      PlayerID
	name    string
	session SessionHandle
	game    *tritris.Game
	left    bool
}

// Match is an active game between the players of a room. Its Run goroutine
// owns every kernel; inputs reach the kernels through their input logs.
type Match struct {
	id       MatchID
	code     string
	seed     string
	settings config.GameSettings
	cfg      config.MatchConfig
	logger   *log.Logger

	players []*matchPlayer
	byID    map[PlayerID]*matchPlayer

	tick      uint64
	decided   bool
	decidedAt time.Duration
	winner    PlayerID

	done           chan struct{}
	doneOnce       sync.Once
	disconnectChan chan SessionID
}

// NewMatch creates a match with one kernel per member, seated in order.
func NewMatch(
	id MatchID,
	code string,
	seed string,
	settings config.GameSettings,
	cfg config.MatchConfig,
	strict bool,
	members []*Member,
	logger *log.Logger,
) (*Match, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("multiplayer: match %s has no players", id)
	}
	if logger == nil {
		logger = log.Default()
	}

	m := &Match{
		id:             id,
		code:           code,
		seed:           seed,
		settings:       settings,
		cfg:            cfg,
		logger:         logger.With("match", id),
		byID:           make(map[PlayerID]*matchPlayer, len(members)),
		done:           make(chan struct{}),
		disconnectChan: make(chan SessionID, len(members)),
	}

	opts := settings.Options(seed, cfg.Countdown, strict)
	for i, mem := range members {
		game, err := tritris.New(opts)
		if err != nil {
			return nil, fmt.Errorf("multiplayer: create game: %w", err)
		}
		p := &matchPlayer{
			id:      core.Seat(i),
			name:    mem.Name,
			session: mem.Session,
			game:    game,
		}
		m.players = append(m.players, p)
		m.byID[p.id] = p
	}
	return m, nil
}

// ID returns the match identifier.
func (m *Match) ID() MatchID {
	return m.id
}

// Code returns the code of the room that started this match.
func (m *Match) Code() string {
	return m.code
}

// Seed returns the bag seed shared by every player.
func (m *Match) Seed() string {
	return m.seed
}

// Players returns the seats of the match.
func (m *Match) Players() []PlayerInfo {
	out := make([]PlayerInfo, len(m.players))
	for i, p := range m.players {
		out[i] = PlayerInfo{ID: p.id, Name: p.name}
	}
	return out
}

// PlayerFor returns the seat of a session.
func (m *Match) PlayerFor(session SessionID) (PlayerID, bool) {
	for _, p := range m.players {
		if p.session.ID() == session {
			return p.id, true
		}
	}
	return "", false
}

// SendInputs appends a player's inputs to its kernel's log. It is safe to
// call from any goroutine. Rejected inputs are logged and dropped.
func (m *Match) SendInputs(player PlayerID, inputs []tritris.Input) {
	p, ok := m.byID[player]
	if !ok {
		m.logger.Warn("inputs for unknown player", "player", player)
		return
	}
	for _, in := range inputs {
		if err := p.game.Log().Append(in); err != nil {
			m.logger.Warn("input rejected", "player", player, "id", in.ID, "err", err)
		}
	}
}

// PlayerDisconnected signals that a player's session has left the match.
func (m *Match) PlayerDisconnected(sessionID SessionID) {
	select {
	case m.disconnectChan <- sessionID:
	default:
	}
}

// Run starts the authoritative match loop and blocks until the match ends.
// The callback is called with the result unless the match was stopped.
func (m *Match) Run(ctx context.Context, onComplete func(MatchResult)) {
	defer m.Stop()

	ticker := time.NewTicker(m.cfg.TickInterval())
	defer ticker.Stop()

	for _, p := range m.players {
		go m.monitorSession(p.session)
	}

	start := time.Now()
	for {
		select {
		case <-ticker.C:
			if result, done := m.tickAt(time.Since(start)); done {
				if onComplete != nil {
					onComplete(result)
				}
				return
			}

		case sessionID := <-m.disconnectChan:
			m.markLeft(sessionID)

		case <-ctx.Done():
			if onComplete != nil {
				onComplete(m.result(MatchEndReasonCancelled, time.Since(start)))
			}
			return

		case <-m.done:
			return
		}
	}
}

// tickAt runs one server tick at the given time since the match started.
func (m *Match) tickAt(elapsed time.Duration) (MatchResult, bool) {
	m.tick++

	if m.connected() == 0 {
		return m.result(MatchEndReasonDisconnect, elapsed), true
	}

	target := elapsed - m.cfg.Countdown - m.cfg.AuthorityDelay
	for _, p := range m.players {
		if p.left || !p.game.Alive() || target < p.game.Clock() {
			continue
		}
		ev, err := p.game.AdvanceToTime(target, true)
		if err != nil {
			m.logger.Error("advance failed", "player", p.id, "err", err)
			continue
		}
		if ev.Has(tritris.EventStaleInput) {
			m.logger.Warn("stale input dropped", "player", p.id, "clock", p.game.Clock())
		}
		if ev.Has(tritris.EventInvariant) {
			m.logger.Error("kernel invariant recovered", "player", p.id)
		}
		if ev.Has(tritris.EventTopOut) {
			m.logger.Info("player topped out", "player", p.id, "score", p.game.Score())
		}
		p.game.Log().Prune(p.game.DoneInputID())
	}

	send := m.tick%uint64(m.cfg.BroadcastEvery()) == 0 //nolint:gosec // BroadcastEvery is at least 1
	if !m.decided {
		if over, winner := m.gameOver(); over {
			m.decided = true
			m.decidedAt = elapsed
			m.winner = winner
			m.logger.Info("match decided", "winner", winner)
			send = true
		}
	}
	if send {
		m.broadcast(elapsed)
	}

	if m.decided && elapsed-m.decidedAt >= m.cfg.EndDelay {
		return m.result(MatchEndReasonCompleted, elapsed), true
	}
	return MatchResult{}, false
}

// gameOver applies the mode's rules. Versus ends once at most one player
// is still playing and the survivor wins. The other modes end when nobody
// is playing and the highest score wins; ties have no winner.
func (m *Match) gameOver() (bool, PlayerID) {
	var playing []*matchPlayer
	for _, p := range m.players {
		if !p.left && p.game.Alive() {
			playing = append(playing, p)
		}
	}

	if m.settings.Mode == config.ModeVersus && len(m.players) > 1 {
		switch len(playing) {
		case 0:
			return true, m.bestScore()
		case 1:
			return true, playing[0].id
		}
		return false, ""
	}

	if len(playing) > 0 {
		return false, ""
	}
	return true, m.bestScore()
}

func (m *Match) bestScore() PlayerID {
	var best *matchPlayer
	tie := false
	for _, p := range m.players {
		switch {
		case best == nil || p.game.Score() > best.game.Score():
			best, tie = p, false
		case p.game.Score() == best.game.Score():
			tie = true
		}
	}
	if best == nil || tie {
		return ""
	}
	return best.id
}

// broadcast sends every connected player the boards of all players. The
// recipient's own board is its confirmed snapshot.
func (m *Match) broadcast(elapsed time.Duration) {
	live := make([]PlayerState, len(m.players))
	for i, p := range m.players {
		live[i] = PlayerState{
			ID:    p.id,
			Name:  p.name,
			Alive: p.game.Alive(),
			Left:  p.left,
			State: p.game.State(),
		}
	}

	for i, p := range m.players {
		if p.left {
			continue
		}
		states := make([]PlayerState, len(live))
		copy(states, live)
		states[i].State = p.game.Confirmed()
		p.session.Send(StateEvent{
			MatchID:     m.id,
			Elapsed:     elapsed,
			You:         p.id,
			DoneInputID: p.game.DoneInputID(),
			Players:     states,
		})
	}
}

func (m *Match) markLeft(sessionID SessionID) {
	for _, p := range m.players {
		if p.session.ID() == sessionID && !p.left {
			p.left = true
			m.logger.Info("player left", "player", p.id)
		}
	}
}

func (m *Match) connected() int {
	n := 0
	for _, p := range m.players {
		if !p.left {
			n++
		}
	}
	return n
}

func (m *Match) result(reason MatchEndReason, elapsed time.Duration) MatchResult {
	r := MatchResult{
		MatchID:  m.id,
		Code:     m.code,
		Seed:     m.seed,
		Mode:     m.settings.Mode,
		Settings: m.settings,
		Reason:   reason,
		Winner:   m.winner,
		Duration: elapsed,
		Scores:   make([]PlayerScore, len(m.players)),
	}
	for i, p := range m.players {
		r.Scores[i] = PlayerScore{
			ID:    p.id,
			Name:  p.name,
			Score: p.game.Score(),
			Lines: p.game.Lines(),
			Level: p.game.Level(),
			Left:  p.left,
		}
	}
	return r
}

func (m *Match) monitorSession(s SessionHandle) {
	select {
	case <-s.Done():
		m.PlayerDisconnected(s.ID())
	case <-m.done:
	}
}

// Stop gracefully stops the match.
func (m *Match) Stop() {
	m.doneOnce.Do(func() {
		close(m.done)
	})
}
