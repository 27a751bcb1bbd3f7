package multiplayer

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tritris/internal/config"
)

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	Match    config.MatchConfig
	Defaults config.GameSettings // settings of new rooms
	Strict   bool
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	cfg := config.DefaultServerConfig()
	return CoordinatorConfig{
		Match:    cfg.Match,
		Defaults: cfg.Game,
	}
}

// MatchResultSaver is an interface for saving match results.
// This allows the coordinator to save results without depending on the storage package.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResult) error
}

// Coordinator manages rooms and active matches.
type Coordinator struct {
	config      CoordinatorConfig
	sessions    *SessionRegistry
	resultSaver MatchResultSaver // Optional, can be nil
	logger      *log.Logger

	mu          sync.RWMutex
	rooms       map[string]*Room     // code -> room
	matches     map[MatchID]*Match   // matchID -> match
	sessionRoom map[SessionID]string // sessionID -> room code

	// Message channel for async processing
	msgChan  chan CoordinatorMessage
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, sessions *SessionRegistry, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		config:      cfg,
		sessions:    sessions,
		logger:      logger,
		rooms:       make(map[string]*Room),
		matches:     make(map[MatchID]*Match),
		sessionRoom: make(map[SessionID]string),
		msgChan:     make(chan CoordinatorMessage, 256),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetResultSaver sets the optional match result saver.
func (c *Coordinator) SetResultSaver(saver MatchResultSaver) {
	c.resultSaver = saver
}

// Start begins the coordinator's background processing.
func (c *Coordinator) Start() {
	go c.processMessages()
	go c.cleanupLoop()
}

// Stop shuts down the coordinator and cancels running matches.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
}

// Send sends a message to the coordinator for async processing.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

// processMessages handles incoming messages.
func (c *Coordinator) processMessages() {
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg CoordinatorMessage) {
	switch m := msg.(type) {
	case CreateRoomMsg:
		c.handleCreateRoom(m)
	case JoinRoomMsg:
		c.handleJoinRoom(m)
	case LeaveRoomMsg:
		c.handleLeaveRoom(m.SessionID)
	case SetReadyMsg:
		c.handleSetReady(m)
	case UpdateSettingsMsg:
		c.handleUpdateSettings(m)
	case StartMatchMsg:
		c.handleStartMatch(m)
	case PlayerInputsMsg:
		c.handlePlayerInputs(m)
	case LeaveMatchMsg:
		c.handleLeaveMatch(m)
	case SessionDisconnectedMsg:
		c.handleLeaveRoom(m.SessionID)
	default:
		c.logger.Warn("unknown coordinator message", "type", fmt.Sprintf("%T", msg))
	}
}

func (c *Coordinator) handleCreateRoom(msg CreateRoomMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, inRoom := c.sessionRoom[msg.SessionID]; inRoom {
		session.Send(RoomErrorEvent{Message: "Already in a room"})
		return
	}

	now := time.Now()
	room := &Room{
		Code:       c.generateUniqueCode(),
		Owner:      msg.SessionID,
		Members:    []*Member{{Session: session, Name: memberName(msg.Name, msg.SessionID)}},
		Settings:   c.config.Defaults,
		CreatedAt:  now,
		LastActive: now,
	}
	c.rooms[room.Code] = room
	c.sessionRoom[msg.SessionID] = room.Code
	c.logger.Info("room created", "code", room.Code, "owner", msg.SessionID)

	c.notifyRoom(room)
}

func (c *Coordinator) handleJoinRoom(msg JoinRoomMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, inRoom := c.sessionRoom[msg.SessionID]; inRoom {
		session.Send(RoomErrorEvent{Message: "Already in a room"})
		return
	}

	code := strings.ToUpper(strings.TrimSpace(msg.Code))
	room, exists := c.rooms[code]
	switch {
	case !exists:
		session.Send(RoomErrorEvent{Message: "Room not found"})
		return
	case room.match != nil:
		session.Send(RoomErrorEvent{Message: "Match in progress"})
		return
	case len(room.Members) >= c.config.Match.MaxPlayers:
		session.Send(RoomErrorEvent{Message: "Room is full"})
		return
	}

	room.Members = append(room.Members, &Member{Session: session, Name: memberName(msg.Name, msg.SessionID)})
	room.LastActive = time.Now()
	c.sessionRoom[msg.SessionID] = code

	c.notifyRoom(room)
}

// handleLeaveRoom removes a session from its room and its match. A leaving
// owner hands the room to the next member; an empty room closes.
func (c *Coordinator) handleLeaveRoom(id SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, inRoom := c.sessionRoom[id]
	if !inRoom {
		return
	}
	delete(c.sessionRoom, id)

	room, exists := c.rooms[code]
	if !exists {
		return
	}
	if room.match != nil {
		room.match.PlayerDisconnected(id)
	}
	if !room.remove(id) {
		return
	}

	if len(room.Members) == 0 {
		if room.match != nil {
			room.match.Stop()
			delete(c.matches, room.match.ID())
		}
		delete(c.rooms, code)
		c.logger.Info("room closed", "code", code)
		return
	}
	c.notifyRoom(room)
}

func (c *Coordinator) handleSetReady(msg SetReadyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.roomOf(msg.SessionID)
	if !ok {
		return
	}
	m, _ := room.member(msg.SessionID)
	if m == nil || m.Ready == msg.Ready {
		return
	}
	m.Ready = msg.Ready
	c.notifyRoom(room)
}

func (c *Coordinator) handleUpdateSettings(msg UpdateSettingsMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.roomOf(msg.SessionID)
	switch {
	case !ok:
		session.Send(RoomErrorEvent{Message: "Not in a room"})
		return
	case room.Owner != msg.SessionID:
		session.Send(RoomErrorEvent{Message: "Only the owner can change settings"})
		return
	case room.match != nil:
		session.Send(RoomErrorEvent{Message: "Match in progress"})
		return
	}
	if err := msg.Settings.Validate(); err != nil {
		session.Send(RoomErrorEvent{Message: err.Error()})
		return
	}

	room.Settings = msg.Settings
	for _, m := range room.Members {
		m.Ready = false
	}
	c.notifyRoom(room)
}

func (c *Coordinator) handleStartMatch(msg StartMatchMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room, ok := c.roomOf(msg.SessionID)
	switch {
	case !ok:
		session.Send(RoomErrorEvent{Message: "Not in a room"})
		return
	case room.Owner != msg.SessionID:
		session.Send(RoomErrorEvent{Message: "Only the owner can start"})
		return
	case room.match != nil:
		session.Send(RoomErrorEvent{Message: "Match in progress"})
		return
	case !room.allReady():
		session.Send(RoomErrorEvent{Message: "Waiting for players to get ready"})
		return
	}

	c.startMatch(room)
}

func (c *Coordinator) startMatch(room *Room) {
	// Must be called with lock held

	matchID := MatchID(uuid.NewString())
	seed := uuid.NewString()

	match, err := NewMatch(matchID, room.Code, seed, room.Settings, c.config.Match, c.config.Strict, room.Members, c.logger)
	if err != nil {
		c.logger.Error("failed to create match", "code", room.Code, "err", err)
		for _, m := range room.Members {
			m.Session.Send(RoomErrorEvent{Message: "Failed to create game"})
		}
		return
	}

	room.match = match
	c.matches[matchID] = match
	for _, m := range room.Members {
		m.Ready = false
	}

	players := match.Players()
	for i, m := range room.Members {
		m.Session.Send(MatchStartedEvent{
			MatchID:   matchID,
			Code:      room.Code,
			Seed:      seed,
			Settings:  room.Settings,
			Countdown: c.config.Match.Countdown,
			Players:   players,
			You:       players[i].ID,
		})
	}
	c.logger.Info("match started", "match", matchID, "code", room.Code, "players", len(players))

	go match.Run(c.ctx, func(result MatchResult) {
		c.handleMatchEnded(result)
	})
}

func (c *Coordinator) handleMatchEnded(result MatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	match, exists := c.matches[result.MatchID]
	if !exists {
		return
	}
	delete(c.matches, result.MatchID)
	c.logger.Info("match ended", "match", result.MatchID, "reason", result.Reason, "winner", result.Winner)

	// Save match result if saver is configured
	if c.resultSaver != nil {
		// Best effort save, don't block the coordinator
		go func() {
			if err := c.resultSaver.SaveMatchResult(result); err != nil {
				c.logger.Error("failed to save match result", "match", result.MatchID, "err", err)
			}
		}()
	}

	room, ok := c.rooms[match.Code()]
	if !ok || room.match != match {
		return
	}
	room.match = nil
	room.LastActive = time.Now()

	endEvent := MatchEndedEvent{
		MatchID: result.MatchID,
		Reason:  result.Reason,
		Winner:  result.Winner,
		Scores:  result.Scores,
	}
	for _, m := range room.Members {
		m.Session.Send(endEvent)
	}
	c.notifyRoom(room)
}

func (c *Coordinator) handleLeaveMatch(msg LeaveMatchMsg) {
	c.mu.RLock()
	match, exists := c.matches[msg.MatchID]
	c.mu.RUnlock()

	if !exists {
		return
	}

	// Signal disconnect to match
	match.PlayerDisconnected(msg.SessionID)
}

func (c *Coordinator) handlePlayerInputs(msg PlayerInputsMsg) {
	c.mu.RLock()
	match, exists := c.matches[msg.MatchID]
	c.mu.RUnlock()

	if !exists {
		return
	}
	if seat, ok := match.PlayerFor(msg.SessionID); !ok || seat != msg.Player {
		c.logger.Warn("inputs for a foreign seat", "session", msg.SessionID, "player", msg.Player)
		return
	}

	match.SendInputs(msg.Player, msg.Inputs)
}

// roomOf must be called with the lock held.
func (c *Coordinator) roomOf(id SessionID) (*Room, bool) {
	code, ok := c.sessionRoom[id]
	if !ok {
		return nil, false
	}
	room, ok := c.rooms[code]
	return room, ok
}

// notifyRoom must be called with the lock held.
func (c *Coordinator) notifyRoom(room *Room) {
	info := room.Info()
	for _, m := range room.Members {
		m.Session.Send(RoomUpdatedEvent{Room: info, You: m.Session.ID()})
	}
}

func (c *Coordinator) cleanupLoop() {
	period := c.config.Match.CleanupPeriod
	if period <= 0 {
		period = time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpiredRooms(time.Now())
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) cleanupExpiredRooms(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	timeout := c.config.Match.RoomTimeout
	if timeout <= 0 {
		return
	}
	for code, room := range c.rooms {
		if room.match == nil && now.Sub(room.LastActive) > timeout {
			for _, m := range room.Members {
				m.Session.Send(RoomClosedEvent{Code: code, Reason: "Room expired"})
				delete(c.sessionRoom, m.Session.ID())
			}
			delete(c.rooms, code)
			c.logger.Info("room expired", "code", code)
		}
	}
}

func (c *Coordinator) generateUniqueCode() string {
	for {
		code := generateJoinCode()
		if _, exists := c.rooms[code]; !exists {
			return code
		}
	}
}

// generateJoinCode creates a 6-character uppercase alphanumeric code.
func generateJoinCode() string {
	b := make([]byte, 4) // 4 bytes = 32 bits, base32 encodes to 8 chars, we take 6
	_, err := rand.Read(b)
	if err != nil {
		// Fallback to timestamp-based
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	// Use base32 encoding (A-Z, 2-7), take first 6 chars
	code := base32.StdEncoding.EncodeToString(b)[:6]
	return strings.ToUpper(code)
}

func memberName(name string, id SessionID) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = string(id)
		if len(name) > 8 {
			name = name[:8]
		}
	}
	return name
}

// Room returns a copy of a room by code.
func (c *Coordinator) Room(code string) (RoomInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rooms[strings.ToUpper(code)]
	if !ok {
		return RoomInfo{}, false
	}
	return r.Info(), true
}

// Rooms returns copies of every room.
func (c *Coordinator) Rooms() []RoomInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RoomInfo, 0, len(c.rooms))
	for _, r := range c.rooms {
		out = append(out, r.Info())
	}
	return out
}

// GetMatch returns a match by ID.
func (c *Coordinator) GetMatch(id MatchID) (*Match, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.matches[id]
	return m, ok
}

// RoomCount returns the number of open rooms.
func (c *Coordinator) RoomCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms)
}

// MatchCount returns the number of active matches.
func (c *Coordinator) MatchCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matches)
}
