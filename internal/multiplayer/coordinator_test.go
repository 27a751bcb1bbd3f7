package multiplayer

import (
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

type fakeSaver struct {
	results chan MatchResult
}

func (f *fakeSaver) SaveMatchResult(r MatchResult) error {
	f.results <- r
	return nil
}

func newTestCoordinator(t *testing.T, maxPlayers int) (*Coordinator, *SessionRegistry) {
	t.Helper()
	cfg := CoordinatorConfig{
		Match:    testMatchConfig(),
		Defaults: config.DefaultGameSettings(),
		Strict:   true,
	}
	// Matches started here stay in their countdown.
	cfg.Match.Countdown = time.Hour
	cfg.Match.MaxPlayers = maxPlayers

	reg := NewSessionRegistry()
	c := NewCoordinator(cfg, reg, quietLogger())
	t.Cleanup(c.Stop)
	return c, reg
}

func connect(reg *SessionRegistry, id SessionID) *ChannelSession {
	s := NewChannelSession(id, 256)
	reg.Register(s)
	return s
}

// openRoom creates a room owned by s1 and joins s2.
func openRoom(t *testing.T, c *Coordinator, s1, s2 *ChannelSession) string {
	t.Helper()
	c.handleMessage(CreateRoomMsg{SessionID: s1.ID(), Name: "alice"})
	code := expectEvent[RoomUpdatedEvent](t, s1).Room.Code

	c.handleMessage(JoinRoomMsg{SessionID: s2.ID(), Code: strings.ToLower(code), Name: "bob"})
	expectEvent[RoomUpdatedEvent](t, s2)
	drain(s1)
	drain(s2)
	return code
}

func TestCreateAndJoinRoom(t *testing.T) {
	c, reg := newTestCoordinator(t, 4)
	s1 := connect(reg, "s1")
	s2 := connect(reg, "s2")

	c.handleMessage(CreateRoomMsg{SessionID: "s1", Name: "alice"})
	created := expectEvent[RoomUpdatedEvent](t, s1)
	if created.You != "s1" || created.Room.Owner != "s1" || len(created.Room.Members) != 1 {
		t.Fatalf("created = %+v", created)
	}
	if created.Room.Settings != config.DefaultGameSettings() {
		t.Errorf("Settings = %+v, expected defaults", created.Room.Settings)
	}

	c.handleMessage(JoinRoomMsg{SessionID: "s2", Code: strings.ToLower(created.Room.Code), Name: "bob"})
	for _, s := range []*ChannelSession{s1, s2} {
		evt := expectEvent[RoomUpdatedEvent](t, s)
		if len(evt.Room.Members) != 2 || evt.You != s.ID() {
			t.Errorf("%s update = %+v", s.ID(), evt)
		}
	}
	if c.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, expected 1", c.RoomCount())
	}
	room, _ := c.Room(created.Room.Code)
	if room.Members[1].Name != "bob" || room.Members[1].Owner {
		t.Errorf("member = %+v, expected bob, not owner", room.Members[1])
	}
}

func TestRoomErrors(t *testing.T) {
	c, reg := newTestCoordinator(t, 2)
	s1 := connect(reg, "s1")
	s2 := connect(reg, "s2")
	s3 := connect(reg, "s3")
	code := openRoom(t, c, s1, s2)

	tests := []struct {
		name    string
		session *ChannelSession
		msg     CoordinatorMessage
		message string
	}{
		{"unknown room", s3, JoinRoomMsg{SessionID: "s3", Code: "NOPE00"}, "Room not found"},
		{"full room", s3, JoinRoomMsg{SessionID: "s3", Code: code}, "Room is full"},
		{"already in room", s1, CreateRoomMsg{SessionID: "s1"}, "Already in a room"},
		{"start by guest", s2, StartMatchMsg{SessionID: "s2"}, "Only the owner can start"},
		{"start unready", s1, StartMatchMsg{SessionID: "s1"}, "Waiting for players to get ready"},
		{"start outside room", s3, StartMatchMsg{SessionID: "s3"}, "Not in a room"},
		{"settings by guest", s2, UpdateSettingsMsg{SessionID: "s2", Settings: config.DefaultGameSettings()}, "Only the owner can change settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.handleMessage(tt.msg)
			evt := expectEvent[RoomErrorEvent](t, tt.session)
			if evt.Message != tt.message {
				t.Errorf("Message = %q, expected %q", evt.Message, tt.message)
			}
		})
	}
}

func TestUpdateSettings(t *testing.T) {
	c, reg := newTestCoordinator(t, 4)
	s1 := connect(reg, "s1")
	s2 := connect(reg, "s2")
	code := openRoom(t, c, s1, s2)

	c.handleMessage(SetReadyMsg{SessionID: "s2", Ready: true})
	expectEvent[RoomUpdatedEvent](t, s1)
	drain(s2)

	bad := config.DefaultGameSettings()
	bad.Mode = "sprint"
	c.handleMessage(UpdateSettingsMsg{SessionID: "s1", Settings: bad})
	if evt := expectEvent[RoomErrorEvent](t, s1); !strings.Contains(evt.Message, "mode") {
		t.Errorf("Message = %q, expected a mode error", evt.Message)
	}

	good := config.DefaultGameSettings()
	good.Mode = config.ModeVersus
	good.StartLevel = 19
	c.handleMessage(UpdateSettingsMsg{SessionID: "s1", Settings: good})
	evt := expectEvent[RoomUpdatedEvent](t, s2)
	if evt.Room.Settings != good {
		t.Errorf("Settings = %+v, expected %+v", evt.Room.Settings, good)
	}
	room, _ := c.Room(code)
	if room.Members[1].Ready {
		t.Error("changing settings should clear ready flags")
	}
}

func TestStartMatchAndRouteInputs(t *testing.T) {
	c, reg := newTestCoordinator(t, 4)
	s1 := connect(reg, "s1")
	s2 := connect(reg, "s2")
	s3 := connect(reg, "s3")
	code := openRoom(t, c, s1, s2)

	c.handleMessage(SetReadyMsg{SessionID: "s2", Ready: true})
	c.handleMessage(StartMatchMsg{SessionID: "s1"})

	started1 := expectEvent[MatchStartedEvent](t, s1)
	started2 := expectEvent[MatchStartedEvent](t, s2)
	if started1.You != Player1 || started2.You != Player2 {
		t.Errorf("seats = %q/%q, expected p1/p2", started1.You, started2.You)
	}
	if started1.Seed == "" || started1.Seed != started2.Seed || started1.MatchID != started2.MatchID {
		t.Error("both players should get the same match and seed")
	}
	if len(started1.Players) != 2 || started1.Players[1].Name != "bob" {
		t.Errorf("Players = %+v", started1.Players)
	}
	if started1.Countdown != time.Hour {
		t.Errorf("Countdown = %v, expected 1h", started1.Countdown)
	}
	if c.MatchCount() != 1 {
		t.Fatalf("MatchCount() = %d, expected 1", c.MatchCount())
	}
	if room, _ := c.Room(code); !room.InMatch {
		t.Error("room should be in a match")
	}

	c.handleMessage(JoinRoomMsg{SessionID: "s3", Code: code})
	if evt := expectEvent[RoomErrorEvent](t, s3); evt.Message != "Match in progress" {
		t.Errorf("Message = %q, expected Match in progress", evt.Message)
	}

	c.handleMessage(PlayerInputsMsg{
		SessionID: "s2",
		MatchID:   started2.MatchID,
		Player:    Player2,
		Inputs:    []tritris.Input{{ID: 0, Time: 0, Horz: 1}, {ID: 1, Time: time.Millisecond, Horz: -1}},
	})
	c.handleMessage(PlayerInputsMsg{SessionID: "s2", MatchID: "missing", Player: Player2, Inputs: []tritris.Input{{ID: 0}}})
	// s2 does not own p1 and s3 is not in the match.
	c.handleMessage(PlayerInputsMsg{SessionID: "s2", MatchID: started2.MatchID, Player: Player1, Inputs: []tritris.Input{{ID: 0}}})
	c.handleMessage(PlayerInputsMsg{SessionID: "s3", MatchID: started2.MatchID, Player: Player1, Inputs: []tritris.Input{{ID: 0}}})

	m, ok := c.GetMatch(started2.MatchID)
	if !ok {
		t.Fatal("GetMatch() not found")
	}
	if n := m.byID[Player2].game.Log().Len(); n != 2 {
		t.Errorf("p2 log length = %d, expected 2", n)
	}
	if n := m.byID[Player1].game.Log().Len(); n != 0 {
		t.Errorf("p1 log length = %d, expected 0", n)
	}
}

func TestMatchEndReturnsToRoom(t *testing.T) {
	c, reg := newTestCoordinator(t, 4)
	saver := &fakeSaver{results: make(chan MatchResult, 1)}
	c.SetResultSaver(saver)
	s1 := connect(reg, "s1")
	code := func() string {
		c.handleMessage(CreateRoomMsg{SessionID: "s1"})
		return expectEvent[RoomUpdatedEvent](t, s1).Room.Code
	}()

	c.handleMessage(StartMatchMsg{SessionID: "s1"})
	started := expectEvent[MatchStartedEvent](t, s1)

	// Stopping the coordinator cancels its matches.
	c.Stop()

	ended := expectEvent[MatchEndedEvent](t, s1)
	if ended.MatchID != started.MatchID || ended.Reason != MatchEndReasonCancelled {
		t.Errorf("ended = %+v", ended)
	}
	if len(ended.Scores) != 1 || ended.Scores[0].ID != Player1 {
		t.Errorf("Scores = %+v", ended.Scores)
	}
	if evt := expectEvent[RoomUpdatedEvent](t, s1); evt.Room.InMatch {
		t.Error("room should leave the match state")
	}

	select {
	case r := <-saver.results:
		if r.MatchID != started.MatchID || r.Code != code {
			t.Errorf("saved result = %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("result was not saved")
	}
	if c.MatchCount() != 0 {
		t.Errorf("MatchCount() = %d, expected 0", c.MatchCount())
	}
}

func TestOwnerHandover(t *testing.T) {
	c, reg := newTestCoordinator(t, 4)
	s1 := connect(reg, "s1")
	s2 := connect(reg, "s2")
	code := openRoom(t, c, s1, s2)

	c.handleMessage(LeaveRoomMsg{SessionID: "s1"})
	evt := expectEvent[RoomUpdatedEvent](t, s2)
	if evt.Room.Owner != "s2" || len(evt.Room.Members) != 1 || !evt.Room.Members[0].Owner {
		t.Errorf("room after owner left = %+v", evt.Room)
	}

	c.handleMessage(SessionDisconnectedMsg{SessionID: "s2"})
	if _, ok := c.Room(code); ok {
		t.Error("empty room should close")
	}
	if c.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, expected 0", c.RoomCount())
	}
}

func TestLastLeaverStopsMatch(t *testing.T) {
	c, reg := newTestCoordinator(t, 4)
	s1 := connect(reg, "s1")
	c.handleMessage(CreateRoomMsg{SessionID: "s1"})
	expectEvent[RoomUpdatedEvent](t, s1)
	c.handleMessage(StartMatchMsg{SessionID: "s1"})
	expectEvent[MatchStartedEvent](t, s1)

	c.handleMessage(SessionDisconnectedMsg{SessionID: "s1"})
	if c.MatchCount() != 0 || c.RoomCount() != 0 {
		t.Errorf("matches/rooms = %d/%d, expected 0/0", c.MatchCount(), c.RoomCount())
	}
}

func TestCleanupExpiredRooms(t *testing.T) {
	c, reg := newTestCoordinator(t, 4)
	s1 := connect(reg, "s1")
	s2 := connect(reg, "s2")
	c.handleMessage(CreateRoomMsg{SessionID: "s1"})
	expectEvent[RoomUpdatedEvent](t, s1)
	c.handleMessage(CreateRoomMsg{SessionID: "s2"})
	expectEvent[RoomUpdatedEvent](t, s2)
	c.handleMessage(StartMatchMsg{SessionID: "s2"})
	expectEvent[MatchStartedEvent](t, s2)

	c.cleanupExpiredRooms(time.Now().Add(2 * time.Minute))

	if evt := expectEvent[RoomClosedEvent](t, s1); evt.Reason != "Room expired" {
		t.Errorf("Reason = %q, expected Room expired", evt.Reason)
	}
	if c.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, expected the playing room to stay", c.RoomCount())
	}

	// s1 is free to open a new room.
	c.handleMessage(CreateRoomMsg{SessionID: "s1"})
	expectEvent[RoomUpdatedEvent](t, s1)
}

func TestGenerateJoinCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := generateJoinCode()
		if len(code) != 6 || code != strings.ToUpper(code) {
			t.Fatalf("generateJoinCode() = %q, expected 6 uppercase characters", code)
		}
	}
}

func TestMemberName(t *testing.T) {
	tests := []struct {
		name string
		id   SessionID
		want string
	}{
		{" alice ", "s1", "alice"},
		{"", "0123456789", "01234567"},
		{"", "s2", "s2"},
	}
	for _, tt := range tests {
		if got := memberName(tt.name, tt.id); got != tt.want {
			t.Errorf("memberName(%q, %q) = %q, expected %q", tt.name, tt.id, got, tt.want)
		}
	}
}
