package tui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
)

type fakeLink struct {
	mu     sync.Mutex
	id     multiplayer.SessionID
	sent   []multiplayer.CoordinatorMessage
	events chan multiplayer.SessionEvent
	done   chan struct{}
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		id:     "s1",
		events: make(chan multiplayer.SessionEvent, 8),
		done:   make(chan struct{}),
	}
}

func (l *fakeLink) Session() multiplayer.SessionID { return l.id }

func (l *fakeLink) Send(msg multiplayer.CoordinatorMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, msg)
	return nil
}

func (l *fakeLink) Events() <-chan multiplayer.SessionEvent { return l.events }
func (l *fakeLink) Done() <-chan struct{}                    { return l.done }
func (l *fakeLink) Close() error                             { return nil }

func (l *fakeLink) last() multiplayer.CoordinatorMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sent) == 0 {
		return nil
	}
	return l.sent[len(l.sent)-1]
}

func newTestOnline(t *testing.T) (OnlineModel, *fakeLink) {
	t.Helper()
	link := newFakeLink()
	return NewOnlineModel(link, "ann", core.DefaultConfig()), link
}

func updateOnline(t *testing.T, m OnlineModel, msg tea.Msg) OnlineModel {
	t.Helper()
	updated, _ := m.Update(msg)
	om, ok := updated.(OnlineModel)
	if !ok {
		t.Fatalf("Update() returned %T, expected OnlineModel", updated)
	}
	return om
}

func testRoom(owner multiplayer.SessionID) multiplayer.RoomInfo {
	return multiplayer.RoomInfo{
		Code:  "ABC123",
		Owner: owner,
		Members: []multiplayer.MemberInfo{
			{Session: "s1", Name: "ann", Owner: owner == "s1"},
			{Session: "s2", Name: "bob", Owner: owner == "s2"},
		},
		Settings: config.DefaultGameSettings(),
	}
}

func TestOnlineCreateRoom(t *testing.T) {
	m, link := newTestOnline(t)

	m = updateOnline(t, m, runeKey('c'))
	msg, ok := link.last().(multiplayer.CreateRoomMsg)
	if !ok || msg.SessionID != "s1" || msg.Name != "ann" {
		t.Fatalf("sent %#v, expected CreateRoomMsg for ann", link.last())
	}
	if m.State() != OnlineStateWaiting {
		t.Errorf("State() = %v, expected waiting", m.State())
	}

	m = updateOnline(t, m, multiplayer.RoomUpdatedEvent{Room: testRoom("s1"), You: "s1"})
	if m.State() != OnlineStateRoom {
		t.Errorf("State() = %v, expected room", m.State())
	}
	if view := m.View(); !containsAll(view, "ROOM ABC123", "ann", "bob", "Enter: Start") {
		t.Errorf("View() = %q, expected the owner's room view", view)
	}
}

func TestOnlineJoinRoom(t *testing.T) {
	m, link := newTestOnline(t)

	m = updateOnline(t, m, runeKey('j'))
	if m.State() != OnlineStateEnterCode {
		t.Fatalf("State() = %v, expected code entry", m.State())
	}
	for _, r := range "abc123" {
		m = updateOnline(t, m, runeKey(r))
	}
	m = updateOnline(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	msg, ok := link.last().(multiplayer.JoinRoomMsg)
	if !ok || msg.Code != "ABC123" || msg.Name != "ann" {
		t.Fatalf("sent %#v, expected JoinRoomMsg for ABC123", link.last())
	}

	m = updateOnline(t, m, multiplayer.RoomErrorEvent{Message: "Room not found"})
	if m.State() != OnlineStateChoose {
		t.Errorf("State() = %v, expected back at choose after an error", m.State())
	}
	if view := m.View(); !containsAll(view, "Room not found") {
		t.Errorf("View() = %q, expected the error", view)
	}
}

func TestOnlineRoomKeys(t *testing.T) {
	tests := []struct {
		name  string
		owner multiplayer.SessionID
		key   tea.KeyMsg
		check func(t *testing.T, msg multiplayer.CoordinatorMessage)
	}{
		{
			name:  "member toggles ready",
			owner: "s2",
			key:   tea.KeyMsg{Type: tea.KeySpace},
			check: func(t *testing.T, msg multiplayer.CoordinatorMessage) {
				if m, ok := msg.(multiplayer.SetReadyMsg); !ok || !m.Ready {
					t.Errorf("sent %#v, expected SetReadyMsg{Ready: true}", msg)
				}
			},
		},
		{
			name:  "owner starts",
			owner: "s1",
			key:   tea.KeyMsg{Type: tea.KeyEnter},
			check: func(t *testing.T, msg multiplayer.CoordinatorMessage) {
				if _, ok := msg.(multiplayer.StartMatchMsg); !ok {
					t.Errorf("sent %#v, expected StartMatchMsg", msg)
				}
			},
		},
		{
			name:  "owner cycles mode",
			owner: "s1",
			key:   runeKey('m'),
			check: func(t *testing.T, msg multiplayer.CoordinatorMessage) {
				m, ok := msg.(multiplayer.UpdateSettingsMsg)
				if !ok || m.Settings.Mode != config.ModeVersus {
					t.Errorf("sent %#v, expected versus settings", msg)
				}
			},
		},
		{
			name:  "owner raises level",
			owner: "s1",
			key:   runeKey('+'),
			check: func(t *testing.T, msg multiplayer.CoordinatorMessage) {
				m, ok := msg.(multiplayer.UpdateSettingsMsg)
				if !ok || m.Settings.StartLevel != 1 {
					t.Errorf("sent %#v, expected start level 1", msg)
				}
			},
		},
		{
			name:  "owner picks preset",
			owner: "s1",
			key:   runeKey('d'),
			check: func(t *testing.T, msg multiplayer.CoordinatorMessage) {
				m, ok := msg.(multiplayer.UpdateSettingsMsg)
				if !ok || m.Settings.StartLevel != config.StartLevelForPreset(config.DifficultyNormal) {
					t.Errorf("sent %#v, expected the normal preset", msg)
				}
			},
		},
		{
			name:  "member cannot change settings",
			owner: "s2",
			key:   runeKey('m'),
			check: func(t *testing.T, msg multiplayer.CoordinatorMessage) {
				if msg != nil {
					t.Errorf("sent %#v, expected nothing", msg)
				}
			},
		},
		{
			name:  "leave room",
			owner: "s2",
			key:   tea.KeyMsg{Type: tea.KeyEscape},
			check: func(t *testing.T, msg multiplayer.CoordinatorMessage) {
				if _, ok := msg.(multiplayer.LeaveRoomMsg); !ok {
					t.Errorf("sent %#v, expected LeaveRoomMsg", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, link := newTestOnline(t)
			m = updateOnline(t, m, multiplayer.RoomUpdatedEvent{Room: testRoom(tt.owner), You: "s1"})
			updateOnline(t, m, tt.key)
			tt.check(t, link.last())
		})
	}
}

func TestOnlineMatchFlow(t *testing.T) {
	m, link := newTestOnline(t)
	m = updateOnline(t, m, multiplayer.RoomUpdatedEvent{Room: testRoom("s2"), You: "s1"})

	settings := config.DefaultGameSettings()
	m = updateOnline(t, m, multiplayer.MatchStartedEvent{
		MatchID:  "m1",
		Code:     "ABC123",
		Seed:     "match-seed",
		Settings: settings,
		Players:  []multiplayer.PlayerInfo{{ID: "p1", Name: "bob"}, {ID: "p2", Name: "ann"}},
		You:      "p2",
	})
	if m.State() != OnlineStateInMatch {
		t.Fatalf("State() = %v, expected in match", m.State())
	}

	at := m.start.Add(16 * time.Millisecond)
	m = updateOnline(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = updateOnline(t, m, TickMsg(at))

	msg, ok := link.last().(multiplayer.PlayerInputsMsg)
	if !ok {
		t.Fatalf("sent %#v, expected PlayerInputsMsg", link.last())
	}
	if msg.MatchID != "m1" || msg.Player != "p2" || msg.SessionID != "s1" {
		t.Errorf("PlayerInputsMsg = %+v, expected m1/p2 from s1", msg)
	}
	if len(msg.Inputs) != 1 || !msg.Inputs[0].HardDrop {
		t.Fatalf("Inputs = %+v, expected one hard drop", msg.Inputs)
	}
	predicted := m.player.Game().Score()
	if predicted == 0 {
		t.Fatal("predicted Score() = 0 after a hard drop")
	}

	// The server has not applied the drop yet; reconciling keeps the
	// prediction and shows the other player.
	server, err := tritris.New(settings.Options("match-seed", 0, false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	other, _ := tritris.New(settings.Options("match-seed", 0, false))
	m.applyState(multiplayer.StateEvent{
		MatchID:     "m1",
		Elapsed:     0,
		You:         "p2",
		DoneInputID: -1,
		Players: []multiplayer.PlayerState{
			{ID: "p1", Name: "bob", Alive: true, State: other.State()},
			{ID: "p2", Name: "ann", Alive: true, State: server.State()},
		},
	}, at)
	if got := m.player.Game().Score(); got != predicted {
		t.Errorf("Score() after reconcile = %d, expected %d", got, predicted)
	}
	if len(m.others) != 1 || m.others[0].Name != "bob" {
		t.Errorf("others = %+v, expected bob", m.others)
	}
	if view := m.View(); !containsAll(view, "bob", "ann") {
		t.Error("match view should show both players")
	}

	m = updateOnline(t, m, multiplayer.MatchEndedEvent{
		MatchID: "m1",
		Reason:  multiplayer.MatchEndReasonCompleted,
		Winner:  "p2",
		Scores: []multiplayer.PlayerScore{
			{ID: "p1", Name: "bob"},
			{ID: "p2", Name: "ann", Score: predicted},
		},
	})
	if m.State() != OnlineStateEnded {
		t.Fatalf("State() = %v, expected ended", m.State())
	}
	if view := m.View(); !containsAll(view, "Winner: ann") {
		t.Errorf("View() = %q, expected the winner", view)
	}

	m = updateOnline(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.State() != OnlineStateRoom {
		t.Errorf("State() = %v, expected back in the room", m.State())
	}
}

func TestOnlineLeaveMatch(t *testing.T) {
	m, link := newTestOnline(t)
	m = updateOnline(t, m, multiplayer.MatchStartedEvent{
		MatchID:  "m1",
		Seed:     "s",
		Settings: config.DefaultGameSettings(),
		You:      "p1",
	})
	m = updateOnline(t, m, tea.KeyMsg{Type: tea.KeyEscape})

	if msg, ok := link.last().(multiplayer.LeaveMatchMsg); !ok || msg.MatchID != "m1" {
		t.Errorf("sent %#v, expected LeaveMatchMsg for m1", link.last())
	}
	if m.State() != OnlineStateRoom {
		t.Errorf("State() = %v, expected room", m.State())
	}
}

func TestOnlineLinkClosed(t *testing.T) {
	m, link := newTestOnline(t)
	close(link.done)

	msg := m.waitForEvent()()
	if _, ok := msg.(linkClosedMsg); !ok {
		t.Fatalf("waitForEvent() = %#v, expected linkClosedMsg", msg)
	}
	m = updateOnline(t, m, msg)
	m = updateOnline(t, m, runeKey('c'))
	if link.last() != nil {
		t.Error("no message should be sent over a closed link")
	}
}

func TestOnlineWaitForEvent(t *testing.T) {
	m, link := newTestOnline(t)
	link.events <- multiplayer.RoomErrorEvent{Message: "x"}

	if msg, ok := m.waitForEvent()().(multiplayer.RoomErrorEvent); !ok || msg.Message != "x" {
		t.Errorf("waitForEvent() = %#v, expected the queued event", msg)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
