package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

type testEnv struct {
	srv      *httptest.Server
	coord    *multiplayer.Coordinator
	sessions *multiplayer.SessionRegistry
	store    *storage.Store
}

func newTestEnv(t *testing.T, withStore bool) *testEnv {
	t.Helper()
	logger := log.New(io.Discard)
	sessions := multiplayer.NewSessionRegistry()
	coord := multiplayer.NewCoordinator(multiplayer.DefaultCoordinatorConfig(), sessions, logger)
	coord.Start()
	t.Cleanup(coord.Stop)

	env := &testEnv{coord: coord, sessions: sessions}
	var board Leaderboard
	if withStore {
		store, err := storage.Open(filepath.Join(t.TempDir(), "web.db"))
		if err != nil {
			t.Fatalf("storage.Open() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })
		env.store = store
		board = store
	}

	s := NewServer(coord, sessions, board, config.HTTPConfig{RequestTimeout: 5 * time.Second}, logger)
	env.srv = httptest.NewServer(s.Routes())
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func nextEvent[T multiplayer.SessionEvent](t *testing.T, c *Client) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-c.Events():
			if e, ok := evt.(T); ok {
				return e
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	var body healthResponse
	if status := getJSON(t, env.srv.URL+"/health", &body); status != http.StatusOK {
		t.Fatalf("status = %d, expected 200", status)
	}
	if body.Status != "healthy" || body.Rooms != 0 {
		t.Errorf("health = %+v", body)
	}
}

func TestStorageRoutesWithoutStore(t *testing.T) {
	env := newTestEnv(t, false)

	for _, path := range []string{"/api/v1/scores", "/api/v1/matches", "/api/v1/matches/x"} {
		if status := getJSON(t, env.srv.URL+path, nil); status != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, expected 503", path, status)
		}
	}
}

func TestTopScores(t *testing.T) {
	env := newTestEnv(t, true)
	for _, e := range []storage.ScoreEntry{
		{Name: "ann", Mode: config.ModeClassic, PieceSet: "standard", Score: 900},
		{Name: "bob", Mode: config.ModeClassic, PieceSet: "standard", Score: 1200},
		{Name: "cy", Mode: config.ModeGarbage, PieceSet: "standard", Score: 5000},
	} {
		if _, err := env.store.SaveScore(e); err != nil {
			t.Fatalf("SaveScore() error = %v", err)
		}
	}

	tests := []struct {
		query    string
		status   int
		expected []string
	}{
		{"?mode=classic", http.StatusOK, []string{"bob", "ann"}},
		{"", http.StatusOK, []string{"cy", "bob", "ann"}},
		{"?limit=1", http.StatusOK, []string{"cy"}},
		{"?limit=0", http.StatusBadRequest, nil},
		{"?limit=abc", http.StatusBadRequest, nil},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			var got []scoreResponse
			var target any = &got
			if tc.status != http.StatusOK {
				target = &errorResponse{}
			}
			status := getJSON(t, env.srv.URL+"/api/v1/scores"+tc.query, target)
			if status != tc.status {
				t.Fatalf("status = %d, expected %d", status, tc.status)
			}
			if tc.expected == nil {
				return
			}
			if len(got) != len(tc.expected) {
				t.Fatalf("got %d scores, expected %d", len(got), len(tc.expected))
			}
			for i, name := range tc.expected {
				if got[i].Name != name {
					t.Errorf("scores[%d].Name = %q, expected %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestMatches(t *testing.T) {
	env := newTestEnv(t, true)
	err := env.store.SaveMatchResult(multiplayer.MatchResult{
		MatchID:  "m-1",
		Code:     "ABCDEF",
		Seed:     "abc123",
		Mode:     config.ModeVersus,
		Settings: config.DefaultGameSettings(),
		Reason:   multiplayer.MatchEndReasonCompleted,
		Winner:   "p1",
		Duration: 2 * time.Second,
		Scores:   []multiplayer.PlayerScore{{ID: "p1", Name: "ann", Score: 100}},
	})
	if err != nil {
		t.Fatalf("SaveMatchResult() error = %v", err)
	}

	var list []matchResponse
	if status := getJSON(t, env.srv.URL+"/api/v1/matches", &list); status != http.StatusOK {
		t.Fatalf("status = %d, expected 200", status)
	}
	if len(list) != 1 || list[0].Winner != "ann" || list[0].Duration != 2000 {
		t.Errorf("matches = %+v", list)
	}

	var one matchResponse
	if status := getJSON(t, env.srv.URL+"/api/v1/matches/m-1", &one); status != http.StatusOK {
		t.Fatalf("status = %d, expected 200", status)
	}
	if one.Seed != "abc123" || len(one.Players) != 1 {
		t.Errorf("match = %+v", one)
	}

	if status := getJSON(t, env.srv.URL+"/api/v1/matches/nope", nil); status != http.StatusNotFound {
		t.Errorf("missing match status = %d, expected 404", status)
	}
}

func TestWebsocketLobby(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	ann, err := Dial(ctx, env.wsURL(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer ann.Close()

	if err := ann.Send(multiplayer.CreateRoomMsg{Name: "ann"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	created := nextEvent[multiplayer.RoomUpdatedEvent](t, ann)
	if len(created.Room.Members) != 1 || created.Room.Members[0].Name != "ann" {
		t.Fatalf("room = %+v", created.Room)
	}
	if ann.Session() == "" || ann.Session() != created.Room.Owner {
		t.Errorf("Session() = %q, expected owner %q", ann.Session(), created.Room.Owner)
	}

	var room multiplayer.RoomInfo
	if status := getJSON(t, env.srv.URL+"/api/v1/rooms/"+strings.ToLower(created.Room.Code), &room); status != http.StatusOK {
		t.Fatalf("room status = %d, expected 200", status)
	}
	if room.Code != created.Room.Code {
		t.Errorf("room code = %q, expected %q", room.Code, created.Room.Code)
	}

	bob, err := Dial(ctx, env.wsURL(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer bob.Close()

	// A malformed frame is dropped without closing the connection.
	bob.mu.Lock()
	err = bob.ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"inputs","data":{"bogus":1}}`))
	bob.mu.Unlock()
	if err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	if err := bob.Send(multiplayer.JoinRoomMsg{Code: created.Room.Code, Name: "bob"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	joined := nextEvent[multiplayer.RoomUpdatedEvent](t, bob)
	if len(joined.Room.Members) != 2 {
		t.Fatalf("members = %d, expected 2", len(joined.Room.Members))
	}

	if err := bob.Close(); err != nil {
		t.Logf("Close() error = %v", err)
	}
	waitFor(t, "bob to leave the room", func() bool {
		r, ok := env.coord.Room(created.Room.Code)
		return ok && len(r.Members) == 1
	})
	waitFor(t, "bob's session to unregister", func() bool {
		return env.sessions.Count() == 1
	})
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Dial(ctx, "ws://127.0.0.1:1/ws", log.New(io.Discard)); err == nil {
		t.Error("Dial() to a closed port should fail")
	}
}
