package client

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/tritris"
	"github.com/vovakirdan/tui-tritris/internal/tritris/pieces"
)

func testOptions() tritris.Options {
	return tritris.Options{
		Seed:   "abc123",
		Width:  8,
		Height: 16,
		Set:    pieces.MustGet(pieces.Standard),
		Strict: true,
	}
}

func newGame(t *testing.T) *tritris.Game {
	t.Helper()
	g, err := tritris.New(testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func newPlayer(t *testing.T) *Player {
	t.Helper()
	p, err := NewPlayer(testOptions())
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	return p
}

// script is a fixed key pattern exercising shifts, rotations and drops.
func script(f int) Keys {
	switch (f / 20) % 6 {
	case 0:
		return Keys{Left: true}
	case 1:
		return Keys{RotRight: f%20 < 3}
	case 2:
		return Keys{Right: true, RotLeft: f%20 > 15}
	case 3:
		return Keys{Down: true}
	case 4:
		return Keys{HardDrop: f%20 == 5}
	default:
		return Keys{Left: true, Right: true}
	}
}

func TestPredictorSubmitQueues(t *testing.T) {
	p, err := NewPredictor(testOptions())
	if err != nil {
		t.Fatalf("NewPredictor() error = %v", err)
	}
	if _, err := p.Submit(tritris.Input{ID: 0, Time: 0, HardDrop: true}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if p.Game().Score() != 14 {
		t.Errorf("Score() = %d, expected 14", p.Game().Score())
	}

	out := p.Drain()
	if len(out) != 1 || out[0].ID != 0 {
		t.Errorf("Drain() = %+v, expected the hard drop", out)
	}
	if len(p.Drain()) != 0 {
		t.Error("second Drain() should be empty")
	}
	if p.Unconfirmed() != 1 {
		t.Errorf("Unconfirmed() = %d, expected 1", p.Unconfirmed())
	}
}

func TestPredictorSubmitInPast(t *testing.T) {
	p, _ := NewPredictor(testOptions())
	if _, err := p.Advance(time.Second); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	_, err := p.Submit(tritris.Input{ID: 0, Time: 500 * time.Millisecond})
	if !errors.Is(err, tritris.ErrTimeTravel) {
		t.Errorf("Submit() error = %v, expected ErrTimeTravel", err)
	}
	if len(p.Drain()) != 0 {
		t.Error("rejected input should not be queued")
	}
}

func TestPredictorAdvanceIgnoresPast(t *testing.T) {
	p, _ := NewPredictor(testOptions())
	if _, err := p.Advance(time.Second); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if _, err := p.Advance(time.Millisecond); err != nil {
		t.Errorf("Advance() into the past error = %v, expected nil", err)
	}
	if p.Game().Clock() != time.Second {
		t.Errorf("Clock() = %v, expected 1s", p.Game().Clock())
	}
}

// TestPredictionConverges plays a client against a lagging authoritative
// replica and checks that after every reconcile the client matches a game
// that saw all inputs on time.
func TestPredictionConverges(t *testing.T) {
	client := newPlayer(t)
	server := newGame(t)
	reference := newGame(t)
	lag := tritris.Frames(6)

	for f := 0; f < 360; f++ {
		now := tritris.Frames(f)
		if _, err := client.Frame(now, script(f)); err != nil {
			t.Fatalf("frame %d: Frame() error = %v", f, err)
		}
		for _, in := range client.Drain() {
			if err := server.AddInput(in); err != nil {
				t.Fatalf("server AddInput(%+v) error = %v", in, err)
			}
			if err := reference.AddInput(in); err != nil {
				t.Fatalf("reference AddInput(%+v) error = %v", in, err)
			}
		}

		if f%3 != 0 || now-lag < server.Clock() {
			continue
		}
		if _, err := server.AdvanceToTime(now-lag, true); err != nil {
			t.Fatalf("server AdvanceToTime() error = %v", err)
		}
		server.Log().Prune(server.DoneInputID())

		if _, err := client.Reconcile(server.Confirmed(), now); err != nil {
			t.Fatalf("frame %d: Reconcile() error = %v", f, err)
		}
		if _, err := reference.AdvanceToTime(now, true); err != nil {
			t.Fatalf("reference AdvanceToTime() error = %v", err)
		}
		if !reflect.DeepEqual(client.Game().State(), reference.State()) {
			t.Fatalf("frame %d: prediction diverged\nclient:    %s\nreference: %s",
				f, client.Game().Board().Serialize(), reference.Board().Serialize())
		}
	}

	if client.Game().Score() == 0 {
		t.Error("script should have scored")
	}
}

func TestReconcilePrunesConfirmed(t *testing.T) {
	client := newPlayer(t)
	server := newGame(t)

	for f := 0; f < 40; f++ {
		if _, err := client.Frame(tritris.Frames(f), Keys{RotRight: f%2 == 0}); err != nil {
			t.Fatalf("Frame() error = %v", err)
		}
	}
	sent := client.Drain()
	if len(sent) < 4 {
		t.Fatalf("expected several inputs, got %d", len(sent))
	}
	for _, in := range sent[:2] {
		if err := server.AddInput(in); err != nil {
			t.Fatalf("AddInput() error = %v", err)
		}
	}
	if _, err := server.AdvanceToTime(sent[1].Time, true); err != nil {
		t.Fatalf("AdvanceToTime() error = %v", err)
	}

	if _, err := client.Reconcile(server.Confirmed(), tritris.Frames(40)); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if got, expected := client.Predictor().Unconfirmed(), len(sent)-2; got != expected {
		t.Errorf("Unconfirmed() = %d, expected %d", got, expected)
	}
	if client.Game().DoneInputID() != sent[len(sent)-1].ID {
		t.Errorf("DoneInputID() = %d, expected %d", client.Game().DoneInputID(), sent[len(sent)-1].ID)
	}
}

func TestReconcileAfterServerSkipsLateInput(t *testing.T) {
	server := newGame(t)
	if _, err := server.AdvanceToTime(300*time.Millisecond, true); err != nil {
		t.Fatalf("AdvanceToTime() error = %v", err)
	}
	late := tritris.Input{ID: 0, Time: 200 * time.Millisecond, HardDrop: true}
	if err := server.AddInput(late); err != nil {
		t.Fatalf("AddInput() error = %v", err)
	}
	ev, err := server.AdvanceToTime(2*time.Second, true)
	if err != nil {
		t.Fatalf("AdvanceToTime() error = %v", err)
	}
	if !ev.Has(tritris.EventStaleInput) {
		t.Fatalf("server events = %v, expected stale-input", ev)
	}

	p, err := NewPredictor(testOptions())
	if err != nil {
		t.Fatalf("NewPredictor() error = %v", err)
	}
	if _, err := p.Submit(late); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := p.Reconcile(server.Confirmed(), 2*time.Second); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if p.Unconfirmed() != 0 {
		t.Errorf("Unconfirmed() = %d, expected 0", p.Unconfirmed())
	}
	got := p.Game()
	if got.Board().Serialize() != server.Board().Serialize() {
		t.Errorf("board = %q, expected %q", got.Board().Serialize(), server.Board().Serialize())
	}
	if got.Score() != server.Score() {
		t.Errorf("Score() = %d, expected %d", got.Score(), server.Score())
	}
	gp, gok := got.Current()
	sp, sok := server.Current()
	if gok != sok || gp.State() != sp.State() {
		t.Errorf("Current() = %+v, expected %+v", gp.State(), sp.State())
	}
}

func TestReconcileRejectsForeignState(t *testing.T) {
	client := newPlayer(t)
	opts := testOptions()
	opts.Set = pieces.MustGet(pieces.Extended)
	other, err := tritris.New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.Reconcile(other.State(), 0); !errors.Is(err, tritris.ErrInvalidState) {
		t.Errorf("Reconcile() error = %v, expected ErrInvalidState", err)
	}
}

func TestFrameBeforeStart(t *testing.T) {
	opts := testOptions()
	opts.Countdown = time.Second
	p, err := NewPlayer(opts)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	if _, err := p.Frame(-500*time.Millisecond, Keys{HardDrop: true}); err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if len(p.Drain()) != 0 {
		t.Error("no input should be produced during the countdown")
	}
}
