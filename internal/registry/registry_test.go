package registry

import (
	"testing"

	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/tritris/board"
)

func testSet() *board.PieceSet {
	return &board.PieceSet{
		Name:   "test-dots",
		Shapes: []*board.Shape{board.NewShape("dot", core.ColorWhite, 0, "#")},
	}
}

func TestRegisterAndCreate(t *testing.T) {
	Register("test-dots", "Dots", testSet)

	if !Exists("test-dots") {
		t.Fatal("Exists() = false after Register")
	}

	set, err := Create("test-dots")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, expected 1", set.Len())
	}

	found := false
	for _, info := range List() {
		if info.ID == "test-dots" {
			found = true
			if info.Title != "Dots" || info.Pieces != 1 {
				t.Errorf("List() entry = %+v", info)
			}
		}
	}
	if !found {
		t.Error("List() should contain test-dots")
	}
}

func TestCreateUnknown(t *testing.T) {
	if _, err := Create("no-such-set"); err == nil {
		t.Error("Create() should fail for an unknown set")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("test-dup", "Dup", testSet)
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register("test-dup", "Dup", testSet)
}
