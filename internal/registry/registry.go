// Package registry provides a global registry of piece sets.
// Sets register themselves in init() functions, so match settings can name a
// set without the kernel importing every set definition.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-tritris/internal/tritris/board"
)

// SetInfo contains metadata about a registered piece set.
type SetInfo struct {
	ID     string
	Title  string
	Pieces int
}

// Factory returns a piece set. Sets are read-only and may be shared.
type Factory func() *board.PieceSet

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]SetInfo)
	mu        sync.RWMutex
)

// Register adds a piece set factory to the registry.
// Panics if a set with the same ID is already registered.
func Register(id, title string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: piece set %q already registered", id))
	}

	factories[id] = f
	infos[id] = SetInfo{ID: id, Title: title, Pieces: f().Len()}
}

// List returns information about all registered sets, sorted by ID.
func List() []SetInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]SetInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create returns the piece set registered under id.
func Create(id string) (*board.PieceSet, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown piece set %q", id)
	}

	return f(), nil
}

// Exists checks if a set with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
