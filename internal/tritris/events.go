package tritris

import "strings"

// Events is a set of things that happened while the kernel advanced.
// Presentation layers read it for sounds and effects; the kernel never
// calls back into them.
type Events uint16

const (
	EventMoved Events = 1 << iota
	EventRotated
	EventWallCharge
	EventSpawn
	EventPlaced
	EventLineClear
	EventTritris
	EventLevelUp
	EventTopOut
	EventStaleInput
	EventInvariant
)

var eventNames = []struct {
	ev   Events
	name string
}{
	{EventMoved, "moved"},
	{EventRotated, "rotated"},
	{EventWallCharge, "wall-charge"},
	{EventSpawn, "spawn"},
	{EventPlaced, "placed"},
	{EventLineClear, "line-clear"},
	{EventTritris, "tritris"},
	{EventLevelUp, "level-up"},
	{EventTopOut, "top-out"},
	{EventStaleInput, "stale-input"},
	{EventInvariant, "invariant"},
}

// Has reports whether every event in f is set.
func (e Events) Has(f Events) bool {
	return e&f == f
}

// String lists the set events separated by '|'.
func (e Events) String() string {
	if e == 0 {
		return "none"
	}
	var parts []string
	for _, n := range eventNames {
		if e.Has(n.ev) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
