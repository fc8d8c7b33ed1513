package memory

import (
	"sort"

	"github.com/23skdu/tracearena/internal/core"
	"github.com/23skdu/tracearena/internal/errors"
)

// threadTable maps thread identity to the mutator registered for it. It is
// owned by exactly one arena and is only touched with the arena lock held.
type threadTable struct {
	owner   *Arena
	entries map[core.ThreadID]*Mutator
}

func newThreadTable(owner *Arena) *threadTable {
	return &threadTable{
		owner:   owner,
		entries: make(map[core.ThreadID]*Mutator),
	}
}

func (t *threadTable) lookup(tid core.ThreadID) *Mutator {
	return t.entries[tid]
}

// insert publishes m. The caller has already checked the thread is free.
func (t *threadTable) insert(m *Mutator) {
	check(m.arena == t.owner, errors.ErrorTypeInvalidArena, "m.arena == table.owner")
	check(t.entries[m.thread] == nil, errors.ErrorTypeInvalidArgument, "table.lookup(m.thread) == nil")
	t.entries[m.thread] = m
}

// remove deletes the entry for m, reporting whether m was the live entry.
func (t *threadTable) remove(m *Mutator) bool {
	if t.entries[m.thread] != m {
		return false
	}
	delete(t.entries, m.thread)
	return true
}

func (t *threadTable) len() int {
	return len(t.entries)
}

// snapshot returns the live entries ordered by mutator identity.
func (t *threadTable) snapshot() []*Mutator {
	out := make([]*Mutator, 0, len(t.entries))
	for _, m := range t.entries {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
