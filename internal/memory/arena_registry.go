package memory

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/23skdu/tracearena/internal/core"
	"github.com/23skdu/tracearena/internal/metrics"
)

var (
	globalRegistry   = make(map[core.ArenaID]*Arena)
	globalRegistryMu sync.RWMutex

	lastArenaID   atomic.Uint32
	totalReserved atomic.Int64
)

// registerArena assigns a fresh identity to a and publishes it as live.
func registerArena(a *Arena) {
	a.id = core.ArenaID(lastArenaID.Add(1))

	globalRegistryMu.Lock()
	globalRegistry[a.id] = a
	globalRegistryMu.Unlock()

	totalReserved.Add(a.sizeLimit)
	metrics.ArenasLive.Inc()
	metrics.ArenaReservedBytes.Add(float64(a.sizeLimit))
}

// unregisterArena withdraws a from the live set and returns its reservation.
func unregisterArena(a *Arena) {
	globalRegistryMu.Lock()
	_, ok := globalRegistry[a.id]
	delete(globalRegistry, a.id)
	globalRegistryMu.Unlock()

	if !ok {
		return
	}
	totalReserved.Add(-a.sizeLimit)
	metrics.ArenasLive.Dec()
	metrics.ArenaReservedBytes.Sub(float64(a.sizeLimit))
}

// isLive reports whether a is a registered, undestroyed arena.
func isLive(a *Arena) bool {
	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return globalRegistry[a.id] == a
}

// LookupArena returns the live arena with the given identity.
func LookupArena(id core.ArenaID) (*Arena, bool) {
	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	a, ok := globalRegistry[id]
	return a, ok
}

// LiveArenas returns a snapshot of all live arenas ordered by identity.
func LiveArenas() []*Arena {
	globalRegistryMu.RLock()
	snapshot := make([]*Arena, 0, len(globalRegistry))
	for _, a := range globalRegistry {
		snapshot = append(snapshot, a)
	}
	globalRegistryMu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].id < snapshot[j].id })
	return snapshot
}

// TotalReserved returns the bytes reserved by all live arenas in the process.
func TotalReserved() int64 {
	return totalReserved.Load()
}
