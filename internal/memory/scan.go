package memory

import (
	"github.com/23skdu/tracearena/internal/core"
	"github.com/23skdu/tracearena/internal/errors"
	"github.com/23skdu/tracearena/internal/metrics"
)

// StackContext carries the stack bounds of one thread. It is passed
// explicitly into registration and scanning; no process-wide stack pointer
// is ever consulted.
type StackContext struct {
	// Base is the cold end of the stack, the highest address that may hold
	// a root.
	Base uintptr
	// Pointer is an approximate hot end. Zero means unknown.
	Pointer uintptr
}

// Range returns the half-open address range [lo, hi) between Pointer and
// Base for a downward-growing stack. An unknown or inconsistent Pointer
// yields an empty range at Base.
func (sc StackContext) Range() (lo, hi uintptr) {
	if sc.Pointer == 0 || sc.Pointer > sc.Base {
		return sc.Base, sc.Base
	}
	return sc.Pointer, sc.Base
}

// ThreadRoot is one registered thread as presented to a root scan.
type ThreadRoot struct {
	Mutator *Mutator
	Thread  core.ThreadID
	Lo, Hi  uintptr
}

// ScanThreads calls visit for every registered mutator, in mutator identity
// order, holding the arena read lock so no registration or deregistration
// can interleave. current describes the calling thread: when it is itself
// registered, its Pointer supersedes the one recorded at registration.
// Enumeration stops at the first error from visit.
func (a *Arena) ScanThreads(current StackContext, visit func(ThreadRoot) error) error {
	check(a != nil && isLive(a), errors.ErrorTypeInvalidArena, "ArenaCheck(arena)")

	self := a.threadID()

	a.mu.RLock()
	defer a.mu.RUnlock()
	metrics.ThreadScansTotal.Inc()

	for _, m := range a.table.snapshot() {
		sc := m.stack
		if m.thread == self && current.Pointer != 0 {
			sc.Pointer = current.Pointer
		}
		lo, hi := sc.Range()
		if err := visit(ThreadRoot{Mutator: m, Thread: m.thread, Lo: lo, Hi: hi}); err != nil {
			return err
		}
	}
	return nil
}

// Mutators returns a snapshot of the registered mutators ordered by identity.
func (a *Arena) Mutators() []*Mutator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table.snapshot()
}
