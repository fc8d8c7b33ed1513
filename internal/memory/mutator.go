package memory

import (
	"fmt"
	"sync/atomic"

	"github.com/23skdu/tracearena/internal/core"
)

// State is the registration state of a mutator handle.
type State int32

const (
	StateUnregistered State = iota
	StateRegistered
	StateDeregistered // terminal
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StateDeregistered:
		return "deregistered"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Mutator is the handle of one registered thread. It is created only by
// RegisterThread and is meaningful only within the arena that created it.
type Mutator struct {
	id     core.MutatorID
	thread core.ThreadID
	arena  *Arena // back-reference; the arena owns the mutator
	stack  StackContext
	// generation is the arena generation produced by this registration.
	generation uint64
	state      atomic.Int32
}

// ID returns the mutator identity, unique within its arena.
func (m *Mutator) ID() core.MutatorID { return m.id }

// Thread returns the identity of the registered thread.
func (m *Mutator) Thread() core.ThreadID { return m.thread }

// Arena returns the arena the mutator was registered with.
func (m *Mutator) Arena() *Arena { return m.arena }

// StackBase returns the cold end of the thread's stack recorded at registration.
func (m *Mutator) StackBase() uintptr { return m.stack.Base }

// StackPointer returns the stack pointer supplied at registration, or zero.
func (m *Mutator) StackPointer() uintptr { return m.stack.Pointer }

// Generation returns the arena generation at which the mutator was published.
func (m *Mutator) Generation() uint64 { return m.generation }

// State returns the current registration state.
func (m *Mutator) State() State { return State(m.state.Load()) }

// Registered is shorthand for State() == StateRegistered.
func (m *Mutator) Registered() bool { return m.State() == StateRegistered }

// Token packs the arena and mutator identities into an opaque value.
func (m *Mutator) Token() uint64 { return core.PackHandle(m.arena.id, m.id) }

// ResolveToken returns the registered mutator a Token was taken from. It
// fails once the mutator is deregistered or its arena destroyed.
func ResolveToken(token uint64) (*Mutator, bool) {
	arenaID, id := core.UnpackHandle(token)
	a, ok := LookupArena(arenaID)
	if !ok {
		return nil, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, m := range a.table.entries {
		if m.id == id {
			return m, true
		}
	}
	return nil, false
}

// Deregister is DeregisterThread(m).
func (m *Mutator) Deregister() error { return DeregisterThread(m) }

func (m *Mutator) String() string {
	return fmt.Sprintf("mutator(%d/%d,thread=%d,%s)", m.arena.id, m.id, m.thread, m.State())
}
