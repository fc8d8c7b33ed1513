package memory

import (
	"fmt"
	"math"

	"github.com/23skdu/tracearena/internal/errors"
	"github.com/23skdu/tracearena/internal/metrics"
)

// RegisterThread registers the calling thread with arena and writes the new
// handle to *slot.
//
// A nil slot, a dead arena and a zero stackBase are programming errors and
// raise checked assertions, in that order, before any arena state is
// touched. Registering a thread that already holds a live handle in this
// arena returns an already-registered error, and an arena whose mutator
// identities are used up returns a resource-exhausted error. On any failure
// the table is unchanged and *slot is not written.
//
// The calling goroutine should be locked to its OS thread
// (runtime.LockOSThread) for as long as it stays registered.
//
// Thread identity comes from gettid on Linux and GetCurrentThreadId on
// Windows. Other platforms, darwin included, have no OS thread id reachable
// without cgo: each registration gets a fresh synthetic identity, so a second
// registration from the same thread is not reported as already registered,
// and ScanThreads cannot match the calling thread. Runtimes that need either
// there supply their own identity with WithThreadIdentity.
func RegisterThread(slot **Mutator, arena *Arena, stackBase uintptr) error {
	return registerThread(slot, arena, StackContext{Base: stackBase})
}

// RegisterThread registers the calling thread using the stack bounds in sc
// and returns its handle.
func (a *Arena) RegisterThread(sc StackContext) (*Mutator, error) {
	var m *Mutator
	if err := registerThread(&m, a, sc); err != nil {
		return nil, err
	}
	return m, nil
}

func registerThread(slot **Mutator, arena *Arena, sc StackContext) error {
	check(slot != nil, errors.ErrorTypeInvalidArgument, "slot != nil")
	check(arena != nil && isLive(arena), errors.ErrorTypeInvalidArena, "ArenaCheck(arena)")
	check(sc.Base != 0, errors.ErrorTypeInvalidArgument, "stackBase != 0")

	tid := arena.threadID()

	arena.mu.Lock()
	if arena.destroyed {
		// Destroyed between the liveness check and taking the lock.
		arena.mu.Unlock()
		check(false, errors.ErrorTypeInvalidArena, "ArenaCheck(arena)")
	}

	if prev := arena.table.lookup(tid); prev != nil {
		arena.mu.Unlock()
		metrics.RegistrationsTotal.WithLabelValues(string(errors.ErrorTypeAlreadyRegistered)).Inc()
		return errors.NewAlreadyRegisteredError("thread_reg",
			fmt.Sprintf("thread %d already registered as mutator %d", tid, prev.id)).
			WithContext("arena", uint32(arena.id)).
			WithContext("thread", uint64(tid))
	}

	if arena.lastSerial == math.MaxUint32 {
		arena.mu.Unlock()
		metrics.RegistrationsTotal.WithLabelValues(string(errors.ErrorTypeResourceExhausted)).Inc()
		return errors.NewResourceExhaustedError("thread_reg", "mutator identities exhausted").
			WithContext("arena", uint32(arena.id))
	}
	arena.lastSerial++
	m := &Mutator{
		id:         arena.lastSerial,
		thread:     tid,
		arena:      arena,
		stack:      sc,
		generation: arena.generation + 1,
	}
	m.state.Store(int32(StateRegistered))

	arena.table.insert(m)
	arena.generation = m.generation
	*slot = m
	arena.mu.Unlock()

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	metrics.MutatorsRegistered.Inc()
	arena.logger.Debug().
		Uint32("arena", uint32(arena.id)).
		Uint32("mutator", uint32(m.id)).
		Uint64("thread", uint64(tid)).
		Uint64("generation", m.generation).
		Msg("thread registered")
	return nil
}

// DeregisterThread removes m from its arena's table and moves it to
// StateDeregistered. Deregistration is not idempotent: a handle that is not
// the live entry of its arena, including one already deregistered, yields
// an unknown-handle error.
func DeregisterThread(m *Mutator) error {
	if m == nil || m.arena == nil {
		metrics.DeregistrationsTotal.WithLabelValues(string(errors.ErrorTypeUnknownHandle)).Inc()
		return errors.NewUnknownHandleError("thread_dereg", "nil mutator handle")
	}

	a := m.arena
	a.mu.Lock()
	if !a.table.remove(m) {
		a.mu.Unlock()
		metrics.DeregistrationsTotal.WithLabelValues(string(errors.ErrorTypeUnknownHandle)).Inc()
		return errors.NewUnknownHandleError("thread_dereg",
			fmt.Sprintf("mutator %d is not registered (state %s)", m.id, m.State())).
			WithContext("arena", uint32(a.id)).
			WithContext("mutator", uint32(m.id))
	}
	a.generation++
	m.state.Store(int32(StateDeregistered))
	a.mu.Unlock()

	metrics.DeregistrationsTotal.WithLabelValues("ok").Inc()
	metrics.MutatorsRegistered.Dec()
	a.logger.Debug().
		Uint32("arena", uint32(a.id)).
		Uint32("mutator", uint32(m.id)).
		Uint64("thread", uint64(m.thread)).
		Msg("thread deregistered")
	return nil
}
