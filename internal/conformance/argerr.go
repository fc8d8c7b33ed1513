// Package conformance holds the argument-error and lifecycle cases that pin
// down the thread-registration contract of an arena.
package conformance

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/23skdu/tracearena/internal/errors"
	"github.com/23skdu/tracearena/internal/harness"
	"github.com/23skdu/tracearena/internal/memory"
	"golang.org/x/sync/errgroup"
)

// Cases returns the suite for arenas built from cfg, ordered by ID.
func Cases(cfg memory.Config) []harness.Case {
	cases := []harness.Case{
		{
			ID:      "argerr-68",
			Summary: "null thr_t to thread_reg",
			Expect: harness.Expectation{
				Assert:     true,
				AssertType: errors.ErrorTypeInvalidArgument,
				AssertFile: "register.go",
				AssertCond: "slot != nil",
			},
			Body: func(t *harness.T) {
				a := newArena(t, cfg)
				t.Die(memory.RegisterThread(nil, a, t.Stack().Base), "register thread")
			},
		},
		{
			ID:      "argerr-thread-reg-null-stack",
			Summary: "zero stack base to thread_reg",
			Expect: harness.Expectation{
				Assert:     true,
				AssertType: errors.ErrorTypeInvalidArgument,
				AssertFile: "register.go",
				AssertCond: "stackBase != 0",
			},
			Body: func(t *harness.T) {
				a := newArena(t, cfg)
				var m *memory.Mutator
				t.Die(memory.RegisterThread(&m, a, 0), "register thread")
			},
		},
		{
			ID:      "argerr-thread-reg-dead-arena",
			Summary: "destroyed arena to thread_reg",
			Expect: harness.Expectation{
				Assert:     true,
				AssertType: errors.ErrorTypeInvalidArena,
				AssertFile: "register.go",
				AssertCond: "ArenaCheck(arena)",
			},
			Body: func(t *harness.T) {
				a, err := memory.NewArena(cfg)
				t.Die(err, "create arena")
				t.Die(a.Destroy(), "destroy arena")
				var m *memory.Mutator
				t.Die(memory.RegisterThread(&m, a, t.Stack().Base), "register thread")
			},
		},
		{
			ID:      "argerr-thread-reg-null-arena",
			Summary: "null arena to thread_reg",
			Expect: harness.Expectation{
				Assert:     true,
				AssertType: errors.ErrorTypeInvalidArena,
				AssertCond: "ArenaCheck(arena)",
			},
			Body: func(t *harness.T) {
				var m *memory.Mutator
				t.Die(memory.RegisterThread(&m, nil, t.Stack().Base), "register thread")
			},
		},
		{
			ID:      "argerr-arena-destroy-twice",
			Summary: "destroy an arena twice",
			Expect: harness.Expectation{
				Assert:     true,
				AssertType: errors.ErrorTypeInvalidArena,
				AssertFile: "arena.go",
				AssertCond: "ArenaCheck(arena)",
			},
			Body: func(t *harness.T) {
				a, err := memory.NewArena(cfg)
				t.Die(err, "create arena")
				t.Die(a.Destroy(), "destroy arena")
				t.Die(a.Destroy(), "destroy arena again")
			},
		},
		{
			ID:      "thread-reg-lifecycle",
			Summary: "register, refuse busy destroy, deregister, destroy",
			Body: func(t *harness.T) {
				a, err := memory.NewArena(cfg)
				t.Die(err, "create arena")

				var m *memory.Mutator
				t.Die(memory.RegisterThread(&m, a, t.Stack().Base), "register thread")
				t.Require(m != nil && m.Registered(), "no registered handle written to slot")
				t.Require(a.Len() == 1, "table size %d after register, want 1", a.Len())
				found, ok := memory.ResolveToken(m.Token())
				t.Require(ok && found == m, "token %#x does not resolve to the registered handle", m.Token())

				err = a.Destroy()
				t.Require(errors.Is(err, errors.ErrBusy), "destroy with live mutator: %v", err)

				t.Die(memory.DeregisterThread(m), "deregister thread")
				t.Require(a.Len() == 0, "table size %d after deregister, want 0", a.Len())
				_, ok = memory.ResolveToken(m.Token())
				t.Require(!ok, "token still resolves after deregistration")
				t.Die(a.Destroy(), "destroy arena")
			},
		},
		{
			ID:      "thread-dereg-twice",
			Summary: "second deregistration reports an unknown handle",
			Body: func(t *harness.T) {
				a := newArena(t, cfg)
				m, err := a.RegisterThread(t.Stack())
				t.Die(err, "register thread")
				t.Die(m.Deregister(), "deregister thread")

				err = m.Deregister()
				t.Require(errors.Is(err, errors.ErrUnknownHandle), "second deregister: %v", err)
				t.Require(m.State() == memory.StateDeregistered, "state %s", m.State())
			},
		},
		{
			ID:      "thread-reg-twice",
			Summary: "a thread holds at most one live handle per arena",
			Body: func(t *harness.T) {
				a := newArena(t, cfg)
				m, err := a.RegisterThread(t.Stack())
				t.Die(err, "register thread")
				t.Cleanup(func() { _ = m.Deregister() })

				var again *memory.Mutator
				err = memory.RegisterThread(&again, a, t.Stack().Base)
				if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
					// No OS thread identity; every registration is a new thread.
					t.Die(err, "register thread again")
					t.Cleanup(func() { _ = again.Deregister() })
					return
				}
				t.Require(errors.Is(err, errors.ErrAlreadyRegistered), "second register: %v", err)
				t.Require(again == nil, "slot written on failed registration")
				t.Require(a.Len() == 1, "table size %d, want 1", a.Len())
			},
		},
		{
			ID:      "arena-create-bad-config",
			Summary: "unrecognised class and non-positive size are configuration errors",
			Body: func(t *harness.T) {
				for _, bad := range []memory.Config{
					{Class: "amc", SizeLimit: cfg.SizeLimit},
					{Class: cfg.Class, SizeLimit: 0},
					{Class: cfg.Class, SizeLimit: -4096},
				} {
					a, err := memory.NewArena(bad)
					t.Require(a == nil && errors.Is(err, errors.ErrConfig), "create %+v: %v", bad, err)
				}
			},
		},
		ConcurrentRegistration(cfg, 16),
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].ID < cases[j].ID })
	return cases
}

// ConcurrentRegistration registers n threads at once and checks the table
// holds n distinct identities.
func ConcurrentRegistration(cfg memory.Config, n int) harness.Case {
	return harness.Case{
		ID:      "thread-reg-concurrent",
		Summary: fmt.Sprintf("%d threads register concurrently", n),
		Body: func(t *harness.T) {
			a := newArena(t, cfg)
			t.Die(RegisterConcurrently(a, n, func(ms []*memory.Mutator) error {
				for i, m := range ms {
					if m == nil || !m.Registered() {
						return fmt.Errorf("goroutine %d holds no registered handle", i)
					}
				}
				if a.Len() != n {
					return fmt.Errorf("table size %d, want %d", a.Len(), n)
				}
				threads := make(map[uint64]bool, n)
				for _, m := range a.Mutators() {
					threads[uint64(m.Thread())] = true
				}
				if len(threads) != n {
					return fmt.Errorf("%d distinct threads, want %d", len(threads), n)
				}
				return nil
			}), "concurrent registration")
			t.Require(a.Len() == 0, "table size %d after deregistration", a.Len())
		},
	}
}

// RegisterConcurrently starts n goroutines, each locked to its own OS
// thread, registers them all with a, calls inspect once every registration
// has completed, then deregisters them. All threads are held until inspect
// returns so that no OS thread is reused mid-test.
func RegisterConcurrently(a *memory.Arena, n int, inspect func([]*memory.Mutator) error) error {
	var registered sync.WaitGroup
	registered.Add(n)
	release := make(chan struct{})
	handles := make([]*memory.Mutator, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			sc := harness.CaptureStack()
			err := memory.RegisterThread(&handles[i], a, sc.Base)
			registered.Done()
			<-release
			if err != nil {
				return err
			}
			return memory.DeregisterThread(handles[i])
		})
	}

	registered.Wait()
	inspectErr := inspect(handles)
	close(release)
	if err := g.Wait(); err != nil {
		return err
	}
	return inspectErr
}

// newArena creates an arena that is torn down when the case ends.
func newArena(t *harness.T, cfg memory.Config) *memory.Arena {
	a, err := memory.NewArena(cfg)
	t.Die(err, "create arena")
	t.Cleanup(func() {
		for _, m := range a.Mutators() {
			_ = m.Deregister()
		}
		_ = a.Destroy()
	})
	return a
}

// Lookup returns the case with the given ID.
func Lookup(cases []harness.Case, id string) (harness.Case, bool) {
	for _, c := range cases {
		if c.ID == id {
			return c, true
		}
	}
	return harness.Case{}, false
}
