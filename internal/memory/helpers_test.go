package memory

import (
	"sync/atomic"
	"testing"

	"github.com/23skdu/tracearena/internal/core"
	"github.com/23skdu/tracearena/internal/errors"
	"github.com/stretchr/testify/require"
)

// testStackBase is a plausible non-zero stack address for registrations.
const testStackBase uintptr = 0x7ffe_0000_0000

// newTestArena creates a small VM arena that is destroyed at test end if the
// test left it empty.
func newTestArena(t *testing.T, opts ...Option) *Arena {
	t.Helper()
	a, err := NewArena(Config{Class: core.ClassVM, SizeLimit: 1 << 20, SlabSize: 4096}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if a.Destroyed() {
			return
		}
		for _, m := range a.Mutators() {
			_ = m.Deregister()
		}
		_ = a.Destroy()
	})
	return a
}

// fakeThreads hands out a new thread identity on every call, standing in for
// many threads registering from one goroutine.
func fakeThreads() Option {
	var next atomic.Uint64
	return WithThreadIdentity(func() core.ThreadID {
		return core.ThreadID(next.Add(1))
	})
}

// fixedThread always reports the same thread identity.
func fixedThread(tid core.ThreadID) Option {
	return WithThreadIdentity(func() core.ThreadID { return tid })
}

// requireAssertion runs fn and returns the assertion it raised.
func requireAssertion(t *testing.T, fn func()) (ae *errors.AssertionError) {
	t.Helper()
	defer func() {
		ae = errors.Recover(recover())
		require.NotNil(t, ae, "expected a checked assertion")
	}()
	fn()
	return nil
}
