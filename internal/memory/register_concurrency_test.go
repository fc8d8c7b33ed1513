package memory

import (
	"runtime"
	"sync"
	"testing"
	"unsafe"

	"github.com/23skdu/tracearena/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

// TestRegisterThread_ConcurrentDistinctThreads registers N goroutines, each
// pinned to its own OS thread, and checks the table ends up with N distinct
// identities whatever the interleaving.
func TestRegisterThread_ConcurrentDistinctThreads(t *testing.T) {
	defer goleak.VerifyNone(t)

	const n = 32
	a, err := NewArena(Config{Class: core.ClassVM, SizeLimit: 1 << 20})
	require.NoError(t, err)

	var registered sync.WaitGroup
	registered.Add(n)
	release := make(chan struct{})
	handles := make([]*Mutator, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			// Every goroutine keeps its thread until all have registered,
			// otherwise a finished thread could be handed to another one.
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			var base byte
			err := RegisterThread(&handles[i], a, stackAddr(&base))
			registered.Done()
			<-release
			if err != nil {
				return err
			}
			return DeregisterThread(handles[i])
		})
	}

	registered.Wait()
	assert.Equal(t, n, a.Len())

	seenThread := make(map[core.ThreadID]bool, n)
	seenID := make(map[core.MutatorID]bool, n)
	for _, m := range a.Mutators() {
		assert.False(t, seenThread[m.Thread()], "duplicate thread %d", m.Thread())
		assert.False(t, seenID[m.ID()], "duplicate mutator %d", m.ID())
		seenThread[m.Thread()] = true
		seenID[m.ID()] = true
	}
	assert.Equal(t, uint64(1+n), a.Generation())

	close(release)
	require.NoError(t, g.Wait())
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, uint64(1+2*n), a.Generation())
	require.NoError(t, a.Destroy())
}

// TestScanThreads_SerialisedWithRegistration runs scans while mutators come
// and go; every scan must observe a consistent table.
func TestScanThreads_SerialisedWithRegistration(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := newTestArena(t, fakeThreads())
	done := make(chan struct{})

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				m, err := a.RegisterThread(StackContext{Base: testStackBase})
				if err != nil {
					return err
				}
				if err := m.Deregister(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	scanErr := make(chan error, 1)
	go func() {
		defer close(scanErr)
		for {
			select {
			case <-done:
				return
			default:
			}
			err := a.ScanThreads(StackContext{}, func(r ThreadRoot) error {
				if !r.Mutator.Registered() {
					t.Errorf("scan observed %s", r.Mutator)
				}
				return nil
			})
			if err != nil {
				scanErr <- err
				return
			}
		}
	}()

	require.NoError(t, g.Wait())
	close(done)
	assert.NoError(t, <-scanErr)
	assert.Equal(t, 0, a.Len())
}

// stackAddr returns the address of a stack-resident variable.
func stackAddr(p *byte) uintptr {
	return uintptr(unsafe.Pointer(p))
}
