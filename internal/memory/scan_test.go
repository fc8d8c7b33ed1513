package memory

import (
	"errors"
	"testing"

	"github.com/23skdu/tracearena/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackContext_Range(t *testing.T) {
	tests := []struct {
		name   string
		sc     StackContext
		lo, hi uintptr
	}{
		{"known pointer", StackContext{Base: 0x2000, Pointer: 0x1800}, 0x1800, 0x2000},
		{"unknown pointer", StackContext{Base: 0x2000}, 0x2000, 0x2000},
		{"pointer above base", StackContext{Base: 0x2000, Pointer: 0x3000}, 0x2000, 0x2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.sc.Range()
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestScanThreads_VisitsEveryMutatorInOrder(t *testing.T) {
	var tid core.ThreadID
	a := newTestArena(t, WithThreadIdentity(func() core.ThreadID { return tid }))

	for i := 1; i <= 3; i++ {
		tid = core.ThreadID(100 + i)
		_, err := a.RegisterThread(StackContext{Base: 0x10000 * uintptr(i), Pointer: 0x10000*uintptr(i) - 0x100})
		require.NoError(t, err)
	}

	// The scanning thread is 102 and supplies a fresher stack pointer
	tid = 102
	var roots []ThreadRoot
	err := a.ScanThreads(StackContext{Base: 0x20000, Pointer: 0x20000 - 0x800}, func(r ThreadRoot) error {
		roots = append(roots, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, roots, 3)

	assert.Equal(t, core.ThreadID(101), roots[0].Thread)
	assert.Equal(t, uintptr(0x10000-0x100), roots[0].Lo)
	assert.Equal(t, core.ThreadID(102), roots[1].Thread)
	assert.Equal(t, uintptr(0x20000-0x800), roots[1].Lo, "caller's pointer supersedes the registered one")
	assert.Equal(t, uintptr(0x20000), roots[1].Hi)
	assert.Equal(t, core.ThreadID(103), roots[2].Thread)
}

func TestScanThreads_StopsOnError(t *testing.T) {
	a := newTestArena(t, fakeThreads())
	for i := 0; i < 4; i++ {
		_, err := a.RegisterThread(StackContext{Base: testStackBase})
		require.NoError(t, err)
	}

	stop := errors.New("stop")
	visited := 0
	err := a.ScanThreads(StackContext{}, func(ThreadRoot) error {
		visited++
		if visited == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, visited)
}

func TestScanThreads_DestroyedArenaAsserts(t *testing.T) {
	a := newTestArena(t)
	require.NoError(t, a.Destroy())

	ae := requireAssertion(t, func() {
		_ = a.ScanThreads(StackContext{}, func(ThreadRoot) error { return nil })
	})
	assert.Equal(t, "ArenaCheck(arena)", ae.Cond)
}

func TestMutators_Snapshot(t *testing.T) {
	a := newTestArena(t, fakeThreads())
	m1, err := a.RegisterThread(StackContext{Base: testStackBase})
	require.NoError(t, err)
	m2, err := a.RegisterThread(StackContext{Base: testStackBase})
	require.NoError(t, err)

	snap := a.Mutators()
	assert.Equal(t, []*Mutator{m1, m2}, snap)

	// The snapshot is detached from the table
	require.NoError(t, m1.Deregister())
	assert.Len(t, snap, 2)
	assert.Equal(t, []*Mutator{m2}, a.Mutators())
}
