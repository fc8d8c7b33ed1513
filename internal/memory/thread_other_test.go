//go:build !linux && !windows

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentThreadID_Synthetic(t *testing.T) {
	first := currentThreadID()
	assert.NotZero(t, first)
	assert.NotEqual(t, first, currentThreadID())
}

func TestRegisterThread_SyntheticIdentityNeedsOption(t *testing.T) {
	a := newTestArena(t)

	var first, second *Mutator
	require.NoError(t, RegisterThread(&first, a, testStackBase))
	require.NoError(t, RegisterThread(&second, a, testStackBase))
	assert.Equal(t, 2, a.Len())

	b := newTestArena(t, fixedThread(9))
	var again *Mutator
	require.NoError(t, RegisterThread(&first, b, testStackBase))
	assert.Error(t, RegisterThread(&again, b, testStackBase))
}
