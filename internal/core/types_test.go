package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackHandle_RoundTrip(t *testing.T) {
	token := PackHandle(ArenaID(0xDEADBEEF), MutatorID(42))
	arena, mutator := UnpackHandle(token)
	assert.Equal(t, ArenaID(0xDEADBEEF), arena)
	assert.Equal(t, MutatorID(42), mutator)
}

func TestPackHandle_DistinctArenas(t *testing.T) {
	// Same mutator id in two arenas must yield different tokens
	assert.NotEqual(t, PackHandle(1, 1), PackHandle(2, 1))
}

func TestArenaClass(t *testing.T) {
	assert.True(t, ClassVM.Valid())
	assert.True(t, ClassClient.Valid())
	assert.False(t, ArenaClass("mv").Valid())
	assert.False(t, ArenaClass("").Valid())

	c, err := ParseArenaClass("vm")
	require.NoError(t, err)
	assert.Equal(t, ClassVM, c)

	_, err = ParseArenaClass("amc")
	assert.Error(t, err)
}
