//go:build !linux && !windows

package memory

import (
	"sync/atomic"

	"github.com/23skdu/tracearena/internal/core"
)

var syntheticThreadID atomic.Uint64

// currentThreadID has no OS thread id to return here without cgo, so every
// call yields a fresh identity. A thread registering twice is therefore not
// detected on these platforms unless the arena is given WithThreadIdentity.
func currentThreadID() core.ThreadID {
	return core.ThreadID(syntheticThreadID.Add(1))
}
