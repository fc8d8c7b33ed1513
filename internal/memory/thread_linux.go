//go:build linux

package memory

import (
	"github.com/23skdu/tracearena/internal/core"
	"golang.org/x/sys/unix"
)

// currentThreadID returns the kernel thread id of the calling OS thread.
func currentThreadID() core.ThreadID {
	return core.ThreadID(unix.Gettid())
}
