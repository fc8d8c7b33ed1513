//go:build windows

package memory

import (
	"github.com/23skdu/tracearena/internal/core"
	"golang.org/x/sys/windows"
)

// currentThreadID returns the Win32 id of the calling OS thread.
func currentThreadID() core.ThreadID {
	return core.ThreadID(windows.GetCurrentThreadId())
}
