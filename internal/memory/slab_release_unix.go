//go:build linux || darwin

package memory

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ReleaseSlab hints the OS that the pages backing this slab can be reclaimed.
// Only whole pages inside the slab are advised; the slice stays valid but
// reads back as zeroes.
func ReleaseSlab(b []byte) error {
	if cap(b) == 0 {
		return nil
	}

	page := uintptr(unix.Getpagesize())
	start := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	end := start + uintptr(cap(b))
	lo := (start + page - 1) &^ (page - 1)
	hi := end &^ (page - 1)
	if hi <= lo {
		return nil
	}

	region := b[:cap(b)][lo-start : hi-start]
	if err := unix.Madvise(region, unix.MADV_DONTNEED); err != nil {
		return fmt.Errorf("madvise(MADV_DONTNEED) failed: %w", err)
	}
	return nil
}
