//go:build !linux && !darwin

package memory

// ReleaseSlab is a no-op where the Go heap cannot be safely decommitted;
// the memory is reclaimed by the garbage collector once freed.
func ReleaseSlab(b []byte) error {
	return nil
}
