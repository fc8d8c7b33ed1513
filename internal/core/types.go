package core

// ArenaID identifies an arena for the lifetime of the process. IDs are never
// reused, so a stale reference can be told apart from a newer arena.
type ArenaID uint32

// MutatorID identifies a mutator within its arena. IDs come from a per-arena
// counter and are never reused within that arena.
type MutatorID uint32

// ThreadID is the operating-system identity of a mutator thread.
type ThreadID uint64

// PackHandle packs an arena and mutator identity into a single opaque token
// suitable for atomic storage or passing across an API boundary.
func PackHandle(arena ArenaID, mutator MutatorID) uint64 {
	return uint64(arena)<<32 | uint64(mutator)
}

// UnpackHandle reverses PackHandle.
func UnpackHandle(token uint64) (ArenaID, MutatorID) {
	return ArenaID(token >> 32), MutatorID(uint32(token))
}
