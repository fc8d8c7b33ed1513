package memory

import (
	"fmt"

	"github.com/23skdu/tracearena/internal/errors"
	"github.com/23skdu/tracearena/internal/metrics"
)

// slabReserve is the unused prefix of slab 0, so that a zero handle is
// never a valid allocation.
const slabReserve = 16

// slabSpace is the committed memory of an arena: a list of slabs filled by
// bumping an offset. Every slab is slabSize bytes except possibly the last,
// which takes whatever remains under the limit. Handles pack
// (slab index << 32) | offset. It is guarded by the owning arena's lock.
type slabSpace struct {
	allocator *TrackingAllocator
	slabSize  int
	limit     int64
	slabs     [][]byte
	offset    int
	committed int64
}

func newSlabSpace(alloc *TrackingAllocator, slabSize int, limit int64) *slabSpace {
	return &slabSpace{
		allocator: alloc,
		slabSize:  slabSize,
		limit:     limit,
	}
}

// nextSlabSize is the size grow would commit.
func (s *slabSpace) nextSlabSize() int {
	if remaining := s.limit - s.committed; remaining < int64(s.slabSize) {
		return int(remaining)
	}
	return s.slabSize
}

// grow commits one more slab of at least need bytes, staying within the
// size limit.
func (s *slabSpace) grow(need int) error {
	n := s.nextSlabSize()
	if n < need || n <= 0 {
		return errors.NewResourceExhaustedError("arena_commit",
			fmt.Sprintf("committing %d bytes would exceed size limit %d (committed %d)",
				need, s.limit, s.committed)).
			WithContext("limit", s.limit).
			WithContext("committed", s.committed)
	}
	slab := s.allocator.Allocate(n)
	s.slabs = append(s.slabs, slab)
	s.committed += int64(n)
	s.offset = 0
	if len(s.slabs) == 1 {
		s.offset = slabReserve
	}
	metrics.ArenaSlabsTotal.Inc()
	return nil
}

// alloc reserves size bytes and returns its handle.
func (s *slabSpace) alloc(size int) (uint64, error) {
	if size > s.slabSize {
		return 0, errors.NewResourceExhaustedError("arena_alloc",
			fmt.Sprintf("allocation of %d bytes larger than slab size %d", size, s.slabSize))
	}
	if n := len(s.slabs); n == 0 || s.offset+size > len(s.slabs[n-1]) {
		need := size
		if n == 0 {
			need += slabReserve
		}
		if err := s.grow(need); err != nil {
			return 0, err
		}
	}

	idx := uint64(len(s.slabs) - 1)
	off := s.offset
	s.offset += size
	return idx<<32 | uint64(off), nil
}

// get returns the bytes behind a handle, or nil when it is out of range.
func (s *slabSpace) get(handle uint64, size int) []byte {
	idx := int(handle >> 32)
	off := int(handle & 0xFFFFFFFF)
	if idx >= len(s.slabs) || size < 0 {
		return nil
	}
	slab := s.slabs[idx]
	if off+size > len(slab) {
		return nil
	}
	return slab[off : off+size]
}

// release hands every slab back to the OS and the allocator.
func (s *slabSpace) release() {
	for _, slab := range s.slabs {
		_ = ReleaseSlab(slab) // advisory only
		s.allocator.Free(slab)
	}
	s.slabs = nil
	s.offset = 0
	s.committed = 0
}
