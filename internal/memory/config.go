package memory

import (
	"github.com/23skdu/tracearena/internal/core"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
)

const (
	// DefaultSizeLimit is the size budget used by tools that do not ask for one.
	DefaultSizeLimit int64 = 64 * 1024 * 1024
	// DefaultSlabSize is the commit granularity of a VM arena.
	DefaultSlabSize = 1024 * 1024
	// MaxSlabSize bounds a single commit. Handle offsets within a slab are
	// 32 bits wide.
	MaxSlabSize = 1 << 30
	// MaxClientBlock bounds the size limit of a ClassClient arena, whose
	// whole block is committed as one slab at creation.
	MaxClientBlock int64 = MaxSlabSize
)

// Config describes an arena to create.
type Config struct {
	Class     core.ArenaClass `envconfig:"ARENA_CLASS" default:"vm"`
	SizeLimit int64           `envconfig:"ARENA_SIZE" default:"67108864"`
	// SlabSize is the commit granularity for ClassVM. Zero selects
	// DefaultSlabSize; values above SizeLimit are clamped to it.
	SlabSize int `envconfig:"ARENA_SLAB_SIZE" default:"1048576"`
}

// DefaultConfig returns a VM arena with the default budget.
func DefaultConfig() Config {
	return Config{
		Class:     core.ClassVM,
		SizeLimit: DefaultSizeLimit,
		SlabSize:  DefaultSlabSize,
	}
}

// Option customises an arena at creation.
type Option func(*Arena)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *Arena) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAllocator sets the allocator that backs committed memory. It is wrapped
// in a TrackingAllocator.
func WithAllocator(alloc memory.Allocator) Option {
	return func(a *Arena) {
		a.alloc = NewTrackingAllocator(alloc)
	}
}

// WithThreadIdentity replaces the OS thread identity source. Runtimes that
// multiplex logical threads onto OS threads use it to register the logical
// thread instead.
func WithThreadIdentity(fn func() core.ThreadID) Option {
	return func(a *Arena) {
		if fn != nil {
			a.threadID = fn
		}
	}
}
