package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/23skdu/tracearena/internal/core"
	"github.com/23skdu/tracearena/internal/errors"
	"github.com/23skdu/tracearena/internal/metrics"
	"github.com/rs/zerolog"
)

var nopLogger = zerolog.Nop()

// Arena owns an address-space budget and the table of mutator threads
// registered with it. An arena must not be destroyed while any mutator is
// registered.
type Arena struct {
	id        core.ArenaID
	class     core.ArenaClass
	sizeLimit int64

	logger   *zerolog.Logger
	alloc    *TrackingAllocator
	threadID func() core.ThreadID

	// mu serialises registration, deregistration, allocation and scans.
	mu         sync.RWMutex
	table      *threadTable
	generation uint64
	lastSerial core.MutatorID
	space      *slabSpace
	destroyed  bool
}

// NewArena creates an arena with an empty registration table and
// generation 1. Invalid parameters are reported as a configuration error.
func NewArena(cfg Config, opts ...Option) (*Arena, error) {
	if !cfg.Class.Valid() {
		metrics.ArenaLifecycleTotal.WithLabelValues("create", "config_error").Inc()
		return nil, errors.NewConfigurationError("arena_create",
			fmt.Sprintf("unrecognised arena class %q", cfg.Class)).
			WithContext("class", string(cfg.Class))
	}
	if cfg.SizeLimit <= 0 {
		metrics.ArenaLifecycleTotal.WithLabelValues("create", "config_error").Inc()
		return nil, errors.NewConfigurationError("arena_create",
			fmt.Sprintf("size limit must be positive, got %d", cfg.SizeLimit)).
			WithContext("size_limit", cfg.SizeLimit)
	}
	if cfg.SlabSize > MaxSlabSize {
		metrics.ArenaLifecycleTotal.WithLabelValues("create", "config_error").Inc()
		return nil, errors.NewConfigurationError("arena_create",
			fmt.Sprintf("slab size %d exceeds maximum %d", cfg.SlabSize, MaxSlabSize)).
			WithContext("slab_size", cfg.SlabSize)
	}
	if cfg.Class == core.ClassClient && cfg.SizeLimit > MaxClientBlock {
		metrics.ArenaLifecycleTotal.WithLabelValues("create", "config_error").Inc()
		return nil, errors.NewConfigurationError("arena_create",
			fmt.Sprintf("client block of %d bytes exceeds maximum %d", cfg.SizeLimit, MaxClientBlock)).
			WithContext("class", string(cfg.Class)).
			WithContext("size_limit", cfg.SizeLimit)
	}

	slabSize := cfg.SlabSize
	if slabSize <= 0 {
		slabSize = DefaultSlabSize
	}
	if cfg.Class == core.ClassClient || int64(slabSize) > cfg.SizeLimit {
		// A client arena is handed its whole block at once.
		slabSize = int(cfg.SizeLimit)
	}

	a := &Arena{
		class:      cfg.Class,
		sizeLimit:  cfg.SizeLimit,
		logger:     &nopLogger,
		threadID:   currentThreadID,
		generation: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.alloc == nil {
		a.alloc = NewTrackingAllocator(nil)
	}
	a.table = newThreadTable(a)
	a.space = newSlabSpace(a.alloc, slabSize, cfg.SizeLimit)

	if cfg.Class == core.ClassClient {
		if err := a.space.grow(1); err != nil {
			metrics.ArenaLifecycleTotal.WithLabelValues("create", "exhausted").Inc()
			return nil, err
		}
	}

	registerArena(a)
	metrics.ArenaLifecycleTotal.WithLabelValues("create", "ok").Inc()
	metrics.ArenaCommittedBytes.WithLabelValues(string(a.class)).Add(float64(a.space.committed))

	a.logger.Info().
		Uint32("arena", uint32(a.id)).
		Str("class", string(a.class)).
		Int64("size_limit", a.sizeLimit).
		Int("slab_size", slabSize).
		Msg("arena created")

	return a, nil
}

// Destroy releases the arena's resources. It fails with a busy error while
// mutators remain registered; they must be deregistered first. Destroying
// an arena twice is an assertion failure.
func (a *Arena) Destroy() error {
	check(a != nil && isLive(a), errors.ErrorTypeInvalidArena, "ArenaCheck(arena)")

	a.mu.Lock()
	if a.destroyed {
		// Lost a race with a concurrent Destroy.
		a.mu.Unlock()
		check(false, errors.ErrorTypeInvalidArena, "ArenaCheck(arena)")
	}

	if n := a.table.len(); n > 0 {
		a.mu.Unlock()
		metrics.ArenaLifecycleTotal.WithLabelValues("destroy", "busy").Inc()
		a.logger.Warn().
			Uint32("arena", uint32(a.id)).
			Int("mutators", n).
			Msg("arena destroy refused: mutators still registered")
		return errors.NewBusyError("arena_destroy",
			fmt.Sprintf("%d mutator(s) still registered", n)).
			WithContext("arena", uint32(a.id)).
			WithContext("mutators", n)
	}

	a.destroyed = true
	committed := a.space.committed
	a.space.release()
	a.mu.Unlock()

	unregisterArena(a)
	metrics.ArenaLifecycleTotal.WithLabelValues("destroy", "ok").Inc()
	metrics.ArenaCommittedBytes.WithLabelValues(string(a.class)).Sub(float64(committed))

	a.logger.Info().
		Uint32("arena", uint32(a.id)).
		Int64("released_bytes", committed).
		Msg("arena destroyed")
	return nil
}

// ID returns the arena identity.
func (a *Arena) ID() core.ArenaID { return a.id }

// Class returns the arena class.
func (a *Arena) Class() core.ArenaClass { return a.class }

// SizeLimit returns the size budget given at creation.
func (a *Arena) SizeLimit() int64 { return a.sizeLimit }

// Reserved returns the address space reserved by the arena. It drops to
// zero once the arena is destroyed.
func (a *Arena) Reserved() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.destroyed {
		return 0
	}
	return a.sizeLimit
}

// Committed returns the bytes of backing memory currently committed.
func (a *Arena) Committed() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.space.committed
}

// Generation returns the table version. It starts at 1 and increases with
// every successful registration or deregistration.
func (a *Arena) Generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.generation
}

// Len returns the number of registered mutators.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table.len()
}

// Destroyed reports whether Destroy has succeeded.
func (a *Arena) Destroyed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.destroyed
}

// Alloc commits size bytes on behalf of m and returns a handle that Bytes
// resolves. Only a mutator currently registered with this arena may
// allocate.
func (a *Arena) Alloc(m *Mutator, size int) (uint64, error) {
	check(size > 0, errors.ErrorTypeInvalidArgument, "size > 0")

	a.mu.Lock()
	defer a.mu.Unlock()
	check(!a.destroyed, errors.ErrorTypeInvalidArena, "ArenaCheck(arena)")

	if m == nil || m.arena != a || a.table.lookup(m.thread) != m {
		metrics.ArenaAllocationsTotal.WithLabelValues("unknown_handle").Inc()
		return 0, errors.NewUnknownHandleError("arena_alloc", "mutator is not registered with this arena").
			WithContext("arena", uint32(a.id))
	}

	before := a.space.committed
	off, err := a.space.alloc(size)
	if err != nil {
		metrics.ArenaAllocationsTotal.WithLabelValues("exhausted").Inc()
		return 0, err
	}
	if grown := a.space.committed - before; grown > 0 {
		metrics.ArenaCommittedBytes.WithLabelValues(string(a.class)).Add(float64(grown))
	}
	metrics.ArenaAllocationsTotal.WithLabelValues("ok").Inc()
	return off, nil
}

// Bytes resolves an allocation handle returned by Alloc. It returns nil for
// handles that do not lie inside committed memory.
func (a *Arena) Bytes(off uint64, size int) []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.destroyed {
		return nil
	}
	return a.space.get(off, size)
}

func (a *Arena) String() string {
	if a == nil {
		return "arena(nil)"
	}
	return fmt.Sprintf("arena(%d,%s)", a.id, a.class)
}

// assertLogger receives a record of every failed assertion.
var assertLogger atomic.Pointer[zerolog.Logger]

func init() {
	assertLogger.Store(&nopLogger)
}

// SetAssertionLogger routes assertion diagnostics to logger.
func SetAssertionLogger(logger *zerolog.Logger) {
	if logger == nil {
		logger = &nopLogger
	}
	assertLogger.Store(logger)
}

// check raises a checked assertion when ok is false. The assertion records
// the file and line of check's caller.
func check(ok bool, errType errors.ErrorType, cond string) {
	if ok {
		return
	}
	ae := errors.Assertion(errType, cond, 1)
	metrics.AssertionsTotal.WithLabelValues(string(errType)).Inc()
	assertLogger.Load().Error().
		Str("type", string(errType)).
		Str("file", ae.File).
		Int("line", ae.Line).
		Str("cond", cond).
		Msg("assertion failed")
	panic(ae)
}
