package arena

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/myalloc/arsenal/memutils"
	"golang.org/x/exp/slog"
)

// The process-wide arena. It exists between a successful Initialize and the matching Destroy.
var (
	defaultArena   *Arena
	defaultLogger  *slog.Logger
	defaultOptions CreateOptions
	lastStatus     = StatusUninitialized
)

// SetDefaultOptions configures the logger and options used by the next call to Initialize
func SetDefaultOptions(logger *slog.Logger, options CreateOptions) {
	defaultLogger = logger
	defaultOptions = options
}

// Default returns the process-wide arena, or nil if it has not been initialized
func Default() *Arena {
	return defaultArena
}

// Initialize reserves the process-wide arena and returns its size, rounded up to a multiple of the
// page size. Only one process-wide arena may exist at a time.
func Initialize(size int) (int, error) {
	if defaultArena != nil {
		lastStatus = StatusBadArguments
		return 0, errors.Wrap(memutils.ErrAlreadyInitialized, "destroy the current arena before initializing another")
	}

	arena, err := New(defaultLogger, size, defaultOptions)
	if err != nil {
		lastStatus = StatusFromError(err)
		return 0, err
	}

	defaultArena = arena
	lastStatus = StatusSuccess
	return arena.Size(), nil
}

// Destroy releases the process-wide arena. Outstanding allocations become invalid.
func Destroy() error {
	if defaultArena == nil {
		logger := defaultLogger
		if logger == nil {
			logger = slog.Default()
		}
		logger.LogAttrs(context.Background(), slog.LevelError, "cannot destroy an uninitialized arena")

		lastStatus = StatusUninitialized
		return errors.Wrap(memutils.ErrUninitialized, "cannot destroy arena")
	}

	err := defaultArena.Destroy()
	lastStatus = defaultArena.Status()
	if err != nil {
		return err
	}

	defaultArena = nil
	return nil
}

// Allocate reserves size bytes from the process-wide arena. Null is returned when size is zero or
// less, and when the allocation fails; LastStatus distinguishes the two.
func Allocate(size int) Address {
	if defaultArena == nil {
		lastStatus = StatusUninitialized
		return Null
	}

	address, _ := defaultArena.Allocate(size)
	lastStatus = defaultArena.Status()
	return address
}

// Release returns an allocation to the process-wide arena. Rejected addresses are logged and
// otherwise ignored, and the last status is not changed.
func Release(address Address) {
	if defaultArena == nil {
		return
	}

	err := defaultArena.Release(address)
	if err != nil {
		defaultArena.logger.LogAttrs(context.Background(), slog.LevelError, "failed to release allocation",
			slog.Int("address", int(address)),
			slog.Any("error", err))
	}
}

// LastStatus returns the outcome of the most recent Initialize, Destroy, or Allocate call against the
// process-wide arena
func LastStatus() Status {
	return lastStatus
}
