package arena

import (
	"context"
	"fmt"
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/dustin/go-humanize"
	"github.com/myalloc/arsenal/arena/internal/vmem"
	"github.com/myalloc/arsenal/memutils"
	"github.com/myalloc/arsenal/memutils/metadata"
	"golang.org/x/exp/slog"
)

const (
	// MaxArenaSize is the largest size, in bytes, that may be requested for a single arena
	MaxArenaSize int = math.MaxInt32

	// initialLiveCapacity is the starting capacity of the live allocation table
	initialLiveCapacity uint32 = 64
)

// CreateOptions contains optional settings when creating an arena
type CreateOptions struct {
	// Memory is the source the arena's region is reserved from. When left nil, the region is mapped
	// from the operating system.
	Memory MemorySource

	// MemoryCallbackOptions is an optional set of callbacks that will be executed when the arena's
	// region is reserved or released
	MemoryCallbackOptions *MemoryCallbackOptions

	// Metrics, when provided, is updated on every allocation and release
	Metrics *Metrics
}

// New reserves a region of at least size bytes and returns an Arena that manages it. The size is
// rounded up to a multiple of the memory source's page size.
//
// logger - Receives diagnostics; slog.Default() is used when nil
//
// size - The number of bytes requested, between 1 and MaxArenaSize
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, size int, options CreateOptions) (*Arena, error) {
	if logger == nil {
		logger = slog.Default()
	}

	memory := options.Memory
	if memory == nil {
		memory = vmem.System{}
	}

	arena := &Arena{
		logger:  logger,
		memory:  memory,
		metrics: options.Metrics,
		status:  StatusUninitialized,
	}
	arena.callbacks = memoryCallbacks{
		Callbacks: options.MemoryCallbackOptions,
		Arena:     arena,
	}

	err := arena.reserve(size)
	if err != nil {
		return nil, err
	}

	return arena, nil
}

func (a *Arena) reserve(size int) error {
	ctx := context.Background()
	a.logger.LogAttrs(ctx, slog.LevelInfo, "Initializing arena", slog.Int("requestedSize", size))

	if size <= 0 || size > MaxArenaSize {
		a.logger.LogAttrs(ctx, slog.LevelError, "requested arena size is invalid",
			slog.Int("requestedSize", size),
			slog.Int("maxSize", MaxArenaSize))
		a.status = StatusBadArguments
		return errors.Wrapf(memutils.ErrBadArguments, "requested arena size %d must be between 1 and %d", size, MaxArenaSize)
	}

	pageSize := a.memory.PageSize()
	err := memutils.CheckPow2(pageSize, "page size")
	if err != nil {
		a.status = StatusSyscallFailed
		return errors.Mark(err, memutils.ErrSyscallFailed)
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "    Queried page size", slog.String("pageSize", humanize.IBytes(uint64(pageSize))))

	adjustedSize := size
	if !memutils.IsAligned(size, uint(pageSize)) {
		adjustedSize = memutils.AlignUp(size, uint(pageSize))
	}
	if adjustedSize < size {
		a.status = StatusBadArguments
		return errors.Wrapf(memutils.ErrBadArguments, "requested arena size %d overflows when rounded to the page size %d", size, pageSize)
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "    Adjusted size to page boundaries",
		slog.Int("adjustedSize", adjustedSize),
		slog.String("humanSize", humanize.IBytes(uint64(adjustedSize))))

	region, err := a.memory.Reserve(adjustedSize)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelError, "failed to reserve arena memory", slog.Any("error", err))
		a.status = StatusSyscallFailed
		return errors.Mark(errors.Wrapf(err, "failed to reserve %d bytes for the arena", adjustedSize), memutils.ErrSyscallFailed)
	}
	if len(region) != adjustedSize {
		a.status = StatusSyscallFailed
		return errors.Wrapf(memutils.ErrSyscallFailed, "memory source returned %d bytes, but %d were requested", len(region), adjustedSize)
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(region)))
	a.logger.LogAttrs(ctx, slog.LevelInfo, "    Mapped arena",
		slog.String("start", fmt.Sprintf("%#x", base)),
		slog.String("end", fmt.Sprintf("%#x", base+uintptr(adjustedSize))))

	a.pageSize = pageSize
	a.region = region
	a.metadata = metadata.NewChainBlockMetadata()
	a.metadata.Init(region)
	a.live = swiss.NewMap[Address, int](initialLiveCapacity)
	a.status = StatusSuccess

	a.callbacks.Reserve(adjustedSize)
	a.metrics.reserved(adjustedSize)

	return nil
}
