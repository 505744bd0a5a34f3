package arena

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/dustin/go-humanize"
	"github.com/myalloc/arsenal/memutils"
	"github.com/myalloc/arsenal/memutils/metadata"
	"golang.org/x/exp/slog"
)

// Address is the location of an allocation's payload, as an offset from the start of the arena
type Address int

// Null is never returned for a successful allocation, because offset 0 always holds the first block header
const Null Address = 0

func (a Address) handle() metadata.BlockAllocationHandle {
	return metadata.BlockAllocationHandle(int(a) - metadata.HeaderSize)
}

// Arena subdivides a single region of reserved memory into blocks. Every block is prefixed with a
// header stored inside the region itself, and the headers form an address-ordered chain that is walked
// first-fit on allocation and coalesced on release.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	logger    *slog.Logger
	memory    MemorySource
	callbacks memoryCallbacks
	metrics   *Metrics

	pageSize int
	region   []byte
	metadata *metadata.ChainBlockMetadata
	// live maps the payload address of every unreleased allocation to its requested size
	live   *swiss.Map[Address, int]
	status Status
}

var _ memutils.Validatable = &Arena{}

// Size returns the page-rounded size of the arena's region, or 0 once the arena has been destroyed
func (a *Arena) Size() int {
	return len(a.region)
}

// PageSize returns the page size the arena was rounded to
func (a *Arena) PageSize() int {
	return a.pageSize
}

// Initialized returns true between a successful New and the matching Destroy
func (a *Arena) Initialized() bool {
	return a.region != nil
}

// Status returns the outcome of the last Allocate or Destroy call on this arena
func (a *Arena) Status() Status {
	return a.status
}

// AllocationCount returns the number of allocations that have not been released
func (a *Arena) AllocationCount() int {
	if a.live == nil {
		return 0
	}

	return a.live.Count()
}

// Destroy returns the arena's region to its memory source. Allocations that were never released are
// logged but do not prevent the arena from being destroyed. If the memory source fails to release the
// region, the arena is left intact so the call may be retried.
func (a *Arena) Destroy() error {
	ctx := context.Background()

	if a.region == nil {
		a.logger.LogAttrs(ctx, slog.LevelError, "cannot destroy an uninitialized arena")
		a.status = StatusUninitialized
		return errors.Wrap(memutils.ErrUninitialized, "cannot destroy arena")
	}

	size := len(a.region)
	a.logger.LogAttrs(ctx, slog.LevelInfo, "Destroying arena", slog.String("size", humanize.IBytes(uint64(size))))

	if !a.metadata.IsEmpty() {
		a.logUnreleasedMemory()
	}

	err := a.memory.Release(a.region)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelError, "failed to release arena memory", slog.Any("error", err))
		a.status = StatusSyscallFailed
		return errors.Mark(errors.Wrapf(err, "failed to release the %d byte arena", size), memutils.ErrSyscallFailed)
	}

	a.region = nil
	a.metadata = nil
	a.live = nil
	a.status = StatusSuccess

	a.callbacks.Release(size)
	a.metrics.destroyed()
	return nil
}

func (a *Arena) logUnreleasedMemory() {
	err := a.metadata.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset int, size int, free bool) error {
		if free {
			return nil
		}

		requested, _ := a.live.Get(Address(offset))
		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
			slog.Int("address", offset),
			slog.Int("size", requested),
			slog.Int("capacity", size),
		)
		return nil
	})
	if err != nil {
		a.logger.LogAttrs(context.Background(),
			slog.LevelError,
			"[UNRELEASED MEMORY] error while iterating unreleased memory",
			slog.Any("error", err))
	}
}

// Allocate reserves size bytes inside the arena and returns the address of the payload. The first free
// block in address order that can hold the request is used, split when the remainder can hold another
// header. When no free block fits, a new block is appended to the untouched space after the last block.
//
// A size of zero or less returns Null with no error and leaves the status unchanged.
func (a *Arena) Allocate(size int) (Address, error) {
	if a.region == nil {
		a.status = StatusUninitialized
		return Null, errors.Wrap(memutils.ErrUninitialized, "cannot allocate")
	}

	if size <= 0 {
		return Null, nil
	}

	if size > len(a.region)-metadata.HeaderSize {
		return a.failAllocation(size, errors.Wrapf(memutils.ErrOutOfMemory,
			"an allocation of %d bytes and its header cannot fit in an arena of %d bytes", size, len(a.region)))
	}

	success, request, err := a.metadata.CreateAllocationRequest(size)
	if err != nil {
		return a.failAllocation(size, err)
	}
	if !success {
		return a.failAllocation(size, errors.Wrapf(memutils.ErrOutOfMemory,
			"no free block or trailing space can hold %d bytes", size))
	}

	err = a.metadata.Alloc(request)
	if err != nil {
		return a.failAllocation(size, err)
	}

	address := Address(request.Item.Offset)
	a.live.Put(address, size)
	a.status = StatusSuccess
	a.metrics.allocated(StatusSuccess, size)

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "Arena::Allocate",
		slog.Int("size", size),
		slog.Int("address", int(address)),
		slog.String("request", request.Type.String()))

	memutils.DebugValidate(a)
	return address, nil
}

func (a *Arena) failAllocation(size int, err error) (Address, error) {
	a.status = StatusFromError(err)
	a.metrics.allocated(a.status, size)

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Allocation failed",
		slog.Int("size", size),
		slog.String("status", a.status.String()))

	return Null, errors.Wrapf(err, "failed to allocate %d bytes", size)
}

// Release returns an allocation to the arena, merging its block with any free neighbours. Releasing
// Null does nothing. Addresses that were not returned by Allocate, or were already released, are
// rejected with ErrInvalidPointer or ErrDoubleFree and leave the arena untouched.
//
// Release does not change the arena's status.
func (a *Arena) Release(address Address) error {
	if address == Null {
		return nil
	}

	if a.region == nil {
		return errors.Wrap(memutils.ErrUninitialized, "cannot release")
	}

	size, live := a.live.Get(address)
	if !live {
		if a.metadata.IsFreeBlock(address.handle()) {
			return errors.Wrapf(memutils.ErrDoubleFree, "address %d has already been released", address)
		}

		return errors.Wrapf(memutils.ErrInvalidPointer, "address %d was not returned by Allocate", address)
	}

	err := a.metadata.Free(address.handle())
	if err != nil {
		return errors.Wrapf(err, "failed to release address %d", address)
	}

	a.live.Delete(address)
	a.metrics.released(size)

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "Arena::Release",
		slog.Int("address", int(address)),
		slog.Int("size", size))

	memutils.DebugValidate(a)
	return nil
}

// Bytes returns the payload of a live allocation. The slice's length is the requested size and its
// capacity is the capacity of the block, which can be larger when the block was too small to split.
//
// The slice aliases arena memory and must not be used after the allocation is released or the arena
// is destroyed.
func (a *Arena) Bytes(address Address) ([]byte, error) {
	if a.region == nil {
		return nil, errors.Wrap(memutils.ErrUninitialized, "cannot access allocation")
	}

	size, live := a.live.Get(address)
	if !live {
		return nil, errors.Wrapf(memutils.ErrInvalidPointer, "address %d is not a live allocation", address)
	}

	capacity, err := a.metadata.AllocationSize(address.handle())
	if err != nil {
		return nil, err
	}

	start, err := a.metadata.AllocationOffset(address.handle())
	if err != nil {
		return nil, err
	}

	return a.region[start : start+size : start+capacity], nil
}

// Validate checks the block header chain and cross-checks it against the live allocation table
func (a *Arena) Validate() error {
	if a.region == nil {
		return errors.Wrap(memutils.ErrUninitialized, "cannot validate arena")
	}

	err := a.metadata.Validate()
	if err != nil {
		return err
	}

	var stats memutils.Statistics
	a.metadata.AddStatistics(&stats)
	if stats.AllocationCount != a.live.Count() {
		return errors.Wrapf(memutils.ErrCorruptChain, "the chain holds %d allocations, but %d are live",
			stats.AllocationCount, a.live.Count())
	}
	if stats.FreeBytes() < 0 {
		return errors.Wrapf(memutils.ErrCorruptChain, "allocations and headers account for %d bytes of a %d byte arena",
			stats.AllocationBytes+stats.HeaderBytes, stats.BlockBytes)
	}

	return a.metadata.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset int, size int, free bool) error {
		if free {
			return nil
		}

		requested, live := a.live.Get(Address(offset))
		if !live {
			return errors.Wrapf(memutils.ErrCorruptChain, "block at offset %d is taken but has no live allocation", handle)
		}
		if requested > size {
			return errors.Wrapf(memutils.ErrCorruptChain, "allocation at address %d requested %d bytes but its block only holds %d", offset, requested, size)
		}

		return nil
	})
}
