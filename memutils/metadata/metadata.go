package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/myalloc/arsenal/memutils"
)

// BlockMetadata represents a single arena of memory. It manages the blocks within the arena, allowing
// allocations to be requested and freed, as well as enumerated and queried.
type BlockMetadata interface {
	// Init must be called before the BlockMetadata is used. data is the arena memory the
	// implementation will manage; its length is the size of the block.
	Init(data []byte)
	// Size retrieves the size in bytes that the block was initialized with
	Size() int

	// Validate performs internal consistency checks on the metadata. When the implementation is
	// functioning correctly it should not be possible for this method to return an error, but this
	// may assist in diagnosing corruption caused by writes past the end of an allocation.
	Validate() error
	// AllocationCount returns the number of allocations currently live in the implementation.
	AllocationCount() int
	// FreeRegionsCount returns the number of unique regions of free memory in the block.
	FreeRegionsCount() int
	// SumFreeSize returns the number of free payload bytes in the block.
	SumFreeSize() int
	// IsEmpty will return true if this block has no live allocations
	IsEmpty() bool

	// VisitAllRegions will call the provided callback once for each allocation and free region in
	// the block, in address order.
	VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset int, size int, free bool) error) error
	// AllocationOffset accepts a BlockAllocationHandle that maps to a live region of memory
	// (allocated or free) within the block and returns the payload offset of that region.
	AllocationOffset(allocHandle BlockAllocationHandle) (int, error)

	// AddDetailedStatistics sums this block's allocation statistics into the statistics currently present
	// in the provided memutils.DetailedStatistics object.
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// AddStatistics sums this block's allocation statistics into the statistics currently present in the
	// provided memutils.Statistics object.
	AddStatistics(stats *memutils.Statistics)

	// BlockJsonData populates a json object with information about this block
	BlockJsonData(json *jwriter.ObjectState)

	// CreateAllocationRequest retrieves an AllocationRequest object indicating where and how the implementation
	// would prefer to allocate the requested memory. That object can be passed to Alloc to commit the
	// allocation. The boolean return is false when the block cannot hold the allocation.
	CreateAllocationRequest(allocSize int) (bool, AllocationRequest, error)
	// Alloc commits an AllocationRequest object, creating the allocation within the block based
	// on the data described in the AllocationRequest. The implementation must return an error if the
	// allocation is no longer valid.
	Alloc(request AllocationRequest) error

	// Free frees an allocation within the block, causing it to become a free region once again.
	//
	// The implementation must return an error if the provided handle does not map to a live allocation
	// within this block.
	Free(allocHandle BlockAllocationHandle) error
}

// BlockMetadataBase is a simple struct that provides a few shared utilities for BlockMetadata
// implementations.
type BlockMetadataBase struct {
	size int
}

// Init prepares this structure for allocations and sizes the block in bytes based on the parameter size.
func (m *BlockMetadataBase) Init(size int) {
	m.size = size
}

// Size returns the size of the block in bytes
func (m *BlockMetadataBase) Size() int { return m.size }

// BlockJsonData populates a json object with information about this block
func (m *BlockMetadataBase) BlockJsonData(json *jwriter.ObjectState, unusedBytes, allocationCount, unusedRangeCount int) {
	json.Name("TotalBytes").Int(m.Size())
	json.Name("UnusedBytes").Int(unusedBytes)
	json.Name("Allocations").Int(allocationCount)
	json.Name("UnusedRanges").Int(unusedRangeCount)
}
