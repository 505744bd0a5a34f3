package metadata

// AllocationRequestType is an enum that indicates the type of allocation that is being made.
// It is returned in AllocationRequest from CreateAllocationRequest
type AllocationRequestType uint32

const (
	// AllocationRequestFirstFit indicates that the allocation will be placed in the first free block,
	// in address order, that is large enough to hold it
	AllocationRequestFirstFit AllocationRequestType = iota
	// AllocationRequestExtend indicates that no free block could hold the allocation and that a new
	// block will be appended after the last block in the chain
	AllocationRequestExtend
)

var allocationRequestMapping = map[AllocationRequestType]string{
	AllocationRequestFirstFit: "FirstFit",
	AllocationRequestExtend:   "Extend",
}

func (t AllocationRequestType) String() string {
	return allocationRequestMapping[t]
}

// AllocationRequest is a type returned from BlockMetadata.CreateAllocationRequest which indicates where and how
// the metadata intends to allocate new memory. It can be committed to the metadata with BlockMetadata.Alloc
type AllocationRequest struct {
	// BlockAllocationHandle is the handle of the block that will hold the allocation. For extension
	// requests it is the handle the new block will be created with.
	BlockAllocationHandle BlockAllocationHandle
	// Size is the requested payload size in bytes
	Size int
	// Item describes the payload region the allocation will occupy once committed
	Item Suballocation
	// Type identifies the sort of allocation this request represents
	Type AllocationRequestType

	// AlgorithmData is arbitrary data used by the BlockMetadata implementation for internal
	// purposes
	AlgorithmData uint64
}
