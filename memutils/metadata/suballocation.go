package metadata

import "math"

// BlockAllocationHandle identifies a block within the metadata. It is the offset of the block's header
// from the start of the arena.
type BlockAllocationHandle uint64

const (
	NoAllocation BlockAllocationHandle = math.MaxUint64
)

// Suballocation describes the payload region of a single block
type Suballocation struct {
	Offset int
	Size   int
	Free   bool
}
