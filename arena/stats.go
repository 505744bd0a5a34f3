package arena

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/myalloc/arsenal/memutils"
	"github.com/myalloc/arsenal/memutils/metadata"
)

// Block describes a single block of the arena, as reported by VisitBlocks
type Block struct {
	// Address is the payload address of the block
	Address Address
	// Size is the payload capacity of the block, excluding its header
	Size int
	// Requested is the size passed to Allocate for taken blocks, and 0 for free blocks
	Requested int
	Free      bool
}

// VisitBlocks calls visit once for every block in the chain, in address order. Iteration stops at the
// first error, which is returned. An arena that has never been allocated from has no blocks.
func (a *Arena) VisitBlocks(visit func(block Block) error) error {
	if a.region == nil {
		return nil
	}

	return a.metadata.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset int, size int, free bool) error {
		block := Block{
			Address: Address(offset),
			Size:    size,
			Free:    free,
		}
		if !free {
			block.Requested, _ = a.live.Get(block.Address)
		}

		return visit(block)
	})
}

// CalculateStatistics populates stats with the current layout of the arena. The statistics are
// cleared first.
func (a *Arena) CalculateStatistics(stats *memutils.DetailedStatistics) {
	stats.Clear()

	if a.metadata != nil {
		a.metadata.AddDetailedStatistics(stats)
	}
}

// BuildStatsString returns a JSON document describing the arena. When detailedMap is true, every
// block in the chain is listed.
func (a *Arena) BuildStatsString(detailedMap bool) string {
	var stats memutils.DetailedStatistics
	a.CalculateStatistics(&stats)

	writer := jwriter.NewWriter()
	objState := writer.Object()

	objState.Name("Status").String(a.status.String())
	objState.Name("PageSize").Int(a.pageSize)
	objState.Name("LiveAllocations").Int(a.AllocationCount())

	totalObj := objState.Name("Total").Object()
	stats.PrintJson(&totalObj)
	totalObj.End()

	if detailedMap && a.metadata != nil {
		arenaObj := objState.Name("Arena").Object()
		a.metadata.BlockJsonData(&arenaObj)
		a.printDetailedMapBlocks(&arenaObj)
		arenaObj.End()
	}

	objState.End()
	return string(writer.Bytes())
}

func (a *Arena) printDetailedMapBlocks(json *jwriter.ObjectState) {
	arrayState := json.Name("Blocks").Array()
	defer arrayState.End()

	_ = a.VisitBlocks(func(block Block) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Address").Int(int(block.Address))
		obj.Name("Size").Int(block.Size)
		if block.Free {
			obj.Name("Type").String("Free")
		} else {
			obj.Name("Type").String("Allocation")
			obj.Name("Requested").Int(block.Requested)
		}

		return nil
	})
}
