package arena_test

import (
	"encoding/json"
	"testing"

	"github.com/myalloc/arsenal/memutils"
	"github.com/myalloc/arsenal/memutils/metadata"
	"github.com/stretchr/testify/require"
)

func TestArena_CalculateStatistics(t *testing.T) {
	a := newTestArena(t, 4096)

	var stats memutils.DetailedStatistics
	a.CalculateStatistics(&stats)
	require.Equal(t, 0, stats.AllocationCount)
	require.Equal(t, 4096-metadata.HeaderSize, stats.FreeBytes())

	first := allocate(t, a, 100)
	allocate(t, a, 300)
	allocate(t, a, 50)
	require.NoError(t, a.Release(first))

	a.CalculateStatistics(&stats)
	require.Equal(t, 1, stats.BlockCount)
	require.Equal(t, 4096, stats.BlockBytes)
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 350, stats.AllocationBytes)
	require.Equal(t, 4, stats.HeaderCount)
	require.Equal(t, 2, stats.UnusedRangeCount)
	require.Equal(t, 50, stats.AllocationSizeMin)
	require.Equal(t, 300, stats.AllocationSizeMax)
	require.Equal(t, 100, stats.UnusedRangeSizeMin)
	require.Equal(t, stats.BlockBytes, stats.AllocationBytes+stats.HeaderBytes+stats.FreeBytes())
}

func TestArena_BuildStatsString(t *testing.T) {
	a := newTestArena(t, 4096)

	first := allocate(t, a, 100)
	allocate(t, a, 200)
	require.NoError(t, a.Release(first))

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(a.BuildStatsString(false)), &summary))
	require.Equal(t, "StatusSuccess", summary["Status"])
	require.Equal(t, float64(1), summary["LiveAllocations"])
	require.NotContains(t, summary, "Arena")

	total := summary["Total"].(map[string]any)
	require.Equal(t, float64(1), total["AllocationCount"])
	require.Equal(t, float64(200), total["AllocationBytes"])
	require.Equal(t, float64(3), total["HeaderCount"])

	var detailed map[string]any
	require.NoError(t, json.Unmarshal([]byte(a.BuildStatsString(true)), &detailed))

	arenaObj := detailed["Arena"].(map[string]any)
	require.Equal(t, float64(4096), arenaObj["TotalBytes"])
	require.Equal(t, float64(1), arenaObj["Allocations"])
	require.Equal(t, float64(3), arenaObj["Headers"])
	require.Equal(t, float64(2), arenaObj["FreeRegions"])
	require.Equal(t, true, arenaObj["Materialized"])

	blockList := arenaObj["Blocks"].([]any)
	require.Len(t, blockList, 3)

	freed := blockList[0].(map[string]any)
	require.Equal(t, "Free", freed["Type"])
	require.Equal(t, float64(32), freed["Address"])

	taken := blockList[1].(map[string]any)
	require.Equal(t, "Allocation", taken["Type"])
	require.Equal(t, float64(200), taken["Requested"])
}

func TestArena_BuildStatsStringDestroyed(t *testing.T) {
	a := newTestArena(t, 4096)
	require.NoError(t, a.Destroy())

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(a.BuildStatsString(true)), &summary))
	require.Equal(t, float64(0), summary["LiveAllocations"])
	require.NotContains(t, summary, "Arena")
}
