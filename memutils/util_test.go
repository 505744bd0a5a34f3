package memutils_test

import (
	"testing"

	"github.com/myalloc/arsenal/memutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	require.Equal(t, 4096, memutils.AlignUp(1, 4096))
	require.Equal(t, 4096, memutils.AlignUp(4096, 4096))
	require.Equal(t, 8192, memutils.AlignUp(4097, 4096))
	require.Equal(t, 0, memutils.AlignUp(0, 4096))

	require.Equal(t, 4096, memutils.AlignDown(8191, 4096))
	require.True(t, memutils.IsAligned(16384, 4096))
	require.False(t, memutils.IsAligned(100, 4096))
}

func TestCheckPow2(t *testing.T) {
	require.NoError(t, memutils.CheckPow2(4096, "page size"))
	require.NoError(t, memutils.CheckPow2(uint(1), "alignment"))

	err := memutils.CheckPow2(4095, "page size")
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
	require.Contains(t, err.Error(), "page size is 4095")

	err = memutils.CheckPow2(0, "page size")
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
}

func TestStatisticsFreeBytes(t *testing.T) {
	var stats memutils.DetailedStatistics
	stats.Clear()

	stats.BlockCount = 1
	stats.BlockBytes = 4096
	stats.AddHeader(32)
	stats.AddAllocation(100)
	stats.AddHeader(32)
	stats.AddUnusedRange(3932)

	require.Equal(t, 3932, stats.FreeBytes())

	var total memutils.DetailedStatistics
	total.Clear()
	total.AddDetailedStatistics(&stats)
	total.AddDetailedStatistics(&stats)

	require.Equal(t, 2, total.BlockCount)
	require.Equal(t, 4, total.HeaderCount)
	require.Equal(t, 200, total.AllocationBytes)
	require.Equal(t, 100, total.AllocationSizeMin)
	require.Equal(t, 3932, total.UnusedRangeSizeMax)
	require.Equal(t, 2*3932, total.FreeBytes())
}
