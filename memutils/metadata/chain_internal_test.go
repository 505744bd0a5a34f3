package metadata

import (
	"math"
	"testing"

	"github.com/myalloc/arsenal/memutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// shortChain builds a chain whose only block does not reach the end of the arena, leaving
// trailing space that only the extension path can hand out
func shortChain(t *testing.T, arenaSize, blockSize int) *ChainBlockMetadata {
	chain := NewChainBlockMetadata()
	chain.Init(make([]byte, arenaSize))

	err := writeHeader(chain.data, blockHeader{offset: 0, size: blockSize, free: false, next: noBlock, prev: noBlock})
	require.NoError(t, err)
	chain.head = 0
	chain.allocCount = 1

	require.NoError(t, chain.Validate())
	return chain
}

func TestChainExtendAfterTail(t *testing.T) {
	chain := shortChain(t, 1024, 100)

	success, req, err := chain.CreateAllocationRequest(200)
	require.NoError(t, err)
	require.True(t, success)
	require.Equal(t, AllocationRequestExtend, req.Type)
	require.Equal(t, BlockAllocationHandle(132), req.BlockAllocationHandle)
	require.Equal(t, uint64(0), req.AlgorithmData)

	require.NoError(t, chain.Alloc(req))
	require.NoError(t, chain.Validate())

	tail, err := readHeader(chain.data, 132)
	require.NoError(t, err)
	require.Equal(t, blockHeader{offset: 132, size: 200, free: false, next: noBlock, prev: 0}, tail)

	head, err := readHeader(chain.data, 0)
	require.NoError(t, err)
	require.Equal(t, 132, head.next)

	var stats memutils.DetailedStatistics
	stats.Clear()
	chain.AddDetailedStatistics(&stats)
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 300, stats.AllocationBytes)
	require.Equal(t, 1, stats.UnusedRangeCount)
	require.Equal(t, 1024-364, stats.UnusedRangeSizeMax)

	var basic memutils.Statistics
	chain.AddStatistics(&basic)
	require.Equal(t, stats.Statistics, basic)
}

func TestChainExtendPastArenaEnd(t *testing.T) {
	chain := shortChain(t, 1024, 100)

	// 132 + 32 + 860 == 1024 still fits
	success, _, err := chain.CreateAllocationRequest(860)
	require.NoError(t, err)
	require.True(t, success)

	success, _, err = chain.CreateAllocationRequest(861)
	require.NoError(t, err)
	require.False(t, success)

	for _, size := range []int{math.MaxInt, math.MaxInt - 131, math.MaxInt - HeaderSize} {
		success, _, err = chain.CreateAllocationRequest(size)
		require.NoError(t, err)
		require.False(t, success, "size %d", size)
	}
}

func TestChainExtendCommitHugeSize(t *testing.T) {
	chain := shortChain(t, 1024, 100)

	success, req, err := chain.CreateAllocationRequest(50)
	require.NoError(t, err)
	require.True(t, success)

	req.Size = math.MaxInt - HeaderSize
	err = chain.Alloc(req)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))
	require.NoError(t, chain.Validate())
}

func TestChainExtendRejectsStaleRequest(t *testing.T) {
	chain := shortChain(t, 1024, 100)

	success, req, err := chain.CreateAllocationRequest(50)
	require.NoError(t, err)
	require.True(t, success)

	req.BlockAllocationHandle += 8
	err = chain.Alloc(req)
	require.True(t, errors.Is(err, memutils.ErrCorruptChain))

	req.BlockAllocationHandle -= 8
	req.Size = 1000
	err = chain.Alloc(req)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))
	require.NoError(t, chain.Validate())
}

func TestReadHeaderBounds(t *testing.T) {
	data := make([]byte, 64)

	_, err := readHeader(data, 40)
	require.True(t, errors.Is(err, memutils.ErrOutOfBounds))

	_, err = readHeader(data, -1)
	require.True(t, errors.Is(err, memutils.ErrOutOfBounds))

	// Zeroed memory carries no header tag
	_, err = readHeader(data, 0)
	require.True(t, errors.Is(err, memutils.ErrCorruptChain))

	require.NoError(t, writeHeader(data, blockHeader{offset: 32, size: 0, free: true, next: noBlock, prev: 0}))
	header, err := readHeader(data, 32)
	require.NoError(t, err)
	require.True(t, header.free)
	require.False(t, header.hasNext())
	require.True(t, header.hasPrev())

	eraseHeader(data, 32)
	_, err = readHeader(data, 32)
	require.True(t, errors.Is(err, memutils.ErrCorruptChain))
}
