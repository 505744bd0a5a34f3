package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/myalloc/arsenal/memutils"
	"github.com/pkg/errors"
)

// ChainBlockMetadata is a BlockMetadata implementation that keeps its bookkeeping inside the managed
// memory itself. Every block is a HeaderSize header followed by its payload, and the headers form a
// doubly-linked list in address order. Allocations are placed first-fit, oversized free blocks are split,
// and freed blocks are merged with free neighbours immediately.
//
// The first header is written lazily, on the first allocation request, as a single free block covering
// the whole arena.
type ChainBlockMetadata struct {
	BlockMetadataBase

	data       []byte
	head       int
	allocCount int
	freeCount  int
	freeSize   int
}

var _ BlockMetadata = &ChainBlockMetadata{}

func NewChainBlockMetadata() *ChainBlockMetadata {
	return &ChainBlockMetadata{
		head: noBlock,
	}
}

func (m *ChainBlockMetadata) Init(data []byte) {
	m.BlockMetadataBase.Init(len(data))
	m.data = data
	m.head = noBlock
	m.allocCount = 0
	m.freeCount = 0
	m.freeSize = 0
}

// Materialized returns true once the first block header has been written into the arena
func (m *ChainBlockMetadata) Materialized() bool {
	return m.head != noBlock
}

func (m *ChainBlockMetadata) materialize() error {
	if m.size < HeaderSize {
		return errors.Wrapf(memutils.ErrOutOfMemory, "an arena of %d bytes cannot hold a block header", m.size)
	}

	err := writeHeader(m.data, blockHeader{
		offset: 0,
		size:   m.size - HeaderSize,
		free:   true,
		next:   noBlock,
		prev:   noBlock,
	})
	if err != nil {
		return err
	}

	m.head = 0
	m.freeCount = 1
	m.freeSize = m.size - HeaderSize
	return nil
}

func corruptf(format string, args ...any) error {
	return errors.Wrapf(memutils.ErrCorruptChain, format, args...)
}

func (m *ChainBlockMetadata) Validate() error {
	if m.SumFreeSize() > m.Size() {
		return corruptf("invalid metadata free size")
	}

	if m.head == noBlock {
		if m.allocCount != 0 || m.freeCount != 0 || m.freeSize != 0 {
			return corruptf("the chain has not been materialized but the metadata lists %d allocations and %d free blocks", m.allocCount, m.freeCount)
		}
		return nil
	}

	if m.head != 0 {
		return corruptf("the first block should have an offset of 0, but instead it has an offset of %d", m.head)
	}

	var allocCount, freeCount, freeSize int
	prevOffset := noBlock
	prevFree := false

	for offset := m.head; offset != noBlock; {
		block, err := readHeader(m.data, offset)
		if err != nil {
			return err
		}

		if block.prev != prevOffset {
			return corruptf("block at offset %d lists %d as its previous block, but the reverse reference is broken", block.offset, block.prev)
		}

		if block.end() > m.size {
			return corruptf("block at offset %d ends at %d, past the end of the arena at %d", block.offset, block.end(), m.size)
		}

		if block.hasNext() && block.next != block.end() {
			return corruptf("block at offset %d does not end at the next block's start offset %d", block.offset, block.next)
		}

		if block.free {
			if prevFree {
				return corruptf("block at offset %d is free, and so is the block before it", block.offset)
			}

			freeCount++
			freeSize += block.size
		} else {
			allocCount++
		}

		prevFree = block.free
		prevOffset = offset
		offset = block.next
	}

	if allocCount != m.allocCount {
		return corruptf("the allocation count of the metadata is %d, but the taken blocks only added up to %d", m.allocCount, allocCount)
	}

	if freeCount != m.freeCount {
		return corruptf("the free block count of the metadata is %d, but there were only %d free blocks", m.freeCount, freeCount)
	}

	if freeSize != m.freeSize {
		return corruptf("the free size of the metadata is %d, but the free blocks only added up to %d", m.freeSize, freeSize)
	}

	return nil
}

func (m *ChainBlockMetadata) AllocationCount() int {
	return m.allocCount
}

// FreeRegionsCount returns the number of free blocks. An arena whose chain has not been materialized yet
// counts as a single free region.
func (m *ChainBlockMetadata) FreeRegionsCount() int {
	if m.head == noBlock && m.size >= HeaderSize {
		return 1
	}

	return m.freeCount
}

// SumFreeSize returns the payload capacity of all free blocks. An arena whose chain has not been
// materialized yet reports the capacity of the block it will materialize.
func (m *ChainBlockMetadata) SumFreeSize() int {
	if m.head == noBlock && m.size >= HeaderSize {
		return m.size - HeaderSize
	}

	return m.freeSize
}

func (m *ChainBlockMetadata) IsEmpty() bool {
	return m.allocCount == 0
}

func (m *ChainBlockMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.BlockCount++
	stats.BlockBytes += m.size

	if m.head == noBlock {
		if m.size >= HeaderSize {
			stats.AddHeader(HeaderSize)
			stats.AddUnusedRange(m.size - HeaderSize)
		} else if m.size > 0 {
			stats.AddUnusedRange(m.size)
		}
		return
	}

	end := 0
	for offset := m.head; offset != noBlock; {
		block, err := readHeader(m.data, offset)
		if err != nil {
			break
		}

		stats.AddHeader(HeaderSize)
		if block.free {
			stats.AddUnusedRange(block.size)
		} else {
			stats.AddAllocation(block.size)
		}

		end = block.end()
		offset = block.next
	}

	// Space past the last block that no header covers yet
	if end < m.size {
		stats.AddUnusedRange(m.size - end)
	}
}

func (m *ChainBlockMetadata) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount++
	stats.AllocationCount += m.allocCount
	stats.BlockBytes += m.size

	if m.head == noBlock {
		if m.size >= HeaderSize {
			stats.HeaderCount++
			stats.HeaderBytes += HeaderSize
		}
		return
	}

	headers := m.allocCount + m.freeCount
	stats.HeaderCount += headers
	stats.HeaderBytes += headers * HeaderSize
	stats.AllocationBytes += m.size - m.freeSize - headers*HeaderSize - m.trailingBytes()
}

// trailingBytes returns the number of bytes after the last block
func (m *ChainBlockMetadata) trailingBytes() int {
	tail, err := m.lastBlock()
	if err != nil {
		return 0
	}

	return m.size - tail.end()
}

func (m *ChainBlockMetadata) lastBlock() (blockHeader, error) {
	var block blockHeader
	var err error

	for offset := m.head; offset != noBlock; offset = block.next {
		block, err = readHeader(m.data, offset)
		if err != nil {
			return block, err
		}

		if block.hasNext() && block.next != block.end() {
			return block, corruptf("block at offset %d does not end at the next block's start offset %d", block.offset, block.next)
		}
	}

	return block, nil
}

func (m *ChainBlockMetadata) BlockJsonData(json *jwriter.ObjectState) {
	var stats memutils.DetailedStatistics
	stats.Clear()
	m.AddDetailedStatistics(&stats)

	m.BlockMetadataBase.BlockJsonData(json, stats.FreeBytes(), stats.AllocationCount, stats.UnusedRangeCount)
	json.Name("Headers").Int(stats.HeaderCount)
	json.Name("HeaderBytes").Int(stats.HeaderBytes)
	json.Name("FreeRegions").Int(m.FreeRegionsCount())
	json.Name("Materialized").Bool(m.Materialized())
}

func (m *ChainBlockMetadata) VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset int, size int, free bool) error) error {
	for offset := m.head; offset != noBlock; {
		block, err := readHeader(m.data, offset)
		if err != nil {
			return err
		}

		err = handleBlock(BlockAllocationHandle(block.offset), block.payloadOffset(), block.size, block.free)
		if err != nil {
			return err
		}

		if block.hasNext() && block.next != block.end() {
			return corruptf("block at offset %d does not end at the next block's start offset %d", block.offset, block.next)
		}
		offset = block.next
	}

	return nil
}

func (m *ChainBlockMetadata) AllocationOffset(allocHandle BlockAllocationHandle) (int, error) {
	block, err := m.getBlock(allocHandle)
	if err != nil {
		return 0, err
	}

	return block.payloadOffset(), nil
}

// AllocationSize returns the payload capacity of the block identified by allocHandle. This can be larger
// than the size that was requested when the block was too small to split.
func (m *ChainBlockMetadata) AllocationSize(allocHandle BlockAllocationHandle) (int, error) {
	block, err := m.getBlock(allocHandle)
	if err != nil {
		return 0, err
	}

	return block.size, nil
}

// IsFreeBlock returns true if allocHandle identifies a block header that is currently in the chain
// and free
func (m *ChainBlockMetadata) IsFreeBlock(allocHandle BlockAllocationHandle) bool {
	block, err := m.getBlock(allocHandle)
	return err == nil && block.free
}

func (m *ChainBlockMetadata) getBlock(handle BlockAllocationHandle) (blockHeader, error) {
	if m.head == noBlock {
		return blockHeader{}, errors.Wrapf(memutils.ErrInvalidPointer, "no blocks exist yet, handle %d is unknown", handle)
	}

	if handle == NoAllocation || handle > BlockAllocationHandle(m.size) {
		return blockHeader{}, errors.Wrapf(memutils.ErrOutOfBounds, "handle %d is outside of the arena", handle)
	}

	return readHeader(m.data, int(handle))
}

func (m *ChainBlockMetadata) CreateAllocationRequest(allocSize int) (bool, AllocationRequest, error) {
	var allocRequest AllocationRequest

	if allocSize < 1 {
		return false, allocRequest, errors.Errorf("invalid allocSize: %d", allocSize)
	}

	memutils.DebugValidate(m)

	// Is the arena big enough?
	if allocSize > m.size-HeaderSize {
		return false, allocRequest, nil
	}

	if m.head == noBlock {
		err := m.materialize()
		if err != nil {
			return false, allocRequest, err
		}
	}

	var tail blockHeader
	for offset := m.head; offset != noBlock; offset = tail.next {
		block, err := m.getBlock(BlockAllocationHandle(offset))
		if err != nil {
			return false, allocRequest, err
		}

		if block.free && block.size >= allocSize {
			allocRequest.Type = AllocationRequestFirstFit
			allocRequest.BlockAllocationHandle = BlockAllocationHandle(block.offset)
			allocRequest.Size = allocSize
			allocRequest.Item = Suballocation{Offset: block.payloadOffset(), Size: allocSize}
			return true, allocRequest, nil
		}

		if block.hasNext() && block.next != block.end() {
			return false, allocRequest, corruptf("block at offset %d does not end at the next block's start offset %d", block.offset, block.next)
		}

		tail = block
	}

	// No free block fits, try the space after the last block
	return m.checkExtension(tail, allocSize, &allocRequest)
}

// checkExtension places a block in the space after the last block. Splits always leave the chain
// covering the whole arena, so this only succeeds for chains that stop short of the arena end.
func (m *ChainBlockMetadata) checkExtension(tail blockHeader, allocSize int, allocRequest *AllocationRequest) (bool, AllocationRequest, error) {
	if tail.hasNext() {
		return false, *allocRequest, corruptf("block at offset %d was treated as the last block but links to %d", tail.offset, tail.next)
	}

	start := tail.end()
	if allocSize > m.size-HeaderSize-start {
		return false, *allocRequest, nil
	}

	allocRequest.Type = AllocationRequestExtend
	allocRequest.BlockAllocationHandle = BlockAllocationHandle(start)
	allocRequest.Size = allocSize
	allocRequest.Item = Suballocation{Offset: start + HeaderSize, Size: allocSize}
	allocRequest.AlgorithmData = uint64(tail.offset)
	return true, *allocRequest, nil
}

func (m *ChainBlockMetadata) Alloc(req AllocationRequest) error {
	if req.Size < 1 {
		return errors.Errorf("allocation request has an invalid size: %d", req.Size)
	}

	switch req.Type {
	case AllocationRequestFirstFit:
		return m.allocFirstFit(req)
	case AllocationRequestExtend:
		return m.allocExtend(req)
	}

	return errors.Errorf("allocation request type %d was received by an incompatible metadata", req.Type)
}

func (m *ChainBlockMetadata) allocFirstFit(req AllocationRequest) error {
	block, err := m.getBlock(req.BlockAllocationHandle)
	if err != nil {
		return err
	}

	if !block.free {
		return errors.Errorf("allocation request targets the block at offset %d, which is not free", block.offset)
	}
	if block.size < req.Size {
		return errors.Errorf("allocation request of %d bytes targets the block at offset %d, which only holds %d bytes", req.Size, block.offset, block.size)
	}

	m.freeCount--
	m.freeSize -= block.size

	// Split when the leftover can hold another header plus at least one byte
	if block.size > req.Size+HeaderSize {
		remainder := blockHeader{
			offset: block.offset + HeaderSize + req.Size,
			size:   block.size - req.Size - HeaderSize,
			free:   true,
			next:   block.next,
			prev:   block.offset,
		}

		if block.hasNext() {
			next, err := readHeader(m.data, block.next)
			if err != nil {
				return err
			}

			next.prev = remainder.offset
			if err = writeHeader(m.data, next); err != nil {
				return err
			}
		}

		if err = writeHeader(m.data, remainder); err != nil {
			return err
		}

		block.next = remainder.offset
		block.size = req.Size

		m.freeCount++
		m.freeSize += remainder.size
	}

	block.free = false
	if err = writeHeader(m.data, block); err != nil {
		return err
	}

	m.allocCount++
	return nil
}

func (m *ChainBlockMetadata) allocExtend(req AllocationRequest) error {
	tail, err := readHeader(m.data, int(req.AlgorithmData))
	if err != nil {
		return err
	}

	if tail.hasNext() {
		return corruptf("extension request expected the block at offset %d to be the last block, but it links to %d", tail.offset, tail.next)
	}

	start := tail.end()
	if start != int(req.BlockAllocationHandle) {
		return corruptf("extension request places a block at offset %d, but the last block ends at %d", req.BlockAllocationHandle, start)
	}

	if req.Size > m.size-HeaderSize-start {
		return errors.Wrapf(memutils.ErrOutOfMemory, "a block of %d bytes at offset %d would end past the arena end at %d", req.Size, start, m.size)
	}

	err = writeHeader(m.data, blockHeader{
		offset: start,
		size:   req.Size,
		free:   false,
		next:   noBlock,
		prev:   tail.offset,
	})
	if err != nil {
		return err
	}

	tail.next = start
	if err = writeHeader(m.data, tail); err != nil {
		return err
	}

	m.allocCount++
	return nil
}

func (m *ChainBlockMetadata) Free(allocHandle BlockAllocationHandle) error {
	block, err := m.getBlock(allocHandle)
	if err != nil {
		return err
	}
	if block.free {
		return errors.Wrapf(memutils.ErrDoubleFree, "block at offset %d", block.offset)
	}

	memutils.DebugValidate(m)

	block.free = true
	m.allocCount--
	m.freeCount++
	m.freeSize += block.size

	// Try merging
	if block.hasNext() {
		next, err := readHeader(m.data, block.next)
		if err != nil {
			return err
		}

		if next.free {
			if err = m.mergeBlock(&block, next); err != nil {
				return err
			}
		}
	}

	if block.hasPrev() {
		prev, err := readHeader(m.data, block.prev)
		if err != nil {
			return err
		}

		if prev.free {
			if err = m.mergeBlock(&prev, block); err != nil {
				return err
			}
			block = prev
		}
	}

	return writeHeader(m.data, block)
}

// mergeBlock folds second, which must directly follow first, into first. The caller is responsible
// for writing first back to the arena.
func (m *ChainBlockMetadata) mergeBlock(first *blockHeader, second blockHeader) error {
	if first.next != second.offset || second.prev != first.offset {
		return corruptf("cannot merge separate physical regions at offsets %d and %d", first.offset, second.offset)
	}

	if second.hasNext() {
		next, err := readHeader(m.data, second.next)
		if err != nil {
			return err
		}

		next.prev = first.offset
		if err = writeHeader(m.data, next); err != nil {
			return err
		}
	}

	first.size += HeaderSize + second.size
	first.next = second.next
	eraseHeader(m.data, second.offset)

	m.freeCount--
	m.freeSize += HeaderSize
	return nil
}
