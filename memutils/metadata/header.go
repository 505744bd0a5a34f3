package metadata

import (
	"encoding/binary"

	"github.com/myalloc/arsenal/memutils"
	"github.com/pkg/errors"
)

const (
	// HeaderSize is the number of bytes each block header occupies in front of its payload
	HeaderSize = 32

	// headerTag marks the second word of every header that is currently part of the chain. Merged
	// headers have it cleared, so stale offsets can be told apart from live ones.
	headerTag uint32 = 0x7F84E666

	flagFree uint32 = 1 << 0

	// noBlock is the on-disk value of an absent next or prev link
	noBlock = -1

	sizeOffset  = 0
	flagsOffset = 8
	tagOffset   = 12
	nextOffset  = 16
	prevOffset  = 24
)

// blockHeader is the decoded form of the 32 bytes preceding every payload in the arena
type blockHeader struct {
	offset int
	size   int
	free   bool
	next   int
	prev   int
}

func (h *blockHeader) payloadOffset() int {
	return h.offset + HeaderSize
}

// end is the offset one past the last payload byte of this block
func (h *blockHeader) end() int {
	return h.offset + HeaderSize + h.size
}

func (h *blockHeader) hasNext() bool {
	return h.next != noBlock
}

func (h *blockHeader) hasPrev() bool {
	return h.prev != noBlock
}

func checkHeaderBounds(data []byte, offset int) error {
	if offset < 0 || offset > len(data)-HeaderSize {
		return errors.Wrapf(memutils.ErrOutOfBounds, "header offset %d does not fit in an arena of %d bytes", offset, len(data))
	}
	return nil
}

// readHeader decodes the header at offset, failing if the offset is outside the arena or does not
// hold a live header
func readHeader(data []byte, offset int) (blockHeader, error) {
	if err := checkHeaderBounds(data, offset); err != nil {
		return blockHeader{}, err
	}

	raw := data[offset : offset+HeaderSize]
	if binary.LittleEndian.Uint32(raw[tagOffset:]) != headerTag {
		return blockHeader{}, errors.Wrapf(memutils.ErrCorruptChain, "no block header found at offset %d", offset)
	}

	size := binary.LittleEndian.Uint64(raw[sizeOffset:])
	if size > uint64(len(data)) {
		return blockHeader{}, errors.Wrapf(memutils.ErrCorruptChain, "block at offset %d claims a size of %d", offset, size)
	}

	return blockHeader{
		offset: offset,
		size:   int(size),
		free:   binary.LittleEndian.Uint32(raw[flagsOffset:])&flagFree != 0,
		next:   int(int64(binary.LittleEndian.Uint64(raw[nextOffset:]))),
		prev:   int(int64(binary.LittleEndian.Uint64(raw[prevOffset:]))),
	}, nil
}

func writeHeader(data []byte, h blockHeader) error {
	if err := checkHeaderBounds(data, h.offset); err != nil {
		return err
	}

	var flags uint32
	if h.free {
		flags |= flagFree
	}

	raw := data[h.offset : h.offset+HeaderSize]
	binary.LittleEndian.PutUint64(raw[sizeOffset:], uint64(h.size))
	binary.LittleEndian.PutUint32(raw[flagsOffset:], flags)
	binary.LittleEndian.PutUint32(raw[tagOffset:], headerTag)
	binary.LittleEndian.PutUint64(raw[nextOffset:], uint64(int64(h.next)))
	binary.LittleEndian.PutUint64(raw[prevOffset:], uint64(int64(h.prev)))
	return nil
}

// eraseHeader clears a header that has been merged into its neighbour
func eraseHeader(data []byte, offset int) {
	if checkHeaderBounds(data, offset) != nil {
		return
	}

	raw := data[offset : offset+HeaderSize]
	for i := range raw {
		raw[i] = 0
	}
}
