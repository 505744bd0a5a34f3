package arena

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// BytesAllocator hands out byte slices backed by an Arena
type BytesAllocator struct {
	arena *Arena
}

func NewBytesAllocator(arena *Arena) *BytesAllocator {
	return &BytesAllocator{arena: arena}
}

// Get allocates size bytes from the arena and returns them as a slice of length size
func (b *BytesAllocator) Get(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Newf("cannot get a buffer of %d bytes", size)
	}

	address, err := b.arena.Allocate(size)
	if err != nil {
		return nil, err
	}

	return b.arena.Bytes(address)
}

// Put releases a slice returned by Get. It returns false if the slice does not start at an allocation
// in this arena.
func (b *BytesAllocator) Put(buf []byte) bool {
	address, ok := b.arena.addressOf(buf)
	if !ok {
		return false
	}

	return b.arena.Release(address) == nil
}

// addressOf maps the first byte of buf back onto an address in the arena
func (a *Arena) addressOf(buf []byte) (Address, bool) {
	if a.region == nil || cap(buf) == 0 {
		return Null, false
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.region)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if ptr < base || ptr >= base+uintptr(len(a.region)) {
		return Null, false
	}

	return Address(ptr - base), true
}
