package arena_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/myalloc/arsenal/arena"
	"github.com/myalloc/arsenal/memutils"
	"github.com/stretchr/testify/require"
)

func TestBytesAllocator_GetPut(t *testing.T) {
	a := newTestArena(t, 4096)
	allocator := arena.NewBytesAllocator(a)

	buf, err := allocator.Get(64)
	require.NoError(t, err)
	require.Len(t, buf, 64)
	copy(buf, "hello")

	other, err := allocator.Get(64)
	require.NoError(t, err)
	require.Equal(t, 2, a.AllocationCount())

	require.True(t, allocator.Put(buf))
	require.False(t, allocator.Put(buf))
	require.False(t, allocator.Put(make([]byte, 64)))
	require.False(t, allocator.Put(nil))

	require.True(t, allocator.Put(other))
	require.Zero(t, a.AllocationCount())
	require.NoError(t, a.Validate())
}

func TestBytesAllocator_Errors(t *testing.T) {
	a := newTestArena(t, 4096)
	allocator := arena.NewBytesAllocator(a)

	_, err := allocator.Get(0)
	require.Error(t, err)

	_, err = allocator.Get(4096)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))

	buf, err := allocator.Get(10)
	require.NoError(t, err)

	// A slice that starts inside the payload is not an allocation
	require.False(t, allocator.Put(buf[1:]))
	require.True(t, allocator.Put(buf))
}
