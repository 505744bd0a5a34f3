package arena_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/myalloc/arsenal/arena"
	"github.com/myalloc/arsenal/memutils"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func useMockDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	arena.SetDefaultOptions(testLogger(), arena.CreateOptions{Memory: mockMemory(ctrl)})

	t.Cleanup(func() {
		if arena.Default() != nil {
			require.NoError(t, arena.Destroy())
		}
		arena.SetDefaultOptions(nil, arena.CreateOptions{})
	})
}

func TestDefault_Uninitialized(t *testing.T) {
	useMockDefaults(t)

	require.Nil(t, arena.Default())

	address := arena.Allocate(100)
	require.Equal(t, arena.Null, address)
	require.Equal(t, arena.StatusUninitialized, arena.LastStatus())

	err := arena.Destroy()
	require.True(t, errors.Is(err, memutils.ErrUninitialized))
	require.Equal(t, arena.StatusUninitialized, arena.LastStatus())

	// Nothing to release into, and nothing to report
	arena.Release(address)
	arena.Release(arena.Address(64))
}

func TestDefault_InitializeBounds(t *testing.T) {
	useMockDefaults(t)

	_, err := arena.Initialize(0)
	require.True(t, errors.Is(err, memutils.ErrBadArguments))
	require.Nil(t, arena.Default())
	require.Equal(t, arena.StatusBadArguments, arena.LastStatus())

	_, err = arena.Initialize(arena.MaxArenaSize + 1)
	require.True(t, errors.Is(err, memutils.ErrBadArguments))
	require.Nil(t, arena.Default())
}

func TestDefault_Lifecycle(t *testing.T) {
	useMockDefaults(t)

	size, err := arena.Initialize(100)
	require.NoError(t, err)
	require.Equal(t, 4096, size)
	require.Equal(t, arena.StatusSuccess, arena.LastStatus())

	_, err = arena.Initialize(100)
	require.True(t, errors.Is(err, memutils.ErrAlreadyInitialized))
	require.Equal(t, size, arena.Default().Size())

	first := arena.Allocate(100)
	require.Equal(t, arena.Address(32), first)
	require.Equal(t, arena.StatusSuccess, arena.LastStatus())

	require.Equal(t, arena.Null, arena.Allocate(5000))
	require.Equal(t, arena.StatusOutOfMemory, arena.LastStatus())

	require.Equal(t, arena.Null, arena.Allocate(0))
	require.Equal(t, arena.StatusOutOfMemory, arena.LastStatus())

	second := arena.Allocate(200)
	require.NotEqual(t, arena.Null, second)

	arena.Release(first)
	// Rejected releases are logged and leave the arena alone
	arena.Release(first)
	arena.Release(arena.Address(7))
	require.NoError(t, arena.Default().Validate())
	require.Equal(t, 1, arena.Default().AllocationCount())

	require.NoError(t, arena.Destroy())
	require.Nil(t, arena.Default())
	require.Equal(t, arena.StatusSuccess, arena.LastStatus())

	err = arena.Destroy()
	require.True(t, errors.Is(err, memutils.ErrUninitialized))
}

func TestDefault_Reinitialize(t *testing.T) {
	useMockDefaults(t)

	_, err := arena.Initialize(4096)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NotEqual(t, arena.Null, arena.Allocate(50))
	}
	require.NoError(t, arena.Destroy())

	size, err := arena.Initialize(8000)
	require.NoError(t, err)
	require.Equal(t, 8192, size)

	require.Equal(t, arena.Address(32), arena.Allocate(50))
	require.Equal(t, 1, arena.Default().AllocationCount())
	require.Len(t, blocks(t, arena.Default()), 2)
}
