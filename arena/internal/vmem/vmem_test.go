package vmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemPageSize(t *testing.T) {
	pageSize := System{}.PageSize()
	require.Greater(t, pageSize, 0)
	require.Zero(t, pageSize&(pageSize-1))
}

func TestSystemReserveRelease(t *testing.T) {
	var system System
	size := system.PageSize() * 2

	region, err := system.Reserve(size)
	require.NoError(t, err)
	require.Len(t, region, size)

	for _, b := range region {
		require.Zero(t, b)
	}

	region[0] = 0xff
	region[size-1] = 0xff

	require.NoError(t, system.Release(region))
}

func TestSystemReserveInvalidSize(t *testing.T) {
	_, err := System{}.Reserve(0)
	require.Error(t, err)
}
