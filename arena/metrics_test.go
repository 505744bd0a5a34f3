package arena

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type heapMemory struct{}

func (heapMemory) PageSize() int                    { return 4096 }
func (heapMemory) Reserve(size int) ([]byte, error) { return make([]byte, size), nil }
func (heapMemory) Release([]byte) error             { return nil }

func TestMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	a, err := New(nil, 4096, CreateOptions{Memory: heapMemory{}, Metrics: metrics})
	require.NoError(t, err)
	require.Equal(t, float64(4096), testutil.ToFloat64(metrics.arenaBytes))

	first, err := a.Allocate(100)
	require.NoError(t, err)
	_, err = a.Allocate(200)
	require.NoError(t, err)
	_, err = a.Allocate(8000)
	require.Error(t, err)

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.allocations.WithLabelValues("StatusSuccess")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.allocations.WithLabelValues("StatusOutOfMemory")))
	require.Equal(t, float64(300), testutil.ToFloat64(metrics.bytesInUse))
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.liveAllocations))

	require.NoError(t, a.Release(first))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.releases))
	require.Equal(t, float64(200), testutil.ToFloat64(metrics.bytesInUse))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.liveAllocations))

	require.NoError(t, a.Destroy())
	require.Zero(t, testutil.ToFloat64(metrics.arenaBytes))
	require.Zero(t, testutil.ToFloat64(metrics.liveAllocations))
}

func TestMetrics_Nil(t *testing.T) {
	var metrics *Metrics

	metrics.reserved(10)
	metrics.allocated(StatusSuccess, 10)
	metrics.released(10)
	metrics.destroyed()
}
