package arena

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes arena activity to Prometheus. A nil *Metrics is valid and records nothing.
type Metrics struct {
	allocations     *prometheus.CounterVec
	releases        prometheus.Counter
	bytesInUse      prometheus.Gauge
	liveAllocations prometheus.Gauge
	arenaBytes      prometheus.Gauge
}

func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		allocations: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: "arsenal",
			Subsystem: "arena",
			Name:      "allocations_total",
			Help:      "Total number of allocation attempts, by resulting status.",
		}, []string{"status"}),
		releases: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: "arsenal",
			Subsystem: "arena",
			Name:      "releases_total",
			Help:      "Total number of allocations returned to the arena.",
		}),
		bytesInUse: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Namespace: "arsenal",
			Subsystem: "arena",
			Name:      "allocated_bytes",
			Help:      "Bytes currently requested by live allocations.",
		}),
		liveAllocations: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Namespace: "arsenal",
			Subsystem: "arena",
			Name:      "live_allocations",
			Help:      "Number of allocations that have not been released.",
		}),
		arenaBytes: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Namespace: "arsenal",
			Subsystem: "arena",
			Name:      "reserved_bytes",
			Help:      "Size of the region reserved from the operating system.",
		}),
	}
}

func (m *Metrics) reserved(size int) {
	if m == nil {
		return
	}

	m.arenaBytes.Set(float64(size))
	m.bytesInUse.Set(0)
	m.liveAllocations.Set(0)
}

func (m *Metrics) destroyed() {
	if m == nil {
		return
	}

	m.arenaBytes.Set(0)
	m.bytesInUse.Set(0)
	m.liveAllocations.Set(0)
}

func (m *Metrics) allocated(status Status, size int) {
	if m == nil {
		return
	}

	m.allocations.WithLabelValues(status.String()).Inc()
	if status == StatusSuccess {
		m.bytesInUse.Add(float64(size))
		m.liveAllocations.Inc()
	}
}

func (m *Metrics) released(size int) {
	if m == nil {
		return
	}

	m.releases.Inc()
	m.bytesInUse.Sub(float64(size))
	m.liveAllocations.Dec()
}
