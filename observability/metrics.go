package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MintMetrics records minting engine activity for Prometheus scrapes.
type MintMetrics struct {
	attempts *prometheus.CounterVec
	failures *prometheus.CounterVec
	minted   prometheus.Counter
	supply   prometheus.Gauge
	latency  *prometheus.HistogramVec
}

var (
	mintMetricsOnce sync.Once
	mintRegistry    *MintMetrics
)

// Mint returns the lazily-initialised mint metrics registry.
func Mint() *MintMetrics {
	mintMetricsOnce.Do(func() {
		mintRegistry = &MintMetrics{
			attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mintgate",
				Subsystem: "engine",
				Name:      "mint_attempts_total",
				Help:      "Total mint attempts segmented by entry point.",
			}, []string{"entry"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mintgate",
				Subsystem: "engine",
				Name:      "mint_failures_total",
				Help:      "Total mint failures segmented by entry point and error kind.",
			}, []string{"entry", "kind"}),
			minted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "mintgate",
				Subsystem: "engine",
				Name:      "tokens_minted_total",
				Help:      "Total tokens issued through the engine.",
			}),
			supply: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "mintgate",
				Subsystem: "engine",
				Name:      "total_supply",
				Help:      "Current total supply tracked by the engine.",
			}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "mintgate",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			mintRegistry.attempts,
			mintRegistry.failures,
			mintRegistry.minted,
			mintRegistry.supply,
			mintRegistry.latency,
		)
	})
	return mintRegistry
}

// ObserveAttempt counts one mint attempt for the given entry point.
func (m *MintMetrics) ObserveAttempt(entry string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(entry).Inc()
}

// ObserveFailure counts one failed mint with its error kind.
func (m *MintMetrics) ObserveFailure(entry, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(entry, kind).Inc()
}

// ObserveMinted counts issued tokens and refreshes the supply gauge.
func (m *MintMetrics) ObserveMinted(quantity uint32, totalSupply uint32) {
	if m == nil {
		return
	}
	m.minted.Add(float64(quantity))
	m.supply.Set(float64(totalSupply))
}

// ObserveLatency records handler latency in seconds.
func (m *MintMetrics) ObserveLatency(method string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(method).Observe(seconds)
}
