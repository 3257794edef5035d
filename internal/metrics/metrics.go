// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spit"

// Provider fetch outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

var (
	registerOnce sync.Once

	retrievalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retrievals_total",
		Help:      "Total number of retrievals by category",
	}, []string{"category"})
	retrievalsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retrievals_failed_total",
		Help:      "Total number of retrievals where every provider failed by category",
	}, []string{"category"})
	retrievalDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retrieval_duration_seconds",
		Help:      "Histogram of retrieval durations in seconds by category",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10), // ~50ms up to several seconds
	}, []string{"category"})
	resultsReturned = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "results_returned",
		Help:      "Number of records returned per retrieval by category",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"category"})

	providerFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetches_total",
		Help:      "Total number of provider fetches by provider and outcome",
	}, []string{"provider", "outcome"})
	providerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_fetch_duration_seconds",
		Help:      "Histogram of provider fetch durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
	}, []string{"provider"})
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	providersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "providers_registered",
		Help:      "Number of registered providers",
	})
	memoryAllocGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_memory_alloc_bytes",
		Help:      "Current process memory allocation (runtime.Alloc)",
	})
	goroutinesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_goroutines",
		Help:      "Number of currently running goroutines",
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		retrievalsTotal, retrievalsFailed, retrievalDuration, resultsReturned,
		providerFetches, providerDuration, cacheLookups,
		providersGauge, memoryAllocGauge, goroutinesGauge,
	}
}

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectors()...)
	})
}

// NewRegistry returns a fresh registry holding every collector. Used by the
// CLI to write a one-shot textfile without touching the global registry.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors()...)
	return reg
}

// Retrieval helpers
func IncRetrieval(category string)       { retrievalsTotal.WithLabelValues(category).Inc() }
func IncRetrievalFailed(category string) { retrievalsFailed.WithLabelValues(category).Inc() }
func ObserveRetrieval(category string, d time.Duration, results int) {
	retrievalDuration.WithLabelValues(category).Observe(d.Seconds())
	resultsReturned.WithLabelValues(category).Observe(float64(results))
}

// Provider helpers
func ObserveProviderFetch(provider, outcome string, d time.Duration) {
	providerFetches.WithLabelValues(provider, outcome).Inc()
	providerDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// Cache helpers
func IncCacheHit()   { cacheLookups.WithLabelValues("hit").Inc() }
func IncCacheMiss()  { cacheLookups.WithLabelValues("miss").Inc() }
func IncCacheError() { cacheLookups.WithLabelValues("error").Inc() }

// Gauges
func SetProviders(n int)      { providersGauge.Set(float64(n)) }
func SetMemoryAlloc(b uint64) { memoryAllocGauge.Set(float64(b)) }
func SetGoroutines(n int)     { goroutinesGauge.Set(float64(n)) }

// SampleRuntime refreshes the process gauges.
func SampleRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	SetMemoryAlloc(ms.Alloc)
	SetGoroutines(runtime.NumGoroutine())
}
