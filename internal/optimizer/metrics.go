package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks result cache hits per result kind.
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_cache_hits_total",
		Help: "Total number of result cache hits by kind",
	}, []string{"kind"})

	// cacheMisses tracks result cache misses per result kind.
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_cache_misses_total",
		Help: "Total number of result cache misses by kind",
	}, []string{"kind"})

	// cacheShared tracks callers that reused an in-flight computation.
	cacheShared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_cache_shared_calls_total",
		Help: "Total number of callers served by an in-flight computation, by kind",
	}, []string{"kind"})

	// cacheEntries tracks live entries per named result cache.
	cacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analytics_cache_entries",
		Help: "Number of live entries in the result cache",
	}, []string{"cache"})

	// computeDuration tracks the time spent computing results, by kind.
	computeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_compute_duration_seconds",
		Help:    "Time taken to compute a result by kind",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"kind"}) // kind: summary, plan, comparison

	// computeErrors tracks failed computations.
	computeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_compute_errors_total",
		Help: "Total number of failed computations by kind",
	}, []string{"kind"})

	// planSize tracks the distribution of shopping list sizes.
	planSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "analytics_plan_items_count",
		Help:    "Number of items in shopping plan requests",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})

	// planUnpricedLines tracks lines that had no price history.
	planUnpricedLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_plan_unpriced_lines_total",
		Help: "Total number of plan lines without price history",
	})

	// warmupInFlight tracks the number of concurrent warmup computations.
	warmupInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "analytics_warmup_concurrent_operations",
		Help: "Number of concurrent warmup operations in progress",
	})
)

// MetricsRecorder provides methods to record analytics metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCacheHit records a cache hit for a result kind.
func (m *MetricsRecorder) RecordCacheHit(kind string) {
	cacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss for a result kind.
func (m *MetricsRecorder) RecordCacheMiss(kind string) {
	cacheMisses.WithLabelValues(kind).Inc()
}

// RecordCacheShared records a caller that joined an in-flight computation.
func (m *MetricsRecorder) RecordCacheShared(kind string) {
	cacheShared.WithLabelValues(kind).Inc()
}

// SetCacheEntries records the current number of entries of the named cache.
func (m *MetricsRecorder) SetCacheEntries(cache string, n int) {
	cacheEntries.WithLabelValues(cache).Set(float64(n))
}

// RecordCompute records a computation and whether it succeeded.
func (m *MetricsRecorder) RecordCompute(kind string, duration time.Duration, success bool) {
	computeDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if !success {
		computeErrors.WithLabelValues(kind).Inc()
	}
}

// RecordPlanSize records the number of items in a shopping request.
func (m *MetricsRecorder) RecordPlanSize(size int) {
	planSize.Observe(float64(size))
}

// RecordUnpricedLines records plan lines that had no price data.
func (m *MetricsRecorder) RecordUnpricedLines(n int) {
	if n > 0 {
		planUnpricedLines.Add(float64(n))
	}
}

// IncrementWarmupConcurrency increments the warmup concurrency gauge.
func (m *MetricsRecorder) IncrementWarmupConcurrency() {
	warmupInFlight.Inc()
}

// DecrementWarmupConcurrency decrements the warmup concurrency gauge.
func (m *MetricsRecorder) DecrementWarmupConcurrency() {
	warmupInFlight.Dec()
}
