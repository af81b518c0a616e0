package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// snapshotLoadDuration tracks the time taken to load a price snapshot.
	snapshotLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_snapshot_load_duration_seconds",
		Help:    "Time taken to load the price history snapshot",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	// snapshotLoadErrors tracks snapshot load failures.
	snapshotLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "price_snapshot_load_errors_total",
		Help: "Total number of failed snapshot loads",
	})

	snapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "price_snapshot_version",
		Help: "Version of the snapshot currently served",
	})

	snapshotObservations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "price_snapshot_observations",
		Help: "Number of price observations in the current snapshot",
	})

	// snapshotAge tracks seconds since the served snapshot was built.
	snapshotAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "price_snapshot_age_seconds",
		Help: "Age of the current price snapshot in seconds",
	})

	// circuitState: 0 closed, 1 open, 2 half-open.
	circuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "price_snapshot_circuit_state",
		Help: "Circuit breaker state for snapshot loads (0 closed, 1 open, 2 half-open)",
	}, []string{"name"})
)

// MetricsRecorder provides methods to record snapshot loader metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordLoad records a snapshot load attempt.
func (m *MetricsRecorder) RecordLoad(duration time.Duration, success bool) {
	snapshotLoadDuration.Observe(duration.Seconds())
	if !success {
		snapshotLoadErrors.Inc()
	}
}

// RecordSnapshot records the shape of a freshly swapped-in snapshot.
func (m *MetricsRecorder) RecordSnapshot(version int64, observations int) {
	snapshotVersion.Set(float64(version))
	snapshotObservations.Set(float64(observations))
	snapshotAge.Set(0)
}

// RecordSnapshotAge records how old the served snapshot is.
func (m *MetricsRecorder) RecordSnapshotAge(age time.Duration) {
	snapshotAge.Set(age.Seconds())
}

// RecordCircuitState records a circuit breaker transition.
func (m *MetricsRecorder) RecordCircuitState(name string, state CircuitBreakerState) {
	circuitState.WithLabelValues(name).Set(float64(state))
}
