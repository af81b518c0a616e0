package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/contatogonetwork/urban-space-broccoli/internal/telemetry"
)

// CircuitBreakerState represents the state of the circuit breaker.
type CircuitBreakerState int

const (
	// CircuitClosed allows loads to pass through.
	CircuitClosed CircuitBreakerState = iota

	// CircuitOpen rejects loads immediately.
	CircuitOpen

	// CircuitHalfOpen allows trial loads to check if the database has recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit breaker state.
func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int `mapstructure:"max_failures"`

	// ResetTimeout is how long to wait before attempting a reset (half-open state).
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`

	// HalfOpenMaxCalls is the number of successes required in half-open state to close.
	HalfOpenMaxCalls int `mapstructure:"half_open_max_calls"`
}

// DefaultCircuitBreakerConfig returns the default circuit breaker configuration.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker stops hammering the database with snapshot loads after
// repeated failures.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int // Used in half-open state
	lastFailureTime time.Time
	lastStateChange time.Time
	config          *CircuitBreakerConfig
	metrics         *MetricsRecorder
	logger          *zerolog.Logger
	name            string
	now             func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, config *CircuitBreakerConfig, metrics *MetricsRecorder, logger *zerolog.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	cb := &CircuitBreaker{
		state:   CircuitClosed,
		config:  config,
		metrics: metrics,
		logger:  logger,
		name:    name,
		now:     time.Now,
	}
	cb.lastStateChange = cb.now()
	return cb
}

// Allow returns true if a load should be attempted.
func (cb *CircuitBreaker) Allow(ctx context.Context) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	switch cb.state {
	case CircuitClosed:
		return true

	case CircuitOpen:
		if now.Sub(cb.lastFailureTime) >= cb.config.ResetTimeout {
			cb.transitionTo(CircuitHalfOpen, now)
			cb.logger.Info().
				Str("circuit_breaker", cb.name).
				Str("request_id", telemetry.RequestID(ctx)).
				Msg("Circuit breaker transitioning to half-open")
			return true
		}
		return false

	case CircuitHalfOpen:
		return cb.successCount < cb.config.HalfOpenMaxCalls

	default:
		return false
	}
}

// RecordSuccess records a successful load.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0

	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.transitionTo(CircuitClosed, cb.now())
			cb.logger.Info().
				Str("circuit_breaker", cb.name).
				Int("success_count", cb.successCount).
				Msg("Circuit breaker closing after successful recovery")
			cb.successCount = 0
			cb.failureCount = 0
		}
	}
}

// RecordFailure records a failed load.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cb.failureCount++
	cb.lastFailureTime = now

	cb.logger.Error().
		Err(err).
		Str("circuit_breaker", cb.name).
		Int("failure_count", cb.failureCount).
		Msg("Circuit breaker recording failure")

	switch cb.state {
	case CircuitClosed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.transitionTo(CircuitOpen, now)
			cb.logger.Warn().
				Str("circuit_breaker", cb.name).
				Int("failure_count", cb.failureCount).
				Dur("reset_timeout", cb.config.ResetTimeout).
				Msg("Circuit breaker opening after max failures")
		}

	case CircuitHalfOpen:
		// Any failure in half-open immediately reopens the circuit
		cb.transitionTo(CircuitOpen, now)
		cb.logger.Warn().
			Str("circuit_breaker", cb.name).
			Msg("Circuit breaker re-opening after failure in half-open state")
		cb.successCount = 0
	}
}

func (cb *CircuitBreaker) transitionTo(newState CircuitBreakerState, now time.Time) {
	cb.state = newState
	cb.lastStateChange = now

	if cb.metrics != nil {
		cb.metrics.RecordCircuitState(cb.name, newState)
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the current failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionTo(CircuitClosed, cb.now())
	cb.failureCount = 0
	cb.successCount = 0

	cb.logger.Info().
		Str("circuit_breaker", cb.name).
		Msg("Circuit breaker manually reset to closed state")
}

// WarmupGate blocks readers until the first snapshot is available.
type WarmupGate struct {
	mu       sync.RWMutex
	ready    bool
	warmedCh chan struct{}
	logger   *zerolog.Logger
}

// NewWarmupGate creates a new warmup gate.
func NewWarmupGate(logger *zerolog.Logger) *WarmupGate {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	return &WarmupGate{
		warmedCh: make(chan struct{}),
		logger:   logger,
	}
}

// Wait blocks until warmup is complete or ctx is done.
// Returns false if ctx ended first.
func (wg *WarmupGate) Wait(ctx context.Context) bool {
	wg.mu.RLock()
	ready := wg.ready
	ch := wg.warmedCh
	wg.mu.RUnlock()

	if ready {
		return true
	}

	requestID := telemetry.RequestID(ctx)
	wg.logger.Debug().
		Str("request_id", requestID).
		Msg("Warmup gate: waiting for first snapshot")

	select {
	case <-ch:
		return true
	case <-ctx.Done():
		wg.logger.Warn().
			Str("request_id", requestID).
			Msg("Warmup gate: context cancelled while waiting for first snapshot")
		return false
	}
}

// Ready marks the warmup as complete.
func (wg *WarmupGate) Ready() {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	if !wg.ready {
		wg.ready = true
		close(wg.warmedCh)
		wg.logger.Info().Msg("Warmup gate: first snapshot loaded, allowing requests")
	}
}

// IsReady returns whether warmup is complete without blocking.
func (wg *WarmupGate) IsReady() bool {
	wg.mu.RLock()
	defer wg.mu.RUnlock()
	return wg.ready
}
