package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{
		MaxFailures:      3,
		ResetTimeout:     time.Minute,
		HalfOpenMaxCalls: 1,
	}, NewMetricsRecorder(), nil)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	boom := errors.New("db down")
	for i := 0; i < 2; i++ {
		assert.True(t, cb.Allow(ctx))
		cb.RecordFailure(boom)
	}
	assert.Equal(t, CircuitClosed, cb.State())

	cb.RecordFailure(boom)
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow(ctx))

	// After the reset timeout a trial load is let through.
	now = now.Add(time.Minute)
	assert.True(t, cb.Allow(ctx))
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{
		MaxFailures:      1,
		ResetTimeout:     time.Second,
		HalfOpenMaxCalls: 1,
	}, nil, nil)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	cb.RecordFailure(errors.New("x"))
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Second)
	assert.True(t, cb.Allow(context.Background()))

	cb.RecordFailure(errors.New("still down"))
	assert.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(9).String())
}

func TestWarmupGate(t *testing.T) {
	gate := NewWarmupGate(nil)
	assert.False(t, gate.IsReady())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.False(t, gate.Wait(ctx))

	done := make(chan bool, 1)
	go func() { done <- gate.Wait(context.Background()) }()

	gate.Ready()
	gate.Ready() // idempotent
	assert.True(t, <-done)
	assert.True(t, gate.IsReady())
}

func TestLoaderBeforeFirstLoad(t *testing.T) {
	l := NewLoader(nil, nil)
	defer l.Close()

	assert.Nil(t, l.Snapshot())
	assert.False(t, l.IsHealthy(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := l.Current(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
}
