// Package store loads the price history from Postgres into immutable
// in-memory snapshots and keeps the served snapshot fresh.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

const tracerName = "github.com/contatogonetwork/urban-space-broccoli/internal/store"

var (
	// ErrCircuitOpen is returned when recent loads failed and the breaker is open.
	ErrCircuitOpen = errors.New("snapshot loads suspended: circuit breaker open")

	// ErrNotReady is returned when no snapshot was loaded before ctx ended.
	ErrNotReady = errors.New("price snapshot not loaded yet")
)

// Config holds snapshot loader settings.
type Config struct {
	LoadTimeout    time.Duration        `mapstructure:"load_timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() *Config {
	return &Config{
		LoadTimeout:    30 * time.Second,
		CircuitBreaker: *DefaultCircuitBreakerConfig(),
	}
}

// Loader reads items and price observations from Postgres and serves them as
// a pricing.Snapshot. Snapshots are built off-lock and swapped atomically;
// readers never block on a reload.
type Loader struct {
	db     *pgxpool.Pool
	config *Config

	current atomic.Pointer[pricing.Snapshot]
	version atomic.Int64

	// lastFingerprint is only touched inside the single-flight load.
	fpMu            sync.Mutex
	lastFingerprint fingerprint

	sf singleflight.Group

	circuitBreaker *CircuitBreaker
	warmupGate     *WarmupGate
	metrics        *MetricsRecorder
	logger         *zerolog.Logger

	// Shutdown handling
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// fingerprint changes whenever the observation set or item metadata does.
type fingerprint struct {
	observations int64
	maxID        int64
	items        int64
	itemsUpdated time.Time
}

// NewLoader creates a snapshot loader. No query is issued until Load.
func NewLoader(db *pgxpool.Pool, config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())

	metrics := NewMetricsRecorder()
	logger := log.With().Str("component", "snapshot_loader").Logger()

	return &Loader{
		db:             db,
		config:         config,
		circuitBreaker: NewCircuitBreaker("snapshot_loader", &config.CircuitBreaker, metrics, &logger),
		warmupGate:     NewWarmupGate(&logger),
		metrics:        metrics,
		logger:         &logger,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Load refreshes the snapshot from the database and returns the one now
// being served. Concurrent calls share a single load. The load runs on its
// own timeout so one caller giving up does not fail the others.
func (l *Loader) Load(ctx context.Context) (*pricing.Snapshot, error) {
	if !l.circuitBreaker.Allow(ctx) {
		l.logger.Warn().
			Str("circuit_state", l.circuitBreaker.State().String()).
			Msg("Circuit breaker rejected snapshot load")
		return nil, ErrCircuitOpen
	}

	ch := l.sf.DoChan("snapshot", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.config.LoadTimeout)
		defer cancel()

		snap, err := l.loadSnapshot(loadCtx)
		if err != nil {
			l.circuitBreaker.RecordFailure(err)
			return nil, err
		}
		l.circuitBreaker.RecordSuccess()
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pricing.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Refresh is an alias for Load for clarity at call sites.
func (l *Loader) Refresh(ctx context.Context) (*pricing.Snapshot, error) {
	return l.Load(ctx)
}

// Snapshot returns the snapshot currently served, or nil before the first load.
func (l *Loader) Snapshot() *pricing.Snapshot {
	return l.current.Load()
}

// Current returns the served snapshot, waiting for the first load if needed.
func (l *Loader) Current(ctx context.Context) (*pricing.Snapshot, error) {
	if snap := l.current.Load(); snap != nil {
		return snap, nil
	}
	if !l.warmupGate.Wait(ctx) {
		return nil, ErrNotReady
	}
	return l.current.Load(), nil
}

// Start reloads the snapshot every interval until Close is called.
func (l *Loader) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := l.Load(l.ctx); err != nil && !errors.Is(err, context.Canceled) {
					l.logger.Error().Err(err).Msg("Periodic snapshot refresh failed")
				}
				if snap := l.current.Load(); snap != nil {
					l.metrics.RecordSnapshotAge(time.Since(snap.LoadedAt()))
				}
			case <-l.ctx.Done():
				return
			}
		}
	}()
}

// Close stops the refresh loop.
func (l *Loader) Close() error {
	l.cancel()
	l.wg.Wait()
	return nil
}

// IsHealthy reports whether a snapshot is being served and loads are not suspended.
func (l *Loader) IsHealthy(ctx context.Context) bool {
	if l.circuitBreaker.State() == CircuitOpen {
		l.logger.Debug().Msg("Loader unhealthy: circuit breaker is open")
		return false
	}
	if !l.warmupGate.IsReady() {
		l.logger.Debug().Msg("Loader unhealthy: no snapshot loaded")
		return false
	}
	return l.current.Load() != nil
}

// CircuitState returns the current state of the circuit breaker.
func (l *Loader) CircuitState() CircuitBreakerState {
	return l.circuitBreaker.State()
}

// ResetCircuitBreaker manually closes the circuit breaker.
func (l *Loader) ResetCircuitBreaker() {
	l.circuitBreaker.Reset()
}

// loadSnapshot reads items and observations in a single read-only
// transaction so metadata and history are consistent with each other.
// When nothing changed since the last load the served snapshot is kept.
func (l *Loader) loadSnapshot(ctx context.Context) (*pricing.Snapshot, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "store.LoadSnapshot")
	defer span.End()

	startTime := time.Now()

	snap, changed, err := l.readSnapshot(ctx)
	l.metrics.RecordLoad(time.Since(startTime), err == nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("snapshot.changed", changed),
		attribute.Int64("snapshot.version", snap.Version()),
	)

	if !changed {
		l.logger.Debug().Int64("version", snap.Version()).Msg("Price history unchanged, keeping snapshot")
		return snap, nil
	}

	l.current.Store(snap)
	l.metrics.RecordSnapshot(snap.Version(), snap.ObservationCount())
	l.warmupGate.Ready()

	l.logger.Info().
		Int64("version", snap.Version()).
		Int("items", len(snap.Items())).
		Int("observations", snap.ObservationCount()).
		Int("locations", len(snap.Locations())).
		Dur("duration", time.Since(startTime)).
		Msg("Loaded price snapshot")

	return snap, nil
}

func (l *Loader) readSnapshot(ctx context.Context) (*pricing.Snapshot, bool, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	fp, err := queryFingerprint(ctx, tx)
	if err != nil {
		return nil, false, err
	}

	l.fpMu.Lock()
	unchanged := fp == l.lastFingerprint
	l.fpMu.Unlock()
	if current := l.current.Load(); unchanged && current != nil {
		return current, false, nil
	}

	items, err := queryItems(ctx, tx)
	if err != nil {
		return nil, false, err
	}

	observations, err := queryObservations(ctx, tx)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	snap := pricing.NewSnapshot(l.version.Add(1), items, observations)

	l.fpMu.Lock()
	l.lastFingerprint = fp
	l.fpMu.Unlock()

	return snap, true, nil
}

func queryFingerprint(ctx context.Context, tx pgx.Tx) (fingerprint, error) {
	var fp fingerprint
	err := tx.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM price_history),
			(SELECT COALESCE(MAX(id), 0) FROM price_history),
			(SELECT COUNT(*) FROM items),
			(SELECT COALESCE(MAX(updated_at), 'epoch'::timestamptz) FROM items)
	`).Scan(&fp.observations, &fp.maxID, &fp.items, &fp.itemsUpdated)
	if err != nil {
		return fingerprint{}, fmt.Errorf("failed to query fingerprint: %w", err)
	}
	return fp, nil
}

func queryItems(ctx context.Context, tx pgx.Tx) ([]pricing.Item, error) {
	rows, err := tx.Query(ctx, `SELECT id, name, unit FROM items`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []pricing.Item
	for rows.Next() {
		var it pricing.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

// queryObservations returns every non-negative price in ascending date
// order, insertion order breaking ties.
func queryObservations(ctx context.Context, tx pgx.Tx) ([]pricing.Observation, error) {
	rows, err := tx.Query(ctx, `
		SELECT item_id, location, unit_price, observed_at
		FROM price_history
		WHERE unit_price >= 0
		ORDER BY observed_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var observations []pricing.Observation
	for rows.Next() {
		var o pricing.Observation
		var location *string // nullable
		if err := rows.Scan(&o.ItemID, &location, &o.UnitPrice, &o.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price observation: %w", err)
		}
		if location != nil {
			o.Location = *location
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return observations, nil
}
