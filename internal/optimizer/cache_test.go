package optimizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *ResultCache {
	cfg := Defaults()
	cfg.CacheSweepInterval = 0
	c := NewResultCache(cfg, nil)
	t.Cleanup(func() { c.Close() })
	return c
}

// TestThunderingHerd verifies that concurrent requests for the same key
// result in a single computation.
func TestThunderingHerd(t *testing.T) {
	c := newTestCache(t)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const numRequests = 50
	var wg sync.WaitGroup
	results := make(chan any, numRequests)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.do(context.Background(), kindSummary, "k", compute)
			assert.NoError(t, err)
			results <- v
		}()
	}

	// Let the callers pile up on the in-flight computation.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, int32(1), calls.Load())

	// Subsequent calls are hits.
	before := calls.Load()
	_, err := c.do(context.Background(), kindSummary, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, before, calls.Load())
}

// TestContextCancellation verifies that a waiter giving up does not abort the
// shared computation for the others.
func TestContextCancellation(t *testing.T) {
	c := newTestCache(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var computeCtxErr atomic.Value
	compute := func(ctx context.Context) (any, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			computeCtxErr.Store(err)
		}
		return "done", nil
	}

	cancelledCtx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.do(cancelledCtx, kindPlan, "k", compute)
		errCh <- err
	}()

	<-started

	valCh := make(chan any, 1)
	go func() {
		v, err := c.do(context.Background(), kindPlan, "k", compute)
		assert.NoError(t, err)
		valCh <- v
	}()

	cancel()
	assert.ErrorIs(t, <-errCh, ErrCanceled)

	close(release)
	assert.Equal(t, "done", <-valCh)
	assert.Nil(t, computeCtxErr.Load(), "shared computation must not see the waiter's cancellation")
}

func TestCacheTTL(t *testing.T) {
	c := newTestCache(t)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.do(context.Background(), kindSummary, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(299 * time.Second)
	v, _ = c.do(context.Background(), kindSummary, "k", compute)
	assert.Equal(t, 1, v, "still fresh")

	now = now.Add(time.Second)
	v, _ = c.do(context.Background(), kindSummary, "k", compute)
	assert.Equal(t, 2, v, "expired at exactly the TTL")
}

func TestCacheSweep(t *testing.T) {
	c := newTestCache(t)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	compute := func(ctx context.Context) (any, error) { return 1, nil }
	_, _ = c.do(context.Background(), kindSummary, "a", compute)
	now = now.Add(200 * time.Second)
	_, _ = c.do(context.Background(), kindSummary, "b", compute)
	require.Equal(t, 2, c.Len())

	now = now.Add(150 * time.Second)
	assert.Equal(t, 1, c.sweep())
	assert.Equal(t, 1, c.Len())
}

func TestCacheErrorsAreNotCached(t *testing.T) {
	c := newTestCache(t)

	boom := errors.New("boom")
	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	_, err := c.do(context.Background(), kindPlan, "k", compute)
	assert.ErrorIs(t, err, boom)

	v, err := c.do(context.Background(), kindPlan, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCacheSummaryKeyedByVersion(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	s1, err := c.Summary(ctx, testSnapshot(1), "rice")
	require.NoError(t, err)
	assert.Equal(t, 3, s1.SampleCount)
	assert.Equal(t, 1, c.Len())

	_, err = c.Summary(ctx, testSnapshot(1), "rice")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len(), "same version is a hit")

	_, err = c.Summary(ctx, testSnapshot(2), "rice")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len(), "new version is a new key")

	_, err = c.Summary(ctx, testSnapshot(1), "bread")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCachePlanAndComparison(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	snap := testSnapshot(7)

	req := &ShoppingRequest{Quantities: map[string]float64{"rice": 2}}
	p1, err := c.Plan(ctx, snap, req)
	require.NoError(t, err)
	p2, err := c.Plan(ctx, snap, &ShoppingRequest{Quantities: map[string]float64{"rice": 2}})
	require.NoError(t, err)
	assert.Same(t, p1, p2, "equal requests share an entry")

	p3, err := c.Plan(ctx, snap, &ShoppingRequest{Quantities: map[string]float64{"rice": 3}})
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)

	_, err = c.Plan(ctx, snap, &ShoppingRequest{Quantities: map[string]float64{"rice": 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	cmp, err := c.Comparison(ctx, snap)
	require.NoError(t, err)
	assert.Len(t, cmp.Items, 2)
}

func TestCacheWarmup(t *testing.T) {
	c := newTestCache(t)
	snap := testSnapshot(1)

	require.NoError(t, c.Warmup(context.Background(), snap, []string{"beans", "milk", "rice"}))
	assert.Equal(t, 3, c.Len())

	err := c.Warmup(context.Background(), snap, []string{"rice", "bread"})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRequestHash(t *testing.T) {
	a := &ShoppingRequest{Quantities: map[string]float64{"a": 1, "b": 2}}
	b := &ShoppingRequest{Quantities: map[string]float64{"b": 2, "a": 1}}
	assert.Equal(t, requestHash(a), requestHash(b))

	c := &ShoppingRequest{Quantities: map[string]float64{"a": 1, "b": 2}, PreferredLocations: []string{"X", "Y"}}
	d := &ShoppingRequest{Quantities: map[string]float64{"a": 1, "b": 2}, PreferredLocations: []string{"Y", "X"}}
	assert.NotEqual(t, requestHash(a), requestHash(c))
	assert.NotEqual(t, requestHash(c), requestHash(d))
}

func TestCacheCanceledBeforeStart(t *testing.T) {
	c := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Summary(ctx, testSnapshot(1), "rice")
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, 0, c.Len())
}

func TestCachePlanComputeRecordedOnce(t *testing.T) {
	c := newTestCache(t)
	failures := computeErrors.WithLabelValues(kindPlan)
	before := testutil.ToFloat64(failures)

	_, err := c.Plan(context.Background(), testSnapshot(1),
		&ShoppingRequest{Quantities: map[string]float64{"bread": 1}})
	require.ErrorIs(t, err, ErrItemNotFound)

	assert.Equal(t, before+1, testutil.ToFloat64(failures))
}

func TestCacheEntriesPerName(t *testing.T) {
	newNamed := func(name string) *ResultCache {
		cfg := Defaults()
		cfg.CacheSweepInterval = 0
		cfg.CacheName = name
		c := NewResultCache(cfg, nil)
		t.Cleanup(func() { c.Close() })
		return c
	}
	first := newNamed("entries-first")
	second := newNamed("entries-second")

	first.set("a", 1)
	first.set("b", 2)
	second.set("a", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(cacheEntries.WithLabelValues("entries-first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheEntries.WithLabelValues("entries-second")))
}

func TestCacheDefaultName(t *testing.T) {
	cfg := Defaults()
	cfg.CacheSweepInterval = 0
	cfg.CacheName = ""
	c := NewResultCache(cfg, nil)
	t.Cleanup(func() { c.Close() })

	assert.Equal(t, DefaultCacheName, c.name)
}
