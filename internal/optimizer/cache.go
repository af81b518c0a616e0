package optimizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/contatogonetwork/urban-space-broccoli/internal/trends"
)

// Result kinds, used in cache keys and metric labels.
const (
	kindSummary    = "summary"
	kindPlan       = "plan"
	kindComparison = "comparison"
)

// ResultCache memoizes trend summaries, shopping plans and market comparisons.
//
// Entries are keyed by (kind, item or request hash, snapshot version) and
// expire after a fixed TTL. There is no explicit invalidation: a new snapshot
// version produces new keys, and old entries age out. Concurrent requests for
// the same key share one computation. Each cache reports its metrics under its
// own name, so several caches in one process need distinct CacheName values.
//
// Returned values are shared between callers and must not be modified.
type ResultCache struct {
	name string
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	sf      singleflight.Group

	calc    *trends.Calculator
	planner *Planner

	metrics *MetricsRecorder
	logger  zerolog.Logger

	warmupConcurrency int
	now               func() time.Time

	// Janitor shutdown
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// NewResultCache creates a result cache. When cfg.CacheSweepInterval is
// positive a janitor goroutine removes expired entries until Close is called.
func NewResultCache(cfg *Config, planner *Planner) *ResultCache {
	if cfg == nil {
		cfg = Defaults()
	}
	if planner == nil {
		planner = NewPlanner()
	}

	name := cfg.CacheName
	if name == "" {
		name = DefaultCacheName
	}

	c := &ResultCache{
		name:              name,
		ttl:               cfg.CacheTTL,
		entries:           make(map[string]cacheEntry),
		calc:              trends.NewCalculator(cfg.TrendThresholdPct),
		planner:           planner,
		metrics:           NewMetricsRecorder(),
		logger:            log.With().Str("component", "result_cache").Str("cache", name).Logger(),
		warmupConcurrency: cfg.WarmupConcurrency,
		now:               time.Now,
		stop:              make(chan struct{}),
	}
	if c.warmupConcurrency < 1 {
		c.warmupConcurrency = 1
	}

	if cfg.CacheSweepInterval > 0 {
		c.wg.Add(1)
		go c.janitor(cfg.CacheSweepInterval)
	}

	return c
}

// Summary returns the trend summary for one item, computing it on a miss.
func (c *ResultCache) Summary(ctx context.Context, provider SnapshotProvider, itemID string) (trends.TrendSummary, error) {
	key := cacheKey(kindSummary, itemID, provider.Version())

	v, err := c.do(ctx, kindSummary, key, func(ctx context.Context) (any, error) {
		if _, _, ok := provider.ItemMeta(itemID); !ok {
			return nil, &ItemError{ItemID: itemID, Err: ErrItemNotFound}
		}
		return c.calc.SummarizeContext(ctx, provider.Observations(itemID))
	})
	if err != nil {
		return trends.TrendSummary{}, err
	}
	return v.(trends.TrendSummary), nil
}

// Plan returns the shopping plan for req, computing it on a miss.
func (c *ResultCache) Plan(ctx context.Context, provider SnapshotProvider, req *ShoppingRequest) (*ShoppingPlan, error) {
	key := cacheKey(kindPlan, requestHash(req), provider.Version())

	v, err := c.do(ctx, kindPlan, key, func(ctx context.Context) (any, error) {
		return c.planner.Plan(ctx, req, provider)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ShoppingPlan), nil
}

// Comparison returns the market comparison for the whole snapshot.
func (c *ResultCache) Comparison(ctx context.Context, provider SnapshotProvider) (*trends.MarketComparison, error) {
	key := cacheKey(kindComparison, "all", provider.Version())

	v, err := c.do(ctx, kindComparison, key, func(ctx context.Context) (any, error) {
		return trends.Compare(ctx, provider)
	})
	if err != nil {
		return nil, err
	}
	return v.(*trends.MarketComparison), nil
}

// Warmup precomputes summaries for itemIDs with bounded concurrency.
// The first error stops the remaining work and is returned.
func (c *ResultCache) Warmup(ctx context.Context, provider SnapshotProvider, itemIDs []string) error {
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.warmupConcurrency)

	for _, id := range itemIDs {
		g.Go(func() error {
			c.metrics.IncrementWarmupConcurrency()
			defer c.metrics.DecrementWarmupConcurrency()

			_, err := c.Summary(gctx, provider, id)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}

	c.logger.Info().
		Int("items", len(itemIDs)).
		Int64("snapshot_version", provider.Version()).
		Dur("duration", time.Since(startTime)).
		Msg("Result cache warmed")
	return nil
}

// Len returns the number of entries currently held, expired or not.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the janitor. The cache remains usable afterwards.
func (c *ResultCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	return nil
}

// do returns the cached value for key or computes it once for all concurrent
// callers. The computation runs detached from any single caller's
// cancellation; a caller whose ctx ends while waiting gets ErrCanceled and
// the computation still completes for the others.
func (c *ResultCache) do(ctx context.Context, kind, key string, compute func(context.Context) (any, error)) (any, error) {
	if ctx.Err() != nil {
		return nil, ErrCanceled
	}

	if v, ok := c.get(key); ok {
		c.metrics.RecordCacheHit(kind)
		return v, nil
	}
	c.metrics.RecordCacheMiss(kind)

	computeCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		// Another flight may have filled the entry between get and DoChan.
		if v, ok := c.get(key); ok {
			return v, nil
		}

		startTime := time.Now()
		v, err := compute(computeCtx)
		c.metrics.RecordCompute(kind, time.Since(startTime), err == nil)
		if err != nil {
			return nil, err
		}

		c.set(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.RecordCacheShared(kind)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ErrCanceled
	}
}

func (c *ResultCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.metrics.SetCacheEntries(c.name, len(c.entries))
		return nil, false
	}
	return e.value, true
}

func (c *ResultCache) set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: v, expiresAt: c.now().Add(c.ttl)}
	c.metrics.SetCacheEntries(c.name, len(c.entries))
}

// sweep removes every expired entry and returns how many were removed.
func (c *ResultCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.metrics.SetCacheEntries(c.name, len(c.entries))
	return removed
}

func (c *ResultCache) janitor(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.sweep(); n > 0 {
				c.logger.Debug().Int("removed", n).Msg("Swept expired cache entries")
			}
		case <-c.stop:
			return
		}
	}
}

func cacheKey(kind, id string, version int64) string {
	return kind + "|" + id + "|v" + strconv.FormatInt(version, 10)
}

// requestHash identifies a shopping request independent of map iteration
// order. Preferred locations keep their order because it breaks price ties.
func requestHash(req *ShoppingRequest) string {
	h := sha256.New()
	for _, id := range req.ItemIDs() {
		h.Write([]byte(id))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatFloat(req.Quantities[id], 'g', -1, 64)))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, loc := range req.PreferredLocations {
		h.Write([]byte(loc))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
