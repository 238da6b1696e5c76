// Package cache stores search results in Redis, keyed by the normalized
// query and the options that shape the result.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/resilience"
)

const keyPrefix = "aqs:search:"

// Client is the subset of the Redis client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	CountByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one cacheable search.
type Key struct {
	Normalized string
	Tags       []string
	Limit      int
	Mode       string
	Fuzzy      bool
}

// KeyFor builds the cache key of a plan searched with opts.
func KeyFor(plan *parser.QueryPlan, opts executor.Options) Key {
	return Key{
		Normalized: plan.Normalized,
		Tags:       plan.Tags,
		Limit:      opts.Limit,
		Mode:       string(opts.Mode),
		Fuzzy:      opts.Fuzzy,
	}
}

// String hashes the key. Tag order does not matter.
func (k Key) String() string {
	tags := append([]string(nil), k.Tags...)
	sort.Strings(tags)
	raw := fmt.Sprintf("%s|tags=%s|limit=%d|mode=%s|fuzzy=%t",
		k.Normalized, strings.Join(tags, ","), k.Limit, k.Mode, k.Fuzzy)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	Errors       int64  `json:"errors"`
	Total        int64  `json:"total"`
	HitRate      string `json:"hit_rate"`
	Keys         int64  `json:"keys"`
	CircuitState string `json:"circuit_state"`
}

type QueryCache struct {
	client   Client
	ttl      time.Duration
	group    singleflight.Group
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64

	computeTimeout time.Duration
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithComputeTimeout bounds a shared computation in GetOrCompute. It runs
// detached from any single caller, so this is its only deadline.
func WithComputeTimeout(d time.Duration) Option {
	return func(c *QueryCache) {
		if d > 0 {
			c.computeTimeout = d
		}
	}
}

// New creates a cache over client. m may be nil.
func New(client Client, ttl time.Duration, m *metrics.Metrics, opts ...Option) *QueryCache {
	c := &QueryCache{
		client:         client,
		ttl:            ttl,
		metrics:        m,
		logger:         slog.Default().With("component", "query-cache"),
		computeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !pkgredis.IsNilError(err) && !errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

func (c *QueryCache) Get(ctx context.Context, key Key) (*executor.SearchResult, bool) {
	k := key.String()
	data, err := resilience.Do(c.breaker, func() ([]byte, error) {
		return c.client.Get(ctx, k)
	})
	if pkgredis.IsNilError(err) {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache get failed", "key", k, "error", err)
		c.recordError()
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", k, "error", err)
		c.recordError()
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", key.Normalized, "key", k)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, key Key, result *executor.SearchResult) {
	k := key.String()
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", k, "error", err)
		return
	}
	if err := c.breaker.Execute(func() error {
		return c.client.Set(ctx, k, data, c.ttl)
	}); err != nil {
		c.logger.Warn("cache set failed", "key", k, "error", err)
		c.recordError()
	}
}

// GetOrCompute returns the cached result for key, or computes, stores and
// returns it. Concurrent misses for the same key share one computation,
// which keeps the first caller's values but not its cancellation: a caller
// that goes away stops waiting without failing the others.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key Key,
	computeFn func(ctx context.Context) (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, key); ok {
		return result, true, nil
	}
	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		result, err := computeFn(sharedCtx)
		if err != nil {
			return nil, err
		}
		c.Set(sharedCtx, key, result)
		return result, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*executor.SearchResult), false, nil
	}
}

// Invalidate drops every cached search result.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.client.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns the counters and, when Redis answers, the number of cached
// results.
func (c *QueryCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Errors:       c.failures.Load(),
		CircuitState: c.breaker.GetState().String(),
		Keys:         -1,
	}
	s.Total = s.Hits + s.Misses
	var rate float64
	if s.Total > 0 {
		rate = float64(s.Hits) / float64(s.Total) * 100
	}
	s.HitRate = fmt.Sprintf("%.1f%%", rate)
	if n, err := c.client.CountByPattern(ctx, keyPrefix+"*"); err == nil {
		s.Keys = n
	}
	return s
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) recordError() {
	c.failures.Add(1)
	if c.metrics != nil {
		c.metrics.CacheErrorsTotal.Inc()
	}
}
