package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/highlight"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/quotes"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/metrics"
)

type memClient struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemClient() *memClient {
	return &memClient{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memClient) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (m *memClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memClient) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memClient) CountByPattern(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.data)), nil
}

func sampleResult() *executor.SearchResult {
	return &executor.SearchResult{
		Query:      "السلام",
		Normalized: "السلام",
		Mode:       highlight.ModePhrase,
		Fuzzy:      true,
		TotalHits:  1,
		Results: []executor.Hit{{
			Quote:    quotes.Quote{ID: "q1", Text: "السلام عليكم"},
			Score:    180,
			Segments: []highlight.Segment{{Text: "السلام", Highlighted: true}, {Text: " عليكم"}},
		}},
	}
}

func TestKey(t *testing.T) {
	opts := executor.Options{Limit: 10, Fuzzy: true, Mode: highlight.ModePhrase}
	a := KeyFor(parser.Parse("السَّلام tag:ب tag:أ"), opts)
	b := KeyFor(parser.Parse("  السلام   tag:ا tag:ب"), opts)
	assert.Equal(t, a.String(), b.String(), "same normalized query and tag set")
	assert.True(t, strings.HasPrefix(a.String(), keyPrefix))

	c := KeyFor(parser.Parse("السلام tag:ب tag:أ"), executor.Options{Limit: 10, Fuzzy: false, Mode: highlight.ModePhrase})
	assert.NotEqual(t, a.String(), c.String())
	d := KeyFor(parser.Parse("السلام tag:ب tag:أ"), executor.Options{Limit: 10, Fuzzy: true, Mode: highlight.ModeTerms})
	assert.NotEqual(t, a.String(), d.String())
	e := KeyFor(parser.Parse("السلام tag:ب tag:أ"), executor.Options{Limit: 5, Fuzzy: true, Mode: highlight.ModePhrase})
	assert.NotEqual(t, a.String(), e.String())
}

func TestGetSetRoundTrip(t *testing.T) {
	client := newMemClient()
	m := metrics.New(prometheus.NewRegistry())
	c := New(client, time.Minute, m)
	key := Key{Normalized: "السلام", Limit: 10, Mode: "phrase", Fuzzy: true}

	_, ok := c.Get(context.Background(), key)
	assert.False(t, ok)

	c.Set(context.Background(), key, sampleResult())
	assert.Equal(t, time.Minute, client.ttls[key.String()])

	got, ok := c.Get(context.Background(), key)
	require.True(t, ok)
	assert.Equal(t, sampleResult().Results[0].Segments, got.Results[0].Segments)
	assert.Equal(t, 180, got.Results[0].Score)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestGetOrComputeSharesWork(t *testing.T) {
	c := New(newMemClient(), time.Minute, nil)
	key := Key{Normalized: "نور", Limit: 10}

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return sampleResult(), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _, err := c.GetOrCompute(context.Background(), key, compute)
			assert.NoError(t, err)
			assert.NotNil(t, res)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(2))

	_, hit, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGetOrComputeError(t *testing.T) {
	c := New(newMemClient(), time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), Key{Normalized: "x"}, func(context.Context) (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGetOrComputeSurvivesLeaderCancel(t *testing.T) {
	c := New(newMemClient(), time.Minute, nil)
	key := Key{Normalized: "صبر", Limit: 10}

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	compute := func(ctx context.Context) (*executor.SearchResult, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return sampleResult(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrCompute(leaderCtx, key, compute)
		leaderErr <- err
	}()
	<-started

	followerDone := make(chan *executor.SearchResult, 1)
	go func() {
		res, _, err := c.GetOrCompute(context.Background(), key, compute)
		assert.NoError(t, err)
		followerDone <- res
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	res := <-followerDone
	require.NotNil(t, res)
	assert.Equal(t, "q1", res.Results[0].Quote.ID)

	_, hit, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGetOrComputeTimeout(t *testing.T) {
	c := New(newMemClient(), time.Minute, nil, WithComputeTimeout(20*time.Millisecond))
	_, _, err := c.GetOrCompute(context.Background(), Key{Normalized: "x"}, func(ctx context.Context) (*executor.SearchResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisFailuresTripBreaker(t *testing.T) {
	client := newMemClient()
	client.err = errors.New("connection refused")
	c := New(client, time.Minute, nil)
	key := Key{Normalized: "نور"}

	for i := 0; i < 5; i++ {
		_, ok := c.Get(context.Background(), key)
		assert.False(t, ok)
	}
	stats := c.Stats(context.Background())
	assert.Equal(t, "open", stats.CircuitState)
	assert.Equal(t, int64(5), stats.Errors)
	assert.Equal(t, int64(-1), stats.Keys)

	res, hit, err := c.GetOrCompute(context.Background(), key, func(context.Context) (*executor.SearchResult, error) {
		return sampleResult(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "q1", res.Results[0].Quote.ID)
}

func TestInvalidateAndStats(t *testing.T) {
	client := newMemClient()
	c := New(client, time.Minute, nil)
	c.Set(context.Background(), Key{Normalized: "a"}, sampleResult())
	c.Set(context.Background(), Key{Normalized: "b"}, sampleResult())
	client.data["other:key"] = []byte("x")

	assert.Equal(t, int64(3), c.Stats(context.Background()).Keys)
	n, err := c.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, client.data, "other:key")

	c.Get(context.Background(), Key{Normalized: "a"})
	stats := c.Stats(context.Background())
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, "0.0%", stats.HitRate)
	assert.Equal(t, "closed", stats.CircuitState)
}
