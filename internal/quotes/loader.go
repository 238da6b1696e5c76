package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/resilience"
)

// LoadReport summarizes one corpus load.
type LoadReport struct {
	Loaded   int           `json:"loaded"`
	Invalid  int           `json:"invalid"`
	Skipped  int           `json:"skipped"`
	Failed   []string      `json:"failed_sources,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Loader fills a Store from one or more sources.
type Loader struct {
	store         *Store
	sources       []Source
	retry         resilience.RetryConfig
	maxTextLength int
	metrics       *metrics.Metrics
	logger        *slog.Logger

	mu       sync.Mutex
	onReload []func(ctx context.Context, report LoadReport)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRetry sets the retry policy applied to each source.
func WithRetry(cfg resilience.RetryConfig) LoaderOption {
	return func(l *Loader) { l.retry = cfg }
}

// WithMaxTextLength sets the longest accepted quote text in runes.
func WithMaxTextLength(n int) LoaderOption {
	return func(l *Loader) { l.maxTextLength = n }
}

// WithMetrics reports corpus size and load outcomes to m.
func WithMetrics(m *metrics.Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a Loader that reads sources in order.
func NewLoader(store *Store, sources []Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:   store,
		sources: sources,
		retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond},
		logger:  slog.Default().With("component", "quote-loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnReload registers fn to run after every successful load.
func (l *Loader) OnReload(fn func(ctx context.Context, report LoadReport)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onReload = append(l.onReload, fn)
}

// Load reads every source, drops invalid quotes and replaces the store's
// corpus. A source that keeps failing is logged and skipped; the load fails
// only when no valid quote remains, and the previous corpus is kept.
func (l *Loader) Load(ctx context.Context) (LoadReport, error) {
	start := time.Now()
	var report LoadReport
	var all []Quote
	var sourceErrs []error

	for _, src := range l.sources {
		var batch []Quote
		err := resilience.Retry(ctx, "load "+src.Name(), l.retry, func() error {
			var err error
			batch, err = src.Load(ctx)
			return err
		})
		if err != nil {
			l.logger.Error("corpus source failed", "source", src.Name(), "error", err)
			l.observe(src.Name(), "error")
			report.Failed = append(report.Failed, src.Name())
			sourceErrs = append(sourceErrs, err)
			continue
		}
		l.observe(src.Name(), "ok")
		for _, q := range batch {
			if err := Validate(q, l.maxTextLength); err != nil {
				l.logger.Warn("invalid quote dropped", "source", src.Name(), "error", err)
				report.Invalid++
				continue
			}
			all = append(all, q)
		}
	}

	if len(all) == 0 {
		report.Duration = time.Since(start)
		if len(sourceErrs) > 0 {
			return report, fmt.Errorf("%w: %w", apperrors.ErrCorpusEmpty, errors.Join(sourceErrs...))
		}
		return report, apperrors.ErrCorpusEmpty
	}

	report.Skipped = l.store.Replace(all)
	report.Loaded = l.store.Len()
	report.Duration = time.Since(start)
	l.publishSizes()

	l.logger.Info("corpus loaded",
		"loaded", report.Loaded,
		"invalid", report.Invalid,
		"skipped", report.Skipped,
		"failed_sources", len(report.Failed),
		"duration", report.Duration,
	)

	l.mu.Lock()
	hooks := append([]func(context.Context, LoadReport){}, l.onReload...)
	l.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx, report)
	}
	return report, nil
}

func (l *Loader) observe(source, status string) {
	if l.metrics == nil {
		return
	}
	l.metrics.CorpusLoadsTotal.WithLabelValues(source, status).Inc()
}

func (l *Loader) publishSizes() {
	if l.metrics == nil {
		return
	}
	l.metrics.CorpusQuotes.Set(float64(l.store.Len()))
	for i, n := range l.store.ShardSizes() {
		l.metrics.ShardQuoteCount.WithLabelValues(strconv.Itoa(i)).Set(float64(n))
	}
}

// LoadInto loads sources into store with the default retry policy.
func LoadInto(ctx context.Context, store *Store, sources ...Source) (LoadReport, error) {
	return NewLoader(store, sources).Load(ctx)
}
