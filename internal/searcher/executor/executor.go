// Package executor runs a parsed query against the sharded quote store:
// every shard is matched and scored concurrently, the per-shard top hits
// are merged, and the survivors are highlighted.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/highlight"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/matcher"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/ranker"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/quotes"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/tracing"
)

// cancelCheckEvery is how many quotes a shard scans between context checks.
const cancelCheckEvery = 256

// Options are the per-request knobs of a search.
type Options struct {
	Limit int
	Fuzzy bool
	Mode  highlight.Mode
}

// Hit is one matching quote.
type Hit struct {
	Quote    quotes.Quote        `json:"quote"`
	Score    int                 `json:"score"`
	Segments []highlight.Segment `json:"segments"`
	Ordinal  int                 `json:"-"`
}

// SearchResult is the ranked, highlighted answer to one query. TotalHits
// counts every match, Results only the ones kept by the limit.
type SearchResult struct {
	Query      string         `json:"query"`
	Normalized string         `json:"normalized"`
	Mode       highlight.Mode `json:"mode"`
	Fuzzy      bool           `json:"fuzzy"`
	TotalHits  int            `json:"total_hits"`
	Results    []Hit          `json:"results"`
}

// ranksBefore orders hits by score, then by load order.
func ranksBefore(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Ordinal < b.Ordinal
}

// Executor searches a quote store. It holds no per-query state and is safe
// for concurrent use.
type Executor struct {
	store  *quotes.Store
	logger *slog.Logger
}

// New returns an executor over store.
func New(store *quotes.Store) *Executor {
	return &Executor{
		store:  store,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute scans every shard concurrently, merges the per-shard top hits by
// score and load order, and highlights the survivors. An empty plan yields
// an empty result; an empty store yields ErrCorpusEmpty, and running out of
// time yields ErrTimeout.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, opts Options) (*SearchResult, error) {
	result := &SearchResult{
		Query:      plan.RawQuery,
		Normalized: plan.Normalized,
		Mode:       opts.Mode,
		Fuzzy:      opts.Fuzzy,
		Results:    []Hit{},
	}
	if plan.Empty() {
		return result, nil
	}
	if e.store.Len() == 0 {
		return nil, apperrors.ErrCorpusEmpty
	}

	start := time.Now()
	scorer := ranker.NewScorer(plan.Text)
	m := matcher.New(plan.Text, opts.Fuzzy)
	shards := e.store.Shards()

	ctx, span := tracing.Start(ctx, "search.execute",
		attribute.String("request_id", logger.RequestID(ctx)),
		attribute.String("normalized", plan.Normalized),
		attribute.Int("shards", len(shards)),
	)
	defer span.End()
	perShard := make([][]Hit, len(shards))
	totals := make([]int, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	for i, entries := range shards {
		g.Go(func() error {
			_, shardSpan := tracing.Start(gctx, "search.shard",
				attribute.Int("shard", i),
				attribute.Int("scanned", len(entries)),
			)
			defer shardSpan.End()
			hits, total, err := scanShard(gctx, entries, plan, m, scorer, opts.Limit)
			if err != nil {
				tracing.Fail(shardSpan, err)
				return fmt.Errorf("shard %d: %w", i, err)
			}
			shardSpan.SetAttributes(attribute.Int("hits", total))
			perShard[i] = hits
			totals[i] = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tracing.Fail(span, err)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrTimeout, ctx.Err())
		}
		return nil, err
	}

	for _, n := range totals {
		result.TotalHits += n
	}
	result.Results = merger.Merge(perShard, opts.Limit, ranksBefore)
	for i := range result.Results {
		result.Results[i].Segments = highlight.Apply(opts.Mode, result.Results[i].Quote.Text, plan.Text)
	}

	span.SetAttributes(
		attribute.Int("total_hits", result.TotalHits),
		attribute.Int("returned", len(result.Results)),
	)
	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"normalized", plan.Normalized,
		"shards", len(shards),
		"total_hits", result.TotalHits,
		"results", len(result.Results),
		"took", time.Since(start),
	)
	return result, nil
}

// scanShard matches and scores every entry of one shard and keeps its best
// limit hits.
func scanShard(ctx context.Context, entries []*quotes.Entry, plan *parser.QueryPlan, m *matcher.Matcher, scorer *ranker.Scorer, limit int) ([]Hit, int, error) {
	var hits []Hit
	for i, entry := range entries {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		if !plan.MatchesTags(entry.Tags) || !m.MatchNormalized(entry.Normalized) {
			continue
		}
		score := scorer.ScoreNormalized(entry.Normalized)
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{Quote: entry.Quote, Score: score, Ordinal: entry.Ordinal})
	}
	return merger.TopK(hits, limit, ranksBefore), len(hits), nil
}
