package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/highlight"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/quotes"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/resilience"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, opts executor.Options) (*executor.SearchResult, error)
}

type QuoteLookup interface {
	Get(id string) (*quotes.Entry, error)
}

// SearchResponse is a search result plus per-request details.
type SearchResponse struct {
	*executor.SearchResult
	CacheHit bool    `json:"cache_hit"`
	TookMs   float64 `json:"took_ms"`
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	quotes   QuoteLookup
	cfg      config.SearchConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New wires a handler. queryCache and m may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, lookup QuoteLookup, cfg config.SearchConfig, m *metrics.Metrics) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		quotes:   lookup,
		cfg:      cfg,
		metrics:  m,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/quotes/{id}", h.GetQuote)
	mux.HandleFunc("POST /api/v1/text/normalize", h.Normalize)
	mux.HandleFunc("POST /api/v1/text/contains", h.Contains)
	mux.HandleFunc("POST /api/v1/text/highlight", h.Highlight)
	mux.HandleFunc("POST /api/v1/text/count", h.Count)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	params := r.URL.Query()
	if !params.Has("q") {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	query := params.Get("q")

	opts, err := h.searchOptions(params.Get("limit"), params.Get("mode"), params.Get("fuzzy"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	plan := parser.Parse(query)
	if plan.Empty() {
		h.observe("zero_result", "none", start, 0)
		h.writeJSON(w, http.StatusOK, SearchResponse{
			SearchResult: &executor.SearchResult{Query: query, Mode: opts.Mode, Fuzzy: opts.Fuzzy, Results: []executor.Hit{}},
			TookMs:       elapsedMs(start),
		})
		return
	}

	type outcome struct {
		result *executor.SearchResult
		hit    bool
	}
	out, err := resilience.Call(ctx, h.cfg.QueryTimeout, "search", func(ctx context.Context) (outcome, error) {
		compute := func(ctx context.Context) (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, opts)
		}
		if h.cache == nil {
			res, err := compute(ctx)
			return outcome{result: res}, err
		}
		res, hit, err := h.cache.GetOrCompute(ctx, cache.KeyFor(plan, opts), compute)
		return outcome{res, hit}, err
	})
	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		h.observe("error", "none", start, 0)
		h.writeAppError(w, err)
		return
	}
	result, cacheHit := out.result, out.hit

	cacheStatus := "miss"
	resultType := "miss"
	if cacheHit {
		cacheStatus, resultType = "hit", "hit"
	}
	if len(result.Results) == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheStatus, start, len(result.Results))

	log.Info("search completed",
		"query", query,
		"normalized", plan.Normalized,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", elapsedMs(start),
	)
	// Cached results are shared; echo this request's raw query on a copy.
	resp := *result
	resp.Query = query
	h.writeJSON(w, http.StatusOK, SearchResponse{SearchResult: &resp, CacheHit: cacheHit, TookMs: elapsedMs(start)})
}

func (h *Handler) searchOptions(limitStr, modeStr, fuzzyStr string) (executor.Options, error) {
	opts := executor.Options{
		Limit: h.cfg.DefaultLimit,
		Fuzzy: h.cfg.Fuzzy,
		Mode:  highlight.ParseMode(h.cfg.HighlightMode),
	}
	if limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return opts, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
		}
		if parsed > h.cfg.MaxResults {
			parsed = h.cfg.MaxResults
		}
		opts.Limit = parsed
	}
	if modeStr != "" {
		mode, err := parseMode(modeStr)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if fuzzyStr != "" {
		fuzzy, err := strconv.ParseBool(fuzzyStr)
		if err != nil {
			return opts, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "fuzzy must be true or false")
		}
		opts.Fuzzy = fuzzy
	}
	return opts, nil
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	entry, err := h.quotes.Get(r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry.Quote)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeAppError(w, apperrors.New(apperrors.ErrCacheDisabled, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) observe(resultType, cacheStatus string, start time.Time, results int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(results))
}

func parseMode(name string) (highlight.Mode, error) {
	switch highlight.Mode(strings.ToLower(strings.TrimSpace(name))) {
	case highlight.ModePhrase:
		return highlight.ModePhrase, nil
	case highlight.ModeTerms:
		return highlight.ModeTerms, nil
	}
	return "", apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "mode must be %q or %q", highlight.ModePhrase, highlight.ModeTerms)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps err to a status code. Only AppError messages and
// client errors are shown to the caller.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		h.writeError(w, status, appErr.Message)
	case status < http.StatusInternalServerError:
		h.writeError(w, status, err.Error())
	default:
		h.writeError(w, status, http.StatusText(status))
	}
}
