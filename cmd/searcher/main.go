package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/quotes"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting quote search service", "port", cfg.Server.Port, "num_shards", cfg.Search.NumShards)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdownTracing := tracing.Setup(logger.WithComponent("tracing"), cfg.Tracing.SampleRatio)
		defer shutdownTracing(context.Background())
	}

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.Serve(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var pg *postgres.Client
	if cfg.Postgres.Enabled {
		pg, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, loading quotes from file only", "error", err)
		} else {
			defer pg.Close()
			slog.Info("postgres quote source enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		}
	}

	store := quotes.NewStore(cfg.Search.NumShards)
	loader := quotes.NewLoader(store, corpusSources(cfg.Corpus, pg),
		quotes.WithRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.Corpus.LoadRetries,
			InitialDelay: cfg.Corpus.LoadBackoff,
		}),
		quotes.WithMaxTextLength(cfg.Corpus.MaxTextLength),
		quotes.WithMetrics(m),
	)

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m, cache.WithComputeTimeout(cfg.Search.QueryTimeout))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if queryCache != nil {
		loader.OnReload(func(ctx context.Context, report quotes.LoadReport) {
			deleted, err := queryCache.Invalidate(ctx)
			if err != nil {
				slog.Warn("cache invalidation after reload failed", "error", err)
				return
			}
			slog.Info("search cache invalidated after reload", "keys_deleted", deleted)
		})
	}

	if _, err := loader.Load(ctx); err != nil {
		slog.Error("initial corpus load failed", "error", err)
		os.Exit(1)
	}
	go reloadOnHangup(ctx, loader)

	checker := health.NewChecker()
	checker.Register("corpus", health.CorpusCheck(store.Len))
	var redisPing, pgPing func(context.Context) error
	if redisClient != nil {
		redisPing = redisClient.Ping
	}
	if pg != nil {
		pgPing = pg.Ping
	}
	checker.Register("redis", health.PingCheck(redisPing, health.StatusDegraded))
	checker.Register("postgres", health.PingCheck(pgPing, health.StatusDegraded))

	h := handler.New(executor.New(store), queryCache, store, cfg.Search, m)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins...))(chain)
	if cfg.RateLimit.Enabled {
		trusted, err := cfg.RateLimit.TrustedPrefixes()
		if err != nil {
			slog.Error("invalid trusted proxies", "error", err)
			os.Exit(1)
		}
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		defer limiter.Stop()
		chain = middleware.RateLimit(limiter, middleware.ClientKey(trusted), m)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("quote search service listening", "addr", server.Addr, "quotes", store.Len())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("quote search service stopped")
}

func corpusSources(cfg config.CorpusConfig, pg *postgres.Client) []quotes.Source {
	var sources []quotes.Source
	if cfg.Path != "" {
		sources = append(sources, quotes.FileSource{Path: cfg.Path})
	}
	if pg != nil {
		sources = append(sources, quotes.PostgresSource{DB: pg, Query: cfg.Query})
	}
	return sources
}

// reloadOnHangup reloads the corpus on every SIGHUP until ctx ends. A failed
// reload keeps the current corpus.
func reloadOnHangup(ctx context.Context, loader *quotes.Loader) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			report, err := loader.Load(ctx)
			if err != nil {
				slog.Error("corpus reload failed, keeping previous corpus", "error", err)
				continue
			}
			slog.Info("corpus reloaded", "loaded", report.Loaded, "invalid", report.Invalid)
		}
	}
}
