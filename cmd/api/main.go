package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/config"
	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/handler"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/cache"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/feed"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/memstore"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/observability"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/resilience"
	"github.com/emprestaja/p2p-lending-api-go/internal/port"
	"github.com/emprestaja/p2p-lending-api-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("negotiation_window", cfg.NegotiationWindow),
		zap.Float64("fee_percent", cfg.FeePercent),
		zap.Duration("sweep_interval", cfg.SweepInterval),
		zap.String("default_locale", cfg.DefaultLocale),
		zap.Bool("use_feed", cfg.UseFeed),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "p2p-lending-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	var partyCache port.Cache[domain.Party]
	if cfg.RedisAddr != "" {
		logger.Info("using Redis party cache", zap.String("redis_addr", cfg.RedisAddr))
		partyCache = cache.NewRedis[domain.Party](cfg.RedisAddr, "party", cfg.CacheTTL, logger)
	} else {
		partyCache = cache.New[domain.Party](cfg.CacheTTL)
	}

	// --- Store ---
	store := memstore.New()

	if cfg.UseFeed && cfg.FeedURL != "" {
		logger.Info("hydrating store from negotiation feed", zap.String("feed_url", cfg.FeedURL))
		hydrateFromFeed(store, cfg, metrics, logger)
	} else {
		logger.Info("using seeded in-memory store")
		memstore.Seed(store, time.Now().UTC())
	}

	// --- Services ---
	svc := service.NewNegotiationService(
		store,
		store,
		partyCache,
		metrics,
		logger,
		cfg.NegotiationWindow,
		cfg.FeePercent,
		cfg.DefaultLocale,
	)

	// --- Expiry sweeper ---
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go svc.RunExpireSweeper(sweepCtx, cfg.SweepInterval)

	// --- Router ---
	router := handler.NewRouter(svc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// hydrateFromFeed bulk-loads the read-only negotiation feed into the
// in-memory store at startup. Feed failures are logged and leave the
// store empty rather than aborting boot.
func hydrateFromFeed(store *memstore.Store, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) {
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	feedClient := feed.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.FeedURL,
		cfg.FeedAPIKey,
		resilience.NewCircuitBreaker("negotiation-feed"),
		resilience.NewBulkhead(cfg.MaxConcurrency),
		resilienceCfg,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
	defer cancel()

	negotiations, err := feedClient.FetchNegotiations(ctx)
	if err != nil {
		metrics.IncrFeedError("fetch_negotiations")
		logger.Error("feed hydration failed, starting with empty store", zap.Error(err))
		return
	}
	parties, err := feedClient.FetchParties(ctx)
	if err != nil {
		metrics.IncrFeedError("fetch_parties")
		logger.Error("feed hydration failed, starting with empty store", zap.Error(err))
		return
	}

	proposals := make(map[string][]domain.Proposal, len(negotiations))
	for _, neg := range negotiations {
		ps, err := feedClient.FetchProposals(ctx, neg.ID)
		if err != nil {
			metrics.IncrFeedError("fetch_proposals")
			logger.Warn("skipping proposals for negotiation",
				zap.String("negotiation_id", neg.ID),
				zap.Error(err),
			)
			continue
		}
		proposals[neg.ID] = ps
	}

	store.Hydrate(negotiations, proposals, parties)
	logger.Info("store hydrated from feed",
		zap.Int("negotiations", len(negotiations)),
		zap.Int("parties", len(parties)),
	)
}
