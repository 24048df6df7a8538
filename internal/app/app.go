package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/fplstack/insights/external/fplapi"
	"github.com/fplstack/insights/internal/config"
	"github.com/fplstack/insights/internal/infrastructure/repository/postgres"
	"github.com/fplstack/insights/internal/interfaces/httpapi"
	"github.com/fplstack/insights/internal/platform/cache"
	"github.com/fplstack/insights/internal/platform/logging"
	"github.com/fplstack/insights/internal/platform/ratelimit"
	"github.com/fplstack/insights/internal/platform/resilience"
	"github.com/fplstack/insights/internal/usecase"
)

// App owns the wired object graph: the upstream FPL client behind its
// rate limiter and cache, the query services, and the HTTP server.
type App struct {
	Server  *http.Server
	Dataset *usecase.DatasetService

	logger *logging.Logger
	db     *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	limiter := ratelimit.New(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)

	var storeOpts []cache.Option
	if cfg.CacheStaleFallback {
		storeOpts = append(storeOpts, cache.WithStaleFallback())
	}
	store := cache.NewStore(storeOpts...)

	var (
		db       *sqlx.DB
		recorder fplapi.PayloadRecorder
	)
	if cfg.ArchiveEnabled() {
		opened, err := openDatabase(cfg)
		if err != nil {
			return nil, fmt.Errorf("open archive database: %w", err)
		}
		db = opened
		recorder = usecase.NewPayloadArchiver(postgres.NewRawDataRepository(db), logger)
		logger.Info("raw payload archive enabled", "database", databaseNameFromURL(cfg.DBURL))
	} else {
		logger.Info("raw payload archive disabled", "reason", "DB_URL empty")
	}

	client := fplapi.NewClient(fplapi.ClientConfig{
		BaseURL:   cfg.FPLBaseURL,
		UserAgent: cfg.FPLUserAgent,
		Timeout:   cfg.FPLTimeout,
		Limiter:   limiter,
		Recorder:  recorder,
		Logger:    logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenReq,
		},
	})

	dataset := usecase.NewDatasetService(client, store, logger, usecase.DatasetTTL{
		Static:   cfg.CacheStaticTTL,
		Fixtures: cfg.CacheFixturesTTL,
		Summary:  cfg.CacheSummaryTTL,
	})

	handler := httpapi.NewHandler(
		dataset,
		usecase.NewAnalyticsService(dataset, logger),
		usecase.NewFixtureAnalyzerService(dataset, logger),
		usecase.NewComparisonService(dataset, logger),
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Dataset: dataset,
		logger:  logger,
		db:      db,
	}, nil
}

// WarmCache primes the snapshot and fixtures entries so the first request
// after boot does not pay the upstream round trips. Failures are logged
// and left for the request path to retry.
func (a *App) WarmCache(ctx context.Context) {
	if _, err := a.Dataset.Snapshot(ctx); err != nil {
		a.logger.WarnContext(ctx, "cache warmup: snapshot fetch failed", "error", err)
		return
	}
	if _, err := a.Dataset.Fixtures(ctx); err != nil {
		a.logger.WarnContext(ctx, "cache warmup: fixtures fetch failed", "error", err)
	}
}

// Close releases resources held outside the HTTP server, currently just
// the archive database handle.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
