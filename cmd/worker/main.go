package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"feedwatch/internal/diff"
	"feedwatch/internal/feedcache"
	"feedwatch/internal/fetcher"
	pgRepo "feedwatch/internal/infra/adapter/persistence/postgres"
	"feedwatch/internal/infra/db"
	workerPkg "feedwatch/internal/infra/worker"
	"feedwatch/internal/observability/logging"
	appmetrics "feedwatch/internal/observability/metrics"
	"feedwatch/internal/pkg/config"
	"feedwatch/internal/platform"
	"feedwatch/internal/repository"
	"feedwatch/internal/resilience/circuitbreaker"
	"feedwatch/internal/resilience/ratelimit"
	"feedwatch/internal/usecase/check"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("poll_schedule", workerConfig.PollSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("check_timeout", workerConfig.CheckTimeout),
		slog.Int("max_concurrent_checks", workerConfig.MaxConcurrentChecks),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	svc := setupCheckService(logger)
	feedRepo := pgRepo.NewFeedStateRepo(database)

	startCronWorker(logger, database, svc, feedRepo, workerConfig, workerMetrics, healthServer)
}

// initLogger initializes the structured logger and installs it as default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the connection pool and applies the schema.
func initDatabase(logger *slog.Logger) *sql.DB {
	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupCheckService assembles the fetch pipeline and the check use case.
func setupCheckService(logger *slog.Logger) *check.Service {
	rules := loadPlatformRules(logger)

	fetchConfig := fetcher.DefaultConfig()
	f, err := fetcher.New(fetchConfig, fetcher.Deps{
		Cache:   feedcache.NewMemoryStore(),
		Limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		Breaker: circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig()),
		Headers: fetcher.NewRotatingHeaderProvider(),
		Rules:   rules,
		Client:  createHTTPClient(),
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create fetcher", slog.Any("error", err))
		os.Exit(1)
	}

	return check.NewService(f, diff.New(diff.DefaultConfig()), logger)
}

// loadPlatformRules loads platform rules from PLATFORM_RULES_PATH, falling
// back to the built-in defaults when the variable is unset or the file is
// unreadable.
func loadPlatformRules(logger *slog.Logger) *platform.Rules {
	path := os.Getenv("PLATFORM_RULES_PATH")
	if path == "" {
		return platform.DefaultRules()
	}

	rules, err := platform.LoadRules(path)
	if err != nil {
		logger.Warn("failed to load platform rules, using defaults",
			slog.String("path", path),
			slog.Any("error", err))
		return platform.DefaultRules()
	}
	logger.Info("platform rules loaded", slog.String("path", path))
	return rules
}

// createHTTPClient creates the feed-fetch HTTP client with connection
// pooling. TLS 1.2+ is enforced.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// startCronWorker starts the cron scheduler and runs the poll cycle on the
// configured schedule. Blocks forever.
func startCronWorker(logger *slog.Logger, database *sql.DB, svc *check.Service, feedRepo repository.FeedStateRepository, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	forceCatchUp := config.LoadEnvBool("FORCE_CATCH_UP", false).Value.(bool)

	_, err = c.AddFunc(cfg.PollSchedule, func() {
		stats := database.Stats()
		appmetrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
		runPollCycle(logger, svc, feedRepo, cfg, metrics, forceCatchUp)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.PollSchedule), slog.String("timezone", cfg.Timezone))
	select {}
}

// runPollCycle checks every active feed once, persisting the new checkpoint
// after each successful check. Feeds are checked concurrently up to
// MaxConcurrentChecks; one failing feed never aborts the cycle.
func runPollCycle(logger *slog.Logger, svc *check.Service, feedRepo repository.FeedStateRepository, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, forceCatchUp bool) {
	runID := uuid.NewString()
	startTime := time.Now()
	logger.Info("poll cycle started", slog.String("run_id", runID))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CheckTimeout)
	defer cancel()

	feeds, err := feedRepo.ListActive(ctx)
	if err != nil {
		logger.Error("failed to list active feeds",
			slog.String("run_id", runID),
			slog.Any("error", err))
		metrics.RecordPollRun("failure")
		metrics.RecordPollDuration(time.Since(startTime).Seconds())
		return
	}

	var checked, failed, newItems atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrentChecks)
	for _, feed := range feeds {
		g.Go(func() error {
			result, err := svc.CheckFeed(gctx, feed.FeedURL, feed.LastSeenID, forceCatchUp)
			if err != nil {
				failed.Add(1)
				logger.Error("feed check failed",
					slog.String("run_id", runID),
					slog.Int64("feed_id", feed.ID),
					slog.String("feed_name", feed.Name),
					slog.Any("error", err))
				return nil
			}
			checked.Add(1)
			newItems.Add(int64(len(result.NewItems)))

			if result.NewestID != "" {
				if err := feedRepo.UpdateCheckpoint(gctx, feed.ID, result.NewestID, time.Now()); err != nil {
					logger.Error("failed to update checkpoint",
						slog.String("run_id", runID),
						slog.Int64("feed_id", feed.ID),
						slog.Any("error", err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.RecordPollDuration(time.Since(startTime).Seconds())
	metrics.RecordFeedsChecked(int(checked.Load()))
	if failed.Load() > 0 && checked.Load() == 0 {
		metrics.RecordPollRun("failure")
	} else {
		metrics.RecordPollRun("success")
		metrics.RecordLastSuccess()
	}

	logger.Info("poll cycle completed",
		slog.String("run_id", runID),
		slog.Int("feeds", len(feeds)),
		slog.Int64("checked", checked.Load()),
		slog.Int64("failed", failed.Load()),
		slog.Int64("new_items", newItems.Load()),
		slog.Duration("duration", time.Since(startTime)))
}
