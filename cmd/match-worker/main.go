// cmd/match-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"program-matching/internal/cache"
	"program-matching/internal/catalog"
	awsclient "program-matching/internal/common/aws"
	"program-matching/internal/common/camunda"
	"program-matching/internal/common/config"
	"program-matching/internal/common/database"
	"program-matching/internal/common/logger"
	"program-matching/internal/common/metrics"
	"program-matching/internal/common/observability"
	"program-matching/internal/events"
	"program-matching/internal/matching"
	"program-matching/internal/repository"

	gms "program-matching/internal/workers/matching/get-match-stats"
	lm "program-matching/internal/workers/matching/list-matches"
	rm "program-matching/internal/workers/matching/recompute-matches"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("starting match worker",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	if cfg.Tracing.Enabled {
		if err := obs.EnableTracing(cfg.Tracing.Endpoint); err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zc *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zc, err = camunda.NewClientWithConfig(ctx, camunda.ConfigFromCamunda(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	logTopology(ctx, zc, zapLog)

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Matching.RunMigrations {
		if err := repository.RunMigrations(ctx, pg.DB); err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
		zapLog.Info("migrations applied")
	}

	// --- Redis ---
	redisClient := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Catalog ---
	checks := map[string]func(context.Context) error{
		"postgres": pg.Ping,
		"redis":    redisClient.Ping,
		"zeebe":    zc.HealthCheck,
	}

	var programs matching.Catalog = repository.NewProgramRepository(pg.DB)
	if cfg.Matching.CatalogSource == config.CatalogSourceElasticsearch {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		programs = catalog.NewElasticsearchCatalog(esClient.Client, cfg.Matching.CatalogIndex)
		checks["elasticsearch"] = esClient.Ping
	}
	zapLog.Info("catalog source selected", zap.String("source", cfg.Matching.CatalogSource))

	// --- Events ---
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publisher = events.NewSNSPublisher(snsClient, cfg.Notifications.SNS.TopicARN)
	}

	// --- Matching ---
	service := matching.NewService(
		programs,
		repository.NewMatchRepository(pg.DB),
		log,
		matching.WithConcurrency(cfg.Matching.Concurrency),
		matching.WithRecorder(metrics.NewMatchRecorder()),
	)
	profiles := cache.NewCachedProfiles(
		cache.NewProfileCache(redisClient.Client, cfg.Matching.ProfileCacheTTL),
		repository.NewProfileRepository(pg.DB),
		log,
	)
	statsCache := cache.NewStatsCache(redisClient.Client, cfg.Matching.StatsCacheTTL)

	// --- Workers ---
	handlers := map[string]camunda.JobHandler{
		rm.TaskType:  rm.NewHandler(rm.LoadConfig(cfg), service, profiles, statsCache, publisher, log),
		lm.TaskType:  lm.NewHandler(lm.LoadConfig(cfg), service, log),
		gms.TaskType: gms.NewHandler(gms.LoadConfig(cfg), service, statsCache, log),
	}

	var workers []*camunda.CamundaWorker
	for taskType, handler := range handlers {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(zc.GetClient(), taskType, wcfg, handler, obs, zapLog))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newServeMux(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping health server", zap.Error(err))
	}
	if err := zc.Close(); err != nil {
		zapLog.Error("error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error shutting down observability", zap.Error(err))
	}
	zapLog.Info("match worker stopped gracefully")
}

func logTopology(ctx context.Context, zc *camunda.Client, log *zap.Logger) {
	result, err := zc.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return zc.GetClient().NewTopologyCommand().Send(ctx)
	}, "topology")
	if err != nil {
		log.Warn("topology request failed", zap.Error(err))
		return
	}
	if topology, ok := result.(*pb.TopologyResponse); ok {
		log.Info("zeebe connected",
			zap.Int("brokers", len(topology.Brokers)),
			zap.Int32("partitions", topology.PartitionsCount),
			zap.String("gatewayVersion", topology.GatewayVersion),
		)
	}
}

func newServeMux(checks map[string]func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, code := "ready", http.StatusOK
		failures := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failures[name] = err.Error()
			}
		}
		if len(failures) > 0 {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status":   status,
			"failures": failures,
			"time":     time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
