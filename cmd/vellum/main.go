// Command vellum runs the access control and audit service: project and
// document sharing, effective-role resolution, file versions, comments and
// the append-only audit log behind one HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/api"
	"github.com/vellum-app/vellum/pkg/audit"
	"github.com/vellum-app/vellum/pkg/config"
	"github.com/vellum-app/vellum/pkg/documents"
	"github.com/vellum-app/vellum/pkg/grants"
	"github.com/vellum-app/vellum/pkg/observability"
	"github.com/vellum-app/vellum/pkg/projects"
	"github.com/vellum-app/vellum/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.ParsedLogLevel(), os.Stdout)
	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		fatal(logger, "failed to initialize tracing", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		fatal(logger, "failed to open database", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		fatal(logger, "failed to ping database", err)
	}

	if err := ensureSchemas(ctx, db); err != nil {
		fatal(logger, "failed to ensure database schema", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.WithField("addr", cfg.Redis.Addr).Info("redis cache invalidation enabled")
	}

	cache, err := access.NewCache(cfg.Cache.Size, cfg.Cache.TTL, redisClient)
	if err != nil {
		fatal(logger, "failed to create resolution cache", err)
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		fatal(logger, "failed to initialize blob storage", err)
	}

	engineOpts := []access.Option{access.WithCache(cache), access.WithLogger(logger)}
	if metrics != nil {
		engineOpts = append(engineOpts, access.WithMetrics(metrics))
	}
	engine := access.NewEngine(db, engineOpts...)
	auditStore := audit.NewStore(db)

	server := api.NewServer(api.Deps{
		Engine:    engine,
		Projects:  projects.NewStore(db),
		Documents: documents.NewService(db, blobs, engine.Resolver()),
		Audit:     auditStore,
		Redis:     redisClient,
		Logger:    logger,
		Metrics:   metrics,
	})

	scheduler := startRetentionSweep(cfg, auditStore, logger, metrics)

	if metrics != nil {
		go func() {
			for range time.Tick(15 * time.Second) {
				metrics.UpdateDBStats(db.Stats())
			}
		}()
	}

	healthMux := http.NewServeMux()
	var blobPinger observability.Pinger
	if p, ok := blobs.(observability.Pinger); ok {
		blobPinger = p
	}
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient, blobPinger))
	if metrics != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	manager := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	manager.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	if scheduler != nil {
		manager.RegisterShutdownFunc(func(ctx context.Context) error {
			select {
			case <-scheduler.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if redisClient != nil {
		manager.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	manager.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})
	if providers != nil {
		manager.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	var g errgroup.Group
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("API server listening")
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(manager.WaitForShutdown)

	if err := g.Wait(); err != nil {
		fatal(logger, "server exited", err)
	}
	logger.Info("shutdown complete")
}

// ensureSchemas creates all tables on startup; every statement is idempotent
func ensureSchemas(ctx context.Context, db *sql.DB) error {
	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	steps := []func(context.Context) error{
		projects.NewStore(db).EnsureSchema,
		grants.NewStore(db).EnsureSchema,
		documents.NewStore(db).EnsureSchema,
		audit.NewStore(db).EnsureSchema,
	}
	for _, step := range steps {
		if err := step(schemaCtx); err != nil {
			return err
		}
	}
	return nil
}

// startRetentionSweep schedules the audit retention job; returns nil when
// retention is disabled
func startRetentionSweep(cfg *config.Config, store *audit.Store, logger *observability.Logger, metrics *observability.Metrics) *cron.Cron {
	if cfg.Audit.RetentionDays <= 0 {
		logger.Info("audit retention sweep disabled")
		return nil
	}

	policy := audit.RetentionPolicy{RetentionDays: cfg.Audit.RetentionDays}
	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Audit.CleanupSchedule, func() {
		defer observability.RecoverPanic(logger, "audit retention sweep")

		start := time.Now()
		removed, err := store.Cleanup(context.Background(), policy)
		if err != nil {
			logger.WithError(err).Error("audit retention sweep failed")
			return
		}
		if metrics != nil {
			metrics.AuditRecordsReaped.Add(float64(removed))
			metrics.AuditCleanupDuration.Observe(time.Since(start).Seconds())
		}
		logger.WithFields(map[string]interface{}{
			"removed":        removed,
			"retention_days": policy.RetentionDays,
		}).Info("audit retention sweep complete")
	})
	if err != nil {
		fatal(logger, "invalid audit cleanup schedule", err)
	}

	scheduler.Start()
	logger.WithField("schedule", cfg.Audit.CleanupSchedule).Info("audit retention sweep scheduled")
	return scheduler
}

func fatal(logger *observability.Logger, msg string, err error) {
	logger.WithError(err).Error(msg)
	os.Exit(1)
}
