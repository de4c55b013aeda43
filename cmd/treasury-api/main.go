package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/treasury-api/api/swagger"
	"github.com/noah-isme/treasury-api/internal/handler"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	"github.com/noah-isme/treasury-api/internal/server"
	"github.com/noah-isme/treasury-api/internal/service"
	"github.com/noah-isme/treasury-api/pkg/cache"
	"github.com/noah-isme/treasury-api/pkg/config"
	"github.com/noah-isme/treasury-api/pkg/database"
	"github.com/noah-isme/treasury-api/pkg/jobs"
	"github.com/noah-isme/treasury-api/pkg/logger"
)

// @title Treasury API
// @version 1.0.0
// @description Treasury dashboard backend with profile-based permissions
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	readiness := map[string]handler.ReadinessCheck{}

	store, db, err := openStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		readiness["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	}

	deps := server.Dependencies{
		Store:   store,
		Metrics: service.NewMetricsService(),
		Logger:  logr,
		Auth: service.AuthConfig{
			AccessTokenSecret:  cfg.JWT.Secret,
			AccessTokenExpiry:  cfg.JWT.Expiration,
			RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
			Issuer:             cfg.JWT.Issuer,
			SingleSession:      cfg.JWT.SingleSession,
		},
		AuthzTTL:     cfg.Cache.AuthzTTL,
		DashboardTTL: cfg.Cache.DashboardTTL,
		ImportQueue:  jobs.QueueConfig{Workers: cfg.Imports.Workers, MaxRetries: cfg.Imports.Retries},
	}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo := repository.NewCacheRepository(client)
			deps.Cache = cacheRepo
			readiness["redis"] = cacheRepo.Ping
			logr.Info("redis cache enabled", zap.String("addr", client.Options().Addr))
		}
	}

	app := server.Build(deps)
	app.ImportQueue.Start(ctx)
	defer app.ImportQueue.Stop()

	scheduler, err := app.Maintenance.Schedule(ctx, cfg.Maintenance.Schedule)
	if err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	router := server.NewRouter(app.Services, server.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		LoginLimiter:   middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst),
		Readiness:      readiness,
		Logger:         logr,
	})

	srv := server.NewHTTPServer(fmt.Sprintf(":%d", cfg.Port), router)
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("backend", cfg.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openStore selects the storage backend. The returned DB is nil for the
// in-memory backend.
func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*repository.Store, *sqlx.DB, error) {
	if cfg.Backend != config.BackendPostgres {
		logr.Info("using in-memory store",
			zap.Bool("seed", cfg.Mock.Seed),
			zap.Duration("latency_min", cfg.Mock.LatencyMin),
			zap.Duration("latency_max", cfg.Mock.LatencyMax),
		)
		return memory.NewStore(memory.Options{
			LatencyMin:      cfg.Mock.LatencyMin,
			LatencyMax:      cfg.Mock.LatencyMax,
			Seed:            cfg.Mock.Seed,
			AuditMaxEntries: cfg.Mock.AuditMaxEntries,
		}), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store := repository.NewPostgresStore(db)
	if _, err := server.Bootstrap(ctx, store, server.BootstrapAdmin{
		Name:     cfg.Bootstrap.AdminName,
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
	}, logr); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
