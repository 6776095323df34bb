package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/godown-ops/godown/cmd/godown/cli"
	"github.com/godown-ops/godown/internal/access"
	"github.com/godown-ops/godown/internal/app"
	"github.com/godown-ops/godown/internal/auth"
	"github.com/godown-ops/godown/internal/billing"
	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/observability"
	"github.com/godown-ops/godown/internal/platform/cache"
	"github.com/godown-ops/godown/internal/platform/db"
	"github.com/godown-ops/godown/internal/pricing"
	"github.com/godown-ops/godown/internal/shared"
	"github.com/godown-ops/godown/internal/trips"
	"github.com/godown-ops/godown/jobs"
	"github.com/godown-ops/godown/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		code := jobsCLI.Run(ctx, args[1:], os.Stdout, os.Stderr)
		_ = jobsCLI.Close()
		os.Exit(code)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if len(args) > 0 && args[0] == "migrate" {
		if err := migrations.Apply(ctx, pool); err != nil {
			logger.Error("apply schema", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema applied")
		return
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("redis unavailable, job endpoints degraded", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	accessRepo := access.NewRepository(pool)
	accessService := access.NewService(accessRepo, auditLogger, access.ServiceConfig{GrantTTL: cfg.AccessGrantTTL, Logger: logger})

	fleetRepo := fleet.NewRepository(pool)
	fleetService := fleet.NewService(fleetRepo, accessService)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, accessService, auditLogger, logger)

	pricingRepo := pricing.NewRepository(pool)
	pricingService := pricing.NewService(pricingRepo, inventoryRepo, accessService, auditLogger, logger)

	tripsRepo := trips.NewRepository(pool)
	tripsService := trips.NewService(tripsRepo, trips.Deps{
		Authz:    accessService,
		Audit:    auditLogger,
		Catalog:  inventoryRepo,
		Vehicles: fleetRepo,
		Metrics:  metrics,
		Logger:   logger,
	})

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, billing.Deps{
		Trips:    tripsRepo,
		Catalog:  inventoryRepo,
		Prices:   pricingService,
		Vehicles: fleetRepo,
		Authz:    accessService,
		Audit:    auditLogger,
		Metrics:  metrics,
		Logger:   logger,
	})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	verifier := auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer)
	health := map[string]app.HealthCheck{"postgres": pool.Ping}
	if redisClient != nil {
		health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		Authenticate:     auth.Middleware{Verifier: verifier, Logger: logger}.Authenticate,
		AccessHandler:    access.NewHandler(logger, accessService),
		FleetHandler:     fleet.NewHandler(logger, fleetService),
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		PricingHandler:   pricing.NewHandler(logger, pricingService),
		TripsHandler:     trips.NewHandler(logger, tripsService),
		BillingHandler:   billing.NewHandler(logger, billingService),
		JobHandler:       jobs.NewHandler(inspector, jobClient, logger),
		Health:           health,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
