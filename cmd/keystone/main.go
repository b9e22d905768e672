package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/keystone-pm/keystone/internal/app"
	"github.com/keystone-pm/keystone/internal/audit"
	"github.com/keystone-pm/keystone/internal/auth"
	"github.com/keystone-pm/keystone/internal/billing"
	"github.com/keystone-pm/keystone/internal/leases"
	"github.com/keystone-pm/keystone/internal/observability"
	"github.com/keystone-pm/keystone/internal/orgs"
	"github.com/keystone-pm/keystone/internal/platform/cache"
	"github.com/keystone-pm/keystone/internal/platform/db"
	"github.com/keystone-pm/keystone/internal/properties"
	"github.com/keystone-pm/keystone/internal/renters"
	"github.com/keystone-pm/keystone/internal/units"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	denylist := auth.NewRedisDenylist(redisClient)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, denylist)
	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, tokens)

	recorder := audit.NewLogger(pool)
	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audit.NewHandler(logger, auditService)

	orgsService := orgs.NewService(orgs.NewRepository(pool), recorder, logger, metrics.AuditGap)
	orgsHandler := orgs.NewHandler(logger, orgsService)

	propertiesService := properties.NewService(properties.NewStore(pool), recorder, logger, metrics.AuditGap)
	propertiesHandler := properties.NewHandler(logger, propertiesService)

	unitsService := units.NewService(units.NewStore(pool), recorder, logger, metrics.AuditGap)
	unitsHandler := units.NewHandler(logger, unitsService)

	rentersService := renters.NewService(renters.NewStore(pool), recorder, logger, metrics.AuditGap)
	rentersHandler := renters.NewHandler(logger, rentersService)

	leasesService := leases.NewService(leases.NewStore(pool), recorder, logger, metrics.AuditGap)
	leasesHandler := leases.NewHandler(logger, leasesService)

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	billingStore := billing.NewStore(pool)
	billingService := billing.NewService(billingStore, billingStore, recorder, logger, metrics.AuditGap)
	billingHandler := billing.NewHandler(logger, billingService, queue)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Tokens:            tokens,
		AuthHandler:       authHandler,
		OrgsHandler:       orgsHandler,
		PropertiesHandler: propertiesHandler,
		UnitsHandler:      unitsHandler,
		RentersHandler:    rentersHandler,
		LeasesHandler:     leasesHandler,
		BillingHandler:    billingHandler,
		AuditHandler:      auditHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
