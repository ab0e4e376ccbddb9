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

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/srgjo27/eventpass/internal/adapter/cache"
	"github.com/srgjo27/eventpass/internal/adapter/handler"
	"github.com/srgjo27/eventpass/internal/adapter/notifier"
	"github.com/srgjo27/eventpass/internal/adapter/repository/memory"
	"github.com/srgjo27/eventpass/internal/adapter/repository/postgres"
	"github.com/srgjo27/eventpass/internal/adapter/worker"
	"github.com/srgjo27/eventpass/internal/core/ports"
	"github.com/srgjo27/eventpass/internal/core/services"
	"github.com/srgjo27/eventpass/internal/platform/config"
	"github.com/srgjo27/eventpass/internal/platform/database"
	"github.com/srgjo27/eventpass/internal/platform/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server exiting")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	clk := clockwork.NewRealClock()
	deps := services.Deps{
		Store:    store,
		Cache:    cache.Noop{},
		Notifier: notifier.Noop{},
		Clock:    clk,
		Logger:   log,
		Options: services.Options{
			OfferWindow:       cfg.Core.OfferWindow,
			CheckinCodeLength: cfg.Core.CheckinCodeLength,
			InviteCodeLength:  cfg.Core.InviteCodeLength,
			OfferCodeLength:   cfg.Core.OfferCodeLength,
			CodeMaxAttempts:   cfg.Core.CodeMaxAttempts,
			RetryAttempts:     cfg.Core.RetryAttempts,
		},
	}

	if cfg.Redis.Enabled() {
		log.Info("connecting to redis", "addr", cfg.Redis.Addr())
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), DB: 0})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		deps.Cache = cache.NewRedisCapacityCache(redisClient, cfg.Core.CapacityCacheTTL)
		deps.Notifier = notifier.NewRedisNotifier(redisClient)
	} else {
		log.Warn("REDIS_HOST not set, capacity cache and notifications disabled")
	}

	eventSvc := services.NewEventService(deps)
	admissionSvc := services.NewAdmissionService(deps)
	checkinSvc := services.NewCheckinService(deps)
	transferSvc := services.NewTransferService(deps)
	invitationSvc := services.NewInvitationService(deps)

	router := handler.NewRouter(
		handler.NewEventHandler(eventSvc, admissionSvc, checkinSvc, invitationSvc, log),
		handler.NewRegistrationHandler(admissionSvc, log),
		handler.NewTransferHandler(transferSvc, cfg.PublicBaseURL, log),
		log,
	)

	sweeper, err := worker.NewOfferSweeper(transferSvc, cfg.Core.SweepInterval, clk, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", server.Addr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Start()
		<-gctx.Done()

		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return errors.Join(server.Shutdown(shutdownCtx), sweeper.Stop())
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.UnitOfWork, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := database.NewPostgresDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewUnitOfWork(db), func() { db.Close() }, nil
}
