package main // Entry point package

import (
	"context"   // Root context for shutdown
	"errors"    // Distinguish a clean server close
	"net/http"  // http.ErrServerClosed
	"os"        // Exit codes
	"os/signal" // Graceful shutdown on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // Shutdown deadline

	"go.uber.org/zap" // Structured logging

	"github.com/iliyamo/staybook/internal/config"           // Internal config loader
	"github.com/iliyamo/staybook/internal/database"         // Data store backend selection
	"github.com/iliyamo/staybook/internal/events"           // Domain event publishing
	"github.com/iliyamo/staybook/internal/lock"             // Booking and review locks
	"github.com/iliyamo/staybook/internal/platform/logger"  // zap construction
	"github.com/iliyamo/staybook/internal/platform/metrics" // Prometheus registry
	"github.com/iliyamo/staybook/internal/queue"            // Activity log consumer
	"github.com/iliyamo/staybook/internal/router"           // Internal router setup
	"github.com/iliyamo/staybook/internal/service"          // Marketplace use cases
	"github.com/iliyamo/staybook/internal/session"          // Server-side sessions
)

func main() {
	cfg := config.Load()                                                          // Load environment config
	log := logger.Must(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}) // Build the process logger
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(2)
	}
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("staybook")

	stores, closeStores, err := database.Stores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeStores() }()

	// Redis is optional.  Without it sessions and locks stay in-process
	// and caching and rate limiting are off.
	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-process fallbacks", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	var (
		sessions session.Backend = session.NewMemoryBackend()
		locker   lock.Locker     = lock.NewLocalLocker()
	)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		sessions = session.RedisBackend{Client: rdb, TTL: cfg.SessionTTL}
		locker = lock.NewRedisLocker(rdb)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.EventsEnabled {
		rabbit := events.NewRabbit(cfg.RabbitURL, log)
		defer func() { _ = rabbit.Close() }()
		publisher = rabbit
	}
	if cfg.ConsumeEvents {
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Log: log, Out: &queue.ActivityLog{Dir: cfg.ActivityDir}}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	}

	svc := service.New(service.Options{
		Stores:     stores,
		Locker:     locker,
		Events:     publisher,
		Metrics:    m,
		Log:        log,
		BcryptCost: cfg.BcryptCost,
	})
	e := router.New(router.Deps{
		Cfg:      cfg,
		Svc:      svc,
		Sessions: sessions,
		Redis:    rdb,
		Metrics:  m,
		Log:      log,
	})

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
