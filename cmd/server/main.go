package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/acctledger/internal/adapter/http"
	"github.com/iho/acctledger/internal/adapter/http/handler"
	"github.com/iho/acctledger/internal/adapter/http/middleware"
	"github.com/iho/acctledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/acctledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/acctledger/internal/adapter/repository/redis"
	"github.com/iho/acctledger/internal/infrastructure/config"
	"github.com/iho/acctledger/internal/infrastructure/eventpublisher"
	"github.com/iho/acctledger/internal/infrastructure/idgen"
	"github.com/iho/acctledger/internal/infrastructure/logger"
	"github.com/iho/acctledger/internal/infrastructure/metrics"
	"github.com/iho/acctledger/internal/infrastructure/postgres"
	"github.com/iho/acctledger/internal/infrastructure/redis"
	"github.com/iho/acctledger/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrateCommand(cfg, log, os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}

		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	application, err := newApp(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer application.Close()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      application.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	if application.limiter != nil {
		go sweepLimiters(ctx, application.limiter)
	}

	serveErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")

	return nil
}

// migrateCommand runs `migrate [up|down]` against the configured database.
// Down rolls back one migration.
func migrateCommand(cfg *config.Config, log zerolog.Logger, args []string) error {
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.StorageDriverPostgres)
	}

	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	switch direction {
	case "up":
		return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log)
	case "down":
		return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, log)
	default:
		return fmt.Errorf("unknown migrate direction %q, want up or down", direction)
	}
}

func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.CleanupLimiters(limiterIdleTimeout)
		}
	}
}

// app is the fully wired HTTP application.
type app struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type storage struct {
	txManager    usecase.TxManager
	accounts     usecase.AccountRepository
	transactions usecase.TransactionRepository
	retrier      usecase.Retrier
	check        handler.HealthCheck
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg *prometheus.Registry) (_ *app, err error) {
	application := &app{}
	defer func() {
		if err != nil {
			application.Close()
		}
	}()

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	checks := map[string]handler.HealthCheck{}

	store, err := openStorage(ctx, cfg, log, application)
	if err != nil {
		return nil, err
	}
	checks[cfg.StorageDriver] = store.check

	accountOpts := []usecase.AccountOption{usecase.WithAccountMetrics(m)}
	transferOpts := []usecase.TransferOption{
		usecase.WithTransferMetrics(m),
		usecase.WithTransferLogger(log),
	}

	if store.retrier != nil {
		transferOpts = append(transferOpts, usecase.WithRetrier(store.retrier))
	}

	var idempotency *middleware.IdempotencyMiddleware

	// Redis backs the slug cache and idempotency keys when configured.
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, redis.ClientConfig{URL: cfg.RedisURL, DialTimeout: 5 * time.Second})
		if err != nil {
			return nil, err
		}
		application.closers = append(application.closers, func() { client.Close() })
		log.Info().Msg("connected to redis")

		checks["redis"] = redis.Pinger(client)
		accountOpts = append(accountOpts, usecase.WithSlugCache(redisRepo.NewSlugCache(client, cfg.SlugCacheTTL)))
		idempotency = middleware.NewIdempotencyMiddleware(redisRepo.NewIdempotencyStore(client), cfg.IdempotencyTTL, log)
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := eventpublisher.NewKafkaPublisher(eventpublisher.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Timeout: cfg.KafkaTimeout,
		})
		application.closers = append(application.closers, func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close kafka writer")
			}
		})
		transferOpts = append(transferOpts, usecase.WithEventPublisher(publisher))
	} else {
		transferOpts = append(transferOpts, usecase.WithEventPublisher(eventpublisher.NewLogPublisher(log)))
	}

	// Initialize use cases
	idGen := idgen.NewULIDGenerator()
	slugGen := usecase.NewSlugGenerator(idgen.NewHexSuffixSource(8))

	accountUC := usecase.NewAccountUseCase(store.txManager, store.accounts, store.transactions, idgen.NewUUIDGenerator(), slugGen, accountOpts...)
	transferUC := usecase.NewTransferUseCase(store.txManager, store.accounts, store.transactions, idGen, transferOpts...)
	importUC := usecase.NewImportUseCase(accountUC, usecase.WithImportMetrics(m), usecase.WithImportLogger(log))

	if cfg.RateLimitRPS > 0 {
		application.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, middleware.WithOnLimited(m.RateLimited))
	}

	// Create router
	application.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		TransactionHandler:    handler.NewTransactionHandler(transferUC, accountUC),
		ImportHandler:         handler.NewImportHandler(importUC, cfg.ImportMaxBytes),
		LedgerHandler:         handler.NewLedgerHandler(accountUC),
		HealthHandler:         handler.NewHealthHandler(checks),
		Logger:                log,
		IdempotencyMiddleware: idempotency,
		RateLimiter:           application.limiter,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	return application, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, application *app) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		store := memory.NewStore()
		log.Warn().Msg("using in-memory storage; data is lost on restart")

		return &storage{
			txManager:    store,
			accounts:     memory.NewAccountRepository(store),
			transactions: memory.NewTransactionRepository(store),
			check:        store.Ping,
		}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, err
	}
	application.closers = append(application.closers, pool.Close)
	log.Info().Msg("connected to postgres")

	return &storage{
		txManager:    postgresRepo.NewTxManager(pool),
		accounts:     postgresRepo.NewAccountRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		retrier:      postgresRepo.NewRetrier(log),
		check:        pool.Ping,
	}, nil
}
