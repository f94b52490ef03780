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

	"github.com/PedroCamargo-dev/idempotent-transfers-service/internal/config"
	impl_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/ledger"
	impl_memory "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/persistence/memory"
	impl_postgres "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/persistence/postgres"
	impl_redis "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/persistence/redis"
	impl_http "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/http"
	impl_platform "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/platform"
	impl_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/usecase/transfer"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 20 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := impl_platform.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service_stopped", zap.Error(err))
		os.Exit(1)
	}
}

type stores struct {
	uow       port_persistence.UnitOfWork
	transfers port_persistence.TransferRepository
	idem      port_persistence.IdempotencyRepository
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{}

	var pool *pgxpool.Pool
	if cfg.Store == config.BackendPostgres || cfg.Idempotency.Store == config.BackendPostgres {
		p, err := impl_postgres.NewPool(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		pool = p
		s.closers = append(s.closers, pool.Close)

		if cfg.DB.Migrate {
			if err := impl_postgres.Migrate(ctx, pool); err != nil {
				s.close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations_applied")
		}
	}

	switch cfg.Store {
	case config.BackendPostgres:
		s.uow = impl_postgres.NewUnitOfWork(pool)
		s.transfers = impl_postgres.NewTransferStore(pool)
	default:
		s.uow = impl_memory.UnitOfWork{}
		s.transfers = impl_memory.NewTransferStore()
	}

	switch cfg.Idempotency.Store {
	case config.BackendPostgres:
		s.idem = impl_postgres.NewIdempotencyStore(pool)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			s.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		s.idem = impl_redis.NewIdempotencyStore(client, cfg.Idempotency.TTL)
	default:
		s.idem = impl_memory.NewIdempotencyStore()
	}

	logger.Info("stores_ready",
		zap.String("transferStore", cfg.Store),
		zap.String("idempotencyStore", cfg.Idempotency.Store),
	)
	return s, nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	st, err := openStores(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	gateway, err := impl_ledger.NewHTTPGateway(impl_ledger.HTTPConfig{
		BaseURL:        cfg.Ledger.BaseURL,
		ConnectTimeout: cfg.Ledger.ConnectTimeout,
		ReadTimeout:    cfg.Ledger.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("ledger gateway: %w", err)
	}

	ledger := impl_ledger.NewResilientClient(gateway, impl_ledger.ResilientConfig{
		Name:                 "ledger",
		CallTimeout:          cfg.Ledger.CallTimeout,
		FailureRateThreshold: cfg.Breaker.FailureRate,
		MinimumCalls:         cfg.Breaker.MinCalls,
		WindowInterval:       cfg.Breaker.Window,
		OpenDuration:         cfg.Breaker.OpenDuration,
		HalfOpenTrialCalls:   cfg.Breaker.TrialCalls,
		SlowCallThreshold:    cfg.Breaker.SlowCall,
	}, logger)

	clock := impl_platform.SystemClock{}

	create := impl_transfer.NewCreateTransferUsecaseImpl(
		st.uow,
		st.transfers,
		st.idem,
		ledger,
		clock,
		impl_platform.UUIDGenerator{},
		logger,
		impl_transfer.Options{
			IdempotencyTTL:    cfg.Idempotency.TTL,
			PurgeInterval:     cfg.Idempotency.PurgeInterval,
			ClaimWaitTimeout:  cfg.Idempotency.WaitTimeout,
			ClaimPollInterval: cfg.Idempotency.PollInterval,
			ResolveInTx:       cfg.Store == config.BackendPostgres && cfg.Idempotency.Store == config.BackendPostgres,
		},
	)
	get := impl_transfer.NewGetTransferUsecaseImpl(st.transfers)
	batch := impl_transfer.NewBatchCreateTransfersUsecaseImpl(create, clock, logger, impl_transfer.BatchOptions{
		MaxItems:    cfg.Batch.MaxItems,
		Concurrency: cfg.Batch.Concurrency,
	})

	handlers := impl_http.NewHandlers(create, get, batch, ledger, logger)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: impl_http.NewRouter(handlers, logger, cfg.HTTP.MaxInFlight),

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("http_shutdown")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
