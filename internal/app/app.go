package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"orders/internal/domain"
	"orders/internal/health"
	"orders/internal/metrics"
	"orders/internal/service/rest"
	"orders/internal/storage/memory"
	"orders/internal/storage/postgres"
	"orders/internal/storage/sqlite"
	"orders/internal/version"
)

// Run собирает зависимости сервиса и запускает HTTP-сервер.
// Возвращает управление после остановки сервера по отмене контекста.
func Run(ctx context.Context, cfg Config, logger *log.Entry) error {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	healthHandler := health.NewHandler(version.GetVersion())

	repo, cleanup, err := buildRepository(ctx, cfg, healthHandler)
	if err != nil {
		return fmt.Errorf("failed to build repository: %w", err)
	}
	defer cleanup()

	logger.WithFields(log.Fields{
		"storage_driver": cfg.StorageDriver,
		"http_addr":      cfg.HTTPAddr,
	}).Info("сервис заказов собран")

	srv := rest.NewServer(cfg.HTTPAddr, repo, metrics.NewOrderMetrics(), healthHandler, logger)
	return srv.Run(ctx)
}

// buildRepository создаёт репозиторий по выбранному драйверу. Инициализация
// схемы выполняется до приёма трафика: без таблиц запуск не имеет смысла.
func buildRepository(ctx context.Context, cfg Config, healthHandler *health.Handler) (domain.OrderRepository, func(), error) {
	switch cfg.StorageDriver {
	case DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		healthHandler.RegisterChecker("storage", health.NewSimpleChecker("storage", func() error {
			return store.Ping(context.Background())
		}))
		return sqlite.NewOrderRepository(store), func() { _ = store.Close() }, nil

	case DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		healthHandler.RegisterChecker("storage", health.NewSimpleChecker("storage", func() error {
			return store.Ping(context.Background())
		}))
		return postgres.NewOrderRepository(store), func() { _ = store.Close() }, nil

	case DriverMemory:
		healthHandler.RegisterChecker("storage", health.NewSimpleChecker("storage", func() error {
			return nil
		}))
		return memory.NewOrderRepository(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %q", cfg.StorageDriver)
	}
}
