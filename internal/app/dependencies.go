package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/cache"
	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/authz"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
	"github.com/vladislavdragonenkov/catalog/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Products   domain.ProductRepository
	Orders     domain.OrderRepository
	Outbox     domain.OutboxRepository
	Cache      *cache.Memory
	Authorizer *authz.Authorizer
	Logger     *log.Entry

	store *postgres.Store // nil при in-memory хранилище
}

// NewDependencies создаёт и инициализирует все зависимости приложения.
// Пустой DSN означает in-memory хранилище (development/demo), непустой —
// PostgreSQL с автоприменением миграций.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Cache: cache.NewMemory(
			cache.WithLogger(logger.WithField("component", "cache")),
			cache.WithMetrics(metrics.NewCacheMetrics()),
		),
		Authorizer: authz.NewAuthorizer(),
		Logger:     logger,
	}

	if cfg.PostgresDSN == "" {
		logger.Info("postgres DSN не задан, используем in-memory хранилище")
		deps.Products = memory.NewProductRepository()
		deps.Orders = memory.NewOrderRepository()
		deps.Outbox = memory.NewOutboxRepository()
		return deps, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized, migrations applied")

	deps.store = store
	deps.Products = postgres.NewProductRepository(store)
	deps.Orders = postgres.NewOrderRepository(store)
	deps.Outbox = postgres.NewOutboxRepository(store)
	return deps, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}
