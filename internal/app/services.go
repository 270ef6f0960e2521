package app

import (
	"github.com/vladislavdragonenkov/catalog/internal/service/catalog"
	"github.com/vladislavdragonenkov/catalog/internal/service/order"
)

// Services — собранные движки приложения. Транспортный слой (HTTP, gRPC)
// подключается поверх них как внешний коллаборатор.
type Services struct {
	Catalog *catalog.Engine
	Orders  *order.Engine
}

// NewServices связывает движки с зависимостями и настройками.
func NewServices(deps *Dependencies, cfg Config) *Services {
	catalogEngine := catalog.NewEngine(
		deps.Products,
		deps.Cache,
		deps.Outbox,
		deps.Logger.WithField("component", "catalog"),
	)
	catalogEngine.SetCacheTTL(cfg.CacheTTL)

	orderEngine := order.NewEngine(
		deps.Orders,
		deps.Products,
		deps.Authorizer,
		deps.Outbox,
		deps.Logger.WithField("component", "order"),
	)

	return &Services{
		Catalog: catalogEngine,
		Orders:  orderEngine,
	}
}
