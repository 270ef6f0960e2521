// Package dto содержит модели, которые каталог отдаёт наружу.
// Внутренние поля (version, аудит, признак удаления) сюда не попадают.
package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// Product — товар каталога, видимый клиенту.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderItem — позиция заказа. ProductName подставляется по текущему
// каталогу и может быть пустым, если товар удалён.
type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Order — заказ с позициями. Total всегда выводится из позиций.
type Order struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Status    string          `json:"status"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// OwnerID возвращает владельца заказа для проверок доступа.
func (o Order) OwnerID() string {
	return o.UserID
}

// PagedResult — страница offset-пагинации.
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
}

// CursorPagedResult — страница cursor-пагинации. NextCursor пуст,
// когда дальше листать нечего.
type CursorPagedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	PageSize   int    `json:"page_size"`
}

// FromProduct конвертирует доменный товар в DTO.
func FromProduct(product domain.Product) Product {
	return Product{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		IsActive:  product.IsActive,
		CreatedAt: product.CreatedAt,
	}
}

// FromProducts конвертирует срез доменных товаров.
func FromProducts(products []domain.Product) []Product {
	return lo.Map(products, func(product domain.Product, _ int) Product {
		return FromProduct(product)
	})
}

// FromOrder конвертирует доменный заказ в DTO, подставляя названия
// товаров из names.
func FromOrder(order domain.Order, names map[int64]string) Order {
	items := lo.Map(order.Items, func(item domain.OrderItem, _ int) OrderItem {
		return OrderItem{
			ProductID:   item.ProductID,
			ProductName: names[item.ProductID],
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	})

	return Order{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Items:     items,
		Total:     order.Total(),
		CreatedAt: order.CreatedAt,
	}
}

// FromOrders конвертирует срез доменных заказов.
func FromOrders(orders []domain.Order, names map[int64]string) []Order {
	return lo.Map(orders, func(order domain.Order, _ int) Order {
		return FromOrder(order, names)
	})
}
