package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductSort перечисляет допустимые ключи сортировки каталога.
type ProductSort string

const (
	ProductSortID    ProductSort = "id"
	ProductSortName  ProductSort = "name"
	ProductSortPrice ProductSort = "price"
)

// ParseProductSort приводит произвольную строку к ключу сортировки.
// Неизвестные значения откатываются к сортировке по id.
func ParseProductSort(s string) ProductSort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ProductSortName):
		return ProductSortName
	case string(ProductSortPrice):
		return ProductSortPrice
	default:
		return ProductSortID
	}
}

// ProductQuery описывает фильтры и срез выборки каталога. Семантика между
// полями — AND. Предикат soft delete всегда добавляется реализацией хранилища,
// обходного пути нет.
type ProductQuery struct {
	// Search — регистронезависимый поиск подстроки в названии.
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	// ActiveOnly дополнительно отфильтровывает неактивные товары.
	ActiveOnly bool

	SortBy     ProductSort
	Descending bool

	// Offset/Limit — offset-пагинация. Limit <= 0 означает "без ограничения".
	Offset int
	Limit  int

	// AfterID/BeforeID — keyset-границы для cursor-пагинации.
	// Осмысленны только при сортировке по id.
	AfterID  *int64
	BeforeID *int64

	// CountTotal включает подсчёт общего количества строк под фильтром.
	// Cursor-выборкам он не нужен.
	CountTotal bool
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	// Create сохраняет новый товар и возвращает присвоенный идентификатор.
	Create(ctx context.Context, product Product) (int64, error)
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(ctx context.Context, id int64) (Product, error)
	// List возвращает товары по запросу и общее количество строк под
	// фильтром (0, если CountTotal выключен).
	List(ctx context.Context, query ProductQuery) ([]Product, int64, error)
	// Save применяет обновление с учётом optimistic locking.
	Save(ctx context.Context, product Product) error
	// FindActive возвращает активные неудалённые товары из набора идентификаторов.
	FindActive(ctx context.Context, ids []int64) ([]Product, error)
	// NamesByIDs возвращает текущие названия неудалённых товаров для
	// отображения позиций заказа.
	NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
}

// OrderQuery описывает выборку заказов. Сортировка фиксирована: id по убыванию.
type OrderQuery struct {
	// UserID ограничивает выборку владельцем; пустое значение — все заказы.
	UserID string
	Offset int
	Limit  int
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет заказ вместе с позициями в одной транзакции и
	// возвращает присвоенный идентификатор.
	Create(ctx context.Context, order Order) (int64, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (Order, error)
	// List возвращает неудалённые заказы и их общее количество.
	List(ctx context.Context, query OrderQuery) ([]Order, int64, error)
	// Save применяет обновление заказа с учётом optimistic locking.
	Save(ctx context.Context, order Order) error
}

// Cache — cache-aside хранилище значений с TTL и массовой инвалидацией по префиксу.
type Cache interface {
	// GetOrSet возвращает значение по ключу; при промахе вычисляет его,
	// сохраняет с ttl и возвращает.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error)
	// Remove удаляет один ключ.
	Remove(ctx context.Context, key string) error
	// RemoveByPrefix удаляет все ключи с заданным префиксом.
	RemoveByPrefix(ctx context.Context, prefix string) error
}

// OutboxMessage хранит данные публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}
