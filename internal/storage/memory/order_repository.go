package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu         sync.RWMutex
	items      map[int64]domain.Order
	nextID     int64
	nextItemID int64
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:      make(map[int64]domain.Order),
		nextID:     1,
		nextItemID: 1,
	}
}

// Create сохраняет заказ вместе с позициями одним действием.
func (r *orderRepositoryInMemory) Create(ctx context.Context, order domain.Order) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++
	order.Version = 1
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.ModifiedAt = order.CreatedAt

	// Позиции принадлежат заказу: присваиваем им идентификаторы и back-reference.
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	for i := range items {
		items[i].ID = r.nextItemID
		r.nextItemID++
		items[i].OrderID = order.ID
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = order.CreatedAt
		}
	}
	order.Items = items

	r.items[order.ID] = order
	return order.ID, nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет или он удалён.
func (r *orderRepositoryInMemory) Get(ctx context.Context, id int64) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok || order.IsDeleted {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает неудалённые заказы, отсортированные по id по убыванию,
// и общее количество под фильтром.
func (r *orderRepositoryInMemory) List(ctx context.Context, query domain.OrderQuery) ([]domain.Order, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	matched := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.IsDeleted {
			continue
		}
		if query.UserID != "" && order.UserID != query.UserID {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[query.Offset:]
		}
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	return matched, total, nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
// Позиции неизменяемы и не перезаписываются.
func (r *orderRepositoryInMemory) Save(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok || current.IsDeleted {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrVersionConflict
	}

	current.Status = order.Status
	current.IsDeleted = order.IsDeleted
	current.ModifiedBy = order.ModifiedBy
	current.ModifiedAt = time.Now().UTC()
	current.Version++
	r.items[order.ID] = current
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
