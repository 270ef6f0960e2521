package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// productRepositoryInMemory — простая in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	mu     sync.RWMutex
	items  map[int64]domain.Product
	nextID int64
}

// NewProductRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items:  make(map[int64]domain.Product),
		nextID: 1,
	}
}

// Create сохраняет новый товар, присваивая следующий идентификатор.
// Идентификаторы не переиспользуются даже после удаления.
func (r *productRepositoryInMemory) Create(ctx context.Context, product domain.Product) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = r.nextID
	r.nextID++
	product.Version = 1
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.ModifiedAt = product.CreatedAt
	r.items[product.ID] = product
	return product.ID, nil
}

// Get возвращает товар или ErrProductNotFound, если его нет или он удалён.
func (r *productRepositoryInMemory) Get(ctx context.Context, id int64) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok || product.IsDeleted {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает выборку по запросу. Предикат soft delete применяется всегда.
func (r *productRepositoryInMemory) List(ctx context.Context, query domain.ProductQuery) ([]domain.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		if matchesQuery(product, query) {
			matched = append(matched, product)
		}
	}
	r.mu.RUnlock()

	sortProducts(matched, query.SortBy, query.Descending)

	var total int64
	if query.CountTotal {
		total = int64(len(matched))
	}

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

	out := make([]domain.Product, len(matched))
	copy(out, matched)
	return out, total, nil
}

// Save перезаписывает товар, проверяя версию (optimistic locking).
func (r *productRepositoryInMemory) Save(ctx context.Context, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[product.ID]
	if !ok || current.IsDeleted {
		return domain.ErrProductNotFound
	}
	if current.Version != product.Version {
		return domain.ErrVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	product.Version++
	product.ModifiedAt = time.Now().UTC()
	r.items[product.ID] = product
	return nil
}

// FindActive возвращает активные неудалённые товары из набора идентификаторов.
func (r *productRepositoryInMemory) FindActive(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		product, ok := r.items[id]
		if !ok || product.IsDeleted || !product.IsActive {
			continue
		}
		result = append(result, product)
	}
	return result, nil
}

// NamesByIDs возвращает текущие названия неудалённых товаров.
func (r *productRepositoryInMemory) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		product, ok := r.items[id]
		if !ok || product.IsDeleted {
			continue
		}
		names[id] = product.Name
	}
	return names, nil
}

func matchesQuery(product domain.Product, query domain.ProductQuery) bool {
	if product.IsDeleted {
		return false
	}
	if query.ActiveOnly && !product.IsActive {
		return false
	}
	if query.Search != "" {
		term := strings.ToLower(strings.TrimSpace(query.Search))
		if !strings.Contains(strings.ToLower(product.Name), term) {
			return false
		}
	}
	if query.MinPrice != nil && product.Price.LessThan(*query.MinPrice) {
		return false
	}
	if query.MaxPrice != nil && product.Price.GreaterThan(*query.MaxPrice) {
		return false
	}
	if query.AfterID != nil && product.ID <= *query.AfterID {
		return false
	}
	if query.BeforeID != nil && product.ID >= *query.BeforeID {
		return false
	}
	return true
}

func sortProducts(products []domain.Product, sortBy domain.ProductSort, descending bool) {
	less := func(i, j int) bool {
		switch sortBy {
		case domain.ProductSortName:
			a, b := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
			if a != b {
				return a < b
			}
		case domain.ProductSortPrice:
			if cmp := products[i].Price.Cmp(products[j].Price); cmp != 0 {
				return cmp < 0
			}
		}
		return products[i].ID < products[j].ID
	}

	if descending {
		sort.SliceStable(products, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(products, less)
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
