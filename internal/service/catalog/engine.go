// Package catalog реализует выборки и мутации каталога товаров.
// Offset-выборки кешируются, любая мутация сбрасывает всё пространство
// ключей каталога разом.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/dto"
	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
)

const (
	cachePrefix     = "products:"
	defaultCacheTTL = 5 * time.Minute
)

// ListParams описывает offset-выборку каталога.
type ListParams struct {
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	Descending bool
	Page       int
	PageSize   int
}

// CursorParams описывает cursor-выборку каталога. Cursor действует
// только при сортировке по id, для остальных сортировок игнорируется.
type CursorParams struct {
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	Descending bool
	Cursor     string
	PageSize   int
}

// CreateProductInput — данные нового товара.
type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	IsActive bool
}

// UpdateProductInput — данные обновления. Version — версия, которую
// клиент получил при чтении; расхождение с текущей даёт ErrVersionConflict.
type UpdateProductInput struct {
	Name    string
	Price   decimal.Decimal
	Version int64
}

// Engine — ядро каталога поверх репозитория, кеша и outbox.
type Engine struct {
	products domain.ProductRepository
	cache    domain.Cache
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.CatalogMetrics
	cacheTTL time.Duration
}

// NewEngine создаёт рабочий экземпляр каталога. outbox может быть nil,
// тогда события не публикуются.
func NewEngine(products domain.ProductRepository, cache domain.Cache, outbox domain.OutboxRepository, logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Engine{
		products: products,
		cache:    cache,
		outbox:   outbox,
		logger:   logger,
		metrics:  metrics.NewCatalogMetrics(),
		cacheTTL: defaultCacheTTL,
	}
}

// NewEngineWithoutMetrics создаёт каталог без метрик (для тестов).
func NewEngineWithoutMetrics(products domain.ProductRepository, cache domain.Cache, outbox domain.OutboxRepository, logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Engine{
		products: products,
		cache:    cache,
		outbox:   outbox,
		logger:   logger,
		cacheTTL: defaultCacheTTL,
	}
}

// SetCacheTTL переопределяет время жизни кешированных страниц.
// Неположительное значение игнорируется.
func (e *Engine) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		e.cacheTTL = ttl
	}
}

// ListOffset возвращает страницу каталога с общим количеством строк.
// Результат кешируется на cacheTTL. Размер страницы не ограничивается:
// валидация pageSize — забота вызывающего слоя.
func (e *Engine) ListOffset(ctx context.Context, params ListParams) (dto.PagedResult[dto.Product], error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordQuery("list_offset", time.Since(start))
		}
	}()

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	sortBy := domain.ParseProductSort(params.SortBy)

	compute := func(ctx context.Context) ([]byte, error) {
		products, total, err := e.products.List(ctx, domain.ProductQuery{
			Search:     params.Search,
			MinPrice:   params.MinPrice,
			MaxPrice:   params.MaxPrice,
			ActiveOnly: true,
			SortBy:     sortBy,
			Descending: params.Descending,
			Offset:     (page - 1) * pageSize,
			Limit:      pageSize,
			CountTotal: true,
		})
		if err != nil {
			return nil, err
		}

		result := dto.PagedResult[dto.Product]{
			Items:      dto.FromProducts(products),
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
		}
		return json.Marshal(result)
	}

	var raw []byte
	var err error
	if e.cache != nil {
		key := e.listCacheKey(params, page, pageSize, sortBy)
		raw, err = e.cache.GetOrSet(ctx, key, e.cacheTTL, compute)
	} else {
		raw, err = compute(ctx)
	}
	if err != nil {
		return dto.PagedResult[dto.Product]{}, fmt.Errorf("list products: %w", err)
	}

	var result dto.PagedResult[dto.Product]
	if err := json.Unmarshal(raw, &result); err != nil {
		return dto.PagedResult[dto.Product]{}, fmt.Errorf("decode cached page: %w", err)
	}
	return result, nil
}

// ListCursor возвращает страницу keyset-пагинации. Выборка не
// кешируется: курсорные страницы почти не повторяются между клиентами.
func (e *Engine) ListCursor(ctx context.Context, params CursorParams) (dto.CursorPagedResult[dto.Product], error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordQuery("list_cursor", time.Since(start))
		}
	}()

	pageSize := params.PageSize
	sortBy := domain.ParseProductSort(params.SortBy)

	query := domain.ProductQuery{
		Search:     params.Search,
		MinPrice:   params.MinPrice,
		MaxPrice:   params.MaxPrice,
		ActiveOnly: true,
		SortBy:     sortBy,
		Descending: params.Descending,
		Limit:      pageSize,
	}

	// Курсор осмыслен только при сортировке по id: для других ключей
	// граница по id не задаёт позицию в выдаче.
	cursorApplies := sortBy == domain.ProductSortID
	if cursorApplies {
		if id, ok := decodeCursor(params.Cursor); ok {
			if params.Descending {
				query.BeforeID = &id
			} else {
				query.AfterID = &id
			}
		}
	}

	products, _, err := e.products.List(ctx, query)
	if err != nil {
		return dto.CursorPagedResult[dto.Product]{}, fmt.Errorf("list products by cursor: %w", err)
	}

	result := dto.CursorPagedResult[dto.Product]{
		Items:    dto.FromProducts(products),
		PageSize: pageSize,
	}
	// Курсор выдаётся для любой полной страницы, даже когда сортировка
	// не по id: ограничен по id только фильтр продолжения.
	if len(products) > 0 && len(products) == pageSize {
		result.NextCursor = encodeCursor(products[len(products)-1].ID)
	}
	return result, nil
}

// GetByID возвращает товар или ErrProductNotFound. Неактивный товар
// по прямой ссылке доступен, в выборки он не попадает.
func (e *Engine) GetByID(ctx context.Context, id int64) (dto.Product, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordQuery("get", time.Since(start))
		}
	}()

	product, err := e.products.Get(ctx, id)
	if err != nil {
		return dto.Product{}, err
	}
	return dto.FromProduct(product), nil
}

// Create добавляет товар, сбрасывает кеш и публикует product.created.
func (e *Engine) Create(ctx context.Context, input CreateProductInput, principal domain.Principal) (dto.Product, error) {
	product := domain.Product{
		Name:       strings.TrimSpace(input.Name),
		Price:      input.Price,
		IsActive:   input.IsActive,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  principal.UserID,
		ModifiedBy: principal.UserID,
	}
	if err := validationError(product.ValidateInvariants()); err != nil {
		return dto.Product{}, err
	}

	id, err := e.products.Create(ctx, product)
	if err != nil {
		return dto.Product{}, fmt.Errorf("create product: %w", err)
	}
	product.ID = id
	product.Version = 1

	e.invalidateCache(ctx)
	e.enqueueProductEvent(ctx, kafka.EventTypeProductCreated, product)
	if e.metrics != nil {
		e.metrics.RecordMutation("create")
	}

	e.logger.WithFields(log.Fields{
		"product_id": id,
		"user_id":    principal.UserID,
	}).Info("product created")

	return dto.FromProduct(product), nil
}

// Update изменяет товар и заново активирует его. Version из input
// сверяется с текущей версией записи.
func (e *Engine) Update(ctx context.Context, id int64, input UpdateProductInput, principal domain.Principal) (dto.Product, error) {
	product, err := e.products.Get(ctx, id)
	if err != nil {
		return dto.Product{}, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Price = input.Price
	product.IsActive = true
	product.Version = input.Version
	product.ModifiedBy = principal.UserID
	if err := validationError(product.ValidateInvariants()); err != nil {
		return dto.Product{}, err
	}

	if err := e.products.Save(ctx, product); err != nil {
		return dto.Product{}, err
	}
	product.Version++

	e.invalidateCache(ctx)
	e.enqueueProductEvent(ctx, kafka.EventTypeProductUpdated, product)
	if e.metrics != nil {
		e.metrics.RecordMutation("update")
	}

	e.logger.WithFields(log.Fields{
		"product_id": id,
		"user_id":    principal.UserID,
	}).Info("product updated")

	return dto.FromProduct(product), nil
}

// Delete мягко удаляет товар. Возвращает false, если товара нет или
// он уже удалён.
func (e *Engine) Delete(ctx context.Context, id int64, principal domain.Principal) (bool, error) {
	product, err := e.products.Get(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	product.IsDeleted = true
	product.IsActive = false
	product.ModifiedBy = principal.UserID
	if err := e.products.Save(ctx, product); err != nil {
		return false, err
	}

	e.invalidateCache(ctx)
	e.enqueueProductEvent(ctx, kafka.EventTypeProductDeleted, product)
	if e.metrics != nil {
		e.metrics.RecordMutation("delete")
	}

	e.logger.WithFields(log.Fields{
		"product_id": id,
		"user_id":    principal.UserID,
	}).Info("product deleted")

	return true, nil
}

func (e *Engine) listCacheKey(params ListParams, page, pageSize int, sortBy domain.ProductSort) string {
	minPrice := ""
	if params.MinPrice != nil {
		minPrice = params.MinPrice.String()
	}
	maxPrice := ""
	if params.MaxPrice != nil {
		maxPrice = params.MaxPrice.String()
	}

	return cachePrefix + strings.Join([]string{
		strconv.Itoa(page),
		strconv.Itoa(pageSize),
		strings.ToLower(strings.TrimSpace(params.Search)),
		string(sortBy),
		strconv.FormatBool(params.Descending),
		minPrice,
		maxPrice,
	}, ":")
}

// invalidateCache сбрасывает все закешированные выборки каталога.
// Ошибка кеша не валит мутацию: данные уже сохранены.
func (e *Engine) invalidateCache(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.RemoveByPrefix(ctx, cachePrefix); err != nil {
		e.logger.WithError(err).Warn("failed to invalidate product cache")
	}
}

func (e *Engine) enqueueProductEvent(ctx context.Context, eventType kafka.EventType, product domain.Product) {
	if e.outbox == nil {
		return
	}

	event := kafka.NewProductEvent(eventType, product.ID, product.Name, product.Price.String(), product.IsActive)
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.WithError(err).Warn("failed to marshal product event")
		return
	}

	if _, err := e.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "product",
		AggregateID:   strconv.FormatInt(product.ID, 10),
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		e.logger.WithError(err).WithField("product_id", product.ID).Warn("failed to enqueue product event")
	}
}

func validationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(messages, "; "))
}
