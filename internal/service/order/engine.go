// Package order реализует жизненный цикл заказа: создание со снимком
// цен, переходы статусов и выборки с проверкой доступа.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/dto"
	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/authz"
)

// CreateOrderItemInput — позиция нового заказа.
type CreateOrderItemInput struct {
	ProductID int64
	Quantity  int32
}

// CreateOrderInput — данные нового заказа. Владелец берётся из принципала.
type CreateOrderInput struct {
	Items []CreateOrderItemInput
}

// ListParams описывает выборку заказов.
type ListParams struct {
	Page     int
	PageSize int
}

// Engine — ядро заказов поверх репозиториев, авторизации и outbox.
type Engine struct {
	orders     domain.OrderRepository
	products   domain.ProductRepository
	authorizer *authz.Authorizer
	outbox     domain.OutboxRepository
	logger     *log.Entry
	metrics    *metrics.OrderMetrics
}

// NewEngine создаёт рабочий экземпляр. outbox может быть nil,
// тогда события не публикуются.
func NewEngine(orders domain.OrderRepository, products domain.ProductRepository, authorizer *authz.Authorizer, outbox domain.OutboxRepository, logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "order")
	}
	if authorizer == nil {
		authorizer = authz.NewAuthorizer()
	}
	return &Engine{
		orders:     orders,
		products:   products,
		authorizer: authorizer,
		outbox:     outbox,
		logger:     logger,
		metrics:    metrics.NewOrderMetrics(),
	}
}

// NewEngineWithoutMetrics создаёт ядро заказов без метрик (для тестов).
func NewEngineWithoutMetrics(orders domain.OrderRepository, products domain.ProductRepository, authorizer *authz.Authorizer, outbox domain.OutboxRepository, logger *log.Entry) *Engine {
	engine := NewEngine(orders, products, authorizer, outbox, logger)
	engine.metrics = nil
	return engine
}

// Create создаёт заказ в статусе pending. Цена каждой позиции
// снимается с товара в момент создания и дальше не меняется.
func (e *Engine) Create(ctx context.Context, input CreateOrderInput, principal domain.Principal) (dto.Order, error) {
	start := time.Now()

	if len(input.Items) == 0 {
		return dto.Order{}, fmt.Errorf("%w: order must contain at least one item", domain.ErrValidation)
	}

	ids := make([]int64, 0, len(input.Items))
	seen := make(map[int64]struct{}, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return dto.Order{}, fmt.Errorf("%w: item quantity must be greater than zero", domain.ErrValidation)
		}
		if _, ok := seen[item.ProductID]; ok {
			return dto.Order{}, fmt.Errorf("%w: duplicate product %d in order", domain.ErrValidation, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := e.products.FindActive(ctx, ids)
	if err != nil {
		return dto.Order{}, fmt.Errorf("load products for order: %w", err)
	}
	if len(products) != len(ids) {
		// Какие-то товары не существуют, удалены или неактивны.
		// Заказ не создаётся целиком.
		return dto.Order{}, fmt.Errorf("%w: one or more products invalid or inactive", domain.ErrValidation)
	}

	priceByID := make(map[int64]domain.Product, len(products))
	for _, product := range products {
		priceByID[product.ID] = product
	}

	now := time.Now().UTC()
	order := domain.Order{
		UserID:     principal.UserID,
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		CreatedBy:  principal.UserID,
		ModifiedBy: principal.UserID,
	}
	for _, item := range input.Items {
		product := priceByID[item.ProductID]
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			CreatedAt: now,
		})
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return dto.Order{}, fmt.Errorf("%w: %v", domain.ErrValidation, errs[0])
	}

	id, err := e.orders.Create(ctx, order)
	if err != nil {
		return dto.Order{}, fmt.Errorf("create order: %w", err)
	}
	order.ID = id
	order.Version = 1
	for i := range order.Items {
		order.Items[i].OrderID = id
	}

	e.enqueueOrderEvent(ctx, kafka.EventTypeOrderCreated, order)
	if e.metrics != nil {
		e.metrics.RecordCreated(time.Since(start))
	}

	e.logger.WithFields(log.Fields{
		"order_id": id,
		"user_id":  principal.UserID,
		"items":    len(order.Items),
	}).Info("order created")

	return e.toDTO(ctx, order), nil
}

// GetByID возвращает заказ. Доступ проверяется после загрузки:
// чужой существующий заказ отвечает ErrForbidden, отсутствующий —
// ErrOrderNotFound.
func (e *Engine) GetByID(ctx context.Context, id int64, principal domain.Principal) (dto.Order, error) {
	order, err := e.orders.Get(ctx, id)
	if err != nil {
		return dto.Order{}, err
	}

	if err := e.authorizer.Authorize(authz.CapabilityViewOrder, principal, &order); err != nil {
		return dto.Order{}, err
	}

	return e.toDTO(ctx, order), nil
}

// List возвращает заказы принципала. Администратор видит все заказы.
// Размер страницы передаётся в хранилище как есть, без ограничения.
func (e *Engine) List(ctx context.Context, params ListParams, principal domain.Principal) (dto.PagedResult[dto.Order], error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize

	query := domain.OrderQuery{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if !principal.IsAdmin() {
		query.UserID = principal.UserID
	}

	orders, total, err := e.orders.List(ctx, query)
	if err != nil {
		return dto.PagedResult[dto.Order]{}, fmt.Errorf("list orders: %w", err)
	}

	names, err := e.resolveNames(ctx, orders)
	if err != nil {
		return dto.PagedResult[dto.Order]{}, err
	}

	return dto.PagedResult[dto.Order]{
		Items:      dto.FromOrders(orders, names),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}, nil
}

// Cancel отменяет заказ. Возвращает false без ошибки, если заказа нет
// или отмена из текущего статуса запрещена. Чужой заказ отвечает
// ErrForbidden, а не "не найдено": так владелец ресурса отличим от
// постороннего.
func (e *Engine) Cancel(ctx context.Context, id int64, principal domain.Principal) (bool, error) {
	order, err := e.orders.Get(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if err := e.authorizer.Authorize(authz.CapabilityCancelOrder, principal, &order); err != nil {
		return false, err
	}

	if err := order.Cancel(); err != nil {
		if e.metrics != nil {
			e.metrics.RecordTransitionRejected(string(domain.OrderStatusCancelled))
		}
		e.logger.WithFields(log.Fields{
			"order_id": id,
			"status":   order.Status,
		}).Info("cancel rejected by status")
		return false, nil
	}

	order.ModifiedBy = principal.UserID
	if err := e.orders.Save(ctx, order); err != nil {
		return false, err
	}

	e.enqueueOrderEvent(ctx, kafka.EventTypeOrderCancelled, order)
	if e.metrics != nil {
		e.metrics.RecordTransition(string(domain.OrderStatusCancelled))
	}

	e.logger.WithFields(log.Fields{
		"order_id": id,
		"user_id":  principal.UserID,
	}).Info("order cancelled")

	return true, nil
}

// Pay переводит заказ pending → paid.
func (e *Engine) Pay(ctx context.Context, id int64, principal domain.Principal) (dto.Order, error) {
	return e.transition(ctx, id, principal, kafka.EventTypeOrderPaid, domain.OrderStatusPaid, (*domain.Order).MarkPaid)
}

// Ship переводит заказ paid → shipped.
func (e *Engine) Ship(ctx context.Context, id int64, principal domain.Principal) (dto.Order, error) {
	return e.transition(ctx, id, principal, kafka.EventTypeOrderShipped, domain.OrderStatusShipped, (*domain.Order).Ship)
}

func (e *Engine) transition(ctx context.Context, id int64, principal domain.Principal, eventType kafka.EventType, target domain.OrderStatus, apply func(*domain.Order) error) (dto.Order, error) {
	order, err := e.orders.Get(ctx, id)
	if err != nil {
		return dto.Order{}, err
	}

	if err := e.authorizer.Authorize(authz.CapabilityViewOrder, principal, &order); err != nil {
		return dto.Order{}, err
	}

	if err := apply(&order); err != nil {
		if e.metrics != nil {
			e.metrics.RecordTransitionRejected(string(target))
		}
		return dto.Order{}, fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, id, order.Status)
	}

	order.ModifiedBy = principal.UserID
	if err := e.orders.Save(ctx, order); err != nil {
		return dto.Order{}, err
	}
	order.Version++

	e.enqueueOrderEvent(ctx, eventType, order)
	if e.metrics != nil {
		e.metrics.RecordTransition(string(order.Status))
	}

	e.logger.WithFields(log.Fields{
		"order_id": id,
		"status":   order.Status,
		"user_id":  principal.UserID,
	}).Info("order status changed")

	return e.toDTO(ctx, order), nil
}

func (e *Engine) toDTO(ctx context.Context, order domain.Order) dto.Order {
	names, err := e.resolveNames(ctx, []domain.Order{order})
	if err != nil {
		// Названия — косметика, заказ валиден и без них.
		e.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to resolve product names")
		names = map[int64]string{}
	}
	return dto.FromOrder(order, names)
}

func (e *Engine) resolveNames(ctx context.Context, orders []domain.Order) (map[int64]string, error) {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, order := range orders {
		for _, item := range order.Items {
			if _, ok := seen[item.ProductID]; ok {
				continue
			}
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	names, err := e.products.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve product names: %w", err)
	}
	return names, nil
}

func (e *Engine) enqueueOrderEvent(ctx context.Context, eventType kafka.EventType, order domain.Order) {
	if e.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), order.Total().String())
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.WithError(err).Warn("failed to marshal order event")
		return
	}

	if _, err := e.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order event")
	}
}
