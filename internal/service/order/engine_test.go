package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
)

type testEnv struct {
	engine   *Engine
	orders   domain.OrderRepository
	products domain.ProductRepository
	outbox   domain.OutboxRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	orders := memory.NewOrderRepository()
	products := memory.NewProductRepository()
	outbox := memory.NewOutboxRepository()
	return &testEnv{
		engine:   NewEngineWithoutMetrics(orders, products, nil, outbox, nil),
		orders:   orders,
		products: products,
		outbox:   outbox,
	}
}

func (env *testEnv) addProduct(t *testing.T, name, price string, active bool) int64 {
	t.Helper()

	id, err := env.products.Create(context.Background(), domain.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		IsActive: active,
	})
	require.NoError(t, err)
	return id
}

func customer(userID string) domain.Principal {
	return domain.Principal{UserID: userID, Role: domain.RoleCustomer}
}

func admin() domain.Principal {
	return domain.Principal{UserID: "root", Role: domain.RoleAdmin}
}

func TestCreateSnapshotsPrices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Keyboard", "10.00", true)

	created, err := env.engine.Create(ctx, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 2}},
	}, customer("alice"))
	require.NoError(t, err)
	require.True(t, created.Total.Equal(decimal.RequireFromString("20.00")))

	// Изменение цены в каталоге не трогает уже созданный заказ.
	product, err := env.products.Get(ctx, productID)
	require.NoError(t, err)
	product.Price = decimal.RequireFromString("15.00")
	require.NoError(t, env.products.Save(ctx, product))

	got, err := env.engine.GetByID(ctx, created.ID, customer("alice"))
	require.NoError(t, err)
	require.True(t, got.Total.Equal(decimal.RequireFromString("20.00")))
	require.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestCreateRejectsInvalidProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	activeID := env.addProduct(t, "Active", "10.00", true)
	inactiveID := env.addProduct(t, "Inactive", "10.00", false)

	tests := []struct {
		name  string
		items []CreateOrderItemInput
	}{
		{"empty order", nil},
		{"zero quantity", []CreateOrderItemInput{{ProductID: activeID, Quantity: 0}}},
		{"duplicate product", []CreateOrderItemInput{
			{ProductID: activeID, Quantity: 1},
			{ProductID: activeID, Quantity: 2},
		}},
		{"unknown product", []CreateOrderItemInput{{ProductID: 9999, Quantity: 1}}},
		{"inactive product", []CreateOrderItemInput{{ProductID: inactiveID, Quantity: 1}}},
		{"mixed valid and invalid", []CreateOrderItemInput{
			{ProductID: activeID, Quantity: 1},
			{ProductID: 9999, Quantity: 1},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.Create(ctx, CreateOrderInput{Items: tc.items}, customer("alice"))
			require.True(t, domain.IsValidation(err), "got %v", err)
		})
	}

	// Ни один из отклонённых заказов не должен быть сохранён.
	orders, total, err := env.orders.List(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, orders)
}

func TestGetByIDDistinguishesForbiddenFromMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Keyboard", "10.00", true)
	created, err := env.engine.Create(ctx, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
	}, customer("alice"))
	require.NoError(t, err)

	_, err = env.engine.GetByID(ctx, created.ID, customer("bob"))
	require.True(t, domain.IsForbidden(err))

	_, err = env.engine.GetByID(ctx, created.ID+100, customer("bob"))
	require.True(t, domain.IsNotFound(err))

	got, err := env.engine.GetByID(ctx, created.ID, admin())
	require.NoError(t, err)
	require.Equal(t, "Keyboard", got.Items[0].ProductName)
}

func TestCancelMatrix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Keyboard", "10.00", true)

	create := func(t *testing.T) int64 {
		created, err := env.engine.Create(ctx, CreateOrderInput{
			Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
		}, customer("alice"))
		require.NoError(t, err)
		return created.ID
	}

	t.Run("pending cancels", func(t *testing.T) {
		id := create(t)
		ok, err := env.engine.Cancel(ctx, id, customer("alice"))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("paid cancels", func(t *testing.T) {
		id := create(t)
		_, err := env.engine.Pay(ctx, id, customer("alice"))
		require.NoError(t, err)

		ok, err := env.engine.Cancel(ctx, id, customer("alice"))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("shipped does not cancel", func(t *testing.T) {
		id := create(t)
		_, err := env.engine.Pay(ctx, id, customer("alice"))
		require.NoError(t, err)
		_, err = env.engine.Ship(ctx, id, customer("alice"))
		require.NoError(t, err)

		ok, err := env.engine.Cancel(ctx, id, customer("alice"))
		require.NoError(t, err)
		require.False(t, ok)

		got, err := env.engine.GetByID(ctx, id, customer("alice"))
		require.NoError(t, err)
		require.Equal(t, string(domain.OrderStatusShipped), got.Status)
	})

	t.Run("cancelled cancels again", func(t *testing.T) {
		id := create(t)
		ok, err := env.engine.Cancel(ctx, id, customer("alice"))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = env.engine.Cancel(ctx, id, customer("alice"))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("missing order", func(t *testing.T) {
		ok, err := env.engine.Cancel(ctx, 99999, customer("alice"))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		id := create(t)
		_, err := env.engine.Cancel(ctx, id, customer("bob"))
		require.True(t, domain.IsForbidden(err))
	})
}

func TestPayAndShipTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Keyboard", "10.00", true)
	created, err := env.engine.Create(ctx, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
	}, customer("alice"))
	require.NoError(t, err)

	// Отгрузка до оплаты запрещена.
	_, err = env.engine.Ship(ctx, created.ID, customer("alice"))
	require.True(t, domain.IsInvalidTransition(err))

	paid, err := env.engine.Pay(ctx, created.ID, customer("alice"))
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusPaid), paid.Status)

	// Повторная оплата запрещена.
	_, err = env.engine.Pay(ctx, created.ID, customer("alice"))
	require.True(t, domain.IsInvalidTransition(err))

	shipped, err := env.engine.Ship(ctx, created.ID, customer("alice"))
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusShipped), shipped.Status)
}

func TestListScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Keyboard", "10.00", true)
	for _, user := range []string{"alice", "alice", "bob"} {
		_, err := env.engine.Create(ctx, CreateOrderInput{
			Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
		}, customer(user))
		require.NoError(t, err)
	}

	alicePage, err := env.engine.List(ctx, ListParams{}, customer("alice"))
	require.NoError(t, err)
	require.Equal(t, int64(2), alicePage.TotalCount)
	for _, order := range alicePage.Items {
		require.Equal(t, "alice", order.UserID)
	}

	adminPage, err := env.engine.List(ctx, ListParams{}, admin())
	require.NoError(t, err)
	require.Equal(t, int64(3), adminPage.TotalCount)
}

func TestListPageSizePassedThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Keyboard", "10.00", true)
	for i := 0; i < 3; i++ {
		_, err := env.engine.Create(ctx, CreateOrderInput{
			Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
		}, customer("alice"))
		require.NoError(t, err)
	}

	// Запрошенный размер страницы не урезается движком.
	page, err := env.engine.List(ctx, ListParams{Page: 1, PageSize: 150}, customer("alice"))
	require.NoError(t, err)
	require.Equal(t, 150, page.PageSize)
	require.Len(t, page.Items, 3)
}

// staleReadOrderRepository отдаёт заказ с отставшей версией, имитируя
// конкурентную запись между чтением и сохранением.
type staleReadOrderRepository struct {
	domain.OrderRepository
	stale bool
}

func (r *staleReadOrderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	order, err := r.OrderRepository.Get(ctx, id)
	if err == nil && r.stale {
		order.Version--
	}
	return order, err
}

func TestPayAndShipSurfaceVersionConflict(t *testing.T) {
	ctx := context.Background()
	orders := &staleReadOrderRepository{OrderRepository: memory.NewOrderRepository()}
	products := memory.NewProductRepository()
	engine := NewEngineWithoutMetrics(orders, products, nil, memory.NewOutboxRepository(), nil)

	productID, err := products.Create(ctx, domain.Product{
		Name:     "Keyboard",
		Price:    decimal.RequireFromString("10.00"),
		IsActive: true,
	})
	require.NoError(t, err)

	created, err := engine.Create(ctx, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
	}, customer("alice"))
	require.NoError(t, err)

	// Сохранение со старой версией не применяется и отдаёт конфликт.
	orders.stale = true
	_, err = engine.Pay(ctx, created.ID, customer("alice"))
	require.True(t, domain.IsVersionConflict(err), "got %v", err)

	orders.stale = false
	got, err := engine.GetByID(ctx, created.ID, customer("alice"))
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusPending), got.Status)

	_, err = engine.Pay(ctx, created.ID, customer("alice"))
	require.NoError(t, err)

	orders.stale = true
	_, err = engine.Ship(ctx, created.ID, customer("alice"))
	require.True(t, domain.IsVersionConflict(err), "got %v", err)
}

func TestOrderKeepsDeletedProductWithoutName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Ephemeral", "10.00", true)
	created, err := env.engine.Create(ctx, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
	}, customer("alice"))
	require.NoError(t, err)

	product, err := env.products.Get(ctx, productID)
	require.NoError(t, err)
	product.IsDeleted = true
	require.NoError(t, env.products.Save(ctx, product))

	got, err := env.engine.GetByID(ctx, created.ID, customer("alice"))
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Empty(t, got.Items[0].ProductName)
	require.True(t, got.Total.Equal(decimal.RequireFromString("10.00")))
}

func TestCreateEnqueuesOrderEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := env.addProduct(t, "Keyboard", "10.00", true)
	created, err := env.engine.Create(ctx, CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: productID, Quantity: 1}},
	}, customer("alice"))
	require.NoError(t, err)

	_, err = env.engine.Pay(ctx, created.ID, customer("alice"))
	require.NoError(t, err)

	pending, err := env.outbox.PullPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "order.created", pending[0].EventType)
	require.Equal(t, "order.paid", pending[1].EventType)
}
