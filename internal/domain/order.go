package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не зафиксирована.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid — оплата зафиксирована. Интеграция с платёжным
	// провайдером вне ядра, это смена метки.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusShipped — заказ отгружен; терминальный статус.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem представляет одну позицию заказа. UnitPrice — снимок цены товара
// на момент создания заказа; последующие изменения цены товара его не меняют.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int32
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции. Позиции принадлежат заказу
// и создаются/удаляются вместе с ним.
type Order struct {
	ID     int64
	UserID string
	Status OrderStatus
	Items  []OrderItem

	IsDeleted bool
	// Version — непрозрачный токен optimistic concurrency.
	Version    int64
	CreatedAt  time.Time
	CreatedBy  string
	ModifiedAt time.Time
	ModifiedBy string
}

// OwnerID возвращает владельца заказа для политик авторизации.
func (o *Order) OwnerID() string {
	return o.UserID
}

// Total — производная сумма заказа: Σ(unit_price × quantity). Не хранится.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return total
}

// MarkPaid переводит заказ Pending → Paid. Предусловий, кроме исходного
// статуса, нет.
func (o *Order) MarkPaid() error {
	if o.Status != OrderStatusPending {
		return ErrInvalidTransition
	}
	o.Status = OrderStatusPaid
	return nil
}

// Ship переводит заказ Paid → Shipped. Из любого другого статуса переход запрещён.
func (o *Order) Ship() error {
	if o.Status != OrderStatusPaid {
		return ErrInvalidTransition
	}
	o.Status = OrderStatusShipped
	return nil
}

// Cancel разрешён из любого статуса, кроме Shipped.
func (o *Order) Cancel() error {
	if o.Status == OrderStatusShipped {
		return ErrInvalidTransition
	}
	o.Status = OrderStatusCancelled
	return nil
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
	}

	return errs
}
