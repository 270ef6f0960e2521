package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// EventType определяет тип события
type EventType string

const (
	// Catalog события
	EventTypeProductCreated EventType = "product.created"
	EventTypeProductUpdated EventType = "product.updated"
	EventTypeProductDeleted EventType = "product.deleted"

	// Order события
	EventTypeOrderCreated   EventType = "order.created"
	EventTypeOrderPaid      EventType = "order.paid"
	EventTypeOrderShipped   EventType = "order.shipped"
	EventTypeOrderCancelled EventType = "order.cancelled"
)

// Topics для Kafka
const (
	TopicProductEvents = "catalog.product.events"
	TopicOrderEvents   = "catalog.order.events"
)

// ProductEvent представляет событие каталога
type ProductEvent struct {
	EventType EventType `json:"event_type"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	IsActive  bool      `json:"is_active"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType EventType `json:"event_type"`
	OrderID   int64     `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Total     string    `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// NewProductEvent создает новое событие каталога
func NewProductEvent(eventType EventType, productID int64, name, price string, isActive bool) *ProductEvent {
	return &ProductEvent{
		EventType: eventType,
		ProductID: productID,
		Name:      name,
		Price:     price,
		IsActive:  isActive,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID int64, userID, status, total string) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		UserID:    userID,
		Status:    status,
		Total:     total,
		Timestamp: time.Now().UTC(),
	}
}

// ParseProductEvent парсит ProductEvent из сообщения
func ParseProductEvent(message *sarama.ConsumerMessage) (*ProductEvent, error) {
	var event ProductEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product event: %w", err)
	}
	return &event, nil
}

// ParseOrderEvent парсит OrderEvent из сообщения
func ParseOrderEvent(message *sarama.ConsumerMessage) (*OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	return &event, nil
}
