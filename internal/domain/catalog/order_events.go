package catalog

import (
	"github.com/google/uuid"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated  = "order:created"
	EventTypeOrderPaid     = "order:paid"
	EventTypeOrderExported = "order:exported"
)

// OrderCreatedEvent is published when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
	}
}

// OrderPaidEvent is published when an order payment is confirmed
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(order *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
	}
}

// OrderExportedEvent is published when an order receives its ERP number
type OrderExportedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	ExternalID string    `json:"external_id"`
}

// NewOrderExportedEvent creates a new OrderExportedEvent
func NewOrderExportedEvent(order *Order, externalID string) *OrderExportedEvent {
	return &OrderExportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderExported, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		ExternalID:      externalID,
	}
}
