package catalog

import (
	"github.com/google/uuid"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated = "product:created"
	EventTypeProductEdited  = "product:edited"
	EventTypeProductDeleted = "product:deleted"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	CategoryID uuid.UUID `json:"category_id"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		ExternalID:      product.ExternalID,
		Title:           product.Title,
		CategoryID:      product.CategoryID,
	}
}

// ProductEditedEvent is published when a product's fields change
type ProductEditedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
}

// NewProductEditedEvent creates a new ProductEditedEvent
func NewProductEditedEvent(product *Product) *ProductEditedEvent {
	return &ProductEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductEdited, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		ExternalID:      product.ExternalID,
		Title:           product.Title,
	}
}

// ProductDeletedEvent is published when a sweep soft-deletes a product
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	ExternalID string    `json:"external_id"`
	CategoryID uuid.UUID `json:"category_id"`
}

// NewProductDeletedEvent creates a new ProductDeletedEvent
func NewProductDeletedEvent(product *Product) *ProductDeletedEvent {
	return &ProductDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductDeleted, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		ExternalID:      product.ExternalID,
		CategoryID:      product.CategoryID,
	}
}
