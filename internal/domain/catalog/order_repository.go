package catalog

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the persistence contract for orders
type OrderRepository interface {
	// Create persists a new order
	Create(ctx context.Context, order *Order) error

	// Update persists changes to an existing order
	Update(ctx context.Context, order *Order) error

	// FindByID finds an order by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
}
