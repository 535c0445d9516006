package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
)

// GormOrderRepository implements catalog.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ catalog.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new order
func (r *GormOrderRepository) Create(ctx context.Context, order *catalog.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update persists changes to an existing order
func (r *GormOrderRepository) Update(ctx context.Context, order *catalog.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// FindByID finds an order by its local ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Order, error) {
	var order catalog.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}
