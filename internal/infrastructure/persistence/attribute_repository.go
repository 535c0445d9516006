package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
)

// GormAttributeRepository implements catalog.AttributeRepository using GORM
type GormAttributeRepository struct {
	db *gorm.DB
}

var _ catalog.AttributeRepository = (*GormAttributeRepository)(nil)

// NewGormAttributeRepository creates a new attribute repository
func NewGormAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// Create persists a new attribute
func (r *GormAttributeRepository) Create(ctx context.Context, attribute *catalog.Attribute) error {
	if err := r.db.WithContext(ctx).Create(attribute).Error; err != nil {
		return fmt.Errorf("failed to create attribute: %w", err)
	}
	return nil
}

// FindByAddress finds an attribute by its stable address key
func (r *GormAttributeRepository) FindByAddress(ctx context.Context, address string) (*catalog.Attribute, error) {
	var attribute catalog.Attribute
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&attribute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find attribute: %w", err)
	}
	return &attribute, nil
}
