package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/syncengine/internal/domain/catalog"
)

// GormImageRepository implements catalog.ImageRepository using GORM
type GormImageRepository struct {
	db *gorm.DB
}

var _ catalog.ImageRepository = (*GormImageRepository)(nil)

// NewGormImageRepository creates a new image repository
func NewGormImageRepository(db *gorm.DB) *GormImageRepository {
	return &GormImageRepository{db: db}
}

// ReplaceForOwner atomically replaces all image links of an entity
func (r *GormImageRepository) ReplaceForOwner(ctx context.Context, ownerType catalog.ImageOwner, ownerID uuid.UUID, images []catalog.Image) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
			Delete(&catalog.Image{}).Error; err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace images: %w", err)
	}
	return nil
}

// FindByOwner returns an entity's image links in display order
func (r *GormImageRepository) FindByOwner(ctx context.Context, ownerType catalog.ImageOwner, ownerID uuid.UUID) ([]catalog.Image, error) {
	var images []catalog.Image
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("sort_order ASC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}
