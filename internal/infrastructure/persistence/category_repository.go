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

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)

// NewGormCategoryRepository creates a new category repository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// Create persists a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update persists changes to an existing category
func (r *GormCategoryRepository) Update(ctx context.Context, category *catalog.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// FindByID finds a category by its local ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

// FindByExternalID finds a category by sync source and external id
func (r *GormCategoryRepository) FindByExternalID(ctx context.Context, source, externalID string) (*catalog.Category, error) {
	var category catalog.Category
	err := r.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", source, externalID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category by external id: %w", err)
	}
	return &category, nil
}

// FindByTitle finds a category by exact title within a source
func (r *GormCategoryRepository) FindByTitle(ctx context.Context, source, title string) (*catalog.Category, error) {
	var category catalog.Category
	err := r.db.WithContext(ctx).
		Where("source = ? AND title = ?", source, title).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category by title: %w", err)
	}
	return &category, nil
}

// FindByAddress finds a category by its address slug
func (r *GormCategoryRepository) FindByAddress(ctx context.Context, address string) (*catalog.Category, error) {
	var category catalog.Category
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category by address: %w", err)
	}
	return &category, nil
}

// FindBySourceAndStatus returns all categories of a source in the given status
func (r *GormCategoryRepository) FindBySourceAndStatus(ctx context.Context, source string, status catalog.EntityStatus) ([]catalog.Category, error) {
	var categories []catalog.Category
	err := r.db.WithContext(ctx).
		Where("source = ? AND status = ?", source, status).
		Order("sort_order ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// FindChildren returns the direct children of a category
func (r *GormCategoryRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]catalog.Category, error) {
	var categories []catalog.Category
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("sort_order ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list child categories: %w", err)
	}
	return categories, nil
}
