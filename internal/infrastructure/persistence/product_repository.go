package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// NewGormProductRepository creates a new product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create persists a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update persists changes to an existing product
func (r *GormProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// FindByID finds a product by its local ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindByIDs finds products by a set of local IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []catalog.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products by ids: %w", err)
	}
	return products, nil
}

// FindByExternalID finds a product by sync source and external id
func (r *GormProductRepository) FindByExternalID(ctx context.Context, source, externalID string) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", source, externalID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product by external id: %w", err)
	}
	return &product, nil
}

// FindByTitle finds a product by exact title within a source
func (r *GormProductRepository) FindByTitle(ctx context.Context, source, title string) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Where("source = ? AND title = ?", source, title).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product by title: %w", err)
	}
	return &product, nil
}

// FindByAddress finds a product by its address slug
func (r *GormProductRepository) FindByAddress(ctx context.Context, address string) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product by address: %w", err)
	}
	return &product, nil
}

// FindBySourceAndStatus returns all products of a source in the given status
func (r *GormProductRepository) FindBySourceAndStatus(ctx context.Context, source string, status catalog.EntityStatus) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("source = ? AND status = ?", source, status).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindByCategoryIDs returns products referencing any of the given categories
func (r *GormProductRepository) FindByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]catalog.Product, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var products []catalog.Product
	err := r.db.WithContext(ctx).Where("category_id IN ?", categoryIDs).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products by categories: %w", err)
	}
	return products, nil
}

// FindEditedSince returns WORK products of a source edited after the cutoff
func (r *GormProductRepository) FindEditedSince(ctx context.Context, source string, cutoff time.Time) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("source = ? AND status = ? AND edited_at > ?", source, catalog.StatusWork, cutoff).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list edited products: %w", err)
	}
	return products, nil
}
