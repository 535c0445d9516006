package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository defines the persistence contract for products
type ProductRepository interface {
	// Create persists a new product
	Create(ctx context.Context, product *Product) error

	// Update persists changes to an existing product
	Update(ctx context.Context, product *Product) error

	// FindByID finds a product by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds products by a set of local IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByExternalID finds a product by sync source and external id
	FindByExternalID(ctx context.Context, source, externalID string) (*Product, error)

	// FindByTitle finds a product by exact title within a source
	FindByTitle(ctx context.Context, source, title string) (*Product, error)

	// FindByAddress finds a product by its address slug
	FindByAddress(ctx context.Context, address string) (*Product, error)

	// FindBySourceAndStatus returns all products of a source in the given status
	FindBySourceAndStatus(ctx context.Context, source string, status EntityStatus) ([]Product, error)

	// FindByCategoryIDs returns products referencing any of the given categories
	FindByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]Product, error)

	// FindEditedSince returns WORK products of a source edited after the cutoff
	FindEditedSince(ctx context.Context, source string, cutoff time.Time) ([]Product, error)
}
