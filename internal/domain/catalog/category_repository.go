package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the persistence contract for categories
type CategoryRepository interface {
	// Create persists a new category
	Create(ctx context.Context, category *Category) error

	// Update persists changes to an existing category
	Update(ctx context.Context, category *Category) error

	// FindByID finds a category by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByExternalID finds a category by sync source and external id
	FindByExternalID(ctx context.Context, source, externalID string) (*Category, error)

	// FindByTitle finds a category by exact title within a source
	FindByTitle(ctx context.Context, source, title string) (*Category, error)

	// FindByAddress finds a category by its address slug
	FindByAddress(ctx context.Context, address string) (*Category, error)

	// FindBySourceAndStatus returns all categories of a source in the given status
	FindBySourceAndStatus(ctx context.Context, source string, status EntityStatus) ([]Category, error)

	// FindChildren returns the direct children of a category
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Category, error)
}
