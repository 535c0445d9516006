package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// Category represents a storefront catalog category
// It is the aggregate root for category-related operations
type Category struct {
	shared.BaseAggregateRoot
	Source      string       `gorm:"type:varchar(32);not null;uniqueIndex:idx_category_source_external,priority:1"`
	ExternalID  string       `gorm:"type:varchar(64);not null;uniqueIndex:idx_category_source_external,priority:2"`
	ParentID    *uuid.UUID   `gorm:"type:uuid;index"` // nil = root
	Title       string       `gorm:"type:varchar(200);not null"`
	Address     string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	SortOrder   int          `gorm:"not null;default:0"`
	Description string       `gorm:"type:text"`
	Field1      string       `gorm:"type:text"`
	Field2      string       `gorm:"type:text"`
	Field3      string       `gorm:"type:text"`
	Status      EntityStatus `gorm:"type:varchar(10);not null;default:'WORK'"`
	Invalid     bool         `gorm:"not null;default:false"` // set by the mark-invalid orphan policy
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category owned by a sync source
func NewCategory(source, externalID, title, address string) (*Category, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External id cannot be empty")
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Source:            source,
		ExternalID:        externalID,
		Title:             title,
		Address:           address,
		Status:            StatusWork,
	}

	category.AddDomainEvent(NewCategoryCreatedEvent(category))

	return category, nil
}

// Update replaces the category's descriptive fields from a fresh snapshot
// and restores it to WORK if a previous sweep had deleted it
func (c *Category) Update(title, description string, sortOrder int, field1, field2, field3 string) error {
	if err := validateTitle(title); err != nil {
		return err
	}

	c.Title = title
	c.Description = description
	c.SortOrder = sortOrder
	c.Field1 = field1
	c.Field2 = field2
	c.Field3 = field3
	c.Status = StatusWork
	c.Invalid = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCategoryUpdatedEvent(c))

	return nil
}

// AdoptExternalID rebinds the category to a new external id. Used by the
// collision fallback when a feed row's title matches an entity registered
// under a different id.
func (c *Category) AdoptExternalID(externalID string) error {
	if externalID == "" {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "External id cannot be empty")
	}
	c.ExternalID = externalID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// SetParent links the category under another category
func (c *Category) SetParent(parentID *uuid.UUID) {
	c.ParentID = parentID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// AttachToRoot detaches the category from any parent
func (c *Category) AttachToRoot() {
	c.SetParent(nil)
}

// MarkInvalid flags the category as having an unresolvable parent
// The category stays visible in WORK status but carries the flag
func (c *Category) MarkInvalid() {
	c.Invalid = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// MarkDeleted soft-deletes the category
func (c *Category) MarkDeleted() {
	if c.Status == StatusDelete {
		return
	}
	c.Status = StatusDelete
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCategoryDeletedEvent(c))
}

// IsDeleted returns true if the category has been soft-deleted
func (c *Category) IsDeleted() bool {
	return c.Status == StatusDelete
}

// validateTitle validates a category or product title
func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}
	return nil
}
