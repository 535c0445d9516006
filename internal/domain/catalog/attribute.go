package catalog

import (
	"context"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// AttributeType represents the value type of a custom attribute
type AttributeType string

const (
	AttributeTypeString  AttributeType = "STRING"
	AttributeTypeBoolean AttributeType = "BOOLEAN"
)

// Attribute represents a custom product attribute definition
// The sync maps ERP index-field slots onto attributes keyed by a stable address
type Attribute struct {
	shared.BaseAggregateRoot
	Address string        `gorm:"type:varchar(100);not null;uniqueIndex"`
	Title   string        `gorm:"type:varchar(200);not null"`
	Group   string        `gorm:"type:varchar(100)"`
	Type    AttributeType `gorm:"type:varchar(20);not null;default:'STRING'"`
}

// TableName returns the table name for GORM
func (Attribute) TableName() string {
	return "attributes"
}

// NewAttribute creates a new attribute definition
func NewAttribute(address, title, group string, typ AttributeType) (*Attribute, error) {
	if address == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Attribute address cannot be empty")
	}
	if title == "" {
		title = address
	}

	return &Attribute{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Address:           address,
		Title:             title,
		Group:             group,
		Type:              typ,
	}, nil
}

// AttributeRepository defines the persistence contract for attributes
type AttributeRepository interface {
	// Create persists a new attribute
	Create(ctx context.Context, attribute *Attribute) error

	// FindByAddress finds an attribute by its stable address key
	FindByAddress(ctx context.Context, address string) (*Attribute, error)
}
