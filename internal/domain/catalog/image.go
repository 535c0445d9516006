package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// ImageOwner identifies which entity type an image is linked to
type ImageOwner string

const (
	ImageOwnerCategory ImageOwner = "category"
	ImageOwnerProduct  ImageOwner = "product"
)

// Image is a file linked to a category or product in display order
// Links are replaced wholesale when fresh photo references arrive from the ERP
type Image struct {
	shared.BaseEntity
	OwnerType   ImageOwner `gorm:"type:varchar(20);not null;index:idx_image_owner,priority:1"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_image_owner,priority:2"`
	FileName    string     `gorm:"type:varchar(255);not null"`
	StorageKey  string     `gorm:"type:varchar(512);not null"`
	ContentType string     `gorm:"type:varchar(100)"`
	SortOrder   int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Image) TableName() string {
	return "images"
}

// NewImage creates a new image link
func NewImage(ownerType ImageOwner, ownerID uuid.UUID, fileName, storageKey, contentType string, sortOrder int) *Image {
	return &Image{
		BaseEntity:  shared.NewBaseEntity(),
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		FileName:    fileName,
		StorageKey:  storageKey,
		ContentType: contentType,
		SortOrder:   sortOrder,
	}
}

// IsConvertible reports whether the file should be queued for image conversion
func (i *Image) IsConvertible() bool {
	return len(i.ContentType) > 6 && i.ContentType[:6] == "image/"
}

// ImageRepository defines the persistence contract for image links
type ImageRepository interface {
	// ReplaceForOwner atomically replaces all image links of an entity
	ReplaceForOwner(ctx context.Context, ownerType ImageOwner, ownerID uuid.UUID, images []Image) error

	// FindByOwner returns an entity's image links in display order
	FindByOwner(ctx context.Context, ownerType ImageOwner, ownerID uuid.UUID) ([]Image, error)
}
