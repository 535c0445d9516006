package sync

import (
	"github.com/google/uuid"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeSyncPass = "SyncPass"
	AggregateTypeImage    = "Image"
)

// Event type constants
const (
	EventTypeCatalogImported = "catalog:imported"
	EventTypeImageDownloaded = "image:downloaded"
)

// CatalogImportedEvent is published when a reconciliation pass completes
type CatalogImportedEvent struct {
	shared.BaseDomainEvent
	Source            string `json:"source"`
	CategoriesSeen    int    `json:"categories_seen"`
	CategoriesCreated int    `json:"categories_created"`
	CategoriesUpdated int    `json:"categories_updated"`
	ProductsSeen      int    `json:"products_seen"`
	ProductsCreated   int    `json:"products_created"`
	ProductsUpdated   int    `json:"products_updated"`
	ProductsSkipped   int    `json:"products_skipped"`
	CategoriesSwept   int    `json:"categories_swept"`
	ProductsSwept     int    `json:"products_swept"`
}

// NewCatalogImportedEvent creates a new CatalogImportedEvent for a finished pass
func NewCatalogImportedEvent(passID uuid.UUID, source string, stats PassStats) *CatalogImportedEvent {
	return &CatalogImportedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeCatalogImported, AggregateTypeSyncPass, passID),
		Source:            source,
		CategoriesSeen:    stats.CategoriesSeen,
		CategoriesCreated: stats.CategoriesCreated,
		CategoriesUpdated: stats.CategoriesUpdated,
		ProductsSeen:      stats.ProductsSeen,
		ProductsCreated:   stats.ProductsCreated,
		ProductsUpdated:   stats.ProductsUpdated,
		ProductsSkipped:   stats.ProductsSkipped,
		CategoriesSwept:   stats.CategoriesSwept,
		ProductsSwept:     stats.ProductsSwept,
	}
}

// PassStats summarizes one reconciliation pass
type PassStats struct {
	CategoriesSeen    int
	CategoriesCreated int
	CategoriesUpdated int
	ProductsSeen      int
	ProductsCreated   int
	ProductsUpdated   int
	ProductsSkipped   int
	RelationsApplied  int
	CategoriesSwept   int
	ProductsSwept     int

	// Images collects the photo references encountered during the pass
	Images []ImageRequest
}

// ImageDownloadedEvent is published when an entity's images are materialized
type ImageDownloadedEvent struct {
	shared.BaseDomainEvent
	EntityType catalog.ImageOwner `json:"entity_type"`
	EntityID   uuid.UUID          `json:"entity_id"`
	Count      int                `json:"count"`
}

// NewImageDownloadedEvent creates a new ImageDownloadedEvent
func NewImageDownloadedEvent(entityType catalog.ImageOwner, entityID uuid.UUID, count int) *ImageDownloadedEvent {
	return &ImageDownloadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImageDownloaded, AggregateTypeImage, entityID),
		EntityType:      entityType,
		EntityID:        entityID,
		Count:           count,
	}
}
