package sync

import (
	"strings"

	"github.com/google/uuid"

	"github.com/storefront/syncengine/internal/domain/catalog"
)

// ImageRequest asks the materializer to download the photos referenced by
// one entity. It is collected during a pass and never persisted
type ImageRequest struct {
	// PhotoRef is the raw semicolon-delimited list of remote file names
	PhotoRef   string              `json:"photo_ref"`
	EntityType catalog.ImageOwner  `json:"entity_type"`
	EntityID   uuid.UUID           `json:"entity_id"`
}

// FileNames splits the photo reference into individual file names,
// preserving order and dropping empty parts
func (r ImageRequest) FileNames() []string {
	parts := strings.Split(r.PhotoRef, ";")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}
