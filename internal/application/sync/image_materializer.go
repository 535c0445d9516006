package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
	"github.com/storefront/syncengine/internal/infrastructure/storage"
)

// maxImageSize bounds a single downloaded file
const maxImageSize = 32 << 20

// ImageMaterializer downloads the files referenced by a pass and links them
// to their entities. A missing or failing file is skipped with a warning;
// one bad reference never blocks the rest.
type ImageMaterializer struct {
	gateway   domainsync.Gateway
	store     storage.ObjectStorage
	images    catalog.ImageRepository
	publisher shared.EventPublisher
	client    *http.Client
	logger    *zap.Logger
}

// NewImageMaterializer creates a materializer with a dedicated download client
func NewImageMaterializer(
	gateway domainsync.Gateway,
	store storage.ObjectStorage,
	images catalog.ImageRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ImageMaterializer {
	return &ImageMaterializer{
		gateway:   gateway,
		store:     store,
		images:    images,
		publisher: publisher,
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logger,
	}
}

// MaterializeResult reports what one materialization run did
type MaterializeResult struct {
	Downloaded int
	Skipped    int
	// ConvertKeys lists storage keys holding convertible images
	ConvertKeys []string
}

// Materialize downloads every referenced file and replaces each entity's
// image links in feed order
func (m *ImageMaterializer) Materialize(ctx context.Context, requests []domainsync.ImageRequest) (*MaterializeResult, error) {
	result := &MaterializeResult{}

	for _, request := range requests {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		links := make([]catalog.Image, 0)
		for n, name := range request.FileNames() {
			data, contentType, err := m.download(ctx, name)
			if err != nil {
				m.logger.Warn("Skipping unfetchable image",
					zap.String("file", name),
					zap.String("entity_id", request.EntityID.String()),
					zap.Error(err),
				)
				result.Skipped++
				continue
			}

			key := storageKey(request, name)
			if err := m.store.Put(ctx, key, data, contentType); err != nil {
				return result, fmt.Errorf("failed to store image %s: %w", name, err)
			}

			image := catalog.NewImage(request.EntityType, request.EntityID, name, key, contentType, n)
			links = append(links, *image)
			result.Downloaded++
			if image.IsConvertible() {
				result.ConvertKeys = append(result.ConvertKeys, key)
			}
		}

		if len(links) == 0 {
			continue
		}
		if err := m.images.ReplaceForOwner(ctx, request.EntityType, request.EntityID, links); err != nil {
			return result, err
		}

		event := domainsync.NewImageDownloadedEvent(request.EntityType, request.EntityID, len(links))
		if err := m.publisher.Publish(ctx, event); err != nil {
			m.logger.Warn("Failed to publish image event", zap.Error(err))
		}
	}

	m.logger.Info("Image materialization complete",
		zap.Int("downloaded", result.Downloaded),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (m *ImageMaterializer) download(ctx context.Context, name string) ([]byte, string, error) {
	url := m.gateway.FilePath(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// storageKey builds a stable per-entity object key for a remote file name
func storageKey(request domainsync.ImageRequest, name string) string {
	base := domainsync.Slugify(strings.TrimSuffix(name, path.Ext(name)))
	if base == "" {
		base = "file"
	}
	ext := strings.ToLower(path.Ext(name))
	return fmt.Sprintf("images/%s/%s/%s%s", request.EntityType, request.EntityID, base, ext)
}
