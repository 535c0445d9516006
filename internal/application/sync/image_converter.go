package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path"
	"strings"

	// register the decoders the feed actually serves
	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
	"github.com/storefront/syncengine/internal/infrastructure/storage"
)

// jpegQuality is the encode quality of converted renditions
const jpegQuality = 85

// ImageConvertExecutor produces a JPEG rendition of a stored image so the
// storefront serves one predictable format regardless of what the feed
// delivered
type ImageConvertExecutor struct {
	store  storage.ObjectStorage
	logger *zap.Logger
}

var _ scheduler.Executor = (*ImageConvertExecutor)(nil)

// NewImageConvertExecutor creates the image convert executor
func NewImageConvertExecutor(store storage.ObjectStorage, logger *zap.Logger) *ImageConvertExecutor {
	return &ImageConvertExecutor{store: store, logger: logger}
}

// Execute converts the object named by the job. A vanished object cancels
// the job; a valid JPEG source is left as is.
func (e *ImageConvertExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	key := job.Param(ParamStorageKey)
	if key == "" {
		return fmt.Errorf("missing storage key")
	}

	data, contentType, err := e.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("object %s vanished before conversion: %w", key, scheduler.ErrCancelled)
		}
		return err
	}
	if contentType == "image/jpeg" {
		return nil
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("object %s does not decode as an image: %w", key, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("jpeg encode of %s failed: %w", key, err)
	}

	target := convertedKey(key)
	if err := e.store.Put(ctx, target, buf.Bytes(), "image/jpeg"); err != nil {
		return err
	}

	e.logger.Info("Image converted",
		zap.String("key", key),
		zap.String("target", target),
		zap.String("source_format", format),
	)
	return nil
}

// convertedKey swaps the key's extension for .jpg
func convertedKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + ".jpg"
}
