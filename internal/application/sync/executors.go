package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
	"github.com/storefront/syncengine/internal/infrastructure/search"
	"github.com/storefront/syncengine/internal/infrastructure/telemetry"
)

// Job parameter keys
const (
	ParamOrderID     = "order_id"
	ParamDocNumber   = "doc_number"
	ParamOnlyUpdated = "only_updated"
	ParamRequests    = "requests"
	ParamStorageKey  = "key"
)

// CatalogDownloadExecutor runs a full reconciliation pass and chains the
// follow-up jobs the pass produced
type CatalogDownloadExecutor struct {
	reconciler *Reconciler
	enqueuer   scheduler.Enqueuer
	settings   domainsync.Settings
	metrics    *telemetry.SyncMetrics
	logger     *zap.Logger
}

var _ scheduler.Executor = (*CatalogDownloadExecutor)(nil)

// NewCatalogDownloadExecutor creates the catalog download executor
func NewCatalogDownloadExecutor(
	reconciler *Reconciler,
	enqueuer scheduler.Enqueuer,
	settings domainsync.Settings,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) *CatalogDownloadExecutor {
	return &CatalogDownloadExecutor{
		reconciler: reconciler,
		enqueuer:   enqueuer,
		settings:   settings,
		metrics:    metrics,
		logger:     logger,
	}
}

// Execute runs the pass, reporting progress through the job
func (e *CatalogDownloadExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	started := time.Now()
	stats, err := e.reconciler.Run(ctx, job.SetProgress)
	if err != nil {
		return err
	}

	if e.metrics != nil {
		source := e.settings.Source
		e.metrics.RecordCatalogPass(ctx, source, time.Since(started))
		e.metrics.RecordProductsCreated(ctx, source, int64(stats.ProductsCreated))
		e.metrics.RecordProductsUpdated(ctx, source, int64(stats.ProductsUpdated))
		e.metrics.RecordSwept(ctx, source, "category", int64(stats.CategoriesSwept))
		e.metrics.RecordSwept(ctx, source, "product", int64(stats.ProductsSwept))
	}

	if e.settings.DownloadImages && len(stats.Images) > 0 {
		payload, err := json.Marshal(stats.Images)
		if err != nil {
			return fmt.Errorf("image request serialization: %w", err)
		}
		if _, err := e.enqueuer.Enqueue(scheduler.JobTypeImageDownload, map[string]string{
			ParamRequests: string(payload),
		}); err != nil {
			e.logger.Warn("Failed to chain image download job", zap.Error(err))
		}
	}

	if e.settings.ReindexSearch {
		if _, err := e.enqueuer.Enqueue(scheduler.JobTypeSearchReindex, nil); err != nil {
			e.logger.Warn("Failed to chain search reindex job", zap.Error(err))
		}
	}
	return nil
}

// OrderExportExecutor exports a single order named by the job parameters
type OrderExportExecutor struct {
	exporter *OrderExporter
	metrics  *telemetry.SyncMetrics
}

var _ scheduler.Executor = (*OrderExportExecutor)(nil)

// NewOrderExportExecutor creates the order export executor
func NewOrderExportExecutor(exporter *OrderExporter, metrics *telemetry.SyncMetrics) *OrderExportExecutor {
	return &OrderExportExecutor{exporter: exporter, metrics: metrics}
}

// Execute exports one order. An already-exported order cancels the job
// rather than failing it, so retries stay quiet. A response the exporter
// could only store diagnostics for still completes the job.
func (e *OrderExportExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	orderID, err := uuid.Parse(job.Param(ParamOrderID))
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", job.Param(ParamOrderID), err)
	}

	result, err := e.exporter.Export(ctx, orderID, ExportOptions{DocNumber: job.Param(ParamDocNumber)})
	switch {
	case err == nil:
		if e.metrics != nil && !result.Diagnostics {
			e.metrics.RecordOrderExported(ctx, "")
		}
		return nil
	case errors.Is(err, shared.ErrAlreadyExported):
		return fmt.Errorf("order %s already exported: %w", orderID, scheduler.ErrCancelled)
	case errors.Is(err, ErrOrderRejected):
		if e.metrics != nil {
			e.metrics.RecordOrderRejected(ctx, "")
		}
		return err
	default:
		return err
	}
}

// CatalogUploadExecutor pushes the local catalog back to the remote system
type CatalogUploadExecutor struct {
	publisher *CatalogPublisher
	metrics   *telemetry.SyncMetrics
}

var _ scheduler.Executor = (*CatalogUploadExecutor)(nil)

// NewCatalogUploadExecutor creates the catalog upload executor
func NewCatalogUploadExecutor(publisher *CatalogPublisher, metrics *telemetry.SyncMetrics) *CatalogUploadExecutor {
	return &CatalogUploadExecutor{publisher: publisher, metrics: metrics}
}

// Execute publishes the catalog, incrementally when the job says so
func (e *CatalogUploadExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	result, err := e.publisher.Publish(ctx, job.Param(ParamOnlyUpdated) == "1")
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.RecordUploadBatches(ctx, int64(result.Batches))
	}
	if result.FailedBatches == result.Batches && result.Batches > 0 {
		return fmt.Errorf("all %d upload batches failed", result.Batches)
	}
	return nil
}

// ImageDownloadExecutor materializes the image requests serialized into the
// job parameters and chains a convert job per stored image
type ImageDownloadExecutor struct {
	materializer *ImageMaterializer
	enqueuer     scheduler.Enqueuer
	metrics      *telemetry.SyncMetrics
	logger       *zap.Logger
}

var _ scheduler.Executor = (*ImageDownloadExecutor)(nil)

// NewImageDownloadExecutor creates the image download executor
func NewImageDownloadExecutor(
	materializer *ImageMaterializer,
	enqueuer scheduler.Enqueuer,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) *ImageDownloadExecutor {
	return &ImageDownloadExecutor{
		materializer: materializer,
		enqueuer:     enqueuer,
		metrics:      metrics,
		logger:       logger,
	}
}

// Execute downloads all requested images
func (e *ImageDownloadExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	var requests []domainsync.ImageRequest
	if err := json.Unmarshal([]byte(job.Param(ParamRequests)), &requests); err != nil {
		return fmt.Errorf("invalid image request payload: %w", err)
	}
	if len(requests) == 0 {
		return nil
	}

	result, err := e.materializer.Materialize(ctx, requests)
	if err != nil {
		return err
	}
	if e.metrics != nil && result.Downloaded > 0 {
		e.metrics.RecordImageDownloaded(ctx, "")
	}

	for _, key := range result.ConvertKeys {
		if _, err := e.enqueuer.Enqueue(scheduler.JobTypeImageConvert, map[string]string{
			ParamStorageKey: key,
		}); err != nil {
			e.logger.Warn("Failed to chain image convert job",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return nil
}

// SearchReindexExecutor rebuilds the product search index from scratch
type SearchReindexExecutor struct {
	index    search.Index
	products catalog.ProductRepository
	settings domainsync.Settings
	logger   *zap.Logger
}

var _ scheduler.Executor = (*SearchReindexExecutor)(nil)

// NewSearchReindexExecutor creates the search reindex executor
func NewSearchReindexExecutor(
	index search.Index,
	products catalog.ProductRepository,
	settings domainsync.Settings,
	logger *zap.Logger,
) *SearchReindexExecutor {
	return &SearchReindexExecutor{
		index:    index,
		products: products,
		settings: settings,
		logger:   logger,
	}
}

// Execute clears the index and reindexes every active product
func (e *SearchReindexExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	if err := e.index.Clear(ctx); err != nil {
		return err
	}

	products, err := e.products.FindBySourceAndStatus(ctx, e.settings.Source, catalog.StatusWork)
	if err != nil {
		return err
	}

	for n := range products {
		product := &products[n]
		if err := e.index.Index(ctx, search.Document{
			ID:         product.ID,
			Title:      product.Title,
			VendorCode: product.VendorCode,
			Tags:       product.Tags,
		}); err != nil {
			return fmt.Errorf("failed to index product %s: %w", product.ID, err)
		}
		job.SetProgress(scheduler.Rescale(0, 100, n+1, len(products)))
	}

	e.logger.Info("Search reindex complete", zap.Int("products", len(products)))
	return nil
}
