package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics records catalog synchronization outcomes
type SyncMetrics struct {
	catalogPasses    *Counter
	catalogDuration  *Histogram
	productsCreated  *Counter
	productsUpdated  *Counter
	entitiesSwept    *Counter
	ordersExported   *Counter
	ordersRejected   *Counter
	imagesDownloaded *Counter
	uploadBatches    *Counter
}

// NewSyncMetrics creates all synchronization metrics on the given meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	m := &SyncMetrics{}

	var err error
	if m.catalogPasses, err = NewCounter(meter,
		"sync_catalog_passes_total", "Completed catalog synchronization passes", "{pass}"); err != nil {
		return nil, err
	}
	if m.catalogDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "sync_catalog_duration_seconds",
		Description: "Duration of a full catalog synchronization pass",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.productsCreated, err = NewCounter(meter,
		"sync_products_created_total", "Products created during synchronization", "{product}"); err != nil {
		return nil, err
	}
	if m.productsUpdated, err = NewCounter(meter,
		"sync_products_updated_total", "Products updated during synchronization", "{product}"); err != nil {
		return nil, err
	}
	if m.entitiesSwept, err = NewCounter(meter,
		"sync_entities_swept_total", "Entities soft-deleted by the sweep phase", "{entity}"); err != nil {
		return nil, err
	}
	if m.ordersExported, err = NewCounter(meter,
		"sync_orders_exported_total", "Orders exported to the remote system", "{order}"); err != nil {
		return nil, err
	}
	if m.ordersRejected, err = NewCounter(meter,
		"sync_orders_rejected_total", "Order exports rejected by the remote system", "{order}"); err != nil {
		return nil, err
	}
	if m.imagesDownloaded, err = NewCounter(meter,
		"sync_images_downloaded_total", "Images materialized into object storage", "{image}"); err != nil {
		return nil, err
	}
	if m.uploadBatches, err = NewCounter(meter,
		"sync_upload_batches_total", "Catalog upload batches sent to the remote system", "{batch}"); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCatalogPass records a completed pass and its duration
func (m *SyncMetrics) RecordCatalogPass(ctx context.Context, source string, d time.Duration) {
	m.catalogPasses.Inc(ctx, AttrSyncSource.String(source))
	m.catalogDuration.RecordDuration(ctx, d, AttrSyncSource.String(source))
}

// RecordProductsCreated adds to the created-product count
func (m *SyncMetrics) RecordProductsCreated(ctx context.Context, source string, n int64) {
	m.productsCreated.Add(ctx, n, AttrSyncSource.String(source))
}

// RecordProductsUpdated adds to the updated-product count
func (m *SyncMetrics) RecordProductsUpdated(ctx context.Context, source string, n int64) {
	m.productsUpdated.Add(ctx, n, AttrSyncSource.String(source))
}

// RecordSwept adds to the swept-entity count
func (m *SyncMetrics) RecordSwept(ctx context.Context, source, entityType string, n int64) {
	m.entitiesSwept.Add(ctx, n, AttrSyncSource.String(source), AttrEntityType.String(entityType))
}

// RecordOrderExported counts a successful order export
func (m *SyncMetrics) RecordOrderExported(ctx context.Context, orderType string) {
	m.ordersExported.Inc(ctx, AttrOrderType.String(orderType))
}

// RecordOrderRejected counts an order export the remote refused
func (m *SyncMetrics) RecordOrderRejected(ctx context.Context, orderType string) {
	m.ordersRejected.Inc(ctx, AttrOrderType.String(orderType))
}

// RecordImageDownloaded counts a materialized image
func (m *SyncMetrics) RecordImageDownloaded(ctx context.Context, entityType string) {
	m.imagesDownloaded.Inc(ctx, AttrEntityType.String(entityType))
}

// RecordUploadBatches adds to the upload batch count
func (m *SyncMetrics) RecordUploadBatches(ctx context.Context, n int64) {
	m.uploadBatches.Add(ctx, n)
}
