package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
)

// OrderExportHandler queues an export job whenever an order is created or
// its payment is confirmed. The exporter's own idempotency makes the double
// trigger safe.
type OrderExportHandler struct {
	enqueuer scheduler.Enqueuer
	logger   *zap.Logger
}

var _ shared.EventHandler = (*OrderExportHandler)(nil)

// NewOrderExportHandler creates the order export trigger
func NewOrderExportHandler(enqueuer scheduler.Enqueuer, logger *zap.Logger) *OrderExportHandler {
	return &OrderExportHandler{enqueuer: enqueuer, logger: logger}
}

// EventTypes returns the subscribed event types
func (h *OrderExportHandler) EventTypes() []string {
	return []string{catalog.EventTypeOrderCreated, catalog.EventTypeOrderPaid}
}

// Handle enqueues the export job for the event's order
func (h *OrderExportHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	_, err := h.enqueuer.Enqueue(scheduler.JobTypeOrderExport, map[string]string{
		ParamOrderID: event.AggregateID().String(),
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrJobQueueFull) {
			// The next trigger for this order will pick it up
			h.logger.Warn("Order export queue full",
				zap.String("order_id", event.AggregateID().String()),
			)
			return nil
		}
		return fmt.Errorf("failed to enqueue order export: %w", err)
	}

	h.logger.Debug("Order export queued",
		zap.String("order_id", event.AggregateID().String()),
		zap.String("trigger", event.EventType()),
	)
	return nil
}

// AutoUploadHandler queues an incremental catalog upload after product edits
// and completed import passes, keeping the remote side in step with local
// changes
type AutoUploadHandler struct {
	enqueuer scheduler.Enqueuer
	settings domainsync.Settings
	logger   *zap.Logger
}

var _ shared.EventHandler = (*AutoUploadHandler)(nil)

// NewAutoUploadHandler creates the auto upload trigger
func NewAutoUploadHandler(enqueuer scheduler.Enqueuer, settings domainsync.Settings, logger *zap.Logger) *AutoUploadHandler {
	return &AutoUploadHandler{enqueuer: enqueuer, settings: settings, logger: logger}
}

// EventTypes returns the subscribed event types
func (h *AutoUploadHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductEdited, domainsync.EventTypeCatalogImported}
}

// Handle enqueues an incremental upload when auto update is on
func (h *AutoUploadHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.settings.AutoUpdate {
		return nil
	}

	_, err := h.enqueuer.Enqueue(scheduler.JobTypeCatalogUpload, map[string]string{
		ParamOnlyUpdated: "1",
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrJobQueueFull) {
			// Uploads are incremental; a queued one covers this event too
			return nil
		}
		return fmt.Errorf("failed to enqueue catalog upload: %w", err)
	}

	h.logger.Debug("Catalog upload queued", zap.String("trigger", event.EventType()))
	return nil
}
