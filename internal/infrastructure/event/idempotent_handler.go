package event

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// IdempotentHandler decorates an event handler with duplicate suppression
// backed by an IdempotencyStore. The event is marked processed before the
// inner handler runs; a handler failure releases nothing, so redelivery of
// the same event within the TTL stays suppressed
type IdempotentHandler struct {
	inner  shared.EventHandler
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

// NewIdempotentHandler wraps a handler with idempotency checking
func NewIdempotentHandler(inner shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{
		inner:  inner,
		store:  store,
		config: config,
		logger: logger.Named("idempotent"),
	}
}

// Handle processes the event unless it was already processed
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := fmt.Sprintf("%T:%s", h.inner, event.EventID().String())

	fresh, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !fresh {
		h.logger.Debug("Duplicate event suppressed",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return nil
	}

	return h.inner.Handle(ctx, event)
}

// EventTypes delegates to the inner handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.inner.EventTypes()
}
