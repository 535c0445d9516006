package event

import (
	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// HandlerRegistry wires event handlers onto a bus, optionally wrapping
// each one with the idempotency decorator
type HandlerRegistry struct {
	bus    shared.EventBus
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry(bus shared.EventBus, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		bus:    bus,
		store:  store,
		config: config,
		logger: logger,
	}
}

// Register subscribes a handler, wrapped for idempotent delivery when enabled
func (r *HandlerRegistry) Register(handler shared.EventHandler) {
	if r.config.Enabled && r.store != nil {
		handler = NewIdempotentHandler(handler, r.store, r.config, r.logger)
	}
	r.bus.Subscribe(handler)
}
