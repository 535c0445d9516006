package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// OrderType selects the ERP submission endpoint for an order
type OrderType string

const (
	OrderTypeReservation OrderType = "reservation"
	OrderTypeQuote       OrderType = "quote"
	OrderTypeAnonymous   OrderType = "anonymous"
)

// Order represents a storefront order pending or completed export to the ERP
type Order struct {
	shared.BaseAggregateRoot
	ExternalID *string    `gorm:"type:varchar(64);index"` // set exactly once on successful export
	Type       OrderType  `gorm:"type:varchar(20);not null;default:'anonymous'"`
	Items      string     `gorm:"type:jsonb"` // product id -> quantity
	UserID     *uuid.UUID `gorm:"type:uuid;index"`
	Client     string     `gorm:"type:varchar(200)"`
	Address    string     `gorm:"type:varchar(255)"`
	Phone      string     `gorm:"type:varchar(50)"`
	Email      string     `gorm:"type:varchar(200)"`
	Comment    string     `gorm:"type:text"`
	Shipping   time.Time
	System     string `gorm:"type:jsonb"` // raw diagnostics from the last ambiguous export attempt
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order with the given line items
func NewOrder(orderType OrderType, items map[uuid.UUID]decimal.Decimal) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one line item")
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Order items cannot be serialized")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              orderType,
		Items:             string(raw),
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// ItemMap decodes the stored line items
func (o *Order) ItemMap() map[uuid.UUID]decimal.Decimal {
	items := make(map[uuid.UUID]decimal.Decimal)
	if o.Items == "" {
		return items
	}
	_ = json.Unmarshal([]byte(o.Items), &items)
	return items
}

// IsExported returns true if the order already carries an external identifier
func (o *Order) IsExported() bool {
	return o.ExternalID != nil && *o.ExternalID != ""
}

// SetExternalID records the ERP order number; it can be set only once
func (o *Order) SetExternalID(externalID string) error {
	if o.IsExported() {
		return shared.ErrAlreadyExported
	}
	if externalID == "" {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "External id cannot be empty")
	}

	o.ExternalID = &externalID
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderExportedEvent(o, externalID))

	return nil
}

// RecordDiagnostics stores the raw ERP response from an ambiguous export attempt
func (o *Order) RecordDiagnostics(raw json.RawMessage) {
	o.System = string(raw)
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}
