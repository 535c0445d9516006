package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/syncengine/internal/domain/shared"
)

// Product represents a storefront product synchronized from the ERP
// It is the aggregate root for product-related operations
type Product struct {
	shared.BaseAggregateRoot
	Source         string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_product_source_external,priority:1"`
	ExternalID     string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_source_external,priority:2"`
	CategoryID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title          string          `gorm:"type:varchar(200);not null"`
	Address        string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	SortOrder      int             `gorm:"not null;default:0"`
	Description    string          `gorm:"type:text"`
	Extra          string          `gorm:"type:text"`
	VendorCode     string          `gorm:"type:varchar(64);index"`
	Barcode        string          `gorm:"type:varchar(64);index"`
	PriceFirst     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // cost price
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceWholesale decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Weight         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit           string          `gorm:"type:varchar(20)"`
	Country        string          `gorm:"type:varchar(100)"`
	Manufacturer   string          `gorm:"type:varchar(200)"`
	Tags           string          `gorm:"type:text"`
	Field1         string          `gorm:"type:text"`
	Field2         string          `gorm:"type:text"`
	Field3         string          `gorm:"type:text"`
	Field4         string          `gorm:"type:text"`
	Field5         string          `gorm:"type:text"` // semicolon-delimited boolean tag list
	Attributes     string          `gorm:"type:jsonb"` // attribute id -> value
	Relations      string          `gorm:"type:jsonb"` // related product id -> quantity
	Status         EntityStatus    `gorm:"type:varchar(10);not null;default:'WORK'"`
	EditedAt       time.Time       `gorm:"index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product owned by a sync source
func NewProduct(source, externalID, title, address string, categoryID uuid.UUID) (*Product, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External id cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Product requires a category")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Source:            source,
		ExternalID:        externalID,
		CategoryID:        categoryID,
		Title:             title,
		Address:           address,
		PriceFirst:        decimal.Zero,
		Price:             decimal.Zero,
		PriceWholesale:    decimal.Zero,
		Stock:             decimal.Zero,
		Weight:            decimal.Zero,
		Status:            StatusWork,
		Attributes:        "{}",
		Relations:         "{}",
		EditedAt:          time.Now(),
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// ProductFields carries the snapshot-derived field set applied on every upsert
type ProductFields struct {
	Title        string
	SortOrder    int
	Description  string
	Extra        string
	VendorCode   string
	Barcode      string
	PriceFirst   decimal.Decimal
	Price        decimal.Decimal
	Wholesale    decimal.Decimal
	Stock        decimal.Decimal
	Weight       decimal.Decimal
	Unit         string
	Country      string
	Manufacturer string
	Tags         string
	Field1       string
	Field2       string
	Field3       string
	Field4       string
	Field5       string
	EditedAt     time.Time
}

// Update replaces the product's fields from a fresh snapshot and restores it
// to WORK if a previous sweep had deleted it
func (p *Product) Update(categoryID uuid.UUID, fields ProductFields) error {
	if err := validateTitle(fields.Title); err != nil {
		return err
	}
	if categoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Product requires a category")
	}

	p.CategoryID = categoryID
	p.Title = fields.Title
	p.SortOrder = fields.SortOrder
	p.Description = fields.Description
	p.Extra = fields.Extra
	p.VendorCode = fields.VendorCode
	p.Barcode = fields.Barcode
	p.PriceFirst = fields.PriceFirst
	p.Price = fields.Price
	p.PriceWholesale = fields.Wholesale
	p.Stock = fields.Stock
	p.Weight = fields.Weight
	p.Unit = fields.Unit
	p.Country = fields.Country
	p.Manufacturer = fields.Manufacturer
	p.Tags = fields.Tags
	p.Field1 = fields.Field1
	p.Field2 = fields.Field2
	p.Field3 = fields.Field3
	p.Field4 = fields.Field4
	p.Field5 = fields.Field5
	p.Status = StatusWork
	if !fields.EditedAt.IsZero() {
		p.EditedAt = fields.EditedAt
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductEditedEvent(p))

	return nil
}

// AdoptExternalID rebinds the product to a new external id. Used by the
// collision fallback when a feed row's title matches an entity registered
// under a different id.
func (p *Product) AdoptExternalID(externalID string) error {
	if externalID == "" {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "External id cannot be empty")
	}
	p.ExternalID = externalID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetAddress replaces the product's address slug
func (p *Product) SetAddress(address string) {
	p.Address = address
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetAttributeValues stores the attribute id -> value mapping as JSON
func (p *Product) SetAttributeValues(values map[uuid.UUID]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return shared.NewDomainError("INVALID_ATTRIBUTES", "Attribute values cannot be serialized")
	}
	p.Attributes = string(raw)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// AttributeValues decodes the stored attribute mapping
func (p *Product) AttributeValues() map[uuid.UUID]string {
	values := make(map[uuid.UUID]string)
	if p.Attributes == "" {
		return values
	}
	_ = json.Unmarshal([]byte(p.Attributes), &values)
	return values
}

// SetRelations stores the related product id -> quantity mapping as JSON
func (p *Product) SetRelations(relations map[uuid.UUID]decimal.Decimal) error {
	raw, err := json.Marshal(relations)
	if err != nil {
		return shared.NewDomainError("INVALID_RELATIONS", "Relations cannot be serialized")
	}
	p.Relations = string(raw)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// RelationMap decodes the stored relations mapping
func (p *Product) RelationMap() map[uuid.UUID]decimal.Decimal {
	relations := make(map[uuid.UUID]decimal.Decimal)
	if p.Relations == "" {
		return relations
	}
	_ = json.Unmarshal([]byte(p.Relations), &relations)
	return relations
}

// MarkDeleted soft-deletes the product
func (p *Product) MarkDeleted() {
	if p.Status == StatusDelete {
		return
	}
	p.Status = StatusDelete
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductDeletedEvent(p))
}

// IsDeleted returns true if the product has been soft-deleted
func (p *Product) IsDeleted() bool {
	return p.Status == StatusDelete
}

// UnitPrice returns the price for the given tier, falling back to retail
// when the wholesale tier is zero
func (p *Product) UnitPrice(wholesale bool) decimal.Decimal {
	if wholesale && !p.PriceWholesale.IsZero() {
		return p.PriceWholesale
	}
	return p.Price
}
