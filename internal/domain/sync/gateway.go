package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CategorySnapshot is one row of the ERP's flat category feed
type CategorySnapshot struct {
	ExternalID       string `validate:"required"`
	ParentExternalID string
	Title            string `validate:"required"`
	SortOrder        int
	Description      string
	Address          string
	Field1           string
	Field2           string
	Field3           string
	PhotoRef         string
}

// ProductSnapshot is one row of the ERP's paginated item feed
type ProductSnapshot struct {
	ExternalID         string `validate:"required"`
	CategoryExternalID string `validate:"required"`
	Title              string `validate:"required"`
	SortOrder          int
	Address            string
	Description        string
	Extra              string
	VendorCode         string
	Barcode            string
	PriceFirst         decimal.Decimal
	Price              decimal.Decimal
	PriceWholesale     decimal.Decimal
	Stock              decimal.Decimal
	Weight             decimal.Decimal
	Unit               string
	Country            string
	Manufacturer       string
	Tags               string
	Field1             string
	Field2             string
	Field3             string
	Field4             string
	Field5             string
	ChangedAt          time.Time
	PhotoRef           string
}

// RelationRow is one pair of the ERP's related-items feed
type RelationRow struct {
	ProductExternalID string
	RelatedExternalID string
	Quantity          decimal.Decimal
}

// OrderReceipt is the interpreted result of an order submission
type OrderReceipt struct {
	// Number is the ERP-assigned order number, empty when the response
	// carried no usable number
	Number string
	// Rejected is true when the ERP answered with the rejection sentinel
	Rejected bool
	// Raw is the response body as received, kept for diagnostics
	Raw json.RawMessage
}

// Gateway is the contract for talking to the ERP
// Implementations must treat transport failures and empty bodies as
// "no data this call" rather than hard errors wherever the feed allows it
type Gateway interface {
	// Categories fetches the full flat category feed
	Categories(ctx context.Context) ([]CategorySnapshot, error)

	// ItemCount fetches the total number of items in the configured storage
	ItemCount(ctx context.Context) (int, error)

	// Items fetches one page of the item feed
	Items(ctx context.Context, offset, limit int) ([]ProductSnapshot, error)

	// Relations fetches one page of the related-items feed
	Relations(ctx context.Context, offset, limit int) ([]RelationRow, error)

	// SubmitOrder posts an order payload to the given endpoint
	SubmitOrder(ctx context.Context, endpoint string, params map[string]string) (OrderReceipt, error)

	// UploadItems posts a serialized product batch to the bulk-update endpoint
	UploadItems(ctx context.Context, payload []byte) error

	// FilePath resolves a remote file name to its public download URL
	FilePath(name string) string
}
