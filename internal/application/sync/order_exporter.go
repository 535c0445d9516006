package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
)

// ERP order submission endpoints per order type
const (
	endpointReservation    = "order/cart/rezervTel"
	endpointReservationDoc = "custom/addRezervTovarTblKontaktSite"
	endpointQuote          = "order/cart/kpTel"
	endpointAnonymous      = "order/cart/anonym"
)

const shippingDateLayout = "2006-01-02 15:04:05"

// ErrNoExportableItems is returned when none of an order's line items carry
// an external id, so the remote system could not identify a single product
var ErrNoExportableItems = errors.New("order has no exportable items")

// ErrOrderRejected is returned when the remote system answered with its
// rejection sentinel
var ErrOrderRejected = errors.New("order rejected by remote system")

// ExportOptions tweaks a single export attempt
type ExportOptions struct {
	// DocNumber routes a reservation through the document-bound endpoint
	DocNumber string
}

// ExportResult reports how one export attempt ended
type ExportResult struct {
	// Number is the order number the remote system assigned
	Number string
	// Diagnostics is set when the response carried no usable number and
	// the raw payload was kept on the order for operator review
	Diagnostics bool
}

// orderLine is one line of the serialized order payload
type orderLine struct {
	ItemID   string          `json:"idTovar"`
	Quantity decimal.Decimal `json:"kolvo"`
	Price    decimal.Decimal `json:"price"`
}

// OrderExporter pushes storefront orders into the ERP exactly once
type OrderExporter struct {
	gateway   domainsync.Gateway
	orders    catalog.OrderRepository
	products  catalog.ProductRepository
	publisher shared.EventPublisher
	settings  domainsync.Settings
	logger    *zap.Logger
}

// NewOrderExporter creates an exporter bound to one sync source
func NewOrderExporter(
	gateway domainsync.Gateway,
	orders catalog.OrderRepository,
	products catalog.ProductRepository,
	publisher shared.EventPublisher,
	settings domainsync.Settings,
	logger *zap.Logger,
) *OrderExporter {
	return &OrderExporter{
		gateway:   gateway,
		orders:    orders,
		products:  products,
		publisher: publisher,
		settings:  settings,
		logger:    logger,
	}
}

// Export submits the order to the ERP and records the assigned number.
// An already-exported order returns shared.ErrAlreadyExported without any
// remote call, which keeps retries and duplicate jobs harmless. A response
// without a usable number is not an error: the raw payload is stored on the
// order and the result carries the Diagnostics flag.
func (e *OrderExporter) Export(ctx context.Context, orderID uuid.UUID, opts ExportOptions) (ExportResult, error) {
	order, err := e.orders.FindByID(ctx, orderID)
	if err != nil {
		return ExportResult{}, err
	}
	if order.IsExported() {
		e.logger.Info("Order already exported, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("external_id", *order.ExternalID),
		)
		return ExportResult{Number: *order.ExternalID}, shared.ErrAlreadyExported
	}

	lines, err := e.buildLines(ctx, order)
	if err != nil {
		return ExportResult{}, err
	}
	if len(lines) == 0 {
		return ExportResult{}, fmt.Errorf("%w: order %s", ErrNoExportableItems, orderID)
	}

	params, err := e.buildParams(order, lines)
	if err != nil {
		return ExportResult{}, err
	}
	if order.Type == catalog.OrderTypeReservation && opts.DocNumber != "" {
		params["nomerDoc"] = opts.DocNumber
	}

	receipt, err := e.gateway.SubmitOrder(ctx, e.endpoint(order, opts), params)
	if err != nil {
		return ExportResult{}, fmt.Errorf("order submission failed: %w", err)
	}

	if receipt.Rejected {
		order.RecordDiagnostics(receipt.Raw)
		if err := e.orders.Update(ctx, order); err != nil {
			return ExportResult{}, err
		}
		e.logger.Warn("Order rejected by remote system",
			zap.String("order_id", orderID.String()),
		)
		return ExportResult{Diagnostics: true}, fmt.Errorf("%w: order %s", ErrOrderRejected, orderID)
	}

	if receipt.Number == "" {
		// No usable number came back; keep the raw response for review and
		// finish without an external id so a manual re-export stays possible
		order.RecordDiagnostics(receipt.Raw)
		if err := e.orders.Update(ctx, order); err != nil {
			return ExportResult{}, err
		}
		e.logger.Warn("Remote returned no order number, diagnostics stored",
			zap.String("order_id", orderID.String()),
		)
		return ExportResult{Diagnostics: true}, nil
	}

	if err := order.SetExternalID(receipt.Number); err != nil {
		return ExportResult{}, err
	}
	if err := e.orders.Update(ctx, order); err != nil {
		return ExportResult{}, err
	}

	events := order.GetDomainEvents()
	if len(events) > 0 {
		if err := e.publisher.Publish(ctx, events...); err != nil {
			e.logger.Warn("Failed to publish order events", zap.Error(err))
		}
		order.ClearDomainEvents()
	}

	e.logger.Info("Order exported",
		zap.String("order_id", orderID.String()),
		zap.String("external_id", receipt.Number),
		zap.String("order_type", string(order.Type)),
	)
	return ExportResult{Number: receipt.Number}, nil
}

// buildLines resolves the order's items to ERP product ids. Items without
// an external id are dropped: the remote system cannot identify them.
func (e *OrderExporter) buildLines(ctx context.Context, order *catalog.Order) ([]orderLine, error) {
	items := order.ItemMap()
	ids := make([]uuid.UUID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}

	products, err := e.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	wholesale := e.settings.Pricing == domainsync.PricingWholesale && order.UserID != nil

	lines := make([]orderLine, 0, len(products))
	for i := range products {
		product := &products[i]
		if product.Source != e.settings.Source || product.ExternalID == "" {
			e.logger.Warn("Dropping order line without external id",
				zap.String("product_id", product.ID.String()),
			)
			continue
		}
		quantity, ok := items[product.ID]
		if !ok || quantity.IsZero() {
			continue
		}
		lines = append(lines, orderLine{
			ItemID:   product.ExternalID,
			Quantity: quantity,
			Price:    product.UnitPrice(wholesale),
		})
	}
	return lines, nil
}

func (e *OrderExporter) buildParams(order *catalog.Order, lines []orderLine) (map[string]string, error) {
	payload, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("order payload: %w", err)
	}

	stockCheck := "0"
	if e.settings.StockCheck.Applies(order.UserID != nil) {
		stockCheck = "1"
	}

	shipping := ""
	if !order.Shipping.IsZero() {
		shipping = order.Shipping.Format(shippingDateLayout)
	}

	return map[string]string{
		"sklad":          e.settings.Storage,
		"urlico":         e.settings.LegalEntity,
		"ds":             e.settings.Checkout,
		"kontragent":     e.settings.Contractor,
		"shema":          e.settings.Scheme,
		"valuta":         e.settings.Currency,
		"userID":         e.settings.UserID,
		"nameKontakt":    order.Client,
		"adresKontakt":   order.Address,
		"telefonKontakt": order.Phone,
		"other1Kontakt":  order.Email,
		"dateDost":       shipping,
		"komment":        order.Comment,
		"tovarJson":      string(payload),
		"nalich":         stockCheck,
	}, nil
}

func (e *OrderExporter) endpoint(order *catalog.Order, opts ExportOptions) string {
	switch order.Type {
	case catalog.OrderTypeReservation:
		if opts.DocNumber != "" {
			return endpointReservationDoc
		}
		return endpointReservation
	case catalog.OrderTypeQuote:
		return endpointQuote
	default:
		return endpointAnonymous
	}
}
