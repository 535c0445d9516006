package trademaster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/sync"
)

// rejectionSentinel is the order number the ERP answers with when it
// refuses an order
const rejectionSentinel = "-1"

var _ sync.Gateway = (*Client)(nil)

// Categories fetches the full flat category feed
func (c *Client) Categories(ctx context.Context) ([]sync.CategorySnapshot, error) {
	raw, err := c.Call(ctx, http.MethodGet, "catalog/list", nil)
	if err != nil {
		return nil, err
	}

	var rows []categoryRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.logger.Warn("Unexpected category feed shape", zap.Error(err))
		return nil, nil
	}

	snapshots := make([]sync.CategorySnapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, sync.CategorySnapshot{
			ExternalID:       row.ID.String(),
			ParentExternalID: row.Parent.String(),
			Title:            row.Title.String(),
			SortOrder:        row.SortOrder.Int(),
			Description:      row.Description.URLDecoded(),
			Address:          row.Address.String(),
			Field1:           row.Field1.String(),
			Field2:           row.Field2.String(),
			Field3:           row.Field3.String(),
			PhotoRef:         row.Photo.String(),
		})
	}
	return snapshots, nil
}

// ItemCount fetches the total number of items in the configured storage
func (c *Client) ItemCount(ctx context.Context) (int, error) {
	raw, err := c.Call(ctx, http.MethodGet, "item/count", nil)
	if err != nil {
		return 0, err
	}

	var row itemCountRow
	if err := json.Unmarshal(raw, &row); err == nil && row.Count.String() != "" {
		return row.Count.Int(), nil
	}

	// some revisions wrap the object in a single-element array
	var rows []itemCountRow
	if err := json.Unmarshal(raw, &rows); err == nil && len(rows) > 0 {
		return rows[0].Count.Int(), nil
	}

	return 0, nil
}

// Items fetches one page of the item feed
func (c *Client) Items(ctx context.Context, offset, limit int) ([]sync.ProductSnapshot, error) {
	raw, err := c.Call(ctx, http.MethodGet, "item/list", map[string]string{
		"sklad":  c.config.Storage,
		"offset": strconv.Itoa(offset),
		"limit":  strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}

	var rows []productRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.logger.Warn("Unexpected item feed shape", zap.Error(err))
		return nil, nil
	}

	snapshots := make([]sync.ProductSnapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, sync.ProductSnapshot{
			ExternalID:         row.ID.String(),
			CategoryExternalID: row.Category.String(),
			Title:              row.Title.String(),
			SortOrder:          row.SortOrder.Int(),
			Address:            row.Address.String(),
			Description:        strings.TrimSpace(row.Description.URLDecoded()),
			Extra:              strings.TrimSpace(row.Extra.URLDecoded()),
			VendorCode:         row.VendorCode.String(),
			Barcode:            row.Barcode.String(),
			PriceFirst:         row.PriceFirst.Decimal(),
			Price:              row.Price.Decimal(),
			PriceWholesale:     row.Wholesale.Decimal(),
			Stock:              row.Stock.Decimal(),
			Weight:             row.Weight.Decimal(),
			Unit:               strings.TrimRight(row.Unit.String(), "."),
			Country:            row.Country.String(),
			Manufacturer:       row.Manufacturer.String(),
			Tags:               row.Tags.String(),
			Field1:             row.Field1.String(),
			Field2:             row.Field2.String(),
			Field3:             row.Field3.String(),
			Field4:             row.Field4.String(),
			Field5:             row.Field5.String(),
			ChangedAt:          row.ChangeDate.Time(),
			PhotoRef:           row.Photo.String(),
		})
	}
	return snapshots, nil
}

// Relations fetches one page of the related-items feed
func (c *Client) Relations(ctx context.Context, offset, limit int) ([]sync.RelationRow, error) {
	raw, err := c.Call(ctx, http.MethodGet, "item/related", map[string]string{
		"offset": strconv.Itoa(offset),
		"limit":  strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}

	var rows []relationRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.logger.Warn("Unexpected relation feed shape", zap.Error(err))
		return nil, nil
	}

	relations := make([]sync.RelationRow, 0, len(rows))
	for _, row := range rows {
		relations = append(relations, sync.RelationRow{
			ProductExternalID: row.Product.String(),
			RelatedExternalID: row.Related.String(),
			Quantity:          row.Quantity.Decimal(),
		})
	}
	return relations, nil
}

// SubmitOrder posts an order payload and interprets the response
// A single-element array is unwrapped; the "-1" order number is the
// rejection sentinel, not a success
func (c *Client) SubmitOrder(ctx context.Context, endpoint string, params map[string]string) (sync.OrderReceipt, error) {
	raw, err := c.Call(ctx, http.MethodPost, endpoint, params)
	if err != nil {
		return sync.OrderReceipt{}, err
	}

	receipt := sync.OrderReceipt{Raw: raw}

	var rows []orderResponseRow
	if err := json.Unmarshal(raw, &rows); err == nil {
		if len(rows) == 1 {
			receipt.Number = rows[0].Number.String()
		}
	} else {
		var row orderResponseRow
		if err := json.Unmarshal(raw, &row); err == nil {
			receipt.Number = row.Number.String()
		}
	}

	if receipt.Number == rejectionSentinel {
		receipt.Number = ""
		receipt.Rejected = true
	}
	return receipt, nil
}

// UploadItems posts a serialized product batch to the bulk-update endpoint
func (c *Client) UploadItems(ctx context.Context, payload []byte) error {
	raw, err := c.Call(ctx, http.MethodPost, "item/updateTovarSite", map[string]string{
		"tovarxml": string(payload),
	})
	if err != nil {
		return err
	}
	if string(raw) == string(emptyList) {
		return fmt.Errorf("bulk update returned no confirmation")
	}
	return nil
}
