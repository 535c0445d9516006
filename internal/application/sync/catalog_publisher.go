package sync

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/catalog"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
)

const (
	// uploadBatchSize bounds one serialized batch
	uploadBatchSize = 100
	// recentEditWindow selects products for an incremental upload
	recentEditWindow = 5 * time.Minute
)

// productAttributeValue carries one product's full field set in the
// ERP's bulk-update vocabulary
type productAttributeValue struct {
	Name           string `xml:"name"`
	Description    string `xml:"opisanie"`
	Extra          string `xml:"opisanieDop"`
	VendorCode     string `xml:"artikul"`
	Unit           string `xml:"edIzmer"`
	Barcode        string `xml:"strihKod"`
	SortOrder      string `xml:"poryadok"`
	Photo          string `xml:"foto"`
	Address        string `xml:"link"`
	PriceFirst     string `xml:"sebestoim"`
	Price          string `xml:"price"`
	PriceWholesale string `xml:"opt_price"`
	Stock          string `xml:"kolvo"`
	Field1         string `xml:"ind1"`
	Field2         string `xml:"ind2"`
	Field3         string `xml:"ind3"`
	Field4         string `xml:"ind4"`
	Field5         string `xml:"ind5"`
	Tags           string `xml:"tags"`
	Weight         string `xml:"ves"`
	Manufacturer   string `xml:"proizv"`
	Country        string `xml:"strana"`
}

// productAttribute is one product row of the upload payload
type productAttribute struct {
	XMLName xml.Name              `xml:"ProductAttribute"`
	ItemID  string                `xml:"idTovar,attr"`
	Value   productAttributeValue `xml:"ProductAttributeValue"`
}

// uploadBatch is the root element of the upload payload
type uploadBatch struct {
	XMLName  xml.Name           `xml:"Attributes"`
	Products []productAttribute `xml:"ProductAttribute"`
}

// CatalogPublisher serializes local products into the ERP's bulk-update
// format and pushes them batch by batch. A failing batch is logged and the
// run continues with the next one.
type CatalogPublisher struct {
	gateway  domainsync.Gateway
	products catalog.ProductRepository
	images   catalog.ImageRepository
	settings domainsync.Settings
	logger   *zap.Logger
}

// NewCatalogPublisher creates a publisher bound to one sync source
func NewCatalogPublisher(
	gateway domainsync.Gateway,
	products catalog.ProductRepository,
	images catalog.ImageRepository,
	settings domainsync.Settings,
	logger *zap.Logger,
) *CatalogPublisher {
	return &CatalogPublisher{
		gateway:  gateway,
		products: products,
		images:   images,
		settings: settings,
		logger:   logger,
	}
}

// PublishResult reports what one publish run did
type PublishResult struct {
	Products      int
	Batches       int
	FailedBatches int
}

// Publish uploads active products. With onlyUpdated set, only products
// edited within the incremental window are sent.
func (p *CatalogPublisher) Publish(ctx context.Context, onlyUpdated bool) (*PublishResult, error) {
	var (
		products []catalog.Product
		err      error
	)
	if onlyUpdated {
		products, err = p.products.FindEditedSince(ctx, p.settings.Source, time.Now().Add(-recentEditWindow))
	} else {
		products, err = p.products.FindBySourceAndStatus(ctx, p.settings.Source, catalog.StatusWork)
	}
	if err != nil {
		return nil, err
	}

	result := &PublishResult{Products: len(products)}
	if len(products) == 0 {
		p.logger.Info("Nothing to publish", zap.Bool("only_updated", onlyUpdated))
		return result, nil
	}

	for start := 0; start < len(products); start += uploadBatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := start + uploadBatchSize
		if end > len(products) {
			end = len(products)
		}

		payload, err := p.encodeBatch(ctx, products[start:end])
		if err != nil {
			return result, err
		}

		result.Batches++
		if err := p.gateway.UploadItems(ctx, payload); err != nil {
			result.FailedBatches++
			p.logger.Error("Upload batch failed",
				zap.Int("batch", result.Batches),
				zap.Int("size", end-start),
				zap.Error(err),
			)
			continue
		}
	}

	p.logger.Info("Catalog publish complete",
		zap.Int("products", result.Products),
		zap.Int("batches", result.Batches),
		zap.Int("failed_batches", result.FailedBatches),
		zap.Bool("only_updated", onlyUpdated),
	)
	return result, nil
}

func (p *CatalogPublisher) encodeBatch(ctx context.Context, products []catalog.Product) ([]byte, error) {
	batch := uploadBatch{Products: make([]productAttribute, 0, len(products))}
	for i := range products {
		product := &products[i]
		batch.Products = append(batch.Products, productAttribute{
			ItemID: product.ExternalID,
			Value: productAttributeValue{
				Name:           product.Title,
				Description:    product.Description,
				Extra:          product.Extra,
				VendorCode:     product.VendorCode,
				Unit:           product.Unit,
				Barcode:        product.Barcode,
				SortOrder:      strconv.Itoa(product.SortOrder),
				Photo:          p.photoColumn(ctx, product),
				Address:        product.Address,
				PriceFirst:     product.PriceFirst.String(),
				Price:          product.Price.String(),
				PriceWholesale: product.PriceWholesale.String(),
				Stock:          product.Stock.String(),
				Field1:         product.Field1,
				Field2:         product.Field2,
				Field3:         product.Field3,
				Field4:         product.Field4,
				Field5:         product.Field5,
				Tags:           product.Tags,
				Weight:         product.Weight.String(),
				Manufacturer:   product.Manufacturer,
				Country:        product.Country,
			},
		})
	}

	payload, err := xml.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("batch serialization: %w", err)
	}
	return append([]byte(xml.Header), payload...), nil
}

// photoColumn joins the product's materialized image URLs in display order
func (p *CatalogPublisher) photoColumn(ctx context.Context, product *catalog.Product) string {
	if p.settings.ImageBaseURL == "" {
		return ""
	}
	links, err := p.images.FindByOwner(ctx, catalog.ImageOwnerProduct, product.ID)
	if err != nil {
		p.logger.Warn("Image lookup failed during publish",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
		return ""
	}

	base := strings.TrimRight(p.settings.ImageBaseURL, "/")
	urls := make([]string, 0, len(links))
	for i := range links {
		urls = append(urls, base+"/"+links[i].StorageKey)
	}
	return strings.Join(urls, ",")
}
