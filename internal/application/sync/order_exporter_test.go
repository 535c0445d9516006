package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
)

// seedExportProduct persists a synced product usable as an order line
func seedExportProduct(t *testing.T, env *testEnv, externalID, title string, price, wholesale int64) *catalog.Product {
	t.Helper()
	ctx := context.Background()

	category, err := env.categories.FindByAddress(ctx, "export-tools")
	if err != nil {
		category, err = catalog.NewCategory(testSource, "cat-1", "Export Tools", "export-tools")
		require.NoError(t, err)
		require.NoError(t, env.categories.Create(ctx, category))
	}

	product, err := catalog.NewProduct(testSource, externalID, title, domainsync.Slugify(title), category.ID)
	require.NoError(t, err)
	product.Price = decimal.NewFromInt(price)
	product.PriceWholesale = decimal.NewFromInt(wholesale)
	require.NoError(t, env.products.Create(ctx, product))
	return product
}

func seedOrder(t *testing.T, env *testEnv, orderType catalog.OrderType, items map[uuid.UUID]decimal.Decimal) *catalog.Order {
	t.Helper()
	order, err := catalog.NewOrder(orderType, items)
	require.NoError(t, err)
	require.NoError(t, env.orders.Create(context.Background(), order))
	return order
}

func TestOrderExportReservation(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.receipt = domainsync.OrderReceipt{Number: "R-42"}

	drill := seedExportProduct(t, env, "100", "Drill", 150, 120)
	order := seedOrder(t, env, catalog.OrderTypeReservation, map[uuid.UUID]decimal.Decimal{
		drill.ID: decimal.NewFromInt(2),
	})
	order.Client = "John Smith"
	order.Phone = "+380501112233"
	order.Email = "john@example.com"
	order.Shipping = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.orders.Update(context.Background(), order))

	result, err := env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "R-42", result.Number)
	assert.False(t, result.Diagnostics)

	require.Len(t, env.gateway.submissions, 1)
	sub := env.gateway.submissions[0]
	assert.Equal(t, "order/cart/rezervTel", sub.endpoint)
	assert.Equal(t, "1", sub.params["sklad"])
	assert.Equal(t, "John Smith", sub.params["nameKontakt"])
	assert.Equal(t, "+380501112233", sub.params["telefonKontakt"])
	assert.Equal(t, "john@example.com", sub.params["other1Kontakt"])
	assert.Equal(t, "2026-09-01 00:00:00", sub.params["dateDost"])
	assert.Equal(t, "0", sub.params["nalich"])

	var lines []orderLine
	require.NoError(t, json.Unmarshal([]byte(sub.params["tovarJson"]), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "100", lines[0].ItemID)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(150)))

	saved, err := env.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, saved.IsExported())
	assert.Equal(t, "R-42", *saved.ExternalID)
	assert.Equal(t, 1, env.publisher.typesSeen()[catalog.EventTypeOrderExported])
}

func TestOrderExportIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.receipt = domainsync.OrderReceipt{Number: "R-1"}

	drill := seedExportProduct(t, env, "100", "Drill", 150, 0)
	order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
		drill.ID: decimal.NewFromInt(1),
	})

	exporter := env.exporter(t)
	_, err := exporter.Export(context.Background(), order.ID, ExportOptions{})
	require.NoError(t, err)

	// A second export returns the sentinel without touching the remote side
	_, err = exporter.Export(context.Background(), order.ID, ExportOptions{})
	assert.ErrorIs(t, err, shared.ErrAlreadyExported)
	assert.Len(t, env.gateway.submissions, 1)
}

func TestOrderExportRejection(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.receipt = domainsync.OrderReceipt{
		Rejected: true,
		Raw:      json.RawMessage(`"-1"`),
	}

	drill := seedExportProduct(t, env, "100", "Drill", 150, 0)
	order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
		drill.ID: decimal.NewFromInt(1),
	})

	result, err := env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
	assert.ErrorIs(t, err, ErrOrderRejected)
	assert.True(t, result.Diagnostics)

	saved, err := env.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, saved.IsExported())
	assert.Equal(t, `"-1"`, saved.System)
}

func TestOrderExportNoUsableNumber(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.receipt = domainsync.OrderReceipt{
		Raw: json.RawMessage(`{"status":"pending"}`),
	}

	drill := seedExportProduct(t, env, "100", "Drill", 150, 0)
	order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
		drill.ID: decimal.NewFromInt(1),
	})

	// The attempt completes; the unrecognized response is kept as diagnostics
	result, err := env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
	require.NoError(t, err)
	assert.True(t, result.Diagnostics)
	assert.Empty(t, result.Number)

	saved, err := env.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, saved.IsExported())
	assert.Equal(t, `{"status":"pending"}`, saved.System)
}

func TestOrderExportDropsUnidentifiableLines(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.receipt = domainsync.OrderReceipt{Number: "R-7"}

	drill := seedExportProduct(t, env, "100", "Drill", 150, 0)
	foreign, err := catalog.NewProduct("legacy", "900", "Legacy Item", "legacy-item", drill.CategoryID)
	require.NoError(t, err)
	require.NoError(t, env.products.Create(context.Background(), foreign))

	order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
		drill.ID:   decimal.NewFromInt(1),
		foreign.ID: decimal.NewFromInt(3),
	})

	_, err = env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
	require.NoError(t, err)

	require.Len(t, env.gateway.submissions, 1)
	var lines []orderLine
	require.NoError(t, json.Unmarshal([]byte(env.gateway.submissions[0].params["tovarJson"]), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "100", lines[0].ItemID)
}

func TestOrderExportNoExportableItems(t *testing.T) {
	env := newTestEnv(t)

	category, err := catalog.NewCategory(testSource, "cat-1", "Export Tools", "export-tools")
	require.NoError(t, err)
	require.NoError(t, env.categories.Create(context.Background(), category))
	foreign, err := catalog.NewProduct("legacy", "900", "Legacy Item", "legacy-item", category.ID)
	require.NoError(t, err)
	require.NoError(t, env.products.Create(context.Background(), foreign))

	order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
		foreign.ID: decimal.NewFromInt(1),
	})

	_, err = env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
	assert.ErrorIs(t, err, ErrNoExportableItems)
	assert.Empty(t, env.gateway.submissions)
}

func TestOrderExportWholesalePricing(t *testing.T) {
	env := newTestEnv(t)
	env.settings.Pricing = domainsync.PricingWholesale
	env.gateway.receipt = domainsync.OrderReceipt{Number: "R-9"}

	drill := seedExportProduct(t, env, "100", "Drill", 150, 120)

	t.Run("registered user gets the wholesale tier", func(t *testing.T) {
		userID := uuid.New()
		order := seedOrder(t, env, catalog.OrderTypeReservation, map[uuid.UUID]decimal.Decimal{
			drill.ID: decimal.NewFromInt(1),
		})
		order.UserID = &userID
		require.NoError(t, env.orders.Update(context.Background(), order))

		_, err := env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
		require.NoError(t, err)

		var lines []orderLine
		sub := env.gateway.submissions[len(env.gateway.submissions)-1]
		require.NoError(t, json.Unmarshal([]byte(sub.params["tovarJson"]), &lines))
		require.Len(t, lines, 1)
		assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(120)))
	})

	t.Run("anonymous order stays retail", func(t *testing.T) {
		order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
			drill.ID: decimal.NewFromInt(1),
		})

		_, err := env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
		require.NoError(t, err)

		var lines []orderLine
		sub := env.gateway.submissions[len(env.gateway.submissions)-1]
		require.NoError(t, json.Unmarshal([]byte(sub.params["tovarJson"]), &lines))
		require.Len(t, lines, 1)
		assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(150)))
	})
}

func TestOrderExportEndpointSelection(t *testing.T) {
	cases := []struct {
		name      string
		orderType catalog.OrderType
		opts      ExportOptions
		endpoint  string
	}{
		{"reservation", catalog.OrderTypeReservation, ExportOptions{}, "order/cart/rezervTel"},
		{"reservation with document", catalog.OrderTypeReservation, ExportOptions{DocNumber: "DOC-5"}, "custom/addRezervTovarTblKontaktSite"},
		{"quote", catalog.OrderTypeQuote, ExportOptions{}, "order/cart/kpTel"},
		{"anonymous", catalog.OrderTypeAnonymous, ExportOptions{}, "order/cart/anonym"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.gateway.receipt = domainsync.OrderReceipt{Number: "R-1"}

			drill := seedExportProduct(t, env, "100", "Drill", 150, 0)
			order := seedOrder(t, env, tc.orderType, map[uuid.UUID]decimal.Decimal{
				drill.ID: decimal.NewFromInt(1),
			})

			_, err := env.exporter(t).Export(context.Background(), order.ID, tc.opts)
			require.NoError(t, err)

			require.Len(t, env.gateway.submissions, 1)
			assert.Equal(t, tc.endpoint, env.gateway.submissions[0].endpoint)
			if tc.opts.DocNumber != "" {
				assert.Equal(t, tc.opts.DocNumber, env.gateway.submissions[0].params["nomerDoc"])
			}
		})
	}
}

func TestOrderExportStockCheckFlag(t *testing.T) {
	t.Run("always", func(t *testing.T) {
		env := newTestEnv(t)
		env.settings.StockCheck = domainsync.StockCheckAlways
		env.gateway.receipt = domainsync.OrderReceipt{Number: "R-1"}

		drill := seedExportProduct(t, env, "100", "Drill", 150, 0)
		order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
			drill.ID: decimal.NewFromInt(1),
		})

		_, err := env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
		require.NoError(t, err)
		assert.Equal(t, "1", env.gateway.submissions[0].params["nalich"])
	})

	t.Run("registered only skips anonymous", func(t *testing.T) {
		env := newTestEnv(t)
		env.settings.StockCheck = domainsync.StockCheckRegisteredOnly
		env.gateway.receipt = domainsync.OrderReceipt{Number: "R-1"}

		drill := seedExportProduct(t, env, "100", "Drill", 150, 0)
		order := seedOrder(t, env, catalog.OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
			drill.ID: decimal.NewFromInt(1),
		})

		_, err := env.exporter(t).Export(context.Background(), order.ID, ExportOptions{})
		require.NoError(t, err)
		assert.Equal(t, "0", env.gateway.submissions[0].params["nalich"])
	})
}
