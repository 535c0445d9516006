package trademaster

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/catalog/list", r.URL.Path)
		w.Write([]byte(`[
			{"idZvena":"1","idParent":"0","nameZvena":"Tools","poryadok":"2","opisanie":"Power%20tools","link":"tools","ind1":"a","ind2":"","ind3":"","foto":"tools.jpg"},
			{"idZvena":2,"idParent":1,"nameZvena":"Drills","poryadok":1,"opisanie":"","link":"drills","ind1":"","ind2":"","ind3":"","foto":""}
		]`))
	})

	snapshots, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, "1", snapshots[0].ExternalID)
	assert.Equal(t, "0", snapshots[0].ParentExternalID)
	assert.Equal(t, "Power tools", snapshots[0].Description)
	assert.Equal(t, 2, snapshots[0].SortOrder)
	assert.Equal(t, "tools.jpg", snapshots[0].PhotoRef)

	// numeric ids are normalized to strings
	assert.Equal(t, "2", snapshots[1].ExternalID)
	assert.Equal(t, "1", snapshots[1].ParentExternalID)
}

func TestItemCountShapes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":"250"}`))
	})
	count, err := client.ItemCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250, count)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"count":42}]`))
	})
	count, err = client.ItemCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	count, err = client.ItemCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestItemsDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("sklad"))
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{
			"idTovar":"5001","vStrukture":"1","name":" Drill ","poryadok":"1",
			"opisanie":"Cordless%20drill","opisanieDop":"","link":"drill",
			"ind1":"x","ind2":"","ind3":"","ind4":"","ind5":"new;sale",
			"artikul":"DR-1","strihKod":"4820000000001",
			"sebestomost":"80,50","price":"120","opt_price":"100.5",
			"edIzmer":"pcs.","ves":"1.2","strana":"Germany","proizv":"Bosch",
			"tags":"drill,tool","changeDate":"15.03.2024 10:30:00","kolvo":"7","foto":"drill.jpg"
		}]`))
	})

	items, err := client.Items(context.Background(), 100, 100)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "5001", item.ExternalID)
	assert.Equal(t, "1", item.CategoryExternalID)
	assert.Equal(t, "Drill", item.Title)
	assert.Equal(t, "Cordless drill", item.Description)
	assert.Equal(t, "pcs", item.Unit, "trailing dot is stripped")
	assert.True(t, item.PriceFirst.Equal(decimal.RequireFromString("80.50")), "comma separator tolerated")
	assert.True(t, item.PriceWholesale.Equal(decimal.RequireFromString("100.5")))
	assert.True(t, item.Stock.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, "new;sale", item.Field5)
	assert.Equal(t, 2024, item.ChangedAt.Year())
}

func TestRelationsDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"idTovar1":"5001","idTovar2":"5002","kolvo":"2"}]`))
	})

	rows, err := client.Relations(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "5001", rows[0].ProductExternalID)
	assert.Equal(t, "5002", rows[0].RelatedExternalID)
	assert.True(t, rows[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestSubmitOrderUnwrapsSingleElementArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"nomerZakaza":"44812"}]`))
	})

	receipt, err := client.SubmitOrder(context.Background(), "order/cart/anonym", nil)
	require.NoError(t, err)
	assert.Equal(t, "44812", receipt.Number)
	assert.False(t, receipt.Rejected)
}

func TestSubmitOrderRejectionSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nomerZakaza":"-1"}`))
	})

	receipt, err := client.SubmitOrder(context.Background(), "order/cart/rezervTel", nil)
	require.NoError(t, err)
	assert.Empty(t, receipt.Number)
	assert.True(t, receipt.Rejected)
	assert.JSONEq(t, `{"nomerZakaza":"-1"}`, string(receipt.Raw))
}

func TestSubmitOrderAmbiguousShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"storage locked"}`))
	})

	receipt, err := client.SubmitOrder(context.Background(), "order/cart/kpTel", nil)
	require.NoError(t, err)
	assert.Empty(t, receipt.Number)
	assert.False(t, receipt.Rejected)
	assert.JSONEq(t, `{"error":"storage locked"}`, string(receipt.Raw))
}

func TestUploadItems(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/item/updateTovarSite", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"ok":1}`))
	})

	err := client.UploadItems(context.Background(), []byte(`<Attributes></Attributes>`))
	require.NoError(t, err)
	assert.Contains(t, gotBody, "tovarxml=")
}

func TestUploadItemsNoConfirmation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	err := client.UploadItems(context.Background(), []byte(`<Attributes></Attributes>`))
	assert.Error(t, err)
}

func TestConfigLists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/object/getScheme":
			w.Write([]byte(`[{"idShema":"1","shema":"main"}]`))
		case "/v1/object/getStorage":
			w.Write([]byte(`[{"idSklad":"3","nameSklad":"Main warehouse"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	})

	lists := client.ConfigLists(context.Background())
	assert.Equal(t, map[string]string{"1": "main"}, lists.Scheme)
	assert.Equal(t, map[string]string{"3": "Main warehouse"}, lists.Storage)
	assert.Empty(t, lists.Legal)
}
