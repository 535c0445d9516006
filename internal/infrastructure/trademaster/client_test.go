package trademaster

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		Host:        server.URL,
		Version:     1,
		APIKey:      "secret",
		CacheHost:   "https://cache.example.com",
		CacheFolder: "photo",
		Storage:     "3",
	}, zap.NewNop())
}

func TestCallGetSendsAPIKeyInQuery(t *testing.T) {
	var gotPath, gotKey, gotParam string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apikey")
		gotParam = r.URL.Query().Get("sklad")
		w.Write([]byte(`[]`))
	})

	raw, err := client.Call(context.Background(), http.MethodGet, "item/list", map[string]string{"sklad": "3"})
	require.NoError(t, err)

	assert.Equal(t, "/v1/item/list", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "3", gotParam)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCallPostSendsParamsInBody(t *testing.T) {
	var gotKey, gotBody, gotContentType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("apikey")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"ok":1}`))
	})

	_, err := client.Call(context.Background(), http.MethodPost, "order/cart/anonym", map[string]string{"kontragent": "ACME"})
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Contains(t, gotBody, "kontragent=ACME")
}

func TestCallEmptyBodyYieldsEmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// no body
	})

	raw, err := client.Call(context.Background(), http.MethodGet, "catalog/list", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCallNon2xxYieldsEmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	raw, err := client.Call(context.Background(), http.MethodGet, "catalog/list", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCallTransportFailureYieldsEmptyList(t *testing.T) {
	client := NewClient(Config{Host: "http://127.0.0.1:1", Version: 1, APIKey: "secret"}, zap.NewNop())

	raw, err := client.Call(context.Background(), http.MethodGet, "catalog/list", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCallWithoutAPIKey(t *testing.T) {
	client := NewClient(Config{Host: "http://erp.example.com", Version: 1}, zap.NewNop())

	raw, err := client.Call(context.Background(), http.MethodGet, "catalog/list", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestFilePath(t *testing.T) {
	client := NewClient(Config{
		CacheHost:   "https://cache.example.com",
		CacheFolder: "photo",
	}, zap.NewNop())

	path := client.FilePath("хамер дрель.jpg")
	assert.Equal(t, "https://cache.example.com/tradeMasterImages/photo/%D1%85%D0%B0%D0%BC%D0%B5%D1%80%20%D0%B4%D1%80%D0%B5%D0%BB%D1%8C.jpg", path)
}
