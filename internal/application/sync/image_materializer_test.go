package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/catalog"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
	"github.com/storefront/syncengine/internal/infrastructure/storage"
)

// jpegStub is a minimal JPEG preamble, enough for content sniffing
var jpegStub = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func newMaterializerEnv(t *testing.T, handler http.Handler) (*testEnv, *ImageMaterializer, *storage.MemoryObjectStorage) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	env := newTestEnv(t)
	env.gateway.fileHost = server.URL
	store := storage.NewMemoryObjectStorage()
	materializer := NewImageMaterializer(env.gateway, store, env.images, env.publisher, zap.NewNop())
	return env, materializer, store
}

func TestImageMaterializerDownloadsAndLinks(t *testing.T) {
	env, materializer, store := newMaterializerEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/box.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(jpegStub)
		default:
			http.NotFound(w, r)
		}
	}))

	product := seedExportProduct(t, env, "100", "Toolbox", 10, 0)
	result, err := materializer.Materialize(context.Background(), []domainsync.ImageRequest{
		{
			PhotoRef:   "box.jpg;missing.png",
			EntityType: catalog.ImageOwnerProduct,
			EntityID:   product.ID,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 1, result.Skipped)

	key := "images/product/" + product.ID.String() + "/box.jpg"
	require.Equal(t, []string{key}, result.ConvertKeys)

	data, contentType, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, jpegStub, data)
	assert.Equal(t, "image/jpeg", contentType)

	images, err := env.images.FindByOwner(context.Background(), catalog.ImageOwnerProduct, product.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "box.jpg", images[0].FileName)
	assert.Equal(t, key, images[0].StorageKey)

	assert.Equal(t, 1, env.publisher.typesSeen()[domainsync.EventTypeImageDownloaded])
}

func TestImageMaterializerReplacesLinksOnRerun(t *testing.T) {
	env, materializer, _ := newMaterializerEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(jpegStub)
	}))

	product := seedExportProduct(t, env, "100", "Toolbox", 10, 0)
	request := domainsync.ImageRequest{
		PhotoRef:   "first.jpg",
		EntityType: catalog.ImageOwnerProduct,
		EntityID:   product.ID,
	}
	_, err := materializer.Materialize(context.Background(), []domainsync.ImageRequest{request})
	require.NoError(t, err)

	request.PhotoRef = "second.jpg"
	_, err = materializer.Materialize(context.Background(), []domainsync.ImageRequest{request})
	require.NoError(t, err)

	images, err := env.images.FindByOwner(context.Background(), catalog.ImageOwnerProduct, product.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "second.jpg", images[0].FileName)
}

func TestImageMaterializerKeepsExistingLinksWhenAllFilesFail(t *testing.T) {
	env, materializer, _ := newMaterializerEnv(t, http.NotFoundHandler())

	product := seedExportProduct(t, env, "100", "Toolbox", 10, 0)
	existing := catalog.NewImage(catalog.ImageOwnerProduct, product.ID, "old.jpg", "images/product/x/old.jpg", "image/jpeg", 0)
	require.NoError(t, env.images.ReplaceForOwner(context.Background(), catalog.ImageOwnerProduct, product.ID, []catalog.Image{*existing}))

	result, err := materializer.Materialize(context.Background(), []domainsync.ImageRequest{
		{
			PhotoRef:   "new.jpg",
			EntityType: catalog.ImageOwnerProduct,
			EntityID:   product.ID,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Downloaded)
	assert.Equal(t, 1, result.Skipped)

	images, err := env.images.FindByOwner(context.Background(), catalog.ImageOwnerProduct, product.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "old.jpg", images[0].FileName)
}
