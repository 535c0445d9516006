package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
)

func TestOrderRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	order, err := catalog.NewOrder(catalog.OrderTypeReservation, map[uuid.UUID]decimal.Decimal{
		productID: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, found.IsExported())
	items := found.ItemMap()
	assert.True(t, items[productID].Equal(decimal.NewFromInt(2)))

	require.NoError(t, found.SetExternalID("44812"))
	require.NoError(t, repo.Update(ctx, found))

	again, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, again.IsExported())
	assert.Equal(t, "44812", *again.ExternalID)
}

func TestOrderRepositoryNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAttributeRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormAttributeRepository(db)
	ctx := context.Background()

	attribute, err := catalog.NewAttribute("field1", "Index field 1", "sync", catalog.AttributeTypeString)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, attribute))

	found, err := repo.FindByAddress(ctx, "field1")
	require.NoError(t, err)
	assert.Equal(t, attribute.ID, found.ID)
	assert.Equal(t, catalog.AttributeTypeString, found.Type)

	_, err = repo.FindByAddress(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestImageRepositoryReplaceForOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormImageRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	first := []catalog.Image{
		*catalog.NewImage(catalog.ImageOwnerProduct, ownerID, "old.jpg", "images/old.jpg", "image/jpeg", 0),
	}
	require.NoError(t, repo.ReplaceForOwner(ctx, catalog.ImageOwnerProduct, ownerID, first))

	second := []catalog.Image{
		*catalog.NewImage(catalog.ImageOwnerProduct, ownerID, "front.jpg", "images/front.jpg", "image/jpeg", 0),
		*catalog.NewImage(catalog.ImageOwnerProduct, ownerID, "back.jpg", "images/back.jpg", "image/jpeg", 1),
	}
	require.NoError(t, repo.ReplaceForOwner(ctx, catalog.ImageOwnerProduct, ownerID, second))

	images, err := repo.FindByOwner(ctx, catalog.ImageOwnerProduct, ownerID)
	require.NoError(t, err)
	require.Len(t, images, 2, "previous links are replaced, not appended")
	assert.Equal(t, "front.jpg", images[0].FileName)
	assert.Equal(t, "back.jpg", images[1].FileName)
}
