package catalog

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/syncengine/internal/domain/shared"
)

func TestNewOrder(t *testing.T) {
	productID := uuid.New()
	order, err := NewOrder(OrderTypeReservation, map[uuid.UUID]decimal.Decimal{
		productID: decimal.NewFromInt(3),
	})
	require.NoError(t, err)

	assert.False(t, order.IsExported())
	items := order.ItemMap()
	require.Contains(t, items, productID)
	assert.True(t, items[productID].Equal(decimal.NewFromInt(3)))

	events := order.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderCreated, events[0].EventType())
}

func TestNewOrderRejectsEmptyItems(t *testing.T) {
	_, err := NewOrder(OrderTypeAnonymous, nil)
	assert.Error(t, err)
}

func TestOrderExternalIDSetOnce(t *testing.T) {
	order, err := NewOrder(OrderTypeAnonymous, map[uuid.UUID]decimal.Decimal{
		uuid.New(): decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	order.ClearDomainEvents()

	require.NoError(t, order.SetExternalID("44812"))
	assert.True(t, order.IsExported())

	events := order.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderExported, events[0].EventType())

	err = order.SetExternalID("44813")
	assert.ErrorIs(t, err, shared.ErrAlreadyExported)
	assert.Equal(t, "44812", *order.ExternalID)
}

func TestOrderRecordDiagnostics(t *testing.T) {
	order, err := NewOrder(OrderTypeQuote, map[uuid.UUID]decimal.Decimal{
		uuid.New(): decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	order.RecordDiagnostics(json.RawMessage(`{"nomerZakaza":"-1"}`))
	assert.Equal(t, `{"nomerZakaza":"-1"}`, order.System)
	assert.False(t, order.IsExported())
}
