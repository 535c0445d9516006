package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/syncengine/internal/domain/shared"
)

func TestNewCategory(t *testing.T) {
	category, err := NewCategory(SourceTradeMaster, "101", "Electronics", "electronics")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, category.ID)
	assert.Equal(t, SourceTradeMaster, category.Source)
	assert.Equal(t, "101", category.ExternalID)
	assert.Equal(t, "Electronics", category.Title)
	assert.Equal(t, StatusWork, category.Status)
	assert.Nil(t, category.ParentID)
	assert.False(t, category.Invalid)

	events := category.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCategoryCreated, events[0].EventType())
}

func TestNewCategoryValidation(t *testing.T) {
	_, err := NewCategory(SourceTradeMaster, "101", "", "empty")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TITLE", domainErr.Code)

	_, err = NewCategory(SourceTradeMaster, "", "Electronics", "electronics")
	require.Error(t, err)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_EXTERNAL_ID", domainErr.Code)
}

func TestCategoryUpdateRestoresDeleted(t *testing.T) {
	category, err := NewCategory(SourceTradeMaster, "101", "Electronics", "electronics")
	require.NoError(t, err)

	category.MarkDeleted()
	assert.True(t, category.IsDeleted())

	err = category.Update("Electronics", "gadgets", 3, "a", "b", "c")
	require.NoError(t, err)

	assert.Equal(t, StatusWork, category.Status)
	assert.Equal(t, "gadgets", category.Description)
	assert.Equal(t, 3, category.SortOrder)
	assert.Equal(t, "a", category.Field1)
}

func TestCategoryMarkDeletedIsIdempotent(t *testing.T) {
	category, err := NewCategory(SourceTradeMaster, "101", "Electronics", "electronics")
	require.NoError(t, err)
	category.ClearDomainEvents()

	category.MarkDeleted()
	category.MarkDeleted()

	assert.True(t, category.IsDeleted())
	assert.Len(t, category.GetDomainEvents(), 1)
}

func TestCategoryParentHandling(t *testing.T) {
	parent, err := NewCategory(SourceTradeMaster, "1", "Root", "root")
	require.NoError(t, err)
	child, err := NewCategory(SourceTradeMaster, "2", "Child", "child")
	require.NoError(t, err)

	child.SetParent(&parent.ID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	child.AttachToRoot()
	assert.Nil(t, child.ParentID)

	child.MarkInvalid()
	assert.True(t, child.Invalid)
	assert.Equal(t, StatusWork, child.Status)
}
