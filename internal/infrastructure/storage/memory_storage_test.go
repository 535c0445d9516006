package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	store := NewMemoryObjectStorage()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "images/front.jpg", []byte("jpeg-bytes"), "image/jpeg"))

	data, contentType, err := store.Get(ctx, "images/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)

	ok, err := store.Exists(ctx, "images/front.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = store.Get(ctx, "images/missing.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Delete(ctx, "images/front.jpg"))
	ok, err = store.Exists(ctx, "images/front.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, "images/front.jpg"), "deleting a missing object is not an error")
}

func TestMemoryObjectStoragePutOverwrites(t *testing.T) {
	store := NewMemoryObjectStorage()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v1"), "text/plain"))
	require.NoError(t, store.Put(ctx, "k", []byte("v2"), "text/plain"))

	data, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryObjectStorageRejectsEmptyKey(t *testing.T) {
	store := NewMemoryObjectStorage()
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "", nil, ""))
	_, _, err := store.Get(ctx, "")
	assert.Error(t, err)
}
