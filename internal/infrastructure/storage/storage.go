// Package storage provides object storage implementations for image files.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when the requested object does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage stores binary objects under string keys.
// Implementations must be safe for concurrent use.
type ObjectStorage interface {
	// Put stores an object, replacing any existing object under the same key
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object's content and content type
	Get(ctx context.Context, key string) ([]byte, string, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is present
	Exists(ctx context.Context, key string) (bool, error)
}
