// Package blobstore abstracts the object storage used to archive
// snapshot files off the pipeline host.
//
// The local and in-memory implementations live here; S3 and MinIO
// backed implementations live in subpackages so their SDKs are only
// linked when used.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations must return an error satisfying
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blob not found")

// Store is a flat namespace of immutable blobs.
type Store interface {
	// Put writes a blob, replacing any existing blob of that name.
	Put(ctx context.Context, name string, data []byte) error
	// Get reads a whole blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
