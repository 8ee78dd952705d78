// Package blob stores uploaded document bytes. Jobs keep a reference to
// the stored object rather than the bytes themselves.
package blob

import "context"

// Store writes and removes document blobs.
type Store interface {
	// Put stores data under key and returns an opaque reference usable
	// with Get and Delete.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Get returns the bytes previously stored under ref.
	Get(ctx context.Context, ref string) ([]byte, error)
	// Delete removes the blob at ref. Deleting a missing blob is not an
	// error.
	Delete(ctx context.Context, ref string) error
}
