// Package blobstore abstracts where memstore snapshots live: a local
// directory, process memory (tests), or an object store (S3, MinIO).
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Every implementation maps its backend's missing-object condition to an
// error satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blob not found")

// BlobStore stores and retrieves named blobs as streams.
type BlobStore interface {
	// Put writes the blob under name, replacing any previous content.
	// The write is atomic per name: a concurrent Open sees either the old
	// or the new content, never a mix.
	Put(ctx context.Context, name string, r io.Reader) error

	// Open opens the blob for reading. The caller closes the returned
	// reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing blob is a no-op.
	Delete(ctx context.Context, name string) error
}
