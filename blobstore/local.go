package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local implements BlobStore on a local directory.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at the given directory, creating it
// if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: creating root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// Put implements BlobStore. The blob is staged in a temp file and renamed
// into place, so readers never observe a partial write.
func (l *Local) Put(_ context.Context, name string, r io.Reader) error {
	path := filepath.Join(l.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Open implements BlobStore.
func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

// Delete implements BlobStore.
func (l *Local) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(l.root, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
