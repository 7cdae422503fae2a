package blobstore

import (
	"bytes"
	"context"
	"io"

	"golang.org/x/sync/singleflight"
)

// Caching wraps a BlobStore with a read-through cache. Concurrent opens of
// the same missing entry are collapsed into a single fetch from the backing
// store.
//
// Writes go to the backing store and invalidate the cached entry.
type Caching struct {
	backing BlobStore
	cache   *Memory
	group   singleflight.Group
}

// NewCaching creates a read-through cache in front of backing.
func NewCaching(backing BlobStore) *Caching {
	return &Caching{
		backing: backing,
		cache:   NewMemory(),
	}
}

// Put implements BlobStore.
func (c *Caching) Put(ctx context.Context, name string, r io.Reader) error {
	if err := c.cache.Delete(ctx, name); err != nil {
		return err
	}
	return c.backing.Put(ctx, name, r)
}

// Open implements BlobStore. A cache miss fetches from the backing store
// exactly once, even under concurrent opens of the same name.
func (c *Caching) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if rc, err := c.cache.Open(ctx, name); err == nil {
		return rc, nil
	}

	_, err, _ := c.group.Do(name, func() (any, error) {
		rc, err := c.backing.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return nil, c.cache.Put(ctx, name, bytes.NewReader(data))
	})
	if err != nil {
		return nil, err
	}

	return c.cache.Open(ctx, name)
}

// Delete implements BlobStore.
func (c *Caching) Delete(ctx context.Context, name string) error {
	if err := c.cache.Delete(ctx, name); err != nil {
		return err
	}
	return c.backing.Delete(ctx, name)
}
