package blobstore_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/setq/blobstore"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

// runBlobStoreContract exercises the behavior every implementation must
// share.
func runBlobStoreContract(t *testing.T, bs blobstore.BlobStore) {
	ctx := context.Background()

	t.Run("open missing", func(t *testing.T) {
		_, err := bs.Open(ctx, "missing")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("put open round trip", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "blob", strings.NewReader("v1")))

		rc, err := bs.Open(ctx, "blob")
		require.NoError(t, err)
		assert.Equal(t, "v1", readAll(t, rc))
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "blob", strings.NewReader("v2")))

		rc, err := bs.Open(ctx, "blob")
		require.NoError(t, err)
		assert.Equal(t, "v2", readAll(t, rc))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, bs.Delete(ctx, "blob"))
		_, err := bs.Open(ctx, "blob")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)

		// Deleting a missing blob is a no-op.
		assert.NoError(t, bs.Delete(ctx, "blob"))
	})
}

func TestMemory(t *testing.T) {
	runBlobStoreContract(t, blobstore.NewMemory())
}

func TestMemory_ReaderIsolation(t *testing.T) {
	ctx := context.Background()
	m := blobstore.NewMemory()

	require.NoError(t, m.Put(ctx, "blob", strings.NewReader("before")))
	rc, err := m.Open(ctx, "blob")
	require.NoError(t, err)

	require.NoError(t, m.Put(ctx, "blob", strings.NewReader("after.")))
	assert.Equal(t, "before", readAll(t, rc), "an open reader must not observe later writes")
}

func TestLocal(t *testing.T) {
	local, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	runBlobStoreContract(t, local)
}

func TestLocal_NestedNames(t *testing.T) {
	ctx := context.Background()
	local, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, local.Put(ctx, "snapshots/2026/dump.sqms", strings.NewReader("data")))
	rc, err := local.Open(ctx, "snapshots/2026/dump.sqms")
	require.NoError(t, err)
	assert.Equal(t, "data", readAll(t, rc))
}

func TestCaching(t *testing.T) {
	runBlobStoreContract(t, blobstore.NewCaching(blobstore.NewMemory()))
}

// countingStore counts backing fetches and serves them slowly, so a burst
// of concurrent opens overlaps one in-flight fetch.
type countingStore struct {
	blobstore.BlobStore
	opens atomic.Int64
}

func (c *countingStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	c.opens.Add(1)
	time.Sleep(50 * time.Millisecond)
	return c.BlobStore.Open(ctx, name)
}

func TestCaching_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{BlobStore: blobstore.NewMemory()}
	require.NoError(t, backing.BlobStore.Put(ctx, "blob", strings.NewReader("v1")))

	cached := blobstore.NewCaching(backing)

	rc, err := cached.Open(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, "v1", readAll(t, rc))

	// Second open is served from cache.
	rc, err = cached.Open(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, "v1", readAll(t, rc))
	assert.Equal(t, int64(1), backing.opens.Load())

	// A write through the cache invalidates the entry.
	require.NoError(t, cached.Put(ctx, "blob", strings.NewReader("v2")))
	rc, err = cached.Open(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, "v2", readAll(t, rc))
	assert.Equal(t, int64(2), backing.opens.Load())
}

func TestCaching_CollapsesConcurrentFetches(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{BlobStore: blobstore.NewMemory()}
	require.NoError(t, backing.BlobStore.Put(ctx, "blob", strings.NewReader("v1")))

	cached := blobstore.NewCaching(backing)

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rc, err := cached.Open(ctx, "blob")
			if err != nil {
				errs[i] = err
				return
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				errs[i] = err
				return
			}
			if string(data) != "v1" {
				errs[i] = fmt.Errorf("unexpected content %q", data)
			}
		}()
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), backing.opens.Load(), "concurrent misses must collapse into one fetch")
}
