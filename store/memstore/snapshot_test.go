package memstore_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/setq/blobstore"
	"github.com/hupe1980/setq/store/memstore"
)

func populatedStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "app:person:pk", "1", "2", "3")
	require.NoError(t, err)
	_, err = st.SAdd(ctx, "app:person:status:active", "1", "2")
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "app:person:1:name", "Alice"))
	require.NoError(t, st.Set(ctx, "app:person:2:name", "Bob"))
	return st
}

func assertSameContent(t *testing.T, want, got *memstore.Store) {
	t.Helper()
	ctx := context.Background()

	require.Equal(t, want.Keys(), got.Keys())
	for _, key := range want.Keys() {
		wantMembers, err := want.SMembers(ctx, key)
		if err == nil {
			gotMembers, gerr := got.SMembers(ctx, key)
			require.NoError(t, gerr)
			assert.ElementsMatch(t, wantMembers, gotMembers, key)
			continue
		}
		wantValue, _, err := want.Get(ctx, key)
		require.NoError(t, err)
		gotValue, found, err := got.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, found, key)
		assert.Equal(t, wantValue, gotValue, key)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	compressions := map[string]memstore.CompressionType{
		"none": memstore.CompressionNone,
		"lz4":  memstore.CompressionLZ4,
		"zstd": memstore.CompressionZSTD,
	}

	for name, compression := range compressions {
		t.Run(name, func(t *testing.T) {
			src := populatedStore(t)

			var buf bytes.Buffer
			require.NoError(t, src.Snapshot(&buf, memstore.WithCompression(compression)))

			dst := memstore.New()
			require.NoError(t, dst.Restore(&buf))
			assertSameContent(t, src, dst)
		})
	}
}

func TestRestore_ReplacesContent(t *testing.T) {
	ctx := context.Background()
	src := populatedStore(t)

	var buf bytes.Buffer
	require.NoError(t, src.Snapshot(&buf))

	dst := memstore.New()
	_, err := dst.SAdd(ctx, "stale:set", "x")
	require.NoError(t, err)
	require.NoError(t, dst.Set(ctx, "stale:string", "y"))

	require.NoError(t, dst.Restore(&buf))
	assert.NotContains(t, dst.Keys(), "stale:set")
	assert.NotContains(t, dst.Keys(), "stale:string")
	assertSameContent(t, src, dst)
}

func TestRestore_RejectsBadHeader(t *testing.T) {
	dst := memstore.New()

	err := dst.Restore(bytes.NewReader([]byte("XXXX\x01\x00\x00")))
	assert.ErrorContains(t, err, "bad magic")

	err = dst.Restore(bytes.NewReader([]byte("SQ")))
	assert.ErrorContains(t, err, "header")

	err = dst.Restore(bytes.NewReader([]byte{'S', 'Q', 'M', 'S', 0x63, 0x00, 0x00}))
	assert.ErrorContains(t, err, "version")
}

func TestSaveToLoadFrom(t *testing.T) {
	ctx := context.Background()
	src := populatedStore(t)
	blobs := blobstore.NewMemory()

	require.NoError(t, src.SaveTo(ctx, blobs, "dump.sqms", memstore.WithCompression(memstore.CompressionLZ4)))
	assert.Equal(t, 1, blobs.Len())

	dst := memstore.New()
	require.NoError(t, dst.LoadFrom(ctx, blobs, "dump.sqms"))
	assertSameContent(t, src, dst)

	err := dst.LoadFrom(ctx, blobs, "missing.sqms")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
