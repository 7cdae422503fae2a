package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/setq/store"
	"github.com/hupe1980/setq/store/memstore"
)

func TestSetOps(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	added, err := st.SAdd(ctx, "s", "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(3), added)

	added, err = st.SAdd(ctx, "s", "b", "d")
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	n, err := st.SCard(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	members, err := st.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, members)

	ok, err := st.SIsMember(ctx, "s", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.SIsMember(ctx, "s", "z")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := st.SRem(ctx, "s", "a", "z")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestSetOps_MissingKey(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	n, err := st.SCard(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	members, err := st.SMembers(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, members)

	ok, err := st.SIsMember(ctx, "missing", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := st.SRem(ctx, "missing", "a")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSRem_EmptySetVanishes(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "s", "a")
	require.NoError(t, err)
	_, err = st.SRem(ctx, "s", "a")
	require.NoError(t, err)

	assert.Empty(t, st.Keys())
}

func TestSInterStore(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "a", "1", "2", "3")
	require.NoError(t, err)
	_, err = st.SAdd(ctx, "b", "2", "3", "4")
	require.NoError(t, err)

	n, err := st.SInterStore(ctx, "dst", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	members, err := st.SMembers(ctx, "dst")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2", "3"}, members)
}

func TestSInterStore_MissingKeyEmpties(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "a", "1", "2")
	require.NoError(t, err)
	_, err = st.SAdd(ctx, "dst", "stale")
	require.NoError(t, err)

	n, err := st.SInterStore(ctx, "dst", "a", "missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	// An empty result removes the destination entirely.
	ok, err := st.SIsMember(ctx, "dst", "stale")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, st.Keys(), "dst")
}

func TestSUnionStore(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "a", "1", "2")
	require.NoError(t, err)
	_, err = st.SAdd(ctx, "b", "2", "3")
	require.NoError(t, err)

	n, err := st.SUnionStore(ctx, "dst", "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	members, err := st.SMembers(ctx, "dst")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, members)
}

func TestStrings(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	_, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, st.Set(ctx, "k", "v"))

	v, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, st.Set(ctx, "k", "v2"))
	v, _, err = st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestWrongType(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	require.NoError(t, st.Set(ctx, "str", "v"))
	_, err := st.SAdd(ctx, "str", "a")
	assert.ErrorIs(t, err, memstore.ErrWrongType)
	_, err = st.SCard(ctx, "str")
	assert.ErrorIs(t, err, memstore.ErrWrongType)

	_, err = st.SAdd(ctx, "set", "a")
	require.NoError(t, err)
	err = st.Set(ctx, "set", "v")
	assert.ErrorIs(t, err, memstore.ErrWrongType)
	_, _, err = st.Get(ctx, "set")
	assert.ErrorIs(t, err, memstore.ErrWrongType)
}

func TestDel(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "s", "a")
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "k", "v"))

	deleted, err := st.Del(ctx, "s", "k", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Empty(t, st.Keys())
}

func sortFixture(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "ids", "1", "2", "3")
	require.NoError(t, err)

	for key, value := range map[string]string{
		"obj:1:weight": "30",
		"obj:2:weight": "10",
		"obj:3:weight": "20",
		"obj:1:name":   "alice",
		"obj:2:name":   "bob",
	} {
		require.NoError(t, st.Set(ctx, key, value))
	}
	return st
}

func TestSort(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		opts store.SortOptions
		want []string
	}{
		{"numeric by member", store.SortOptions{}, []string{"1", "2", "3"}},
		{"numeric desc", store.SortOptions{Desc: true}, []string{"3", "2", "1"}},
		{"by pattern", store.SortOptions{By: "obj:*:weight"}, []string{"2", "3", "1"}},
		{"by pattern desc", store.SortOptions{By: "obj:*:weight", Desc: true}, []string{"1", "3", "2"}},
		{"by without star skips ordering", store.SortOptions{By: "nosort"}, []string{"1", "2", "3"}},
		{"limit window", store.SortOptions{By: "obj:*:weight", Limit: &store.Limit{Start: 1, Count: 1}}, []string{"3"}},
		{"limit through end", store.SortOptions{By: "obj:*:weight", Limit: &store.Limit{Start: 1, Count: -1}}, []string{"3", "1"}},
		{"limit past end", store.SortOptions{Limit: &store.Limit{Start: 5, Count: 2}}, []string{}},
		{"get member and value", store.SortOptions{By: "obj:*:weight", Get: []string{"#", "obj:*:name"}},
			[]string{"2", "bob", "3", "", "1", "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := sortFixture(t)
			got, err := st.Sort(ctx, "ids", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSort_Alpha(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	_, err := st.SAdd(ctx, "words", "pear", "apple", "plum")
	require.NoError(t, err)

	got, err := st.Sort(ctx, "words", store.SortOptions{Alpha: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "pear", "plum"}, got)

	_, err = st.Sort(ctx, "words", store.SortOptions{})
	assert.ErrorIs(t, err, memstore.ErrNotNumeric)
}

func TestSort_MissingByValueReadsZero(t *testing.T) {
	ctx := context.Background()
	st := sortFixture(t)

	_, err := st.SAdd(ctx, "ids", "4") // no obj:4:weight
	require.NoError(t, err)

	got, err := st.Sort(ctx, "ids", store.SortOptions{By: "obj:*:weight"})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "2", "3", "1"}, got)
}
