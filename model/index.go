package model

import (
	"context"

	"github.com/hupe1980/setq/store"
)

// Index is the capability that maps a filter (field, suffix, value) to one
// or more backing-store set keys usable for intersection.
//
// A field may carry several indexes; the filter parser selects the first
// one whose CanHandleSuffix accepts the filter's suffix, in declaration
// order.
type Index interface {
	// CanHandleSuffix reports whether the index handles the given filter
	// suffix. The empty suffix is the plain equality form.
	CanHandleSuffix(suffix string) bool

	// FilteredKeys resolves the filter to store set keys. parts carries the
	// extra addressing segments of compound fields. Keys marked Temporary
	// were created by this call solely to serve the evaluation and are
	// deleted by the caller once all reads against them complete.
	FilteredKeys(ctx context.Context, st store.Store, f *Field, suffix string, parts []string, value any) ([]store.KeyRef, error)
}

// IndexWriter is implemented by indexes that maintain durable entries when
// instances are written. The model write path feeds every IndexWriter of an
// indexable field.
type IndexWriter interface {
	// AddEntry indexes pk under the given field value.
	AddEntry(ctx context.Context, st store.Store, f *Field, parts []string, value string, pk string) error

	// RemoveEntry removes pk from the index entry for the given value.
	RemoveEntry(ctx context.Context, st store.Store, f *Field, parts []string, value string, pk string) error
}

// EqualityIndex is the default index capability. It resolves:
//
//	field=value        (suffix "" or "eq") to the durable per-value set
//	field__in=[...]    (suffix "in") to a temporary union of per-value sets
type EqualityIndex struct{}

// CanHandleSuffix accepts the equality suffixes "" and "eq", plus "in".
func (EqualityIndex) CanHandleSuffix(suffix string) bool {
	switch suffix {
	case "", "eq", "in":
		return true
	default:
		return false
	}
}

// FilteredKeys implements Index.
func (EqualityIndex) FilteredKeys(ctx context.Context, st store.Store, f *Field, suffix string, parts []string, value any) ([]store.KeyRef, error) {
	if suffix == "in" {
		return equalityInKeys(ctx, st, f, parts, value)
	}

	norm, err := f.Normalize(value)
	if err != nil {
		return nil, err
	}
	return []store.KeyRef{{
		Key:  f.IndexKey(parts, norm),
		Kind: store.KindSet,
	}}, nil
}

// equalityInKeys unions the per-value equality sets into a fresh temporary
// key. An empty operand list yields a fresh (hence empty) temporary key, so
// the filter matches nothing without special-casing upstream.
func equalityInKeys(ctx context.Context, st store.Store, f *Field, parts []string, value any) ([]store.KeyRef, error) {
	values, err := normalizeValues(value)
	if err != nil {
		return nil, err
	}

	tmp := store.TempKey(f.model.namespace)
	if len(values) > 0 {
		keys := make([]string, len(values))
		for i, v := range values {
			keys[i] = f.IndexKey(parts, v)
		}
		if _, err := st.SUnionStore(ctx, tmp, keys...); err != nil {
			return nil, err
		}
	}

	return []store.KeyRef{{
		Key:       tmp,
		Kind:      store.KindSet,
		Temporary: true,
	}}, nil
}

// AddEntry implements IndexWriter.
func (EqualityIndex) AddEntry(ctx context.Context, st store.Store, f *Field, parts []string, value string, pk string) error {
	_, err := st.SAdd(ctx, f.IndexKey(parts, value), pk)
	return err
}

// RemoveEntry implements IndexWriter.
func (EqualityIndex) RemoveEntry(ctx context.Context, st store.Store, f *Field, parts []string, value string, pk string) error {
	_, err := st.SRem(ctx, f.IndexKey(parts, value), pk)
	return err
}
