package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/setq/store"
)

// pathsSuffix names the per-instance bookkeeping set listing which field
// paths were written, so Delete can deindex compound fields without
// scanning the keyspace.
const pathsSuffix = "_paths"

func (m *Model) pathsKey(pk string) string {
	return m.makeKey(pk, pathsSuffix)
}

// Create registers a new instance under pk and writes the given field
// values. Map keys use the same `field[__sub]` addressing as filter keys.
// Index entries are maintained for every indexable field. A pk already in
// the collection set yields ErrDuplicatePK.
func (m *Model) Create(ctx context.Context, st store.Store, pk any, values map[string]any) (*Instance, error) {
	npk, err := m.NormalizePK(pk)
	if err != nil {
		return nil, err
	}

	exists, err := m.PKExists(ctx, st, npk)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("model %s: pk %q: %w", m.name, npk, ErrDuplicatePK)
	}

	if _, err := st.SAdd(ctx, m.CollectionKey(), npk); err != nil {
		return nil, err
	}

	for path, value := range values {
		if err := m.writeField(ctx, st, npk, path, value); err != nil {
			return nil, err
		}
	}

	return m.LazyLoad(st, npk), nil
}

// writeField stores one field value and its index entries.
func (m *Model) writeField(ctx context.Context, st store.Store, pk, path string, value any) error {
	f, parts, err := m.resolvePath(path)
	if err != nil {
		return err
	}

	norm, err := f.Normalize(value)
	if err != nil {
		return fmt.Errorf("model %s: field %s: %w", m.name, path, err)
	}

	if err := st.Set(ctx, f.InstanceKey(pk, parts...), norm); err != nil {
		return err
	}
	if _, err := st.SAdd(ctx, m.pathsKey(pk), path); err != nil {
		return err
	}

	if f.indexable {
		for _, idx := range f.indexes {
			w, ok := idx.(IndexWriter)
			if !ok {
				continue
			}
			if err := w.AddEntry(ctx, st, f, parts, norm, pk); err != nil {
				return err
			}
		}
	}

	return nil
}

// Delete removes an instance: its field values, its index entries and its
// collection-set membership. Deleting an unknown pk is a no-op.
func (m *Model) Delete(ctx context.Context, st store.Store, pk any) error {
	npk, err := m.NormalizePK(pk)
	if err != nil {
		return err
	}

	paths, err := st.SMembers(ctx, m.pathsKey(npk))
	if err != nil {
		return err
	}

	for _, path := range paths {
		f, parts, err := m.resolvePath(path)
		if err != nil {
			return err
		}

		key := f.InstanceKey(npk, parts...)
		value, ok, err := st.Get(ctx, key)
		if err != nil {
			return err
		}

		if ok && f.indexable {
			for _, idx := range f.indexes {
				w, isWriter := idx.(IndexWriter)
				if !isWriter {
					continue
				}
				if err := w.RemoveEntry(ctx, st, f, parts, value, npk); err != nil {
					return err
				}
			}
		}

		if _, err := st.Del(ctx, key); err != nil {
			return err
		}
	}

	if _, err := st.Del(ctx, m.pathsKey(npk)); err != nil {
		return err
	}
	_, err = st.SRem(ctx, m.CollectionKey(), npk)
	return err
}

// resolvePath splits a `field[__sub]` path into the field and its extra
// addressing parts, validating the part count against the field kind.
func (m *Model) resolvePath(path string) (*Field, []string, error) {
	segments := strings.Split(path, "__")
	f, err := m.GetField(segments[0])
	if err != nil {
		return nil, nil, err
	}
	parts := segments[1:]
	if len(parts)+1 != f.FieldParts() {
		return nil, nil, fmt.Errorf("model %s: field path %q expects %d part(s), got %d",
			m.name, path, f.FieldParts(), len(parts)+1)
	}
	return f, parts, nil
}
