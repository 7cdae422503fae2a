package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/setq/store"
)

// Instance is a lightweight handle on one stored object. It holds no field
// data; values are read from the store on demand.
type Instance struct {
	model *Model
	store store.Store
	pk    string
}

// Load returns a handle on the instance with the given primary key after
// verifying it exists in the collection set. A missing key yields
// ErrNotExist.
func (m *Model) Load(ctx context.Context, st store.Store, pk string) (*Instance, error) {
	exists, err := m.PKExists(ctx, st, pk)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("model %s: pk %q: %w", m.name, pk, ErrNotExist)
	}
	return m.LazyLoad(st, pk), nil
}

// LazyLoad returns a handle on the instance with the given primary key
// without verifying store-side existence. Cheaper than Load, but reads
// through the handle may find nothing if the record is stale or absent.
func (m *Model) LazyLoad(st store.Store, pk string) *Instance {
	return &Instance{model: m, store: st, pk: pk}
}

// PK returns the primary key of the instance.
func (i *Instance) PK() string { return i.pk }

// Model returns the owning model.
func (i *Instance) Model() *Model { return i.model }

// Get reads one field value. parts carries the sub-key segments of compound
// fields. The second return value is false when no value is stored.
func (i *Instance) Get(ctx context.Context, field string, parts ...string) (string, bool, error) {
	f, err := i.model.GetField(field)
	if err != nil {
		return "", false, err
	}
	if len(parts)+1 != f.FieldParts() {
		return "", false, fmt.Errorf("model %s: field %s expects %d addressing part(s), got %d",
			i.model.name, field, f.FieldParts(), len(parts)+1)
	}
	return i.store.Get(ctx, f.InstanceKey(i.pk, parts...))
}

// Exists reports whether the instance's primary key is still registered.
func (i *Instance) Exists(ctx context.Context) (bool, error) {
	return i.model.PKExists(ctx, i.store, i.pk)
}
