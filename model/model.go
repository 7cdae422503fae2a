// Package model implements the declarative model layer the lazy collection
// evaluator queries against: the field registry, the index capabilities that
// map filters to backing-store set keys, and object hydration.
//
// A Model owns the keyspace layout for one entity type:
//
//	<namespace>:<model>:<pkName>          primary-key collection set
//	<namespace>:<model>:<pk>:<field...>   per-instance field values
//	<namespace>:<model>:<field...>:<val>  equality index sets
//
// Models hold no store handle. Every operation that touches the store takes
// an explicit store.Store so the same model can be evaluated against
// different connections (or a fake store in tests).
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/setq/store"
)

// DefaultPKName is the primary-key field name used unless overridden
// with WithPKName.
const DefaultPKName = "pk"

// Model is the field registry for one entity type.
type Model struct {
	name      string
	namespace string
	pkName    string
	fields    map[string]*Field
	order     []string
}

// Option configures a Model.
type Option func(*Model)

// WithNamespace prefixes every key of the model with the given namespace.
func WithNamespace(ns string) Option {
	return func(m *Model) { m.namespace = ns }
}

// WithPKName overrides the primary-key field name (default "pk").
func WithPKName(name string) Option {
	return func(m *Model) { m.pkName = name }
}

// WithFields declares the model's fields, in order. Duplicate names are
// rejected by New.
func WithFields(fields ...*Field) Option {
	return func(m *Model) {
		for _, f := range fields {
			if _, dup := m.fields[f.name]; !dup {
				m.fields[f.name] = f
			}
			m.order = append(m.order, f.name)
		}
	}
}

// New creates a model named name with the given options.
func New(name string, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, fmt.Errorf("model: name must not be empty")
	}

	m := &Model{
		name:   name,
		pkName: DefaultPKName,
		fields: make(map[string]*Field),
	}
	for _, opt := range opts {
		opt(m)
	}

	seen := make(map[string]struct{}, len(m.order))
	for _, fname := range m.order {
		if _, dup := seen[fname]; dup {
			return nil, fmt.Errorf("model %s: duplicate field %q", name, fname)
		}
		seen[fname] = struct{}{}

		f := m.fields[fname]
		if strings.EqualFold(fname, m.pkName) {
			return nil, fmt.Errorf("model %s: field %q collides with the primary key", name, fname)
		}
		f.model = m
		if f.indexable && len(f.indexes) == 0 {
			f.indexes = []Index{EqualityIndex{}}
		}
	}

	return m, nil
}

// MustNew is New, panicking on error. Intended for package-level fixtures.
func MustNew(name string, opts ...Option) *Model {
	m, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Namespace returns the key namespace, which may be empty.
func (m *Model) Namespace() string { return m.namespace }

// PKName returns the primary-key field name.
func (m *Model) PKName() string { return m.pkName }

// HasField reports whether the model declares a field with the given name.
// The primary key is not a declared field.
func (m *Model) HasField(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// GetField returns the declared field with the given name.
func (m *Model) GetField(name string) (*Field, error) {
	f, ok := m.fields[name]
	if !ok {
		return nil, &UnknownFieldError{Model: m.name, Field: name}
	}
	return f, nil
}

// FieldNames returns the declared field names in declaration order.
func (m *Model) FieldNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// FieldIsPK reports whether name targets the primary key. The match is
// case-insensitive.
func (m *Model) FieldIsPK(name string) bool {
	return strings.EqualFold(name, m.pkName)
}

// baseKey returns the `namespace:model` key prefix segments.
func (m *Model) baseSegments() []string {
	if m.namespace == "" {
		return []string{m.name}
	}
	return []string{m.namespace, m.name}
}

func (m *Model) makeKey(segments ...string) string {
	return store.MakeKey(append(m.baseSegments(), segments...)...)
}

// CollectionKey returns the durable set holding every primary key of the
// model. It is the full-collection set used when a query carries no filter.
func (m *Model) CollectionKey() string {
	return m.makeKey(m.pkName)
}

// NormalizePK converts a primary-key operand to its store form.
func (m *Model) NormalizePK(value any) (string, error) {
	return normalizeValue(value)
}

// PKExists reports whether the given primary key is registered in the
// model's collection set.
func (m *Model) PKExists(ctx context.Context, st store.Store, pk string) (bool, error) {
	return st.SIsMember(ctx, m.CollectionKey(), pk)
}
