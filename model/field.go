package model

import (
	"fmt"
	"strconv"
)

// FieldKind distinguishes how a field addresses its values.
type FieldKind int

const (
	// KindString fields hold one value per instance and are addressed by
	// the bare field name.
	KindString FieldKind = iota
	// KindDict fields hold one value per (instance, sub-key) pair and are
	// addressed as `field__sub` in filter keys.
	KindDict
)

// Field describes one declared model field and carries its index
// capabilities.
type Field struct {
	name      string
	kind      FieldKind
	indexable bool
	indexes   []Index
	model     *Model
}

// FieldOption configures a field at declaration time.
type FieldOption func(*Field)

// Indexable marks the field as filterable. A field without explicit indexes
// gets the default EqualityIndex.
func Indexable() FieldOption {
	return func(f *Field) { f.indexable = true }
}

// WithIndexes attaches explicit index capabilities, queried in the given
// order when matching a filter suffix. Implies Indexable.
func WithIndexes(indexes ...Index) FieldOption {
	return func(f *Field) {
		f.indexable = true
		f.indexes = append(f.indexes, indexes...)
	}
}

// StringField declares a single-valued field.
func StringField(name string, opts ...FieldOption) *Field {
	f := &Field{name: name, kind: KindString}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DictField declares a compound field addressed as `field__sub` in filter
// keys and sort directives.
func DictField(name string, opts ...FieldOption) *Field {
	f := &Field{name: name, kind: KindDict}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Kind returns the field kind.
func (f *Field) Kind() FieldKind { return f.kind }

// Indexable reports whether the field carries any index capability.
func (f *Field) Indexable() bool { return f.indexable }

// Indexes returns the field's index capabilities in declaration order.
func (f *Field) Indexes() []Index { return f.indexes }

// Model returns the owning model.
func (f *Field) Model() *Model { return f.model }

// FieldParts is the number of filter-key segments the field consumes for
// addressing: 1 for string fields, 2 for dict fields (name plus sub-key).
func (f *Field) FieldParts() int {
	if f.kind == KindDict {
		return 2
	}
	return 1
}

// InstanceKey returns the key holding the field value for one instance.
// parts carries the sub-key segments for compound fields.
func (f *Field) InstanceKey(pk string, parts ...string) string {
	segments := append([]string{pk, f.name}, parts...)
	return f.model.makeKey(segments...)
}

// IndexKey returns the durable equality-index set for the given value:
// the set of primary keys whose field (and sub-key, for compound fields)
// equals value.
func (f *Field) IndexKey(parts []string, value string) string {
	segments := append([]string{f.name}, parts...)
	segments = append(segments, value)
	return f.model.makeKey(segments...)
}

// SortWildcard is the store-native addressing pattern used to let the
// store's sort operation fetch this field's per-member value. parts carries
// the sub-key segments for compound fields.
func (f *Field) SortWildcard(parts ...string) string {
	segments := append([]string{"*", f.name}, parts...)
	return f.model.makeKey(segments...)
}

// Normalize converts a filter or write operand to its store form.
func (f *Field) Normalize(value any) (string, error) {
	return normalizeValue(value)
}

func normalizeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", &NotNormalizableError{Value: value}
	}
}

// normalizeValues converts an `in` operand to its store forms.
func normalizeValues(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			norm, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	default:
		return nil, &NotNormalizableError{Value: value}
	}
}
