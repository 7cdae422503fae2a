package setq

import (
	"strings"

	"github.com/hupe1980/setq/model"
)

// filterKeySeparator splits a filter key into field name, compound
// addressing parts and index suffix.
const filterKeySeparator = "__"

// pkEqSuffix is the optional equality marker accepted on primary-key
// filters (`pk__eq`).
const pkEqSuffix = filterKeySeparator + "eq"

// source is one accumulated input of the set resolver. It is a closed
// variant: either a literal store set key or a parsed filter, decided at
// accumulation time.
type source interface {
	isSource()
}

// rawSetSource is a literal, durable store set key intersected as-is.
type rawSetSource string

func (rawSetSource) isSource() {}

// parsedFilter is a filter key resolved against the field registry. The
// value is kept unnormalized; normalization happens when the index resolves
// it to store keys.
type parsedFilter struct {
	field      *model.Field
	index      model.Index
	suffix     string
	extraParts []string
	value      any
}

func (parsedFilter) isSource() {}

// fieldIsPK reports whether the filter key targets the primary key,
// accepting an optional `__eq` marker. The name match is case-insensitive.
func fieldIsPK(m *model.Model, key string) bool {
	if m.FieldIsPK(key) {
		return true
	}
	if rest, ok := strings.CutSuffix(key, pkEqSuffix); ok {
		return m.FieldIsPK(rest)
	}
	return false
}

// parseFilterKey resolves a `field[__subpath...][__suffix]` filter key to
// the index that will handle it. Pure resolution against the registry; no
// store access.
func parseFilterKey(m *model.Model, key string, value any) (parsedFilter, error) {
	segments := strings.Split(key, filterKeySeparator)
	fieldName := segments[0]
	rest := segments[1:]

	f, err := m.GetField(fieldName)
	if err != nil {
		return parsedFilter{}, &FilterKeyError{Model: m.Name(), Key: key, cause: err}
	}
	if !f.Indexable() {
		return parsedFilter{}, &NotIndexableError{Model: m.Name(), Field: fieldName}
	}

	// The field consumes as many leading segments as its compound
	// addressing declares beyond the name itself.
	wantParts := f.FieldParts() - 1
	if len(rest) < wantParts {
		return parsedFilter{}, &FilterKeyError{Model: m.Name(), Key: key,
			cause: errMissingParts}
	}
	extraParts := rest[:wantParts]

	suffix := strings.Join(rest[wantParts:], filterKeySeparator)
	for _, idx := range f.Indexes() {
		if idx.CanHandleSuffix(suffix) {
			return parsedFilter{
				field:      f,
				index:      idx,
				suffix:     suffix,
				extraParts: extraParts,
				value:      value,
			}, nil
		}
	}

	return parsedFilter{}, &NoMatchingIndexError{Model: m.Name(), Field: fieldName, Key: key, Suffix: suffix}
}
