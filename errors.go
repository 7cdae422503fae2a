package setq

import (
	"errors"
	"fmt"

	"github.com/hupe1980/setq/store"
)

var (
	// ErrIndexOutOfRange is returned by At and InstanceAt when the index
	// falls outside the materialized collection.
	ErrIndexOutOfRange = errors.New("collection index out of range")

	errMissingParts = errors.New("missing addressing parts")
)

// NotIndexableError indicates a filter on a field that carries no index
// capability. This is a query-construction bug, raised before any store
// round trip.
type NotIndexableError struct {
	Model string
	Field string
}

func (e *NotIndexableError) Error() string {
	return fmt.Sprintf("field %s.%s is not indexable", e.Model, e.Field)
}

// FilterKeyError indicates a malformed filter key (unknown field or wrong
// number of addressing parts). Raised before any store round trip.
//
// The underlying cause can be accessed via errors.Unwrap.
type FilterKeyError struct {
	Model string
	Key   string
	cause error
}

func (e *FilterKeyError) Error() string {
	return fmt.Sprintf("malformed filter key %q for model %s: %v", e.Key, e.Model, e.cause)
}

func (e *FilterKeyError) Unwrap() error { return e.cause }

// NoMatchingIndexError indicates that no index capability of the field
// accepts the filter suffix.
type NoMatchingIndexError struct {
	Model  string
	Field  string
	Key    string
	Suffix string
}

func (e *NoMatchingIndexError) Error() string {
	return fmt.Sprintf("no index on %s.%s handles filter %q (suffix %q)", e.Model, e.Field, e.Key, e.Suffix)
}

// IndexContractError indicates an index implementation returned a key of a
// kind the evaluator does not accept. This signals a bug in the index, not
// a user error.
type IndexContractError struct {
	Index string
	Key   string
	Kind  store.KeyKind
}

func (e *IndexContractError) Error() string {
	return fmt.Sprintf("index %s returned key %q of invalid kind %q", e.Index, e.Key, e.Kind)
}
