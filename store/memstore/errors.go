package memstore

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongType is returned when an operation targets a key holding the
	// wrong kind of value (a set operation on a string key, or vice versa).
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrNotNumeric is returned by Sort when a member or by-value cannot be
	// parsed as a number and Alpha was not requested.
	ErrNotNumeric = errors.New("value is not numeric")
)

func wrongType(key string) error {
	return fmt.Errorf("key %q: %w", key, ErrWrongType)
}

func notNumeric(value string) error {
	return fmt.Errorf("value %q: %w", value, ErrNotNumeric)
}
