package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotExist is returned by Load when the primary key is not in the
	// collection set.
	ErrNotExist = errors.New("instance does not exist")

	// ErrDuplicatePK is returned by Create when the primary key is already
	// registered.
	ErrDuplicatePK = errors.New("primary key already exists")
)

// UnknownFieldError indicates a reference to a field the model does not
// declare.
type UnknownFieldError struct {
	Model string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("model %s has no field %q", e.Model, e.Field)
}

// NotNormalizableError indicates an operand type that cannot be converted
// to its store form.
type NotNormalizableError struct {
	Value any
}

func (e *NotNormalizableError) Error() string {
	return fmt.Sprintf("cannot normalize value of type %T", e.Value)
}
