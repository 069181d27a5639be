package derive

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType indicates a root names no declared type.
	ErrUnknownType = errors.New("derive: unknown type")

	// ErrGenericRoot indicates a generic type requested as a root without type arguments.
	ErrGenericRoot = errors.New("derive: generic type cannot be a derivation root without type arguments")

	// ErrNotDerivable indicates a root that is not a concrete class.
	ErrNotDerivable = errors.New("derive: type is not a concrete class")

	// ErrAdapterConflict indicates two adapters bound to one type at one scope.
	ErrAdapterConflict = errors.New("derive: conflicting adapter bindings")

	// ErrDuplicateField indicates a field name declared twice along a hierarchy.
	ErrDuplicateField = errors.New("derive: duplicate field")

	// ErrUnreadableField indicates a private field without a getter.
	ErrUnreadableField = errors.New("derive: field is not readable")

	// ErrUnwritableField indicates a private field with neither a setter nor a constructor argument.
	ErrUnwritableField = errors.New("derive: field is not writable")

	// ErrUnsatisfiableConstructor indicates a constructor parameter with no field to supply it.
	ErrUnsatisfiableConstructor = errors.New("derive: constructor cannot be satisfied")

	// ErrUnrealizable indicates an opaque position that has no fallback serialization.
	ErrUnrealizable = errors.New("derive: no serialization strategy for type")
)

// Category groups derivation failures by their cause.
type Category uint8

const (
	ClassificationFailure Category = iota + 1
	ConfigurationConflict
	SchemaShape
)

func (c Category) String() string {
	switch c {
	case ClassificationFailure:
		return "classification failure"
	case ConfigurationConflict:
		return "configuration conflict"
	case SchemaShape:
		return "schema shape error"
	}
	return "unknown failure"
}

// Error is a derivation failure. Subject is the fully qualified type or
// field, e.g. Pair or Pair.b.
type Error struct {
	Category Category
	Subject  string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Subject, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(c Category, subject string, err error) *Error {
	return &Error{Category: c, Subject: subject, Err: err}
}
