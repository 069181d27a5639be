package schema

import "errors"

var (
	// ErrSyntax indicates a malformed type expression.
	ErrSyntax = errors.New("schema: invalid type expression")

	// ErrDuplicateType indicates two declarations share a name, or a declaration shadows a builtin.
	ErrDuplicateType = errors.New("schema: duplicate type")

	// ErrInvalidDecl indicates a declaration that is structurally invalid.
	ErrInvalidDecl = errors.New("schema: invalid declaration")

	// ErrBadSupertype indicates an extends clause that is not a class or an
	// implements clause that is not an interface.
	ErrBadSupertype = errors.New("schema: invalid supertype")

	// ErrCyclicHierarchy indicates a type that is its own supertype.
	ErrCyclicHierarchy = errors.New("schema: cyclic type hierarchy")

	// ErrArity indicates a generic type applied to the wrong number of arguments.
	ErrArity = errors.New("schema: wrong number of type arguments")

	// ErrUnknownFormat indicates a schema file extension that is not recognized.
	ErrUnknownFormat = errors.New("schema: unknown schema file format")
)
