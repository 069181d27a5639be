// Package schema describes the types a codec is derived for: type
// expressions, declarations of classes, interfaces and enums, and the
// universe that resolves supertypes and generic bindings across them.
package schema

import "strings"

// Variance is a use-site variance marker on a type argument.
type Variance uint8

const (
	Invariant Variance = iota
	Covariant          // out T
	Contravariant      // in T
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "out"
	case Contravariant:
		return "in"
	}
	return ""
}

// TypeDescriptor is a resolved type expression: a name, its type
// arguments, the variance written at the use site, and whether the
// position admits an absent value.
//
// Descriptors are values and are never mutated after construction; every
// transformation returns a new descriptor.
type TypeDescriptor struct {
	Name     string
	Args     []TypeDescriptor
	Variance Variance
	Nullable bool
}

// Bindings maps type parameter names to the arguments bound to them.
type Bindings map[string]TypeDescriptor

// Named returns a descriptor for name applied to args.
func Named(name string, args ...TypeDescriptor) TypeDescriptor {
	return TypeDescriptor{Name: name, Args: args}
}

// String renders the descriptor as written, variance and nullability included.
func (t TypeDescriptor) String() string {
	var sb strings.Builder
	t.write(&sb, true)
	return sb.String()
}

// Canonical renders the identity of the type: variance is dropped at every
// level and the top level nullability marker is dropped. Nullability of
// type arguments is kept, since Box<int32?> and Box<int32> encode differently.
func (t TypeDescriptor) Canonical() string {
	var sb strings.Builder
	t.StripVariance().WithNullable(false).write(&sb, false)
	return sb.String()
}

func (t TypeDescriptor) write(sb *strings.Builder, variance bool) {
	if variance && t.Variance != Invariant {
		sb.WriteString(t.Variance.String())
		sb.WriteByte(' ')
	}
	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.write(sb, variance)
		}
		sb.WriteByte('>')
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
}

// Erasure is the bare type name without arguments.
func (t TypeDescriptor) Erasure() string { return t.Name }

// IsGeneric reports whether the descriptor carries type arguments.
func (t TypeDescriptor) IsGeneric() bool { return len(t.Args) > 0 }

// WithNullable returns a copy with the nullability marker set to n.
func (t TypeDescriptor) WithNullable(n bool) TypeDescriptor {
	t.Nullable = n
	return t
}

// StripVariance returns a copy with variance removed at every level.
func (t TypeDescriptor) StripVariance() TypeDescriptor {
	t.Variance = Invariant
	if len(t.Args) > 0 {
		args := make([]TypeDescriptor, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.StripVariance()
		}
		t.Args = args
	}
	return t
}

// Substitute replaces type parameters bound in b. A bound parameter keeps
// the use-site variance and nullability of the occurrence it replaces, so
// T? with T bound to int32 becomes int32?.
func (t TypeDescriptor) Substitute(b Bindings) TypeDescriptor {
	if len(b) == 0 {
		return t
	}
	if len(t.Args) == 0 {
		bound, ok := b[t.Name]
		if !ok {
			return t
		}
		bound.Nullable = bound.Nullable || t.Nullable
		if t.Variance != Invariant {
			bound.Variance = t.Variance
		}
		return bound
	}
	args := make([]TypeDescriptor, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Substitute(b)
	}
	t.Args = args
	return t
}

// Equal reports whether two descriptors are identical, variance included.
func (t TypeDescriptor) Equal(o TypeDescriptor) bool {
	if t.Name != o.Name || t.Variance != o.Variance || t.Nullable != o.Nullable || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

var primitives = map[string]bool{
	"bool": true, "byte": true,
	"int8": true, "uint8": true,
	"int16": true, "uint16": true,
	"int32": true, "uint32": true,
	"int64": true, "uint64": true,
	"float32": true, "float64": true,
}

// IsPrimitive reports whether name is a fixed width primitive.
func IsPrimitive(name string) bool { return primitives[name] }
