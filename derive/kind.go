// Package derive classifies field types into serialization strategies and
// walks a set of root types to the closure of schemas they reference.
package derive

import (
	"fmt"
	"strings"

	"github.com/oy3o/parcel/schema"
)

// Kind is the serialization strategy chosen for one type position. The set
// of kinds is closed; consumers switch over the concrete types below.
type Kind interface {
	fmt.Stringer
	isKind()
}

// PrimitiveKind is a fixed width value that is never absent.
type PrimitiveKind struct{ Prim string }

// BoxedKind is a primitive that may be absent.
type BoxedKind struct{ Prim string }

// StringKind is a length prefixed UTF-8 string.
type StringKind struct{ Type schema.TypeDescriptor }

// ArrayKind is a length prefixed sequence decoded into a preallocated array.
type ArrayKind struct {
	Type schema.TypeDescriptor
	Elem Slot
}

// Shape distinguishes the collection flavours that share one encoding.
type Shape uint8

const (
	ShapeList Shape = iota
	ShapeSet
)

func (s Shape) String() string {
	if s == ShapeSet {
		return "set"
	}
	return "list"
}

// CollectionKind is a length prefixed sequence decoded by appending.
type CollectionKind struct {
	Type  schema.TypeDescriptor
	Shape Shape
	Elem  Slot
}

// MapKind is a length prefixed sequence of key and value pairs.
type MapKind struct {
	Type       schema.TypeDescriptor
	Key, Value Slot
}

// SparseKind is a length prefixed sequence of int32 indexes and values.
type SparseKind struct {
	Type schema.TypeDescriptor
	Elem Slot
}

// EnumKind is an enum written as its constant name.
type EnumKind struct {
	Type      schema.TypeDescriptor
	Constants []string
}

// NestedKind is a value encoded by the derived codec of another schema.
type NestedKind struct {
	Schema string
	Type   schema.TypeDescriptor
}

// AdapterKind is a value encoded by a user supplied adapter.
type AdapterKind struct{ Binding AdapterBinding }

// OpaqueKind is the last resort for a type no other kind covers. It is
// realizable only when the fallback is enabled and the type is
// Serializable; otherwise Reason explains why not, and synthesis fails.
type OpaqueKind struct {
	Type       schema.TypeDescriptor
	Realizable bool
	Reason     string
}

func (PrimitiveKind) isKind()  {}
func (BoxedKind) isKind()      {}
func (StringKind) isKind()     {}
func (ArrayKind) isKind()      {}
func (CollectionKind) isKind() {}
func (MapKind) isKind()        {}
func (SparseKind) isKind()     {}
func (EnumKind) isKind()       {}
func (NestedKind) isKind()     {}
func (AdapterKind) isKind()    {}
func (OpaqueKind) isKind()     {}

func (k PrimitiveKind) String() string  { return "primitive(" + k.Prim + ")" }
func (k BoxedKind) String() string      { return "boxed(" + k.Prim + ")" }
func (k StringKind) String() string     { return "string" }
func (k ArrayKind) String() string      { return "array(" + k.Elem.String() + ")" }
func (k CollectionKind) String() string { return k.Shape.String() + "(" + k.Elem.String() + ")" }
func (k MapKind) String() string        { return "map(" + k.Key.String() + ", " + k.Value.String() + ")" }
func (k SparseKind) String() string     { return "sparse(" + k.Elem.String() + ")" }
func (k EnumKind) String() string       { return "enum(" + k.Type.Canonical() + ")" }
func (k NestedKind) String() string     { return "nested(" + k.Schema + ")" }
func (k AdapterKind) String() string    { return "adapter(" + k.Binding.Adapter + ")" }

func (k OpaqueKind) String() string {
	if k.Realizable {
		return "opaque(" + k.Type.Canonical() + ")"
	}
	return "opaque(" + k.Type.Canonical() + ": " + k.Reason + ")"
}

// Slot is one classified type position: a field, or an element, key or
// value inside a composite. Type is the declared type after generic
// substitution, with its use-site variance kept.
type Slot struct {
	Kind     Kind
	Type     schema.TypeDescriptor
	Nullable bool
}

func (s Slot) String() string {
	if s.Nullable {
		return s.Kind.String() + "?"
	}
	return s.Kind.String()
}

// Children returns the slots nested directly inside s.
func (s Slot) Children() []Slot {
	switch k := s.Kind.(type) {
	case ArrayKind:
		return []Slot{k.Elem}
	case CollectionKind:
		return []Slot{k.Elem}
	case MapKind:
		return []Slot{k.Key, k.Value}
	case SparseKind:
		return []Slot{k.Elem}
	}
	return nil
}

// Walk calls fn for s and every slot nested inside it, parents first.
func (s Slot) Walk(fn func(Slot)) {
	fn(s)
	for _, c := range s.Children() {
		c.Walk(fn)
	}
}

// NullSafe reports whether the slot's adapter handles absent values itself.
func (s Slot) NullSafe() bool {
	a, ok := s.Kind.(AdapterKind)
	return ok && a.Binding.NullSafe
}

// Guarded reports whether the slot is preceded by a presence flag.
func (s Slot) Guarded() bool { return s.Nullable && !s.NullSafe() }

// exportName is the Go identifier for a declared field name.
func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
