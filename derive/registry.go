package derive

import (
	"github.com/oy3o/parcel/schema"
)

// Property is one serialized field of a schema.
type Property struct {
	// Name is the declared field name.
	Name string
	// Field is the Go struct field holding the value.
	Field string
	// Getter and Setter name accessor methods for private fields.
	Getter, Setter string
	// CtorIndex is the position of the field among the constructor
	// arguments, or -1.
	CtorIndex int
	// Declared is the field type as written on the declaring class.
	Declared schema.TypeDescriptor
	// Owner is the class that declares the field.
	Owner   string
	Private bool
	Slot    Slot
}

// Nullable reports whether the property may hold an absent value.
func (p *Property) Nullable() bool { return p.Slot.Nullable }

// Accessor is the Go expression reading the property from a receiver.
func (p *Property) Accessor() string {
	if p.Getter != "" {
		return p.Getter + "()"
	}
	return p.Field
}

// Schema is one derived type.
type Schema struct {
	// Name is the canonical name, e.g. Box<int32>.
	Name       string
	Type       schema.TypeDescriptor
	Def        *schema.TypeDef
	Properties []*Property
	// Adapters lists the bindings the schema's own properties use, sorted
	// by adapter expression.
	Adapters []AdapterBinding
	// RequiresContext is set when decoding needs the caller's loader,
	// directly or through a nested schema.
	RequiresContext bool
	Singleton       bool
	// Instance is the static field holding a singleton's shared value.
	Instance string
	// Constructor lists the properties passed to the constructor, in order.
	Constructor      []*Property
	DescribeContents int
}

// Registry holds the schemas of one derivation run, keyed by canonical
// name, in the order they were first reached.
type Registry struct {
	universe *schema.Universe
	schemas  map[string]*Schema
	order    []string
}

func newRegistry(u *schema.Universe) *Registry {
	return &Registry{universe: u, schemas: make(map[string]*Schema)}
}

// reserve claims name with a placeholder. It reports false when name is
// already claimed, complete or not.
func (r *Registry) reserve(name string) bool {
	if _, ok := r.schemas[name]; ok {
		return false
	}
	r.schemas[name] = nil
	r.order = append(r.order, name)
	return true
}

func (r *Registry) complete(s *Schema) { r.schemas[s.Name] = s }

// Lookup returns the schema named name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s := r.schemas[name]
	return s, s != nil
}

// Schemas returns every schema in derivation order.
func (r *Registry) Schemas() []*Schema {
	out := make([]*Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.schemas[name])
	}
	return out
}

// Len returns the number of schemas.
func (r *Registry) Len() int { return len(r.order) }

// Universe returns the universe the schemas were derived from.
func (r *Registry) Universe() *schema.Universe { return r.universe }
