package derive

import (
	"slices"

	"github.com/oy3o/parcel/schema"
)

// Classifier maps type positions to kinds. It is pure: the same type,
// bindings and site always give the same slot.
type Classifier struct {
	u           *schema.Universe
	adapters    *AdapterRegistry
	allowOpaque bool
}

// NewClassifier returns a classifier over u. With allowOpaque set,
// Serializable types no other kind covers fall back to opaque payloads.
func NewClassifier(u *schema.Universe, adapters *AdapterRegistry, allowOpaque bool) *Classifier {
	return &Classifier{u: u, adapters: adapters, allowOpaque: allowOpaque}
}

// Classify returns the slot for t declared at site, after substituting
// bindings. Classification never fails; a type nothing else covers becomes
// an OpaqueKind, which may be unrealizable.
//
// Priority: primitives, then adapters, then structural kinds found along
// the supertype chain, then enums and nested classes, then the opaque
// fallback. A structural kind wins over the fallback even when the type is
// also Serializable.
func (c *Classifier) Classify(t schema.TypeDescriptor, b schema.Bindings, site Site) Slot {
	return c.classify(t, b, site, nil)
}

// classify carries the structural types being expanded, so that a type
// which is its own element does not recurse forever.
func (c *Classifier) classify(t schema.TypeDescriptor, b schema.Bindings, site Site, expanding []string) Slot {
	declared := t.Substitute(b)
	norm := declared.StripVariance().WithNullable(false)
	slot := Slot{Type: declared, Nullable: declared.Nullable}

	if schema.IsPrimitive(norm.Name) && !norm.IsGeneric() {
		if declared.Nullable {
			slot.Kind = BoxedKind{Prim: norm.Name}
		} else {
			slot.Kind = PrimitiveKind{Prim: norm.Name}
		}
		return slot
	}

	if a, ok := c.adapters.LookupFor(norm, site); ok {
		slot.Kind = AdapterKind{Binding: a}
		return slot
	}

	def, known := c.u.Lookup(norm.Name)
	if !known {
		slot.Kind = OpaqueKind{Type: norm, Reason: "unknown type " + norm.Name}
		return slot
	}
	if def.Kind == schema.KindEnum {
		slot.Kind = EnumKind{Type: norm, Constants: def.Constants}
		return slot
	}
	if len(def.Params) != len(norm.Args) {
		slot.Kind = OpaqueKind{Type: norm, Reason: "raw generic " + norm.String()}
		return slot
	}

	name := norm.Canonical()
	if slices.Contains(expanding, name) {
		slot.Kind = OpaqueKind{Type: norm, Reason: name + " contains itself"}
		return slot
	}
	expanding = append(expanding, name)
	for _, s := range c.u.Supertypes(norm) {
		if k, ok := c.structural(norm, s, site, expanding); ok {
			slot.Kind = k
			return slot
		}
	}

	if def.Kind == schema.KindClass && !def.Abstract && !c.u.IsBuiltin(norm.Name) {
		slot.Kind = NestedKind{Schema: name, Type: norm}
		return slot
	}

	slot.Kind = c.opaque(norm)
	return slot
}

// structural tests one supertype s of t against the structural table.
func (c *Classifier) structural(t, s schema.TypeDescriptor, site Site, expanding []string) (Kind, bool) {
	elem := func(i int) Slot { return c.classify(s.Args[i], nil, site, expanding) }
	switch s.Name {
	case schema.String:
		return StringKind{Type: t}, true
	case schema.Array:
		return ArrayKind{Type: t, Elem: elem(0)}, true
	case schema.List, schema.Collection:
		return CollectionKind{Type: t, Shape: ShapeList, Elem: elem(0)}, true
	case schema.Set:
		return CollectionKind{Type: t, Shape: ShapeSet, Elem: elem(0)}, true
	case schema.Map:
		return MapKind{Type: t, Key: elem(0), Value: elem(1)}, true
	case schema.Sparse:
		return SparseKind{Type: t, Elem: elem(0)}, true
	}
	return nil, false
}

func (c *Classifier) opaque(t schema.TypeDescriptor) OpaqueKind {
	k := OpaqueKind{Type: t}
	switch {
	case !c.u.Assignable(schema.Named(schema.Serializable), t):
		k.Reason = t.String() + " is not Serializable"
	case !c.allowOpaque:
		k.Reason = "opaque fallback is disabled"
	default:
		k.Realizable = true
	}
	return k
}
