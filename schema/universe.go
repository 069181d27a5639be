package schema

import (
	"fmt"
	"slices"
)

// Names of the builtin types every universe starts with.
const (
	String       = "string"
	Serializable = "Serializable"
	Collection   = "Collection"
	List         = "List"
	Set          = "Set"
	Array        = "Array"
	Map          = "Map"
	Sparse       = "Sparse"
	Time         = "Time"
	BigInt       = "BigInt"
)

var builtinDefs = []TypeDef{
	{Name: Serializable, Kind: KindInterface},
	{Name: String, Kind: KindClass, Implements: []string{Serializable}},
	{Name: Collection, Kind: KindInterface, Params: []string{"E"}},
	{Name: List, Kind: KindInterface, Params: []string{"E"}, Implements: []string{"Collection<E>"}},
	{Name: Set, Kind: KindInterface, Params: []string{"E"}, Implements: []string{"Collection<E>"}},
	{Name: Array, Kind: KindClass, Params: []string{"E"}, Implements: []string{Serializable}},
	{Name: Map, Kind: KindInterface, Params: []string{"K", "V"}},
	{Name: Sparse, Kind: KindClass, Params: []string{"E"}},
	{Name: Time, Kind: KindClass, Implements: []string{Serializable}},
	{Name: BigInt, Kind: KindClass, Implements: []string{Serializable}},
}

// Field is a declared field together with its parsed type.
type Field struct {
	*FieldDef
	Type TypeDescriptor
}

type entry struct {
	def        *TypeDef
	builtin    bool
	extends    *TypeDescriptor
	implements []TypeDescriptor
	fields     []Field
}

// Universe is the closed set of types a derivation run sees: the builtins
// plus every user declaration. It is immutable once built.
type Universe struct {
	entries map[string]*entry
	order   []string
}

// NewUniverse validates defs and resolves every type expression they contain.
func NewUniverse(defs []TypeDef) (*Universe, error) {
	u := &Universe{entries: make(map[string]*entry, len(builtinDefs)+len(defs))}
	for i := range builtinDefs {
		def := builtinDefs[i]
		if err := u.add(&def, true); err != nil {
			return nil, err
		}
	}
	for i := range defs {
		def := defs[i]
		if err := u.add(&def, false); err != nil {
			return nil, err
		}
		u.order = append(u.order, def.Name)
	}
	for _, name := range u.order {
		if err := u.checkSupertypes(u.entries[name]); err != nil {
			return nil, err
		}
		if err := u.checkAcyclic(name); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (u *Universe) add(def *TypeDef, builtin bool) error {
	switch {
	case def.Name == "":
		return fmt.Errorf("%w: type without a name", ErrInvalidDecl)
	case IsPrimitive(def.Name):
		return fmt.Errorf("%w: %s is a primitive", ErrDuplicateType, def.Name)
	}
	if _, ok := u.entries[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, def.Name)
	}
	if def.Kind == "" {
		def.Kind = KindClass
	}
	switch def.Kind {
	case KindClass, KindInterface, KindEnum:
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidDecl, def.Name, def.Kind)
	}
	for i, p := range def.Params {
		if slices.Contains(def.Params[:i], p) {
			return fmt.Errorf("%w: %s declares type parameter %s twice", ErrInvalidDecl, def.Name, p)
		}
	}

	def.Fields = slices.Clone(def.Fields)
	e := &entry{def: def, builtin: builtin}
	if def.Extends != "" {
		t, err := ParseType(def.Extends)
		if err != nil {
			return fmt.Errorf("%s extends: %w", def.Name, err)
		}
		e.extends = &t
	}
	for _, s := range def.Implements {
		t, err := ParseType(s)
		if err != nil {
			return fmt.Errorf("%s implements: %w", def.Name, err)
		}
		e.implements = append(e.implements, t)
	}
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: %s has a field without a name", ErrInvalidDecl, def.Name)
		}
		t, err := ParseType(f.Type)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", def.Name, f.Name, err)
		}
		for _, a := range f.Adapters {
			if err := checkAdapter(a); err != nil {
				return fmt.Errorf("%s.%s: %w", def.Name, f.Name, err)
			}
		}
		e.fields = append(e.fields, Field{FieldDef: f, Type: t})
	}
	for _, a := range def.Adapters {
		if err := checkAdapter(a); err != nil {
			return fmt.Errorf("%s: %w", def.Name, err)
		}
	}
	for _, m := range def.Exclude {
		if m.Type != "" {
			if _, err := ParseType(m.Type); err != nil {
				return fmt.Errorf("%s exclude: %w", def.Name, err)
			}
		}
	}
	u.entries[def.Name] = e
	return nil
}

func checkAdapter(a AdapterDecl) error {
	if a.Adapter == "" {
		return fmt.Errorf("%w: adapter for %q has no adapter expression", ErrInvalidDecl, a.Type)
	}
	_, err := ParseType(a.Type)
	return err
}

func (u *Universe) checkSupertypes(e *entry) error {
	if e.extends != nil {
		sup, ok := u.entries[e.extends.Name]
		if !ok || sup.def.Kind != KindClass || e.def.Kind != KindClass {
			return fmt.Errorf("%w: %s extends %s", ErrBadSupertype, e.def.Name, e.extends)
		}
		if len(sup.def.Params) != len(e.extends.Args) {
			return fmt.Errorf("%w: %s extends %s", ErrArity, e.def.Name, e.extends)
		}
	}
	for _, t := range e.implements {
		sup, ok := u.entries[t.Name]
		if !ok || sup.def.Kind != KindInterface {
			return fmt.Errorf("%w: %s implements %s", ErrBadSupertype, e.def.Name, t)
		}
		if len(sup.def.Params) != len(t.Args) {
			return fmt.Errorf("%w: %s implements %s", ErrArity, e.def.Name, t)
		}
	}
	return nil
}

func (u *Universe) checkAcyclic(name string) error {
	seen := map[string]bool{}
	var walk func(string) error
	walk = func(n string) error {
		if seen[n] {
			return fmt.Errorf("%w: %s", ErrCyclicHierarchy, name)
		}
		seen[n] = true
		defer delete(seen, n)
		e := u.entries[n]
		if e.extends != nil {
			if err := walk(e.extends.Name); err != nil {
				return err
			}
		}
		for _, t := range e.implements {
			if err := walk(t.Name); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(name)
}

// Lookup returns the declaration of name.
func (u *Universe) Lookup(name string) (*TypeDef, bool) {
	e, ok := u.entries[name]
	if !ok {
		return nil, false
	}
	return e.def, true
}

// IsBuiltin reports whether name is one of the builtin types.
func (u *Universe) IsBuiltin(name string) bool {
	e, ok := u.entries[name]
	return ok && e.builtin
}

// Types returns the user declarations in declaration order.
func (u *Universe) Types() []*TypeDef {
	out := make([]*TypeDef, len(u.order))
	for i, name := range u.order {
		out[i] = u.entries[name].def
	}
	return out
}

// Bind pairs the type parameters of t's declaration with t's arguments.
func (u *Universe) Bind(t TypeDescriptor) (Bindings, error) {
	e, ok := u.entries[t.Name]
	if !ok {
		return nil, nil
	}
	if len(e.def.Params) != len(t.Args) {
		return nil, fmt.Errorf("%w: %s takes %d, got %s", ErrArity, t.Name, len(e.def.Params), t)
	}
	if len(t.Args) == 0 {
		return nil, nil
	}
	b := make(Bindings, len(t.Args))
	for i, p := range e.def.Params {
		b[p] = t.Args[i]
	}
	return b, nil
}

// Superclass returns the class t extends, with t's bindings applied.
func (u *Universe) Superclass(t TypeDescriptor) (TypeDescriptor, bool) {
	e, ok := u.entries[t.Name]
	if !ok || e.extends == nil {
		return TypeDescriptor{}, false
	}
	b, err := u.Bind(t)
	if err != nil {
		return TypeDescriptor{}, false
	}
	return e.extends.Substitute(b), true
}

// Interfaces returns the interfaces t declares directly, with t's bindings applied.
func (u *Universe) Interfaces(t TypeDescriptor) []TypeDescriptor {
	e, ok := u.entries[t.Name]
	if !ok || len(e.implements) == 0 {
		return nil
	}
	b, err := u.Bind(t)
	if err != nil {
		return nil
	}
	out := make([]TypeDescriptor, len(e.implements))
	for i, s := range e.implements {
		out[i] = s.Substitute(b)
	}
	return out
}

// Supertypes walks the supertype chain of t: t itself, then each declared
// interface with its own supertypes, then the superclass with its own.
// Every type appears once, at its first position in the walk.
func (u *Universe) Supertypes(t TypeDescriptor) []TypeDescriptor {
	var out []TypeDescriptor
	seen := map[string]bool{}
	var walk func(TypeDescriptor)
	walk = func(t TypeDescriptor) {
		t = t.StripVariance().WithNullable(false)
		key := t.Canonical()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, t)
		for _, i := range u.Interfaces(t) {
			walk(i)
		}
		if s, ok := u.Superclass(t); ok {
			walk(s)
		}
	}
	walk(t)
	return out
}

// Assignable reports whether a value of type from can be stored in a
// location of type to, judged by erasure.
func (u *Universe) Assignable(to, from TypeDescriptor) bool {
	for _, s := range u.Supertypes(from) {
		if s.Name == to.Name {
			return true
		}
	}
	return false
}

// Fields returns the fields t's declaration introduces, with t's bindings
// applied to their types. Inherited fields are not included.
func (u *Universe) Fields(t TypeDescriptor) []Field {
	e, ok := u.entries[t.Name]
	if !ok {
		return nil
	}
	b, _ := u.Bind(t)
	out := make([]Field, len(e.fields))
	for i, f := range e.fields {
		out[i] = Field{FieldDef: f.FieldDef, Type: f.Type.Substitute(b)}
	}
	return out
}
