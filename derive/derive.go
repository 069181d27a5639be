package derive

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/oy3o/parcel/schema"
)

// DefaultInstanceField is the static field that marks a singleton.
const DefaultInstanceField = "Instance"

// Options configures a derivation run.
type Options struct {
	// AllowOpaque enables the opaque fallback for Serializable types.
	AllowOpaque bool
	// InstanceField names the static field holding a singleton's shared
	// value. Defaults to DefaultInstanceField.
	InstanceField string
	// Adapters are registered at global scope.
	Adapters []schema.AdapterDecl
	Logger   *zap.Logger
}

type level struct {
	t        schema.TypeDescriptor
	def      *schema.TypeDef
	bindings schema.Bindings
}

type builder struct {
	u        *schema.Universe
	opts     Options
	log      *zap.Logger
	adapters *AdapterRegistry
	classify *Classifier
	reg      *Registry
	queue    []schema.TypeDescriptor
}

// Derive computes the closure of schemas reachable from roots. Every
// nested class a field refers to is derived once per canonical name, so
// mutually referencing types terminate. On error no registry is returned.
func Derive(u *schema.Universe, roots []schema.TypeDescriptor, opts Options) (*Registry, error) {
	if opts.InstanceField == "" {
		opts.InstanceField = DefaultInstanceField
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	adapters := NewAdapterRegistry(log)
	for _, d := range opts.Adapters {
		if err := adapters.Declare(d, ScopeGlobal, "", nil); err != nil {
			return nil, err
		}
	}
	b := &builder{
		u:        u,
		opts:     opts,
		log:      log,
		adapters: adapters,
		classify: NewClassifier(u, adapters, opts.AllowOpaque),
		reg:      newRegistry(u),
	}

	for _, root := range roots {
		t, err := b.root(root)
		if err != nil {
			return nil, err
		}
		b.enqueue(t)
	}
	for len(b.queue) > 0 {
		t := b.queue[0]
		b.queue = b.queue[1:]
		s, err := b.build(t)
		if err != nil {
			return nil, err
		}
		b.reg.complete(s)
		log.Debug("schema derived",
			zap.String("schema", s.Name),
			zap.Int("properties", len(s.Properties)),
			zap.Bool("singleton", s.Singleton))
	}
	b.propagateContext()
	return b.reg, nil
}

func (b *builder) root(t schema.TypeDescriptor) (schema.TypeDescriptor, error) {
	t = t.StripVariance().WithNullable(false)
	def, ok := b.u.Lookup(t.Name)
	if !ok {
		return t, newError(ConfigurationConflict, t.String(), ErrUnknownType)
	}
	if len(def.Params) > 0 && len(t.Args) == 0 {
		return t, newError(ConfigurationConflict, t.String(), ErrGenericRoot)
	}
	if _, err := b.u.Bind(t); err != nil {
		return t, newError(ConfigurationConflict, t.String(), err)
	}
	if def.Kind != schema.KindClass || def.Abstract || b.u.IsBuiltin(t.Name) {
		return t, newError(ConfigurationConflict, t.String(), ErrNotDerivable)
	}
	return t, nil
}

func (b *builder) enqueue(t schema.TypeDescriptor) {
	name := t.Canonical()
	if !b.reg.reserve(name) {
		b.log.Debug("schema cached", zap.String("schema", name))
		return
	}
	b.log.Debug("schema reserved", zap.String("schema", name))
	b.queue = append(b.queue, t)
}

func (b *builder) build(t schema.TypeDescriptor) (*Schema, error) {
	def, _ := b.u.Lookup(t.Name)
	s := &Schema{Name: t.Canonical(), Type: t, Def: def, DescribeContents: def.DescribeContents}

	if inst, ok := b.singleton(t); ok {
		s.Singleton = true
		s.Instance = inst
		return s, nil
	}

	levels := b.hierarchy(t)
	if lvl, ok := nearest(levels, func(d *schema.TypeDef) bool { return len(d.Adapters) > 0 }); ok {
		for _, d := range lvl.def.Adapters {
			if err := b.adapters.Declare(d, ScopeClass, s.Name, lvl.bindings); err != nil {
				return nil, err
			}
		}
	}

	if err := b.properties(s, levels); err != nil {
		return nil, err
	}
	if err := b.constructor(s); err != nil {
		return nil, err
	}
	for _, p := range s.Properties {
		if p.Private && p.Setter == "" && p.CtorIndex < 0 {
			return nil, newError(SchemaShape, s.Name+"."+p.Name,
				fmt.Errorf("%w: private without a setter or constructor argument", ErrUnwritableField))
		}
	}

	for _, p := range s.Properties {
		p.Slot.Walk(func(sl Slot) {
			switch k := sl.Kind.(type) {
			case NestedKind:
				b.enqueue(k.Type)
			case AdapterKind:
				s.Adapters = appendBinding(s.Adapters, k.Binding)
			}
		})
	}
	slices.SortStableFunc(s.Adapters, func(x, y AdapterBinding) int {
		if c := strings.Compare(x.Adapter, y.Adapter); c != 0 {
			return c
		}
		return strings.Compare(x.Source.Canonical(), y.Source.Canonical())
	})
	return s, nil
}

// singleton reports the static instance field of t, if t has one.
func (b *builder) singleton(t schema.TypeDescriptor) (string, bool) {
	for _, f := range b.u.Fields(t) {
		if f.Static && f.Name == b.opts.InstanceField && b.u.Assignable(f.Type, t) {
			return f.Name, true
		}
	}
	return "", false
}

// hierarchy returns t followed by its superclasses.
func (b *builder) hierarchy(t schema.TypeDescriptor) []level {
	var out []level
	for {
		def, _ := b.u.Lookup(t.Name)
		bindings, _ := b.u.Bind(t)
		out = append(out, level{t: t, def: def, bindings: bindings})
		sup, ok := b.u.Superclass(t)
		if !ok {
			return out
		}
		t = sup
	}
}

func nearest(levels []level, has func(*schema.TypeDef) bool) (level, bool) {
	for _, l := range levels {
		if has(l.def) {
			return l, true
		}
	}
	return level{}, false
}

// properties enumerates the serialized fields of s: local fields first,
// then each superclass's.
func (b *builder) properties(s *Schema, levels []level) error {
	matchers, _ := nearest(levels, func(d *schema.TypeDef) bool { return len(d.Exclude) > 0 })
	declaredOn := map[string]string{}
	for _, lvl := range levels {
		for _, f := range b.u.Fields(lvl.t) {
			subject := s.Name + "." + f.Name
			if f.Static || f.Transient || f.Exclude || excluded(matchers, f) {
				b.log.Debug("field dropped", zap.String("field", subject))
				continue
			}
			if other, dup := declaredOn[f.Name]; dup {
				return newError(SchemaShape, subject,
					fmt.Errorf("%w: declared on both %s and %s", ErrDuplicateField, other, lvl.def.Name))
			}
			declaredOn[f.Name] = lvl.def.Name
			if f.Private && f.Getter == "" {
				return newError(SchemaShape, subject, fmt.Errorf("%w: private without a getter", ErrUnreadableField))
			}
			for _, d := range f.Adapters {
				if err := b.adapters.Declare(d, ScopeField, subject, lvl.bindings); err != nil {
					return err
				}
			}
			s.Properties = append(s.Properties, &Property{
				Name:      f.Name,
				Field:     exportName(f.Name),
				Getter:    f.Getter,
				Setter:    f.Setter,
				CtorIndex: -1,
				Declared:  schema.MustParse(f.FieldDef.Type),
				Owner:     lvl.def.Name,
				Private:   f.Private,
				Slot:      b.classify.Classify(f.Type, nil, Site{Schema: s.Name, Field: f.Name}),
			})
		}
	}
	return nil
}

func excluded(lvl level, f schema.Field) bool {
	if lvl.def == nil {
		return false
	}
	for _, m := range lvl.def.Exclude {
		if m.Name != "" && m.Name != "*" && m.Name != f.Name {
			continue
		}
		if m.Type != "" && m.Type != "*" {
			want := schema.MustParse(m.Type).Substitute(lvl.bindings).StripVariance().WithNullable(false)
			got := f.Type.StripVariance().WithNullable(false)
			if want.Name != got.Name || (want.IsGeneric() && want.Canonical() != got.Canonical()) {
				continue
			}
		}
		return true
	}
	return false
}

func (b *builder) constructor(s *Schema) error {
	for i, param := range s.Def.Constructor {
		idx := slices.IndexFunc(s.Properties, func(p *Property) bool { return p.Name == param })
		if idx < 0 {
			return newError(SchemaShape, s.Name,
				fmt.Errorf("%w: parameter %s has no serialized field", ErrUnsatisfiableConstructor, param))
		}
		p := s.Properties[idx]
		if p.CtorIndex >= 0 {
			return newError(SchemaShape, s.Name,
				fmt.Errorf("%w: parameter %s listed twice", ErrUnsatisfiableConstructor, param))
		}
		p.CtorIndex = i
		s.Constructor = append(s.Constructor, p)
	}
	return nil
}

func appendBinding(bs []AdapterBinding, b AdapterBinding) []AdapterBinding {
	for _, x := range bs {
		if x.Adapter == b.Adapter && x.Source.Canonical() == b.Source.Canonical() {
			return bs
		}
	}
	return append(bs, b)
}

// propagateContext sets RequiresContext on every schema whose decoding
// needs the loader, directly or through any nested schema.
func (b *builder) propagateContext() {
	schemas := b.reg.Schemas()
	for _, s := range schemas {
		for _, p := range s.Properties {
			p.Slot.Walk(func(sl Slot) {
				switch k := sl.Kind.(type) {
				case OpaqueKind:
					s.RequiresContext = s.RequiresContext || k.Realizable
				case AdapterKind:
					s.RequiresContext = s.RequiresContext || k.Binding.RequiresContext
				}
			})
		}
	}
	for changed := true; changed; {
		changed = false
		for _, s := range schemas {
			if s.RequiresContext {
				continue
			}
			for _, ref := range s.Nested() {
				if n, ok := b.reg.Lookup(ref); ok && n.RequiresContext {
					s.RequiresContext = true
					changed = true
					break
				}
			}
		}
	}
}

// Nested returns the names of the schemas s refers to, in property order.
func (s *Schema) Nested() []string {
	var out []string
	for _, p := range s.Properties {
		p.Slot.Walk(func(sl Slot) {
			if k, ok := sl.Kind.(NestedKind); ok && !slices.Contains(out, k.Schema) {
				out = append(out, k.Schema)
			}
		})
	}
	return out
}
