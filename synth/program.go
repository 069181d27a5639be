package synth

import (
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/oy3o/parcel"
	"github.com/oy3o/parcel/derive"
)

// Record is the dynamic value of a derived class. Fields is keyed by
// declared field name.
type Record struct {
	Type   string
	Fields map[string]any
}

// Entry is one key and value of a map or sparse container.
type Entry struct {
	Key   any
	Value any
}

// ProgramOption configures a Program.
type ProgramOption func(*Program)

// WithAdapters sets the adapters that adapter positions are resolved
// against, by adapter expression. The default set holds the builtins.
func WithAdapters(set *parcel.AdapterSet) ProgramOption {
	return func(p *Program) { p.adapters = set }
}

// Program executes synthesized procedures over dynamic values: *Record
// for classes, []any for arrays and collections, []Entry for maps and
// sparse containers, Go primitives, strings for enum constants, and nil
// for absent values.
//
// Every local a procedure declares must be fresh in its frame and all
// enclosing frames, so running a procedure also checks that synthesis
// allocated collision-free names.
type Program struct {
	unit     *Unit
	adapters *parcel.AdapterSet
	shared   *xsync.Map[string, *Record]
}

// NewProgram returns a Program running the procedures of u. A Program is
// safe for concurrent use.
func NewProgram(u *Unit, opts ...ProgramOption) *Program {
	p := &Program{unit: u, shared: xsync.NewMap[string, *Record]()}
	for _, opt := range opts {
		opt(p)
	}
	if p.adapters == nil {
		p.adapters = parcel.NewAdapterSet()
	}
	return p
}

// Encode writes v as the schema named name.
func (p *Program) Encode(name string, v any, w *parcel.Writer, flags int) error {
	c, ok := p.unit.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	if err := p.run(c.Encode, v, w, flags); err != nil {
		return err
	}
	return w.Err()
}

// Decode reads a value of the schema named name.
func (p *Program) Decode(name string, r *parcel.Reader, loader parcel.Loader) (any, error) {
	c, ok := p.unit.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	v, err := p.call(c.Decode, r, loader)
	if err != nil {
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

// Marshal encodes v as the schema named name.
func (p *Program) Marshal(name string, v any) ([]byte, error) {
	m := &Message{Program: p, Schema: name, Value: v}
	return m.MarshalBinary()
}

// Unmarshal decodes data as the schema named name. Trailing non-zero
// bytes are an error.
func (p *Program) Unmarshal(name string, data []byte, loader parcel.Loader) (any, error) {
	m := &Message{Program: p, Schema: name, Loader: loader}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m.Value, nil
}

type frame struct {
	parent *frame
	vars   map[string]any
}

func (f *frame) child() *frame { return &frame{parent: f, vars: map[string]any{}} }

func (f *frame) find(name string) *frame {
	for c := f; c != nil; c = c.parent {
		if _, ok := c.vars[name]; ok {
			return c
		}
	}
	return nil
}

func (f *frame) declare(name string, v any) error {
	if f.find(name) != nil {
		return fmt.Errorf("%w: %s", ErrRedeclared, name)
	}
	f.vars[name] = v
	return nil
}

func (f *frame) get(name string) (any, error) {
	c := f.find(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	return c.vars[name], nil
}

func (f *frame) set(name string, v any) error {
	c := f.find(name)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	c.vars[name] = v
	return nil
}

// machine is the state of one procedure invocation.
type machine struct {
	p      *Program
	proc   *Procedure
	w      *parcel.Writer
	r      *parcel.Reader
	loader parcel.Loader
	flags  int
	result any
	done   bool
}

func (p *Program) run(proc *Procedure, v any, w *parcel.Writer, flags int) error {
	if absent(v) {
		return fmt.Errorf("%w: nil %s", ErrValue, proc.Schema.Name)
	}
	m := &machine{p: p, proc: proc, w: w, flags: flags}
	top := &frame{vars: map[string]any{}}
	_ = top.declare("v", v)
	_ = top.declare("w", w)
	_ = top.declare("flags", flags)
	if err := m.exec(proc.Body, top); err != nil {
		return fmt.Errorf("%s: %w", proc.Name, err)
	}
	return nil
}

func (p *Program) call(proc *Procedure, r *parcel.Reader, loader parcel.Loader) (any, error) {
	m := &machine{p: p, proc: proc, r: r, loader: loader}
	top := &frame{vars: map[string]any{}}
	_ = top.declare("r", r)
	_ = top.declare("loader", loader)
	if err := m.exec(proc.Body, top); err != nil {
		return nil, fmt.Errorf("%s: %w", proc.Name, err)
	}
	return m.result, nil
}

func (m *machine) exec(body []Stmt, f *frame) error {
	for _, st := range body {
		if m.done {
			return nil
		}
		if err := m.step(st, f); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) eval(x Expr, f *frame) (any, error) {
	switch x := x.(type) {
	case Local:
		return f.get(x.Name)
	case Member:
		recv, err := f.get(x.Recv)
		if err != nil {
			return nil, err
		}
		rec, ok := recv.(*Record)
		if !ok || rec == nil {
			return nil, fmt.Errorf("%w: %s is %T, not a record", ErrValue, x.Recv, recv)
		}
		return rec.Fields[x.Prop.Name], nil
	}
	return nil, fmt.Errorf("synth: unexpected expression %T", x)
}

func absent(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case []any:
		return v == nil
	case []Entry:
		return v == nil
	case *Record:
		return v == nil
	}
	return false
}

func (m *machine) step(st Stmt, f *frame) error {
	switch st := st.(type) {
	case Guard:
		v, err := m.eval(st.Value, f)
		if err != nil {
			return err
		}
		present := !absent(v)
		m.w.WritePresence(present)
		if present {
			return m.exec(st.Body, f.child())
		}
		return nil

	case PutLength:
		v, err := m.eval(st.Value, f)
		if err != nil {
			return err
		}
		switch v := v.(type) {
		case []any:
			m.w.WriteLength(len(v))
		case []Entry:
			m.w.WriteLength(len(v))
		default:
			return fmt.Errorf("%w: %T has no length", ErrValue, v)
		}
		return nil

	case Each:
		v, err := m.eval(st.Over, f)
		if err != nil {
			return err
		}
		return m.each(st, v, f)

	case Put:
		v, err := m.eval(st.Value, f)
		if err != nil {
			return err
		}
		return m.put(st.Slot, v)

	case Declare:
		return f.declare(st.Name, zero(st.Slot))

	case IfPresent:
		if m.r.ReadPresence() {
			return m.exec(st.Body, f.child())
		}
		return nil

	case GetLength:
		return f.declare(st.Name, m.r.ReadLength())

	case Get:
		v, err := m.get(st.Slot)
		if err != nil {
			return err
		}
		return f.set(st.Dst, v)

	case Box:
		v, err := f.get(st.Src)
		if err != nil {
			return err
		}
		return f.set(st.Dst, v)

	case Make:
		n, err := m.count(st.Size, f)
		if err != nil {
			return err
		}
		n = min(n, parcel.PreallocLimit)
		switch st.Slot.Kind.(type) {
		case derive.ArrayKind, derive.CollectionKind:
			return f.set(st.Dst, make([]any, 0, n))
		}
		return f.set(st.Dst, make([]Entry, 0, n))

	case Loop:
		n, err := m.count(st.Count, f)
		if err != nil {
			return err
		}
		for range n {
			if m.r.Err() != nil {
				break
			}
			if err := m.exec(st.Body, f.child()); err != nil {
				return err
			}
		}
		return nil

	case Append:
		dst, err := f.get(st.Dst)
		if err != nil {
			return err
		}
		src, err := f.get(st.Src)
		if err != nil {
			return err
		}
		return f.set(st.Dst, append(dst.([]any), src))

	case Insert:
		dst, err := f.get(st.Dst)
		if err != nil {
			return err
		}
		key, err := f.get(st.Key)
		if err != nil {
			return err
		}
		src, err := f.get(st.Src)
		if err != nil {
			return err
		}
		return f.set(st.Dst, append(dst.([]Entry), Entry{Key: key, Value: src}))

	case Build:
		rec := &Record{Type: st.Schema.Name, Fields: make(map[string]any, len(st.Values))}
		for i, prop := range st.Schema.Properties {
			v, err := f.get(st.Values[i])
			if err != nil {
				return err
			}
			rec.Fields[prop.Name] = v
		}
		m.result, m.done = rec, true
		return nil

	case Shared:
		rec, _ := m.p.shared.LoadOrStore(st.Schema.Name, &Record{Type: st.Schema.Name, Fields: map[string]any{}})
		m.result, m.done = rec, true
		return nil
	}
	return fmt.Errorf("synth: unexpected statement %T", st)
}

func (m *machine) count(name string, f *frame) (int, error) {
	v, err := f.get(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a length", ErrValue, name)
	}
	return n, nil
}

func (m *machine) each(st Each, v any, f *frame) error {
	bind := func(key, item any) error {
		loop := f.child()
		if st.Key != "" {
			if err := loop.declare(st.Key, key); err != nil {
				return err
			}
		}
		if err := loop.declare(st.Item, item); err != nil {
			return err
		}
		return m.exec(st.Body, loop.child())
	}
	switch v := v.(type) {
	case []any:
		if st.Key != "" {
			return fmt.Errorf("%w: want entries, got a list", ErrValue)
		}
		for _, item := range v {
			if err := bind(nil, item); err != nil {
				return err
			}
		}
	case []Entry:
		if st.Key == "" {
			return fmt.Errorf("%w: want a list, got entries", ErrValue)
		}
		for _, e := range v {
			if err := bind(e.Key, e.Value); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: cannot iterate %T", ErrValue, v)
	}
	return nil
}

func (m *machine) put(slot derive.Slot, v any) error {
	switch k := slot.Kind.(type) {
	case derive.PrimitiveKind:
		return putPrim(m.w, k.Prim, v)
	case derive.BoxedKind:
		return putPrim(m.w, k.Prim, v)
	case derive.StringKind:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", ErrValue, v)
		}
		m.w.WriteUTF8(s)
	case derive.EnumKind:
		s, ok := v.(string)
		if !ok || !slices.Contains(k.Constants, s) {
			return fmt.Errorf("%w: %v is not a constant of %s", ErrValue, v, k.Type)
		}
		m.w.WriteUTF8(s)
	case derive.NestedKind:
		c, ok := m.p.unit.Lookup(k.Schema)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSchema, k.Schema)
		}
		return m.p.run(c.Encode, v, m.w, m.flags)
	case derive.AdapterKind:
		a, err := m.p.adapters.Lookup(k.Binding.Adapter)
		if err != nil {
			return err
		}
		a.Encode(m.w, v, m.flags)
	case derive.OpaqueKind:
		m.w.WriteOpaque(v)
	default:
		return fmt.Errorf("synth: no leaf encoding for %s", slot)
	}
	return nil
}

func (m *machine) get(slot derive.Slot) (any, error) {
	switch k := slot.Kind.(type) {
	case derive.PrimitiveKind:
		return getPrim(m.r, k.Prim), nil
	case derive.BoxedKind:
		return getPrim(m.r, k.Prim), nil
	case derive.StringKind:
		var s string
		m.r.ReadUTF8(&s)
		return s, nil
	case derive.EnumKind:
		var s string
		m.r.ReadUTF8(&s)
		if m.r.Err() == nil && !slices.Contains(k.Constants, s) {
			m.r.Fail(fmt.Errorf("%w: %q is not a constant of %s", ErrValue, s, k.Type))
		}
		return s, nil
	case derive.NestedKind:
		c, ok := m.p.unit.Lookup(k.Schema)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, k.Schema)
		}
		return m.p.call(c.Decode, m.r, m.loader)
	case derive.AdapterKind:
		a, err := m.p.adapters.Lookup(k.Binding.Adapter)
		if err != nil {
			return nil, err
		}
		return a.Decode(m.r, m.loader), nil
	case derive.OpaqueKind:
		return m.r.ReadOpaque(m.loader, k.Type.Canonical()), nil
	}
	return nil, fmt.Errorf("synth: no leaf decoding for %s", slot)
}

// zero is the value a freshly declared local of slot holds.
func zero(slot derive.Slot) any {
	if k, ok := slot.Kind.(derive.PrimitiveKind); ok && !slot.Nullable {
		return getZero(k.Prim)
	}
	if _, ok := slot.Kind.(derive.StringKind); ok && !slot.Nullable {
		return ""
	}
	return nil
}
