package synth

import (
	"fmt"
	"go/format"
	"slices"
	"strings"

	"github.com/oy3o/parcel/derive"
)

// emitter writes procedures as Go source.
type emitter struct {
	s       *Synthesizer
	proc    *Procedure
	sb      strings.Builder
	depth   int
	imports map[string]bool
}

func (s *Synthesizer) render(c *Codec) (string, []string, error) {
	e := &emitter{s: s, imports: map[string]bool{}}
	e.procedure(c.Encode)
	e.line("")
	e.procedure(c.Decode)

	src, err := format.Source([]byte(e.sb.String()))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %v", ErrRender, c.Schema.Name, err)
	}
	var imports []string
	for path := range e.imports {
		imports = append(imports, path)
	}
	slices.Sort(imports)
	return string(src), imports, nil
}

func (e *emitter) line(format string, args ...any) {
	if format == "" {
		e.sb.WriteByte('\n')
		return
	}
	e.sb.WriteString(strings.Repeat("\t", e.depth))
	fmt.Fprintf(&e.sb, format, args...)
	e.sb.WriteByte('\n')
}

func (e *emitter) typ(t string) string {
	if strings.Contains(t, "time.") {
		e.imports["time"] = true
	}
	if strings.Contains(t, "big.") {
		e.imports["math/big"] = true
	}
	return t
}

func (e *emitter) procedure(p *Procedure) {
	e.proc = p
	sc := p.Schema
	switch {
	case sc.Singleton && p.Decoder():
		e.line("// %s returns the shared %s.", p.Name, sc.Name)
	case p.Decoder():
		e.line("// %s reads a %s.", p.Name, sc.Name)
	default:
		e.line("// %s writes a %s.", p.Name, sc.Name)
	}
	if len(sc.Properties) > 0 {
		e.line("//")
		for _, prop := range sc.Properties {
			e.line("//\t%s %s", prop.Name, prop.Slot.Type)
		}
	}

	params := make([]string, len(p.Params))
	for i, prm := range p.Params {
		params[i] = prm.Name + " " + e.typ(prm.Type)
	}
	if p.Decoder() {
		e.line("func %s(%s) %s {", p.Name, strings.Join(params, ", "), e.typ(p.Result))
	} else {
		e.line("func %s(%s) {", p.Name, strings.Join(params, ", "))
	}
	e.block(p.Body)
	e.line("}")
}

func (e *emitter) block(body []Stmt) {
	e.depth++
	for _, st := range body {
		e.stmt(st)
	}
	e.depth--
}

func (e *emitter) expr(x Expr) string {
	switch x := x.(type) {
	case Local:
		return x.Name
	case Member:
		return x.Recv + "." + x.Prop.Accessor()
	}
	panic(fmt.Sprintf("synth: unexpected expression %T", x))
}

func (e *emitter) loader() string {
	if e.proc.Context {
		return "loader"
	}
	return "nil"
}

func (e *emitter) stmt(st Stmt) {
	switch st := st.(type) {
	case Guard:
		v := e.expr(st.Value)
		e.line("w.WritePresence(%s != nil)", v)
		e.line("if %s != nil {", v)
		e.block(st.Body)
		e.line("}")
	case PutLength:
		e.line("w.WriteLength(len(%s))", e.expr(st.Value))
	case Each:
		key := st.Key
		if key == "" {
			key = "_"
		}
		e.line("for %s, %s := range %s {", key, st.Item, e.expr(st.Over))
		e.block(st.Body)
		e.line("}")
	case Put:
		e.put(st)
	case Declare:
		e.line("var %s %s", st.Name, e.typ(e.s.types.slot(st.Slot)))
	case IfPresent:
		e.line("if r.ReadPresence() {")
		e.block(st.Body)
		e.line("}")
	case GetLength:
		e.line("%s := r.ReadLength()", st.Name)
	case Get:
		e.get(st)
	case Box:
		e.line("%s = &%s", st.Dst, st.Src)
	case Make:
		t := e.typ(e.s.types.value(st.Slot))
		switch st.Slot.Kind.(type) {
		case derive.ArrayKind, derive.CollectionKind:
			e.line("%s = make(%s, 0, min(%s, parcel.PreallocLimit))", st.Dst, t, st.Size)
		default:
			e.line("%s = make(%s, min(%s, parcel.PreallocLimit))", st.Dst, t, st.Size)
		}
	case Loop:
		e.line("for range %s {", st.Count)
		e.line("\tif r.Err() != nil {")
		e.line("\t\tbreak")
		e.line("\t}")
		e.block(st.Body)
		e.line("}")
	case Append:
		e.line("%s = append(%s, %s)", st.Dst, st.Dst, st.Src)
	case Insert:
		e.line("%s[%s] = %s", st.Dst, st.Key, st.Src)
	case Build:
		e.build(st)
	case Shared:
		e.line("return %s", e.s.names[st.Schema.Name].shared)
	default:
		panic(fmt.Sprintf("synth: unexpected statement %T", st))
	}
}

func (e *emitter) put(st Put) {
	v := e.expr(st.Value)
	if st.Deref {
		v = "*" + v
	}
	switch k := st.Slot.Kind.(type) {
	case derive.PrimitiveKind:
		e.line("w.Write%s(%s)", primMethods[k.Prim], v)
	case derive.BoxedKind:
		e.line("w.Write%s(%s)", primMethods[k.Prim], v)
	case derive.StringKind:
		e.line("w.WriteUTF8(%s)", v)
	case derive.EnumKind:
		e.line("w.WriteText(%s)", v)
	case derive.NestedKind:
		e.line("%s(%s, w, flags)", e.s.names[k.Schema].encode, v)
	case derive.AdapterKind:
		if e.boxed(st.Slot) && !st.Deref {
			// absence reaches the adapter as nil, not as a typed nil pointer
			e.line("if %s != nil {", v)
			e.line("\t%s.Encode(w, *%s, flags)", k.Binding.Adapter, v)
			e.line("} else {")
			e.line("\t%s.Encode(w, nil, flags)", k.Binding.Adapter)
			e.line("}")
			return
		}
		e.line("%s.Encode(w, %s, flags)", k.Binding.Adapter, v)
	case derive.OpaqueKind:
		e.line("w.WriteOpaque(%s)", v)
	default:
		panic(fmt.Sprintf("synth: no leaf encoding for %s", st.Slot))
	}
}

// boxed reports whether a null-safe adapter slot is held through a pointer
// the adapter itself never sees.
func (e *emitter) boxed(s derive.Slot) bool {
	return s.NullSafe() && s.Nullable && e.s.types.pointer(s)
}

func (e *emitter) get(st Get) {
	switch k := st.Slot.Kind.(type) {
	case derive.PrimitiveKind:
		e.line("r.Read%s(&%s)", primMethods[k.Prim], st.Dst)
	case derive.BoxedKind:
		e.line("r.Read%s(&%s)", primMethods[k.Prim], st.Dst)
	case derive.StringKind:
		e.line("r.ReadUTF8(&%s)", st.Dst)
	case derive.EnumKind:
		e.line("r.ReadText(&%s)", st.Dst)
	case derive.NestedKind:
		if n, ok := e.s.reg.Lookup(k.Schema); ok && n.RequiresContext {
			e.line("%s = %s(r, loader)", st.Dst, e.s.names[k.Schema].decode)
		} else {
			e.line("%s = %s(r)", st.Dst, e.s.names[k.Schema].decode)
		}
	case derive.AdapterKind:
		t := e.typ(e.s.types.slot(st.Slot))
		if t == "any" {
			e.line("%s = %s.Decode(r, %s)", st.Dst, k.Binding.Adapter, e.loader())
			return
		}
		// a null-safe adapter may report absence as nil; anything else of
		// the wrong dynamic type fails the reader.
		e.line("switch %s := %s.Decode(r, %s).(type) {", st.Tmp, k.Binding.Adapter, e.loader())
		if e.boxed(st.Slot) {
			e.line("case %s:", e.typ(e.s.types.value(st.Slot)))
			e.line("\t%s = &%s", st.Dst, st.Tmp)
		} else {
			e.line("case %s:", t)
			e.line("\t%s = %s", st.Dst, st.Tmp)
		}
		if st.Slot.NullSafe() && st.Slot.Nullable {
			e.line("case nil:")
		}
		e.line("default:")
		e.line("\tr.Fail(parcel.ErrAdapterType)")
		e.line("}")
	case derive.OpaqueKind:
		e.line("%s = r.ReadOpaque(loader, %q)", st.Dst, k.Type.Canonical())
	default:
		panic(fmt.Sprintf("synth: no leaf decoding for %s", st.Slot))
	}
}

func (e *emitter) build(st Build) {
	sc := st.Schema
	var construct string
	if len(sc.Constructor) > 0 {
		args := make([]string, len(sc.Constructor))
		for i, p := range sc.Properties {
			if p.CtorIndex >= 0 {
				args[p.CtorIndex] = st.Values[i]
			}
		}
		construct = fmt.Sprintf("%s(%s)", e.s.types.ctor(sc.Type), strings.Join(args, ", "))
	} else {
		var fields []string
		for i, p := range sc.Properties {
			if !p.Private {
				fields = append(fields, p.Field+": "+st.Values[i])
			}
		}
		construct = fmt.Sprintf("&%s{%s}", e.s.types.named(sc.Type), strings.Join(fields, ", "))
	}
	if st.Result == "" {
		e.line("return %s", construct)
		return
	}
	e.line("%s := %s", st.Result, construct)
	for i, p := range sc.Properties {
		switch {
		case p.CtorIndex >= 0:
		case p.Private:
			e.line("%s.%s(%s)", st.Result, p.Setter, st.Values[i])
		case len(sc.Constructor) > 0:
			e.line("%s.%s = %s", st.Result, p.Field, st.Values[i])
		}
	}
	e.line("return %s", st.Result)
}
