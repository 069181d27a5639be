package synth

import (
	"strings"
	"unicode"

	"github.com/oy3o/parcel/derive"
	"github.com/oy3o/parcel/schema"
)

// goTypes maps classified slots to the Go types generated code declares.
// Declared classes are pointers, collections are slices, maps and sparse
// containers are maps, and a nullable value type becomes a pointer.
type goTypes struct{ u *schema.Universe }

// slot is the Go type of a slot, nullability included.
func (g goTypes) slot(s derive.Slot) string {
	t := g.value(s)
	if s.Nullable && g.pointer(s) {
		return "*" + t
	}
	return t
}

// pointer reports whether a nullable s needs a pointer to represent absence.
func (g goTypes) pointer(s derive.Slot) bool {
	switch s.Kind.(type) {
	case derive.BoxedKind, derive.StringKind, derive.EnumKind:
		return true
	case derive.AdapterKind:
		return valueType(g.value(s))
	}
	return false
}

func valueType(t string) bool {
	for _, p := range []string{"*", "[]", "map[", "func(", "chan ", "interface"} {
		if strings.HasPrefix(t, p) {
			return false
		}
	}
	return t != "any" && t != "error"
}

// value is the Go type of s ignoring its nullability.
func (g goTypes) value(s derive.Slot) string {
	switch k := s.Kind.(type) {
	case derive.PrimitiveKind:
		return k.Prim
	case derive.BoxedKind:
		return k.Prim
	case derive.StringKind:
		return "string"
	case derive.ArrayKind:
		return "[]" + g.slot(k.Elem)
	case derive.CollectionKind:
		if g.u.IsBuiltin(k.Type.Name) {
			return "[]" + g.slot(k.Elem)
		}
		return g.named(k.Type)
	case derive.MapKind:
		if g.u.IsBuiltin(k.Type.Name) {
			return "map[" + g.slot(k.Key) + "]" + g.slot(k.Value)
		}
		return g.named(k.Type)
	case derive.SparseKind:
		if g.u.IsBuiltin(k.Type.Name) {
			return "map[int32]" + g.slot(k.Elem)
		}
		return g.named(k.Type)
	case derive.EnumKind:
		return g.named(k.Type)
	case derive.NestedKind:
		return "*" + g.named(k.Type)
	case derive.AdapterKind:
		if k.Binding.GoType != "" {
			return k.Binding.GoType
		}
		return g.descriptor(s.Type.StripVariance().WithNullable(false))
	}
	return "any"
}

// named is the Go spelling of a declared type, with type arguments.
func (g goTypes) named(t schema.TypeDescriptor) string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = g.descriptor(a)
	}
	return t.Name + "[" + strings.Join(args, ", ") + "]"
}

// descriptor maps a type argument to Go. It follows the structural
// classification without adapters, which type arguments cannot carry.
func (g goTypes) descriptor(t schema.TypeDescriptor) string {
	base := g.descriptorValue(t)
	if t.Nullable && valueType(base) {
		return "*" + base
	}
	return base
}

func (g goTypes) descriptorValue(t schema.TypeDescriptor) string {
	if schema.IsPrimitive(t.Name) {
		return t.Name
	}
	arg := func(i int) string {
		if i < len(t.Args) {
			return g.descriptor(t.Args[i])
		}
		return "any"
	}
	switch t.Name {
	case schema.String:
		return "string"
	case schema.Array, schema.List, schema.Set, schema.Collection:
		return "[]" + arg(0)
	case schema.Map:
		return "map[" + arg(0) + "]" + arg(1)
	case schema.Sparse:
		return "map[int32]" + arg(0)
	case schema.Time:
		return "time.Time"
	case schema.BigInt:
		return "*big.Int"
	}
	def, ok := g.u.Lookup(t.Name)
	switch {
	case !ok:
		return "any"
	case def.Kind == schema.KindEnum:
		return g.named(t)
	case def.Kind == schema.KindClass && !def.Abstract:
		return "*" + g.named(t)
	}
	return "any"
}

// ctor is the constructor function of t: NewBox[int32] for Box<int32>,
// model.NewPoint for model.Point.
func (g goTypes) ctor(t schema.TypeDescriptor) string {
	pkg, name := "", t.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		pkg, name = name[:i+1], name[i+1:]
	}
	named := g.named(schema.TypeDescriptor{Name: name, Args: t.Args})
	return pkg + "New" + named
}

// identName turns a canonical type name into an exported identifier:
// Box<List<string>> becomes BoxListString.
func identName(t schema.TypeDescriptor) string {
	var sb strings.Builder
	upper := true
	for _, r := range t.Canonical() {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// rootIdent is the leading identifier of a Go expression or type, the part
// a local of the same name would shadow.
func rootIdent(expr string) string {
	expr = strings.TrimLeft(expr, "*[]")
	end := strings.IndexFunc(expr, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if end < 0 {
		return expr
	}
	return expr[:end]
}

var primMethods = map[string]string{
	"bool": "Bool", "byte": "Uint8",
	"int8": "Int8", "uint8": "Uint8",
	"int16": "Int16", "uint16": "Uint16",
	"int32": "Int32", "uint32": "Uint32",
	"int64": "Int64", "uint64": "Uint64",
	"float32": "Float32", "float64": "Float64",
}
