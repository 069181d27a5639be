// Package synth turns derived schemas into encode and decode procedures.
//
// Procedures are built as a small closed IR, then either rendered to Go
// source against the parcel runtime or executed directly by a Program.
package synth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/oy3o/parcel/derive"
)

var (
	// ErrUnknownSchema indicates a schema the registry does not hold.
	ErrUnknownSchema = errors.New("synth: unknown schema")

	// ErrRender indicates generated source that does not format.
	ErrRender = errors.New("synth: rendering failed")

	// ErrRedeclared indicates a procedure declaring a local that is already visible.
	ErrRedeclared = errors.New("synth: local redeclared")

	// ErrUndefined indicates a procedure using a local it never declared.
	ErrUndefined = errors.New("synth: undefined local")

	// ErrValue indicates a value whose shape does not match its schema.
	ErrValue = errors.New("synth: value does not match schema")
)

// Options configures a Synthesizer.
type Options struct {
	Logger *zap.Logger
}

// Codec is the synthesized procedure pair of one schema.
type Codec struct {
	Schema *derive.Schema
	// GoType is the Go type the procedures serve, e.g. Box[int32].
	GoType string
	Encode *Procedure
	Decode *Procedure
	// Source is the gofmt'd Go text of both procedures.
	Source string
	// Imports lists the packages Source needs besides the runtime.
	Imports []string
	// Fingerprint is the hex blake3 digest of Source.
	Fingerprint string
}

// Unit is the synthesized output of a whole registry.
type Unit struct {
	Registry *derive.Registry
	Codecs   []*Codec
	byName   map[string]*Codec
}

// Lookup returns the codec of the schema named name.
func (u *Unit) Lookup(name string) (*Codec, bool) {
	c, ok := u.byName[name]
	return c, ok
}

type procNames struct {
	encode, decode string
	shared         string
}

// Synthesizer builds procedures for the schemas of one registry.
type Synthesizer struct {
	reg      *derive.Registry
	types    goTypes
	log      *zap.Logger
	names    map[string]procNames
	reserved []string
}

// New prepares a synthesizer for reg. Procedure names are allocated here,
// in registry order, so they do not depend on which schemas are later
// synthesized or in which order.
func New(reg *derive.Registry, opts Options) *Synthesizer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Synthesizer{
		reg:   reg,
		types: goTypes{u: reg.Universe()},
		log:   log,
		names: make(map[string]procNames, reg.Len()),
	}

	reserved := map[string]bool{"parcel": true, "time": true, "big": true}
	for _, def := range reg.Universe().Types() {
		reserved[rootIdent(def.Name)] = true
	}
	taken := map[string]bool{}
	for _, sc := range reg.Schemas() {
		base := identName(sc.Type)
		name := base
		for i := 1; taken[name]; i++ {
			name = base + strconv.Itoa(i)
		}
		taken[name] = true

		n := procNames{encode: "Write" + name, decode: "Read" + name}
		if sc.Singleton {
			n.shared = name + sc.Instance
			reserved[n.shared] = true
		}
		s.names[sc.Name] = n
		reserved[n.encode] = true
		reserved[n.decode] = true
		reserved[rootIdent(s.types.ctor(sc.Type))] = true
		for _, b := range sc.Adapters {
			reserved[rootIdent(b.Adapter)] = true
			if b.GoType != "" {
				reserved[rootIdent(b.GoType)] = true
			}
		}
	}
	for n := range reserved {
		s.reserved = append(s.reserved, n)
	}
	slices.Sort(s.reserved)
	return s
}

// SynthesizeAll synthesizes every schema of the registry. Any failure
// aborts the whole unit.
func (s *Synthesizer) SynthesizeAll() (*Unit, error) {
	u := &Unit{Registry: s.reg, byName: make(map[string]*Codec, s.reg.Len())}
	for _, sc := range s.reg.Schemas() {
		c, err := s.Synthesize(sc.Name)
		if err != nil {
			return nil, err
		}
		u.Codecs = append(u.Codecs, c)
		u.byName[sc.Name] = c
	}
	return u, nil
}

// Synthesize builds the procedure pair of the schema named name.
func (s *Synthesizer) Synthesize(name string) (*Codec, error) {
	sc, ok := s.reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	if err := realizable(sc); err != nil {
		return nil, err
	}

	c := &Codec{
		Schema: sc,
		GoType: s.types.named(sc.Type),
		Encode: s.encoder(sc),
		Decode: s.decoder(sc),
	}
	src, imports, err := s.render(c)
	if err != nil {
		return nil, err
	}
	c.Source = src
	c.Imports = imports
	sum := blake3.Sum256([]byte(src))
	c.Fingerprint = hex.EncodeToString(sum[:])

	s.log.Debug("procedures synthesized",
		zap.String("schema", sc.Name),
		zap.String("encode", c.Encode.Name),
		zap.String("decode", c.Decode.Name),
		zap.String("fingerprint", c.Fingerprint[:16]))
	return c, nil
}

func realizable(sc *derive.Schema) error {
	for _, p := range sc.Properties {
		var reason string
		p.Slot.Walk(func(sl derive.Slot) {
			if k, ok := sl.Kind.(derive.OpaqueKind); ok && !k.Realizable && reason == "" {
				reason = k.Reason
			}
		})
		if reason != "" {
			return &derive.Error{
				Category: derive.ClassificationFailure,
				Subject:  sc.Name + "." + p.Name,
				Err:      fmt.Errorf("%w: %s", derive.ErrUnrealizable, reason),
			}
		}
	}
	return nil
}

func (s *Synthesizer) encoder(sc *derive.Schema) *Procedure {
	p := &Procedure{
		Name:   s.names[sc.Name].encode,
		Schema: sc,
		Params: []Param{
			{Name: "v", Type: "*" + s.types.named(sc.Type)},
			{Name: "w", Type: "*parcel.Writer"},
			{Name: "flags", Type: "int"},
		},
	}
	if sc.Singleton {
		return p
	}
	top := newScope(s.reserved, paramNames(p.Params))
	for _, prop := range sc.Properties {
		p.Body = append(p.Body, s.encode(Member{Recv: "v", Prop: prop}, prop.Slot, prop.Name, top)...)
	}
	return p
}

func (s *Synthesizer) encode(val Expr, slot derive.Slot, base string, sc *scope) []Stmt {
	if slot.Guarded() {
		return []Stmt{Guard{Value: val, Body: s.encodeValue(val, slot, base, sc.child(), true)}}
	}
	return s.encodeValue(val, slot, base, sc, false)
}

func (s *Synthesizer) encodeValue(val Expr, slot derive.Slot, base string, sc *scope, guarded bool) []Stmt {
	switch k := slot.Kind.(type) {
	case derive.ArrayKind:
		return s.encodeSeq(val, k.Elem, base, sc)
	case derive.CollectionKind:
		return s.encodeSeq(val, k.Elem, base, sc)
	case derive.MapKind:
		return s.encodeEntries(val, k.Key, k.Value, base, sc)
	case derive.SparseKind:
		return s.encodeEntries(val, sparseKey, k.Elem, base, sc)
	}
	return []Stmt{Put{Slot: slot, Value: val, Deref: guarded && s.types.pointer(slot)}}
}

func (s *Synthesizer) encodeSeq(val Expr, elem derive.Slot, base string, sc *scope) []Stmt {
	inner := sc.child()
	item := inner.claim(base + "Item")
	return []Stmt{
		PutLength{Value: val},
		Each{Item: item, Over: val, Body: s.encode(Local{Name: item}, elem, base, inner)},
	}
}

func (s *Synthesizer) encodeEntries(val Expr, key, value derive.Slot, base string, sc *scope) []Stmt {
	inner := sc.child()
	k := inner.claim(base + "Key")
	v := inner.claim(base + "Item")
	body := s.encode(Local{Name: k}, key, base, inner)
	body = append(body, s.encode(Local{Name: v}, value, base, inner)...)
	return []Stmt{
		PutLength{Value: val},
		Each{Key: k, Item: v, Over: val, Body: body},
	}
}

func (s *Synthesizer) decoder(sc *derive.Schema) *Procedure {
	p := &Procedure{
		Name:    s.names[sc.Name].decode,
		Schema:  sc,
		Params:  []Param{{Name: "r", Type: "*parcel.Reader"}},
		Result:  "*" + s.types.named(sc.Type),
		Context: sc.RequiresContext,
	}
	if sc.RequiresContext {
		p.Params = append(p.Params, Param{Name: "loader", Type: "parcel.Loader"})
	}
	if sc.Singleton {
		p.Body = []Stmt{Shared{Schema: sc}}
		return p
	}

	// property locals are claimed up front so that no loop temporary of an
	// earlier property takes a later property's name.
	top := newScope(s.reserved, paramNames(p.Params), []string{"loader"})
	locals := make([]string, len(sc.Properties))
	for i, prop := range sc.Properties {
		locals[i] = top.claim(prop.Name)
	}
	for i, prop := range sc.Properties {
		p.Body = append(p.Body, Declare{Name: locals[i], Slot: prop.Slot})
		p.Body = append(p.Body, s.decode(locals[i], prop.Slot, prop.Name, top)...)
	}
	build := Build{Schema: sc, Values: locals}
	if needsResult(sc) {
		build.Result = top.claim("result")
	}
	p.Body = append(p.Body, build)
	return p
}

func (s *Synthesizer) decode(dst string, slot derive.Slot, base string, sc *scope) []Stmt {
	if slot.Guarded() {
		return []Stmt{IfPresent{Body: s.decodeValue(dst, slot, base, sc.child(), true)}}
	}
	return s.decodeValue(dst, slot, base, sc, false)
}

func (s *Synthesizer) decodeValue(dst string, slot derive.Slot, base string, sc *scope, guarded bool) []Stmt {
	switch k := slot.Kind.(type) {
	case derive.ArrayKind:
		return s.decodeSeq(dst, slot, k.Elem, base, sc)
	case derive.CollectionKind:
		return s.decodeSeq(dst, slot, k.Elem, base, sc)
	case derive.MapKind:
		return s.decodeEntries(dst, slot, k.Key, k.Value, base, sc)
	case derive.SparseKind:
		return s.decodeEntries(dst, slot, sparseKey, k.Elem, base, sc)
	}
	plain := slot
	plain.Nullable = false
	if guarded && s.types.pointer(slot) {
		tmp := sc.claim(base + "Val")
		return []Stmt{Declare{Name: tmp, Slot: plain}, s.get(tmp, plain, base, sc), Box{Dst: dst, Src: tmp}}
	}
	if slot.NullSafe() {
		return []Stmt{s.get(dst, slot, base, sc)}
	}
	return []Stmt{s.get(dst, plain, base, sc)}
}

func (s *Synthesizer) get(dst string, slot derive.Slot, base string, sc *scope) Get {
	g := Get{Dst: dst, Slot: slot}
	if _, ok := slot.Kind.(derive.AdapterKind); ok {
		g.Tmp = sc.claim(base + "Any")
	}
	return g
}

func (s *Synthesizer) decodeSeq(dst string, slot, elem derive.Slot, base string, sc *scope) []Stmt {
	size := sc.claim(base + "Size")
	inner := sc.child()
	item := inner.claim(base + "Item")
	body := []Stmt{Declare{Name: item, Slot: elem}}
	body = append(body, s.decode(item, elem, base, inner)...)
	body = append(body, Append{Dst: dst, Src: item})
	return []Stmt{
		GetLength{Name: size},
		Make{Dst: dst, Slot: slot, Size: size},
		Loop{Count: size, Body: body},
	}
}

func (s *Synthesizer) decodeEntries(dst string, slot, key, value derive.Slot, base string, sc *scope) []Stmt {
	size := sc.claim(base + "Size")
	inner := sc.child()
	k := inner.claim(base + "Key")
	v := inner.claim(base + "Value")
	body := []Stmt{Declare{Name: k, Slot: key}}
	body = append(body, s.decode(k, key, base, inner)...)
	body = append(body, Declare{Name: v, Slot: value})
	body = append(body, s.decode(v, value, base, inner)...)
	body = append(body, Insert{Dst: dst, Key: k, Src: v})
	return []Stmt{
		GetLength{Name: size},
		Make{Dst: dst, Slot: slot, Size: size},
		Loop{Count: size, Body: body},
	}
}

// needsResult reports whether some property is assigned after the value
// is constructed.
func needsResult(sc *derive.Schema) bool {
	for _, p := range sc.Properties {
		if p.CtorIndex < 0 && (p.Private || len(sc.Constructor) > 0) {
			return true
		}
	}
	return false
}

func paramNames(params []Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}
