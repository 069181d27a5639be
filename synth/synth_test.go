package synth

import (
	"encoding/hex"
	"errors"
	"go/parser"
	"go/token"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oy3o/parcel/derive"
	"github.com/oy3o/parcel/schema"
)

func registry(t *testing.T, src string, opts derive.Options) *derive.Registry {
	t.Helper()
	f, err := schema.ParseYAML([]byte(src))
	require.NoError(t, err)
	u, err := f.Universe()
	require.NoError(t, err)
	roots, err := f.RootTypes()
	require.NoError(t, err)
	opts.Adapters = append(opts.Adapters, f.Adapters...)
	reg, err := derive.Derive(u, roots, opts)
	require.NoError(t, err)
	return reg
}

func unit(t *testing.T, src string, opts derive.Options) *Unit {
	t.Helper()
	u, err := New(registry(t, src, opts), Options{}).SynthesizeAll()
	require.NoError(t, err)
	return u
}

func codec(t *testing.T, u *Unit, name string) *Codec {
	t.Helper()
	c, ok := u.Lookup(name)
	require.True(t, ok, "codec %s missing", name)
	return c
}

func parses(t *testing.T, src []byte) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.AllErrors)
	require.NoError(t, err, "%s", src)
}

const pairSchema = `
types:
  - name: Pair
    fields:
      - {name: a, type: int32}
      - {name: b, type: List<string>?}
roots: [Pair]
`

func TestPairBytes(t *testing.T) {
	p := NewProgram(unit(t, pairSchema, derive.Options{}))

	absent := &Record{Type: "Pair", Fields: map[string]any{"a": int32(3), "b": nil}}
	data, err := p.Marshal("Pair", absent)
	require.NoError(t, err)
	assert.Equal(t, "0000000300", hex.EncodeToString(data))

	present := &Record{Type: "Pair", Fields: map[string]any{"a": int32(3), "b": []any{"x", "y"}}}
	data, err = p.Marshal("Pair", present)
	require.NoError(t, err)
	assert.Equal(t, "00000003"+"01"+"00000002"+"00000001"+"78"+"00000001"+"79", hex.EncodeToString(data))

	got, err := p.Unmarshal("Pair", data, nil)
	require.NoError(t, err)
	assert.Equal(t, present, got)

	got, err = p.Unmarshal("Pair", []byte{0, 0, 0, 3, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, absent, got)
}

func TestPairSource(t *testing.T) {
	c := codec(t, unit(t, pairSchema, derive.Options{}), "Pair")

	assert.Equal(t, "WritePair", c.Encode.Name)
	assert.Equal(t, "ReadPair", c.Decode.Name)
	assert.Equal(t, "Pair", c.GoType)
	assert.Empty(t, c.Imports)
	for _, want := range []string{
		"func WritePair(v *Pair, w *parcel.Writer, flags int) {",
		"w.WriteInt32(v.A)",
		"w.WritePresence(v.B != nil)",
		"for _, bItem := range v.B {",
		"func ReadPair(r *parcel.Reader) *Pair {",
		"var b []string",
		"bSize := r.ReadLength()",
		"b = make([]string, 0, min(bSize, parcel.PreallocLimit))",
		"for range bSize {\n\t\t\tif r.Err() != nil {\n\t\t\t\tbreak\n\t\t\t}",
		"b = append(b, bItem)",
		"return &Pair{A: a, B: b}",
	} {
		assert.Contains(t, c.Source, want)
	}
}

const kindsSchema = `
types:
  - name: Color
    kind: enum
    constants: [RED, GREEN]
  - name: Point
    fields:
      - {name: x, type: int32}
  - name: Kinds
    fields:
      - {name: prim, type: int64}
      - {name: flag, type: bool}
      - {name: boxed, type: float64?}
      - {name: str, type: string?}
      - {name: arr, type: "[]int8"}
      - {name: list, type: List<Point?>}
      - {name: set, type: Set<Color>}
      - {name: dict, type: "Map<string, int32>"}
      - {name: sparse, type: Sparse<string>}
      - {name: color, type: Color?}
      - {name: point, type: Point}
      - {name: when, type: Time}
      - {name: big, type: BigInt?}
roots: [Kinds]
`

func TestRoundTripKinds(t *testing.T) {
	u := unit(t, kindsSchema, derive.Options{})
	p := NewProgram(u)

	point := func(x int32) *Record { return &Record{Type: "Point", Fields: map[string]any{"x": x}} }
	full := &Record{Type: "Kinds", Fields: map[string]any{
		"prim":   int64(-7),
		"flag":   true,
		"boxed":  1.5,
		"str":    "hi",
		"arr":    []any{int8(1), int8(-2)},
		"list":   []any{point(1), nil, point(3)},
		"set":    []any{"RED", "GREEN"},
		"dict":   []Entry{{Key: "k", Value: int32(1)}, {Key: "j", Value: int32(2)}},
		"sparse": []Entry{{Key: int32(4), Value: "four"}},
		"color":  "GREEN",
		"point":  point(9),
		"when":   time.Unix(0, 1234).UTC(),
		"big":    big.NewInt(-42),
	}}

	data, err := p.Marshal("Kinds", full)
	require.NoError(t, err)
	got, err := p.Unmarshal("Kinds", data, nil)
	require.NoError(t, err)
	rec := got.(*Record)
	assert.Zero(t, big.NewInt(-42).Cmp(rec.Fields["big"].(*big.Int)))
	delete(rec.Fields, "big")
	delete(full.Fields, "big")
	assert.Equal(t, full, rec)

	sparse := &Record{Type: "Kinds", Fields: map[string]any{
		"prim":   int64(0),
		"flag":   false,
		"boxed":  nil,
		"str":    nil,
		"arr":    []any{},
		"list":   []any{},
		"set":    []any{},
		"dict":   []Entry{},
		"sparse": []Entry{},
		"color":  nil,
		"point":  point(0),
		"when":   time.Unix(0, 0).UTC(),
		"big":    nil,
	}}
	data, err = p.Marshal("Kinds", sparse)
	require.NoError(t, err)
	got, err = p.Unmarshal("Kinds", data, nil)
	require.NoError(t, err)
	assert.Equal(t, sparse, got)

	src, err := Render(u, RenderOptions{Package: "model"})
	require.NoError(t, err)
	parses(t, src)
	assert.Equal(t, []string{"math/big", "time"}, codec(t, u, "Kinds").Imports)
}

func TestRoundTripRejectsMismatch(t *testing.T) {
	p := NewProgram(unit(t, kindsSchema, derive.Options{}))

	_, err := p.Marshal("Point", &Record{Type: "Point", Fields: map[string]any{"x": int64(1)}})
	assert.ErrorIs(t, err, ErrValue)

	_, err = p.Marshal("Point", nil)
	assert.ErrorIs(t, err, ErrValue)

	_, err = p.Marshal("Nowhere", &Record{})
	assert.ErrorIs(t, err, ErrUnknownSchema)

	paint := NewProgram(unit(t, `
types:
  - name: Color
    kind: enum
    constants: [RED]
  - name: Paint
    fields:
      - {name: color, type: Color}
roots: [Paint]
`, derive.Options{}))
	_, err = paint.Marshal("Paint", &Record{Type: "Paint", Fields: map[string]any{"color": "BLUE"}})
	assert.ErrorIs(t, err, ErrValue)
	_, err = paint.Unmarshal("Paint", []byte{0, 0, 0, 4, 'B', 'L', 'U', 'E'}, nil)
	assert.ErrorIs(t, err, ErrValue)
	got, err := paint.Unmarshal("Paint", []byte{0, 0, 0, 3, 'R', 'E', 'D'}, nil)
	require.NoError(t, err)
	assert.Equal(t, "RED", got.(*Record).Fields["color"])
}

func TestNameCollisions(t *testing.T) {
	u := unit(t, `
types:
  - name: Nest
    fields:
      - {name: b, type: List<List<string>>}
      - {name: bItem, type: int32}
      - {name: bSize, type: "Map<string, List<int32>>"}
      - {name: loader, type: "[][]int32?"}
roots: [Nest]
`, derive.Options{})
	c := codec(t, u, "Nest")

	for _, want := range []string{
		"for _, bItem := range v.B {",
		"for _, bItem1 := range bItem {",
		"bSize1 := r.ReadLength()",
		"bSize2 := r.ReadLength()",
		"var bItem1 []string",
		"var bItem2 string",
		"bSizeSize := r.ReadLength()",
		"bSizeSize1 := r.ReadLength()",
		"var loader1 [][]int32",
	} {
		assert.Contains(t, c.Source, want)
	}

	src, err := Render(u, RenderOptions{Package: "model"})
	require.NoError(t, err)
	parses(t, src)

	p := NewProgram(u)
	in := &Record{Type: "Nest", Fields: map[string]any{
		"b":      []any{[]any{"x"}, []any{}},
		"bItem":  int32(5),
		"bSize":  []Entry{{Key: "k", Value: []any{int32(1), int32(2)}}},
		"loader": nil,
	}}
	data, err := p.Marshal("Nest", in)
	require.NoError(t, err)
	out, err := p.Unmarshal("Nest", data, nil)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStrictFrames(t *testing.T) {
	c := codec(t, unit(t, pairSchema, derive.Options{}), "Pair")
	broken := *c
	broken.Decode = &Procedure{
		Name:   "ReadPair",
		Schema: c.Schema,
		Result: "*Pair",
		Body: []Stmt{
			Declare{Name: "a", Slot: c.Schema.Properties[0].Slot},
			Declare{Name: "a", Slot: c.Schema.Properties[0].Slot},
		},
	}
	p := NewProgram(&Unit{byName: map[string]*Codec{"Pair": &broken}})
	_, err := p.Unmarshal("Pair", []byte{0, 0, 0, 3, 0}, nil)
	assert.ErrorIs(t, err, ErrRedeclared)

	broken.Decode.Body = []Stmt{Get{Dst: "a", Slot: c.Schema.Properties[0].Slot}}
	_, err = p.Unmarshal("Pair", []byte{0, 0, 0, 3, 0}, nil)
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestDeterministic(t *testing.T) {
	a := unit(t, kindsSchema, derive.Options{})
	b := unit(t, kindsSchema, derive.Options{})
	require.Len(t, b.Codecs, len(a.Codecs))
	for i := range a.Codecs {
		assert.Equal(t, a.Codecs[i].Schema.Name, b.Codecs[i].Schema.Name)
		assert.Equal(t, a.Codecs[i].Source, b.Codecs[i].Source)
		assert.Equal(t, a.Codecs[i].Encode.Name, b.Codecs[i].Encode.Name)
		assert.Equal(t, a.Codecs[i].Decode.Name, b.Codecs[i].Decode.Name)
		assert.Len(t, a.Codecs[i].Fingerprint, 64)
		assert.Equal(t, a.Codecs[i].Fingerprint, b.Codecs[i].Fingerprint)
	}

	x, err := Render(a, RenderOptions{Package: "model"})
	require.NoError(t, err)
	y, err := Render(b, RenderOptions{Package: "model"})
	require.NoError(t, err)
	assert.Equal(t, x, y)
}

func TestGenericProcedureNames(t *testing.T) {
	u := unit(t, `
types:
  - name: Box
    params: [T]
    fields:
      - {name: value, type: T}
  - name: Holder
    fields:
      - {name: ints, type: Box<int32>}
      - {name: strs, type: Box<string>}
roots: [Holder]
`, derive.Options{})

	ints := codec(t, u, "Box<int32>")
	strs := codec(t, u, "Box<string>")
	assert.Equal(t, "WriteBoxInt32", ints.Encode.Name)
	assert.Equal(t, "ReadBoxString", strs.Decode.Name)
	assert.Equal(t, "Box[int32]", ints.GoType)
	assert.Contains(t, ints.Source, "w.WriteInt32(v.Value)")
	assert.Contains(t, strs.Source, "w.WriteUTF8(v.Value)")
	assert.Contains(t, codec(t, u, "Holder").Source, "ints = ReadBoxInt32(r)")
}

func TestUnrealizable(t *testing.T) {
	reg := registry(t, `
types:
  - name: Blob
    kind: interface
  - name: Holder
    fields:
      - {name: id, type: int32}
      - {name: blob, type: List<Blob>}
roots: [Holder]
`, derive.Options{AllowOpaque: true})

	s := New(reg, Options{})
	_, err := s.Synthesize("Holder")
	var de *derive.Error
	require.True(t, errors.As(err, &de), "%v", err)
	assert.Equal(t, derive.ClassificationFailure, de.Category)
	assert.Equal(t, "Holder.blob", de.Subject)
	assert.ErrorIs(t, err, derive.ErrUnrealizable)

	u, err := s.SynthesizeAll()
	assert.Error(t, err)
	assert.Nil(t, u)

	_, err = s.Synthesize("Nowhere")
	assert.ErrorIs(t, err, ErrUnknownSchema)
}
