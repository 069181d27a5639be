package synth

import (
	"bytes"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oy3o/parcel"
	"github.com/oy3o/parcel/derive"
)

// centsAdapter writes absent money as -1, so it needs no presence flag.
type centsAdapter struct{}

func (centsAdapter) Encode(w *parcel.Writer, v any, _ int) {
	if v == nil {
		w.WriteInt64(-1)
		return
	}
	w.WriteInt64(v.(int64))
}

func (centsAdapter) Decode(r *parcel.Reader, _ parcel.Loader) any {
	var c int64
	r.ReadInt64(&c)
	if c < 0 {
		return nil
	}
	return c
}

func TestNullSafeAdapter(t *testing.T) {
	u := unit(t, `
types:
  - name: Money
    fields:
      - {name: cents, type: int64}
  - name: Account
    fields:
      - name: limit
        type: Money?
        adapters:
          - {type: Money, adapter: money.Cents, nullSafe: true, goType: int64}
      - name: floor
        type: Money?
        adapters:
          - {type: Money, adapter: money.Checked, goType: int64}
roots: [Account]
`, derive.Options{})
	c := codec(t, u, "Account")

	assert.Contains(t, c.Source, "if v.Limit != nil {\n\t\tmoney.Cents.Encode(w, *v.Limit, flags)\n\t} else {\n\t\tmoney.Cents.Encode(w, nil, flags)\n\t}")
	assert.Contains(t, c.Source, "switch limitAny := money.Cents.Decode(r, nil).(type) {\n\tcase int64:\n\t\tlimit = &limitAny\n\tcase nil:\n\tdefault:\n\t\tr.Fail(parcel.ErrAdapterType)\n\t}")
	assert.NotContains(t, c.Source, "w.WritePresence(v.Limit != nil)")
	assert.Contains(t, c.Source, "w.WritePresence(v.Floor != nil)")
	assert.Contains(t, c.Source, "money.Checked.Encode(w, *v.Floor, flags)")
	assert.Contains(t, c.Source, "switch floorAny := money.Checked.Decode(r, nil).(type) {\n\t\tcase int64:\n\t\t\tfloorVal = floorAny\n\t\tdefault:")
	assert.Contains(t, c.Source, "floor = &floorVal")

	set := parcel.NewAdapterSet()
	require.NoError(t, set.Register("money.Cents", centsAdapter{}))
	require.NoError(t, set.Register("money.Checked", centsAdapter{}))
	p := NewProgram(u, WithAdapters(set))

	in := &Record{Type: "Account", Fields: map[string]any{"limit": nil, "floor": int64(250)}}
	data, err := p.Marshal("Account", in)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		1, 0, 0, 0, 0, 0, 0, 0, 250,
	}, data)
	out, err := p.Unmarshal("Account", data, nil)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = NewProgram(u).Marshal("Account", in)
	assert.ErrorIs(t, err, parcel.ErrNoAdapter)
}

type blob struct {
	N    int
	Tags []string
}

const contextSchema = `
types:
  - name: Blob
    kind: interface
    implements: [Serializable]
  - name: Inner
    fields:
      - {name: blob, type: Blob?}
  - name: Outer
    fields:
      - {name: inner, type: Inner?}
      - {name: id, type: int32}
roots: [Outer]
`

func TestContextParameter(t *testing.T) {
	u := unit(t, contextSchema, derive.Options{AllowOpaque: true})

	outer := codec(t, u, "Outer")
	assert.True(t, outer.Decode.Context)
	assert.Contains(t, outer.Source, "func ReadOuter(r *parcel.Reader, loader parcel.Loader) *Outer {")
	assert.Contains(t, outer.Source, "inner = ReadInner(r, loader)")
	assert.Contains(t, codec(t, u, "Inner").Source, "var blob any\n")
	assert.Contains(t, codec(t, u, "Inner").Source, `blob = r.ReadOpaque(loader, "Blob")`)

	var loads []string
	loader := parcel.LoaderFunc(func(name string) (any, error) {
		loads = append(loads, name)
		return &blob{}, nil
	})

	p := NewProgram(u)
	inner := &Record{Type: "Inner", Fields: map[string]any{"blob": &blob{N: 7, Tags: []string{"a"}}}}
	in := &Record{Type: "Outer", Fields: map[string]any{"inner": inner, "id": int32(1)}}
	data, err := p.Marshal("Outer", in)
	require.NoError(t, err)

	out, err := p.Unmarshal("Outer", data, loader)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, []string{"Blob"}, loads)

	_, err = p.Unmarshal("Outer", data, nil)
	assert.ErrorIs(t, err, parcel.ErrNoLoader)
}

func TestSingleton(t *testing.T) {
	u := unit(t, `
types:
  - name: Unit
    fields:
      - {name: Instance, type: Unit, static: true}
      - {name: ignored, type: string}
  - name: Holder
    fields:
      - {name: unit, type: Unit}
      - {name: id, type: int32}
roots: [Holder]
`, derive.Options{})

	c := codec(t, u, "Unit")
	assert.Contains(t, c.Source, "func ReadUnit(r *parcel.Reader) *Unit {\n\treturn UnitInstance\n}")
	assert.Contains(t, c.Source, "func WriteUnit(v *Unit, w *parcel.Writer, flags int) {\n}")

	p := NewProgram(u)
	in := &Record{Type: "Holder", Fields: map[string]any{"unit": &Record{Type: "Unit"}, "id": int32(2)}}
	data, err := p.Marshal("Holder", in)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 2}, data)

	var wg sync.WaitGroup
	got := make([]*Record, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.Unmarshal("Holder", data, nil)
			assert.NoError(t, err)
			got[i] = v.(*Record).Fields["unit"].(*Record)
		}()
	}
	wg.Wait()
	for _, r := range got[1:] {
		assert.Same(t, got[0], r)
	}
}

func TestMessage(t *testing.T) {
	p := NewProgram(unit(t, pairSchema, derive.Options{}))
	m := &Message{
		Program: p,
		Schema:  "Pair",
		Value:   &Record{Type: "Pair", Fields: map[string]any{"a": int32(3), "b": []any{"x"}}},
	}
	assert.Equal(t, 14, m.Size())

	buf := make([]byte, 4)
	_, err := m.MarshalTo(buf)
	assert.ErrorIs(t, err, io.ErrShortWrite)

	buf = make([]byte, 16)
	n, err := m.MarshalTo(buf)
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	var out bytes.Buffer
	written, err := m.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(14), written)
	assert.Equal(t, buf[:n], out.Bytes())

	back := &Message{Program: p, Schema: "Pair"}
	read, err := back.ReadFrom(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, int64(14), read)
	assert.Equal(t, m.Value, back.Value)

	// trailing zero padding is tolerated, anything else is not
	require.NoError(t, back.UnmarshalBinary(buf))
	assert.ErrorIs(t, back.UnmarshalBinary(append(buf[:n:n], 0, 7)), parcel.ErrTrailingData)

	broken := &Message{Program: p, Schema: "Pair", Value: &Record{Type: "Pair", Fields: map[string]any{"a": "three"}}}
	assert.Equal(t, -1, broken.Size())
	_, err = broken.MarshalBinary()
	assert.ErrorIs(t, err, ErrValue)
}

func TestTruncatedLength(t *testing.T) {
	p := NewProgram(unit(t, `
types:
  - name: Arr
    fields:
      - {name: a, type: "[]int64"}
  - name: Seq
    fields:
      - {name: l, type: List<int64>}
  - name: Dict
    fields:
      - {name: m, type: "Map<int32, int32>"}
  - name: Text
    fields:
      - {name: s, type: string}
roots: [Arr, Seq, Dict, Text]
`, derive.Options{}))

	// each payload claims 0x00ffffff elements and then ends
	for _, name := range []string{"Arr", "Seq", "Dict", "Text"} {
		var before, after runtime.MemStats
		runtime.GC()
		runtime.ReadMemStats(&before)
		_, err := p.Unmarshal(name, []byte{0x00, 0xff, 0xff, 0xff, 0x01}, nil)
		runtime.ReadMemStats(&after)

		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, name)
		assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), name)
	}
}

func TestRender(t *testing.T) {
	u := unit(t, kindsSchema, derive.Options{})

	src, err := Render(u, RenderOptions{Package: "model", Generator: "parcelgen test"})
	require.NoError(t, err)
	parses(t, src)

	text := string(src)
	assert.True(t, strings.HasPrefix(text, "// Code generated by parcelgen test. DO NOT EDIT.\n"))
	assert.Contains(t, text, "\npackage model\n")
	assert.Contains(t, text, "\t\"github.com/oy3o/parcel\"\n")
	assert.Contains(t, text, "\t\"math/big\"\n")
	assert.Contains(t, text, "\t\"time\"\n")
	for _, c := range u.Codecs {
		assert.Contains(t, text, "// "+c.Schema.Name+" fingerprint "+c.Fingerprint)
		assert.Contains(t, text, "func "+c.Encode.Name+"(")
		assert.Contains(t, text, "func "+c.Decode.Name+"(")
	}

	_, err = Render(u, RenderOptions{})
	assert.ErrorIs(t, err, ErrRender)

	src, err = Render(u, RenderOptions{Package: "model", Imports: []string{"example.com/money", "time"}})
	require.NoError(t, err)
	assert.Contains(t, string(src), "\t\"example.com/money\"\n")
	assert.Equal(t, 1, strings.Count(string(src), "\t\"time\"\n"))

	_, err = Render(u, RenderOptions{Package: "model", Imports: []string{`bad"path`}})
	assert.ErrorIs(t, err, ErrRender)
}
