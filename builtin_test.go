package parcel

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opaquePoint struct {
	X, Y int
	Tag  string
}

func roundTrip(t *testing.T, a Adapter, v any) any {
	t.Helper()
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	a.Encode(w, v, 0)
	_, err := w.Result()
	require.NoError(t, err)

	r, _ := NewReader(NewBytesReader(buf.Bytes()))
	out := a.Decode(r, nil)
	require.NoError(t, r.Err())
	return out
}

func TestTimeAdapter(t *testing.T) {
	for _, in := range []time.Time{
		time.Date(2024, 3, 1, 12, 30, 0, 42, time.UTC),
		{},
		time.Date(1600, 1, 1, 0, 0, 0, 999999999, time.UTC),
		time.Date(2300, 1, 1, 0, 0, 0, 1, time.UTC),
		time.Date(1969, 12, 31, 23, 59, 59, 5, time.FixedZone("X", -3600)),
	} {
		out := roundTrip(t, TimeAdapter, in)
		assert.True(t, in.Equal(out.(time.Time)), "%v != %v", in, out)
		assert.Equal(t, time.UTC, out.(time.Time).Location())
	}

	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	TimeAdapter.Encode(w, time.Unix(1, 2), 0)
	_, err := w.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 2}, buf.Bytes())

	w, _ = NewWriter(&bytes.Buffer{})
	TimeAdapter.Encode(w, "yesterday", 0)
	assert.ErrorIs(t, w.Err(), ErrAdapterType)

	r, _ := NewReader(NewBytesReader([]byte{0, 0, 0, 0, 0, 0, 0, 1, 0x3b, 0x9a, 0xca, 0x00}))
	TimeAdapter.Decode(r, nil)
	assert.ErrorIs(t, r.Err(), ErrInvalidTime)
}

func TestBigIntAdapter(t *testing.T) {
	for _, s := range []string{"0", "1", "-1", "123456789012345678901234567890", "-98765432109876543210"} {
		in, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		out := roundTrip(t, BigIntAdapter, in)
		assert.Zero(t, in.Cmp(out.(*big.Int)), s)
	}

	w, _ := NewWriter(&bytes.Buffer{})
	BigIntAdapter.Encode(w, (*big.Int)(nil), 0)
	assert.ErrorIs(t, w.Err(), ErrAdapterType)
}

func TestAdapterSet(t *testing.T) {
	set := NewAdapterSet()
	assert.Equal(t, []string{BigIntAdapterName, TimeAdapterName}, set.Names())

	a, err := set.Lookup(TimeAdapterName)
	require.NoError(t, err)
	assert.Equal(t, TimeAdapter, a)

	_, err = set.Lookup("model.Missing")
	assert.ErrorIs(t, err, ErrNoAdapter)

	fixed := FixedAdapter[opaquePointFixed]()
	require.NoError(t, set.Register("model.Point", fixed))
	assert.ErrorIs(t, set.Register("model.Point", fixed), ErrAdapterExists)

	// a built-in can be replaced once, after which it is an ordinary entry.
	require.NoError(t, set.Register(TimeAdapterName, fixed))
	assert.ErrorIs(t, set.Register(TimeAdapterName, TimeAdapter), ErrAdapterExists)
}

type opaquePointFixed struct{ X, Y int32 }

func TestOpaque(t *testing.T) {
	in := &opaquePoint{X: 1, Y: -2, Tag: "p"}
	loader := LoaderFunc(func(typeName string) (any, error) {
		assert.Equal(t, "Point", typeName)
		return new(opaquePoint), nil
	})

	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteOpaque(in)
	_, err := w.Result()
	require.NoError(t, err)

	first := append([]byte(nil), buf.Bytes()...)
	buf.Reset()
	w, _ = NewWriter(&buf)
	w.WriteOpaque(in)
	_, _ = w.Result()
	assert.Equal(t, first, buf.Bytes(), "opaque payloads are deterministic")

	r, _ := NewReader(NewBytesReader(first))
	out := r.ReadOpaque(loader, "Point")
	require.NoError(t, r.Err())
	assert.Equal(t, in, out)

	r, _ = NewReader(NewBytesReader(first))
	assert.Nil(t, r.ReadOpaque(nil, "Point"))
	assert.ErrorIs(t, r.Err(), ErrNoLoader)
}
