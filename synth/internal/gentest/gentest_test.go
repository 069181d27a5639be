package gentest

import (
	"bytes"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oy3o/parcel"
)

func encode[T any](t *testing.T, write func(*T, *parcel.Writer, int), v *T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := parcel.NewWriter(&buf)
	require.NoError(t, err)
	write(v, w, 0)
	_, err = w.Result()
	require.NoError(t, err)
	return buf.Bytes()
}

func decode[T any](read func(*parcel.Reader) *T, data []byte) (*T, error) {
	r, err := parcel.NewReader(parcel.NewBytesReader(data))
	if err != nil {
		return nil, err
	}
	v := read(r)
	return v, r.Err()
}

func TestPair(t *testing.T) {
	data := encode(t, WritePair, &Pair{A: 3, B: []string{"x", "y"}})
	assert.Equal(t, "00000003"+"01"+"00000002"+"00000001"+"78"+"00000001"+"79", hex.EncodeToString(data))

	got, err := decode(ReadPair, data)
	require.NoError(t, err)
	assert.Equal(t, &Pair{A: 3, B: []string{"x", "y"}}, got)

	data = encode(t, WritePair, &Pair{A: 3})
	assert.Equal(t, "0000000300", hex.EncodeToString(data))
	got, err = decode(ReadPair, data)
	require.NoError(t, err)
	assert.Nil(t, got.B)
}

func TestPairTruncatedLength(t *testing.T) {
	start := time.Now()
	_, err := decode(ReadPair, []byte{0, 0, 0, 3, 1, 0x00, 0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStamp(t *testing.T) {
	for _, in := range []*Stamp{
		{},
		{At: time.Date(2300, 1, 1, 0, 0, 0, 1, time.UTC), Tip: parcel.Ptr(int64(5))},
		{At: time.Date(1600, 6, 1, 12, 0, 0, 0, time.UTC), Tip: parcel.Ptr(int64(0))},
	} {
		data := encode(t, WriteStamp, in)
		assert.Len(t, data, 20)

		out, err := decode(ReadStamp, data)
		require.NoError(t, err)
		assert.True(t, in.At.Equal(out.At), "%v != %v", in.At, out.At)
		assert.Equal(t, in.Tip, out.Tip)
	}
}

func TestAdapterResultType(t *testing.T) {
	data := encode(t, WriteOdd, &Odd{Tip: 7})
	assert.Equal(t, "0000000000000007", hex.EncodeToString(data))

	_, err := decode(ReadOdd, data)
	assert.ErrorIs(t, err, parcel.ErrAdapterType)
}
