package parcel

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// sizeCache avoids the reflection cost of `binary.Size` on every call.
var sizeCache = xsync.NewMap[reflect.Type, int]()

func fixedSize[Payload any](p *Payload) int {
	t := reflect.TypeOf((*Payload)(nil)).Elem()
	if size, ok := sizeCache.Load(t); ok {
		return size
	}
	size := binary.Size(p)
	sizeCache.Store(t, size)
	return size
}

// Fixed provides a `Codec` for any struct composed of fixed-size fields.
//
// Constraint: Payload MUST NOT contain slices, maps, or strings, as this
// will cause `binary.Size` to fail.
type Fixed[Payload any] struct {
	Payload Payload
}

var _ Codec = (*Fixed[struct{}])(nil)

// Size returns the fixed size of the payload in bytes.
func (c *Fixed[Payload]) Size() int { return fixedSize(&c.Payload) }

// MarshalBinary implements `encoding.BinaryMarshaler`.
func (c *Fixed[Payload]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, c.Size())
	if _, err := binary.Encode(buf, Order, &c.Payload); err != nil {
		return nil, io.ErrShortWrite
	}
	return buf, nil
}

// UnmarshalBinary implements `encoding.BinaryUnmarshaler`, rejecting trailing data.
func (c *Fixed[Payload]) UnmarshalBinary(data []byte) error {
	n, err := binary.Decode(data, Order, &c.Payload)
	if err != nil {
		return ErrTruncatedData
	}
	if len(data) > n {
		return CheckBufferNotZeros(data[n:])
	}
	return nil
}

// ReadFrom implements `io.ReaderFrom`.
func (c *Fixed[Payload]) ReadFrom(r io.Reader) (int64, error) {
	if err := binary.Read(r, Order, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

// WriteTo implements `io.WriterTo`.
func (c *Fixed[Payload]) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, Order, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

// MarshalTo marshals the payload into p without allocating.
func (c *Fixed[Payload]) MarshalTo(p []byte) (int, error) {
	n, err := binary.Encode(p, Order, &c.Payload)
	if err != nil {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// FixedAdapter returns an Adapter that writes values of type Payload with
// their fixed binary layout. It lets a derived schema carry a fixed-layout
// struct without describing its fields.
func FixedAdapter[Payload any]() Adapter { return fixedAdapter[Payload]{} }

type fixedAdapter[Payload any] struct{}

func (fixedAdapter[Payload]) Encode(w *Writer, v any, _ int) {
	p, ok := v.(Payload)
	if !ok {
		w.Fail(fmt.Errorf("%w: %T", ErrAdapterType, v))
		return
	}
	c := Fixed[Payload]{Payload: p}
	if _, err := c.WriteTo(w); err != nil {
		w.Fail(err)
	}
}

func (fixedAdapter[Payload]) Decode(r *Reader, _ Loader) any {
	var c Fixed[Payload]
	buf := r.ReadBytes(c.Size())
	if r.Err() != nil {
		return c.Payload
	}
	if err := c.UnmarshalBinary(buf); err != nil {
		r.Fail(err)
	}
	return c.Payload
}
