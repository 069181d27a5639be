package parcel

import (
	"fmt"
	"io"
)

// SizeGeneric measures a value whose encoded size is only known after
// encoding it, such as a derived message with collections.
// It returns -1 if encoding fails.
func SizeGeneric[T io.WriterTo](v T) int {
	buf := getBuffer()
	defer putBuffer(buf)
	n, err := v.WriteTo(buf)
	if err != nil {
		return -1
	}
	return int(n)
}

// MarshalBinaryGeneric provides a generic `encoding.BinaryMarshaler` implementation.
func MarshalBinaryGeneric[T interface {
	Size() int
	io.WriterTo
}](v T) ([]byte, error) {
	expectedSize := v.Size()
	if expectedSize < 0 {
		expectedSize = 0
	}
	w := NewBytesWriter(make([]byte, expectedSize))
	n, err := v.WriteTo(w)
	if err != nil {
		return nil, err
	}
	if n < int64(expectedSize) {
		return nil, fmt.Errorf("%w: expected at least %d bytes, but write %d", ErrTruncatedData, expectedSize, n)
	}
	return w.Bytes(), nil
}

// UnmarshalBinaryGeneric adapts a stream-based `ReadFrom` to the slice-based
// `UnmarshalBinary` interface and rejects unexpected trailing data.
func UnmarshalBinaryGeneric[T io.ReaderFrom](v T, data []byte) error {
	r := NewBytesReader(data)
	n, err := v.ReadFrom(r)
	if err != nil {
		return err
	}
	if len(data) > int(n) {
		return CheckBufferNotZeros(data[n:])
	}
	return nil
}

// MarshalToGeneric provides a fallback implementation for the MarshalTo method.
func MarshalToGeneric[T interface {
	Size() int
	io.WriterTo
}](v T, p []byte) (int, error) {
	size := v.Size()
	if len(p) < size {
		return 0, io.ErrShortWrite
	}
	w := NewBytesWriter(p)
	n, err := v.WriteTo(w)
	if err != nil {
		return int(n), err
	}
	if n < int64(size) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}
