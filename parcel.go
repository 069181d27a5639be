// Package parcel is the runtime that derived codecs are written against.
//
// Encoders write through a Writer and decoders read through a Reader. Both
// latch the first error they see, so a procedure can issue a long run of
// calls and check Err once at the end.
package parcel

import (
	"encoding"
	"io"
)

// Sizer is an interface for types that can report their binary size.
type Sizer interface {
	// Size returns the size of the type in bytes when binary encoded.
	Size() int
}

// Marshaler defines the methods for encoding a value into a byte stream.
type Marshaler interface {
	encoding.BinaryMarshaler // MarshalBinary() ([]byte, error)
	io.WriterTo              // WriteTo(w io.Writer) (int64, error)

	// MarshalTo encodes into a pre-allocated buffer, returning
	// io.ErrShortWrite if the buffer is too small.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler defines the methods for decoding a byte stream into a value.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler // UnmarshalBinary(data []byte) error
	io.ReaderFrom              // ReadFrom(r io.Reader) (int64, error)
}

// Codec aggregates all binary serialization and deserialization interfaces.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}

// Adapter is a user supplied codec for a single type. Derived procedures call
// Encode and Decode in place of an inline strategy for the type it is bound to.
//
// Errors are reported by latching them on the Writer or Reader with Fail.
type Adapter interface {
	Encode(w *Writer, v any, flags int)
	Decode(r *Reader, loader Loader) any
}

// Loader is the extra context a decoder needs when a value cannot be
// reconstructed from the bytes alone. Load returns a pointer to a fresh
// instance of the named type, ready to be decoded into.
type Loader interface {
	Load(typeName string) (any, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(typeName string) (any, error)

func (f LoaderFunc) Load(typeName string) (any, error) { return f(typeName) }
