package parcel

import (
	"bufio"
	"bytes"
	"encoding"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type writer interface {
	io.Writer
	io.ReaderFrom
	io.Closer
}

type bufferedWriter interface {
	writer
	io.ByteWriter
	io.StringWriter
	Size() int
	Flush() error
}

// Writer is the sink derived encoders write to. It wraps a buffered writer
// and tracks the first error that occurs. After an error, all subsequent
// write operations become no-ops.
type Writer struct {
	w     bufferedWriter
	count int64 // total bytes written
	err   error // first error encountered. Subsequent writes become no-ops.
	depth int
	order binary.ByteOrder
}

var _ bufferedWriter = (*Writer)(nil)

// NewWriterSize creates a new Writer with a specified buffer size.
// It returns an error to prevent double-buffering.
func NewWriterSize(w io.Writer, size int) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}

	switch bw := w.(type) {
	// Reuse the underlying buffer if it's already a compatible Writer.
	case *Writer:
		if bw.w.Size() >= size {
			return &Writer{w: bw.w, depth: bw.depth + 1, order: bw.order}, nil
		}

	case *bufio.Writer:
		if bw.Size() >= size {
			return &Writer{w: &bufioWriterAdapter{bw}, depth: 1, order: Order}, nil
		}
		return nil, ErrAlreadyBuffered

	// underlying is a buf so we don't need buffering
	case *BytesWriter:
		return &Writer{w: bw, order: Order}, nil
	case *bytes.Buffer:
		return &Writer{w: &bytesBufferWriterAdapter{bw}, order: Order}, nil
	}

	return &Writer{w: &bufioWriterAdapter{bufio.NewWriterSize(w, size)}, order: Order}, nil
}

// NewWriter creates a new Writer with a default buffer size.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterSize(w, 0)
}

// Close closes the underlying writer if it implements io.Closer.
func (w *Writer) Close() error {
	return w.w.Close()
}

// Write implements the io.Writer interface.
func (w *Writer) Write(buf []byte) (int, error) {
	if buf == nil || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(buf)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

// WriteString implements the io.StringWriter interface.
func (w *Writer) WriteString(str string) (int, error) {
	if str == "" || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.WriteString(str)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

// ReadFrom implements io.ReaderFrom for efficient copying.
func (w *Writer) ReadFrom(r io.Reader) (int64, error) {
	if r == nil || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.ReadFrom(r)
	w.count += n
	w.setError(err)
	return n, w.err
}

func (w *Writer) Size() int    { return w.w.Size() }
func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

// Fail latches err as if it had been returned by the underlying writer.
// Adapters use it to report domain errors.
func (w *Writer) Fail(err error) { w.setError(err) }

// setError records the first non-nil error.
func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Result flushes the buffer and returns the final count and error state.
func (w *Writer) Result() (int64, error) {
	w.Flush()
	return w.count, w.err
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	// Only the outermost writer is responsible for the final flush.
	if w.depth > 0 || w.err != nil {
		return w.err
	}
	err := w.w.Flush()
	w.setError(err)
	return err
}

// WriteBytes writes a byte slice as is.
func (w *Writer) WriteBytes(buf []byte) {
	if buf == nil || w.err != nil {
		return
	}
	_, _ = w.Write(buf)
}

// --- Primitive Write Operations ---

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func (w *Writer) WriteByte(v byte) error {
	if w.err != nil {
		return w.err
	}
	err := w.w.WriteByte(v)
	if err == nil {
		w.count++
	} else {
		w.err = err
	}
	return err
}

func (w *Writer) WriteUint8(v uint8) { _ = w.WriteByte(v) }

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	w.order.PutUint16(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	w.order.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	w.order.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteInt8(v int8)       { w.WriteUint8(uint8(v)) }
func (w *Writer) WriteInt16(v int16)     { w.WriteUint16(uint16(v)) }
func (w *Writer) WriteInt32(v int32)     { w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64)     { w.WriteUint64(uint64(v)) }
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }
func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// --- Structural Write Operations ---

// WritePresence writes the one byte flag that precedes every nullable value.
func (w *Writer) WritePresence(present bool) { w.WriteBool(present) }

// WriteLength writes a collection or payload length as a 32-bit signed integer.
// Lengths outside [0, MaxLength] latch ErrInvalidLength.
func (w *Writer) WriteLength(n int) {
	if w.err != nil {
		return
	}
	if !validLength(n) {
		w.setError(fmt.Errorf("%w: %d", ErrInvalidLength, n))
		return
	}
	w.WriteInt32(int32(n))
}

// WriteUTF8 writes a length prefixed UTF-8 string.
func (w *Writer) WriteUTF8(s string) {
	w.WriteLength(len(s))
	_, _ = w.WriteString(s)
}

// WriteSized writes a length prefixed byte slice.
func (w *Writer) WriteSized(b []byte) {
	w.WriteLength(len(b))
	w.WriteBytes(b)
}

// WriteText writes the text form of v as a length prefixed string.
// Enum constants are written this way.
func (w *Writer) WriteText(v encoding.TextMarshaler) {
	if w.err != nil {
		return
	}
	text, err := v.MarshalText()
	if err != nil {
		w.setError(err)
		return
	}
	w.WriteSized(text)
}

// WriteOpaque writes v as a length prefixed deterministic CBOR document.
// It serves values that no derived strategy covers.
func (w *Writer) WriteOpaque(v any) {
	if w.err != nil {
		return
	}
	data, err := MarshalOpaque(v)
	if err != nil {
		w.setError(err)
		return
	}
	w.WriteSized(data)
}
