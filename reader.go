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

type reader interface {
	io.Reader
	io.WriterTo
	io.Closer
}

type bufferedReader interface {
	reader
	io.ByteReader
	Size() int
}

// Reader is the source derived decoders read from. It wraps a buffered
// reader and tracks the first error. Subsequent reads become no-ops and
// leave their destinations untouched.
type Reader struct {
	r     bufferedReader
	count int64 // total bytes read
	err   error // first error encountered.
	order binary.ByteOrder
}

var _ bufferedReader = (*Reader)(nil)

// NewReaderSize creates a new Reader with a specified buffer size.
func NewReaderSize(r io.Reader, size int) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}

	switch reader := r.(type) {
	// Reuse the underlying buffer if it's already a compatible Reader.
	case *Reader:
		if reader.r.Size() >= size {
			return &Reader{r: reader.r, order: reader.order}, nil
		}

	case *bufio.Reader:
		if reader.Size() >= size {
			return &Reader{r: &bufioReaderAdapter{reader}, order: Order}, nil
		}
		return nil, ErrAlreadyBuffered

	// underlying is a buf so we don't need buffering
	case *BytesReader:
		return &Reader{r: reader, order: Order}, nil
	case *bytes.Reader:
		return &Reader{r: &bytesReaderAdapter{reader}, order: Order}, nil
	case *bytes.Buffer:
		return &Reader{r: &bytesBufferReaderAdapter{reader}, order: Order}, nil
	}

	if size < 16 {
		size = 4096
	}
	return &Reader{r: &bufioReaderAdapter{bufio.NewReaderSize(r, size)}, order: Order}, nil
}

// NewReader creates a new Reader with a default buffer size.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, 0)
}

// Close closes the underlying reader if it implements io.Closer.
func (r *Reader) Close() error {
	return r.r.Close()
}

// Read implements the io.Reader interface.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	r.setError(err)
	return n, r.err
}

// WriteTo implements io.WriterTo for efficient copying.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if w == nil {
		r.setError(ErrWriteToNil)
		return 0, r.err
	}

	n, err := r.r.WriteTo(w)
	r.count += n
	r.setError(err)
	return n, r.err
}

func (r *Reader) Size() int    { return r.r.Size() }
func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }
func (r *Reader) IsEOF() bool  { return r.err == io.EOF }

// Fail latches err as if it had been returned by the underlying reader.
// Adapters use it to report domain errors.
func (r *Reader) Fail(err error) { r.setError(err) }

// setError records the first non-nil error.
func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Result returns the total bytes read and the final error state.
func (r *Reader) Result() (int64, error) {
	return r.count, r.err
}

// readFull reads exactly n bytes.
func (r *Reader) readFull(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > PreallocLimit {
		var b bytes.Buffer
		b.Grow(PreallocLimit)
		if _, err := io.CopyN(&b, r, int64(n)); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			r.err = err
			return nil
		}
		return b.Bytes()
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			// a partial value is different from a clean end-of-stream.
			r.err = io.ErrUnexpectedEOF
		} else {
			r.err = err
		}
		return nil
	}
	return buf
}

// ReadBytes reads n bytes and returns a new byte slice.
func (r *Reader) ReadBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	return r.readFull(n)
}

// --- Primitive Read Operations ---

func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	b, err := r.r.ReadByte()
	if err == nil {
		r.count++
	} else {
		r.err = err
	}
	return b, err
}

func (r *Reader) ReadBool(dest *bool) {
	if b, err := r.ReadByte(); err == nil {
		*dest = b != 0
	}
}

func (r *Reader) ReadUint8(dest *uint8) {
	if b, err := r.ReadByte(); err == nil {
		*dest = b
	}
}

func (r *Reader) ReadInt8(dest *int8) {
	if b, err := r.ReadByte(); err == nil {
		*dest = int8(b)
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	buf := r.readFull(2)
	if r.err == nil {
		*dest = r.order.Uint16(buf)
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = r.order.Uint32(buf)
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	buf := r.readFull(8)
	if r.err == nil {
		*dest = r.order.Uint64(buf)
	}
}

func (r *Reader) ReadInt16(dest *int16) {
	buf := r.readFull(2)
	if r.err == nil {
		*dest = int16(r.order.Uint16(buf))
	}
}

func (r *Reader) ReadInt32(dest *int32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = int32(r.order.Uint32(buf))
	}
}

func (r *Reader) ReadInt64(dest *int64) {
	buf := r.readFull(8)
	if r.err == nil {
		*dest = int64(r.order.Uint64(buf))
	}
}

func (r *Reader) ReadFloat32(dest *float32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = math.Float32frombits(r.order.Uint32(buf))
	}
}

func (r *Reader) ReadFloat64(dest *float64) {
	buf := r.readFull(8)
	if r.err == nil {
		*dest = math.Float64frombits(r.order.Uint64(buf))
	}
}

// --- Structural Read Operations ---

// ReadPresence reads the flag that precedes a nullable value. It reports
// false once the reader has failed, so guarded branches are skipped.
func (r *Reader) ReadPresence() bool {
	b, err := r.ReadByte()
	if err != nil {
		return false
	}
	switch b {
	case 0:
		return false
	case 1:
		return true
	}
	r.setError(fmt.Errorf("%w: 0x%02x", ErrInvalidPresence, b))
	return false
}

// ReadLength reads a length prefix. It returns 0 once the reader has
// failed, so loops driven by the result terminate immediately.
func (r *Reader) ReadLength() int {
	var n int32
	r.ReadInt32(&n)
	if r.err != nil {
		return 0
	}
	if !validLength(n) {
		r.setError(fmt.Errorf("%w: %d", ErrInvalidLength, n))
		return 0
	}
	return int(n)
}

// ReadSized reads a length prefixed byte slice.
func (r *Reader) ReadSized() []byte {
	n := r.ReadLength()
	if r.err != nil {
		return nil
	}
	if n == 0 {
		return []byte{}
	}
	return r.readFull(n)
}

// ReadUTF8 reads a length prefixed UTF-8 string.
func (r *Reader) ReadUTF8(dest *string) {
	b := r.ReadSized()
	if r.err == nil {
		*dest = string(b)
	}
}

// ReadText reads a length prefixed string and hands it to dest.UnmarshalText.
func (r *Reader) ReadText(dest encoding.TextUnmarshaler) {
	b := r.ReadSized()
	if r.err != nil {
		return
	}
	r.setError(dest.UnmarshalText(b))
}

// ReadOpaque reads a CBOR document written by Writer.WriteOpaque into the
// instance loader returns for typeName, and returns that instance.
func (r *Reader) ReadOpaque(loader Loader, typeName string) any {
	if r.err != nil {
		return nil
	}
	if loader == nil {
		r.setError(fmt.Errorf("%w: %s", ErrNoLoader, typeName))
		return nil
	}
	data := r.ReadSized()
	if r.err != nil {
		return nil
	}
	target, err := loader.Load(typeName)
	if err != nil {
		r.setError(err)
		return nil
	}
	if err := UnmarshalOpaque(data, target); err != nil {
		r.setError(err)
		return nil
	}
	return target
}
