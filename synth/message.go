package synth

import (
	"io"

	"github.com/oy3o/parcel"
)

// Message binds a dynamic value to a schema of a Program so it can be
// used wherever a parcel.Codec is expected.
type Message struct {
	Program *Program
	Schema  string
	Value   any
	Flags   int
	// Loader is handed to decoders that require context.
	Loader parcel.Loader
}

var _ parcel.Codec = (*Message)(nil)

// Size returns the encoded size of the value, or -1 if it cannot be encoded.
func (m *Message) Size() int { return parcel.SizeGeneric(m) }

func (m *Message) MarshalBinary() ([]byte, error) { return parcel.MarshalBinaryGeneric(m) }

func (m *Message) MarshalTo(p []byte) (int, error) { return parcel.MarshalToGeneric(m, p) }

func (m *Message) UnmarshalBinary(data []byte) error { return parcel.UnmarshalBinaryGeneric(m, data) }

// WriteTo encodes the value to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	pw, err := parcel.NewWriter(w)
	if err != nil {
		return 0, err
	}
	if err := m.Program.Encode(m.Schema, m.Value, pw, m.Flags); err != nil {
		return pw.Count(), err
	}
	return pw.Result()
}

// ReadFrom decodes a value from r and stores it in Value.
func (m *Message) ReadFrom(r io.Reader) (int64, error) {
	pr, err := parcel.NewReader(r)
	if err != nil {
		return 0, err
	}
	v, err := m.Program.Decode(m.Schema, pr, m.Loader)
	if err != nil {
		return pr.Count(), err
	}
	m.Value = v
	return pr.Count(), nil
}
