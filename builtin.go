package parcel

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Names under which the built-in adapters are bound by default.
const (
	TimeAdapterName   = "parcel.TimeAdapter"
	BigIntAdapterName = "parcel.BigIntAdapter"
)

var (
	// TimeAdapter encodes a time.Time as int64 Unix seconds followed by
	// int32 nanoseconds, which covers every representable instant including
	// the zero Time. It decodes in UTC.
	TimeAdapter Adapter = timeAdapter{}

	// BigIntAdapter encodes a *big.Int as a sign byte followed by its
	// length prefixed big-endian magnitude.
	BigIntAdapter Adapter = bigIntAdapter{}
)

type timeAdapter struct{}

func (timeAdapter) Encode(w *Writer, v any, _ int) {
	t, ok := v.(time.Time)
	if !ok {
		w.Fail(fmt.Errorf("%w: %T, want time.Time", ErrAdapterType, v))
		return
	}
	w.WriteInt64(t.Unix())
	w.WriteInt32(int32(t.Nanosecond()))
}

func (timeAdapter) Decode(r *Reader, _ Loader) any {
	var (
		sec  int64
		nsec int32
	)
	r.ReadInt64(&sec)
	r.ReadInt32(&nsec)
	if r.Err() != nil {
		return time.Time{}
	}
	if nsec < 0 || nsec >= 1e9 {
		r.Fail(fmt.Errorf("%w: %d nanoseconds", ErrInvalidTime, nsec))
		return time.Time{}
	}
	return time.Unix(sec, int64(nsec)).UTC()
}

type bigIntAdapter struct{}

func (bigIntAdapter) Encode(w *Writer, v any, _ int) {
	n, ok := v.(*big.Int)
	if !ok || n == nil {
		w.Fail(fmt.Errorf("%w: %T, want *big.Int", ErrAdapterType, v))
		return
	}
	w.WriteInt8(int8(n.Sign()))
	w.WriteSized(n.Bytes())
}

func (bigIntAdapter) Decode(r *Reader, _ Loader) any {
	var sign int8
	r.ReadInt8(&sign)
	mag := r.ReadSized()
	n := new(big.Int).SetBytes(mag)
	if sign < 0 {
		n.Neg(n)
	}
	return n
}

// AdapterSet maps adapter names, as they appear in derived bindings, to
// their runtime implementations. It is safe for concurrent use.
type AdapterSet struct {
	m *xsync.Map[string, Adapter]
}

// NewAdapterSet returns a set holding the built-in adapters.
func NewAdapterSet() *AdapterSet {
	s := &AdapterSet{m: xsync.NewMap[string, Adapter]()}
	s.m.Store(TimeAdapterName, TimeAdapter)
	s.m.Store(BigIntAdapterName, BigIntAdapter)
	return s
}

// Register binds name to a. Registering a name twice is an error, except
// that a built-in may be replaced once.
func (s *AdapterSet) Register(name string, a Adapter) error {
	old, loaded := s.m.LoadOrStore(name, a)
	if !loaded {
		return nil
	}
	if !isBuiltin(name, old) {
		return fmt.Errorf("%w: %s", ErrAdapterExists, name)
	}
	s.m.Store(name, a)
	return nil
}

// Lookup returns the adapter registered under name.
func (s *AdapterSet) Lookup(name string) (Adapter, error) {
	a, ok := s.m.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, name)
	}
	return a, nil
}

// Names lists the registered adapter names in sorted order.
func (s *AdapterSet) Names() []string {
	names := make([]string, 0, s.m.Size())
	s.m.Range(func(name string, _ Adapter) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

func isBuiltin(name string, a Adapter) bool {
	switch name {
	case TimeAdapterName:
		return a == TimeAdapter
	case BigIntAdapterName:
		return a == BigIntAdapter
	}
	return false
}
