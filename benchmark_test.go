package parcel

import (
	"bytes"
	"encoding/binary"
	"testing"
)

type BenchmarkPayload struct {
	ID      uint32
	Val1    uint64
	Val2    uint64
	Val3    uint64
	IsAlive bool
	Padding [3]byte
}

type BenchmarkCodec = Fixed[BenchmarkPayload]

func BenchmarkFixedMarshalBinary(b *testing.B) {
	c := &BenchmarkCodec{Payload: BenchmarkPayload{ID: 1, Val1: 100}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.MarshalBinary()
	}
}

func BenchmarkFixedMarshalTo(b *testing.B) {
	c := &BenchmarkCodec{Payload: BenchmarkPayload{ID: 1, Val1: 100}}
	buf := make([]byte, c.Size())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.MarshalTo(buf)
	}
}

// Baseline using binary.Write directly, to see the overhead of the wrapper.
func BenchmarkStandardBinaryWrite(b *testing.B) {
	payload := BenchmarkPayload{ID: 1, Val1: 100}
	w := NewBytesWriter(make([]byte, binary.Size(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Reset()
		_ = binary.Write(w, Order, &payload)
	}
}

func BenchmarkWriteUTF8(b *testing.B) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		w.WriteUTF8("a moderately sized string value")
	}
}

func BenchmarkReadLengthPrefixed(b *testing.B) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	for i := 0; i < 64; i++ {
		w.WritePresence(true)
		w.WriteUTF8("item")
	}
	data := buf.Bytes()
	src := NewBytesReader(data)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		src.Reset(data)
		r, _ := NewReader(src)
		var s string
		for r.ReadPresence() {
			r.ReadUTF8(&s)
		}
	}
}
