// Package gentest holds the codecs parcelgen generates for schema.yaml,
// together with the model types and adapters they refer to.
package gentest

//go:generate go run ../../../cmd/parcelgen generate -s schema.yaml -o codec_gen.go

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oy3o/parcel"
)

type Pair struct {
	A int32
	B []string
}

type Stamp struct {
	At  time.Time
	Tip *int64
}

type Odd struct {
	Tip int64
}

// Cents writes an amount in cents, and an absent one as -1.
var Cents parcel.Adapter = cents{}

type cents struct{}

func (cents) Encode(w *parcel.Writer, v any, _ int) {
	switch v := v.(type) {
	case nil:
		w.WriteInt64(-1)
	case int64:
		w.WriteInt64(v)
	default:
		w.Fail(fmt.Errorf("%w: %T, want int64", parcel.ErrAdapterType, v))
	}
}

func (cents) Decode(r *parcel.Reader, _ parcel.Loader) any {
	var c int64
	r.ReadInt64(&c)
	if c < 0 {
		return nil
	}
	return c
}

// Tally reads amounts back as decimal text.
var Tally parcel.Adapter = tally{}

type tally struct{}

func (tally) Encode(w *parcel.Writer, v any, flags int) { Cents.Encode(w, v, flags) }

func (tally) Decode(r *parcel.Reader, _ parcel.Loader) any {
	var c int64
	r.ReadInt64(&c)
	return strconv.FormatInt(c, 10)
}
