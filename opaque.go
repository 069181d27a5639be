package parcel

import (
	"github.com/fxamacker/cbor/v2"
)

// opaqueEnc uses Core Deterministic Encoding so that the same value always
// produces the same payload bytes.
var opaqueEnc cbor.EncMode

var opaqueDec cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	opaqueEnc, err = encOptions.EncMode()
	if err != nil {
		panic("parcel: CBOR encoder initialization failed: " + err.Error())
	}

	opaqueDec, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("parcel: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalOpaque encodes v the way Writer.WriteOpaque does, without the length prefix.
func MarshalOpaque(v any) ([]byte, error) {
	return opaqueEnc.Marshal(v)
}

// UnmarshalOpaque decodes a payload produced by MarshalOpaque into v.
func UnmarshalOpaque(data []byte, v any) error {
	return opaqueDec.Unmarshal(data, v)
}
