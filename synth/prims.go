package synth

import (
	"fmt"

	"github.com/oy3o/parcel"
)

func putPrim(w *parcel.Writer, prim string, v any) error {
	ok := true
	switch prim {
	case "bool":
		var x bool
		if x, ok = v.(bool); ok {
			w.WriteBool(x)
		}
	case "byte", "uint8":
		var x uint8
		if x, ok = v.(uint8); ok {
			w.WriteUint8(x)
		}
	case "int8":
		var x int8
		if x, ok = v.(int8); ok {
			w.WriteInt8(x)
		}
	case "int16":
		var x int16
		if x, ok = v.(int16); ok {
			w.WriteInt16(x)
		}
	case "uint16":
		var x uint16
		if x, ok = v.(uint16); ok {
			w.WriteUint16(x)
		}
	case "int32":
		var x int32
		if x, ok = v.(int32); ok {
			w.WriteInt32(x)
		}
	case "uint32":
		var x uint32
		if x, ok = v.(uint32); ok {
			w.WriteUint32(x)
		}
	case "int64":
		var x int64
		if x, ok = v.(int64); ok {
			w.WriteInt64(x)
		}
	case "uint64":
		var x uint64
		if x, ok = v.(uint64); ok {
			w.WriteUint64(x)
		}
	case "float32":
		var x float32
		if x, ok = v.(float32); ok {
			w.WriteFloat32(x)
		}
	case "float64":
		var x float64
		if x, ok = v.(float64); ok {
			w.WriteFloat64(x)
		}
	default:
		return fmt.Errorf("%w: unknown primitive %s", ErrValue, prim)
	}
	if !ok {
		return fmt.Errorf("%w: want %s, got %T", ErrValue, prim, v)
	}
	return nil
}

func getPrim(r *parcel.Reader, prim string) any {
	switch prim {
	case "bool":
		var x bool
		r.ReadBool(&x)
		return x
	case "byte", "uint8":
		var x uint8
		r.ReadUint8(&x)
		return x
	case "int8":
		var x int8
		r.ReadInt8(&x)
		return x
	case "int16":
		var x int16
		r.ReadInt16(&x)
		return x
	case "uint16":
		var x uint16
		r.ReadUint16(&x)
		return x
	case "int32":
		var x int32
		r.ReadInt32(&x)
		return x
	case "uint32":
		var x uint32
		r.ReadUint32(&x)
		return x
	case "int64":
		var x int64
		r.ReadInt64(&x)
		return x
	case "uint64":
		var x uint64
		r.ReadUint64(&x)
		return x
	case "float32":
		var x float32
		r.ReadFloat32(&x)
		return x
	case "float64":
		var x float64
		r.ReadFloat64(&x)
		return x
	}
	return nil
}

var zeros = map[string]any{
	"bool": false, "byte": uint8(0), "uint8": uint8(0),
	"int8": int8(0), "int16": int16(0), "uint16": uint16(0),
	"int32": int32(0), "uint32": uint32(0), "int64": int64(0), "uint64": uint64(0),
	"float32": float32(0), "float64": float64(0),
}

func getZero(prim string) any { return zeros[prim] }
