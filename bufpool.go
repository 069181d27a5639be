package parcel

import (
	"bytes"
	"sync"
)

// bytesBufPool reuses buffers for streaming decodes and size probes.
var bytesBufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

func getBuffer() *bytes.Buffer {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	// Oversized buffers are dropped so one large message does not pin memory.
	if buf.Cap() > 1<<20 {
		return
	}
	bytesBufPool.Put(buf)
}
