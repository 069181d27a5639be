package parcel

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Order is the byte order of the wire format.
var Order = binary.BigEndian

// MaxLength bounds every length prefix a Writer will produce or a Reader
// will accept.
var MaxLength = 1 << 24

// PreallocLimit caps the capacity a decoder reserves up front from a length
// prefix. Past it, containers and byte slices grow only as input arrives, so
// a short stream claiming a huge length costs no more than its own size.
const PreallocLimit = 1024

// Ptr returns a pointer to a copy of v. Boxed values in derived types are pointers.
func Ptr[T any](v T) *T { return &v }

func validLength[T constraints.Integer](n T) bool {
	return n >= 0 && uint64(n) <= uint64(MaxLength)
}

// MAX_PADDING defines the maximum number of trailing bytes to check.
// Anything larger is considered a protocol error.
const MAX_PADDING = 1024 // 1KB

// CheckBufferNotZeros verifies that buf holds at most MAX_PADDING zero bytes.
func CheckBufferNotZeros(buf []byte) error {
	if len(buf) > MAX_PADDING {
		return fmt.Errorf("%w: exceeds maximum expected size of %d bytes", ErrTrailingData, MAX_PADDING)
	}
	for i, b := range buf {
		if b != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", ErrTrailingData, b, i)
		}
	}
	return nil
}
