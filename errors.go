package parcel

import "errors"

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with an nil interface
	ErrNilIO = errors.New("parcel: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrSizeTooSmall indicates a size conflict with bufio
	ErrSizeTooSmall = errors.New("parcel: NewReaderSize with a size smaller than 16 conflict with bufio")

	// ErrAlreadyBuffered indicates that NewReader/NewWriter was called with an already-buffered
	// reader/writer, which would lead to unpredictable behavior.
	ErrAlreadyBuffered = errors.New("parcel: reader or writer is already buffered")

	// ErrWriteToNil indicates a WriteTo operation was attempted on a nil io.Writer.
	ErrWriteToNil = errors.New("parcel: WriteTo called with a nil io.Writer")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("parcel: writer returned invalid count from Write")

	// ErrInvalidRead indicates that an io.Reader returned an invalid count from Read.
	ErrInvalidRead = errors.New("parcel: reader returned invalid count from Read")

	// ErrTrailingData is returned when non-zero bytes are found after the expected
	// end of a decoded value.
	ErrTrailingData = errors.New("parcel: non-zero trailing data found after decoding")

	// ErrTruncatedData indicates that the source ended before all expected bytes were read.
	ErrTruncatedData = errors.New("parcel: truncated data")

	// ErrInvalidLength is latched when a length prefix is negative or exceeds MaxLength.
	ErrInvalidLength = errors.New("parcel: invalid length prefix")

	// ErrInvalidPresence is latched when a presence flag is neither 0 nor 1.
	ErrInvalidPresence = errors.New("parcel: invalid presence flag")

	// ErrInvalidTime is latched when an encoded time carries an out of range nanosecond field.
	ErrInvalidTime = errors.New("parcel: invalid time")

	// ErrNoLoader indicates an opaque value was decoded without a Loader.
	ErrNoLoader = errors.New("parcel: opaque value requires a loader")

	// ErrAdapterType indicates an Adapter was handed a value of the wrong type.
	ErrAdapterType = errors.New("parcel: adapter received unexpected type")

	// ErrNoAdapter indicates an adapter name has no runtime registration.
	ErrNoAdapter = errors.New("parcel: adapter not registered")

	// ErrAdapterExists indicates an adapter name was registered twice.
	ErrAdapterExists = errors.New("parcel: adapter already registered")
)
