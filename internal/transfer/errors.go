package transfer

import "errors"

var (
	// ErrBadHeader is returned when an upload header does not parse.
	ErrBadHeader = errors.New("bad transfer header")

	// ErrTooLarge is returned when a transfer exceeds the free-space limit.
	ErrTooLarge = errors.New("transfer exceeds free space")

	// ErrTimeout is returned after 5 s without inbound bytes.
	ErrTimeout = errors.New("transfer timed out")

	// ErrShort is returned when the stream ended before the declared size
	// arrived. The partial file is kept.
	ErrShort = errors.New("transfer ended short")
)
