package wire

import "errors"

var (
	// ErrBinaryUnsupported is returned when a variant carries the binary marker.
	// Hosts speaking this protocol never send binary properties, so one showing
	// up means the two sides disagree on the protocol version.
	ErrBinaryUnsupported = errors.New("binary variant not supported")
)
