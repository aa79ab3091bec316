package valuetree

import "errors"

var (
	// ErrCorrupt indicates a change record that cannot be decoded: an unknown
	// change kind, an implausible count or a truncated payload.
	ErrCorrupt = errors.New("change data is corrupt")

	// ErrOutOfSync indicates a well-formed change that does not fit the
	// replica, such as a path or child index that does not exist. Only a full
	// sync recovers from it.
	ErrOutOfSync = errors.New("replica is out of sync with the host")

	// ErrIndexOutOfRange indicates a child index outside the children of a tree.
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrInvalidTree indicates an operation given the invalid sentinel tree.
	ErrInvalidTree = errors.New("invalid tree")
)
