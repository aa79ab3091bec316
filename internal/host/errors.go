package host

import "errors"

var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrMissingValue     = errors.New("parameter change without a value")
	ErrNoPolygon        = errors.New("tree has no polygon")
	ErrShapeMismatch    = errors.New("shape does not match the polygon's vertex count")
)
