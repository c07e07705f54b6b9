package descreen

import "errors"

var (
	// ErrInvalidConfig reports a broken caller precondition: non-positive DPI,
	// a pixel buffer shorter than width*height*3, or a negative window origin.
	ErrInvalidConfig = errors.New("descreen: invalid configuration")

	// ErrAllocation means the padded sample for the requested window could
	// not be obtained.
	ErrAllocation = errors.New("descreen: sample allocation failed")

	// ErrTransform wraps any failure of the spectral transform.
	ErrTransform = errors.New("descreen: spectral transform failed")
)
