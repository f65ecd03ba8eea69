package distance

import "errors"

// ErrBadInput covers dimension mismatches, a zero dimension, and an
// unrecognized quantization kind.
var ErrBadInput = errors.New("distance: bad input")

// ErrKindMismatch is returned when a kernel is asked to compare two
// vectors quantized in different formats.
var ErrKindMismatch = errors.New("distance: quantization kind mismatch")
