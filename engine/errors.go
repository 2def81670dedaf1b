package engine

import "errors"

// Sentinel errors surfaced by bus and device construction. Callers
// match them with errors.Is since every construction path wraps them
// with positional context.
var (
	errZeroLengthDevice = errors.New("zero-length device")
	errOverlappingRange = errors.New("overlapping address range")
	errPortOutOfRange   = errors.New("port out of range")
	errPortInUse        = errors.New("port already in use")
)
