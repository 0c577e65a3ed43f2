// Package texerr holds the sentinel errors shared by the texture pipeline.
//
// Call sites wrap these with fmt.Errorf("%w: ...") so callers can match
// them with errors.Is regardless of which stage failed.
package texerr

import "errors"

var (
	// ErrInvalidArgument indicates a non-positive length or rate, or
	// malformed frequency limits.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrShapeMismatch indicates that a signal or subband set does not
	// match the filterbank it is paired with.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNumericalInstability indicates a NaN or Inf in a texture statistic.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrDivisionByZeroEnvelope indicates an exactly-zero subband envelope
	// during resynthesis when strict envelope handling is requested.
	ErrDivisionByZeroEnvelope = errors.New("division by zero envelope")
)
