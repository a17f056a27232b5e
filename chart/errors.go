package chart

import "errors"

var (
	// ErrInvalidRange reports a configured range with no width: the
	// normalizer divides by max-min, so max must exceed min.
	ErrInvalidRange = errors.New("chart: max value must be greater than min value")
	// ErrInvalidSample reports append input that does not resolve into at
	// least one finite reading.
	ErrInvalidSample = errors.New("chart: invalid sample input")
	// ErrClosed reports use of an engine after Close.
	ErrClosed = errors.New("chart: engine is closed")
)
