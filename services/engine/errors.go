package engine

import "errors"

// Error taxonomy. InsufficientData and Schema errors abort a single run;
// InvalidConfig is rejected before any computation. A ruin condition is not
// an error: the run completes with Result.Ruined set and entries truncated.
var (
	ErrInsufficientData = errors.New("insufficient data for indicator warm-up")
	ErrSchema           = errors.New("bar table schema invalid")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
