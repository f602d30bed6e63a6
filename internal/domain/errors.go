package domain

import "errors"

// Error taxonomy. Sentinel errors are wrapped with context via %w at the
// call site; callers should use errors.Is against these values.
var (
	ErrConfigInvalid         = errors.New("config invalid")
	ErrPersistence           = errors.New("persistence error")
	ErrSessionMissing        = errors.New("session missing")
	ErrDimensionMismatch     = errors.New("dimension mismatch")
	ErrProviderTransient     = errors.New("provider transient error")
	ErrProviderUnimplemented = errors.New("provider unimplemented")
	ErrParse                 = errors.New("parse error")
	ErrCycleDetected         = errors.New("cycle detected")
	ErrMaxCyclesExceeded     = errors.New("max cycles exceeded")
	ErrCancelled             = errors.New("cancelled")
	ErrTimeout               = errors.New("timeout")
	ErrIllegalTransition     = errors.New("illegal status transition")
)
