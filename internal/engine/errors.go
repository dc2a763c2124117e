package engine

import "errors"

// Domain errors surfaced by the solver's diagnostic callback.
var (
	// ErrNotPositiveDefinite indicates an LDLT pivot was not positive, which
	// means the per-body system lost its SPD guarantee.
	ErrNotPositiveDefinite = errors.New("engine: primal system not positive definite")

	// ErrNaNGradient indicates an energy gradient produced NaN.
	ErrNaNGradient = errors.New("engine: energy gradient is NaN")

	// ErrInvalidBodies indicates a constraint was constructed with an
	// unusable body set.
	ErrInvalidBodies = errors.New("engine: invalid body count for constraint")
)
