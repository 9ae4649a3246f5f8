package bullet

import "errors"

var (
	// Construction and API boundary errors.
	ErrNaNTransform = errors.New("transform is not finite")
	ErrInvalidMass  = errors.New("invalid mass")
	ErrInvalidShape = errors.New("invalid collision shape")

	// World membership errors.
	ErrBodyInWorld       = errors.New("object already added to a world")
	ErrBodyNotInWorld    = errors.New("object is not in this world")
	ErrConstraintBodies  = errors.New("constraint bodies are not in this world")
	ErrConstraintInWorld = errors.New("constraint already added to a world")
	ErrWorldLocked       = errors.New("world is stepping")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrSolverDiverged reports an island solve that produced non-finite impulses.
	ErrSolverDiverged = errors.New("constraint solver diverged")

	// ErrLogic reports broken internal invariants.
	ErrLogic = errors.New("physics logic error")
)
