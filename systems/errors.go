package systems

import "errors"

// Sentinel errors returned by entity accessors. Systems never panic across
// their public boundary; a missing record is a normal condition.
var (
	// ErrNoThermal means the entity has no thermal record.
	ErrNoThermal = errors.New("entity has no thermal record")
	// ErrNoCombustion means the entity is not burning.
	ErrNoCombustion = errors.New("entity has no combustion record")
	// ErrNotIgnitable means the entity cannot catch fire.
	ErrNotIgnitable = errors.New("entity is not ignitable")
	// ErrAlreadyBurning means Ignite was called on an entity already on fire.
	ErrAlreadyBurning = errors.New("entity is already burning")
)
