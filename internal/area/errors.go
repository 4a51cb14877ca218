package area

import "errors"

// Domain errors for the area package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, area.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when an area ID does not exist.
	ErrNotFound = errors.New("area: not found")

	// ErrExists is returned when creating an area with an ID that already exists.
	ErrExists = errors.New("area: already exists")

	// ErrInvalid is returned when area validation fails.
	ErrInvalid = errors.New("area: invalid")

	// ErrNoAction is returned when an area has no trigger binding.
	ErrNoAction = errors.New("area: no action binding")

	// ErrNoReactions is returned when an area has no reaction bindings.
	ErrNoReactions = errors.New("area: no reaction bindings")

	// ErrInvalidCondition is returned when a reaction condition is malformed.
	ErrInvalidCondition = errors.New("area: invalid condition")

	// ErrBindingNotFound is returned when an action binding ID does not exist.
	ErrBindingNotFound = errors.New("area: binding not found")

	// ErrNotOwner is returned when a user operates on an area they do not own.
	ErrNotOwner = errors.New("area: not owner")
)
