package area

import (
	"fmt"
)

// Validation constants.
const (
	maxNameLength     = 100
	maxDescriptionLen = 500
	maxReactions      = 50
	maxConditions     = 20
	maxDelaySeconds   = 86400 // 24 hours
	maxConfigKeys     = 30
)

// Validate performs structural validation on an area and its bindings.
// Returns an error describing the first validation failure found.
//
// Identity checks (does the named service/action actually exist?) are the
// registry's job; this only validates shape.
func Validate(a *Area) error {
	if a == nil {
		return ErrInvalid
	}

	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(a.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, maxNameLength)
	}
	if len(a.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalid, maxDescriptionLen)
	}
	if a.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalid)
	}

	// Exactly one trigger binding
	if a.Action == nil {
		return ErrNoAction
	}
	if a.Action.Service == "" || a.Action.Action == "" {
		return fmt.Errorf("%w: action binding requires service and action names", ErrInvalid)
	}
	if len(a.Action.Config) > maxConfigKeys {
		return fmt.Errorf("%w: action config exceeds %d keys", ErrInvalid, maxConfigKeys)
	}

	// One or more reaction bindings
	if len(a.Reactions) == 0 {
		return ErrNoReactions
	}
	if len(a.Reactions) > maxReactions {
		return fmt.Errorf("%w: exceeds maximum of %d reactions", ErrInvalid, maxReactions)
	}

	for i := range a.Reactions {
		if err := validateReaction(&a.Reactions[i], i); err != nil {
			return err
		}
	}

	return nil
}

// validateReaction validates a single reaction binding.
func validateReaction(r *ReactionBinding, index int) error {
	if r.Service == "" || r.Reaction == "" {
		return fmt.Errorf("%w: reaction %d requires service and reaction names", ErrInvalid, index)
	}
	if len(r.Config) > maxConfigKeys {
		return fmt.Errorf("%w: reaction %d config exceeds %d keys", ErrInvalid, index, maxConfigKeys)
	}
	if r.OrderIndex < 0 {
		return fmt.Errorf("%w: reaction %d order_index must not be negative", ErrInvalid, index)
	}
	if r.Delay < 0 || r.Delay > maxDelaySeconds {
		return fmt.Errorf("%w: reaction %d delay must be 0-%d seconds", ErrInvalid, index, maxDelaySeconds)
	}

	if len(r.Conditions) > maxConditions {
		return fmt.Errorf("%w: reaction %d exceeds maximum of %d conditions", ErrInvalid, index, maxConditions)
	}
	for _, c := range r.Conditions {
		if c.Field == "" {
			return fmt.Errorf("%w: reaction %d condition field is required", ErrInvalidCondition, index)
		}
		if !IsValidOperator(c.Operator) {
			return fmt.Errorf("%w: reaction %d has unknown operator %q", ErrInvalidCondition, index, c.Operator)
		}
	}

	return nil
}
