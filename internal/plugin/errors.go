package plugin

import "errors"

// Domain errors for the plugin package.
//
// Resolution errors are configuration errors in the trigger taxonomy:
// fatal to the single binding that references the unknown identity,
// never retried.
var (
	// ErrServiceExists is returned when registering a duplicate service name.
	ErrServiceExists = errors.New("plugin: service already registered")

	// ErrDuplicateAction is returned when a service declares two actions
	// with the same name.
	ErrDuplicateAction = errors.New("plugin: duplicate action name")

	// ErrDuplicateReaction is returned when a service declares two
	// reactions with the same name.
	ErrDuplicateReaction = errors.New("plugin: duplicate reaction name")

	// ErrServiceNotFound is returned when a service name is not registered.
	ErrServiceNotFound = errors.New("plugin: service not found")

	// ErrActionNotFound is returned when an action identity is not registered.
	ErrActionNotFound = errors.New("plugin: action not found")

	// ErrReactionNotFound is returned when a reaction identity is not registered.
	ErrReactionNotFound = errors.New("plugin: reaction not found")

	// ErrMissingConfig is returned when a required config field is absent.
	ErrMissingConfig = errors.New("plugin: missing config field")

	// ErrBadConfig is returned when a config value has the wrong type.
	ErrBadConfig = errors.New("plugin: bad config value")

	// ErrStateVersion is returned when a stored state envelope has an
	// unsupported version.
	ErrStateVersion = errors.New("plugin: unsupported state version")

	// ErrNoToken is returned when an OAuth-backed service has no stored
	// token for the user.
	ErrNoToken = errors.New("plugin: no service token for user")
)
