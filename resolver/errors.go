package resolver

import "errors"

var (
	// ErrMissingEnvironment is returned when a referenced
	// environment variable is not set.
	ErrMissingEnvironment = errors.New(
		"environment variable not set",
	)

	// ErrAuthConfig is returned when control-plane
	// credentials cannot be established.
	ErrAuthConfig = errors.New(
		"cluster credentials unavailable",
	)

	// ErrNotFound is returned when a node, service port or
	// pod query yields no result.
	ErrNotFound = errors.New("not found")

	// ErrUnknownMethod is returned by Call for a method name
	// the resolver does not expose.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrArguments is returned by Call when the argument
	// count does not fit the method.
	ErrArguments = errors.New("wrong number of arguments")
)
