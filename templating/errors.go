package templating

import "errors"

var (
	// ErrSyntax is returned for a placeholder that is not a
	// single binding.method("arg", ...) call.
	ErrSyntax = errors.New("invalid placeholder expression")

	// ErrUnknownBinding is returned when an expression names
	// a binding the engine does not have.
	ErrUnknownBinding = errors.New("unknown binding")

	// ErrInvalidDocument is returned when rendered output does
	// not parse as its file format.
	ErrInvalidDocument = errors.New("rendered document is invalid")
)
