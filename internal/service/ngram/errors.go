package ngram

import "errors"

// Common errors.
var (
	// ErrInvalidArgument is returned when a bound, entry length, skip,
	// count or order/skip selection violates a collection's contract.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTypeMismatch is returned when Combine receives an operand that is
	// nil or not of the receiver's concrete kind.
	ErrTypeMismatch = errors.New("type mismatch")
)
