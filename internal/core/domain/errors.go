package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoMaterial indicates the supplied document texts were empty or
	// whitespace only. No generation-service call is attempted.
	ErrNoMaterial = errors.New("no usable study material")

	// ErrNoteTooShort indicates the synthesis output fell below the
	// minimum plausible length, signalling the model produced no usable
	// content. Fatal for the request.
	ErrNoteTooShort = errors.New("generated note too short")

	// ErrLLMUnavailable indicates the generation service is not configured
	// or could not be constructed.
	ErrLLMUnavailable = errors.New("generation service unavailable")

	// ErrRateLimited indicates the generation-service rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Authentication Errors.

	// ErrAuthRequired indicates the operation needs a logged-in user.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrAuthExpired indicates the session token has expired.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrUserDisabled indicates the account exists but is deactivated.
	ErrUserDisabled = errors.New("user disabled")
)
