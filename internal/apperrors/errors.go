// Package apperrors defines the error taxonomy shared across the application.
// Core packages return these sentinels (usually wrapped); only the API layer
// translates them into HTTP status codes.
package apperrors

import "errors"

var (
	// ErrInvalidInput covers missing or malformed fields and out-of-range values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned for every token validation failure. The
	// internal cause (malformed, expired, wrong kind, stale) is deliberately
	// not distinguishable to the caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an authenticated but not permitted action.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks an absent user or record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a business-rule collision, e.g. a duplicate email.
	ErrConflict = errors.New("conflict")
)
