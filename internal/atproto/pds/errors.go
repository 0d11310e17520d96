package pds

import "errors"

// Typed errors for PDS operations.
// Callers match these with errors.Is instead of inspecting status codes.
var (
	// ErrBadRequest indicates the request was malformed or failed lexicon validation (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates invalid or expired credentials (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions for the collection (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the record or repo does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a swap/commit conflict on the repo (HTTP 409).
	ErrConflict = errors.New("conflict")

	// ErrPayloadTooLarge indicates the record exceeded the PDS size limit (HTTP 413).
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrRateLimited indicates the PDS throttled the account (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
)

// IsAuthError returns true if the error is an authentication/authorization error.
// Re-authenticating is the only thing that can fix these.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
