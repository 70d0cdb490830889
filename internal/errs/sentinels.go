// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Store-level sentinels.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (zone name, username).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrPermissionDenied indicates the caller may not act on the zone or grant.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotGrant indicates an id resolved to a record that is not a share grant.
	ErrNotGrant = errors.New("record is not a share")

	// ErrForeignToken indicates a change token was minted for a different zone.
	ErrForeignToken = errors.New("change token belongs to another zone")

	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation")
)

// Sync core sentinels.
var (
	// ErrZoneNotFound means the home zone has not been resolved yet.
	ErrZoneNotFound = errors.New("user zone not found")

	// ErrInvalidRemoteShare means a zone's share reference did not resolve to a grant.
	ErrInvalidRemoteShare = errors.New("invalid remote share")

	// ErrRemoteStore wraps store failures that have no more specific sentinel.
	ErrRemoteStore = errors.New("remote store failure")

	// ErrContainerMismatch means an incoming descriptor names another container.
	ErrContainerMismatch = errors.New("container mismatch")

	// ErrEmptyMessage rejects posts without text.
	ErrEmptyMessage = errors.New("empty message")
)
