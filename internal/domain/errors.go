package domain

import "errors"

var (
	// ErrResolutionFailed signals that every cascade step was exhausted and the
	// address requires manual review.
	ErrResolutionFailed = errors.New("address resolution failed: manual review required")

	// ErrStorageUnavailable signals that the durable tier could not be reached.
	// Writes that hit this error must not be reported as successful.
	ErrStorageUnavailable = errors.New("durable storage unavailable")

	// ErrPermissionDenied signals that the caller lacks tour or company ownership.
	ErrPermissionDenied = errors.New("permission denied")
)
