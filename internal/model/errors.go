package model

import "errors"

var (
	// ErrNotInitialized is returned when a store operation runs before the
	// one-time schema initialization has completed.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrNotFound is returned when no metadata record exists for an id.
	ErrNotFound = errors.New("not found")

	// ErrPayloadMissing is returned when a metadata record references a
	// binary payload that is absent from the blob store.
	ErrPayloadMissing = errors.New("payload missing")

	// ErrValidation is returned when caller-supplied metadata is outside its
	// declared range. Rejected at the boundary, never silently clamped.
	ErrValidation = errors.New("validation error")
)
