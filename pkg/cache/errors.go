package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNoValue is returned by a fallback or producer to report that there is
	// nothing to cache. Get then reports the key as absent without an error.
	ErrNoValue = errors.New("cache: no value")

	// ErrEmptyKey is returned when an operation is called with an empty key.
	ErrEmptyKey = errors.New("cache: empty key")

	// ErrInvalidTTL is returned when a per-call TTL is zero or negative.
	ErrInvalidTTL = errors.New("cache: ttl must be positive")

	// ErrInvalidConfig is returned by New when options are out of range.
	ErrInvalidConfig = errors.New("cache: invalid configuration")

	// ErrAlreadyStarted is returned by Start on a running manager.
	ErrAlreadyStarted = errors.New("cache: already started")

	// ErrNotStarted is returned by Stop on a manager that is not running.
	ErrNotStarted = errors.New("cache: not started")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("cache: failed to marshal value")

	// ErrUnmarshal is returned when value deserialization fails.
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")

	// ErrWarm is returned by Warm when one or more producers fail.
	ErrWarm = errors.New("cache: warming failed")
)
