package health

import "errors"

var (
	// ErrCheckFailed is returned by Response.Err when one or more checks fail.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout wraps failures caused by the shared timeout expiring.
	ErrCheckTimeout = errors.New("health: check timeout")
)
