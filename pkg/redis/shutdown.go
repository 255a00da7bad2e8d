package redis

import (
	"context"
	"io"
)

// Shutdown returns a function that closes the Redis client.
// The root package registers it after the cache manager has stopped,
// so no mirror call races the close.
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
