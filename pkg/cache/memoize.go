package cache

import "context"

// Memoize wraps fn so that its results are cached under keyFn(arg).
// A call that hits the cache does not invoke fn. When fn returns ErrNoValue
// the wrapped function returns the zero value and a nil error.
//
// Example:
//
//	loadUser := cache.Memoize(m,
//	    func(id int64) string { return fmt.Sprintf("user:%d", id) },
//	    repo.FindUser,
//	    cache.WithTTL(time.Minute), cache.WithTags("users"),
//	)
//	u, err := loadUser(ctx, 42)
func Memoize[A, V any](m *Manager, keyFn func(A) string, fn func(context.Context, A) (V, error), opts ...EntryOption) func(context.Context, A) (V, error) {
	return func(ctx context.Context, arg A) (V, error) {
		v, _, err := Get(ctx, m, keyFn(arg), func(ctx context.Context) (V, error) {
			return fn(ctx, arg)
		}, opts...)
		return v, err
	}
}
