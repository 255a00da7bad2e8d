package cache_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

func TestCollector(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	set(t, m, "a", "v")
	_, _ = get(t, m, "a")
	_, _ = get(t, m, "b")
	_, _ = get(t, m, "c")

	c := cache.NewCollector(m, "app")
	require.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP app_cache_hits_total Gets served from the memory tier or the mirror.
# TYPE app_cache_hits_total counter
app_cache_hits_total 1
# HELP app_cache_keys Entries currently in the memory tier.
# TYPE app_cache_keys gauge
app_cache_keys 1
# HELP app_cache_misses_total Gets that missed both tiers.
# TYPE app_cache_misses_total counter
app_cache_misses_total 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"app_cache_hits_total", "app_cache_misses_total", "app_cache_keys"))
}
