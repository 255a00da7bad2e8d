package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testEntry(key string, now time.Time, ttl time.Duration, tags ...string) *entry {
	return newEntry(key, []byte{payloadRaw, '1'}, tags, now, now.Add(ttl))
}

func TestStore_ReplacePrunesTagIndex(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(0, 0, 1)

	s.set(testEntry("k", now, time.Minute, "x", "shared"), now)
	s.set(testEntry("other", now, time.Minute, "shared"), now)
	s.set(testEntry("k", now, time.Minute, "y"), now)

	require.NotContains(t, s.tags, "x")
	require.Contains(t, s.tags["shared"], "other")
	require.NotContains(t, s.tags["shared"], "k")
	require.Contains(t, s.tags["y"], "k")

	require.Equal(t, 1, s.deleteByTag("shared"))
	require.Equal(t, 1, s.deleteByTag("y"))
	require.Empty(t, s.tags)
	require.Empty(t, s.items)
	require.Zero(t, s.bytes)
}

func TestStore_EvictionTieBreaksByInsertion(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(3, 0, 1)

	s.set(testEntry("a", now, time.Minute), now)
	s.set(testEntry("b", now, time.Minute), now)
	s.set(testEntry("c", now, time.Minute), now)

	res := s.set(testEntry("d", now, time.Minute), now)
	require.Len(t, res.evicted, 1)
	require.Equal(t, "a", res.evicted[0].Key)

	res = s.set(testEntry("e", now, time.Minute), now)
	require.Equal(t, "b", res.evicted[0].Key)
	require.Equal(t, uint64(2), s.evictions)
}

func TestStore_PurgesExpiredBeforeEvicting(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(2, 0, 1)

	s.set(testEntry("live", now, time.Hour), now)
	s.set(testEntry("stale", now, time.Second), now)

	later := now.Add(time.Minute)
	res := s.set(testEntry("new", later, time.Hour), later)

	require.Empty(t, res.evicted)
	require.Equal(t, uint64(1), s.expired)
	require.Contains(t, s.items, "live")
	require.Contains(t, s.items, "new")
}

func TestStore_GetTracksAccess(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(0, 0, 1)
	s.set(testEntry("a", now, time.Minute), now)
	s.set(testEntry("b", now, time.Minute), now)

	later := now.Add(time.Second)
	_, ok := s.get("a", later)
	require.True(t, ok)

	entries := s.entries()
	require.Equal(t, "a", entries[0].Key)
	require.Equal(t, int64(1), entries[0].AccessCount)
	require.Equal(t, later, entries[0].LastAccessedAt)
	require.Equal(t, now, entries[0].CreatedAt)
	require.Equal(t, "b", entries[1].Key)
}

func TestStore_FillKeepsLiveEntry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(0, 0, 1)

	s.set(newEntry("k", []byte{payloadRaw, 'a'}, nil, now, now.Add(time.Minute)), now)

	_, ok := s.fill(newEntry("k", []byte{payloadRaw, 'b'}, nil, now, now.Add(time.Minute)), now, s.generation())
	require.False(t, ok)

	payload, ok := s.get("k", now)
	require.True(t, ok)
	require.Equal(t, []byte{payloadRaw, 'a'}, payload)

	later := now.Add(2 * time.Minute)
	_, ok = s.fill(newEntry("k", []byte{payloadRaw, 'c'}, nil, later, later.Add(time.Minute)), later, s.generation())
	require.True(t, ok, "expired entry can be replaced")
	require.Equal(t, uint64(1), s.expired, "replaced expired entry is counted")
}

func TestStore_SetOverExpiredCountsExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(0, 0, 1)
	s.set(testEntry("k", now, time.Second), now)
	s.set(testEntry("live", now, time.Hour), now)

	later := now.Add(time.Minute)
	s.set(testEntry("k", later, time.Minute), later)
	s.set(testEntry("live", later, time.Minute), later)

	require.Equal(t, uint64(1), s.expired)
	require.Len(t, s.items, 2)
}

func TestStore_FillRefusedAfterInvalidation(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name       string
		invalidate func(s *store)
	}{
		{"delete of absent key", func(s *store) { s.delete("k", now) }},
		{"delete by tag", func(s *store) { s.deleteByTag("t") }},
		{"clear", func(s *store) { s.clear() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newStore(0, 0, 1)
			gen := s.generation()
			tt.invalidate(s)

			_, ok := s.fill(testEntry("k", now, time.Minute, "t"), now, gen)
			require.False(t, ok)
			require.Empty(t, s.items)

			_, ok = s.fill(testEntry("k", now, time.Minute, "t"), now, s.generation())
			require.True(t, ok)
		})
	}
}

func TestStore_DeleteReportsLiveness(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newStore(0, 0, 1)
	s.set(testEntry("live", now, time.Hour), now)
	s.set(testEntry("stale", now, time.Second), now)

	later := now.Add(time.Minute)
	require.True(t, s.delete("live", later))
	require.False(t, s.delete("stale", later))
	require.False(t, s.delete("missing", later))
	require.Equal(t, uint64(1), s.expired)
}
