package mirror_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/mirror"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	t.Run("restores every field", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC().Truncate(time.Millisecond)
		rec := mirror.Record{
			Key:            "customer:42",
			Value:          []byte(`{"name":"Ada"}`),
			ExpiresAt:      now.Add(time.Minute),
			CreatedAt:      now,
			LastAccessedAt: now.Add(time.Second),
			AccessCount:    7,
			Tags:           []string{"customers", "vip"},
		}

		data, err := mirror.Encode(rec)
		require.NoError(t, err)

		got, err := mirror.Decode(data)
		require.NoError(t, err)
		require.Equal(t, rec.Key, got.Key)
		require.Equal(t, rec.Value, got.Value)
		require.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
		require.True(t, rec.CreatedAt.Equal(got.CreatedAt))
		require.True(t, rec.LastAccessedAt.Equal(got.LastAccessedAt))
		require.Equal(t, rec.AccessCount, got.AccessCount)
		require.Equal(t, rec.Tags, got.Tags)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			data []byte
		}{
			{name: "empty", data: nil},
			{name: "unknown version", data: []byte{9, '{', '}'}},
			{name: "broken json", data: []byte{1, '{', '"'}},
			{name: "missing key", data: append([]byte{1}, []byte(`{"expires_at":"2030-01-01T00:00:00Z"}`)...)},
			{name: "missing expiry", data: append([]byte{1}, []byte(`{"key":"k"}`)...)},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				_, err := mirror.Decode(tc.data)
				require.ErrorIs(t, err, mirror.ErrDecode)
			})
		}
	})
}

func TestRecord(t *testing.T) {
	t.Parallel()

	now := time.Now()
	rec := mirror.Record{Key: "k", ExpiresAt: now, Tags: []string{"a"}}

	require.False(t, rec.Expired(now))
	require.True(t, rec.Expired(now.Add(time.Nanosecond)))
	require.True(t, rec.HasTag("a"))
	require.False(t, rec.HasTag("b"))
}
