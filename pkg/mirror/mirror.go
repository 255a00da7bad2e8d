package mirror

import (
	"context"
	"errors"
	"slices"
	"time"
)

// Sentinel errors for mirror operations.
var (
	// ErrNotFound is returned when no record exists for a key.
	ErrNotFound = errors.New("mirror: record not found")

	// ErrDecode is returned when a stored record cannot be decoded.
	ErrDecode = errors.New("mirror: failed to decode record")

	// ErrEncode is returned when a record cannot be encoded for storage.
	ErrEncode = errors.New("mirror: failed to encode record")

	// ErrConflict is returned when a write keeps losing to concurrent writes
	// on the same key.
	ErrConflict = errors.New("mirror: concurrent write conflict")
)

// Record is the persisted form of a cache entry.
type Record struct {
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Key            string    `json:"key"`
	Value          []byte    `json:"value"`
	Tags           []string  `json:"tags,omitempty"`
	AccessCount    int64     `json:"access_count"`
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// HasTag reports whether the record carries tag.
func (r Record) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// Mirror is a key/value store that persists cache records.
//
// Implementations must be safe for concurrent use.
type Mirror interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Record, error)

	// Set stores rec, fully replacing any previous record for rec.Key
	// including its tags.
	Set(ctx context.Context, rec Record) error

	// Delete removes the record stored under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByTag removes every record tagged with tag and returns how many were removed.
	DeleteByTag(ctx context.Context, tag string) (int, error)

	// DeleteExpired prunes expired data and returns how many items were removed.
	DeleteExpired(ctx context.Context) (int, error)

	// Clear removes every record owned by the mirror.
	Clear(ctx context.Context) error
}

// Pinger is implemented by mirrors that can report backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
