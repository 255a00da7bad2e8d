package cache

import (
	"slices"
	"time"
)

// entryOverhead approximates the bookkeeping cost of one entry (map slot,
// list element, timestamps) on top of its key, payload and tags.
const entryOverhead = 128

// entry is the unit of storage in the memory tier.
// Everything except accessCount and lastAccessedAt is immutable once stored.
type entry struct {
	expiresAt      time.Time
	createdAt      time.Time
	lastAccessedAt time.Time
	key            string
	payload        []byte
	tags           []string
	accessCount    int64
	size           int64
}

func newEntry(key string, payload []byte, tags []string, createdAt, expiresAt time.Time) *entry {
	e := &entry{
		key:            key,
		payload:        payload,
		tags:           tags,
		createdAt:      createdAt,
		lastAccessedAt: createdAt,
		expiresAt:      expiresAt,
	}
	e.size = int64(entryOverhead + len(key) + len(payload))
	for _, t := range tags {
		e.size += int64(len(t))
	}
	return e
}

// expired reports whether now is strictly after the entry's expiry.
func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

func (e *entry) info() Entry {
	return Entry{
		Key:            e.key,
		Tags:           slices.Clone(e.tags),
		ExpiresAt:      e.expiresAt,
		CreatedAt:      e.createdAt,
		LastAccessedAt: e.lastAccessedAt,
		AccessCount:    e.accessCount,
		Size:           e.size,
	}
}

// Entry describes a cached entry without its value.
type Entry struct {
	ExpiresAt      time.Time
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Key            string
	Tags           []string
	AccessCount    int64
	// Size is the estimated footprint counted against the byte ceiling.
	Size int64
}
