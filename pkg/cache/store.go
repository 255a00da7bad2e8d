package cache

import (
	"container/list"
	"sync"
	"time"
)

// store is the memory tier: a hash map for O(1) lookups, a doubly-linked
// list ordered by access recency, and a reverse tag index.
//
// The front of the list holds the most recently accessed entry and the back
// the least recently accessed one. Entries enter at the front, so list order
// matches lastAccessedAt with ties broken by insertion order.
type store struct {
	items      map[string]*list.Element
	lru        *list.List
	tags       map[string]map[string]struct{}
	bytes      int64
	maxBytes   int64
	maxEntries int
	target     float64
	evictions  uint64
	expired    uint64
	// gen counts explicit invalidations (delete, deleteByTag, clear).
	gen uint64
	mu  sync.Mutex
}

func newStore(maxEntries int, maxBytes int64, target float64) *store {
	return &store{
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		tags:       make(map[string]map[string]struct{}),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		target:     target,
	}
}

// get returns the payload of a live entry and records the access.
// An expired entry is removed and reported as absent.
func (s *store) get(key string, now time.Time) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return nil, false
	}

	e := elem.Value.(*entry)
	if e.expired(now) {
		s.remove(elem)
		s.expired++
		return nil, false
	}

	e.accessCount++
	e.lastAccessedAt = now
	s.lru.MoveToFront(elem)

	return e.payload, true
}

// setResult reports what a set displaced.
type setResult struct {
	evicted []Entry
	// oversize is set when the new entry alone exceeds the byte ceiling.
	oversize bool
}

// set stores e, fully replacing any previous entry under the same key,
// then reclaims space if a ceiling is exceeded. The new entry is never
// evicted by its own insertion.
func (s *store) set(e *entry, now time.Time) setResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(e, now)
}

// generation returns the invalidation counter to pass to fill.
func (s *store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen
}

// fill stores e only when no live entry exists under its key and no
// invalidation happened since gen was read.
// It is used to repopulate the memory tier from the mirror without
// overwriting a value written concurrently or reviving a deleted one.
func (s *store) fill(e *entry, now time.Time, gen uint64) (setResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return setResult{}, false
	}
	if elem, ok := s.items[e.key]; ok && !elem.Value.(*entry).expired(now) {
		return setResult{}, false
	}
	return s.insert(e, now), true
}

// Caller must hold the mutex.
func (s *store) insert(e *entry, now time.Time) setResult {
	if old, ok := s.items[e.key]; ok {
		if old.Value.(*entry).expired(now) {
			s.expired++
		}
		s.remove(old)
	}

	elem := s.lru.PushFront(e)
	s.items[e.key] = elem
	s.bytes += e.size
	for _, tag := range e.tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[e.key] = struct{}{}
	}

	var res setResult
	if s.overLimit() {
		s.expired += uint64(s.removeExpired(now))
		res.evicted = s.evict(elem)
	}
	res.oversize = s.maxBytes > 0 && e.size > s.maxBytes

	return res
}

// delete removes key and reports whether a live entry was removed.
func (s *store) delete(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	elem, ok := s.items[key]
	if !ok {
		return false
	}

	live := !elem.Value.(*entry).expired(now)
	s.remove(elem)
	if !live {
		s.expired++
	}
	return live
}

// deleteByTag removes every entry carrying tag and returns how many were removed.
func (s *store) deleteByTag(tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	keys := s.tags[tag]
	n := 0
	for key := range keys {
		if elem, ok := s.items[key]; ok {
			s.remove(elem)
			n++
		}
	}
	delete(s.tags, tag)

	return n
}

// clear drops every entry and returns how many there were.
func (s *store) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	n := len(s.items)
	s.items = make(map[string]*list.Element)
	s.tags = make(map[string]map[string]struct{})
	s.lru.Init()
	s.bytes = 0

	return n
}

// deleteExpired removes every entry expired at now.
func (s *store) deleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.removeExpired(now)
	s.expired += uint64(n)
	return n
}

// entries returns entry metadata from most to least recently accessed.
func (s *store) entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.items))
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*entry).info())
	}
	return out
}

type storeStats struct {
	keys      int
	bytes     int64
	evictions uint64
	expired   uint64
}

func (s *store) stats() storeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return storeStats{
		keys:      len(s.items),
		bytes:     s.bytes,
		evictions: s.evictions,
		expired:   s.expired,
	}
}

// Caller must hold the mutex.
func (s *store) removeExpired(now time.Time) int {
	n := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*entry).expired(now) {
			s.remove(elem)
			n++
		}
		elem = prev
	}
	return n
}

// evict removes least recently accessed entries, skipping keep, until both
// occupancy measures are at or below the target fraction of their ceilings.
// Caller must hold the mutex.
func (s *store) evict(keep *list.Element) []Entry {
	targetEntries := int(float64(s.maxEntries) * s.target)
	targetBytes := int64(float64(s.maxBytes) * s.target)

	var evicted []Entry
	for elem := s.lru.Back(); elem != nil && s.aboveTarget(targetEntries, targetBytes); {
		prev := elem.Prev()
		if elem != keep {
			evicted = append(evicted, elem.Value.(*entry).info())
			s.remove(elem)
			s.evictions++
		}
		elem = prev
	}
	return evicted
}

func (s *store) overLimit() bool {
	return (s.maxEntries > 0 && len(s.items) > s.maxEntries) ||
		(s.maxBytes > 0 && s.bytes > s.maxBytes)
}

func (s *store) aboveTarget(entries int, bytes int64) bool {
	return (s.maxEntries > 0 && len(s.items) > entries) ||
		(s.maxBytes > 0 && s.bytes > bytes)
}

// remove unlinks elem from the map, the list and the tag index.
// Caller must hold the mutex.
func (s *store) remove(elem *list.Element) {
	e := elem.Value.(*entry)
	s.lru.Remove(elem)
	delete(s.items, e.key)
	s.bytes -= e.size

	for _, tag := range e.tags {
		keys, ok := s.tags[tag]
		if !ok {
			continue
		}
		delete(keys, e.key)
		if len(keys) == 0 {
			delete(s.tags, tag)
		}
	}
}
