package cache

// Stats is a point-in-time snapshot of cache counters.
// Counters only grow for the manager's lifetime; TotalKeys and Bytes track
// current memory tier occupancy.
type Stats struct {
	Hits         uint64
	Misses       uint64
	Evictions    uint64
	Expired      uint64
	Sets         uint64
	Deletes      uint64
	MirrorErrors uint64
	TotalKeys    int
	Bytes        int64
	// HitRate is Hits / (Hits + Misses), or 0 before the first Get.
	HitRate float64
}

// Stats returns current counters. It never resets them.
func (m *Manager) Stats() Stats {
	ss := m.store.stats()
	s := Stats{
		Hits:         m.hits.Load(),
		Misses:       m.misses.Load(),
		Evictions:    ss.evictions,
		Expired:      ss.expired,
		Sets:         m.sets.Load(),
		Deletes:      m.deletes.Load(),
		MirrorErrors: m.mirrorErrors.Load(),
		TotalKeys:    ss.keys,
		Bytes:        ss.bytes,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
