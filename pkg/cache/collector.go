package cache

import "github.com/prometheus/client_golang/prometheus"

// Collector exports Manager statistics as Prometheus metrics.
type Collector struct {
	m *Manager

	hits         *prometheus.Desc
	misses       *prometheus.Desc
	evictions    *prometheus.Desc
	expired      *prometheus.Desc
	mirrorErrors *prometheus.Desc
	keys         *prometheus.Desc
	bytes        *prometheus.Desc
	hitRate      *prometheus.Desc
}

// NewCollector returns a collector for m with metric names under namespace.
//
//	prometheus.MustRegister(cache.NewCollector(m, "app"))
func NewCollector(m *Manager, namespace string) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", name), help, nil, nil)
	}
	return &Collector{
		m:            m,
		hits:         desc("hits_total", "Gets served from the memory tier or the mirror."),
		misses:       desc("misses_total", "Gets that missed both tiers."),
		evictions:    desc("evictions_total", "Entries evicted under memory pressure."),
		expired:      desc("expired_total", "Expired entries removed from the memory tier."),
		mirrorErrors: desc("mirror_errors_total", "Failed mirror operations."),
		keys:         desc("keys", "Entries currently in the memory tier."),
		bytes:        desc("bytes", "Estimated memory tier footprint in bytes."),
		hitRate:      desc("hit_rate", "Hits divided by hits plus misses."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.expired
	ch <- c.mirrorErrors
	ch <- c.keys
	ch <- c.bytes
	ch <- c.hitRate
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(s.Expired))
	ch <- prometheus.MustNewConstMetric(c.mirrorErrors, prometheus.CounterValue, float64(s.MirrorErrors))
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.TotalKeys))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(s.Bytes))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, s.HitRate)
}

var _ prometheus.Collector = (*Collector)(nil)
