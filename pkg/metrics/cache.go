package metrics

import "sync/atomic"

// CacheMetric counts hits and misses of a cache.
type CacheMetric struct {
	name   string
	hits   atomic.Int64
	misses atomic.Int64
}

func newCacheMetric(name string) *CacheMetric {
	return &CacheMetric{name: name}
}

// Hit records a cache hit.
func (m *CacheMetric) Hit() {
	if Enabled() {
		m.hits.Add(1)
	}
}

// Miss records a cache miss.
func (m *CacheMetric) Miss() {
	if Enabled() {
		m.misses.Add(1)
	}
}

// Name returns the metric name.
func (m *CacheMetric) Name() string {
	return m.name
}

// Stats returns a snapshot of the counters.
func (m *CacheMetric) Stats() CacheStats {
	hits, misses := m.hits.Load(), m.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return CacheStats{Name: m.name, Hits: hits, Misses: misses, HitRate: rate}
}

// Reset zeroes the counters.
func (m *CacheMetric) Reset() {
	m.hits.Store(0)
	m.misses.Store(0)
}

// CacheStats holds a snapshot of cache counters.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Global cache metrics.
var (
	QueryCache = newCacheMetric("query_cache")
)

// AllCacheMetrics returns all registered cache metrics.
func AllCacheMetrics() []*CacheMetric {
	return []*CacheMetric{QueryCache}
}

// AllCacheStats returns stats for the cache metrics that saw traffic.
func AllCacheStats() []CacheStats {
	var out []CacheStats
	for _, m := range AllCacheMetrics() {
		if s := m.Stats(); s.Hits+s.Misses > 0 {
			out = append(out, s)
		}
	}
	return out
}
