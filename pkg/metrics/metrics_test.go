package metrics

import (
	"sync"
	"testing"
	"time"
)

func withEnabled(t *testing.T, on bool) {
	t.Helper()
	prev := Enabled()
	SetEnabled(on)
	t.Cleanup(func() { SetEnabled(prev) })
}

func TestTimingMetricRecord(t *testing.T) {
	withEnabled(t, true)
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("Count = %d; want 2", s.Count)
	}
	if s.AvgMs != 3 || s.MaxMs != 4 || s.MinMs != 2 || s.TotalMs != 6 {
		t.Errorf("unexpected stats %+v", s)
	}

	m.Reset()
	if m.Count() != 0 || m.Stats().MaxMs != 0 {
		t.Errorf("Reset left %+v", m.Stats())
	}
}

func TestTimingMetricConcurrent(t *testing.T) {
	withEnabled(t, true)
	m := newTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			m.Record(d)
		}(time.Duration(i) * time.Microsecond)
	}
	wg.Wait()

	s := m.Stats()
	if s.Count != 50 {
		t.Errorf("Count = %d; want 50", s.Count)
	}
	if s.MaxMs != 0.05 || s.MinMs != 0.001 {
		t.Errorf("min/max = %v/%v; want 0.001/0.05", s.MinMs, s.MaxMs)
	}
}

func TestDisabledRecordsNothing(t *testing.T) {
	withEnabled(t, false)
	m := newTimingMetric("off")
	m.Record(time.Millisecond)
	Timer(m)()
	c := newCacheMetric("off")
	c.Hit()
	c.Miss()

	if m.Count() != 0 {
		t.Errorf("timing recorded %d while disabled", m.Count())
	}
	if s := c.Stats(); s.Hits+s.Misses != 0 {
		t.Errorf("cache recorded %+v while disabled", s)
	}
}

func TestTimerWithCallback(t *testing.T) {
	withEnabled(t, true)
	m := newTimingMetric("cb")
	var got time.Duration
	stop := TimerWithCallback(m, func(d time.Duration) { got = d })
	time.Sleep(time.Millisecond)
	stop()

	if m.Count() != 1 {
		t.Errorf("Count = %d; want 1", m.Count())
	}
	if got < time.Millisecond {
		t.Errorf("callback got %v; want at least 1ms", got)
	}
	// nil metric is allowed
	TimerWithCallback(nil, nil)()
}

func TestCacheMetricHitRate(t *testing.T) {
	withEnabled(t, true)
	c := newCacheMetric("cache")
	if s := c.Stats(); s.HitRate != 0 {
		t.Errorf("empty HitRate = %v; want 0", s.HitRate)
	}
	c.Hit()
	c.Hit()
	c.Hit()
	c.Miss()
	if s := c.Stats(); s.HitRate != 0.75 || s.Hits != 3 || s.Misses != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestAllStatsSkipIdleMetrics(t *testing.T) {
	withEnabled(t, true)
	ResetAll()
	t.Cleanup(ResetAll)

	if n := len(AllTimingStats()); n != 0 {
		t.Errorf("AllTimingStats after reset has %d entries", n)
	}
	if n := len(AllCacheStats()); n != 0 {
		t.Errorf("AllCacheStats after reset has %d entries", n)
	}

	TaskFetch.Record(time.Millisecond)
	QueryCache.Miss()
	timings := AllTimingStats()
	if len(timings) != 1 || timings[0].Name != "task_fetch" {
		t.Errorf("AllTimingStats = %+v; want only task_fetch", timings)
	}
	caches := AllCacheStats()
	if len(caches) != 1 || caches[0].Name != "query_cache" {
		t.Errorf("AllCacheStats = %+v; want only query_cache", caches)
	}
}
