// Package stats accumulates cache hit and timing statistics.
package stats

import (
	"sync"
	"time"

	"go.trai.ch/symdex/internal/core/domain"
)

// Sizer reports the persisted size of the cache.
type Sizer interface {
	SizeBytes() int64
}

// Collector records per-file outcomes. It is safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	sizer     Sizer
	hits      int64
	misses    int64
	failures  int64
	analyzed  int64
	total     time.Duration
	durations int64
}

// NewCollector creates a Collector that reads the cache size from sizer.
// sizer may be nil.
func NewCollector(sizer Sizer) *Collector {
	return &Collector{sizer: sizer}
}

// BeginRun starts a new run; FilesAnalyzed counts from here.
func (c *Collector) BeginRun() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzed = 0
}

// Record counts one successfully served file.
func (c *Collector) Record(_ string, hit bool, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.analyzed++
	c.total += d
	c.durations++
}

// RecordFailure counts a file that could not be served. Failures do not
// affect the hit rate.
func (c *Collector) RecordFailure(_ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
}

// Snapshot returns the current counters.
func (c *Collector) Snapshot() domain.CacheStats {
	c.mu.Lock()
	s := domain.CacheStats{
		Hits:          c.hits,
		Misses:        c.misses,
		Failures:      c.failures,
		FilesAnalyzed: c.analyzed,
	}
	if c.durations > 0 {
		s.AvgAnalysisTime = c.total / time.Duration(c.durations)
	}
	sizer := c.sizer
	c.mu.Unlock()

	if sizer != nil {
		s.CacheSizeBytes = sizer.SizeBytes()
	}
	return s
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.failures, c.analyzed = 0, 0, 0, 0
	c.total, c.durations = 0, 0
}
