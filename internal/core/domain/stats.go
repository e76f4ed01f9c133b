package domain

import "time"

// CacheStats is a point-in-time view of the stats collector.
type CacheStats struct {
	Hits            int64
	Misses          int64
	Failures        int64
	FilesAnalyzed   int64
	AvgAnalysisTime time.Duration
	CacheSizeBytes  int64
}

// HitRate returns hits / (hits + misses), or 0 when nothing was recorded.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// IncrementalStats is the caller-facing statistics report.
type IncrementalStats struct {
	CacheHitRate  float64 `json:"cacheHitRate"`
	FilesAnalyzed int64   `json:"filesAnalyzed"`
	CacheHits     int64   `json:"cacheHits"`
	CacheMisses   int64   `json:"cacheMisses"`
	// AvgAnalysisTime is expressed in seconds.
	AvgAnalysisTime float64 `json:"avgAnalysisTime"`
	CacheSizeMB     float64 `json:"cacheSizeMB"`
}

const bytesPerMB = 1024 * 1024

// NewIncrementalStats converts collector stats to the external report.
func NewIncrementalStats(s CacheStats) IncrementalStats {
	return IncrementalStats{
		CacheHitRate:    s.HitRate(),
		FilesAnalyzed:   s.FilesAnalyzed,
		CacheHits:       s.Hits,
		CacheMisses:     s.Misses,
		AvgAnalysisTime: s.AvgAnalysisTime.Seconds(),
		CacheSizeMB:     float64(s.CacheSizeBytes) / bytesPerMB,
	}
}
