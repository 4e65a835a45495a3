package analyzer

import (
	"fmt"
	"sort"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/data/cache"
	"github.com/d1j/facebook-stats/internal/util"
)

// IngestStats counts what happened to the archive on its way to events.
type IngestStats struct {
	Files          int            `json:"files"`
	FailedFiles    int            `json:"failedFiles"`
	CacheHits      int            `json:"cacheHits"`
	CacheMisses    int            `json:"cacheMisses"`
	MissReasons    map[string]int `json:"missReasons,omitempty"`
	Messages       int            `json:"messages"`
	Malformed      int            `json:"malformed"`
	Unsent         int            `json:"unsent"`
	Duplicates     int            `json:"duplicates"`
	Events         int            `json:"events"`
	Participants   int            `json:"participants"`
	UnknownSenders int            `json:"unknownSenders"`
	UnknownActors  int            `json:"unknownActors"`
	UnknownNames   []string       `json:"unknownNames,omitempty"`
}

func NewIngestStats() *IngestStats {
	return &IngestStats{MissReasons: make(map[string]int)}
}

// RecordMiss counts a fragment that had to be parsed despite the cache.
func (s *IngestStats) RecordMiss(reason cache.CacheMissReason) {
	s.CacheMisses++
	s.MissReasons[reason.String()]++
}

// RecordFold adds the participants a fold could not attribute.
func (s *IngestStats) RecordFold(report aggregator.FoldReport) {
	s.UnknownSenders = report.SkippedEvents
	s.UnknownActors = report.SkippedReactions
	s.UnknownNames = report.UnknownNames
}

// HitRate returns the cache hit percentage over all fragments.
func (s *IngestStats) HitRate() float64 {
	if s.Files == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Files) * 100
}

// Log writes the ingest summary to the log.
func (s *IngestStats) Log() {
	util.LogInfof("Ingest complete: %d files (%d failed), %d messages, %d events, %d participants",
		s.Files, s.FailedFiles, s.Messages, s.Events, s.Participants)
	util.LogInfof("Skipped records: %d malformed, %d unsent, %d duplicates",
		s.Malformed, s.Unsent, s.Duplicates)

	if s.CacheHits+s.CacheMisses == 0 {
		return
	}
	util.LogInfof("Cache statistics: hit rate %.1f%% (%d hits/%d misses)",
		s.HitRate(), s.CacheHits, s.CacheMisses)

	reasons := make([]string, 0, len(s.MissReasons))
	for reason := range s.MissReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		util.LogDebug(fmt.Sprintf("  cache miss %s: %d files", reason, s.MissReasons[reason]))
	}
}
