package entities

import (
	"cmp"
	"slices"
	"time"
)

// Analytics is a point-in-time summary of a PRD collection. Status and
// priority counts are keyed by display label; author and tag counts use
// the raw values.
type Analytics struct {
	TotalPRDs         int            `json:"total_prds"`
	StatusCounts      map[string]int `json:"status_counts"`
	PriorityCounts    map[string]int `json:"priority_counts"`
	AuthorCounts      map[string]int `json:"author_counts"`
	TagCounts         map[string]int `json:"tag_counts"`
	AverageCompletion float64        `json:"average_completion"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// CountEntry is one row of a ranked count table
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// CompletionStats holds min, max and mean completion across a collection.
// All fields are zero for an empty collection.
type CompletionStats struct {
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Average float64 `json:"average"`
}

// NewAnalytics returns an empty summary stamped with the current time.
func NewAnalytics() Analytics {
	return Analytics{
		StatusCounts:   make(map[string]int),
		PriorityCounts: make(map[string]int),
		AuthorCounts:   make(map[string]int),
		TagCounts:      make(map[string]int),
		GeneratedAt:    timestamp(),
	}
}

// MostUsedTags ranks tags by usage. A non-positive limit returns all.
func (a Analytics) MostUsedTags(limit int) []CountEntry {
	return rankCounts(a.TagCounts, limit)
}

// TopContributors ranks authors by PRD count. A non-positive limit returns all.
func (a Analytics) TopContributors(limit int) []CountEntry {
	return rankCounts(a.AuthorCounts, limit)
}

// rankCounts orders by count descending, then key ascending.
func rankCounts(counts map[string]int, limit int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, CountEntry{Key: key, Count: count})
	}

	slices.SortFunc(entries, func(a, b CountEntry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
