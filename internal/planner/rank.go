package planner

import (
	"sort"

	"routeiq/internal/domain"
)

const (
	// MaxRanked is how many candidates survive ranking
	MaxRanked = 8
	// MaxDisplayed is how many ranked candidates are presented
	MaxDisplayed = 5
)

// Rank stable-sorts candidates by total duration, drops later duplicates of
// the same station and departure, and keeps the first MaxRanked. Ties keep
// discovery order. The input slice is not modified.
func Rank(candidates []*domain.RouteCandidate) []*domain.RouteCandidate {
	sorted := make([]*domain.RouteCandidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalDuration < sorted[j].TotalDuration
	})

	seen := make(map[string]struct{}, len(sorted))
	unique := make([]*domain.RouteCandidate, 0, len(sorted))
	for _, c := range sorted {
		key := c.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}

	if len(unique) > MaxRanked {
		unique = unique[:MaxRanked]
	}
	return unique
}

// Display returns the presented subset of a ranked list
func Display(ranked []*domain.RouteCandidate) []*domain.RouteCandidate {
	if len(ranked) > MaxDisplayed {
		return ranked[:MaxDisplayed]
	}
	return ranked
}
