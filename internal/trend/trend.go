// Package trend computes outlet-history aggregates from an article timeline.
package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/madisonpr/mentions/internal/storage"
)

const (
	// minArticles is the minimum timeline size for change detection.
	minArticles = 5
	// minBucketSize is the minimum number of articles in each period.
	minBucketSize = 2
	// DefaultRecentWindow splits the timeline into recent and older buckets
	// when the caller does not supply a window.
	DefaultRecentWindow = 180 * 24 * time.Hour
	// dominanceThreshold is the share a plurality outlet must hold in its
	// bucket. The dual requirement (disagreement plus dominance) avoids
	// false positives from fragmented bylines.
	dominanceThreshold = 0.40
)

// OutletCount pairs an outlet with how many articles it published.
type OutletCount struct {
	Outlet string `json:"outlet"`
	Count  int    `json:"count"`
}

// OutletHistory aggregates the timeline by outlet, most-published first,
// alphabetical within ties for a stable order.
func OutletHistory(articles []storage.Article) []OutletCount {
	counts := make(map[string]int)

	for _, a := range articles {
		if a.Outlet != "" {
			counts[a.Outlet]++
		}
	}

	history := make([]OutletCount, 0, len(counts))
	for outlet, count := range counts {
		history = append(history, OutletCount{Outlet: outlet, Count: count})
	}

	sort.Slice(history, func(i, j int) bool {
		if history[i].Count != history[j].Count {
			return history[i].Count > history[j].Count
		}

		return history[i].Outlet < history[j].Outlet
	})

	return history
}

// OutletChange detects whether the reporter's primary outlet differs between
// the recent window and the prior period. Both plurality outlets must hold at
// least 40% of their own bucket for a change to be reported. A non-positive
// recentWindow falls back to DefaultRecentWindow.
func OutletChange(articles []storage.Article, now time.Time, recentWindow time.Duration) (bool, string) {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}

	if len(articles) < minArticles {
		return false, ""
	}

	cutoff := now.Add(-recentWindow)

	var recent, older []storage.Article

	for _, a := range articles {
		if a.PublishedOn.Before(cutoff) {
			older = append(older, a)
		} else {
			recent = append(recent, a)
		}
	}

	if len(recent) < minBucketSize || len(older) < minBucketSize {
		return false, ""
	}

	recentPrimary, recentCount := plurality(recent)
	olderPrimary, olderCount := plurality(older)

	if recentPrimary == "" || olderPrimary == "" || recentPrimary == olderPrimary {
		return false, ""
	}

	recentShare := float64(recentCount) / float64(len(recent))
	olderShare := float64(olderCount) / float64(len(older))

	if recentShare < dominanceThreshold || olderShare < dominanceThreshold {
		return false, ""
	}

	return true, fmt.Sprintf("Possible outlet change: Previously %s, now %s", olderPrimary, recentPrimary)
}

// plurality returns the most common outlet and its count, alphabetical
// tiebreak for determinism.
func plurality(articles []storage.Article) (string, int) {
	counts := make(map[string]int)

	for _, a := range articles {
		if a.Outlet != "" {
			counts[a.Outlet]++
		}
	}

	best := ""
	bestCount := 0

	for outlet, count := range counts {
		if count > bestCount || (count == bestCount && outlet < best) {
			best = outlet
			bestCount = count
		}
	}

	return best, bestCount
}
