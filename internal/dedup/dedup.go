// Package dedup collapses syndicated duplicates of the same article.
//
// Syndication networks republish one story under many affiliated outlets with
// the same (or near-same) headline. Grouping by a normalized headline key and
// keeping the highest-priority outlet's copy yields one representative per
// story. The algorithm is deterministic: identical input sets produce
// identical output regardless of input ordering.
package dedup

import (
	"regexp"
	"sort"
	"strings"

	"github.com/madisonpr/mentions/internal/storage"
)

// Outlet priority for choosing the representative copy (higher = preferred).
// Unranked outlets score 0.
var outletPriority = map[string]int{
	"New York Times":      100,
	"Wall Street Journal": 100,
	"Washington Post":     100,
	"Bloomberg":           95,
	"Reuters":             95,
	"AP News":             95,
	"Politico":            90,
	"The Atlantic":        90,
	"Axios":               85,
	"CNN":                 80,
	"NBC News":            80,
	"CBS News":            80,
	"ABC News":            80,
	"NPR":                 80,
	"Los Angeles Times":   75,
	"Chicago Tribune":     75,
	"Boston Globe":        75,
	"Seattle Times":       70,
	"Miami Herald":        70,
	"SF Chronicle":        70,
}

var (
	punctPattern      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	newsPrefixPattern = regexp.MustCompile(`^(live updates?|breaking|update)\s*:?\s*`)
)

// HeadlineKey normalizes a headline for syndication comparison: lower-case,
// punctuation stripped, whitespace collapsed, leading wire-style prefix
// removed.
func HeadlineKey(headline string) string {
	h := strings.ToLower(headline)
	h = punctPattern.ReplaceAllString(h, "")
	h = whitespacePattern.ReplaceAllString(h, " ")
	h = strings.TrimSpace(h)
	h = newsPrefixPattern.ReplaceAllString(h, "")

	return h
}

// OutletPriority returns the syndication preference score for an outlet.
func OutletPriority(outlet string) int {
	return outletPriority[outlet]
}

// BySyndication keeps exactly one representative per headline group: the copy
// from the highest-priority outlet, ties broken by most recent date, then URL
// for a stable total order. Output is sorted by publication date descending.
func BySyndication(items []storage.Article) []storage.Article {
	groups := make(map[string][]storage.Article)

	for _, item := range items {
		key := HeadlineKey(item.Headline)
		if key == "" {
			continue
		}

		groups[key] = append(groups[key], item)
	}

	unique := make([]storage.Article, 0, len(groups))

	for _, group := range groups {
		unique = append(unique, pickRepresentative(group))
	}

	sort.Slice(unique, func(i, j int) bool {
		if !unique[i].PublishedOn.Equal(unique[j].PublishedOn) {
			return unique[i].PublishedOn.After(unique[j].PublishedOn)
		}

		return unique[i].URL < unique[j].URL
	})

	return unique
}

func pickRepresentative(group []storage.Article) storage.Article {
	best := group[0]

	for _, candidate := range group[1:] {
		if preferOver(candidate, best) {
			best = candidate
		}
	}

	return best
}

func preferOver(a, b storage.Article) bool {
	pa, pb := outletPriority[a.Outlet], outletPriority[b.Outlet]
	if pa != pb {
		return pa > pb
	}

	if !a.PublishedOn.Equal(b.PublishedOn) {
		return a.PublishedOn.After(b.PublishedOn)
	}

	return a.URL < b.URL
}
