// Package normalize transforms raw provider items into canonical articles.
//
// Malformed upstream data is expected at volume: items missing a URL or a
// parseable publication date are dropped silently rather than treated as
// errors.
package normalize

import (
	"github.com/araddon/dateparse"

	"github.com/madisonpr/mentions/internal/provider"
	"github.com/madisonpr/mentions/internal/storage"
)

const maxTopicsPerArticle = 5

// Articles maps raw provider items to the canonical article shape, dropping
// items that cannot be dated or addressed.
func Articles(raw []provider.RawArticle) []storage.Article {
	articles := make([]storage.Article, 0, len(raw))

	for _, item := range raw {
		if item.URL == "" || item.Title == "" {
			continue
		}

		published, err := dateparse.ParseAny(item.PublishedAt)
		if err != nil {
			continue
		}

		articles = append(articles, storage.Article{
			Headline:    item.Title,
			Outlet:      OutletName(item.SourceDomain),
			PublishedOn: published,
			URL:         item.URL,
			Topics:      dedupeTopics(item.Topics),
		})
	}

	return articles
}

// dedupeTopics keeps the first occurrence of each topic, capped.
func dedupeTopics(topics []string) []string {
	if len(topics) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, maxTopicsPerArticle)

	for _, t := range topics {
		if t == "" || seen[t] {
			continue
		}

		seen[t] = true

		out = append(out, t)
		if len(out) >= maxTopicsPerArticle {
			break
		}
	}

	return out
}
