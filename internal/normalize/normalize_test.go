package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madisonpr/mentions/internal/provider"
)

func TestArticlesDropsMalformedItems(t *testing.T) {
	raw := []provider.RawArticle{
		{Title: "Kept", URL: "https://wsj.com/a", PublishedAt: "2026-01-15", SourceDomain: "wsj.com"},
		{Title: "", URL: "https://wsj.com/b", PublishedAt: "2026-01-15", SourceDomain: "wsj.com"},
		{Title: "No URL", URL: "", PublishedAt: "2026-01-15", SourceDomain: "wsj.com"},
		{Title: "Bad date", URL: "https://wsj.com/c", PublishedAt: "not a date", SourceDomain: "wsj.com"},
	}

	got := Articles(raw)
	require.Len(t, got, 1)

	assert.Equal(t, "Kept", got[0].Headline)
	assert.Equal(t, "Wall Street Journal", got[0].Outlet)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got[0].PublishedOn)
}

func TestArticlesParsesVariedDateFormats(t *testing.T) {
	raw := []provider.RawArticle{
		{Title: "ISO", URL: "https://x.example/1", PublishedAt: "2026-01-15T08:30:00Z", SourceDomain: "wsj.com"},
		{Title: "Date only", URL: "https://x.example/2", PublishedAt: "2026-01-15", SourceDomain: "wsj.com"},
		{Title: "US style", URL: "https://x.example/3", PublishedAt: "01/15/2026", SourceDomain: "wsj.com"},
	}

	got := Articles(raw)
	require.Len(t, got, 3)

	for _, a := range got {
		assert.Equal(t, 2026, a.PublishedOn.Year())
		assert.Equal(t, time.January, a.PublishedOn.Month())
		assert.Equal(t, 15, a.PublishedOn.Day())
	}
}

func TestArticlesDedupesAndCapsTopics(t *testing.T) {
	raw := []provider.RawArticle{{
		Title:        "Topical",
		URL:          "https://x.example/1",
		PublishedAt:  "2026-01-15",
		SourceDomain: "wsj.com",
		Topics:       []string{"tax", "tax", "", "audit", "law", "deals", "markets", "extra"},
	}}

	got := Articles(raw)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"tax", "audit", "law", "deals", "markets"}, got[0].Topics)
}

func TestOutletNameKnownDomains(t *testing.T) {
	assert.Equal(t, "New York Times", OutletName("nytimes.com"))
	assert.Equal(t, "New York Times", OutletName("www.nytimes.com"))
	assert.Equal(t, "New York Times", OutletName("NYTimes.com"))
	assert.Equal(t, "Washington Post", OutletName("washingtonpost.com"))
}

func TestOutletNameSubdomainSuffixMatch(t *testing.T) {
	assert.Equal(t, "New York Times", OutletName("amp.nytimes.com"))
	assert.Equal(t, "ESPN", OutletName("scores.espn.com"))
}

func TestOutletNameFallback(t *testing.T) {
	assert.Equal(t, "Unknown", OutletName(""))
	assert.Equal(t, "Smalltown Gazette", OutletName("smalltown-gazette.com"))
	assert.Equal(t, "Localpaper", OutletName("news.localpaper.com"))
}

func TestFallbackOutletNameSplitsCamelCase(t *testing.T) {
	assert.Equal(t, "Tech Crunch", fallbackOutletName("TechCrunch.com"))
}
