package intel

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/madisonpr/mentions/internal/storage"
)

func TestFallbackSummaries(t *testing.T) {
	pairs := []HeadlinePair{
		{Headline: "Short headline", Outlet: "CNN"},
		{Headline: string(make([]byte, 150)), Outlet: "NPR"},
	}

	summaries := fallbackSummaries(pairs)

	assert.Len(t, summaries, 2)
	assert.Equal(t, "Short headline", summaries[0])
	assert.Len(t, summaries[1], maxFallbackSummaryLen)
}

func TestFallbackSummariesMultiByteHeadline(t *testing.T) {
	long := strings.Repeat("Ä", maxFallbackSummaryLen+30)

	summaries := fallbackSummaries([]HeadlinePair{{Headline: long, Outlet: "dpa"}})

	assert.True(t, utf8.ValidString(summaries[0]))
	assert.Equal(t, strings.Repeat("Ä", maxFallbackSummaryLen), summaries[0])
}

func TestFallbackProfile(t *testing.T) {
	articles := []storage.Article{
		{Outlet: "Politico"},
		{Outlet: "Politico"},
		{Outlet: "Axios"},
	}

	profile := fallbackProfile(articles)

	assert.Equal(t, "Politico", profile.CurrentOutlet)
	assert.Empty(t, profile.Bio, "fallback profile carries no bio")
}

func TestFallbackProfile_Empty(t *testing.T) {
	profile := fallbackProfile(nil)
	assert.Empty(t, profile.CurrentOutlet)
}

func TestFallbackClassify(t *testing.T) {
	tests := []struct {
		name      string
		outlets   []string
		summaries []string
		relevant  bool
	}{
		{
			name:      "professional services coverage",
			outlets:   []string{"Bloomberg Law"},
			summaries: []string{"New tax regulation hits accounting firms", "M&A litigation wave continues"},
			relevant:  true,
		},
		{
			name:      "sports coverage",
			outlets:   []string{"ESPN"},
			summaries: []string{"Team wins championship", "Star player traded"},
			relevant:  false,
		},
		{
			name:      "empty input",
			outlets:   nil,
			summaries: nil,
			relevant:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fallbackClassify(tt.outlets, tt.summaries)
			assert.Equal(t, tt.relevant, result.Relevant)
			assert.NotEmpty(t, result.Rationale)
		})
	}
}

func TestFallbackColumnMapping(t *testing.T) {
	headers := []string{"Reporter Name", "Publication", "Beat Notes", "Twitter Handle", "LinkedIn URL"}

	mapping := fallbackColumnMapping(headers)

	assert.Equal(t, "Reporter Name", mapping.Name)
	assert.Equal(t, "Publication", mapping.Outlet)
	assert.Equal(t, "Beat Notes", mapping.Bio)
	assert.Equal(t, "Twitter Handle", mapping.Twitter)
	assert.Equal(t, "LinkedIn URL", mapping.LinkedIn)
}

func TestFallbackColumnMapping_Unmatched(t *testing.T) {
	mapping := fallbackColumnMapping([]string{"Col A", "Col B"})

	assert.Empty(t, mapping.Name)
	assert.Empty(t, mapping.Outlet)
}
