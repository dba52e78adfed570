package intel

import (
	"strings"

	"github.com/madisonpr/mentions/internal/storage"
)

const maxFallbackSummaryLen = 100

// Keywords for the classification fallback heuristic.
var relevanceKeywords = []string{
	"law", "accounting", "tax", "consulting", "m&a", "audit",
	"compliance", "advisory", "cfo", "legal", "regulation",
	"finance", "banking", "private equity", "venture capital",
	"restructuring", "litigation", "governance", "fiduciary",
}

const relevanceKeywordThreshold = 3

// fallbackSummaries truncates each headline to summary length.
func fallbackSummaries(pairs []HeadlinePair) []string {
	summaries := make([]string, len(pairs))

	for i, p := range pairs {
		summaries[i] = truncate(p.Headline, maxFallbackSummaryLen)
	}

	return summaries
}

// fallbackProfile picks the most common outlet from the history; no bio.
func fallbackProfile(articles []storage.Article) Profile {
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

	return Profile{CurrentOutlet: best}
}

// fallbackClassify counts professional-services keywords across the combined
// outlet and summary text.
func fallbackClassify(outlets []string, summaries []string) Classification {
	text := strings.ToLower(strings.Join(summaries, " ") + " " + strings.Join(outlets, " "))

	matches := 0

	for _, kw := range relevanceKeywords {
		if strings.Contains(text, kw) {
			matches++
		}
	}

	if matches >= relevanceKeywordThreshold {
		return Classification{
			Relevant:  true,
			Rationale: "Keyword-based classification: multiple professional services terms found in recent coverage.",
		}
	}

	return Classification{
		Relevant:  false,
		Rationale: "Keyword-based classification: few professional services terms found in recent coverage.",
	}
}

// Header keywords for the CSV mapping fallback, checked in order.
var columnKeywords = map[string][]string{
	"name":     {"name", "reporter", "journalist", "author", "contact"},
	"outlet":   {"outlet", "publication", "media", "company", "organization"},
	"bio":      {"bio", "notes", "description", "beat"},
	"twitter":  {"twitter", "x handle", "handle"},
	"linkedin": {"linkedin"},
}

// fallbackColumnMapping matches headers against field keywords.
func fallbackColumnMapping(headers []string) ColumnMapping {
	mapping := ColumnMapping{}

	assign := func(field *string, header string, keywords []string) {
		if *field != "" {
			return
		}

		lower := strings.ToLower(header)

		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				*field = header

				return
			}
		}
	}

	for _, h := range headers {
		assign(&mapping.Name, h, columnKeywords["name"])
		assign(&mapping.Outlet, h, columnKeywords["outlet"])
		assign(&mapping.Bio, h, columnKeywords["bio"])
		assign(&mapping.Twitter, h, columnKeywords["twitter"])
		assign(&mapping.LinkedIn, h, columnKeywords["linkedin"])
	}

	return mapping
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen])
}
