package normalize

import (
	_ "embed"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed outlets.yaml
var outletsYAML []byte

// outletTable maps known domains to display names. Loaded once at init; the
// asset is pure data so a parse failure is a build defect, not a runtime one.
var outletTable = loadOutletTable()

func loadOutletTable() map[string]string {
	table := make(map[string]string)
	if err := yaml.Unmarshal(outletsYAML, &table); err != nil {
		panic("normalize: invalid outlets.yaml: " + err.Error())
	}

	return table
}

const unknownOutlet = "Unknown"

// Subdomain tokens that carry no outlet identity.
var noiseSubdomains = map[string]bool{
	"www":    true,
	"news":   true,
	"api":    true,
	"m":      true,
	"mobile": true,
	"amp":    true,
	"cdn":    true,
	"static": true,
}

// Suffixes stripped during the fallback transformation.
var tldTokens = map[string]bool{
	"com": true,
	"org": true,
	"net": true,
	"edu": true,
	"gov": true,
	"co":  true,
	"uk":  true,
	"io":  true,
	"ai":  true,
}

var (
	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	titleCaser    = cases.Title(language.English)
)

// OutletName resolves a source domain to a display name. Known domains match
// the embedded table, subdomains match by longest suffix, and everything else
// goes through a deterministic cleanup transformation.
func OutletName(domain string) string {
	if domain == "" {
		return unknownOutlet
	}

	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")

	if name, ok := outletTable[domain]; ok {
		return name
	}

	// Longest-suffix match so "amp.nytimes.com" resolves before a shorter
	// coincidental suffix would.
	bestLen := 0
	bestName := ""

	for known, name := range outletTable {
		if strings.HasSuffix(domain, "."+known) && len(known) > bestLen {
			bestLen = len(known)
			bestName = name
		}
	}

	if bestName != "" {
		return bestName
	}

	return fallbackOutletName(domain)
}

// fallbackOutletName turns an unmatched domain into a readable display name:
// drop noise subdomains and TLD tokens, split camel case and hyphenation,
// title-case the result.
func fallbackOutletName(domain string) string {
	parts := strings.Split(domain, ".")

	nameParts := make([]string, 0, len(parts))

	for _, p := range parts {
		if !noiseSubdomains[strings.ToLower(p)] {
			nameParts = append(nameParts, p)
		}
	}

	for len(nameParts) > 1 && tldTokens[nameParts[len(nameParts)-1]] {
		nameParts = nameParts[:len(nameParts)-1]
	}

	name := domain
	if len(nameParts) > 0 {
		name = nameParts[0]
	}

	name = camelBoundary.ReplaceAllString(name, "$1 $2")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	return titleCaser.String(name)
}
