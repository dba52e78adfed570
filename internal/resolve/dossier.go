package resolve

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/madisonpr/mentions/internal/storage"
	"github.com/madisonpr/mentions/internal/trend"
)

const dateLayout = "2006-01-02"

var titleCaser = cases.Title(language.English)

// ArticleView is the wire shape of a stored article inside a dossier.
type ArticleView struct {
	Headline string   `json:"headline"`
	Outlet   string   `json:"outlet"`
	Date     string   `json:"date"`
	URL      string   `json:"url"`
	Summary  string   `json:"summary,omitempty"`
	Topics   []string `json:"topics,omitempty"`
}

// Dossier is the assembled answer to a reporter lookup.
type Dossier struct {
	ReporterName         string               `json:"reporter_name"`
	QueryDate            string               `json:"query_date"`
	Articles             []ArticleView        `json:"articles"`
	CurrentOutlet        string               `json:"current_outlet,omitempty"`
	ReporterBio          string               `json:"reporter_bio,omitempty"`
	SocialLinks          *storage.SocialLinks `json:"social_links,omitempty"`
	OutletHistory        []trend.OutletCount  `json:"outlet_history"`
	OutletChangeDetected bool                 `json:"outlet_change_detected"`
	OutletChangeNote     string               `json:"outlet_change_note,omitempty"`
	LastRefreshed        *time.Time           `json:"last_refreshed,omitempty"`
	ServicesRelevant     *bool                `json:"services_relevant,omitempty"`
	RelevanceRationale   string               `json:"relevance_rationale,omitempty"`
	Tier                 string               `json:"resolution_tier"`
}

// emptyDossier is what a lookup that found nothing returns.
func emptyDossier(name string, now time.Time, tier Tier) Dossier {
	return Dossier{
		ReporterName:  titleCaser.String(name),
		QueryDate:     now.Format(dateLayout),
		Articles:      []ArticleView{},
		OutletHistory: []trend.OutletCount{},
		Tier:          tier.String(),
	}
}

// buildDossier assembles the response from a stored record and its articles.
// recentWindow bounds the outlet-change comparison.
func buildDossier(rec *storage.Reporter, articles []storage.Article, now time.Time, tier Tier, recentWindow time.Duration) Dossier {
	d := emptyDossier(rec.Name, now, tier)

	d.CurrentOutlet = rec.CurrentOutlet
	d.ReporterBio = rec.Bio
	if rec.SocialLinks != nil && !rec.SocialLinks.Empty() {
		d.SocialLinks = rec.SocialLinks
	}
	if !rec.LastRefreshed.IsZero() {
		ts := rec.LastRefreshed
		d.LastRefreshed = &ts
	}
	if rec.Relevance.Known() {
		relevant := rec.Relevance == storage.VerdictRelevant
		d.ServicesRelevant = &relevant
		d.RelevanceRationale = rec.RelevanceRationale
	}

	for _, a := range articles {
		view := ArticleView{
			Headline: a.Headline,
			Outlet:   a.Outlet,
			URL:      a.URL,
			Summary:  a.Summary,
			Topics:   a.Topics,
		}
		if !a.PublishedOn.IsZero() {
			view.Date = a.PublishedOn.Format(dateLayout)
		}
		d.Articles = append(d.Articles, view)
	}
	if d.Articles == nil {
		d.Articles = []ArticleView{}
	}

	d.OutletHistory = trend.OutletHistory(articles)
	d.OutletChangeDetected, d.OutletChangeNote = trend.OutletChange(articles, now, recentWindow)

	return d
}
