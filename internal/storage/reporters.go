package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Provenance values for the reporters.source column.
const (
	SourceProvider  = "provider"
	SourceCSVImport = "csv_import"
)

// Verdict is the tri-state relevance classification for a reporter.
// Once set to Relevant or NotRelevant it is never recomputed.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictRelevant
	VerdictNotRelevant
)

// Known reports whether the verdict has been decided.
func (v Verdict) Known() bool { return v != VerdictUnknown }

func verdictFromBool(b pgtype.Bool) Verdict {
	if !b.Valid {
		return VerdictUnknown
	}

	if b.Bool {
		return VerdictRelevant
	}

	return VerdictNotRelevant
}

// SocialLinks holds a reporter's social and contact references.
type SocialLinks struct {
	TwitterHandle string `json:"twitter_handle,omitempty"`
	TwitterURL    string `json:"twitter_url,omitempty"`
	LinkedInURL   string `json:"linkedin_url,omitempty"`
	WebsiteURL    string `json:"website_url,omitempty"`
	Title         string `json:"title,omitempty"`
}

// Empty reports whether no link field is set.
func (s *SocialLinks) Empty() bool {
	return s == nil || *s == SocialLinks{}
}

// Reporter is the canonical person record.
type Reporter struct {
	ID                   string
	Name                 string
	ProviderJournalistID string
	CurrentOutlet        string
	Bio                  string
	SocialLinks          *SocialLinks
	Source               string
	Relevance            Verdict
	RelevanceRationale   string
	LastRefreshed        time.Time
	CreatedAt            time.Time
}

// NormalizeName produces the canonical unique form of a reporter name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

const reporterColumns = `id, name, provider_journalist_id, current_outlet, bio,
	social_links, source, services_relevant, relevance_rationale, last_refreshed, created_at`

func scanReporter(row pgx.Row) (*Reporter, error) {
	var (
		r           Reporter
		journalist  pgtype.Text
		outlet      pgtype.Text
		bio         pgtype.Text
		socialJSON  []byte
		relevant    pgtype.Bool
		rationale   pgtype.Text
		refreshedAt pgtype.Timestamptz
	)

	err := row.Scan(&r.ID, &r.Name, &journalist, &outlet, &bio,
		&socialJSON, &r.Source, &relevant, &rationale, &refreshedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.ProviderJournalistID = journalist.String
	r.CurrentOutlet = outlet.String
	r.Bio = bio.String
	r.Relevance = verdictFromBool(relevant)
	r.RelevanceRationale = rationale.String
	r.LastRefreshed = refreshedAt.Time

	if len(socialJSON) > 0 {
		links := &SocialLinks{}
		if err := json.Unmarshal(socialJSON, links); err == nil {
			r.SocialLinks = links
		}
	}

	return &r, nil
}

// GetReporter looks a reporter up by normalized name. Returns nil when absent.
func (db *DB) GetReporter(ctx context.Context, name string) (*Reporter, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+reporterColumns+` FROM reporters WHERE name = $1`,
		NormalizeName(name))

	r, err := scanReporter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("get reporter: %w", err)
	}

	return r, nil
}

// UpsertReporterParams carries the writable reporter fields. Empty strings
// and nil links leave existing values untouched on conflict.
type UpsertReporterParams struct {
	Name                 string
	ProviderJournalistID string
	SocialLinks          *SocialLinks
	CurrentOutlet        string
	Bio                  string
	Source               string
}

// UpsertReporter inserts or updates a reporter by name and returns its id.
// On conflict, non-empty incoming fields win and last_refreshed is touched.
func (db *DB) UpsertReporter(ctx context.Context, p UpsertReporterParams) (string, error) {
	var socialJSON []byte

	if p.SocialLinks != nil {
		var err error

		socialJSON, err = json.Marshal(p.SocialLinks)
		if err != nil {
			return "", fmt.Errorf("marshal social links: %w", err)
		}
	}

	source := p.Source
	if source == "" {
		source = SourceProvider
	}

	var id string

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO reporters (name, provider_journalist_id, social_links, current_outlet, bio, source, last_refreshed)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (name) DO UPDATE SET
			provider_journalist_id = COALESCE(excluded.provider_journalist_id, reporters.provider_journalist_id),
			social_links = COALESCE(excluded.social_links, reporters.social_links),
			current_outlet = COALESCE(excluded.current_outlet, reporters.current_outlet),
			bio = COALESCE(excluded.bio, reporters.bio),
			source = excluded.source,
			last_refreshed = excluded.last_refreshed
		RETURNING id`,
		NormalizeName(p.Name), toText(p.ProviderJournalistID), socialJSON,
		toText(p.CurrentOutlet), toText(p.Bio), source).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert reporter: %w", err)
	}

	return id, nil
}

// UpdateProfile sets the regenerated profile fields and touches last_refreshed.
func (db *DB) UpdateProfile(ctx context.Context, reporterID, currentOutlet, bio string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE reporters
		SET current_outlet = $2, bio = $3, last_refreshed = now()
		WHERE id = $1`,
		reporterID, toText(currentOutlet), toText(bio))
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

// TouchReporter updates last_refreshed without changing other fields.
func (db *DB) TouchReporter(ctx context.Context, reporterID string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE reporters SET last_refreshed = now() WHERE id = $1`, reporterID)
	if err != nil {
		return fmt.Errorf("touch reporter: %w", err)
	}

	return nil
}

// UpdateRelevance persists the classification verdict. The WHERE guard makes
// the verdict write-once: a decided verdict is never overwritten.
func (db *DB) UpdateRelevance(ctx context.Context, reporterID string, relevant bool, rationale string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE reporters
		SET services_relevant = $2, relevance_rationale = $3
		WHERE id = $1 AND services_relevant IS NULL`,
		reporterID, relevant, toText(rationale))
	if err != nil {
		return fmt.Errorf("update relevance: %w", err)
	}

	return nil
}
