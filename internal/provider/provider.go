// Package provider contains adapters for upstream article-metadata sources.
//
// Each adapter resolves a person to a provider-issued identity, fetches raw
// byline items since a date, and searches identities by topic. Rate-limit
// conditions are surfaced distinctly via ErrRateLimited; all other upstream
// failures collapse to ErrUnavailable so the resolution pipeline can degrade
// to empty results without mistaking an outage for a genuine miss.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/madisonpr/mentions/internal/storage"
)

// Name identifies an upstream provider.
type Name string

const (
	ProviderPerigon       Name = "perigon"
	ProviderEventRegistry Name = "eventregistry"
)

// ErrRateLimited is returned when the upstream rejects a call for quota
// reasons. Callers must not cache a negative result in that case.
var ErrRateLimited = errors.New("provider rate limited")

// ErrUnavailable is returned when an upstream call fails for any non-quota
// reason (5xx, timeout, malformed response). The pipeline treats it as an
// empty result, but unlike a genuine empty fetch it must never be cached.
var ErrUnavailable = errors.New("provider unavailable")

// Identity is a provider-issued reference for a person.
type Identity struct {
	JournalistID string
	SocialLinks  *storage.SocialLinks
}

// RawArticle is the normalized wire shape of one fetched item. Dates are kept
// raw; parsing and validation happen in the normalize package.
type RawArticle struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	PublishedAt  string   `json:"published_at"`
	SourceDomain string   `json:"source_domain"`
	Topics       []string `json:"topics,omitempty"`
}

// IdentitySummary is a lightweight search hit for topic queries.
type IdentitySummary struct {
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	TopOutlet    string `json:"top_outlet,omitempty"`
	ArticleCount int    `json:"article_count,omitempty"`
}

// Provider is the capability interface for one upstream source.
type Provider interface {
	Name() Name

	// FindIdentity resolves a name to a provider identity. A nil identity
	// with nil error means the person is unknown to this provider.
	FindIdentity(ctx context.Context, name string) (*Identity, error)

	// FetchItemsSince returns raw items for an identity, bounded below by
	// since when non-nil.
	FetchItemsSince(ctx context.Context, journalistID string, since *time.Time) ([]RawArticle, error)

	// FetchByTopic returns identity summaries for people covering a topic.
	FetchByTopic(ctx context.Context, topic string, limit int) ([]IdentitySummary, error)

	// IsAvailable reports whether the adapter has usable credentials.
	IsAvailable() bool
}

// Chain tries providers in registration order, skipping unavailable ones.
// The first provider that yields an identity wins; a rate-limit error stops
// the chain so the caller sees the condition instead of a silent miss.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Name() Name { return "chain" }

func (c *Chain) IsAvailable() bool {
	for _, p := range c.providers {
		if p.IsAvailable() {
			return true
		}
	}

	return false
}

// FindIdentity tries providers in order. A provider that is down is skipped;
// the chain only reports a genuine "unknown" (nil, nil) when at least one
// provider actually answered, so unavailability is never mistaken for absence.
func (c *Chain) FindIdentity(ctx context.Context, name string) (*Identity, error) {
	answered := false

	for _, p := range c.providers {
		if !p.IsAvailable() {
			continue
		}

		identity, err := p.FindIdentity(ctx, name)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				continue
			}

			return nil, err
		}

		answered = true

		if identity != nil {
			return identity, nil
		}
	}

	if !answered {
		return nil, ErrUnavailable
	}

	return nil, nil
}

func (c *Chain) FetchItemsSince(ctx context.Context, journalistID string, since *time.Time) ([]RawArticle, error) {
	answered := false

	for _, p := range c.providers {
		if !p.IsAvailable() {
			continue
		}

		items, err := p.FetchItemsSince(ctx, journalistID, since)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				continue
			}

			return nil, err
		}

		answered = true

		if len(items) > 0 {
			return items, nil
		}
	}

	if !answered {
		return nil, ErrUnavailable
	}

	return nil, nil
}

func (c *Chain) FetchByTopic(ctx context.Context, topic string, limit int) ([]IdentitySummary, error) {
	answered := false

	for _, p := range c.providers {
		if !p.IsAvailable() {
			continue
		}

		summaries, err := p.FetchByTopic(ctx, topic, limit)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				continue
			}

			return nil, err
		}

		answered = true

		if len(summaries) > 0 {
			return summaries, nil
		}
	}

	if !answered {
		return nil, ErrUnavailable
	}

	return nil, nil
}
