package resolve

import (
	"time"

	"github.com/madisonpr/mentions/internal/storage"
)

// Tier is one of the three resolution strategies.
type Tier int

const (
	// TierFresh serves entirely from storage with zero upstream calls.
	TierFresh Tier = iota
	// TierIncremental tops up a known reporter from the latest stored date.
	TierIncremental
	// TierColdStart resolves identity and fetches the full historical window.
	TierColdStart
)

func (t Tier) String() string {
	switch t {
	case TierFresh:
		return "fresh"
	case TierIncremental:
		return "incremental"
	case TierColdStart:
		return "cold_start"
	default:
		return "unknown"
	}
}

// selectTier is the pure tier decision: a function of record presence,
// freshness, the force flag, stored-item presence and identity presence.
// Keeping it free of I/O makes the tier logic independently testable.
func selectTier(rec *storage.Reporter, hasArticles, force bool, freshWindow time.Duration, now time.Time) Tier {
	if rec == nil {
		return TierColdStart
	}

	fresh := !rec.LastRefreshed.IsZero() && now.Sub(rec.LastRefreshed) < freshWindow
	if fresh && !force && hasArticles {
		return TierFresh
	}

	if rec.ProviderJournalistID != "" {
		return TierIncremental
	}

	// A record without a provider identity (e.g. a CSV import) cold-starts
	// so identity resolution can backfill it.
	return TierColdStart
}
