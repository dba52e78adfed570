package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/madisonpr/mentions/internal/provider"
)

const (
	defaultTopicLimit = 10
	maxTopicLimit     = 50
)

// SearchTopic returns reporters covering a topic, ranked by the upstream
// provider. Rate limits degrade to an empty list rather than an error so the
// caller can distinguish "try later" via the Throttled flag.
func (r *Resolver) SearchTopic(ctx context.Context, topic string, limit int) ([]provider.IdentitySummary, bool, error) {
	trimmed := strings.TrimSpace(topic)
	if len(trimmed) < minNameLen {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidInput, topic)
	}

	if limit <= 0 {
		limit = defaultTopicLimit
	}

	if limit > maxTopicLimit {
		limit = maxTopicLimit
	}

	hits, err := r.upstream.FetchByTopic(ctx, trimmed, limit)
	if err != nil {
		if errors.Is(err, provider.ErrRateLimited) {
			r.logger.Warn().Str("topic", trimmed).Msg("rate limited during topic search")

			return []provider.IdentitySummary{}, true, nil
		}

		if errors.Is(err, provider.ErrUnavailable) {
			r.logger.Warn().Err(err).Str("topic", trimmed).Msg("upstream unavailable during topic search")

			return []provider.IdentitySummary{}, false, nil
		}

		return nil, false, fmt.Errorf("topic search %q: %w", trimmed, err)
	}

	if hits == nil {
		hits = []provider.IdentitySummary{}
	}

	return hits, false, nil
}
