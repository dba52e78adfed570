package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetCachedQuery returns the payload cached under key if it is younger than
// ttl. Expired entries are ignored by readers, not deleted.
func (db *DB) GetCachedQuery(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	var payload []byte

	err := db.Pool.QueryRow(ctx, `
		SELECT payload FROM query_cache
		WHERE cache_key = $1 AND created_at > now() - $2::interval
		ORDER BY created_at DESC
		LIMIT 1`,
		key, ttl.String()).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("get cached query: %w", err)
	}

	return payload, nil
}

// SetCachedQuery stores a provider result payload under key, bucketed by
// calendar day. A later write under the same key supersedes the earlier one.
func (db *DB) SetCachedQuery(ctx context.Context, key string, payload []byte) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO query_cache (cache_key, bucket, payload)
		VALUES ($1, CURRENT_DATE, $2)
		ON CONFLICT (cache_key, bucket) DO UPDATE SET
			payload = excluded.payload,
			created_at = now()`,
		key, payload)
	if err != nil {
		return fmt.Errorf("set cached query: %w", err)
	}

	return nil
}

// GetCachedSummary returns the summary cached under key, or "" when absent.
func (db *DB) GetCachedSummary(ctx context.Context, key string) (string, error) {
	var summary string

	err := db.Pool.QueryRow(ctx,
		`SELECT summary FROM summary_cache WHERE cache_key = $1`, key).Scan(&summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("get cached summary: %w", err)
	}

	return summary, nil
}

// SetCachedSummary stores opaque text under key with no expiry. Summaries are
// immutable once computed, so later writes simply supersede.
func (db *DB) SetCachedSummary(ctx context.Context, key, summary string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO summary_cache (cache_key, summary)
		VALUES ($1, $2)
		ON CONFLICT (cache_key) DO UPDATE SET summary = excluded.summary`,
		key, summary)
	if err != nil {
		return fmt.Errorf("set cached summary: %w", err)
	}

	return nil
}

// GetCachedSummaries returns the cached summaries for the given keys.
func (db *DB) GetCachedSummaries(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT cache_key, summary FROM summary_cache WHERE cache_key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("get cached summaries: %w", err)
	}
	defer rows.Close()

	summaries := make(map[string]string)

	for rows.Next() {
		var key, summary string

		if err := rows.Scan(&key, &summary); err != nil {
			return nil, fmt.Errorf("scan cached summary: %w", err)
		}

		summaries[key] = summary
	}

	return summaries, rows.Err()
}

// SetCachedSummaries stores multiple summaries at once.
func (db *DB) SetCachedSummaries(ctx context.Context, summaries map[string]string) error {
	for key, summary := range summaries {
		if err := db.SetCachedSummary(ctx, key, summary); err != nil {
			return err
		}
	}

	return nil
}
