package storage

import (
	"context"
	"fmt"
	"time"
)

// PruneExpiredQueries removes query cache rows older than the TTL. Reads
// already treat them as misses; this keeps the table from growing unbounded.
func (db *DB) PruneExpiredQueries(ctx context.Context, ttl time.Duration) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM query_cache WHERE created_at < now() - $1::interval`,
		ttl.String())
	if err != nil {
		return 0, fmt.Errorf("prune query cache: %w", err)
	}

	return tag.RowsAffected(), nil
}
