package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// QueryCache is the slice of the record store the cached provider needs.
type QueryCache interface {
	GetCachedQuery(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	SetCachedQuery(ctx context.Context, key string, payload []byte) error
}

// Cached wraps a Provider with short-lived query-result caching. Successful
// responses (including empty ones) are cached for the TTL; rate-limited and
// failed calls are never cached, so a later request retries upstream.
type Cached struct {
	inner  Provider
	cache  QueryCache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCached(inner Provider, cache QueryCache, ttl time.Duration, logger *zerolog.Logger) *Cached {
	return &Cached{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Name() Name { return c.inner.Name() }

func (c *Cached) IsAvailable() bool { return c.inner.IsAvailable() }

func (c *Cached) FindIdentity(ctx context.Context, name string) (*Identity, error) {
	key := fmt.Sprintf("%s:identity:%s", c.inner.Name(), name)

	var identity *Identity

	if hit := c.read(ctx, key, &identity); hit {
		return identity, nil
	}

	identity, err := c.inner.FindIdentity(ctx, name)
	if err != nil {
		return nil, err
	}

	if identity != nil {
		c.write(ctx, key, identity)
	}

	return identity, nil
}

func (c *Cached) FetchItemsSince(ctx context.Context, journalistID string, since *time.Time) ([]RawArticle, error) {
	sinceKey := "all"
	if since != nil {
		sinceKey = since.Format("2006-01-02")
	}

	key := fmt.Sprintf("%s:items:%s:%s", c.inner.Name(), journalistID, sinceKey)

	var items []RawArticle

	if hit := c.read(ctx, key, &items); hit {
		return items, nil
	}

	items, err := c.inner.FetchItemsSince(ctx, journalistID, since)
	if err != nil {
		return nil, err
	}

	c.write(ctx, key, items)

	return items, nil
}

func (c *Cached) FetchByTopic(ctx context.Context, topic string, limit int) ([]IdentitySummary, error) {
	key := fmt.Sprintf("%s:topic:%s:%d", c.inner.Name(), topic, limit)

	var summaries []IdentitySummary

	if hit := c.read(ctx, key, &summaries); hit {
		return summaries, nil
	}

	summaries, err := c.inner.FetchByTopic(ctx, topic, limit)
	if err != nil {
		return nil, err
	}

	c.write(ctx, key, summaries)

	return summaries, nil
}

// read returns true on a fresh cache hit. Cache errors degrade to a miss.
func (c *Cached) read(ctx context.Context, key string, target interface{}) bool {
	payload, err := c.cache.GetCachedQuery(ctx, key, c.ttl)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("query cache read failed")

		return false
	}

	if payload == nil {
		return false
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return false
	}

	return true
}

func (c *Cached) write(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.cache.SetCachedQuery(ctx, key, payload); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("query cache write failed")
	}
}
