package provider

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	name      Name
	available bool

	identity    *Identity
	identityErr error
	items       []RawArticle
	itemsErr    error
	hits        []IdentitySummary

	findCalls  int
	fetchCalls int
	topicCalls int
}

func (s *scriptedProvider) Name() Name        { return s.name }
func (s *scriptedProvider) IsAvailable() bool { return s.available }

func (s *scriptedProvider) FindIdentity(_ context.Context, _ string) (*Identity, error) {
	s.findCalls++

	return s.identity, s.identityErr
}

func (s *scriptedProvider) FetchItemsSince(_ context.Context, _ string, _ *time.Time) ([]RawArticle, error) {
	s.fetchCalls++

	return s.items, s.itemsErr
}

func (s *scriptedProvider) FetchByTopic(_ context.Context, _ string, _ int) ([]IdentitySummary, error) {
	s.topicCalls++

	return s.hits, nil
}

func TestChainFallsThroughToSecondProvider(t *testing.T) {
	first := &scriptedProvider{name: "first", available: true}
	second := &scriptedProvider{name: "second", available: true, identity: &Identity{JournalistID: "j2"}}

	chain := NewChain(first, second)

	identity, err := chain.FindIdentity(context.Background(), "Jane Smith")
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, "j2", identity.JournalistID)
	assert.Equal(t, 1, first.findCalls)
	assert.Equal(t, 1, second.findCalls)
}

func TestChainSkipsUnavailableProviders(t *testing.T) {
	first := &scriptedProvider{name: "first", available: false, identity: &Identity{JournalistID: "j1"}}
	second := &scriptedProvider{name: "second", available: true, identity: &Identity{JournalistID: "j2"}}

	chain := NewChain(first, second)
	assert.True(t, chain.IsAvailable())

	identity, err := chain.FindIdentity(context.Background(), "Jane Smith")
	require.NoError(t, err)

	assert.Equal(t, "j2", identity.JournalistID)
	assert.Zero(t, first.findCalls)
}

func TestChainStopsOnRateLimit(t *testing.T) {
	first := &scriptedProvider{name: "first", available: true, identityErr: ErrRateLimited}
	second := &scriptedProvider{name: "second", available: true, identity: &Identity{JournalistID: "j2"}}

	chain := NewChain(first, second)

	_, err := chain.FindIdentity(context.Background(), "Jane Smith")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Zero(t, second.findCalls)
}

func TestChainContinuesPastUnavailableProvider(t *testing.T) {
	first := &scriptedProvider{name: "first", available: true, identityErr: ErrUnavailable}
	second := &scriptedProvider{name: "second", available: true, identity: &Identity{JournalistID: "j2"}}

	chain := NewChain(first, second)

	identity, err := chain.FindIdentity(context.Background(), "Jane Smith")
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, "j2", identity.JournalistID)
	assert.Equal(t, 1, first.findCalls)
	assert.Equal(t, 1, second.findCalls)
}

func TestChainReportsUnavailableWhenNoProviderAnswers(t *testing.T) {
	first := &scriptedProvider{name: "first", available: true, identityErr: ErrUnavailable}
	second := &scriptedProvider{name: "second", available: true, identityErr: ErrUnavailable, itemsErr: ErrUnavailable}
	first.itemsErr = ErrUnavailable

	chain := NewChain(first, second)

	_, err := chain.FindIdentity(context.Background(), "Jane Smith")
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = chain.FetchItemsSince(context.Background(), "j1", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestChainEmptyAnswerIsNotUnavailable(t *testing.T) {
	first := &scriptedProvider{name: "first", available: true, identityErr: ErrUnavailable}
	second := &scriptedProvider{name: "second", available: true}

	chain := NewChain(first, second)

	identity, err := chain.FindIdentity(context.Background(), "Nobody Known")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestChainFetchItemsPrefersFirstNonEmpty(t *testing.T) {
	first := &scriptedProvider{name: "first", available: true}
	second := &scriptedProvider{name: "second", available: true, items: []RawArticle{{Title: "Hit", URL: "https://x.example/1"}}}

	chain := NewChain(first, second)

	items, err := chain.FetchItemsSince(context.Background(), "j1", nil)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Hit", items[0].Title)
}

type memQueryCache struct {
	entries map[string][]byte
	reads   int
	writes  int
}

func newMemQueryCache() *memQueryCache {
	return &memQueryCache{entries: map[string][]byte{}}
}

func (m *memQueryCache) GetCachedQuery(_ context.Context, key string, _ time.Duration) ([]byte, error) {
	m.reads++

	return m.entries[key], nil
}

func (m *memQueryCache) SetCachedQuery(_ context.Context, key string, payload []byte) error {
	m.writes++
	m.entries[key] = payload

	return nil
}

func TestCachedFindIdentityHitsUpstreamOnce(t *testing.T) {
	inner := &scriptedProvider{name: "inner", available: true, identity: &Identity{JournalistID: "j1"}}
	cache := newMemQueryCache()
	logger := zerolog.Nop()

	cached := NewCached(inner, cache, time.Hour, &logger)

	for i := 0; i < 3; i++ {
		identity, err := cached.FindIdentity(context.Background(), "Jane Smith")
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, "j1", identity.JournalistID)
	}

	assert.Equal(t, 1, inner.findCalls)
	assert.Equal(t, 1, cache.writes)
}

func TestCachedCachesEmptyItemLists(t *testing.T) {
	inner := &scriptedProvider{name: "inner", available: true, items: []RawArticle{}}
	cache := newMemQueryCache()
	logger := zerolog.Nop()

	cached := NewCached(inner, cache, time.Hour, &logger)

	_, err := cached.FetchItemsSince(context.Background(), "j1", nil)
	require.NoError(t, err)

	_, err = cached.FetchItemsSince(context.Background(), "j1", nil)
	require.NoError(t, err)

	// An empty success is still a success and is cached.
	assert.Equal(t, 1, inner.fetchCalls)
}

func TestCachedNeverCachesRateLimits(t *testing.T) {
	inner := &scriptedProvider{name: "inner", available: true, itemsErr: ErrRateLimited}
	cache := newMemQueryCache()
	logger := zerolog.Nop()

	cached := NewCached(inner, cache, time.Hour, &logger)

	for i := 0; i < 2; i++ {
		_, err := cached.FetchItemsSince(context.Background(), "j1", nil)
		require.ErrorIs(t, err, ErrRateLimited)
	}

	assert.Equal(t, 2, inner.fetchCalls)
	assert.Zero(t, cache.writes)
}

func TestCachedNeverCachesUnavailable(t *testing.T) {
	inner := &scriptedProvider{name: "inner", available: true, identityErr: ErrUnavailable, itemsErr: ErrUnavailable}
	cache := newMemQueryCache()
	logger := zerolog.Nop()

	cached := NewCached(inner, cache, time.Hour, &logger)

	for i := 0; i < 2; i++ {
		_, err := cached.FindIdentity(context.Background(), "Jane Smith")
		require.ErrorIs(t, err, ErrUnavailable)

		_, err = cached.FetchItemsSince(context.Background(), "j1", nil)
		require.ErrorIs(t, err, ErrUnavailable)
	}

	// The outage is retried every time; only real answers are cached.
	assert.Equal(t, 2, inner.findCalls)
	assert.Equal(t, 2, inner.fetchCalls)
	assert.Zero(t, cache.writes)

	// Once the upstream recovers, the genuine answer goes through and is
	// cached as usual.
	inner.identityErr = nil
	inner.identity = &Identity{JournalistID: "j1"}

	identity, err := cached.FindIdentity(context.Background(), "Jane Smith")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, 1, cache.writes)
}

func TestCachedKeyIncludesSinceBound(t *testing.T) {
	inner := &scriptedProvider{name: "inner", available: true, items: []RawArticle{{Title: "A", URL: "https://x.example/a"}}}
	cache := newMemQueryCache()
	logger := zerolog.Nop()

	cached := NewCached(inner, cache, time.Hour, &logger)

	since := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	_, err := cached.FetchItemsSince(context.Background(), "j1", nil)
	require.NoError(t, err)

	_, err = cached.FetchItemsSince(context.Background(), "j1", &since)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.fetchCalls)
	assert.Contains(t, cache.entries, "inner:items:j1:all")
	assert.Contains(t, cache.entries, "inner:items:j1:2026-02-02")
}
