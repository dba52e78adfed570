package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPerigon(t *testing.T, handler http.HandlerFunc) *PerigonClient {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := zerolog.Nop()
	client := NewPerigon(PerigonConfig{APIKey: "test-key", RequestsPerMin: 6000}, &logger)
	client.baseURL = ts.URL

	return client
}

func TestPerigonFindIdentity(t *testing.T) {
	client := newTestPerigon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))

		switch r.URL.Path {
		case "/journalists":
			_, _ = w.Write([]byte(`{"results":[{"id":"j123","name":"Jane Smith","title":"Senior Reporter"}]}`))
		case "/journalists/j123":
			_, _ = w.Write([]byte(`{"id":"j123","title":"Senior Reporter","twitterHandle":"janes","linkedinUrl":"https://linkedin.com/in/janes"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	identity, err := client.FindIdentity(context.Background(), "Jane Smith")
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, "j123", identity.JournalistID)
	require.NotNil(t, identity.SocialLinks)
	assert.Equal(t, "janes", identity.SocialLinks.TwitterHandle)
	assert.Equal(t, "https://twitter.com/janes", identity.SocialLinks.TwitterURL)
	assert.Equal(t, "https://linkedin.com/in/janes", identity.SocialLinks.LinkedInURL)
	assert.Equal(t, "Senior Reporter", identity.SocialLinks.Title)
}

func TestPerigonFindIdentityUnknownName(t *testing.T) {
	client := newTestPerigon(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	identity, err := client.FindIdentity(context.Background(), "Nobody Known")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestPerigonFindIdentityDetailFailureKeepsID(t *testing.T) {
	client := newTestPerigon(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/journalists" {
			_, _ = w.Write([]byte(`{"results":[{"id":"j123","title":"Reporter"}]}`))

			return
		}

		w.WriteHeader(http.StatusInternalServerError)
	})

	identity, err := client.FindIdentity(context.Background(), "Jane Smith")
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, "j123", identity.JournalistID)
	assert.Equal(t, "Reporter", identity.SocialLinks.Title)
}

func TestPerigonRateLimitSurfaces(t *testing.T) {
	client := newTestPerigon(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FindIdentity(context.Background(), "Jane Smith")
	require.ErrorIs(t, err, ErrRateLimited)

	_, err = client.FetchItemsSince(context.Background(), "j123", nil)
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestPerigonServerErrorIsUnavailable(t *testing.T) {
	client := newTestPerigon(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	identity, err := client.FindIdentity(context.Background(), "Jane Smith")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Nil(t, identity)

	items, err := client.FetchItemsSince(context.Background(), "j123", nil)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, items)
}

func TestPerigonFetchItemsSince(t *testing.T) {
	since := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	client := newTestPerigon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/all", r.URL.Path)
		assert.Equal(t, "j123", r.URL.Query().Get("journalistId"))
		assert.Equal(t, "2026-02-02", r.URL.Query().Get("from"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))

		_, _ = w.Write([]byte(`{"articles":[
			{"title":"Audit shakeup","url":"https://wsj.com/a","pubDate":"2026-02-10","source":{"domain":"wsj.com"},
			 "topics":[{"name":"accounting"}],"categories":[{"name":"Business"}]}
		]}`))
	})

	items, err := client.FetchItemsSince(context.Background(), "j123", &since)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Audit shakeup", items[0].Title)
	assert.Equal(t, "wsj.com", items[0].SourceDomain)
	assert.Equal(t, []string{"accounting", "Business"}, items[0].Topics)
}

func TestPerigonFetchByTopic(t *testing.T) {
	client := newTestPerigon(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/journalists", r.URL.Path)
		assert.Equal(t, "accounting", r.URL.Query().Get("topic"))
		assert.Equal(t, "5", r.URL.Query().Get("size"))

		_, _ = w.Write([]byte(`{"results":[
			{"name":"Jane Smith","title":"Senior Reporter","topSources":[{"name":"Wall Street Journal"}]}
		]}`))
	})

	hits, err := client.FetchByTopic(context.Background(), "accounting", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "Jane Smith", hits[0].Name)
	assert.Equal(t, "Wall Street Journal", hits[0].TopOutlet)
}

func TestPerigonIsAvailable(t *testing.T) {
	logger := zerolog.Nop()

	assert.True(t, NewPerigon(PerigonConfig{APIKey: "k"}, &logger).IsAvailable())
	assert.False(t, NewPerigon(PerigonConfig{}, &logger).IsAvailable())
}
