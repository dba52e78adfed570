package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/madisonpr/mentions/internal/platform/observability"
)

const (
	eventRegistryBaseURL        = "https://eventregistry.org/api/v1"
	eventRegistryDefaultTimeout = 30 * time.Second
	eventRegistryDefaultRPM     = 10
	eventRegistryPageSize       = 100
	eventRegistryMaxAuthorURIs  = 10
	eventRegistryURISeparator   = ","
)

var errEventRegistryBadStatus = errors.New("eventregistry unexpected status")

// EventRegistryClient implements Provider for the Event Registry (NewsAPI.ai)
// API. Author metadata there is inconsistent across sources, so articles are
// filtered strictly against the byline before being returned.
type EventRegistryClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// EventRegistryConfig holds configuration for the Event Registry provider.
type EventRegistryConfig struct {
	APIKey         string
	RequestsPerMin int
	Timeout        time.Duration
}

// NewEventRegistry creates a new Event Registry provider instance.
func NewEventRegistry(cfg EventRegistryConfig, logger *zerolog.Logger) *EventRegistryClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = eventRegistryDefaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = eventRegistryDefaultRPM
	}

	return &EventRegistryClient{
		baseURL: eventRegistryBaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		logger:      logger,
	}
}

func (c *EventRegistryClient) Name() Name { return ProviderEventRegistry }

func (c *EventRegistryClient) IsAvailable() bool { return c.apiKey != "" }

type eventRegistryAuthor struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type eventRegistryArticle struct {
	Title   string                `json:"title"`
	URL     string                `json:"url"`
	Date    string                `json:"date"`
	Authors []eventRegistryAuthor `json:"authors"`
	Source  struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	} `json:"source"`
}

type eventRegistryArticleResult struct {
	Articles struct {
		Results []eventRegistryArticle `json:"results"`
	} `json:"articles"`
}

// FindIdentity resolves a name via suggestAuthors. The same person appears
// under one URI per source they write for, so the identity carries every
// suggested URI joined into a single id. Event Registry exposes no social
// profile data, so the identity carries no links.
func (c *EventRegistryClient) FindIdentity(ctx context.Context, name string) (*Identity, error) {
	uris, err := c.authorURIs(ctx, name)
	if err != nil {
		return nil, c.collapse("find identity", err)
	}

	if len(uris) == 0 {
		return nil, nil
	}

	return &Identity{JournalistID: strings.Join(uris, eventRegistryURISeparator)}, nil
}

// FetchItemsSince fetches articles attributed to any of the identity's author
// URIs and keeps only those whose byline actually carries one of them. When
// the URI query comes back empty, a keyword search on the author's name runs
// as a last resort, filtered just as strictly.
func (c *EventRegistryClient) FetchItemsSince(ctx context.Context, journalistID string, since *time.Time) ([]RawArticle, error) {
	uris := splitAuthorURIs(journalistID)
	if len(uris) == 0 {
		return nil, nil
	}

	articles, err := c.articlesByAuthorURIs(ctx, uris)
	if err != nil {
		return nil, c.collapse("fetch items", err)
	}

	items := c.filterByByline(articles, uris, since)
	if len(items) > 0 {
		return items, nil
	}

	// Last resort: some sources never attach author URIs to articles, so a
	// keyword search on the name can surface what the URI query missed.
	name := authorDisplayName(uris[0])
	if name == "" {
		return items, nil
	}

	articles, err = c.articlesByKeyword(ctx, name)
	if err != nil {
		return nil, c.collapse("fetch items by keyword", err)
	}

	return c.filterByByline(articles, uris, since), nil
}

// FetchByTopic runs a keyword search and aggregates the bylines of the hits
// into identity summaries, most-published first.
func (c *EventRegistryClient) FetchByTopic(ctx context.Context, topic string, limit int) ([]IdentitySummary, error) {
	if limit <= 0 {
		limit = 10
	}

	articles, err := c.articlesByKeyword(ctx, topic)
	if err != nil {
		return nil, c.collapse("fetch by topic", err)
	}

	type authorAgg struct {
		name   string
		outlet string
		count  int
	}

	byAuthor := make(map[string]*authorAgg)
	order := make([]string, 0)

	for _, a := range articles {
		for _, author := range a.Authors {
			if author.Name == "" {
				continue
			}

			key := strings.ToLower(author.Name)

			agg, ok := byAuthor[key]
			if !ok {
				agg = &authorAgg{name: author.Name, outlet: a.Source.Title}
				byAuthor[key] = agg
				order = append(order, key)
			}

			agg.count++
		}
	}

	summaries := make([]IdentitySummary, 0, limit)

	for _, key := range order {
		agg := byAuthor[key]
		summaries = append(summaries, IdentitySummary{
			Name:         agg.name,
			TopOutlet:    agg.outlet,
			ArticleCount: agg.count,
		})

		if len(summaries) >= limit {
			break
		}
	}

	return summaries, nil
}

// filterByByline keeps articles whose byline carries one of the author URIs,
// or (for keyword hits without URIs) whose author name matches the identity.
// since is applied here because the API's date filter is unreliable for
// author queries.
func (c *EventRegistryClient) filterByByline(articles []eventRegistryArticle, uris []string, since *time.Time) []RawArticle {
	uriSet := make(map[string]bool, len(uris))
	names := make(map[string]bool, len(uris))

	for _, u := range uris {
		uriSet[u] = true

		if n := authorDisplayName(u); n != "" {
			names[strings.ToLower(n)] = true
		}
	}

	var sinceBound string
	if since != nil {
		sinceBound = since.Format("2006-01-02")
	}

	items := make([]RawArticle, 0, len(articles))

	for _, a := range articles {
		if sinceBound != "" && a.Date != "" && a.Date < sinceBound {
			continue
		}

		if !bylineMatches(a.Authors, uriSet, names) {
			continue
		}

		items = append(items, RawArticle{
			Title:        a.Title,
			URL:          a.URL,
			PublishedAt:  a.Date,
			SourceDomain: a.Source.URI,
		})
	}

	return items
}

func bylineMatches(authors []eventRegistryAuthor, uriSet, names map[string]bool) bool {
	for _, author := range authors {
		if author.URI != "" && uriSet[author.URI] {
			return true
		}

		if author.Name != "" && names[strings.ToLower(author.Name)] {
			return true
		}
	}

	return false
}

// articlesByAuthorURIs queries getArticles with every URI OR-ed together.
func (c *EventRegistryClient) articlesByAuthorURIs(ctx context.Context, uris []string) ([]eventRegistryArticle, error) {
	var authorQuery interface{}

	if len(uris) == 1 {
		authorQuery = map[string]interface{}{"authorUri": uris[0]}
	} else {
		clauses := make([]interface{}, 0, len(uris))
		for _, u := range uris {
			clauses = append(clauses, map[string]interface{}{"authorUri": u})
		}

		authorQuery = map[string]interface{}{"$or": clauses}
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"$query": authorQuery,
		},
		"resultType":            "articles",
		"articlesSortBy":        "date",
		"articlesSortByAsc":     false,
		"articlesCount":         eventRegistryPageSize,
		"includeArticleAuthors": true,
		"apiKey":                c.apiKey,
	}

	var result eventRegistryArticleResult

	if err := c.post(ctx, "/article/getArticles", query, &result); err != nil {
		return nil, err
	}

	return result.Articles.Results, nil
}

func (c *EventRegistryClient) articlesByKeyword(ctx context.Context, keyword string) ([]eventRegistryArticle, error) {
	query := map[string]interface{}{
		"keyword":               keyword,
		"lang":                  "eng",
		"articlesCount":         eventRegistryPageSize,
		"articlesSortBy":        "date",
		"includeArticleAuthors": true,
		"apiKey":                c.apiKey,
	}

	var result eventRegistryArticleResult

	if err := c.post(ctx, "/article/getArticles", query, &result); err != nil {
		return nil, err
	}

	return result.Articles.Results, nil
}

// authorURIs returns all author URIs suggested for a name.
func (c *EventRegistryClient) authorURIs(ctx context.Context, name string) ([]string, error) {
	payload := map[string]interface{}{
		"prefix": name,
		"apiKey": c.apiKey,
	}

	var suggestions []eventRegistryAuthor

	if err := c.post(ctx, "/suggestAuthors", payload, &suggestions); err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(suggestions))

	for _, s := range suggestions {
		if s.URI != "" {
			uris = append(uris, s.URI)
		}

		if len(uris) >= eventRegistryMaxAuthorURIs {
			break
		}
	}

	return uris, nil
}

func splitAuthorURIs(journalistID string) []string {
	parts := strings.Split(journalistID, eventRegistryURISeparator)

	uris := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			uris = append(uris, p)
		}
	}

	return uris
}

// authorDisplayName recovers a person name from an author URI, which has the
// shape "first_last@source-domain".
func authorDisplayName(uri string) string {
	local, _, _ := strings.Cut(uri, "@")

	return strings.TrimSpace(strings.ReplaceAll(local, "_", " "))
}

func (c *EventRegistryClient) post(ctx context.Context, path string, payload interface{}, target interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("eventregistry rate limiter: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal eventregistry request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create eventregistry request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.ProviderRequests.WithLabelValues(string(ProviderEventRegistry), "error").Inc()

		return fmt.Errorf("eventregistry request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		observability.ProviderRequests.WithLabelValues(string(ProviderEventRegistry), "rate_limited").Inc()

		return ErrRateLimited
	}

	if resp.StatusCode != http.StatusOK {
		observability.ProviderRequests.WithLabelValues(string(ProviderEventRegistry), "error").Inc()

		return fmt.Errorf("%w: %d", errEventRegistryBadStatus, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.ProviderRequests.WithLabelValues(string(ProviderEventRegistry), "error").Inc()

		return fmt.Errorf("read eventregistry response: %w", err)
	}

	observability.ProviderRequests.WithLabelValues(string(ProviderEventRegistry), "ok").Inc()

	return json.Unmarshal(respBody, target)
}

// collapse maps non-rate-limit upstream failures to ErrUnavailable so callers
// degrade to empty results without any layer caching the failure.
func (c *EventRegistryClient) collapse(op string, err error) error {
	if errors.Is(err, ErrRateLimited) {
		return err
	}

	c.logger.Debug().Err(err).Str("op", op).Msg("eventregistry call failed, degrading to empty result")

	return fmt.Errorf("%w: eventregistry %s: %s", ErrUnavailable, op, err)
}
