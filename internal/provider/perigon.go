package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/madisonpr/mentions/internal/platform/observability"
	"github.com/madisonpr/mentions/internal/storage"
)

const (
	perigonBaseURL        = "https://api.goperigon.com/v1"
	perigonDefaultTimeout = 30 * time.Second
	perigonDefaultRPM     = 30
	perigonHistoryDays    = 365
	perigonPageSize       = 100
	perigonParamAPIKey    = "apiKey"

	secondsPerMinute = 60.0
)

var (
	errPerigonBadStatus = errors.New("perigon unexpected status")
)

// PerigonClient implements Provider for the Perigon journalist API.
type PerigonClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	historyDays int
	logger      *zerolog.Logger
}

// PerigonConfig holds configuration for the Perigon provider.
type PerigonConfig struct {
	APIKey         string
	RequestsPerMin int
	Timeout        time.Duration
	HistoryDays    int
}

// NewPerigon creates a new Perigon provider instance.
func NewPerigon(cfg PerigonConfig, logger *zerolog.Logger) *PerigonClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = perigonDefaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = perigonDefaultRPM
	}

	historyDays := cfg.HistoryDays
	if historyDays <= 0 {
		historyDays = perigonHistoryDays
	}

	return &PerigonClient{
		baseURL: perigonBaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		historyDays: historyDays,
		logger:      logger,
	}
}

func (p *PerigonClient) Name() Name { return ProviderPerigon }

func (p *PerigonClient) IsAvailable() bool { return p.apiKey != "" }

type perigonJournalist struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Title         string `json:"title"`
	TwitterHandle string `json:"twitterHandle"`
	LinkedinURL   string `json:"linkedinUrl"`
	WebsiteURL    string `json:"websiteUrl"`
	TopSources    []struct {
		Name string `json:"name"`
	} `json:"topSources"`
}

type perigonJournalistSearch struct {
	Results []perigonJournalist `json:"results"`
}

type perigonArticle struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	PubDate string `json:"pubDate"`
	Source  struct {
		Domain string `json:"domain"`
	} `json:"source"`
	Topics []struct {
		Name string `json:"name"`
	} `json:"topics"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
}

type perigonArticleSearch struct {
	Articles []perigonArticle `json:"articles"`
}

// FindIdentity searches for a journalist by name and fetches detail for
// social links. An unknown name yields (nil, nil).
func (p *PerigonClient) FindIdentity(ctx context.Context, name string) (*Identity, error) {
	var search perigonJournalistSearch

	err := p.get(ctx, "/journalists", url.Values{"name": {name}}, &search)
	if err != nil {
		return nil, p.collapse("find identity", err)
	}

	if len(search.Results) == 0 || search.Results[0].ID == "" {
		return nil, nil
	}

	journalistID := search.Results[0].ID

	// Detail call fills in social links; a failure here still yields the id.
	var detail perigonJournalist

	if err := p.get(ctx, "/journalists/"+journalistID, url.Values{}, &detail); err != nil {
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}

		detail = search.Results[0]
	}

	links := &storage.SocialLinks{
		TwitterHandle: detail.TwitterHandle,
		LinkedInURL:   detail.LinkedinURL,
		WebsiteURL:    detail.WebsiteURL,
		Title:         detail.Title,
	}
	if detail.TwitterHandle != "" {
		links.TwitterURL = "https://twitter.com/" + detail.TwitterHandle
	}

	return &Identity{JournalistID: journalistID, SocialLinks: links}, nil
}

// FetchItemsSince fetches English articles for a journalist id, bounded below
// by since or by the configured historical window.
func (p *PerigonClient) FetchItemsSince(ctx context.Context, journalistID string, since *time.Time) ([]RawArticle, error) {
	from := time.Now().AddDate(0, 0, -p.historyDays)
	if since != nil {
		from = *since
	}

	params := url.Values{
		"journalistId": {journalistID},
		"from":         {from.Format("2006-01-02")},
		"sortBy":       {"date"},
		"size":         {strconv.Itoa(perigonPageSize)},
		"language":     {"en"},
	}

	var search perigonArticleSearch

	if err := p.get(ctx, "/all", params, &search); err != nil {
		return nil, p.collapse("fetch items", err)
	}

	items := make([]RawArticle, 0, len(search.Articles))

	for _, a := range search.Articles {
		topics := make([]string, 0, len(a.Topics)+len(a.Categories))
		for _, t := range a.Topics {
			topics = append(topics, t.Name)
		}

		for _, c := range a.Categories {
			topics = append(topics, c.Name)
		}

		items = append(items, RawArticle{
			Title:        a.Title,
			URL:          a.URL,
			PublishedAt:  a.PubDate,
			SourceDomain: a.Source.Domain,
			Topics:       topics,
		})
	}

	return items, nil
}

// FetchByTopic returns journalists covering a topic.
func (p *PerigonClient) FetchByTopic(ctx context.Context, topic string, limit int) ([]IdentitySummary, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"topic": {topic},
		"size":  {strconv.Itoa(limit)},
	}

	var search perigonJournalistSearch

	if err := p.get(ctx, "/journalists", params, &search); err != nil {
		return nil, p.collapse("fetch by topic", err)
	}

	summaries := make([]IdentitySummary, 0, len(search.Results))

	for _, j := range search.Results {
		summary := IdentitySummary{Name: j.Name, Title: j.Title}
		if len(j.TopSources) > 0 {
			summary.TopOutlet = j.TopSources[0].Name
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (p *PerigonClient) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("perigon rate limiter: %w", err)
	}

	params.Set(perigonParamAPIKey, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create perigon request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		observability.ProviderRequests.WithLabelValues(string(ProviderPerigon), "error").Inc()

		return fmt.Errorf("perigon request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		observability.ProviderRequests.WithLabelValues(string(ProviderPerigon), "rate_limited").Inc()

		return ErrRateLimited
	}

	if resp.StatusCode != http.StatusOK {
		observability.ProviderRequests.WithLabelValues(string(ProviderPerigon), "error").Inc()

		return fmt.Errorf("%w: %d", errPerigonBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read perigon response: %w", err)
	}

	observability.ProviderRequests.WithLabelValues(string(ProviderPerigon), "ok").Inc()

	return json.Unmarshal(body, target)
}

// collapse maps non-rate-limit upstream failures to ErrUnavailable so callers
// degrade to empty results without any layer caching the failure.
func (p *PerigonClient) collapse(op string, err error) error {
	if errors.Is(err, ErrRateLimited) {
		return err
	}

	p.logger.Debug().Err(err).Str("op", op).Msg("perigon call failed, degrading to empty result")

	return fmt.Errorf("%w: perigon %s: %s", ErrUnavailable, op, err)
}
