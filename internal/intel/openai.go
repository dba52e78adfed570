package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/madisonpr/mentions/internal/platform/config"
	"github.com/madisonpr/mentions/internal/platform/observability"
	"github.com/madisonpr/mentions/internal/storage"
)

const (
	summarizeBatchSize    = 10
	maxProfileArticles    = 30
	maxClassifySummaries  = 10
	maxCSVSampleRows      = 10
	summarizeMaxTokens    = 1024
	profileMaxTokens      = 512
	classifyMaxTokens     = 256
	rateLimiterBurst      = 5
	defaultCircuitLimit   = 5
	defaultCircuitTimeout = time.Minute
)

type openaiClient struct {
	cfg    *config.Config
	client *openai.Client
	logger *zerolog.Logger

	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI builds the real text-intelligence client.
func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	rps := cfg.LLM.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLM.APIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("circuit breaker is open until %v", c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	threshold := c.cfg.LLM.CircuitThreshold
	if threshold <= 0 {
		threshold = defaultCircuitLimit
	}

	timeout := c.cfg.LLM.CircuitTimeout
	if timeout <= 0 {
		timeout = defaultCircuitTimeout
	}

	c.consecutiveFailures++
	if c.consecutiveFailures >= threshold {
		c.circuitOpenUntil = time.Now().Add(timeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("circuit breaker opened")
	}
}

// complete runs one chat completion with circuit breaker and rate limiting.
func (c *openaiClient) complete(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.LLM.Model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	observability.LLMRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()

		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// SummarizeBatch summarizes headlines in batches of 10. A failed batch falls
// back to truncated headlines for its members; the result always matches the
// input by position.
func (c *openaiClient) SummarizeBatch(ctx context.Context, pairs []HeadlinePair) ([]string, error) {
	summaries := make([]string, len(pairs))

	for start := 0; start < len(pairs); start += summarizeBatchSize {
		end := start + summarizeBatchSize
		if end > len(pairs) {
			end = len(pairs)
		}

		batch := pairs[start:end]

		var sb strings.Builder
		for i, p := range batch {
			fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, p.Outlet, p.Headline)
		}

		prompt := fmt.Sprintf(summarizePromptTemplate, sb.String(), len(batch))

		response, err := c.complete(ctx, "summarize", prompt, summarizeMaxTokens)
		if err != nil {
			c.logger.Warn().Err(err).Msg("summarize batch failed, using headline fallback")

			copy(summaries[start:end], fallbackSummaries(batch))

			continue
		}

		parsed := parseNumberedSummaries(response, len(batch))

		for i := range batch {
			if parsed[i] != "" {
				summaries[start+i] = parsed[i]
			} else {
				summaries[start+i] = truncate(batch[i].Headline, maxFallbackSummaryLen)
			}
		}
	}

	return summaries, nil
}

// GenerateProfile infers affiliation and bio from up to 30 recent articles.
func (c *openaiClient) GenerateProfile(ctx context.Context, name string, articles []storage.Article, titleHint string) (Profile, error) {
	if len(articles) == 0 {
		return Profile{}, nil
	}

	recent := articles
	if len(recent) > maxProfileArticles {
		recent = recent[:maxProfileArticles]
	}

	var sb strings.Builder

	for _, a := range recent {
		fmt.Fprintf(&sb, "- %q | %s | %s", a.Headline, a.Outlet, a.PublishedOn.Format("2006-01-02"))

		if len(a.Topics) > 0 {
			fmt.Fprintf(&sb, " | Topics: %s", strings.Join(a.Topics, ", "))
		}

		sb.WriteString("\n")
	}

	hint := ""
	if titleHint != "" {
		hint = "\nKnown title/role: " + titleHint
	}

	prompt := fmt.Sprintf(profilePromptTemplate, name, hint, sb.String())

	response, err := c.complete(ctx, "profile", prompt, profileMaxTokens)
	if err != nil {
		c.logger.Warn().Err(err).Str("reporter", name).Msg("profile generation failed, using outlet fallback")

		return fallbackProfile(articles), nil
	}

	var profile Profile

	if err := json.Unmarshal([]byte(stripCodeFences(response)), &profile); err != nil {
		return fallbackProfile(articles), nil
	}

	return profile, nil
}

// Classify decides professional-services relevance from outlets and up to 10
// representative summaries.
func (c *openaiClient) Classify(ctx context.Context, name string, outlets []string, summaries []string) (Classification, error) {
	if len(summaries) > maxClassifySummaries {
		summaries = summaries[:maxClassifySummaries]
	}

	outletsText := strings.Join(outlets, ", ")
	if outletsText == "" {
		outletsText = "Unknown"
	}

	var sb strings.Builder
	for _, s := range summaries {
		sb.WriteString("- " + s + "\n")
	}

	prompt := fmt.Sprintf(classifyPromptTemplate, name, outletsText, sb.String())

	response, err := c.complete(ctx, "classify", prompt, classifyMaxTokens)
	if err != nil {
		c.logger.Warn().Err(err).Str("reporter", name).Msg("classification failed, using keyword fallback")

		return fallbackClassify(outlets, summaries), nil
	}

	var result Classification

	if err := json.Unmarshal([]byte(stripCodeFences(response)), &result); err != nil {
		return fallbackClassify(outlets, summaries), nil
	}

	return result, nil
}

// AnalyzeCSV maps roster columns to reporter fields.
func (c *openaiClient) AnalyzeCSV(ctx context.Context, headers []string, sampleRows [][]string) (ColumnMapping, error) {
	if len(sampleRows) > maxCSVSampleRows {
		sampleRows = sampleRows[:maxCSVSampleRows]
	}

	var sb strings.Builder
	for _, row := range sampleRows {
		sb.WriteString(strings.Join(row, " | ") + "\n")
	}

	prompt := fmt.Sprintf(analyzeCSVPromptTemplate, strings.Join(headers, ", "), sb.String())

	response, err := c.complete(ctx, "analyze_csv", prompt, classifyMaxTokens)
	if err != nil {
		c.logger.Warn().Err(err).Msg("csv analysis failed, using header fallback")

		return fallbackColumnMapping(headers), nil
	}

	var mapping ColumnMapping

	if err := json.Unmarshal([]byte(stripCodeFences(response)), &mapping); err != nil {
		return fallbackColumnMapping(headers), nil
	}

	return mapping, nil
}

// stripCodeFences unwraps a markdown-fenced response body.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}

	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}

// parseNumberedSummaries extracts up to n numbered lines from a response,
// matched to inputs by order of appearance.
func parseNumberedSummaries(response string, n int) []string {
	parsed := make([]string, n)
	idx := 0

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}

		summary := strings.TrimLeft(line, "0123456789.)-: ")
		if summary == "" {
			continue
		}

		if idx < n {
			parsed[idx] = summary
			idx++
		}
	}

	return parsed
}
