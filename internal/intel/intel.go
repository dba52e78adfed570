// Package intel adapts a text-generation provider for summarization, profile
// generation, relevance classification and CSV column mapping.
//
// Every operation has a deterministic local fallback so an unavailable
// provider degrades output quality instead of failing a resolution. An empty
// or "mock" API key selects a client built entirely from the fallbacks.
package intel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/madisonpr/mentions/internal/platform/config"
	"github.com/madisonpr/mentions/internal/storage"
)

// HeadlinePair is one summarization input.
type HeadlinePair struct {
	Headline string
	Outlet   string
}

// Profile is the generated affiliation and biography for a reporter.
type Profile struct {
	CurrentOutlet string `json:"current_outlet"`
	Bio           string `json:"reporter_bio"`
}

// Classification is the relevance verdict for a reporter.
type Classification struct {
	Relevant  bool   `json:"relevant"`
	Rationale string `json:"rationale"`
}

// ColumnMapping maps roster CSV headers to reporter fields. Values are header
// names from the uploaded file; empty means the field is absent.
type ColumnMapping struct {
	Name     string `json:"name"`
	Outlet   string `json:"outlet"`
	Bio      string `json:"bio"`
	Twitter  string `json:"twitter"`
	LinkedIn string `json:"linkedin"`
}

// Client is the capability interface for the text-intelligence provider.
type Client interface {
	// SummarizeBatch returns one summary per pair, matched by position.
	SummarizeBatch(ctx context.Context, pairs []HeadlinePair) ([]string, error)

	// GenerateProfile infers the current outlet and a short prose bio from
	// the complete recent article history.
	GenerateProfile(ctx context.Context, name string, articles []storage.Article, titleHint string) (Profile, error)

	// Classify decides whether a reporter's coverage is relevant to
	// professional services firms.
	Classify(ctx context.Context, name string, outlets []string, summaries []string) (Classification, error)

	// AnalyzeCSV maps uploaded roster columns to reporter fields.
	AnalyzeCSV(ctx context.Context, headers []string, sampleRows [][]string) (ColumnMapping, error)
}

const llmAPIKeyMock = "mock"

// New selects the real client or the deterministic mock based on credentials.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLM.APIKey == "" || cfg.LLM.APIKey == llmAPIKeyMock {
		return &mockClient{}
	}

	return NewOpenAI(cfg, logger)
}

// mockClient serves every operation from the deterministic fallbacks.
type mockClient struct{}

func (c *mockClient) SummarizeBatch(_ context.Context, pairs []HeadlinePair) ([]string, error) {
	return fallbackSummaries(pairs), nil
}

func (c *mockClient) GenerateProfile(_ context.Context, _ string, articles []storage.Article, _ string) (Profile, error) {
	return fallbackProfile(articles), nil
}

func (c *mockClient) Classify(_ context.Context, _ string, outlets []string, summaries []string) (Classification, error) {
	return fallbackClassify(outlets, summaries), nil
}

func (c *mockClient) AnalyzeCSV(_ context.Context, headers []string, _ [][]string) (ColumnMapping, error) {
	return fallbackColumnMapping(headers), nil
}
