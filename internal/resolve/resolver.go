package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/madisonpr/mentions/internal/dedup"
	"github.com/madisonpr/mentions/internal/intel"
	"github.com/madisonpr/mentions/internal/normalize"
	"github.com/madisonpr/mentions/internal/platform/config"
	"github.com/madisonpr/mentions/internal/platform/observability"
	"github.com/madisonpr/mentions/internal/provider"
	"github.com/madisonpr/mentions/internal/storage"
)

const (
	minNameLen       = 2
	incrementalSkew  = 24 * time.Hour
	profileKeyPrefix = "profile:"
)

// ErrInvalidInput rejects lookups whose name is too short to resolve.
var ErrInvalidInput = errors.New("reporter name too short")

// Store is the persistence surface the resolver needs.
type Store interface {
	GetReporter(ctx context.Context, name string) (*storage.Reporter, error)
	UpsertReporter(ctx context.Context, p storage.UpsertReporterParams) (string, error)
	UpdateProfile(ctx context.Context, reporterID, currentOutlet, bio string) error
	TouchReporter(ctx context.Context, reporterID string) error
	UpdateRelevance(ctx context.Context, reporterID string, relevant bool, rationale string) error

	GetArticles(ctx context.Context, reporterID string) ([]storage.Article, error)
	LatestArticleDate(ctx context.Context, reporterID string) (time.Time, error)
	InsertArticles(ctx context.Context, reporterID string, articles []storage.Article) (int, error)

	GetCachedSummary(ctx context.Context, key string) (string, error)
	SetCachedSummary(ctx context.Context, key, summary string) error
	GetCachedSummaries(ctx context.Context, keys []string) (map[string]string, error)
	SetCachedSummaries(ctx context.Context, summaries map[string]string) error
}

// Resolver runs the cache-first dossier pipeline.
type Resolver struct {
	store    Store
	upstream provider.Provider
	intel    intel.Client
	cfg      config.ResolverConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

// New builds a Resolver. The clock is injectable for tests.
func New(store Store, upstream provider.Provider, ic intel.Client, cfg config.ResolverConfig, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		store:    store,
		upstream: upstream,
		intel:    ic,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve answers a reporter lookup. forceRefresh bypasses the freshness
// window but never re-runs an already decided relevance verdict.
func (r *Resolver) Resolve(ctx context.Context, name string, forceRefresh bool) (Dossier, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minNameLen {
		return Dossier{}, fmt.Errorf("%w: %q", ErrInvalidInput, name)
	}

	now := r.now()
	start := now

	rec, err := r.store.GetReporter(ctx, trimmed)
	if err != nil {
		return Dossier{}, fmt.Errorf("resolve %q: %w", trimmed, err)
	}

	var articles []storage.Article

	if rec != nil {
		articles, err = r.store.GetArticles(ctx, rec.ID)
		if err != nil {
			return Dossier{}, fmt.Errorf("resolve %q: %w", trimmed, err)
		}
	}

	tier := selectTier(rec, len(articles) > 0, forceRefresh, r.cfg.FreshnessWindow, now)

	r.logger.Info().
		Str("reporter", storage.NormalizeName(trimmed)).
		Str("tier", tier.String()).
		Bool("force", forceRefresh).
		Msg("resolving reporter")

	var d Dossier

	switch tier {
	case TierFresh:
		d, err = r.resolveFresh(ctx, rec, articles, now)
	case TierIncremental:
		d, err = r.resolveIncremental(ctx, rec, now)
	default:
		d, err = r.resolveColdStart(ctx, trimmed, now)
	}

	if err != nil {
		return Dossier{}, err
	}

	observability.Resolutions.WithLabelValues(tier.String()).Inc()
	observability.ResolutionDuration.WithLabelValues(tier.String()).Observe(time.Since(start).Seconds())

	return d, nil
}

// resolveFresh serves entirely from storage. The only write it may perform is
// a deferred relevance classification that earlier passes could not make.
func (r *Resolver) resolveFresh(ctx context.Context, rec *storage.Reporter, articles []storage.Article, now time.Time) (Dossier, error) {
	if !rec.Relevance.Known() {
		r.classifyIfUnknown(ctx, rec, articles)

		refreshed, err := r.store.GetReporter(ctx, rec.Name)
		if err == nil && refreshed != nil {
			rec = refreshed
		}
	}

	return buildDossier(rec, articles, now, TierFresh, r.recentWindow()), nil
}

// resolveIncremental tops up a known reporter from the day after its latest
// stored item, then regenerates the profile from the complete set.
func (r *Resolver) resolveIncremental(ctx context.Context, rec *storage.Reporter, now time.Time) (Dossier, error) {
	latest, err := r.store.LatestArticleDate(ctx, rec.ID)
	if err != nil {
		return Dossier{}, fmt.Errorf("incremental %q: %w", rec.Name, err)
	}

	var since *time.Time

	if !latest.IsZero() {
		bound := latest.Add(incrementalSkew)
		since = &bound
	}

	raw, err := r.upstream.FetchItemsSince(ctx, rec.ProviderJournalistID, since)
	if err != nil {
		if errors.Is(err, provider.ErrRateLimited) {
			r.logger.Warn().Str("reporter", rec.Name).Msg("rate limited, serving stored dossier")

			return r.storedDossier(ctx, rec, now, TierIncremental)
		}

		if errors.Is(err, provider.ErrUnavailable) {
			r.logger.Warn().Err(err).Str("reporter", rec.Name).Msg("upstream unavailable, serving stored dossier")

			return r.storedDossier(ctx, rec, now, TierIncremental)
		}

		return Dossier{}, fmt.Errorf("incremental %q: %w", rec.Name, err)
	}

	fresh := r.dedupeFetched(raw)

	if len(fresh) > 0 {
		r.summarize(ctx, fresh)

		inserted, err := r.store.InsertArticles(ctx, rec.ID, fresh)
		if err != nil {
			return Dossier{}, fmt.Errorf("incremental %q: %w", rec.Name, err)
		}

		observability.ArticlesInserted.Add(float64(inserted))
	}

	all, err := r.store.GetArticles(ctx, rec.ID)
	if err != nil {
		return Dossier{}, fmt.Errorf("incremental %q: %w", rec.Name, err)
	}

	if err := r.refreshProfile(ctx, rec, all); err != nil {
		return Dossier{}, fmt.Errorf("incremental %q: %w", rec.Name, err)
	}

	r.classifyIfUnknown(ctx, rec, all)

	refreshed, err := r.store.GetReporter(ctx, rec.Name)
	if err != nil || refreshed == nil {
		refreshed = rec
	}

	return buildDossier(refreshed, all, now, TierIncremental, r.recentWindow()), nil
}

// resolveColdStart resolves identity, pulls the full historical window and
// persists everything. Identity failures and empty fetches persist nothing
// beyond the resolved identity itself.
func (r *Resolver) resolveColdStart(ctx context.Context, name string, now time.Time) (Dossier, error) {
	identity, err := r.upstream.FindIdentity(ctx, name)
	if err != nil {
		if errors.Is(err, provider.ErrRateLimited) || errors.Is(err, provider.ErrUnavailable) {
			r.logger.Warn().Err(err).Str("reporter", name).Msg("upstream degraded during identity resolution")

			return emptyDossier(name, now, TierColdStart), nil
		}

		return Dossier{}, fmt.Errorf("cold start %q: %w", name, err)
	}

	if identity == nil {
		r.logger.Info().Str("reporter", name).Msg("no identity found")

		return emptyDossier(name, now, TierColdStart), nil
	}

	raw, err := r.upstream.FetchItemsSince(ctx, identity.JournalistID, nil)
	if err != nil {
		if errors.Is(err, provider.ErrRateLimited) || errors.Is(err, provider.ErrUnavailable) {
			r.logger.Warn().Err(err).Str("reporter", name).Msg("upstream degraded during history fetch")

			return emptyDossier(name, now, TierColdStart), nil
		}

		return Dossier{}, fmt.Errorf("cold start %q: %w", name, err)
	}

	items := r.dedupeFetched(raw)

	if len(items) == 0 {
		// Keep the identity so the next lookup skips resolution, but do
		// not pretend the empty fetch is an answer worth serving stale.
		id, err := r.store.UpsertReporter(ctx, storage.UpsertReporterParams{
			Name:                 name,
			ProviderJournalistID: identity.JournalistID,
			SocialLinks:          identity.SocialLinks,
			Source:               storage.SourceProvider,
		})
		if err != nil {
			return Dossier{}, fmt.Errorf("cold start %q: %w", name, err)
		}

		r.logger.Info().Str("reporter", name).Str("id", id).Msg("identity persisted with no items")

		d := emptyDossier(name, now, TierColdStart)
		if !identity.SocialLinks.Empty() {
			d.SocialLinks = identity.SocialLinks
		}

		return d, nil
	}

	r.summarize(ctx, items)

	titleHint := ""
	if identity.SocialLinks != nil {
		titleHint = identity.SocialLinks.Title
	}

	profile := r.generateProfile(ctx, name, items, titleHint)

	reporterID, err := r.store.UpsertReporter(ctx, storage.UpsertReporterParams{
		Name:                 name,
		ProviderJournalistID: identity.JournalistID,
		SocialLinks:          identity.SocialLinks,
		CurrentOutlet:        profile.CurrentOutlet,
		Bio:                  profile.Bio,
		Source:               storage.SourceProvider,
	})
	if err != nil {
		return Dossier{}, fmt.Errorf("cold start %q: %w", name, err)
	}

	inserted, err := r.store.InsertArticles(ctx, reporterID, items)
	if err != nil {
		return Dossier{}, fmt.Errorf("cold start %q: %w", name, err)
	}

	observability.ArticlesInserted.Add(float64(inserted))

	rec, err := r.store.GetReporter(ctx, name)
	if err != nil || rec == nil {
		return Dossier{}, fmt.Errorf("cold start %q: reporter not readable after persist: %w", name, err)
	}

	stored, err := r.store.GetArticles(ctx, reporterID)
	if err != nil {
		return Dossier{}, fmt.Errorf("cold start %q: %w", name, err)
	}

	r.classifyIfUnknown(ctx, rec, stored)

	refreshed, err := r.store.GetReporter(ctx, name)
	if err == nil && refreshed != nil {
		rec = refreshed
	}

	return buildDossier(rec, stored, now, TierColdStart, r.recentWindow()), nil
}

// dedupeFetched normalizes a raw fetch and collapses syndicated reprints,
// recording how many duplicates were dropped.
func (r *Resolver) dedupeFetched(raw []provider.RawArticle) []storage.Article {
	normalized := normalize.Articles(raw)
	deduped := dedup.BySyndication(normalized)

	if collapsed := len(normalized) - len(deduped); collapsed > 0 {
		observability.SyndicatedCollapsed.Add(float64(collapsed))
	}

	return deduped
}

// storedDossier serves whatever storage already has, used when upstream
// fetches degrade.
func (r *Resolver) storedDossier(ctx context.Context, rec *storage.Reporter, now time.Time, tier Tier) (Dossier, error) {
	articles, err := r.store.GetArticles(ctx, rec.ID)
	if err != nil {
		return Dossier{}, fmt.Errorf("stored dossier %q: %w", rec.Name, err)
	}

	return buildDossier(rec, articles, now, tier, r.recentWindow()), nil
}

// recentWindow is the configured outlet-change comparison window.
func (r *Resolver) recentWindow() time.Duration {
	return time.Duration(r.cfg.RecentWindowDays) * 24 * time.Hour
}

// summarize fills Summary on each article in place, consulting the summary
// cache first and capping fresh generation. Items beyond the cap fall back to
// a truncated headline.
func (r *Resolver) summarize(ctx context.Context, items []storage.Article) {
	keys := make([]string, 0, len(items))
	for _, a := range items {
		keys = append(keys, a.URL)
	}

	cached, err := r.store.GetCachedSummaries(ctx, keys)
	if err != nil {
		r.logger.Debug().Err(err).Msg("summary cache read failed")

		cached = map[string]string{}
	}

	var pending []int

	for i := range items {
		if s, ok := cached[items[i].URL]; ok && s != "" {
			items[i].Summary = s

			continue
		}

		pending = append(pending, i)
	}

	if len(pending) == 0 {
		return
	}

	capped := pending
	if r.cfg.MaxSummarize > 0 && len(capped) > r.cfg.MaxSummarize {
		for _, i := range capped[r.cfg.MaxSummarize:] {
			items[i].Summary = headlineFallback(items[i].Headline)
		}

		capped = capped[:r.cfg.MaxSummarize]
	}

	pairs := make([]intel.HeadlinePair, 0, len(capped))
	for _, i := range capped {
		pairs = append(pairs, intel.HeadlinePair{Headline: items[i].Headline, Outlet: items[i].Outlet})
	}

	summaries, err := r.intel.SummarizeBatch(ctx, pairs)
	if err != nil || len(summaries) != len(capped) {
		r.logger.Warn().Err(err).Msg("summarization failed, using headline fallbacks")

		for _, i := range capped {
			items[i].Summary = headlineFallback(items[i].Headline)
		}

		return
	}

	fresh := make(map[string]string, len(capped))

	for n, i := range capped {
		items[i].Summary = summaries[n]
		fresh[items[i].URL] = summaries[n]
	}

	if err := r.store.SetCachedSummaries(ctx, fresh); err != nil {
		r.logger.Debug().Err(err).Msg("summary cache write failed")
	}
}

// refreshProfile regenerates the outlet and bio from the complete stored set
// and persists them. With nothing stored it only touches last_refreshed.
func (r *Resolver) refreshProfile(ctx context.Context, rec *storage.Reporter, all []storage.Article) error {
	if len(all) == 0 {
		return r.store.TouchReporter(ctx, rec.ID)
	}

	titleHint := ""
	if rec.SocialLinks != nil {
		titleHint = rec.SocialLinks.Title
	}

	profile, err := r.intel.GenerateProfile(ctx, rec.Name, all, titleHint)
	if err != nil {
		r.logger.Warn().Err(err).Str("reporter", rec.Name).Msg("profile generation failed")

		return r.store.TouchReporter(ctx, rec.ID)
	}

	r.cacheProfile(ctx, rec.Name, profile)

	return r.store.UpdateProfile(ctx, rec.ID, profile.CurrentOutlet, profile.Bio)
}

// generateProfile serves a cold-start profile, preferring a cached one.
func (r *Resolver) generateProfile(ctx context.Context, name string, items []storage.Article, titleHint string) intel.Profile {
	key := profileKeyPrefix + storage.NormalizeName(name)

	if payload, err := r.store.GetCachedSummary(ctx, key); err == nil && payload != "" {
		var p intel.Profile
		if err := json.Unmarshal([]byte(payload), &p); err == nil {
			return p
		}
	}

	profile, err := r.intel.GenerateProfile(ctx, name, items, titleHint)
	if err != nil {
		r.logger.Warn().Err(err).Str("reporter", name).Msg("profile generation failed")

		return intel.Profile{}
	}

	r.cacheProfile(ctx, name, profile)

	return profile
}

func (r *Resolver) cacheProfile(ctx context.Context, name string, profile intel.Profile) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return
	}

	key := profileKeyPrefix + storage.NormalizeName(name)
	if err := r.store.SetCachedSummary(ctx, key, string(payload)); err != nil {
		r.logger.Debug().Err(err).Msg("profile cache write failed")
	}
}

// classifyIfUnknown runs the one-shot relevance classifier for reporters that
// have coverage but no verdict yet. The storage guard makes concurrent or
// repeated calls harmless.
func (r *Resolver) classifyIfUnknown(ctx context.Context, rec *storage.Reporter, articles []storage.Article) {
	if rec.Relevance.Known() || len(articles) == 0 {
		return
	}

	seen := map[string]struct{}{}

	var outlets []string

	for _, a := range articles {
		if a.Outlet == "" {
			continue
		}

		if _, ok := seen[a.Outlet]; ok {
			continue
		}

		seen[a.Outlet] = struct{}{}
		outlets = append(outlets, a.Outlet)
	}

	summaries := make([]string, 0, len(articles))

	for _, a := range articles {
		if a.Summary != "" {
			summaries = append(summaries, a.Summary)
		} else {
			summaries = append(summaries, a.Headline)
		}
	}

	verdict, err := r.intel.Classify(ctx, rec.Name, outlets, summaries)
	if err != nil {
		r.logger.Warn().Err(err).Str("reporter", rec.Name).Msg("relevance classification failed, deferring")

		return
	}

	if err := r.store.UpdateRelevance(ctx, rec.ID, verdict.Relevant, verdict.Rationale); err != nil {
		r.logger.Warn().Err(err).Str("reporter", rec.Name).Msg("relevance persist failed")
	}
}

const headlineFallbackLen = 100

func headlineFallback(headline string) string {
	runes := []rune(headline)
	if len(runes) <= headlineFallbackLen {
		return headline
	}

	return string(runes[:headlineFallbackLen]) + "..."
}
