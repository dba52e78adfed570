// Package app wires the application together: storage, upstream providers,
// the intelligence client, the resolution pipeline and the HTTP surfaces.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/madisonpr/mentions/internal/api"
	"github.com/madisonpr/mentions/internal/importer"
	"github.com/madisonpr/mentions/internal/intel"
	"github.com/madisonpr/mentions/internal/platform/config"
	"github.com/madisonpr/mentions/internal/platform/observability"
	"github.com/madisonpr/mentions/internal/platform/worker"
	"github.com/madisonpr/mentions/internal/provider"
	"github.com/madisonpr/mentions/internal/resolve"
	db "github.com/madisonpr/mentions/internal/storage"
)

// App holds the application dependencies.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{cfg: cfg, database: database, logger: logger}
}

// Run serves the API until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	upstream, err := a.buildProviderChain()
	if err != nil {
		return err
	}

	ic := intel.New(a.cfg, a.logger)

	resolver := resolve.New(a.database, upstream, ic, a.cfg.Resolver, a.logger)
	im := importer.New(a.database, ic, a.logger)

	server := api.NewServer(resolver, im, a.logger, a.cfg.Server.Port)

	go a.runCacheJanitor(ctx)

	return server.Run(ctx)
}

// runCacheJanitor periodically deletes expired query cache rows. Readers
// already ignore them; this bounds table growth.
func (a *App) runCacheJanitor(ctx context.Context) {
	err := worker.Loop(ctx, worker.Config{
		Name:         "cache-janitor",
		PollInterval: a.cfg.Provider.CacheSweepInterval,
		Logger:       a.logger,
		Process: func(ctx context.Context) error {
			pruned, err := a.database.PruneExpiredQueries(ctx, a.cfg.Provider.QueryCacheTTL)
			if err != nil {
				return err
			}

			if pruned > 0 {
				a.logger.Debug().Int64("rows", pruned).Msg("expired query cache rows pruned")
			}

			return nil
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error().Err(err).Msg("cache janitor stopped")
	}
}

// StartHealthServer runs the health and metrics endpoints.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.database, a.cfg.Server.HealthPort, a.logger).Start(ctx)
}

// buildProviderChain assembles the configured upstreams in priority order and
// wraps them in the query cache.
func (a *App) buildProviderChain() (provider.Provider, error) {
	var providers []provider.Provider

	if a.cfg.Provider.PerigonAPIKey != "" {
		providers = append(providers, provider.NewPerigon(provider.PerigonConfig{
			APIKey:         a.cfg.Provider.PerigonAPIKey,
			RequestsPerMin: a.cfg.Provider.RequestsPerMin,
			Timeout:        a.cfg.Provider.RequestTimeout,
			HistoryDays:    int(a.cfg.Resolver.HistoryWindow.Hours() / 24),
		}, a.logger))
	}

	if a.cfg.Provider.EventRegistryAPIKey != "" {
		providers = append(providers, provider.NewEventRegistry(provider.EventRegistryConfig{
			APIKey:         a.cfg.Provider.EventRegistryAPIKey,
			RequestsPerMin: a.cfg.Provider.RequestsPerMin,
			Timeout:        a.cfg.Provider.RequestTimeout,
		}, a.logger))
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("app: %w", config.ErrNoProviderKey)
	}

	chain := provider.NewChain(providers...)

	return provider.NewCached(chain, a.database, a.cfg.Provider.QueryCacheTTL, a.logger), nil
}
