package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNoProviderKey is returned when neither upstream provider has credentials.
var ErrNoProviderKey = errors.New("config: at least one of PERIGON_API_KEY or EVENT_REGISTRY_API_KEY must be set")

// Config aggregates all application settings, loaded from the environment.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	Database DatabaseConfig
	Provider ProviderConfig
	LLM      LLMConfig
	Resolver ResolverConfig
	Server   ServerConfig
}

// Load reads configuration from the environment, with best-effort .env support.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate fails fast on missing upstream credentials. The LLM key is not
// required: an empty key selects the deterministic mock client.
func (c *Config) validate() error {
	if c.Provider.PerigonAPIKey == "" && c.Provider.EventRegistryAPIKey == "" {
		return ErrNoProviderKey
	}

	return nil
}
