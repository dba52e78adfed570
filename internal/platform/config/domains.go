package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN,required"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// ProviderConfig holds upstream article-metadata provider settings.
type ProviderConfig struct {
	PerigonAPIKey       string        `env:"PERIGON_API_KEY"`
	EventRegistryAPIKey string        `env:"EVENT_REGISTRY_API_KEY"`
	RequestTimeout      time.Duration `env:"PROVIDER_REQUEST_TIMEOUT" envDefault:"30s"`
	RequestsPerMin      int           `env:"PROVIDER_REQUESTS_PER_MIN" envDefault:"30"`
	QueryCacheTTL       time.Duration `env:"QUERY_CACHE_TTL" envDefault:"24h"`
	CacheSweepInterval  time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"1h"`
}

// LLMConfig holds text-intelligence provider settings.
type LLMConfig struct {
	APIKey           string        `env:"LLM_API_KEY"`
	Model            string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	RateLimitRPS     int           `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	CircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`
}

// ResolverConfig holds cache-first resolution policy settings.
type ResolverConfig struct {
	FreshnessWindow  time.Duration `env:"FRESHNESS_WINDOW" envDefault:"168h"`
	HistoryWindow    time.Duration `env:"HISTORY_WINDOW" envDefault:"8760h"`
	MaxSummarize     int           `env:"MAX_ARTICLES_TO_SUMMARIZE" envDefault:"20"`
	RecentWindowDays int           `env:"TREND_RECENT_WINDOW_DAYS" envDefault:"180"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int `env:"PORT" envDefault:"8000"`
	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}
