package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentions_resolutions_total",
		Help: "The total number of dossier resolutions by tier",
	}, []string{"tier"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentions_provider_requests_total",
		Help: "The total number of upstream provider requests",
	}, []string{"provider", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentions_llm_request_duration_seconds",
		Help:    "Duration of text-intelligence requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ArticlesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentions_articles_inserted_total",
		Help: "The total number of new articles stored",
	})

	SyndicatedCollapsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentions_syndicated_collapsed_total",
		Help: "The total number of syndicated duplicates collapsed by dedup",
	})

	ResolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentions_resolution_duration_seconds",
		Help:    "Duration of dossier resolutions",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"tier"})
)
