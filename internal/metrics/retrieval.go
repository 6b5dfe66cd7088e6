package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval Prometheus metrics.
var (
	RefitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "programdex",
			Name:      "retrieval_refit_duration_seconds",
			Help:      "Time spent fitting the corpus model",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	CorpusSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "programdex",
			Name:      "retrieval_corpus_programs",
			Help:      "Programs in the currently published corpus model",
		},
	)

	VocabularySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "programdex",
			Name:      "retrieval_vocabulary_terms",
			Help:      "Terms in the currently published corpus model",
		},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "programdex",
			Name:      "retrieval_searches_total",
			Help:      "Total retrieval searches",
		},
		[]string{"cache"}, // "hit" / "miss"
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "programdex",
			Name:      "retrieval_search_results",
			Help:      "Results returned per search after thresholding",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
		},
	)

	ResponderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "programdex",
			Name:      "responder_requests_total",
			Help:      "Chat responder invocations",
		},
		[]string{"responder", "status"},
	)

	ResponderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "programdex",
			Name:      "responder_request_duration_seconds",
			Help:      "Chat responder latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"responder"},
	)

	ResponderFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "programdex",
			Name:      "responder_fallbacks_total",
			Help:      "Replies that fell back to the deterministic summary",
		},
	)

	ScrapeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "programdex",
			Name:      "scrape_requests_total",
			Help:      "Program detail page fetches",
		},
		[]string{"status"},
	)

	EmailDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "programdex",
			Name:      "email_deliveries_total",
			Help:      "Outbound email send attempts",
		},
		[]string{"provider", "status"},
	)
)

var registerRetrievalOnce sync.Once

// RegisterRetrievalMetrics registers retrieval, responder, scraper and email metrics.
// Safe to call more than once.
func RegisterRetrievalMetrics() {
	registerRetrievalOnce.Do(func() {
		prometheus.MustRegister(
			RefitDuration,
			CorpusSize,
			VocabularySize,
			SearchesTotal,
			SearchResults,
			ResponderRequestsTotal,
			ResponderDuration,
			ResponderFallbacksTotal,
			ScrapeRequestsTotal,
			EmailDeliveriesTotal,
		)
	})
}
