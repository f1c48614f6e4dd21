package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fcdex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"engine", "status"},
	)

	SearchResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fcdex",
			Name:      "search_results_returned",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"engine"},
	)

	NearDuplicatesRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fcdex",
			Name:      "near_duplicates_rejected_total",
			Help:      "Candidates rejected by the nilsimsa near-duplicate filter",
		},
	)

	LabelsStoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fcdex",
			Name:      "labels_stored_total",
			Help:      "Total number of coreference labels stored",
		},
		[]string{"value"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(NearDuplicatesRejectedTotal)
	prometheus.MustRegister(LabelsStoredTotal)
	searchMetricsRegistered = true
}
