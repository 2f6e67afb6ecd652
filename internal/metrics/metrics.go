// Package metrics defines the Prometheus collectors of sitesearch.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesearch_pages_fetched_total",
			Help: "Total number of pages fetched, labeled by site.",
		},
		[]string{"site"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitesearch_fetch_errors_total",
			Help: "Total number of failed page fetches, labeled by site.",
		},
		[]string{"site"},
	)
	FlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitesearch_flush_duration_seconds",
			Help:    "Duration of persisting and indexing a batch of crawled pages.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"site"},
	)
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitesearch_search_duration_seconds",
			Help:    "Duration of search queries in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	IndexingRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitesearch_indexing_running",
			Help: "1 while a full indexing run is in progress, otherwise 0.",
		},
	)
)

// Registry holds every sitesearch collector. It is separate from the
// default registry so tests and embedders control what is exposed.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(PagesFetched)
	Registry.MustRegister(FetchErrors)
	Registry.MustRegister(FlushDuration)
	Registry.MustRegister(SearchDuration)
	Registry.MustRegister(IndexingRunning)
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler serves the collectors in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
