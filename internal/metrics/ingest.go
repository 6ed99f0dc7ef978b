package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestPlacesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatmaps",
			Name:      "ingest_places_total",
			Help:      "Places seen by ingestion runs, by outcome",
		},
		[]string{"outcome"}, // "added" / "skipped" / "failed"
	)

	IngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatmaps",
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by status",
		},
		[]string{"status"}, // "ok" / "error"
	)

	PlacesRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatmaps",
			Name:      "places_requests_total",
			Help:      "Requests made to the places API",
		},
		[]string{"endpoint", "status"},
	)

	IngestRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatmaps",
			Name:      "ingest_run_duration_seconds",
			Help:      "Duration of one ingestion run in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestPlacesTotal)
	prometheus.MustRegister(IngestRunsTotal)
	prometheus.MustRegister(IngestRunDuration)
	prometheus.MustRegister(PlacesRequestsTotal)
	ingestMetricsRegistered = true
}
