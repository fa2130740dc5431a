// Package metrics defines the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for service observability.
type Metrics struct {
	AnalysesTotal      prometheus.Counter   // Total number of analysis runs
	AnalysisDuration   prometheus.Histogram // Analysis latency distribution
	AnomaliesDetected  prometheus.Counter   // Total anomalies found across all runs
	CausesRanked       prometheus.Counter   // Total causes emitted across all runs
	DegenerateBaseline prometheus.Counter   // Metrics skipped due to zero-std baseline
	PointsIngested     prometheus.Counter   // Total metric points accepted
	EventsIngested     prometheus.Counter   // Total events accepted
	HTTPRequests       *prometheus.CounterVec
}

// New creates the service metrics and registers them with the provided
// registerer. A non-global registerer keeps tests isolated.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causeway_analyses_total",
			Help: "Total number of analysis runs",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "causeway_analysis_duration_seconds",
			Help:    "Analysis latency distribution",
			Buckets: prometheus.DefBuckets,
		}),
		AnomaliesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causeway_anomalies_detected_total",
			Help: "Total anomalies detected across all analysis runs",
		}),
		CausesRanked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causeway_causes_ranked_total",
			Help: "Total likely causes emitted across all analysis runs",
		}),
		DegenerateBaseline: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causeway_degenerate_baselines_total",
			Help: "Metrics skipped during detection due to a zero-std baseline",
		}),
		PointsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causeway_points_ingested_total",
			Help: "Total metric points accepted by ingest",
		}),
		EventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "causeway_events_ingested_total",
			Help: "Total events accepted by ingest",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "causeway_http_requests_total",
			Help: "HTTP requests by handler and status code",
		}, []string{"handler", "code"}),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.AnomaliesDetected,
		m.CausesRanked,
		m.DegenerateBaseline,
		m.PointsIngested,
		m.EventsIngested,
		m.HTTPRequests,
	)

	return m
}
