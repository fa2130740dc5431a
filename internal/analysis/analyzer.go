package analysis

import (
	"context"
	"time"

	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/metrics"
	"github.com/causelab/causeway/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Analyzer runs the full analysis pipeline over one incident snapshot.
// Analyzers are cheap and stateless; concurrent Analyze calls are fully
// independent.
type Analyzer struct {
	cfg     Config
	logger  *logging.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// NewAnalyzer creates an analyzer with the given configuration.
// Both tracer and metrics may be nil (disabled tracing, tests).
func NewAnalyzer(cfg Config, tracer trace.Tracer, m *metrics.Metrics) *Analyzer {
	return &Analyzer{
		cfg:     cfg,
		logger:  logging.GetLogger("analysis"),
		tracer:  tracer,
		metrics: m,
	}
}

// metricResult holds the per-metric outcome of the parallel stage.
type metricResult struct {
	metric    string
	baseline  models.Baseline
	anomalies []models.Anomaly
}

// Analyze executes the pipeline: per-metric baseline estimation and
// anomaly detection (parallel across metrics), episode clustering, event
// correlation, and cause ranking.
//
// The result is a pure function of the snapshot: per-metric work fans out
// over goroutines but is merged in sorted metric order, so scheduling
// never affects output. Degenerate inputs (no metrics, no events, flat
// series) degrade to empty slices, never to an error; the only error
// returned is context cancellation.
func (a *Analyzer) Analyze(ctx context.Context, snapshot *models.IncidentSnapshot) (*models.AnalysisResult, error) {
	start := time.Now()

	var span trace.Span
	if a.tracer != nil {
		ctx, span = a.tracer.Start(ctx, "analysis.Analyze")
		defer span.End()
		span.SetAttributes(
			attribute.String("incident_id", snapshot.IncidentID),
			attribute.Int("metric_count", len(snapshot.Metrics)),
			attribute.Int("event_count", len(snapshot.Events)),
		)
	}

	names := snapshot.MetricNames()

	// Fan out per-metric baseline + detection. Results land in a slice
	// indexed by the sorted metric position, so completion order is
	// irrelevant to the merge below.
	results := make([]metricResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			points := snapshot.Metrics[name]
			baseline := estimateBaseline(points, a.cfg)
			results[i] = metricResult{
				metric:    name,
				baseline:  baseline,
				anomalies: detectAnomalies(name, points, baseline, a.cfg),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		IncidentID:   snapshot.IncidentID,
		Anomalies:    []models.Anomaly{},
		Episodes:     []models.Episode{},
		LikelyCauses: []models.Cause{},
	}

	for _, mr := range results {
		if mr.baseline.Std == 0 && len(snapshot.Metrics[mr.metric]) > 0 {
			// not an error: flat or too-short series simply yields
			// no anomalies for this metric
			a.logger.Debug("metric %s has degenerate baseline (mean=%.2f, samples=%d), skipping detection",
				mr.metric, mr.baseline.Mean, mr.baseline.SampleCount)
			if a.metrics != nil {
				a.metrics.DegenerateBaseline.Inc()
			}
		}
		result.Anomalies = append(result.Anomalies, mr.anomalies...)
		result.Episodes = append(result.Episodes, clusterEpisodes(mr.anomalies, a.cfg)...)
	}

	contributions := correlate(snapshot.Events, result.Episodes, a.cfg)
	result.LikelyCauses = rankCauses(contributions, a.cfg)

	if a.metrics != nil {
		a.metrics.AnalysesTotal.Inc()
		a.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		a.metrics.AnomaliesDetected.Add(float64(len(result.Anomalies)))
		a.metrics.CausesRanked.Add(float64(len(result.LikelyCauses)))
	}

	a.logger.InfoWithFields("analysis complete",
		logging.Field("incident_id", snapshot.IncidentID),
		logging.Field("metrics", len(names)),
		logging.Field("anomalies", len(result.Anomalies)),
		logging.Field("episodes", len(result.Episodes)),
		logging.Field("causes", len(result.LikelyCauses)),
		logging.Field("duration_ms", time.Since(start).Milliseconds()),
	)

	return result, nil
}
