package handlers

import (
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/causelab/causeway/internal/analysis"
	"github.com/causelab/causeway/internal/api"
	"github.com/causelab/causeway/internal/api/response"
	"github.com/causelab/causeway/internal/config"
	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/metrics"
	"github.com/causelab/causeway/internal/storage"
)

// AnalysisHandler runs root-cause analysis over a stored incident.
type AnalysisHandler struct {
	store     *storage.Store
	scoring   *config.ScoringProvider
	metrics   *metrics.Metrics
	logger    *logging.Logger
	validator *api.Validator
	tracer    trace.Tracer
}

func NewAnalysisHandler(store *storage.Store, scoring *config.ScoringProvider, m *metrics.Metrics, tracer trace.Tracer) *AnalysisHandler {
	return &AnalysisHandler{
		store:     store,
		scoring:   scoring,
		metrics:   m,
		logger:    logging.GetLogger("api.analysis"),
		validator: api.NewValidator(),
		tracer:    tracer,
	}
}

type analysisInput struct {
	incidentID string
	limit      int
	since      int64
	until      int64
}

// Handle processes GET /v1/incidents/{id}/analysis.
func (h *AnalysisHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "analysis.Handle")
		defer span.End()
	}

	input, err := h.parseInput(r)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		respondError(w, h.logger, err)
		return
	}

	if span != nil {
		span.SetAttributes(
			attribute.String("incident_id", input.incidentID),
			attribute.Int("limit", input.limit),
		)
	}

	snapshot, err := h.store.LoadSnapshot(ctx, input.incidentID)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		respondError(w, h.logger, err)
		return
	}

	if input.since > 0 || input.until < math.MaxInt64 {
		snapshot = snapshot.Window(input.since, input.until)
	}

	cfg := h.currentConfig()
	cfg.MaxCauses = input.limit

	result, err := analysis.NewAnalyzer(cfg, h.tracer, h.metrics).Analyze(ctx, snapshot)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		h.logger.Error("Analysis failed for incident %s: %v", input.incidentID, err)
		respondError(w, h.logger, err)
		return
	}

	h.logger.Debug("Analysis for incident %s completed in %dms",
		input.incidentID, time.Since(startTime).Milliseconds())
	_ = response.WriteSuccess(w, result)
}

// currentConfig returns the live scoring config, falling back to the
// built-in defaults when no provider is wired (tests, offline mode).
func (h *AnalysisHandler) currentConfig() analysis.Config {
	if h.scoring == nil {
		return analysis.DefaultConfig()
	}
	return h.scoring.Current()
}

func (h *AnalysisHandler) parseInput(r *http.Request) (analysisInput, error) {
	input := analysisInput{incidentID: r.PathValue("id")}

	if err := h.validator.ValidateIncidentID(input.incidentID); err != nil {
		return input, err
	}

	query := r.URL.Query()

	limit, err := h.validator.ParseLimit(query.Get("limit"))
	if err != nil {
		return input, err
	}
	input.limit = limit

	input.since, err = api.ParseOptionalTimestamp(query.Get("since"), "since", 0)
	if err != nil {
		return input, err
	}

	input.until, err = api.ParseOptionalTimestamp(query.Get("until"), "until", math.MaxInt64)
	if err != nil {
		return input, err
	}

	if input.until < input.since {
		return input, api.NewValidationError("until", "must not precede since")
	}

	return input, nil
}
