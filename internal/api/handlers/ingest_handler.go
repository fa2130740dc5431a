package handlers

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/causelab/causeway/internal/api"
	"github.com/causelab/causeway/internal/api/response"
	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/metrics"
	"github.com/causelab/causeway/internal/models"
	"github.com/causelab/causeway/internal/storage"
)

// IngestHandler handles metric point and event ingestion.
// Both endpoints are idempotent: replayed batches report deduplicated
// rows instead of failing.
type IngestHandler struct {
	store     *storage.Store
	metrics   *metrics.Metrics
	logger    *logging.Logger
	validator *api.Validator
	tracer    trace.Tracer
}

func NewIngestHandler(store *storage.Store, m *metrics.Metrics, tracer trace.Tracer) *IngestHandler {
	return &IngestHandler{
		store:     store,
		metrics:   m,
		logger:    logging.GetLogger("api.ingest"),
		validator: api.NewValidator(),
		tracer:    tracer,
	}
}

type ingestPointsRequest struct {
	Points []models.MetricPoint `json:"points"`
}

type ingestEventsRequest struct {
	Events []models.Event `json:"events"`
}

// HandleMetrics processes POST /v1/incidents/{id}/metrics.
func (h *IngestHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "ingest.Metrics")
		span.SetAttributes(attribute.String("incident_id", id))
		defer span.End()
	}

	if err := h.validator.ValidateIncidentID(id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req ingestPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, api.NewValidationError("body", "invalid JSON"))
		return
	}

	if err := h.validator.ValidatePoints(req.Points); err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.store.IngestPoints(ctx, id, req.Points)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		respondError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PointsIngested.Add(float64(result.Accepted))
	}
	if span != nil {
		span.SetAttributes(
			attribute.Int("accepted", result.Accepted),
			attribute.Int("deduplicated", result.Deduplicated),
		)
	}

	h.logger.Debug("Ingested %d points for incident %s (%d deduplicated)",
		result.Accepted, id, result.Deduplicated)
	_ = response.WriteSuccess(w, result)
}

// HandleEvents processes POST /v1/incidents/{id}/events.
func (h *IngestHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "ingest.Events")
		span.SetAttributes(attribute.String("incident_id", id))
		defer span.End()
	}

	if err := h.validator.ValidateIncidentID(id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req ingestEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, api.NewValidationError("body", "invalid JSON"))
		return
	}

	if err := h.validator.ValidateEvents(req.Events); err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.store.IngestEvents(ctx, id, req.Events)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		respondError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.EventsIngested.Add(float64(result.Accepted))
	}
	if span != nil {
		span.SetAttributes(
			attribute.Int("accepted", result.Accepted),
			attribute.Int("deduplicated", result.Deduplicated),
		)
	}

	h.logger.Debug("Ingested %d events for incident %s (%d deduplicated)",
		result.Accepted, id, result.Deduplicated)
	_ = response.WriteSuccess(w, result)
}
