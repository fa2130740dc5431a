package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/causelab/causeway/internal/api"
	"github.com/causelab/causeway/internal/api/response"
	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/storage"
)

// IncidentHandler handles incident creation and lookup.
type IncidentHandler struct {
	store     *storage.Store
	logger    *logging.Logger
	validator *api.Validator
	tracer    trace.Tracer
}

func NewIncidentHandler(store *storage.Store, tracer trace.Tracer) *IncidentHandler {
	return &IncidentHandler{
		store:     store,
		logger:    logging.GetLogger("api.incidents"),
		validator: api.NewValidator(),
		tracer:    tracer,
	}
}

type createIncidentRequest struct {
	Title string `json:"title"`
}

// HandleCreate processes POST /v1/incidents.
func (h *IncidentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "incidents.Create")
		defer span.End()
	}

	var req createIncidentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, h.logger, api.NewValidationError("body", "invalid JSON"))
			return
		}
	}

	if err := h.validator.ValidateTitle(req.Title); err != nil {
		respondError(w, h.logger, err)
		return
	}

	id := uuid.NewString()
	if span != nil {
		span.SetAttributes(attribute.String("incident_id", id))
	}

	incident, err := h.store.CreateIncident(ctx, id, req.Title)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Created incident %s", incident.ID)
	_ = response.WriteCreated(w, incident)
}

// HandleGet processes GET /v1/incidents/{id}.
func (h *IncidentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "incidents.Get")
		span.SetAttributes(attribute.String("incident_id", id))
		defer span.End()
	}

	if err := h.validator.ValidateIncidentID(id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	incident, err := h.store.GetIncident(ctx, id)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		respondError(w, h.logger, err)
		return
	}

	_ = response.WriteSuccess(w, incident)
}
