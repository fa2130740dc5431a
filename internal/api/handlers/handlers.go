// Package handlers contains the HTTP handlers for the incident API.
package handlers

import (
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/causelab/causeway/internal/api"
	"github.com/causelab/causeway/internal/api/response"
	"github.com/causelab/causeway/internal/config"
	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/metrics"
	"github.com/causelab/causeway/internal/storage"
)

// Handlers bundles all API handlers and registers them on a mux.
type Handlers struct {
	Incident *IncidentHandler
	Ingest   *IngestHandler
	Analysis *AnalysisHandler
}

// New wires the handlers against storage and the scoring config provider.
func New(store *storage.Store, scoring *config.ScoringProvider, m *metrics.Metrics, tracer trace.Tracer) *Handlers {
	return &Handlers{
		Incident: NewIncidentHandler(store, tracer),
		Ingest:   NewIngestHandler(store, m, tracer),
		Analysis: NewAnalysisHandler(store, scoring, m, tracer),
	}
}

// Register attaches all routes. Method-qualified patterns let the mux
// reject wrong methods with 405 without extra middleware.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/incidents", h.Incident.HandleCreate)
	mux.HandleFunc("GET /v1/incidents/{id}", h.Incident.HandleGet)
	mux.HandleFunc("POST /v1/incidents/{id}/metrics", h.Ingest.HandleMetrics)
	mux.HandleFunc("POST /v1/incidents/{id}/events", h.Ingest.HandleEvents)
	mux.HandleFunc("GET /v1/incidents/{id}/analysis", h.Analysis.Handle)
}

// respondError maps internal errors onto HTTP error responses.
func respondError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var validationErr *api.ValidationError
	var apiErr *api.APIError

	switch {
	case errors.As(err, &validationErr):
		response.WriteError(w, http.StatusBadRequest, string(api.ErrCodeInvalidRequest), validationErr.Error())
	case errors.As(err, &apiErr):
		response.WriteError(w, apiErr.StatusCode, string(apiErr.Code), apiErr.Message)
	case errors.Is(err, storage.ErrIncidentNotFound):
		response.WriteError(w, http.StatusNotFound, string(api.ErrCodeNotFound), "incident not found")
	default:
		logger.Error("Request failed: %v", err)
		response.WriteError(w, http.StatusInternalServerError, string(api.ErrCodeInternal), "internal error")
	}
}
