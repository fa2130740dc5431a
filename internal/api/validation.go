package api

import (
	"fmt"
	"math"
	"strconv"

	"github.com/causelab/causeway/internal/models"
)

const (
	maxMetricNameLength = 256
	maxEventTypeLength  = 128
	maxTitleLength      = 512
	maxBatchSize        = 10000
)

// Validator validates API request payloads before they reach storage.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateIncidentID checks a path-supplied incident identifier.
func (v *Validator) ValidateIncidentID(id string) error {
	if id == "" {
		return NewValidationError("incident_id", "must not be empty")
	}
	if len(id) > 128 {
		return NewValidationError("incident_id", "must not exceed 128 characters")
	}
	return nil
}

// ValidateTitle checks an incident title. Empty titles are allowed.
func (v *Validator) ValidateTitle(title string) error {
	if len(title) > maxTitleLength {
		return NewValidationError("title", fmt.Sprintf("must not exceed %d characters", maxTitleLength))
	}
	return nil
}

// ValidatePoints checks a metric ingest batch. Values must be finite so that
// baseline statistics stay well-defined downstream.
func (v *Validator) ValidatePoints(points []models.MetricPoint) error {
	if len(points) == 0 {
		return NewValidationError("points", "must contain at least one point")
	}
	if len(points) > maxBatchSize {
		return NewValidationError("points", fmt.Sprintf("batch must not exceed %d points", maxBatchSize))
	}
	for i, p := range points {
		if p.Metric == "" {
			return NewValidationError(fmt.Sprintf("points[%d].metric", i), "must not be empty")
		}
		if len(p.Metric) > maxMetricNameLength {
			return NewValidationError(fmt.Sprintf("points[%d].metric", i), fmt.Sprintf("must not exceed %d characters", maxMetricNameLength))
		}
		if p.Timestamp < 0 {
			return NewValidationError(fmt.Sprintf("points[%d].ts", i), "must be non-negative")
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return NewValidationError(fmt.Sprintf("points[%d].value", i), "must be a finite number")
		}
	}
	return nil
}

// ValidateEvents checks a change event ingest batch.
func (v *Validator) ValidateEvents(events []models.Event) error {
	if len(events) == 0 {
		return NewValidationError("events", "must contain at least one event")
	}
	if len(events) > maxBatchSize {
		return NewValidationError("events", fmt.Sprintf("batch must not exceed %d events", maxBatchSize))
	}
	for i, e := range events {
		if e.Type == "" {
			return NewValidationError(fmt.Sprintf("events[%d].event_type", i), "must not be empty")
		}
		if len(e.Type) > maxEventTypeLength {
			return NewValidationError(fmt.Sprintf("events[%d].event_type", i), fmt.Sprintf("must not exceed %d characters", maxEventTypeLength))
		}
		if e.Timestamp < 0 {
			return NewValidationError(fmt.Sprintf("events[%d].ts", i), "must be non-negative")
		}
	}
	return nil
}

// ParseLimit parses an optional positive integer limit query parameter.
// An empty string yields 0, meaning no cap.
func (v *Validator) ParseLimit(limitStr string) (int, error) {
	if limitStr == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 0, NewValidationError("limit", "must be a positive integer")
	}
	return limit, nil
}
