// Package models contains the core data types shared between the storage
// layer, the analysis engine, and the HTTP API.
package models

import "sort"

// MetricPoint is a single observation of one metric.
// Points are immutable once ingested; uniqueness per (metric, timestamp)
// is enforced at the storage layer.
type MetricPoint struct {
	Metric    string  `json:"metric"`
	Timestamp int64   `json:"ts"` // Unix seconds
	Value     float64 `json:"value"`
}

// Event is a discrete occurrence (deploy, config change, feature flag, ...)
// that may explain observed metric anomalies.
type Event struct {
	Timestamp int64             `json:"ts"` // Unix seconds
	Type      string            `json:"event_type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IncidentSnapshot is the immutable, fully materialized input to one
// analysis call: all metric points of an incident grouped per metric and
// sorted ascending by timestamp, plus all events sorted by timestamp.
type IncidentSnapshot struct {
	IncidentID string                   `json:"incident_id"`
	Metrics    map[string][]MetricPoint `json:"metrics"`
	Events     []Event                  `json:"events"`
}

// MetricNames returns the snapshot's metric names in sorted order.
// Iteration over the Metrics map must never drive output ordering, so
// every consumer walks this slice instead.
func (s *IncidentSnapshot) MetricNames() []string {
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Window returns a copy of the snapshot restricted to points and events
// with since <= ts <= until. Metrics left without any point are dropped.
func (s *IncidentSnapshot) Window(since, until int64) *IncidentSnapshot {
	out := &IncidentSnapshot{
		IncidentID: s.IncidentID,
		Metrics:    make(map[string][]MetricPoint, len(s.Metrics)),
		Events:     make([]Event, 0, len(s.Events)),
	}
	for name, pts := range s.Metrics {
		kept := make([]MetricPoint, 0, len(pts))
		for _, p := range pts {
			if p.Timestamp >= since && p.Timestamp <= until {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			out.Metrics[name] = kept
		}
	}
	for _, e := range s.Events {
		if e.Timestamp >= since && e.Timestamp <= until {
			out.Events = append(out.Events, e)
		}
	}
	return out
}

// Normalize sorts each metric's points by timestamp and the events by
// timestamp (ties broken by event type). Storage returns data already
// ordered; this is a cheap safety net for snapshots built from files.
func (s *IncidentSnapshot) Normalize() {
	for name := range s.Metrics {
		pts := s.Metrics[name]
		sort.SliceStable(pts, func(i, j int) bool {
			return pts[i].Timestamp < pts[j].Timestamp
		})
	}
	sort.SliceStable(s.Events, func(i, j int) bool {
		if s.Events[i].Timestamp != s.Events[j].Timestamp {
			return s.Events[i].Timestamp < s.Events[j].Timestamp
		}
		return s.Events[i].Type < s.Events[j].Type
	})
}
