package models

// Baseline is the per-metric reference behavior derived from the leading
// portion of the metric's series. It is recomputed on every analysis call
// and never persisted, so it always reflects the current incident only.
type Baseline struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	SampleCount int     `json:"sample_count"`
}

// Anomaly is a metric point that deviates significantly from its metric's
// baseline. The baseline snapshot used for scoring is carried along.
type Anomaly struct {
	Metric       string  `json:"metric"`
	Timestamp    int64   `json:"ts"`
	Value        float64 `json:"value"`
	BaselineMean float64 `json:"baseline_mean"`
	BaselineStd  float64 `json:"baseline_std"`
	ZScore       float64 `json:"z_score"`
}

// Episode is a contiguous window of anomalies for one metric.
// PercentChange is nil when the baseline mean is zero (the relative change
// is undefined, not infinite).
type Episode struct {
	Metric        string   `json:"metric"`
	StartTS       int64    `json:"start_ts"`
	EndTS         int64    `json:"end_ts"`
	BaselineMean  float64  `json:"baseline_mean"`
	BaselineStd   float64  `json:"baseline_std"`
	PeakValue     float64  `json:"peak_value"`
	PeakZScore    float64  `json:"peak_z_score"`
	PercentChange *float64 `json:"percent_change,omitempty"`
}

// Overlaps reports whether two episode time ranges intersect.
func (e Episode) Overlaps(other Episode) bool {
	return e.StartTS <= other.EndTS && other.StartTS <= e.EndTS
}

// EpisodeRef identifies an episode contributing to a cause.
type EpisodeRef struct {
	Metric  string `json:"metric"`
	StartTS int64  `json:"start_ts"`
	EndTS   int64  `json:"end_ts"`
}

// Cause is an event ranked by how likely it is to explain the incident's
// episodes. Confidence is in [0,1]; Evidence holds one human-readable line
// per contributing episode, ordered by metric name then episode start.
type Cause struct {
	EventType  string            `json:"event_type"`
	Timestamp  int64             `json:"ts"`
	Metadata   map[string]string `json:"meta,omitempty"`
	Confidence float64           `json:"confidence"`
	Evidence   []string          `json:"evidence"`
	Episodes   []EpisodeRef      `json:"episodes"`
}

// AnalysisResult is the full output of one analysis call.
type AnalysisResult struct {
	IncidentID   string    `json:"incident_id"`
	Anomalies    []Anomaly `json:"anomalies"`
	Episodes     []Episode `json:"episodes"`
	LikelyCauses []Cause   `json:"likely_causes"`
}
