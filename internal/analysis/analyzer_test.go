package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/causelab/causeway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spikeSeries builds 30 alternating baseline points (mean±spread) followed
// by one spike, 10s apart starting at startTS.
func spikeSeries(metric string, startTS int64, mean, spread, spike float64) []models.MetricPoint {
	values := make([]float64, 31)
	for i := 0; i < 30; i++ {
		values[i] = mean - spread
		if i%2 == 1 {
			values[i] = mean + spread
		}
	}
	values[30] = spike
	return makePoints(metric, startTS, 10, values)
}

func TestAnalyzeSingleMetricDeploy(t *testing.T) {
	// latency baseline mean=120 std=10, spike to 950 (z=83) at ts 10300,
	// deploy 60s earlier: proximity 0.9 * prior 1.0 * severity 1.0
	snapshot := &models.IncidentSnapshot{
		IncidentID: "inc-1",
		Metrics: map[string][]models.MetricPoint{
			"latency": spikeSeries("latency", 10000, 120, 10, 950),
		},
		Events: []models.Event{
			{Timestamp: 10240, Type: "deploy", Metadata: map[string]string{"version": "v42"}},
		},
	}

	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)
	result, err := analyzer.Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	require.Len(t, result.Anomalies, 1)
	assert.InDelta(t, 83.0, result.Anomalies[0].ZScore, 1e-9)

	require.Len(t, result.Episodes, 1)
	episode := result.Episodes[0]
	assert.Equal(t, int64(10300), episode.StartTS)
	assert.Equal(t, int64(10300), episode.EndTS)
	assert.Equal(t, 120.0, episode.BaselineMean)
	assert.Equal(t, 10.0, episode.BaselineStd)

	require.Len(t, result.LikelyCauses, 1)
	cause := result.LikelyCauses[0]
	assert.Equal(t, "deploy", cause.EventType)
	assert.Equal(t, "v42", cause.Metadata["version"])
	assert.InDelta(t, 0.9, cause.Confidence, 1e-9) // no bonus with one metric
	require.Len(t, cause.Evidence, 1)
	assert.Contains(t, cause.Evidence[0], "latency abnormal")
	assert.Contains(t, cause.Evidence[0], "event within 60s")
}

func TestAnalyzeMultiMetricAgreement(t *testing.T) {
	// two metrics spike at the same moment near one deploy: base 0.9
	// plus the 0.35 agreement bonus, clamped to 1.0
	snapshot := &models.IncidentSnapshot{
		IncidentID: "inc-2",
		Metrics: map[string][]models.MetricPoint{
			"latency":    spikeSeries("latency", 10000, 120, 10, 950),
			"error_rate": spikeSeries("error_rate", 10000, 1.0, 0.1, 1.5),
		},
		Events: []models.Event{
			{Timestamp: 10240, Type: "deploy"},
		},
	}

	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)
	result, err := analyzer.Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	require.Len(t, result.Episodes, 2)
	require.Len(t, result.LikelyCauses, 1)
	assert.Equal(t, 1.0, result.LikelyCauses[0].Confidence)
	assert.Len(t, result.LikelyCauses[0].Evidence, 2)
}

func TestAnalyzeNoEvents(t *testing.T) {
	snapshot := &models.IncidentSnapshot{
		IncidentID: "inc-3",
		Metrics: map[string][]models.MetricPoint{
			"latency": spikeSeries("latency", 10000, 120, 10, 950),
		},
	}

	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)
	result, err := analyzer.Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Anomalies)
	assert.NotEmpty(t, result.Episodes)
	assert.Empty(t, result.LikelyCauses)
}

func TestAnalyzeEventOutsideWindow(t *testing.T) {
	// 700s from the only episode boundary: beyond the 600s window, the
	// event contributes nothing and produces no cause entry
	snapshot := &models.IncidentSnapshot{
		IncidentID: "inc-4",
		Metrics: map[string][]models.MetricPoint{
			"latency": spikeSeries("latency", 10000, 120, 10, 950),
		},
		Events: []models.Event{
			{Timestamp: 9600, Type: "deploy"},
		},
	}

	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)
	result, err := analyzer.Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	require.Len(t, result.Episodes, 1)
	assert.Empty(t, result.LikelyCauses)
}

func TestAnalyzeEmptySnapshot(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)
	result, err := analyzer.Analyze(context.Background(), &models.IncidentSnapshot{IncidentID: "inc-5"})
	require.NoError(t, err)

	assert.Empty(t, result.Anomalies)
	assert.Empty(t, result.Episodes)
	assert.Empty(t, result.LikelyCauses)

	// empty slices must serialize as [], not null
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"anomalies":[]`)
	assert.Contains(t, string(data), `"likely_causes":[]`)
}

func TestAnalyzeFlatMetricYieldsNothing(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100
	}
	snapshot := &models.IncidentSnapshot{
		IncidentID: "inc-6",
		Metrics: map[string][]models.MetricPoint{
			"flat": makePoints("flat", 10000, 10, values),
		},
		Events: []models.Event{{Timestamp: 10100, Type: "deploy"}},
	}

	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)
	result, err := analyzer.Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Empty(t, result.Anomalies)
	assert.Empty(t, result.Episodes)
	assert.Empty(t, result.LikelyCauses)
}

func TestAnalyzeDeterministic(t *testing.T) {
	snapshot := &models.IncidentSnapshot{
		IncidentID: "inc-7",
		Metrics: map[string][]models.MetricPoint{
			"latency":    spikeSeries("latency", 10000, 120, 10, 950),
			"error_rate": spikeSeries("error_rate", 10000, 1.0, 0.1, 1.5),
			"cpu":        spikeSeries("cpu", 10000, 50, 5, 300),
			"mem":        spikeSeries("mem", 10000, 70, 7, 400),
		},
		Events: []models.Event{
			{Timestamp: 10240, Type: "deploy"},
			{Timestamp: 10100, Type: "config_change"},
			{Timestamp: 10500, Type: "feature_flag"},
		},
	}

	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)

	var previous []byte
	for i := 0; i < 5; i++ {
		result, err := analyzer.Analyze(context.Background(), snapshot)
		require.NoError(t, err)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		if previous != nil {
			assert.Equal(t, previous, data, "run %d differs", i)
		}
		previous = data
	}
}

func TestAnalyzeAnomalyOrdering(t *testing.T) {
	snapshot := &models.IncidentSnapshot{
		IncidentID: "inc-8",
		Metrics: map[string][]models.MetricPoint{
			"zz_metric": spikeSeries("zz_metric", 10000, 120, 10, 950),
			"aa_metric": spikeSeries("aa_metric", 10000, 120, 10, 950),
		},
	}

	analyzer := NewAnalyzer(DefaultConfig(), nil, nil)
	result, err := analyzer.Analyze(context.Background(), snapshot)
	require.NoError(t, err)

	require.Len(t, result.Anomalies, 2)
	assert.Equal(t, "aa_metric", result.Anomalies[0].Metric)
	assert.Equal(t, "zz_metric", result.Anomalies[1].Metric)
}
