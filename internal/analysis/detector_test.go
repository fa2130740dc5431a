package analysis

import (
	"testing"

	"github.com/causelab/causeway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomaliesThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()
	baseline := models.Baseline{Mean: 0, Std: 1, SampleCount: 30}

	tests := []struct {
		name     string
		value    float64
		expected bool
	}{
		{"exactly at threshold is flagged", 3.0, true},
		{"just below threshold is not flagged", 2.999, false},
		{"negative deviation at threshold is flagged", -3.0, true},
		{"just above negative threshold is not flagged", -2.999, false},
		{"zero deviation is not flagged", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := makePoints("latency", 1000, 10, []float64{tt.value})
			anomalies := detectAnomalies("latency", points, baseline, cfg)
			if tt.expected {
				require.Len(t, anomalies, 1)
				assert.Equal(t, tt.value, anomalies[0].ZScore)
			} else {
				assert.Empty(t, anomalies)
			}
		})
	}
}

func TestDetectAnomaliesZeroStdDisablesDetection(t *testing.T) {
	cfg := DefaultConfig()
	baseline := models.Baseline{Mean: 100, Std: 0, SampleCount: 30}

	// wildly deviant values must still yield nothing: z is undefined
	points := makePoints("latency", 1000, 10, []float64{100, 1e12, -1e12})
	anomalies := detectAnomalies("latency", points, baseline, cfg)

	assert.Empty(t, anomalies)
}

func TestDetectAnomaliesCarriesBaselineSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	baseline := models.Baseline{Mean: 120, Std: 10, SampleCount: 30}

	points := makePoints("latency", 1000, 10, []float64{950})
	anomalies := detectAnomalies("latency", points, baseline, cfg)

	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, "latency", a.Metric)
	assert.Equal(t, int64(1000), a.Timestamp)
	assert.Equal(t, 950.0, a.Value)
	assert.Equal(t, 120.0, a.BaselineMean)
	assert.Equal(t, 10.0, a.BaselineStd)
	assert.InDelta(t, 83.0, a.ZScore, 1e-9)
}

func TestDetectAnomaliesPreservesTimestampOrder(t *testing.T) {
	cfg := DefaultConfig()
	baseline := models.Baseline{Mean: 0, Std: 1, SampleCount: 30}

	points := makePoints("errors", 1000, 30, []float64{5, 0, -4, 0, 6})
	anomalies := detectAnomalies("errors", points, baseline, cfg)

	require.Len(t, anomalies, 3)
	assert.Equal(t, int64(1000), anomalies[0].Timestamp)
	assert.Equal(t, int64(1060), anomalies[1].Timestamp)
	assert.Equal(t, int64(1120), anomalies[2].Timestamp)
}
