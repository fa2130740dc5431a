package analysis

import (
	"math"

	"github.com/causelab/causeway/internal/models"
)

// detectAnomalies scores every point of one metric against the metric's
// baseline and returns the points whose |z| meets the threshold, in
// timestamp order. Points inside the baseline window are scored like any
// other point; the detector does not special-case them.
//
// A degenerate baseline (std == 0) yields no anomalies: z is defined as 0
// in that case, never a division by zero.
func detectAnomalies(metric string, points []models.MetricPoint, baseline models.Baseline, cfg Config) []models.Anomaly {
	if baseline.Std == 0 {
		return nil
	}

	var anomalies []models.Anomaly
	for _, p := range points {
		z := (p.Value - baseline.Mean) / baseline.Std
		if math.Abs(z) < cfg.ZThreshold {
			continue
		}
		anomalies = append(anomalies, models.Anomaly{
			Metric:       metric,
			Timestamp:    p.Timestamp,
			Value:        p.Value,
			BaselineMean: baseline.Mean,
			BaselineStd:  baseline.Std,
			ZScore:       z,
		})
	}
	return anomalies
}
