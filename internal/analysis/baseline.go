package analysis

import (
	"math"

	"github.com/causelab/causeway/internal/models"
)

// baselineWindow returns the number of leading points used for baseline
// estimation: max(minPoints, ceil(fraction*n)), capped at n.
func baselineWindow(n, minPoints int, fraction float64) int {
	window := int(math.Ceil(fraction * float64(n)))
	if window < minPoints {
		window = minPoints
	}
	if window > n {
		window = n
	}
	return window
}

// estimateBaseline derives the reference mean and population standard
// deviation from the leading window of one metric's series. Points must be
// sorted ascending by timestamp.
//
// A window with fewer than 2 points cannot support a meaningful deviation
// estimate; std stays 0, which downstream disables detection for the
// metric entirely.
func estimateBaseline(points []models.MetricPoint, cfg Config) models.Baseline {
	n := len(points)
	if n == 0 {
		return models.Baseline{}
	}

	window := baselineWindow(n, cfg.BaselineMinPoints, cfg.BaselineFraction)

	// Welford's single-pass accumulation. Numerically stable for long
	// near-constant series where the naive sum-of-squares cancels badly.
	var mean, m2 float64
	for i := 0; i < window; i++ {
		delta := points[i].Value - mean
		mean += delta / float64(i+1)
		m2 += delta * (points[i].Value - mean)
	}

	baseline := models.Baseline{
		Mean:        mean,
		SampleCount: window,
	}
	if window >= 2 {
		baseline.Std = math.Sqrt(m2 / float64(window))
	}
	return baseline
}
