package analysis

import (
	"math"

	"github.com/causelab/causeway/internal/models"
)

// clusterEpisodes merges temporally adjacent anomalies of one metric into
// contiguous abnormal windows. Anomalies must be in timestamp order. A new
// episode starts whenever the gap to the previous anomaly exceeds the
// configured maximum; episodes of one metric therefore never overlap and
// come out ordered by start timestamp.
//
// Episodes across different metrics are never merged here; cross-metric
// corroboration happens only during ranking.
func clusterEpisodes(anomalies []models.Anomaly, cfg Config) []models.Episode {
	if len(anomalies) == 0 {
		return nil
	}

	var episodes []models.Episode
	group := []models.Anomaly{anomalies[0]}

	for _, a := range anomalies[1:] {
		if a.Timestamp-group[len(group)-1].Timestamp <= cfg.EpisodeGapSeconds {
			group = append(group, a)
			continue
		}
		episodes = append(episodes, buildEpisode(group))
		group = []models.Anomaly{a}
	}
	episodes = append(episodes, buildEpisode(group))

	return episodes
}

// buildEpisode aggregates one maximal run of anomalies into an episode.
// The peak is the anomaly with the largest |z| in the group.
func buildEpisode(group []models.Anomaly) models.Episode {
	peak := group[0]
	for _, a := range group[1:] {
		if math.Abs(a.ZScore) > math.Abs(peak.ZScore) {
			peak = a
		}
	}

	episode := models.Episode{
		Metric:       peak.Metric,
		StartTS:      group[0].Timestamp,
		EndTS:        group[len(group)-1].Timestamp,
		BaselineMean: peak.BaselineMean,
		BaselineStd:  peak.BaselineStd,
		PeakValue:    peak.Value,
		PeakZScore:   peak.ZScore,
	}

	// percent change is undefined against a zero mean; the episode is
	// still emitted, just without the relative figure
	if peak.BaselineMean != 0 {
		pct := (peak.Value - peak.BaselineMean) / peak.BaselineMean * 100
		episode.PercentChange = &pct
	}

	return episode
}
