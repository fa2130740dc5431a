package analysis

import (
	"fmt"

	"github.com/causelab/causeway/internal/models"
)

// contribution is the raw outcome of pairing one event with one episode.
type contribution struct {
	event    models.Event
	episode  models.Episode
	distance int64
	rawScore float64
	evidence string
}

// correlate pairs every event with every episode within the correlation
// window and scores each candidate pair. The score is multiplicative
// across three axes (temporal proximity, event-type prior, episode
// severity), so a weak signal on any one axis suppresses the pair as a
// whole. Each factor is in [0,1], so the raw score is too.
func correlate(events []models.Event, episodes []models.Episode, cfg Config) []contribution {
	var contributions []contribution

	for _, event := range events {
		for _, episode := range episodes {
			d := episodeDistance(event.Timestamp, episode)
			if d > cfg.CorrelationWindowSeconds {
				continue
			}

			proximity := 1 - float64(d)/float64(cfg.CorrelationWindowSeconds)
			if proximity < 0 {
				proximity = 0
			}
			prior := cfg.prior(event.Type)
			severity := severityFactor(episode.PeakZScore)

			contributions = append(contributions, contribution{
				event:    event,
				episode:  episode,
				distance: d,
				rawScore: proximity * prior * severity,
				evidence: formatEvidence(episode, d),
			})
		}
	}

	return contributions
}

// episodeDistance is the temporal distance from an event to an episode:
// zero when the event falls inside the episode window, otherwise the
// distance to the nearer boundary. Events are considered in both
// directions; an event shortly after an episode onset is as interesting as
// one shortly before.
func episodeDistance(eventTS int64, episode models.Episode) int64 {
	switch {
	case eventTS < episode.StartTS:
		return episode.StartTS - eventTS
	case eventTS > episode.EndTS:
		return eventTS - episode.EndTS
	default:
		return 0
	}
}

// severityFactor maps an episode's peak |z| into [0.55, 1.0]. Even a
// barely-detectable episode keeps more than half weight; the factor
// saturates at z=10 so an absurd spike cannot dominate the other axes.
func severityFactor(peakZ float64) float64 {
	z := peakZ
	if z < 0 {
		z = -z
	}
	scaled := z / 10
	if scaled > 1 {
		scaled = 1
	}
	return 0.55 + 0.45*scaled
}

// formatEvidence renders one human-readable line for an (event, episode)
// pair. The relative-change clause is omitted when the baseline mean is
// zero.
func formatEvidence(episode models.Episode, distance int64) string {
	if episode.PercentChange == nil {
		return fmt.Sprintf("%s abnormal %d–%d: %.2f → %.2f, z≈%.1f, event within %ds",
			episode.Metric, episode.StartTS, episode.EndTS,
			episode.BaselineMean, episode.PeakValue, episode.PeakZScore, distance)
	}
	return fmt.Sprintf("%s abnormal %d–%d: %.2f → %.2f (%+.1f%%), z≈%.1f, event within %ds",
		episode.Metric, episode.StartTS, episode.EndTS,
		episode.BaselineMean, episode.PeakValue, *episode.PercentChange,
		episode.PeakZScore, distance)
}
