package analysis

import (
	"fmt"
	"sort"

	"github.com/causelab/causeway/internal/models"
)

// rankCauses aggregates per-pair contributions by event identity and emits
// the final ranked cause list.
//
// The base confidence is the maximum raw score among an event's
// contributing episodes, not a sum: many weak metrics must not inflate
// confidence without bound. The agreement bonus rewards independent
// corroboration: two distinct metrics whose episodes overlap in time near
// the same event. The bonus only ever increases confidence, and the result
// is clamped to [0,1].
func rankCauses(contributions []contribution, cfg Config) []models.Cause {
	type group struct {
		event         models.Event
		contributions []contribution
	}

	groups := make(map[string]*group)
	var order []string
	for _, c := range contributions {
		key := fmt.Sprintf("%d/%s", c.event.Timestamp, c.event.Type)
		g, ok := groups[key]
		if !ok {
			g = &group{event: c.event}
			groups[key] = g
			order = append(order, key)
		}
		g.contributions = append(g.contributions, c)
	}

	causes := make([]models.Cause, 0, len(groups))
	minDistance := make(map[string]int64)

	for _, key := range order {
		g := groups[key]

		// evidence and episode refs sorted by metric, then episode start
		sort.SliceStable(g.contributions, func(i, j int) bool {
			a, b := g.contributions[i], g.contributions[j]
			if a.episode.Metric != b.episode.Metric {
				return a.episode.Metric < b.episode.Metric
			}
			return a.episode.StartTS < b.episode.StartTS
		})

		base := 0.0
		minDist := g.contributions[0].distance
		evidence := make([]string, 0, len(g.contributions))
		refs := make([]models.EpisodeRef, 0, len(g.contributions))
		for _, c := range g.contributions {
			if c.rawScore > base {
				base = c.rawScore
			}
			if c.distance < minDist {
				minDist = c.distance
			}
			evidence = append(evidence, c.evidence)
			refs = append(refs, models.EpisodeRef{
				Metric:  c.episode.Metric,
				StartTS: c.episode.StartTS,
				EndTS:   c.episode.EndTS,
			})
		}

		confidence := base
		if hasCrossMetricAgreement(g.contributions) {
			confidence += cfg.AgreementBonus
		}
		if confidence > 1 {
			confidence = 1
		}
		if confidence <= 0 {
			continue
		}

		minDistance[key] = minDist
		causes = append(causes, models.Cause{
			EventType:  g.event.Type,
			Timestamp:  g.event.Timestamp,
			Metadata:   g.event.Metadata,
			Confidence: confidence,
			Evidence:   evidence,
			Episodes:   refs,
		})
	}

	// Total order: confidence desc, then nearest contributing episode,
	// then earlier event, then event type for full determinism.
	sort.SliceStable(causes, func(i, j int) bool {
		a, b := causes[i], causes[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		da := minDistance[fmt.Sprintf("%d/%s", a.Timestamp, a.EventType)]
		db := minDistance[fmt.Sprintf("%d/%s", b.Timestamp, b.EventType)]
		if da != db {
			return da < db
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return a.EventType < b.EventType
	})

	if cfg.MaxCauses > 0 && len(causes) > cfg.MaxCauses {
		causes = causes[:cfg.MaxCauses]
	}

	return causes
}

// hasCrossMetricAgreement reports whether contributions from at least two
// distinct metrics carry episodes whose time ranges overlap.
func hasCrossMetricAgreement(contributions []contribution) bool {
	for i := 0; i < len(contributions); i++ {
		for j := i + 1; j < len(contributions); j++ {
			a, b := contributions[i].episode, contributions[j].episode
			if a.Metric != b.Metric && a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}
