package analysis

import (
	"testing"

	"github.com/causelab/causeway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeContribution(eventTS int64, eventType string, episode models.Episode, raw float64, distance int64) contribution {
	return contribution{
		event:    models.Event{Timestamp: eventTS, Type: eventType},
		episode:  episode,
		distance: distance,
		rawScore: raw,
		evidence: formatEvidence(episode, distance),
	}
}

func TestRankCausesBaseIsMaxNotSum(t *testing.T) {
	cfg := DefaultConfig()
	// two episodes of the SAME metric: no agreement bonus, base must be
	// the stronger score rather than 1.3
	e1 := makeEpisode("latency", 1000, 1100, 100, 200, 10)
	e2 := makeEpisode("latency", 2000, 2100, 100, 180, 8)

	causes := rankCauses([]contribution{
		makeContribution(950, "deploy", e1, 0.9, 50),
		makeContribution(950, "deploy", e2, 0.4, 900),
	}, cfg)

	require.Len(t, causes, 1)
	assert.InDelta(t, 0.9, causes[0].Confidence, 1e-9)
	assert.Len(t, causes[0].Evidence, 2)
	assert.Len(t, causes[0].Episodes, 2)
}

func TestRankCausesAgreementBonus(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("overlapping episodes from two metrics earn the bonus", func(t *testing.T) {
		e1 := makeEpisode("latency", 1000, 1100, 100, 200, 10)
		e2 := makeEpisode("error_rate", 1050, 1150, 1, 5, 9)

		causes := rankCauses([]contribution{
			makeContribution(950, "deploy", e1, 0.9, 50),
			makeContribution(950, "deploy", e2, 0.6, 100),
		}, cfg)

		require.Len(t, causes, 1)
		// min(1.0, 0.9 + 0.35)
		assert.Equal(t, 1.0, causes[0].Confidence)
	})

	t.Run("non-overlapping episodes from two metrics earn nothing", func(t *testing.T) {
		e1 := makeEpisode("latency", 1000, 1100, 100, 200, 10)
		e2 := makeEpisode("error_rate", 1500, 1600, 1, 5, 9)

		causes := rankCauses([]contribution{
			makeContribution(1200, "deploy", e1, 0.7, 100),
			makeContribution(1200, "deploy", e2, 0.6, 300),
		}, cfg)

		require.Len(t, causes, 1)
		assert.InDelta(t, 0.7, causes[0].Confidence, 1e-9)
	})

	t.Run("bonus never decreases confidence and clamps at 1", func(t *testing.T) {
		e1 := makeEpisode("latency", 1000, 1100, 100, 200, 10)
		e2 := makeEpisode("error_rate", 1000, 1100, 1, 5, 9)

		withBonus := rankCauses([]contribution{
			makeContribution(950, "deploy", e1, 0.95, 50),
			makeContribution(950, "deploy", e2, 0.9, 50),
		}, cfg)

		require.Len(t, withBonus, 1)
		assert.Equal(t, 1.0, withBonus[0].Confidence)
	})
}

func TestRankCausesOrdering(t *testing.T) {
	cfg := DefaultConfig()
	e := makeEpisode("latency", 1000, 1100, 100, 200, 10)

	causes := rankCauses([]contribution{
		makeContribution(900, "note", e, 0.3, 100),
		makeContribution(950, "deploy", e, 0.9, 50),
		makeContribution(800, "config_change", e, 0.5, 200),
	}, cfg)

	require.Len(t, causes, 3)
	assert.Equal(t, "deploy", causes[0].EventType)
	assert.Equal(t, "config_change", causes[1].EventType)
	assert.Equal(t, "note", causes[2].EventType)
}

func TestRankCausesTieBreaks(t *testing.T) {
	cfg := DefaultConfig()
	e := makeEpisode("latency", 1000, 1100, 100, 200, 10)

	t.Run("equal confidence breaks on smaller distance", func(t *testing.T) {
		causes := rankCauses([]contribution{
			makeContribution(700, "deploy", e, 0.5, 300),
			makeContribution(950, "deploy", e, 0.5, 50),
		}, cfg)

		require.Len(t, causes, 2)
		assert.Equal(t, int64(950), causes[0].Timestamp)
		assert.Equal(t, int64(700), causes[1].Timestamp)
	})

	t.Run("equal confidence and distance breaks on earlier event", func(t *testing.T) {
		causes := rankCauses([]contribution{
			makeContribution(950, "deploy", e, 0.5, 50),
			makeContribution(900, "deploy", e, 0.5, 50),
		}, cfg)

		require.Len(t, causes, 2)
		assert.Equal(t, int64(900), causes[0].Timestamp)
		assert.Equal(t, int64(950), causes[1].Timestamp)
	})
}

func TestRankCausesEvidenceOrdering(t *testing.T) {
	cfg := DefaultConfig()
	eLate := makeEpisode("cpu", 2000, 2100, 50, 90, 8)
	eEarly := makeEpisode("cpu", 1000, 1100, 50, 95, 9)
	eOther := makeEpisode("api_errors", 1000, 1100, 1, 9, 8)

	causes := rankCauses([]contribution{
		makeContribution(950, "deploy", eLate, 0.5, 50),
		makeContribution(950, "deploy", eOther, 0.5, 50),
		makeContribution(950, "deploy", eEarly, 0.5, 50),
	}, cfg)

	require.Len(t, causes, 1)
	refs := causes[0].Episodes
	require.Len(t, refs, 3)
	// ordered by metric name, then start_ts
	assert.Equal(t, "api_errors", refs[0].Metric)
	assert.Equal(t, "cpu", refs[1].Metric)
	assert.Equal(t, int64(1000), refs[1].StartTS)
	assert.Equal(t, "cpu", refs[2].Metric)
	assert.Equal(t, int64(2000), refs[2].StartTS)
}

func TestRankCausesZeroScoreDropped(t *testing.T) {
	cfg := DefaultConfig()
	e := makeEpisode("latency", 1000, 1100, 100, 200, 10)

	// a pair at the exact window edge contributes a zero raw score;
	// an event with nothing but zero-score pairs yields no cause entry
	causes := rankCauses([]contribution{
		makeContribution(1700, "deploy", e, 0, 600),
	}, cfg)

	assert.Empty(t, causes)
}

func TestRankCausesLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCauses = 1
	e := makeEpisode("latency", 1000, 1100, 100, 200, 10)

	causes := rankCauses([]contribution{
		makeContribution(950, "deploy", e, 0.9, 50),
		makeContribution(900, "note", e, 0.3, 100),
	}, cfg)

	require.Len(t, causes, 1)
	assert.Equal(t, "deploy", causes[0].EventType)
}
