// Package analysis implements the incident analysis engine: baseline
// estimation, anomaly detection, episode clustering, and event
// correlation/ranking. The engine is a pure function of one incident
// snapshot; it performs no I/O and holds no state between calls.
package analysis

import "fmt"

// Default tuning values. These are deliberately conservative and match the
// behavior the service shipped with; they can be overridden per deployment
// via the scoring configuration file.
const (
	// DefaultBaselineMinPoints is the floor of the baseline window size.
	DefaultBaselineMinPoints = 30
	// DefaultBaselineFraction is the leading fraction of a series used
	// for the baseline window.
	DefaultBaselineFraction = 0.25
	// DefaultZThreshold is the |z| at which a point counts as anomalous.
	DefaultZThreshold = 3.0
	// DefaultEpisodeGapSeconds is the maximum gap between consecutive
	// anomalies that still belong to the same episode.
	DefaultEpisodeGapSeconds = 120
	// DefaultCorrelationWindowSeconds is the maximum temporal distance
	// between an event and an episode for the pair to be considered.
	DefaultCorrelationWindowSeconds = 600
	// DefaultAgreementBonus is added to a cause's confidence when at
	// least two distinct metrics corroborate it with overlapping episodes.
	DefaultAgreementBonus = 0.35
	// DefaultPrior is the prior weight for event types missing from the
	// prior table.
	DefaultPrior = 0.60
)

// DefaultPriors returns the built-in event-type prior table. Priors encode
// how plausible a cause each event type is before looking at the data.
func DefaultPriors() map[string]float64 {
	return map[string]float64{
		"deploy":        1.00,
		"config_change": 0.85,
		"feature_flag":  0.75,
		"migration":     0.80,
		"note":          0.50,
	}
}

// Config holds the engine tunables. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	BaselineMinPoints        int                `json:"baseline_min_points" yaml:"baseline_min_points"`
	BaselineFraction         float64            `json:"baseline_fraction" yaml:"baseline_fraction"`
	ZThreshold               float64            `json:"z_threshold" yaml:"z_threshold"`
	EpisodeGapSeconds        int64              `json:"episode_gap_seconds" yaml:"episode_gap_seconds"`
	CorrelationWindowSeconds int64              `json:"correlation_window_seconds" yaml:"correlation_window_seconds"`
	AgreementBonus           float64            `json:"agreement_bonus" yaml:"agreement_bonus"`
	Priors                   map[string]float64 `json:"priors" yaml:"priors"`
	DefaultPrior             float64            `json:"default_prior" yaml:"default_prior"`

	// MaxCauses caps the number of returned causes. Zero means no cap.
	MaxCauses int `json:"max_causes" yaml:"max_causes"`
}

// DefaultConfig returns the engine configuration with built-in defaults.
func DefaultConfig() Config {
	return Config{
		BaselineMinPoints:        DefaultBaselineMinPoints,
		BaselineFraction:         DefaultBaselineFraction,
		ZThreshold:               DefaultZThreshold,
		EpisodeGapSeconds:        DefaultEpisodeGapSeconds,
		CorrelationWindowSeconds: DefaultCorrelationWindowSeconds,
		AgreementBonus:           DefaultAgreementBonus,
		Priors:                   DefaultPriors(),
		DefaultPrior:             DefaultPrior,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.BaselineMinPoints < 1 {
		return fmt.Errorf("baseline_min_points must be at least 1, got %d", c.BaselineMinPoints)
	}
	if c.BaselineFraction <= 0 || c.BaselineFraction > 1 {
		return fmt.Errorf("baseline_fraction must be in (0,1], got %v", c.BaselineFraction)
	}
	if c.ZThreshold <= 0 {
		return fmt.Errorf("z_threshold must be positive, got %v", c.ZThreshold)
	}
	if c.EpisodeGapSeconds < 0 {
		return fmt.Errorf("episode_gap_seconds must be non-negative, got %d", c.EpisodeGapSeconds)
	}
	if c.CorrelationWindowSeconds <= 0 {
		return fmt.Errorf("correlation_window_seconds must be positive, got %d", c.CorrelationWindowSeconds)
	}
	if c.AgreementBonus < 0 {
		return fmt.Errorf("agreement_bonus must be non-negative, got %v", c.AgreementBonus)
	}
	if c.DefaultPrior < 0 || c.DefaultPrior > 1 {
		return fmt.Errorf("default_prior must be in [0,1], got %v", c.DefaultPrior)
	}
	for eventType, prior := range c.Priors {
		if prior < 0 || prior > 1 {
			return fmt.Errorf("prior for %q must be in [0,1], got %v", eventType, prior)
		}
	}
	if c.MaxCauses < 0 {
		return fmt.Errorf("max_causes must be non-negative, got %d", c.MaxCauses)
	}
	return nil
}

// prior returns the weight for an event type, falling back to DefaultPrior
// for unrecognized types. The table is an explicit enumeration on purpose:
// unknown types must degrade predictably, not dynamically.
func (c Config) prior(eventType string) float64 {
	if p, ok := c.Priors[eventType]; ok {
		return p
	}
	return c.DefaultPrior
}
