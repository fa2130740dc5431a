package config

import (
	"fmt"

	"github.com/causelab/causeway/internal/analysis"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadScoringFile loads analysis scoring overrides from a YAML file using
// Koanf. Values start from the engine defaults; the file only needs to
// name the keys it wants to change, e.g.:
//
//	agreement_bonus: 0.25
//	priors:
//	  deploy: 1.0
//	  rollback: 0.9
//
// Returns the merged and validated configuration or an error.
func LoadScoringFile(filepath string) (*analysis.Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load scoring config from %q: %w", filepath, err)
	}

	cfg := analysis.DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse scoring config from %q: %w", filepath, err)
	}

	// a priors block in the file replaces the whole table; merge the
	// defaults back in for types the file does not mention
	for eventType, prior := range analysis.DefaultPriors() {
		if _, ok := cfg.Priors[eventType]; !ok {
			cfg.Priors[eventType] = prior
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config validation failed for %q: %w", filepath, err)
	}

	return &cfg, nil
}
