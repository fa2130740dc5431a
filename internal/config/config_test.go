package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/causelab/causeway/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBPath:                "causeway.db",
		APIPort:               8080,
		LogLevel:              "info",
		MaxConcurrentRequests: 100,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"port zero", func(c *Config) { c.APIPort = 0 }, true},
		{"port too large", func(c *Config) { c.APIPort = 70000 }, true},
		{"zero concurrent requests", func(c *Config) { c.MaxConcurrentRequests = 0 }, true},
		{"tracing enabled without endpoint", func(c *Config) { c.TracingEnabled = true }, true},
		{"tracing enabled with endpoint", func(c *Config) {
			c.TracingEnabled = true
			c.TracingEndpoint = "collector:4317"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func writeScoringFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadScoringFileOverrides(t *testing.T) {
	path := writeScoringFile(t, `
z_threshold: 2.5
agreement_bonus: 0.2
priors:
  rollback: 0.9
  deploy: 0.95
`)

	cfg, err := LoadScoringFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.ZThreshold)
	assert.Equal(t, 0.2, cfg.AgreementBonus)
	assert.Equal(t, 0.9, cfg.Priors["rollback"])
	assert.Equal(t, 0.95, cfg.Priors["deploy"])
	// unnamed keys keep their defaults
	assert.Equal(t, int64(analysis.DefaultEpisodeGapSeconds), cfg.EpisodeGapSeconds)
	assert.Equal(t, 0.85, cfg.Priors["config_change"])
}

func TestLoadScoringFileDefaultsOnly(t *testing.T) {
	path := writeScoringFile(t, "{}\n")

	cfg, err := LoadScoringFile(path)
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultConfig().ZThreshold, cfg.ZThreshold)
}

func TestLoadScoringFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "priors: ["},
		{"out of range prior", "priors:\n  deploy: 7.0\n"},
		{"negative threshold", "z_threshold: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScoringFile(t, tt.content)
			_, err := LoadScoringFile(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadScoringFileMissing(t *testing.T) {
	_, err := LoadScoringFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScoringProviderDefaults(t *testing.T) {
	p := NewScoringProvider("")
	require.NoError(t, p.Start(t.Context()))

	cfg := p.Current()
	assert.Equal(t, analysis.DefaultZThreshold, cfg.ZThreshold)

	// per-request mutation must not leak into the shared config
	cfg.MaxCauses = 3
	assert.Zero(t, p.Current().MaxCauses)
}

func TestScoringProviderLoadsInitialFile(t *testing.T) {
	path := writeScoringFile(t, "max_causes: 5\n")

	p := NewScoringProvider(path)
	require.NoError(t, p.Start(t.Context()))
	t.Cleanup(func() { _ = p.Stop(t.Context()) })

	assert.Equal(t, 5, p.Current().MaxCauses)
}
