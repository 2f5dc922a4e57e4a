package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "month", cfg.Unit)
	assert.InDelta(t, 0.02, cfg.RiskFreeRate, 1e-12)
	assert.InDelta(t, 100000.0, cfg.InitialCapital, 1e-12)
	assert.Equal(t, 3, cfg.TopBuckets)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"assets": [{"symbol": "SPY", "source": "data/spy.csv"}],
		"unit": "quarter",
		"commission": 0.002,
		"monte_carlo": {"simulations": 5000, "seed": 7}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "quarter", cfg.Unit)
	assert.InDelta(t, 0.002, cfg.Commission, 1e-12)
	assert.Equal(t, 5000, cfg.MonteCarlo.Simulations)
	assert.EqualValues(t, 7, cfg.MonteCarlo.Seed)
	// Untouched fields keep defaults.
	assert.InDelta(t, 100000.0, cfg.InitialCapital, 1e-12)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"unit": "month"}`), 0o644))

	t.Setenv("SEASONAL_UNIT", "weekday")
	t.Setenv("SEASONAL_MC_SIMULATIONS", "1234")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "weekday", cfg.Unit)
	assert.Equal(t, 1234, cfg.MonteCarlo.Simulations)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"bad unit", func(c *Config) { c.Unit = "fortnight" }, false},
		{"negative capital", func(c *Config) { c.InitialCapital = -1 }, false},
		{"commission at 1", func(c *Config) { c.Commission = 1 }, false},
		{"confidence out of range", func(c *Config) { c.ConfidenceLevels = []float64{1.5} }, false},
		{"duplicate symbols", func(c *Config) {
			c.Assets = []Asset{
				{Symbol: "SPY", Source: "a.csv"},
				{Symbol: "SPY", Source: "b.csv"},
			}
		}, false},
		{"empty source", func(c *Config) {
			c.Assets = []Asset{{Symbol: "SPY"}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
