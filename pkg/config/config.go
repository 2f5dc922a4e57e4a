// Package config holds the analysis configuration: a JSON file layered with
// environment overrides, validated before anything runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Asset names one symbol and its data file.
type Asset struct {
	Symbol string `json:"symbol"`
	Source string `json:"source"`
}

// MonteCarloConfig mirrors the simulator knobs. Zero values mean "use the
// engine default".
type MonteCarloConfig struct {
	Simulations int   `json:"simulations"`
	Horizon     int   `json:"horizon"`
	Workers     int   `json:"workers"`
	Seed        int64 `json:"seed"`
}

// OutputConfig selects report destinations. Empty paths disable a format;
// console output is always on.
type OutputConfig struct {
	JSONPath  string `json:"json_path"`
	ExcelPath string `json:"excel_path"`
}

// Config is the full analysis setup.
type Config struct {
	Assets []Asset `json:"assets"`

	Unit             string    `json:"unit"` // month, weekday, quarter
	Geometric        bool      `json:"geometric"`
	RiskFreeRate     float64   `json:"risk_free_rate"`
	ConfidenceLevels []float64 `json:"confidence_levels"`

	InitialCapital float64 `json:"initial_capital"`
	Commission     float64 `json:"commission"`
	TopBuckets     int     `json:"top_buckets"`

	MonteCarlo MonteCarloConfig `json:"monte_carlo"`
	Output     OutputConfig     `json:"output"`

	Workers     int    `json:"workers"`
	MetricsAddr string `json:"metrics_addr"`
	LogLevel    string `json:"log_level"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Unit:           "month",
		RiskFreeRate:   0.02,
		InitialCapital: 100000,
		Commission:     0.001,
		TopBuckets:     3,
		LogLevel:       "info",
	}
}

// Load reads a JSON config file on top of the defaults and then applies
// environment overrides. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// applyEnv layers SEASONAL_* environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("SEASONAL_UNIT"); v != "" {
		c.Unit = v
	}
	if v := os.Getenv("SEASONAL_RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RiskFreeRate = f
		}
	}
	if v := os.Getenv("SEASONAL_INITIAL_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.InitialCapital = f
		}
	}
	if v := os.Getenv("SEASONAL_COMMISSION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Commission = f
		}
	}
	if v := os.Getenv("SEASONAL_MC_SIMULATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MonteCarlo.Simulations = n
		}
	}
	if v := os.Getenv("SEASONAL_MC_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MonteCarlo.Seed = n
		}
	}
	if v := os.Getenv("SEASONAL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("SEASONAL_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("SEASONAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the config for values the engine would reject later.
func (c *Config) Validate() error {
	var problems []string

	switch c.Unit {
	case "month", "monthly", "weekday", "daily", "quarter", "quarterly":
	default:
		problems = append(problems, fmt.Sprintf("unknown unit %q", c.Unit))
	}

	if c.InitialCapital <= 0 {
		problems = append(problems, "initial_capital must be positive")
	}
	if c.Commission < 0 || c.Commission >= 1 {
		problems = append(problems, "commission must be in [0, 1)")
	}
	if c.TopBuckets < 0 {
		problems = append(problems, "top_buckets must not be negative")
	}
	for _, level := range c.ConfidenceLevels {
		if level <= 0 || level >= 1 {
			problems = append(problems, fmt.Sprintf("confidence level %v out of (0, 1)", level))
		}
	}
	if c.MonteCarlo.Simulations < 0 {
		problems = append(problems, "monte_carlo.simulations must not be negative")
	}

	seen := make(map[string]bool, len(c.Assets))
	for i, a := range c.Assets {
		if a.Symbol == "" {
			problems = append(problems, fmt.Sprintf("assets[%d]: empty symbol", i))
		}
		if a.Source == "" {
			problems = append(problems, fmt.Sprintf("assets[%d]: empty source", i))
		}
		if seen[a.Symbol] {
			problems = append(problems, fmt.Sprintf("duplicate symbol %q", a.Symbol))
		}
		seen[a.Symbol] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
