// Package config loads and validates the sweep configuration: YAML file
// first, environment overrides second. Configuration errors are fatal before
// any grid point is dispatched.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region types

// SweepConfig holds the parameter value sets whose Cartesian product forms
// the grid.
type SweepConfig struct {
	Beta        []float64 `yaml:"beta"`
	K           []float64 `yaml:"k"`
	Tau         []float64 `yaml:"tau"`
	Alpha       []float64 `yaml:"alpha"`
	Seeds       []int     `yaml:"seeds"`
	Adversarial []bool    `yaml:"adversarial"`
}

// Size returns the number of grid points the sweep enumerates.
func (s SweepConfig) Size() int {
	return len(s.Beta) * len(s.K) * len(s.Tau) * len(s.Alpha) * len(s.Seeds) * len(s.Adversarial)
}

// Config is the full harness configuration.
type Config struct {
	// Inference service
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	APIKey          string `yaml:"-"` // resolved from APIKeyEnv, never from file
	RequestTimeoutS int    `yaml:"request_timeout_s"`
	MaxAttempts     int    `yaml:"max_attempts"`
	BaseDelayMS     int    `yaml:"base_delay_ms"`

	// Output
	LedgerPath  string `yaml:"ledger_path"`
	AuditDBPath string `yaml:"audit_db"`

	// Scheduling
	Workers     int   `yaml:"workers"`
	TimeBudgetS int   `yaml:"time_budget_s"` // 0 = no budget
	RetryFailed bool  `yaml:"retry_failed"`
	Shuffle     bool  `yaml:"shuffle"`
	ShuffleSeed int64 `yaml:"shuffle_seed"`

	// Conversation
	MaxRounds      int     `yaml:"max_rounds"`
	AgreeThreshold float64 `yaml:"agree_threshold"`
	BaseTemp       float64 `yaml:"base_temp"`
	Prior          float64 `yaml:"prior"`
	T0             float64 `yaml:"t0"`

	Sweep SweepConfig `yaml:"sweep"`
}

// #endregion types

// #region defaults

// Default returns the harness defaults, including the narrow default sweep.
func Default() Config {
	return Config{
		Model:           "gpt-4o",
		BaseURL:         "https://api.openai.com",
		APIKeyEnv:       "OPENAI_API_KEY",
		RequestTimeoutS: 60,
		MaxAttempts:     3,
		BaseDelayMS:     500,
		LedgerPath:      "results.csv",
		AuditDBPath:     "audit.db",
		Workers:         1,
		ShuffleSeed:     1234,
		MaxRounds:       3,
		AgreeThreshold:  0.66,
		BaseTemp:        0.2,
		Prior:           0.5,
		T0:              0.7,
		Sweep: SweepConfig{
			Beta:        []float64{0.3},
			K:           []float64{3.0},
			Tau:         []float64{0.4, 0.5},
			Alpha:       []float64{0.4, 0.8, 1.2},
			Seeds:       []int{1},
			Adversarial: []bool{false, true},
		},
	}
}

// #endregion defaults

// #region load

// Load reads the optional YAML file, applies environment overrides, and
// validates. path may be empty to run on defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.APIKey = os.Getenv(cfg.APIKeyEnv)
	if v := os.Getenv("OPENAI_MODEL_NAME"); v != "" {
		cfg.Model = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// #endregion load

// #region validate

// Validate enforces the startup invariants. Any violation aborts the run
// before dispatch.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config: credential missing, set %s", c.APIKeyEnv)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	if c.TimeBudgetS < 0 {
		return fmt.Errorf("config: time_budget_s must be >= 0, got %d", c.TimeBudgetS)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("config: max_rounds must be >= 1, got %d", c.MaxRounds)
	}
	if c.AgreeThreshold < 0 || c.AgreeThreshold > 1 {
		return fmt.Errorf("config: agree_threshold must be in [0,1], got %v", c.AgreeThreshold)
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("config: ledger_path must not be empty")
	}

	dims := []struct {
		name string
		n    int
	}{
		{"beta", len(c.Sweep.Beta)},
		{"k", len(c.Sweep.K)},
		{"tau", len(c.Sweep.Tau)},
		{"alpha", len(c.Sweep.Alpha)},
		{"seeds", len(c.Sweep.Seeds)},
		{"adversarial", len(c.Sweep.Adversarial)},
	}
	for _, d := range dims {
		if d.n == 0 {
			return fmt.Errorf("config: sweep.%s must not be empty", d.name)
		}
	}
	for _, b := range c.Sweep.Beta {
		if b < 0 || b > 1 {
			return fmt.Errorf("config: sweep.beta values must be in [0,1], got %v", b)
		}
	}
	return nil
}

// #endregion validate
