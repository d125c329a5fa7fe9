package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DatasiteConfig identifies the datasite the agent publishes into.
type DatasiteConfig struct {
	Root    string   `json:"root" validate:"required"`
	Email   string   `json:"email" validate:"required,email"`
	Readers []string `json:"readers" validate:"dive,email"`
}

// SamplingConfig controls CPU sample collection.
type SamplingConfig struct {
	Count    int           `json:"count" validate:"gt=0"`
	Interval time.Duration `json:"interval"`
	Timeout  time.Duration `json:"timeout"`
}

// PrivacyConfig holds the differential privacy parameters.
type PrivacyConfig struct {
	Epsilon float64 `json:"epsilon" validate:"gt=0"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
}

// RunConfig controls the daemon loop and auxiliary outputs.
type RunConfig struct {
	Interval   time.Duration `json:"interval"`
	HistoryDB  string        `json:"history_db"`
	HealthPort int           `json:"health_port"`
}

// Config is the agent configuration. It is passed explicitly to every
// component that needs it; there is no ambient global.
type Config struct {
	Datasite DatasiteConfig `json:"datasite"`
	Sampling SamplingConfig `json:"sampling"`
	Privacy  PrivacyConfig  `json:"privacy"`
	Run      RunConfig      `json:"run"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Datasite: DatasiteConfig{
			Readers: []string{"aggregator@openmined.org"},
		},
		Sampling: SamplingConfig{
			Count:    50,
			Interval: 100 * time.Millisecond,
			Timeout:  30 * time.Second,
		},
		Privacy: PrivacyConfig{
			Epsilon: 0.5,
			Lower:   0,
			Upper:   100,
		},
		Run: RunConfig{
			Interval:   5 * time.Minute,
			HealthPort: 0,
		},
	}
}

// Load returns the default configuration with environment overrides applied.
// A .env file in the working directory is honored if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from a JSON file over the defaults, then
// applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("CPU_TRACKER_DATASITE"); v != "" {
		c.Datasite.Root = v
	}
	if v := os.Getenv("CPU_TRACKER_EMAIL"); v != "" {
		c.Datasite.Email = v
	}
	if v := os.Getenv("CPU_TRACKER_AGGREGATOR"); v != "" {
		c.Datasite.Readers = []string{v}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Privacy.Lower >= c.Privacy.Upper {
		return fmt.Errorf("privacy bounds [%v, %v] are not a valid interval",
			c.Privacy.Lower, c.Privacy.Upper)
	}
	if c.Sampling.Interval <= 0 {
		return fmt.Errorf("sampling interval must be positive")
	}

	return nil
}

// HistoryDBPath returns the configured history database path, defaulting to
// the private tier under the datasite root.
func (c *Config) HistoryDBPath() string {
	if c.Run.HistoryDB != "" {
		return c.Run.HistoryDB
	}
	return filepath.Join(c.Datasite.Root, "private", "cpu_tracker", "history.db")
}

// SaveConfig writes the configuration to a JSON file.
func (c *Config) SaveConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
