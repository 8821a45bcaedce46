// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bcdannyboy/optpricer/pricing"
	"github.com/bcdannyboy/optpricer/probability"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Server configures the HTTP adapter.
type Server struct {
	Addr     string `yaml:"addr"`
	GinMode  string `yaml:"gin_mode"`
	MaxSteps int    `yaml:"max_steps"`
	MaxGrid  int    `yaml:"max_grid"`
}

// Pricing holds the binomial tree defaults.
type Pricing struct {
	Steps int           `yaml:"steps"`
	Bumps pricing.Bumps `yaml:"bumps"`
}

// Risk configures the scenario grid and the evaluator.
type Risk struct {
	Confidence float64 `yaml:"confidence"`
	Grid       string  `yaml:"grid"`
	GridWidth  float64 `yaml:"grid_width"`
	GridPoints int     `yaml:"grid_points"`
	Horizon    float64 `yaml:"horizon"`
	Workers    int     `yaml:"workers"`
}

// Slack toggles the slash-command bot. Tokens come from the environment.
type Slack struct {
	Enabled bool `yaml:"enabled"`
	Debug   bool `yaml:"debug"`
}

type Config struct {
	App     App     `yaml:"app"`
	Server  Server  `yaml:"server"`
	Pricing Pricing `yaml:"pricing"`
	Risk    Risk    `yaml:"risk"`
	Slack   Slack   `yaml:"slack"`
}

const (
	GridLinear    = "linear"
	GridLognormal = "lognormal"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.withDefaults()
	return cfg
}

func (c *Config) withDefaults() {
	if c.App.Name == "" {
		c.App.Name = "optpricer"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.MetricsAddr == "" {
		c.App.MetricsAddr = ":9102"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = "release"
	}
	if c.Server.MaxSteps == 0 {
		c.Server.MaxSteps = 5000
	}
	if c.Server.MaxGrid == 0 {
		c.Server.MaxGrid = 200
	}
	if c.Pricing.Steps == 0 {
		c.Pricing.Steps = pricing.DefaultSteps
	}
	if c.Pricing.Bumps == (pricing.Bumps{}) {
		c.Pricing.Bumps = pricing.DefaultBumps
	}
	if c.Risk.Confidence == 0 {
		c.Risk.Confidence = 0.95
	}
	if c.Risk.Grid == "" {
		c.Risk.Grid = GridLinear
	}
	if c.Risk.GridWidth == 0 {
		c.Risk.GridWidth = probability.DefaultGridWidth
	}
	if c.Risk.GridPoints == 0 {
		c.Risk.GridPoints = probability.DefaultGridPoints
	}
	if c.Risk.Horizon == 0 {
		c.Risk.Horizon = 1.0 / 12
	}
}

// Validate checks the values a zero default cannot repair.
func (c *Config) Validate() error {
	if c.Pricing.Steps < 1 {
		return fmt.Errorf("pricing.steps must be positive, got %d", c.Pricing.Steps)
	}
	if err := c.Pricing.Bumps.Validate(); err != nil {
		return fmt.Errorf("pricing.bumps: %w", err)
	}
	if !(c.Risk.Confidence > 0 && c.Risk.Confidence < 1) {
		return fmt.Errorf("risk.confidence must be in (0, 1), got %v", c.Risk.Confidence)
	}
	if c.Risk.Grid != GridLinear && c.Risk.Grid != GridLognormal {
		return fmt.Errorf("risk.grid must be %q or %q, got %q", GridLinear, GridLognormal, c.Risk.Grid)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode must be debug, release or test, got %q", c.Server.GinMode)
	}
	if c.Risk.Workers < 0 {
		return fmt.Errorf("risk.workers must not be negative, got %d", c.Risk.Workers)
	}
	return nil
}

// SpotGrid builds the configured risk grid around spot. vol is only used by
// the lognormal grid.
func (r Risk) SpotGrid(spot, vol, rate float64) ([]float64, error) {
	if r.Grid == GridLognormal {
		return probability.LognormalGrid(spot, vol, r.Horizon, rate, r.GridPoints)
	}
	return probability.LinearGrid(spot, r.GridWidth, r.GridPoints)
}

// Load reads a YAML file from disk, fills unset fields with defaults and
// validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
