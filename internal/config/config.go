package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration.
const DefaultPath = "personasim.yaml"

const DefaultDSN = "sqlite://./personasim.db"

type ProjectConfig struct {
	Project    string           `yaml:"project"`
	Version    int              `yaml:"version"`
	Database   DatabaseConfig   `yaml:"database"`
	Simulation SimulationConfig `yaml:"simulation"`
	Log        LogConfig        `yaml:"log"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type SimulationConfig struct {
	MinDelay    time.Duration `yaml:"min_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxMessages int           `yaml:"max_messages"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default is the configuration used when no file exists.
func Default() *ProjectConfig {
	cfg := &ProjectConfig{Project: "personasim", Version: 1}
	applyDefaults(cfg)
	return cfg
}

// LoadProjectConfig reads and validates the file at path. A missing file
// yields Default.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = DefaultDSN
	}
	if cfg.Simulation.MinDelay == 0 && cfg.Simulation.MaxDelay == 0 {
		cfg.Simulation.MinDelay = 2 * time.Second
		cfg.Simulation.MaxDelay = 3 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if !strings.Contains(cfg.Database.DSN, "://") {
		return fmt.Errorf("database dsn must include a scheme: %q", cfg.Database.DSN)
	}

	sim := cfg.Simulation
	if sim.MinDelay < 0 || sim.MaxDelay < 0 {
		return fmt.Errorf("simulation delays must not be negative")
	}
	if sim.MinDelay > sim.MaxDelay {
		return fmt.Errorf("simulation min_delay %s exceeds max_delay %s", sim.MinDelay, sim.MaxDelay)
	}
	if sim.MaxMessages < 0 {
		return fmt.Errorf("simulation max_messages must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", cfg.Log.Format)
	}

	return nil
}

// Scaffold returns the contents of a fresh config file.
func Scaffold(project string) string {
	return fmt.Sprintf(`project: %s
version: 1

database:
  dsn: %s

simulation:
  min_delay: 2s
  max_delay: 3s
  max_messages: 0

log:
  level: info
  format: text
  file: ""
`, project, DefaultDSN)
}
