package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"coursedash/internal/generator"
	"coursedash/internal/store"
)

// DefaultPath is where `coursedash config init` writes.
const DefaultPath = "coursedash.yaml"

// Config holds all coursedash configuration.
type Config struct {
	Name string `yaml:"name"`

	// Seed for the synthetic dataset. Same seed, same table.
	Seed uint64 `yaml:"seed"`

	// Optional YAML catalog; empty uses the built-in programs.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	Generator generator.Policy `yaml:"generator"`
	Merge     MergeConfig      `yaml:"merge"`
	Export    ExportConfig     `yaml:"export"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// MergeConfig configures edit merging.
type MergeConfig struct {
	UnknownIDs store.MergePolicy `yaml:"unknown_ids"` // ignore, report
}

// ExportConfig configures CSV output.
type ExportConfig struct {
	Dir         string `yaml:"dir"`
	Parallelism int    `yaml:"parallelism"` // concurrent per-year writers
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:      "coursedash",
		Seed:      42,
		Generator: generator.DefaultPolicy(),
		Merge: MergeConfig{
			UnknownIDs: store.IgnoreUnknown,
		},
		Export: ExportConfig{
			Dir:         "exports",
			Parallelism: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("COURSEDASH_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid COURSEDASH_SEED %q: %w", v, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("COURSEDASH_MODE"); v != "" {
		c.Generator.Mode = generator.Mode(v)
	}
	if v := os.Getenv("COURSEDASH_CATALOG"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("COURSEDASH_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("COURSEDASH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// ValidLevels lists the accepted log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the settings that do not need the catalog. Generator
// policy checks run when the session loads its catalog.
func (c *Config) Validate() error {
	if c.Generator.Mode != generator.ModeFixed && c.Generator.Mode != generator.ModeRandomized {
		return fmt.Errorf("invalid generator mode: %s (valid: %s, %s)", c.Generator.Mode, generator.ModeFixed, generator.ModeRandomized)
	}
	if !c.Merge.UnknownIDs.Valid() {
		return fmt.Errorf("invalid merge.unknown_ids: %s (valid: %s, %s)", c.Merge.UnknownIDs, store.IgnoreUnknown, store.ReportUnknown)
	}
	if c.Export.Parallelism < 1 {
		return fmt.Errorf("export.parallelism must be at least 1, got %d", c.Export.Parallelism)
	}

	validLevel := false
	for _, l := range ValidLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}
