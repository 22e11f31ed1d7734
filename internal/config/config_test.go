package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"coursedash/internal/generator"
	"coursedash/internal/store"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"COURSEDASH_SEED", "COURSEDASH_MODE", "COURSEDASH_CATALOG", "COURSEDASH_EXPORT_DIR", "COURSEDASH_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "coursedash" {
		t.Errorf("expected Name=coursedash, got %s", cfg.Name)
	}
	if cfg.Generator.Mode != generator.ModeFixed {
		t.Errorf("expected fixed mode, got %s", cfg.Generator.Mode)
	}
	if cfg.Merge.UnknownIDs != store.IgnoreUnknown {
		t.Errorf("expected unknown_ids=ignore, got %s", cfg.Merge.UnknownIDs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "coursedash.yaml")

	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Generator = generator.RandomizedPolicy()
	cfg.Merge.UnknownIDs = store.ReportUnknown
	cfg.Logging.Categories = map[string]bool{"metrics": false}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "coursedash.yaml")
	if err := os.WriteFile(path, []byte("seed: 99\nexport:\n  dir: out\n  parallelism: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Seed != 99 || cfg.Export.Dir != "out" {
		t.Errorf("file values not applied: seed=%d dir=%s", cfg.Seed, cfg.Export.Dir)
	}
	if len(cfg.Generator.Years) != 4 {
		t.Errorf("expected default years to survive, got %v", cfg.Generator.Years)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "coursedash.yaml")
	if err := os.WriteFile(path, []byte("seed: [not a number\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mode", func(c *Config) { c.Generator.Mode = "chaotic" }},
		{"merge policy", func(c *Config) { c.Merge.UnknownIDs = "drop" }},
		{"parallelism", func(c *Config) { c.Export.Parallelism = 0 }},
		{"level", func(c *Config) { c.Logging.Level = "trace" }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", Categories: map[string]bool{"store": false}}
	if lc.IsCategoryEnabled("store") {
		t.Error("store should be disabled")
	}
	if !lc.IsCategoryEnabled("metrics") {
		t.Error("unlisted categories should be enabled")
	}

	got := lc.ToLogging()
	if got.Level != "debug" || got.Format != "json" || got.Categories["store"] {
		t.Errorf("unexpected conversion: %+v", got)
	}
}
