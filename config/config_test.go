package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/gatherkit/logger"
)

func TestEngineConfigApplyDefaults(t *testing.T) {
	var cfg EngineConfig
	cfg.ApplyDefaults()

	if cfg.Parallelism != runtime.GOMAXPROCS(0) {
		t.Errorf("expected parallelism %d, got %d", runtime.GOMAXPROCS(0), cfg.Parallelism)
	}
	if cfg.LeafTargetFactor != DefaultLeafTargetFactor {
		t.Errorf("expected factor %d, got %d", DefaultLeafTargetFactor, cfg.LeafTargetFactor)
	}
	if cfg.BatchUnit != DefaultBatchUnit || cfg.MaxBatch != DefaultMaxBatch {
		t.Errorf("unexpected batch bounds %d/%d", cfg.BatchUnit, cfg.MaxBatch)
	}
}

func TestEngineConfigApplyDefaultsKeepsValues(t *testing.T) {
	cfg := EngineConfig{Parallelism: 3, LeafTargetFactor: 2, BatchUnit: 16, MaxBatch: 64}
	cfg.ApplyDefaults()
	if cfg.Parallelism != 3 || cfg.LeafTargetFactor != 2 || cfg.BatchUnit != 16 || cfg.MaxBatch != 64 {
		t.Errorf("explicit values were overwritten: %+v", cfg)
	}
}

func TestEngineConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     EngineConfig
		wantErr string
	}{
		{"defaults", DefaultEngineConfig(), ""},
		{"negative parallelism", EngineConfig{Parallelism: -1, LeafTargetFactor: 4, BatchUnit: 1, MaxBatch: 1}, "parallelism"},
		{"factor too large", EngineConfig{Parallelism: 1, LeafTargetFactor: 65, BatchUnit: 1, MaxBatch: 1}, "leaf_target_factor"},
		{"max below unit", EngineConfig{Parallelism: 1, LeafTargetFactor: 4, BatchUnit: 8, MaxBatch: 4}, "max_batch"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	t.Run("development enables debug checks", func(t *testing.T) {
		cfg := Config{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Engine.Debug {
			t.Error("expected engine debug for development")
		}
		if cfg.Logging.Components[logger.ComponentGather] != "debug" {
			t.Errorf("expected gather logging at debug, got %q", cfg.Logging.Components[logger.ComponentGather])
		}
		if cfg.Observability.SampleRate != 1.0 {
			t.Errorf("expected sample rate 1.0, got %v", cfg.Observability.SampleRate)
		}
	})

	t.Run("explicit component level wins", func(t *testing.T) {
		cfg := Config{Name: "svc", Logging: logger.Config{Components: map[string]string{logger.ComponentGather: "warn"}}}
		cfg.ApplyDefaults()
		if cfg.Logging.Components[logger.ComponentGather] != "warn" {
			t.Errorf("expected configured level to be kept, got %q", cfg.Logging.Components[logger.ComponentGather])
		}
	})

	t.Run("production keeps debug off", func(t *testing.T) {
		cfg := Config{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Engine.Debug {
			t.Error("expected engine debug off for production")
		}
		if _, ok := cfg.Logging.Components[logger.ComponentGather]; ok {
			t.Error("expected no gather level override in production")
		}
		if cfg.Observability.MetricInterval != 15*time.Second {
			t.Errorf("expected 15s interval, got %v", cfg.Observability.MetricInterval)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		c := Config{Name: "svc", Environment: "staging"}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing name", func(c *Config) { c.Name = "" }, "config.name is required"},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "config.environment must be one of"},
		{"bad engine", func(c *Config) { c.Engine.Parallelism = -2 }, "config.engine"},
		{"bad logging", func(c *Config) { c.Logging.Level = "chatty" }, "config.logging"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfigDerivedObservability(t *testing.T) {
	cfg := Config{Name: "svc", Version: "2.0.0", Environment: "production"}
	cfg.ApplyDefaults()

	tc := cfg.TracerConfig()
	if tc.ServiceName != "svc" || tc.ServiceVersion != "2.0.0" || tc.Endpoint != "localhost:4318" {
		t.Errorf("unexpected tracer config %+v", tc)
	}
	mc := cfg.MeterConfig()
	if mc.Interval != 15*time.Second || mc.Environment != "production" {
		t.Errorf("unexpected meter config %+v", mc)
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: indexer
environment: staging
engine:
  parallelism: 6
  leaf_target_factor: 2
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load("indexer", WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Engine.Parallelism != 6 || cfg.Engine.LeafTargetFactor != 2 {
		t.Errorf("unexpected engine config %+v", cfg.Engine)
	}
	if cfg.Engine.BatchUnit != DefaultBatchUnit {
		t.Errorf("expected default batch unit, got %d", cfg.Engine.BatchUnit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level 'debug', got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: indexer\nengine:\n  parallelism: 2\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("ENGINE_PARALLELISM", "9")

	cfg, err := Load("indexer", WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Parallelism != 9 {
		t.Errorf("expected env override 9, got %d", cfg.Engine.Parallelism)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg Config
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadRejectsInvalidEngine(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: x\nengine:\n  parallelism: -4\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load("x", WithConfigFile(configPath)); err == nil {
		t.Fatal("expected validation error")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("config", "indexer.yml"): true,
		filepath.Join("..", ".env"):            true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("indexer", LoaderConfig{})
	if files.ConfigFile != filepath.Join("config", "indexer.yml") {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != filepath.Join("..", ".env") {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{}}
	files := resolver.ResolveFiles("svc", LoaderConfig{ConfigFile: "/a.yml", EnvFile: "/b.env"})
	if files.ConfigFile != "/a.yml" || files.EnvFile != "/b.env" {
		t.Errorf("explicit paths not kept: %+v", files)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("ENGINE_LEAF_TARGET_FACTOR")
	want := map[string]bool{
		"engine_leaf_target_factor": true,
		"engine.leaf.target.factor": true,
		"engine.leaf_target_factor": true,
	}
	found := 0
	for _, v := range got {
		if want[v] {
			found++
		}
	}
	if found != len(want) {
		t.Errorf("expected variants %v within %v", want, got)
	}
	if single := envKeyVariants("DEBUG"); len(single) != 1 || single[0] != "debug" {
		t.Errorf("unexpected single-part variants %v", single)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
}
