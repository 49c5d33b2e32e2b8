package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/flowkit/logger"
)

func TestConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := Config{Name: "app", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("workers size defaults to a positive value", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Workers.Size < 1 {
			t.Errorf("expected positive workers size, got %d", cfg.Workers.Size)
		}
	})

	t.Run("explicit workers size is kept", func(t *testing.T) {
		cfg := Config{Name: "app", Workers: WorkersConfig{Size: 3}}
		cfg.ApplyDefaults()
		if cfg.Workers.Size != 3 {
			t.Errorf("expected workers size 3, got %d", cfg.Workers.Size)
		}
	})

	t.Run("grace period defaults when a proc pool is sized", func(t *testing.T) {
		cfg := Config{Name: "app", Procs: ProcsConfig{Size: 2, Binary: "/usr/bin/worker"}}
		cfg.ApplyDefaults()
		if cfg.Procs.GracePeriod != 5*time.Second {
			t.Errorf("expected grace period 5s, got %v", cfg.Procs.GracePeriod)
		}
	})

	t.Run("grace period stays zero without a proc pool", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Procs.GracePeriod != 0 {
			t.Errorf("expected zero grace period, got %v", cfg.Procs.GracePeriod)
		}
	})

	t.Run("logging defaults are applied", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging level 'info', got %q", cfg.Logging.Level)
		}
	})
}

func validConfig() Config {
	return Config{
		Name:        "wordcount",
		Environment: "production",
		Logging:     logger.Config{Level: "info", Format: "json"},
		Workers:     WorkersConfig{Size: 4},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{"valid", func(c *Config) {}, false, ""},
		{"missing name", func(c *Config) { c.Name = "" }, true, "config.name is required"},
		{"invalid environment", func(c *Config) { c.Environment = "qa" }, true, "config.environment must be one of"},
		{"invalid logging", func(c *Config) { c.Logging.Level = "verbose" }, true, "config.logging:"},
		{"zero workers", func(c *Config) { c.Workers.Size = 0 }, true, "config.workers.size must be at least 1"},
		{"negative procs size", func(c *Config) { c.Procs.Size = -1 }, true, "config.procs.size must not be negative"},
		{"procs without binary", func(c *Config) { c.Procs.Size = 2 }, true, "config.procs.binary is required"},
		{"procs with binary", func(c *Config) { c.Procs = ProcsConfig{Size: 2, Binary: "/usr/bin/worker"} }, false, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "flowkit.yml")

	yamlContent := `
name: wordcount
environment: staging
logging:
  level: debug
workers:
  size: 4
procs:
  size: 2
  binary: /usr/local/bin/flowkit-worker
  args: ["--quiet"]
  grace_period: 2s
definitions:
  - ./definitions
  - ./shared/definitions
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "wordcount" {
		t.Errorf("expected name 'wordcount', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Debug {
		t.Error("expected debug=false for staging")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level 'debug', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("expected defaulted logging format 'console', got %q", cfg.Logging.Format)
	}
	if cfg.Workers.Size != 4 {
		t.Errorf("expected workers size 4, got %d", cfg.Workers.Size)
	}
	if cfg.Procs.Size != 2 {
		t.Errorf("expected procs size 2, got %d", cfg.Procs.Size)
	}
	if cfg.Procs.Binary != "/usr/local/bin/flowkit-worker" {
		t.Errorf("unexpected procs binary %q", cfg.Procs.Binary)
	}
	if len(cfg.Procs.Args) != 1 || cfg.Procs.Args[0] != "--quiet" {
		t.Errorf("unexpected procs args %v", cfg.Procs.Args)
	}
	if cfg.Procs.GracePeriod != 2*time.Second {
		t.Errorf("expected grace period 2s, got %v", cfg.Procs.GracePeriod)
	}
	if len(cfg.Definitions) != 2 || cfg.Definitions[0] != "./definitions" {
		t.Errorf("unexpected definitions %v", cfg.Definitions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/flowkit.yml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' error, got %v", err)
	}
}

func TestLoadValidates(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "flowkit.yml")

	yamlContent := `
workers:
  size: 4
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "config.name is required") {
		t.Errorf("expected name validation error, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "flowkit.yml")

	yamlContent := `
name: wordcount
workers:
  size: 2
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("FLOWKIT_WORKERS_SIZE", "8")
	t.Setenv("FLOWKIT_PROCS_SIZE", "3")
	t.Setenv("FLOWKIT_PROCS_BINARY", "/usr/local/bin/flowkit-worker")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workers.Size != 8 {
		t.Errorf("expected env override workers size 8, got %d", cfg.Workers.Size)
	}
	if cfg.Procs.Size != 3 {
		t.Errorf("expected env-only procs size 3, got %d", cfg.Procs.Size)
	}
	if cfg.Procs.Binary != "/usr/local/bin/flowkit-worker" {
		t.Errorf("unexpected procs binary %q", cfg.Procs.Binary)
	}
}

func TestLoadIntoWithEnvFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "flowkit.yml")
	envPath := filepath.Join(dir, ".env")

	yamlContent := `
name: wordcount
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := os.WriteFile(envPath, []byte("FLOWKIT_ENVIRONMENT=production\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("FLOWKIT_ENVIRONMENT") })

	var cfg Config
	err := LoadInto(&cfg, WithConfigFile(configPath), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}

	if cfg.Environment != "production" {
		t.Errorf("expected environment 'production' from env file, got %q", cfg.Environment)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	t.Run("finds config in search paths", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{
			"./config/flowkit.yml": true,
		}}
		resolver := &Resolver{FileSystem: fs}
		files := resolver.ResolveFiles(LoaderConfig{})
		if files.ConfigFile != "./config/flowkit.yml" {
			t.Errorf("expected config file at ./config/flowkit.yml, got %q", files.ConfigFile)
		}
	})

	t.Run("finds env file in search paths", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{
			"./.env": true,
		}}
		resolver := &Resolver{FileSystem: fs}
		files := resolver.ResolveFiles(LoaderConfig{})
		if files.EnvFile != "./.env" {
			t.Errorf("expected env file at ./.env, got %q", files.EnvFile)
		}
	})

	t.Run("explicit paths win over search", func(t *testing.T) {
		fs := &mockFS{files: map[string]bool{
			"./flowkit.yml": true,
		}}
		resolver := &Resolver{FileSystem: fs}
		files := resolver.ResolveFiles(LoaderConfig{ConfigFile: "/etc/flowkit.yml"})
		if files.ConfigFile != "/etc/flowkit.yml" {
			t.Errorf("expected explicit config file, got %q", files.ConfigFile)
		}
	})
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestWithConfigFileOption(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/flowkit.yml")(&lc)
	if lc.ConfigFile != "/path/to/flowkit.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
}

func TestWithEnvFileOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvFile("/path/to/.env")(&lc)
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}
