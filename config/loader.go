package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment variable overrides. Dots in config
// keys become underscores, so FLOWKIT_WORKERS_SIZE overrides workers.size.
const envPrefix = "FLOWKIT"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding and resolving config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise searches
// standard locations.
func (r *Resolver) ResolveFiles(opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.findFirst(configSearchPaths)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.findFirst(envSearchPaths)
	}

	return resolved
}

func (r *Resolver) findFirst(paths []string) string {
	for _, path := range paths {
		if r.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// configSearchPaths lists standard locations for the flowkit config file.
var configSearchPaths = []string{
	"./flowkit.yml",
	"./flowkit.yaml",
	"./config/flowkit.yml",
	"./config/flowkit.yaml",
	"../config/flowkit.yml",
	"../config/flowkit.yaml",
}

// envSearchPaths lists standard locations for .env files.
var envSearchPaths = []string{
	"./.env",
	"../.env",
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
}

// LoaderOption is a functional option for LoadInto.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadInto loads configuration into cfg without applying defaults or
// validating. Values are layered in order: YAML file, then .env file,
// then process environment variables with the FLOWKIT_ prefix.
func LoadInto(cfg *Config, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(lc)

	return loadFromResolvedFiles(cfg, files, lc.FileSystem)
}

// Load reads the YAML file at path, layers environment overrides on
// top, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadInto(&cfg, WithConfigFile(path)); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromResolvedFiles loads configuration from specific files.
func loadFromResolvedFiles(cfg *Config, files ResolvedFiles, fs FileSystem) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if files.ConfigFile != "" {
		if !fs.Exists(files.ConfigFile) {
			return fmt.Errorf("config: file %s not found", files.ConfigFile)
		}
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", files.ConfigFile, err)
		}
	}

	// Load .env before binding so its variables participate in overrides.
	if files.EnvFile != "" {
		if !fs.Exists(files.EnvFile) {
			return fmt.Errorf("config: env file %s not found", files.EnvFile)
		}
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("config: loading %s: %w", files.EnvFile, err)
		}
	}

	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}

	return nil
}

// bindEnvKeys registers every config key with Viper. Unmarshal only
// sees keys Viper knows about, and AutomaticEnv cannot enumerate the
// environment, so keys set purely through the environment need an
// explicit binding.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"name",
		"environment",
		"debug",
		"logging.level",
		"logging.format",
		"logging.output",
		"logging.no_color",
		"logging.timestamp",
		"logging.caller",
		"workers.size",
		"procs.size",
		"procs.binary",
		"procs.args",
		"procs.grace_period",
		"definitions",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
