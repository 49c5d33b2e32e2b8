package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kbukum/flowkit/logger"
)

// Config contains the configuration fields a program embedding flowkit
// pipelines needs: identity, logging, pool sizing, and the directories
// searched for pipeline definition files.
//
// Example:
//
//	cfg, err := config.Load("flowkit.yml")
//	if err != nil {
//	    return err
//	}
//	pool := work.New(cfg.Workers.Size)
//	defer pool.Close()
type Config struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
	Workers     WorkersConfig `yaml:"workers" mapstructure:"workers"`
	Procs       ProcsConfig   `yaml:"procs" mapstructure:"procs"`
	Definitions []string      `yaml:"definitions" mapstructure:"definitions"`
}

// WorkersConfig sizes the goroutine pool handed to worker-parallel steps.
type WorkersConfig struct {
	Size int `yaml:"size" mapstructure:"size"`
}

// ProcsConfig describes the subprocess pool for process-parallel steps.
// A Size of zero means no subprocess pool is configured.
type ProcsConfig struct {
	Size        int           `yaml:"size" mapstructure:"size"`
	Binary      string        `yaml:"binary" mapstructure:"binary"`
	Args        []string      `yaml:"args" mapstructure:"args"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	if c.Workers.Size == 0 {
		c.Workers.Size = runtime.NumCPU()
	}
	if c.Procs.Size > 0 && c.Procs.GracePeriod == 0 {
		c.Procs.GracePeriod = 5 * time.Second
	}
}

// Validate validates the configuration fields.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if c.Workers.Size < 1 {
		return fmt.Errorf("config.workers.size must be at least 1 (got: %d)", c.Workers.Size)
	}
	if c.Procs.Size < 0 {
		return fmt.Errorf("config.procs.size must not be negative (got: %d)", c.Procs.Size)
	}
	if c.Procs.Size > 0 && c.Procs.Binary == "" {
		return fmt.Errorf("config.procs.binary is required when procs.size is set")
	}
	return nil
}
