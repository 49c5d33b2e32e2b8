// Package config provides configuration loading and validation for
// programs embedding flowkit pipelines.
//
// It uses Viper to load a YAML config file, layering a .env file and
// process environment variables on top, and unmarshals the result into
// a Config covering logging, pool sizing, and definition directories.
//
// # Usage
//
//	cfg, err := config.Load("flowkit.yml")
//
// Environment variables override file values using the FLOWKIT_ prefix
// with underscore-separated paths (e.g., FLOWKIT_WORKERS_SIZE).
package config
