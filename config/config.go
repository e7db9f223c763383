// Package config provides configuration loading and management for shapegen.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/shapegen/shape"
	"gopkg.in/yaml.v3"
)

// Config represents the complete shapegen configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Inference InferenceConfig `yaml:"inference"`
	Watch     WatchConfig     `yaml:"watch"`
	Batch     BatchConfig     `yaml:"batch"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `yaml:"level"`
}

// InferenceConfig configures shape inference
type InferenceConfig struct {
	// Join is the join policy: "mapping" (default) or "subject"
	Join string `yaml:"join"`
}

// WatchConfig configures the watch command
type WatchConfig struct {
	// Debounce is how long to wait for more changes before regenerating
	Debounce time.Duration `yaml:"debounce"`
}

// BatchConfig configures the batch command
type BatchConfig struct {
	// Suffix replaces the mapping file extension in output names
	Suffix string `yaml:"suffix"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	// Textfile is a path for Prometheus textfile output (empty = disabled)
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Inference: InferenceConfig{
			Join: string(shape.JoinMapping),
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Batch: BatchConfig{
			Suffix: ".shapes.ttl",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := shape.ParseJoinPolicy(c.Inference.Join); err != nil {
		return fmt.Errorf("inference.join: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Batch.Suffix == "" {
		return fmt.Errorf("batch.suffix is required")
	}
	if strings.ContainsRune(c.Batch.Suffix, filepath.Separator) {
		return fmt.Errorf("batch.suffix must not contain a path separator")
	}
	return nil
}

// JoinPolicy returns the configured inference join policy.
func (c *Config) JoinPolicy() shape.JoinPolicy {
	p, err := shape.ParseJoinPolicy(c.Inference.Join)
	if err != nil {
		return shape.JoinMapping
	}
	return p
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", level)
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Inference.Join != "" {
		c.Inference.Join = other.Inference.Join
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Batch.Suffix != "" {
		c.Batch.Suffix = other.Batch.Suffix
	}
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}
