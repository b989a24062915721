// Package config handles cfr configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for cfr.
type Config struct {
	// Strict makes implicit fall-off-end a hard error during reconstruction.
	Strict bool `yaml:"strict" env:"CFR_STRICT"`

	// Format is the default output format: "dot" or "json".
	Format string `yaml:"format" env:"CFR_FORMAT"`

	// CacheDir is where batch runs persist their render cache.
	CacheDir string `yaml:"cache_dir" env:"CFR_CACHE_DIR"`

	// CacheSize is the maximum number of cached renders (0 = unlimited).
	CacheSize int `yaml:"cache_size" env:"CFR_CACHE_SIZE"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" env:"CFR_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Strict:    false,
		Format:    "dot",
		CacheDir:  defaultCacheDir(),
		CacheSize: 256,
		Verbose:   false,
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cfr/cache"
	}
	return filepath.Join(home, ".cfr", "cache")
}

// globalConfigFilePath returns the global config file path (~/.cfr/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cfr/config.yaml"
	}
	return filepath.Join(home, ".cfr", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.cfr/config.yaml)
func projectConfigFilePath() string {
	return ".cfr/config.yaml"
}

// GlobalConfigPath is the path `cfr init` writes to.
func GlobalConfigPath() string {
	return globalConfigFilePath()
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables (CFR_*)
// 2. Project-level config (./.cfr/config.yaml)
// 3. Global config (~/.cfr/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CFR_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strict = b
		}
	}
	if v := os.Getenv("CFR_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("CFR_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("CFR_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheSize = n
		}
	}
	if v := os.Getenv("CFR_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Format {
	case "dot", "json":
	default:
		return fmt.Errorf("invalid format %q (use 'dot' or 'json')", c.Format)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0, got %d", c.CacheSize)
	}
	return nil
}
