// Package config provides configuration loading and structs for the kalima server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Resolver ResolverConfig `yaml:"resolver"`
	Lexicon  LexiconConfig  `yaml:"lexicon"`
	Import   ImportConfig   `yaml:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the lexicon index.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	LexiconIndexPath string `yaml:"lexicon_index_path"`
}

// ResolverConfig holds verse resolution settings.
type ResolverConfig struct {
	// SplitAffixes is the default when a request does not say. Unset means true.
	SplitAffixes *bool `yaml:"split_affixes"`
	// SegmentCacheSize bounds the memoized segmentations; 0 disables the cache.
	SegmentCacheSize int `yaml:"segment_cache_size"`
	// DeterministicOccurrenceIDs derives occurrence ids from position instead of minting UUIDs.
	DeterministicOccurrenceIDs bool `yaml:"deterministic_occurrence_ids"`
}

// SplitAffixesOrDefault returns whether verses are segmented by default.
func (c *ResolverConfig) SplitAffixesOrDefault() bool {
	if c.SplitAffixes != nil {
		return *c.SplitAffixes
	}
	return true
}

// LexiconConfig holds lexicon search settings.
type LexiconConfig struct {
	DefaultLimit       int `yaml:"default_limit"`
	MaxLimit           int `yaml:"max_limit"`
	SuggestMaxDistance int `yaml:"suggest_max_distance"`
}

// ImportConfig holds the watched import directories.
type ImportConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	DebounceMS  int      `yaml:"debounce_ms"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (c *ImportConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// Address returns host:port.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.LexiconIndexPath = expandPath(cfg.Storage.LexiconIndexPath, configDir)
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" and other bare relative paths are
// relative to the home directory; "./" paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return path
}
