// Package config loads the optional YAML configuration file: provider log
// roots, model limit overrides, and analysis thresholds.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"agtrace/internal/analysis"
	"agtrace/internal/modellimit"
)

// ModelOverride adds or replaces one model-limit registry entry.
type ModelOverride struct {
	Prefix        string `yaml:"prefix"`
	ContextWindow int    `yaml:"context_window"`
}

// Config is the full file shape. Zero values mean "use the default".
type Config struct {
	// Providers maps a provider name to a log root, overriding the
	// adapter's default. Roots may start with ~/.
	Providers map[string]string `yaml:"providers"`
	Models    []ModelOverride   `yaml:"models"`
	Analysis  analysis.Config   `yaml:"analysis"`
}

func Default() *Config {
	return &Config{
		Providers: map[string]string{},
		Analysis:  analysis.DefaultConfig(),
	}
}

// Load reads and decodes path. A missing file is an error here; use
// LoadOrDefault when the file is optional.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]string{}
	}
	cfg.applyAnalysisDefaults()
	return cfg, nil
}

// LoadOrDefault reads path when it exists and falls back to defaults when
// it does not. A malformed file is still an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".agtrace", "config.yaml")
}

// ModelSpecs converts the overrides to registry specs; pass them after the
// provider builtins so overrides replace same-prefix entries.
func (c *Config) ModelSpecs() []modellimit.Spec {
	specs := make([]modellimit.Spec, 0, len(c.Models))
	for _, m := range c.Models {
		specs = append(specs, modellimit.Spec{Prefix: m.Prefix, ContextWindow: m.ContextWindow})
	}
	return specs
}

// Root returns the configured log root for a provider, or fallback.
func (c *Config) Root(provider, fallback string) string {
	if root, ok := c.Providers[provider]; ok && root != "" {
		return root
	}
	return fallback
}

func (c *Config) applyAnalysisDefaults() {
	def := analysis.DefaultConfig()
	if c.Analysis.ZombieThreshold == 0 {
		c.Analysis.ZombieThreshold = def.ZombieThreshold
	}
	if c.Analysis.LoopThreshold == 0 {
		c.Analysis.LoopThreshold = def.LoopThreshold
	}
	if c.Analysis.BottleneckMS == 0 {
		c.Analysis.BottleneckMS = def.BottleneckMS
	}
}
