// Package config loads the inspector server's listen address and the
// driver's tier-up thresholds from a YAML file. The teacher has no config
// file of its own (CLI flags and struct literals suffice for a one-shot
// compiler invocation), but cmd/jit-inspector is long-running, so it
// benefits from one; gopkg.in/yaml.v3 was already an indirect teacher
// dependency (pulled in transitively), so this is its first direct use.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the inspector server's full configuration surface.
type Config struct {
	Listen string       `yaml:"listen"`
	TierUp TierUpConfig `yaml:"tier_up"`
}

// TierUpConfig mirrors driver.Thresholds in a serializable shape; durations
// are given in milliseconds in the file for readability.
type TierUpConfig struct {
	CallCount      int `yaml:"call_count"`
	BaselineTimeMS int `yaml:"baseline_time_ms"`
}

// BaselineTime returns the configured baseline-time threshold as a
// time.Duration.
func (t TierUpConfig) BaselineTime() time.Duration {
	return time.Duration(t.BaselineTimeMS) * time.Millisecond
}

// Default returns the configuration used when no file is supplied: listen
// on localhost:7777, tier-up at the §4.7 defaults (1000 calls / 100ms).
func Default() Config {
	return Config{
		Listen: "127.0.0.1:7777",
		TierUp: TierUpConfig{CallCount: 1000, BaselineTimeMS: 100},
	}
}

// Load reads and parses a YAML config file at path, falling back to
// Default for any field the file doesn't set.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
