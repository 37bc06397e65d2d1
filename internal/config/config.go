// Package config loads the single YAML document that drives both the
// movement core and the debug bridge, and reflects its own shape into a
// JSON Schema for the CLI's `config schema` command.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironclad-games/skirmish-core/internal/movement"
)

// DebugBridge carries the knobs for the optional WebSocket log inspector
// (§4.14), not present in the source lineage and added purely as ambient
// host wiring.
type DebugBridge struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the root document: the movement core's tuned constants table
// (§6) embedded verbatim, plus the handful of expansion knobs the host
// process needs that the original movement core never had an opinion on.
type Config struct {
	Movement    movement.Config `yaml:"movement"`
	DebugBridge DebugBridge     `yaml:"debugBridge"`
}

// MoveTickInterval converts Movement.TickRate into a time.Duration for
// movement.NewLoop, which wants a duration rather than a rate.
func (c Config) MoveTickInterval() time.Duration {
	if c.Movement.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Movement.TickRate)
}

// DefaultConfig reproduces the table from §6 exactly, plus a disabled
// debug bridge.
func DefaultConfig() Config {
	return Config{
		Movement: movement.DefaultConfig(),
		DebugBridge: DebugBridge{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Load reads and decodes a YAML config document from path. Fields absent
// from the document keep DefaultConfig's values, since the zero Config
// decoded over a default is what yaml.v3 naturally gives us by decoding
// into an already-populated struct.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating or truncating the file.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
