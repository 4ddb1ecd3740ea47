package sim

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the field parameters. Zero-valued fields are filled from
// DefaultConfig when loading from a file.
type Config struct {
	GridWidth  int     `yaml:"grid_width"`
	GridHeight int     `yaml:"grid_height"`
	TileSize   float64 `yaml:"tile_size"`
	BallRadius float64 `yaml:"ball_radius"`
	// InitialSpeed is the magnitude of each ball's starting velocity.
	// The default launches both balls diagonally at 200 units/s per axis.
	InitialSpeed float64 `yaml:"initial_speed"`
	// Timestep is the fixed tick duration in seconds.
	Timestep float64 `yaml:"timestep"`
}

// DefaultConfig returns the stock 32x18 field.
func DefaultConfig() Config {
	return Config{
		GridWidth:    32,
		GridHeight:   18,
		TileSize:     16.0,
		BallRadius:   7.5,
		InitialSpeed: 200 * math.Sqrt2,
		Timestep:     1.0 / 60.0,
	}
}

// LoadConfig reads a yaml config file, layering it over DefaultConfig
// so partial files work.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigError reports a field that cannot describe a runnable field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Validate rejects dimensions and rates the simulation cannot start
// with. Called by NewWorld; hosts may call it earlier to fail fast.
func (c Config) Validate() error {
	switch {
	case c.GridWidth <= 0:
		return &ConfigError{Field: "grid_width", Reason: "must be positive"}
	case c.GridHeight <= 0:
		return &ConfigError{Field: "grid_height", Reason: "must be positive"}
	case c.TileSize <= 0 || math.IsNaN(c.TileSize) || math.IsInf(c.TileSize, 0):
		return &ConfigError{Field: "tile_size", Reason: "must be positive and finite"}
	case c.BallRadius <= 0 || math.IsNaN(c.BallRadius) || math.IsInf(c.BallRadius, 0):
		return &ConfigError{Field: "ball_radius", Reason: "must be positive and finite"}
	case c.InitialSpeed <= 0 || math.IsNaN(c.InitialSpeed) || math.IsInf(c.InitialSpeed, 0):
		return &ConfigError{Field: "initial_speed", Reason: "must be positive and finite"}
	case c.Timestep <= 0 || math.IsNaN(c.Timestep) || math.IsInf(c.Timestep, 0):
		return &ConfigError{Field: "timestep", Reason: "must be positive and finite"}
	}
	return nil
}

// FieldWidth is the field extent along x in world units.
func (c Config) FieldWidth() float64 {
	return float64(c.GridWidth) * c.TileSize
}

// FieldHeight is the field extent along y in world units.
func (c Config) FieldHeight() float64 {
	return float64(c.GridHeight) * c.TileSize
}
