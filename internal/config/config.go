// Package config loads lamina's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/lamina/pkg/engine"
	"github.com/chazu/lamina/pkg/export"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/chazu/lamina/pkg/preview"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "lamina.yaml"

// Config holds all lamina configuration.
type Config struct {
	Contact     plate.Tolerance     `yaml:"contact"`
	Engine      EngineConfig        `yaml:"engine"`
	Fabrication FabricationConfig   `yaml:"fabrication"`
	GCode       export.GCodeOptions `yaml:"gcode"`
	Preview     PreviewConfig       `yaml:"preview"`
	Store       StoreConfig         `yaml:"store"`
	Logging     LoggingConfig       `yaml:"logging"`
}

// EngineConfig holds script evaluation settings.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout"` // e.g. "5s"
}

// FabricationConfig holds tool settings for milling paths.
type FabricationConfig struct {
	ContourRadius float64 `yaml:"contour_radius"`
	HolesRadius   float64 `yaml:"holes_radius"`
	Notch         bool    `yaml:"notch"`
	Cylinder      bool    `yaml:"cylinder"`
	TBone         bool    `yaml:"tbone"`
	Limit         float64 `yaml:"limit"` // degrees
}

// Options converts the configuration for plate.FabricationLines.
func (f FabricationConfig) Options(ids []int) plate.FabricationOptions {
	return plate.FabricationOptions{
		Plates:        ids,
		ContourRadius: f.ContourRadius,
		HolesRadius:   f.HolesRadius,
		Notch:         f.Notch,
		Cylinder:      f.Cylinder,
		TBone:         f.TBone,
		Limit:         f.Limit,
	}
}

// PreviewConfig holds insertion preview settings.
type PreviewConfig struct {
	Retreat float64 `yaml:"retreat"`
	Scale   float64 `yaml:"scale"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	fab := plate.DefaultFabricationOptions()
	return &Config{
		Contact: plate.DefaultTolerance,
		Engine:  EngineConfig{Timeout: engine.DefaultTimeout},
		Fabrication: FabricationConfig{
			ContourRadius: fab.ContourRadius,
			HolesRadius:   fab.HolesRadius,
			Notch:         fab.Notch,
			Cylinder:      fab.Cylinder,
			TBone:         fab.TBone,
			Limit:         fab.Limit,
		},
		GCode: export.DefaultGCodeOptions(),
		Preview: PreviewConfig{
			Retreat: preview.DefaultRetreat,
			Scale:   preview.DefaultScale,
		},
		Store:   StoreConfig{Path: ".lamina/snapshots.db"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("LAMINA_DB"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("LAMINA_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate rejects settings no operation could run with.
func (c *Config) Validate() error {
	if c.Contact.Distance < 0 || c.Contact.Angle < 0 {
		return fmt.Errorf("invalid contact tolerance: %+v", c.Contact)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("invalid evaluation timeout: %s", c.Engine.Timeout)
	}
	if c.Fabrication.ContourRadius < 0 || c.Fabrication.HolesRadius < 0 {
		return fmt.Errorf("invalid tool radius: contour %g, holes %g",
			c.Fabrication.ContourRadius, c.Fabrication.HolesRadius)
	}
	if c.GCode.Feed <= 0 || c.GCode.PlungeFeed <= 0 {
		return fmt.Errorf("invalid feed: %g/%g", c.GCode.Feed, c.GCode.PlungeFeed)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path not configured")
	}
	return nil
}
