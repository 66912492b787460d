package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProperty        = "_DRAGMASK_REGION"
	DefaultPreviewColor    = 0x3498db
	DefaultPreviewDuration = 3
	MaxPreviewDuration     = 60
)

// PreviewConfig controls the on-screen mask preview overlay.
type PreviewConfig struct {
	// Color is the overlay background pixel (0xRRGGBB)
	Color uint32 `yaml:"color"`
	// DurationSeconds is how long the overlay stays mapped (1-60)
	DurationSeconds int `yaml:"duration_seconds"`
	// Hotkey flashes the active window's mask from the daemon, e.g.
	// "Mod4-Shift-d". Empty disables it.
	Hotkey string `yaml:"hotkey"`
}

// Config is the effective dragmask configuration.
type Config struct {
	// LogLevel controls logging verbosity: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// TraceRegions logs every composition pass with its entries at debug level
	TraceRegions bool `yaml:"trace_regions"`
	// Display overrides $DISPLAY for X11 connections when non-empty
	Display string `yaml:"display,omitempty"`
	// Property is the window property the mask is published under
	Property string        `yaml:"property"`
	Preview  PreviewConfig `yaml:"preview"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		TraceRegions: false,
		Property:     DefaultProperty,
		Preview: PreviewConfig{
			Color:           DefaultPreviewColor,
			DurationSeconds: DefaultPreviewDuration,
		},
	}
}

// atomName restricts the mask property to identifier-like atom names.
var atomName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if strings.TrimSpace(c.Property) == "" {
		return &ValidationError{Path: "property", Err: fmt.Errorf("property is required")}
	}
	if !atomName.MatchString(c.Property) {
		return &ValidationError{Path: "property", Err: fmt.Errorf("property %q is not a valid atom name", c.Property)}
	}
	if c.Preview.Color > 0xffffff {
		return &ValidationError{Path: "preview.color", Err: fmt.Errorf("color must be in 0x000000-0xffffff")}
	}
	if c.Preview.DurationSeconds < 1 || c.Preview.DurationSeconds > MaxPreviewDuration {
		return &ValidationError{Path: "preview.duration_seconds", Err: fmt.Errorf("duration_seconds must be between 1 and %d", MaxPreviewDuration)}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// SaveTo validates and writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
