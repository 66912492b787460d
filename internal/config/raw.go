package config

// RawConfig mirrors Config with optional fields so unset keys keep their
// defaults.
type RawConfig struct {
	LogLevel     *string           `yaml:"log_level"`
	TraceRegions *bool             `yaml:"trace_regions"`
	Display      *string           `yaml:"display"`
	Property     *string           `yaml:"property"`
	Preview      *RawPreviewConfig `yaml:"preview"`
}

type RawPreviewConfig struct {
	Color           *uint32 `yaml:"color"`
	DurationSeconds *int    `yaml:"duration_seconds"`
	Hotkey          *string `yaml:"hotkey"`
}

// BuildEffectiveConfig overlays raw onto the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.TraceRegions != nil {
		cfg.TraceRegions = *raw.TraceRegions
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Property != nil {
		cfg.Property = *raw.Property
	}
	if raw.Preview != nil {
		if raw.Preview.Color != nil {
			cfg.Preview.Color = *raw.Preview.Color
		}
		if raw.Preview.DurationSeconds != nil {
			cfg.Preview.DurationSeconds = *raw.Preview.DurationSeconds
		}
		if raw.Preview.Hotkey != nil {
			cfg.Preview.Hotkey = *raw.Preview.Hotkey
		}
	}
	return cfg
}
