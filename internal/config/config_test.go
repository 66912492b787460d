package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Property != DefaultProperty {
		t.Fatalf("expected property %q, got %q", DefaultProperty, cfg.Property)
	}
	if cfg.TraceRegions {
		t.Fatalf("expected region tracing off by default")
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Loaded {
		t.Fatalf("expected Loaded=false for missing file")
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "# empty\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Loaded {
		t.Fatalf("expected Loaded=true")
	}
	if res.Config.Preview.DurationSeconds != DefaultPreviewDuration {
		t.Fatalf("expected default preview duration, got %d", res.Config.Preview.DurationSeconds)
	}
}

func TestLoadFromPath_OverridesKeepOtherDefaults(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"log_level: debug",
		"trace_regions: true",
		"display: \":1\"",
		"preview:",
		"  color: 0xff0000",
		"  hotkey: Mod4-Shift-d",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.LogLevel != "debug" || !cfg.TraceRegions || cfg.Display != ":1" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Preview.Color != 0xff0000 {
		t.Fatalf("expected color 0xff0000, got %#x", cfg.Preview.Color)
	}
	if cfg.Preview.Hotkey != "Mod4-Shift-d" {
		t.Fatalf("expected hotkey Mod4-Shift-d, got %q", cfg.Preview.Hotkey)
	}
	if cfg.Preview.DurationSeconds != DefaultPreviewDuration {
		t.Fatalf("expected duration to keep default, got %d", cfg.Preview.DurationSeconds)
	}
	if cfg.Property != DefaultProperty {
		t.Fatalf("expected property to keep default, got %q", cfg.Property)
	}

	if src := res.SourceOf("preview.color"); src.Kind != SourceFile || src.Line != 5 {
		t.Fatalf("expected preview.color from file line 5, got %+v", src)
	}
	if src := res.SourceOf("property"); src.Kind != SourceDefault {
		t.Fatalf("expected property from defaults, got %+v", src)
	}

	value, src, err := res.Explain("preview.hotkey")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != "Mod4-Shift-d" || src.Kind != SourceFile {
		t.Fatalf("expected file hotkey, got %v from %+v", value, src)
	}
	value, src, err = res.Explain("property")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != DefaultProperty || src.Kind != SourceDefault {
		t.Fatalf("expected default property, got %v from %+v", value, src)
	}
}

func TestExplain_UnknownPath(t *testing.T) {
	res := &LoadResult{Config: DefaultConfig()}
	for _, path := range []string{"", "nope", "preview.nope", "property.deeper"} {
		if _, _, err := res.Explain(path); err == nil {
			t.Fatalf("expected %q to fail", path)
		}
	}
	value, _, err := res.Explain("preview.duration_seconds")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != DefaultPreviewDuration {
		t.Fatalf("expected %d, got %v (%T)", DefaultPreviewDuration, value, value)
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "trace_region: true\n"))
	if err == nil {
		t.Fatalf("expected unknown key to fail")
	}
	if !strings.Contains(err.Error(), "trace_region") {
		t.Fatalf("expected error to name the key, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasPosition(t *testing.T) {
	path := writeConfig(t, "log_level: info\npreview:\n  duration_seconds: 600\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "preview.duration_seconds" {
		t.Fatalf("expected path preview.duration_seconds, got %q", verr.Path)
	}
	if !strings.Contains(err.Error(), ":3:") {
		t.Fatalf("expected line 3 in error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, path: "log_level"},
		{name: "empty property", mutate: func(c *Config) { c.Property = " " }, path: "property"},
		{name: "bad property", mutate: func(c *Config) { c.Property = "has space" }, path: "property"},
		{name: "color range", mutate: func(c *Config) { c.Preview.Color = 0x1000000 }, path: "preview.color"},
		{name: "zero duration", mutate: func(c *Config) { c.Preview.DurationSeconds = 0 }, path: "preview.duration_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestSaveTo_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.TraceRegions = true
	cfg.Property = "_MY_MASK"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.TraceRegions || res.Config.Property != "_MY_MASK" {
		t.Fatalf("unexpected reloaded config: %+v", res.Config)
	}
}

func TestDefaultConfigPath_HonorsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != "/tmp/xdg-test/dragmask/config.yaml" {
		t.Fatalf("unexpected path %q", path)
	}
}
