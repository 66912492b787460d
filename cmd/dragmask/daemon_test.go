package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/1broseidon/dragmask/internal/config"
)

type fakeKeys struct {
	bound   []string
	unbinds int
	fail    string
}

func (k *fakeKeys) RegisterFunc(keySequence string, callback func()) error {
	if keySequence == k.fail {
		return errors.New("bad key")
	}
	k.bound = append(k.bound, keySequence)
	return nil
}

func (k *fakeKeys) UnregisterAll() {
	k.unbinds++
	k.bound = nil
}

func newSettings(keys keyBinder) *daemonSettings {
	return &daemonSettings{
		level:  new(slog.LevelVar),
		keys:   keys,
		onKey:  func() {},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func withHotkey(level, key string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.LogLevel = level
	cfg.Preview.Hotkey = key
	return cfg
}

func TestDaemonSettings_ReloadChangesLogLevel(t *testing.T) {
	d := newSettings(&fakeKeys{})
	d.apply(withHotkey("info", ""))
	if d.level.Level() != slog.LevelInfo {
		t.Fatalf("expected info, got %v", d.level.Level())
	}

	d.apply(withHotkey("debug", ""))
	if d.level.Level() != slog.LevelDebug {
		t.Fatalf("expected reload to switch to debug, got %v", d.level.Level())
	}
	logger := newLogger(d.level)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected logger built on the level var to follow it")
	}
}

func TestDaemonSettings_ReloadRebindsHotkey(t *testing.T) {
	keys := &fakeKeys{}
	d := newSettings(keys)

	d.apply(withHotkey("info", "Mod4-d"))
	if !slices.Equal(keys.bound, []string{"Mod4-d"}) || keys.unbinds != 0 {
		t.Fatalf("expected initial bind, got %v (unbinds %d)", keys.bound, keys.unbinds)
	}

	d.apply(withHotkey("debug", "Mod4-d"))
	if keys.unbinds != 0 {
		t.Fatalf("expected unchanged hotkey to stay bound, got %d unbinds", keys.unbinds)
	}

	d.apply(withHotkey("info", "Mod4-Shift-d"))
	if !slices.Equal(keys.bound, []string{"Mod4-Shift-d"}) || keys.unbinds != 1 {
		t.Fatalf("expected rebind, got %v (unbinds %d)", keys.bound, keys.unbinds)
	}

	d.apply(withHotkey("info", ""))
	if len(keys.bound) != 0 || keys.unbinds != 2 {
		t.Fatalf("expected hotkey released, got %v (unbinds %d)", keys.bound, keys.unbinds)
	}
}

func TestDaemonSettings_FailedBindIsRetriedOnNextChange(t *testing.T) {
	keys := &fakeKeys{fail: "Nope-x"}
	d := newSettings(keys)

	d.apply(withHotkey("info", "Nope-x"))
	if len(keys.bound) != 0 || d.hotkey != "" {
		t.Fatalf("expected failed bind to leave no hotkey, got %v", keys.bound)
	}

	d.apply(withHotkey("info", "Mod4-d"))
	if !slices.Equal(keys.bound, []string{"Mod4-d"}) || keys.unbinds != 0 {
		t.Fatalf("expected bind after failure, got %v (unbinds %d)", keys.bound, keys.unbinds)
	}
}

func TestDaemonSettings_NoHandlerStillSetsLevel(t *testing.T) {
	d := newSettings(nil)
	d.apply(withHotkey("error", "Mod4-d"))
	if d.level.Level() != slog.LevelError {
		t.Fatalf("expected error level, got %v", d.level.Level())
	}
}
