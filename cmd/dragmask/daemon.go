package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/dragmask/internal/config"
	"github.com/1broseidon/dragmask/internal/hotkeys"
	"github.com/1broseidon/dragmask/internal/ipc"
	"github.com/1broseidon/dragmask/internal/platform"
)

// keyBinder is the part of the hotkey handler the daemon rebinds on reload.
type keyBinder interface {
	RegisterFunc(keySequence string, callback func()) error
	UnregisterAll()
}

// daemonSettings applies the parts of a config that live outside the IPC
// server: the log level and the preview hotkey.
type daemonSettings struct {
	level   *slog.LevelVar
	keys    keyBinder // nil when hotkeys are unavailable
	onKey   func()
	logger  *slog.Logger
	mu      sync.Mutex
	hotkey  string
	applied bool
}

func (d *daemonSettings) apply(cfg *config.Config) {
	d.level.Set(cfg.SlogLevel())

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.applied && cfg.Preview.Hotkey == d.hotkey {
		return
	}
	d.applied = true
	if d.keys == nil {
		if cfg.Preview.Hotkey != "" {
			d.logger.Warn("preview hotkey disabled", "keys", cfg.Preview.Hotkey, "error", "no hotkey handler")
		}
		return
	}

	if d.hotkey != "" {
		d.keys.UnregisterAll()
		d.logger.Info("preview hotkey released", "keys", d.hotkey)
	}
	d.hotkey = ""
	if cfg.Preview.Hotkey == "" {
		return
	}
	if err := d.keys.RegisterFunc(cfg.Preview.Hotkey, d.onKey); err != nil {
		d.logger.Warn("preview hotkey disabled", "keys", cfg.Preview.Hotkey, "error", err)
		return
	}
	d.hotkey = cfg.Preview.Hotkey
	d.logger.Info("preview hotkey registered", "keys", d.hotkey)
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "Config file path (default: ~/.config/dragmask/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dragmask daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Accept draggable region updates over IPC and install them on X11 windows.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config
	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := newLogger(level)
	slog.SetDefault(logger)

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display, cfg.Property)
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Disconnect()

	ipcServer, err := ipc.NewServer(cfg, res.Path, backend, logger)
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings := &daemonSettings{
		level:  level,
		logger: logger,
		onKey: func() {
			go previewActive(ctx, backend, ipcServer.GetConfig(), logger)
		},
	}
	if handler, err := hotkeys.NewHandler(backend); err != nil {
		logger.Warn("hotkeys unavailable", "error", err)
	} else {
		settings.keys = handler
	}
	settings.apply(cfg)
	ipcServer.OnConfigChange(settings.apply)

	if err := ipcServer.Start(); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		return 1
	}
	defer ipcServer.Stop()

	go func() {
		err := config.Watch(ctx, res.Path, logger, func(newCfg *config.Config) {
			ipcServer.UpdateConfig(newCfg)
		})
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}()

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				newRes, err := config.LoadFromPath(res.Path)
				if err != nil {
					log.Printf("Config reload failed: %v", err)
					continue
				}
				ipcServer.UpdateConfig(newRes.Config)
				log.Println("Config reloaded successfully")

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down dragmask daemon...")
				cancel()
				ipcServer.Stop()
				backend.Quit()
				backend.Disconnect()
				os.Exit(0)
			}
		}
	}()

	logger.Info("dragmask daemon started", "socket", ipcServer.SocketPath(), "property", cfg.Property)

	// The event loop drains X events until Quit.
	backend.EventLoop()
	return 0
}

// previewActive flashes the mask installed on the active window.
func previewActive(ctx context.Context, backend platform.Backend, cfg *config.Config, logger *slog.Logger) {
	id, err := backend.ActiveWindow()
	if err != nil {
		logger.Warn("preview: no active window", "error", err)
		return
	}
	win, err := backend.Window(id)
	if err != nil {
		logger.Warn("preview failed", "window", id, "error", err)
		return
	}
	mask, err := win.DraggableRegion()
	if err != nil {
		logger.Info("preview: nothing installed", "window", id, "error", err)
		return
	}
	d := time.Duration(cfg.Preview.DurationSeconds) * time.Second
	if err := backend.Preview(ctx, id, mask, cfg.Preview.Color, d); err != nil {
		logger.Warn("preview failed", "window", id, "error", err)
	}
}
