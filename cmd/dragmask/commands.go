package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/dragmask/internal/config"
	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/ipc"
	"github.com/1broseidon/dragmask/internal/platform"
	"github.com/1broseidon/dragmask/internal/region"
)

// windowFlags selects the target window of a command.
type windowFlags struct {
	window string
	title  string
	active bool
}

func (f *windowFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.window, "window", "", "Target window id (decimal or 0x hex)")
	fs.StringVar(&f.title, "title", "", "Target the first window whose title contains this text")
	fs.BoolVar(&f.active, "active", false, "Target the active window")
}

func (f *windowFlags) resolve(backend platform.Backend) (platform.WindowID, error) {
	set := 0
	if f.window != "" {
		set++
	}
	if f.title != "" {
		set++
	}
	if f.active {
		set++
	}
	if set != 1 {
		return 0, usageError{msg: "exactly one of --window, --title or --active is required"}
	}

	switch {
	case f.window != "":
		id, err := platform.ParseWindowID(f.window)
		if err != nil {
			return 0, usageError{msg: err.Error()}
		}
		return id, nil
	case f.title != "":
		return backend.FindWindow(f.title)
	default:
		return backend.ActiveWindow()
	}
}

// windowID resolves the target without a display connection, so only
// --window is accepted.
func (f *windowFlags) windowID() (platform.WindowID, error) {
	if f.title != "" || f.active || f.window == "" {
		return 0, usageError{msg: "--daemon requires --window"}
	}
	id, err := platform.ParseWindowID(f.window)
	if err != nil {
		return 0, usageError{msg: err.Error()}
	}
	return id, nil
}

func loadEntries(path string) ([]draggable.Entry, error) {
	entries, err := draggable.LoadEntries(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	return entries, nil
}

// connect loads config and opens the platform backend for window commands.
func connect(cfgPath string) (*config.Config, *platform.LinuxBackend, error) {
	res, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	backend, err := platform.NewLinuxBackendFromDisplay(res.Config.Display, res.Config.Property)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to display: %w", err)
	}
	return res.Config, backend, nil
}

func printRects(rects []region.Rect) {
	if len(rects) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, r := range rects {
		fmt.Printf("%s  x=%d y=%d w=%d h=%d\n", r, r.X(), r.Y(), r.Width(), r.Height())
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCompose(args []string) int {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	entriesPath := fs.String("entries", "-", "Entry list file (YAML or JSON, '-' for stdin)")
	asJSON := fs.Bool("json", false, "Print the region as JSON")
	render := fs.Bool("render", false, "Draw the region as ASCII art")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dragmask compose [--entries FILE] [--json] [--render]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Compose an ordered entry list into a region without touching any window.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	entries, err := loadEntries(*entriesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	mask := draggable.Compose(entries)

	if *asJSON {
		if err := printJSON(mask.Rects()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	printRects(mask.Rects())
	if *render {
		bounds := make([]region.Rect, 0, len(entries))
		for _, e := range entries {
			bounds = append(bounds, e.Bounds)
		}
		w, h := renderArea(mask, bounds)
		art := renderMask(mask, w, h)
		if stdoutIsTerminal() {
			art = colorizeMask(art, config.DefaultPreviewColor)
		}
		fmt.Println()
		fmt.Print(art)
	}
	return 0
}

func runApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	entriesPath := fs.String("entries", "-", "Entry list file (YAML or JSON, '-' for stdin)")
	cfgPath := fs.String("config", "", "Config file path (default: ~/.config/dragmask/config.yaml)")
	var target windowFlags
	target.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dragmask apply [--entries FILE] (--window ID | --title TEXT | --active)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Compose entries and install the mask on a frameless window.")
		fmt.Fprintln(os.Stderr, "Windows with a native frame are left untouched.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	entries, err := loadEntries(*entriesPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, backend, err := connect(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer backend.Disconnect()

	id, err := target.resolve(backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	win, err := backend.Window(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := newLogger(cfg.SlogLevel())
	compositor := draggable.NewCompositor(draggable.WithTracer(draggable.SlogTracer{
		Logger:  logger,
		Verbose: cfg.TraceRegions,
	}))
	res := compositor.Update(win, entries)

	switch res.Outcome {
	case draggable.OutcomeApplied:
		fmt.Printf("window %s: installed %d rects\n", id, res.Mask.Len())
		return 0
	case draggable.OutcomeFramed:
		fmt.Printf("window %s: has a native frame, mask not installed\n", id)
		return 0
	case draggable.OutcomeInvalid:
		fmt.Fprintf(os.Stderr, "window %s does not exist\n", id)
		return 1
	default:
		fmt.Fprintf(os.Stderr, "window %s: install failed: %v\n", id, res.Err)
		return 1
	}
}

func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "Config file path (default: ~/.config/dragmask/config.yaml)")
	asJSON := fs.Bool("json", false, "Print the region as JSON")
	viaDaemon := fs.Bool("daemon", false, "Read the mask through the running daemon (requires --window)")
	var target windowFlags
	target.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dragmask show (--window ID | --title TEXT | --active) [--json]")
		fmt.Fprintln(os.Stderr, "       dragmask show --daemon --window ID [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the draggable mask currently installed on a window.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if *viaDaemon {
		return showFromDaemon(&target, *asJSON)
	}

	_, backend, err := connect(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer backend.Disconnect()

	id, err := target.resolve(backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	win, err := backend.Window(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	mask, err := win.DraggableRegion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "window %s: %v\n", id, err)
		return 1
	}

	if *asJSON {
		if err := printJSON(mask.Rects()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Printf("Window: %s %q\n", id, win.Title())
	fmt.Printf("Native frame: %v\n", win.HasNativeFrame())
	printRects(mask.Rects())
	return 0
}

func showFromDaemon(target *windowFlags, asJSON bool) int {
	id, err := target.windowID()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	data, err := ipc.NewClient().GetRegion(uint32(id))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !data.Installed {
		fmt.Fprintf(os.Stderr, "window %s: no draggable region installed\n", id)
		return 1
	}

	if asJSON {
		if err := printJSON(data.Rects); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Printf("Window: %s\n", id)
	fmt.Printf("Native frame: %v\n", data.Framed)
	printRects(data.Rects)
	return 0
}

func runPreview(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	entriesPath := fs.String("entries", "", "Entry list file to preview (default: the installed mask)")
	cfgPath := fs.String("config", "", "Config file path (default: ~/.config/dragmask/config.yaml)")
	duration := fs.Int("duration", 0, "Seconds to show the overlay (default: preview.duration_seconds)")
	var target windowFlags
	target.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dragmask preview (--window ID | --title TEXT | --active) [--entries FILE] [--duration N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flash a shaped overlay of the mask on top of a window.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *duration < 0 || *duration > config.MaxPreviewDuration {
		fmt.Fprintf(os.Stderr, "--duration must be between 1 and %d\n", config.MaxPreviewDuration)
		return 2
	}

	cfg, backend, err := connect(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer backend.Disconnect()

	id, err := target.resolve(backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}

	var mask region.Set
	if *entriesPath != "" {
		entries, err := loadEntries(*entriesPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		mask = draggable.Compose(entries)
	} else {
		win, err := backend.Window(id)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if mask, err = win.DraggableRegion(); err != nil {
			fmt.Fprintf(os.Stderr, "window %s: %v\n", id, err)
			return 1
		}
	}
	if mask.IsEmpty() {
		fmt.Println("mask is empty, nothing to preview")
		return 0
	}

	secs := cfg.Preview.DurationSeconds
	if *duration > 0 {
		secs = *duration
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := backend.Preview(ctx, id, mask, cfg.Preview.Color, time.Duration(secs)*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "preview failed: %v\n", err)
		return 1
	}
	return 0
}
