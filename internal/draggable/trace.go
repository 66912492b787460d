package draggable

import (
	"context"
	"log/slog"
)

// Pass is what a Tracer sees for one composition pass.
type Pass struct {
	Window  string
	Entries []Entry
	Result  Result
}

// Tracer observes composition passes.
type Tracer interface {
	Trace(p Pass)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(p Pass)

func (f TracerFunc) Trace(p Pass) { f(p) }

type nopTracer struct{}

func (nopTracer) Trace(Pass) {}

// SlogTracer logs passes through slog. Entries are only logged when
// Verbose is set; failures are always logged at warn level.
type SlogTracer struct {
	Logger  *slog.Logger
	Verbose bool
}

func (t SlogTracer) Trace(p Pass) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if p.Result.Err != nil {
		logger.Warn("draggable region install failed",
			"window", p.Window,
			"error", p.Result.Err,
		)
	}
	if !t.Verbose || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	logger.Debug("draggable regions updated",
		"window", p.Window,
		"entries", len(p.Entries),
		"outcome", string(p.Result.Outcome),
		"rects", p.Result.Mask.Len(),
		"area", p.Result.Mask.Area(),
	)
	for i, e := range p.Entries {
		logger.Debug("draggable region entry",
			"window", p.Window,
			"index", i,
			"x", e.Bounds.Left,
			"y", e.Bounds.Top,
			"right", e.Bounds.Right,
			"bottom", e.Bounds.Bottom,
			"draggable", e.Draggable,
		)
	}
}
