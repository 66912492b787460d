// Package draggable turns the ordered rectangle lists reported by a content
// layer into one draggable-region mask and installs it on frameless windows.
package draggable

import (
	"errors"
	"sync"

	"github.com/1broseidon/dragmask/internal/region"
)

// ErrNoRegion is reported by windows that have no mask installed.
var ErrNoRegion = errors.New("no draggable region installed")

// Window is the platform window a mask is installed on.
type Window interface {
	// HasNativeFrame reports whether the window currently has native chrome.
	HasNativeFrame() bool
	// SetDraggableRegion replaces the window's draggable mask as a whole.
	SetDraggableRegion(mask region.Set)
}

// Validator is implemented by windows that can tell whether their handle
// still refers to a live window.
type Validator interface {
	Valid() bool
}

// Installer is implemented by windows whose mask installation can fail. When
// present it is used instead of SetDraggableRegion.
type Installer interface {
	InstallDraggableRegion(mask region.Set) error
}

// Keyed is implemented by windows that carry a stable identity, used to
// serialize passes per window. Windows without a key share one lock.
type Keyed interface {
	Key() string
}

// Outcome describes what a pass did with the composed mask.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeFramed  Outcome = "framed"
	OutcomeInvalid Outcome = "invalid"
	OutcomeFailed  Outcome = "failed"
)

// Result reports one composition pass. Err is diagnostic only.
type Result struct {
	Mask    region.Set
	Outcome Outcome
	Err     error
}

// Applied reports whether the mask was installed on the window.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// Compose folds entries into one region in list order: draggable entries are
// added, exclusions subtracted. A later entry overrides earlier ones on the
// points they share.
func Compose(entries []Entry) region.Set {
	mask := region.Empty()
	for _, e := range entries {
		if e.Draggable {
			mask = mask.Add(e.Bounds)
		} else {
			mask = mask.Subtract(e.Bounds)
		}
	}
	return mask
}

// Compositor composes entry lists and installs the result on windows. It is
// safe for concurrent use; passes for the same window run one at a time.
type Compositor struct {
	tracer Tracer

	mu    sync.Mutex
	locks map[string]*windowLock
}

// windowLock serializes passes for one window key. refs counts passes that
// hold or wait for mu, guarded by Compositor.mu.
type windowLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithTracer sets the hook notified after every pass.
func WithTracer(t Tracer) Option {
	return func(c *Compositor) {
		c.tracer = t
	}
}

// NewCompositor creates a compositor. Without WithTracer passes are not
// traced.
func NewCompositor(opts ...Option) *Compositor {
	c := &Compositor{
		tracer: nopTracer{},
		locks:  make(map[string]*windowLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = nopTracer{}
	}
	return c
}

// Update composes entries and, when w is frameless, installs the mask on it.
// It always consumes the whole list and never fails; a framed or invalid
// window is left untouched.
func (c *Compositor) Update(w Window, entries []Entry) Result {
	lock := c.acquire(w)
	lock.mu.Lock()
	defer c.release(lock)

	res := Result{Mask: Compose(entries)}
	switch {
	case w == nil || !valid(w):
		res.Outcome = OutcomeInvalid
	case w.HasNativeFrame():
		res.Outcome = OutcomeFramed
	default:
		res.Outcome = OutcomeApplied
		if inst, ok := w.(Installer); ok {
			if err := inst.InstallDraggableRegion(res.Mask); err != nil {
				res.Outcome = OutcomeFailed
				res.Err = err
			}
		} else {
			w.SetDraggableRegion(res.Mask)
		}
	}

	c.tracer.Trace(Pass{
		Window:  windowKey(w),
		Entries: entries,
		Result:  res,
	})
	return res
}

// Forget drops the serialization lock kept for key. Call it once a window is
// gone for good. The lock is kept while a pass for key is running or
// waiting, so passes on one key never overlap.
func (c *Compositor) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lock, ok := c.locks[key]; ok && lock.refs == 0 {
		delete(c.locks, key)
	}
}

func (c *Compositor) acquire(w Window) *windowLock {
	key := windowKey(w)

	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &windowLock{}
		c.locks[key] = lock
	}
	lock.refs++
	return lock
}

func (c *Compositor) release(lock *windowLock) {
	lock.mu.Unlock()
	c.mu.Lock()
	lock.refs--
	c.mu.Unlock()
}

func windowKey(w Window) string {
	if k, ok := w.(Keyed); ok {
		return k.Key()
	}
	return ""
}

func valid(w Window) bool {
	if v, ok := w.(Validator); ok {
		return v.Valid()
	}
	return true
}
