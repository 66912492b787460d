package x11

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/dragmask/internal/region"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Overlay is an override-redirect window shaped to a region, used to show a
// draggable mask on screen. Input passes through it.
type Overlay struct {
	conn   *Connection
	win    *xwindow.Window
	mapped bool
}

// NewOverlay creates an unmapped overlay filled with color.
func (c *Connection) NewOverlay(color uint32) (*Overlay, error) {
	if err := shape.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("shape extension unavailable: %w", err)
	}

	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate overlay window: %w", err)
	}
	// Value list order follows the bit positions of the mask (low to high):
	// CwBackPixel comes before CwOverrideRedirect.
	win.Create(c.Root, 0, 0, 1, 1,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		color, 1)

	// An empty input shape lets clicks reach the window underneath.
	if err := shape.RectanglesChecked(c.XUtil.Conn(), shape.SoSet, shape.SkInput,
		xproto.ClipOrderingUnsorted, win.Id, 0, 0, nil).Check(); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to clear overlay input shape: %w", err)
	}

	return &Overlay{conn: c, win: win}, nil
}

// Show places the overlay so mask's window-local coordinates line up with
// originX, originY on the root window, shapes it to mask and maps it. An
// empty mask unmaps the overlay.
func (o *Overlay) Show(mask region.Set, originX, originY int) error {
	if mask.IsEmpty() {
		o.Hide()
		return nil
	}

	b := mask.Bounds()
	o.win.MoveResize(originX+b.Left, originY+b.Top, b.Width(), b.Height())

	rects := overlayRects(mask)
	if err := shape.RectanglesChecked(o.conn.XUtil.Conn(), shape.SoSet, shape.SkBounding,
		xproto.ClipOrderingYXBanded, o.win.Id, 0, 0, rects).Check(); err != nil {
		return fmt.Errorf("failed to shape overlay: %w", err)
	}

	o.win.Stack(xproto.StackModeAbove)
	o.win.Map()
	o.mapped = true
	return nil
}

// overlayRects returns mask's rectangles relative to its bounds, which is
// where the overlay window starts.
func overlayRects(mask region.Set) []xproto.Rectangle {
	b := mask.Bounds()
	rects := mask.Rects()
	local := make([]region.Rect, len(rects))
	for i, r := range rects {
		local[i] = region.Rect{
			Left:   r.Left - b.Left,
			Top:    r.Top - b.Top,
			Right:  r.Right - b.Left,
			Bottom: r.Bottom - b.Top,
		}
	}
	return shapeRects(local)
}

// Hide unmaps the overlay without destroying it.
func (o *Overlay) Hide() {
	if !o.mapped {
		return
	}
	o.win.Unmap()
	o.mapped = false
}

// Destroy releases the overlay window.
func (o *Overlay) Destroy() {
	o.win.Destroy()
	o.mapped = false
}

// Flash shows mask for d, or until ctx is done, then destroys the overlay.
func (o *Overlay) Flash(ctx context.Context, mask region.Set, originX, originY int, d time.Duration) error {
	defer o.Destroy()
	if err := o.Show(mask, originX, originY); err != nil {
		return err
	}
	// Round-trip so the map request is processed before we wait.
	xproto.GetInputFocus(o.conn.XUtil.Conn()).Reply()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return nil
}
