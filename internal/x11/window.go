package x11

import (
	"fmt"
	"math"
	"strings"

	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/region"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Window installs draggable masks on an X11 client window by publishing them
// as a 32-bit INTEGER property of x, y, width, height quads in YX-banded
// order.
type Window struct {
	conn     *Connection
	id       xproto.Window
	property string
}

var (
	_ draggable.Window    = (*Window)(nil)
	_ draggable.Installer = (*Window)(nil)
	_ draggable.Validator = (*Window)(nil)
	_ draggable.Keyed     = (*Window)(nil)
)

// Window wraps windowID; property names the mask property.
func (c *Connection) Window(windowID xproto.Window, property string) *Window {
	return &Window{conn: c, id: windowID, property: property}
}

func (w *Window) Key() string {
	return fmt.Sprintf("x11:0x%x", uint32(w.id))
}

// Valid reports whether the window still exists on the server.
func (w *Window) Valid() bool {
	_, err := xproto.GetGeometry(w.conn.XUtil.Conn(), xproto.Drawable(w.id)).Reply()
	return err == nil
}

func (w *Window) HasNativeFrame() bool {
	return w.conn.frameHints(w.id).hasNativeFrame()
}

// SetDraggableRegion installs mask, dropping any error. Use
// InstallDraggableRegion to observe failures.
func (w *Window) SetDraggableRegion(mask region.Set) {
	_ = w.InstallDraggableRegion(mask)
}

// InstallDraggableRegion replaces the mask property with mask in a single
// ChangeProperty request. An empty mask writes an empty property.
func (w *Window) InstallDraggableRegion(mask region.Set) error {
	if err := xprop.ChangeProp32(w.conn.XUtil, w.id, w.property, "INTEGER", encodeRects(mask.Rects())...); err != nil {
		return fmt.Errorf("failed to set %s on 0x%x: %w", w.property, uint32(w.id), err)
	}
	return nil
}

// DraggableRegion reads the installed mask back from the window.
func (w *Window) DraggableRegion() (region.Set, error) {
	atom, err := xprop.Atm(w.conn.XUtil, w.property)
	if err != nil {
		return region.Empty(), fmt.Errorf("failed to intern %s: %w", w.property, err)
	}
	reply, err := xproto.GetProperty(w.conn.XUtil.Conn(), false, w.id, atom,
		xproto.GetPropertyTypeAny, 0, math.MaxUint32).Reply()
	if err != nil {
		return region.Empty(), fmt.Errorf("failed to read %s on 0x%x: %w", w.property, uint32(w.id), err)
	}
	if reply.Type == xproto.AtomNone {
		return region.Empty(), draggable.ErrNoRegion
	}
	if reply.ValueLen == 0 {
		return region.Empty(), nil
	}
	nums, err := xprop.PropValNums(reply, nil)
	if err != nil {
		return region.Empty(), fmt.Errorf("failed to decode %s on 0x%x: %w", w.property, uint32(w.id), err)
	}
	rects, err := decodeRects(nums)
	if err != nil {
		return region.Empty(), fmt.Errorf("%s on 0x%x: %w", w.property, uint32(w.id), err)
	}
	return region.FromRects(rects...), nil
}

// Origin returns the root-window position of the window's top-left corner.
func (w *Window) Origin() (x, y int, err error) {
	translate, err := xproto.TranslateCoordinates(
		w.conn.XUtil.Conn(),
		w.id,
		w.conn.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to translate coordinates: %w", err)
	}
	return int(translate.DstX), int(translate.DstY), nil
}

// Title returns the window's EWMH name, if any.
func (w *Window) Title() string {
	name, err := ewmh.WmNameGet(w.conn.XUtil, w.id)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

// FindWindowByTitle searches the EWMH client list for a window whose
// _NET_WM_NAME contains the given substring. Returns the first match.
func (c *Connection) FindWindowByTitle(substring string) (xproto.Window, error) {
	if substring == "" {
		return 0, fmt.Errorf("empty title")
	}
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get client list: %w", err)
	}
	for _, win := range clients {
		name, err := ewmh.WmNameGet(c.XUtil, win)
		if err != nil {
			continue
		}
		if strings.Contains(name, substring) {
			return win, nil
		}
	}
	return 0, fmt.Errorf("no window found with title containing %q", substring)
}

// GetActiveWindow returns the focused client window.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

func encodeRects(rects []region.Rect) []uint {
	out := make([]uint, 0, len(rects)*4)
	for _, r := range rects {
		out = append(out,
			uint(uint32(int32(r.Left))),
			uint(uint32(int32(r.Top))),
			uint(uint32(r.Width())),
			uint(uint32(r.Height())),
		)
	}
	return out
}

func decodeRects(nums []uint) ([]region.Rect, error) {
	if len(nums)%4 != 0 {
		return nil, fmt.Errorf("property length %d is not a multiple of 4", len(nums))
	}
	rects := make([]region.Rect, 0, len(nums)/4)
	for i := 0; i < len(nums); i += 4 {
		rects = append(rects, region.XYWH(
			int(int32(uint32(nums[i]))),
			int(int32(uint32(nums[i+1]))),
			int(uint32(nums[i+2])),
			int(uint32(nums[i+3])),
		))
	}
	return rects, nil
}

// shapeRects converts rects to protocol rectangles, clamping to the 16-bit
// coordinate space.
func shapeRects(rects []region.Rect) []xproto.Rectangle {
	out := make([]xproto.Rectangle, 0, len(rects))
	for _, r := range rects {
		left := clamp(r.Left, math.MinInt16, math.MaxInt16)
		top := clamp(r.Top, math.MinInt16, math.MaxInt16)
		right := clamp(r.Right, math.MinInt16, math.MaxInt16)
		bottom := clamp(r.Bottom, math.MinInt16, math.MaxInt16)
		if right <= left || bottom <= top {
			continue
		}
		out = append(out, xproto.Rectangle{
			X:      int16(left),
			Y:      int16(top),
			Width:  uint16(right - left),
			Height: uint16(bottom - top),
		})
	}
	return out
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
