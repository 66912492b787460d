package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/motif"
)

// frameHints is what the X server tells us about a window's decorations.
// Nil fields mean the property is not set.
type frameHints struct {
	motifDecorated *bool
	extents        *ewmh.FrameExtents
}

// hasNativeFrame decides frame state from the collected hints. An explicit
// Motif "no decorations" request wins; otherwise a window manager that
// publishes all-zero frame extents is drawing no chrome. Anything else is
// treated as framed.
func (h frameHints) hasNativeFrame() bool {
	if h.motifDecorated != nil && !*h.motifDecorated {
		return false
	}
	if e := h.extents; e != nil && e.Left == 0 && e.Right == 0 && e.Top == 0 && e.Bottom == 0 {
		return false
	}
	return true
}

func (c *Connection) frameHints(windowID xproto.Window) frameHints {
	var hints frameHints
	if mh, err := motif.WmHintsGet(c.XUtil, windowID); err == nil {
		decorated := motif.Decor(mh)
		hints.motifDecorated = &decorated
	}
	if extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID); err == nil {
		hints.extents = extents
	}
	return hints
}
