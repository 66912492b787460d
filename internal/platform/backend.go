package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/region"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// ParseWindowID accepts decimal or 0x-prefixed hexadecimal ids, as printed
// by xwininfo and xprop.
func ParseWindowID(s string) (WindowID, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("invalid window id %q: must be non-zero", s)
	}
	return WindowID(v), nil
}

func (id WindowID) String() string {
	return fmt.Sprintf("0x%x", uint32(id))
}

// MaskWindow is a platform window that accepts draggable masks and can
// report the one currently installed.
type MaskWindow interface {
	draggable.Window
	DraggableRegion() (region.Set, error)
	Title() string
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Window(id WindowID) (MaskWindow, error)
	ActiveWindow() (WindowID, error)
	FindWindow(title string) (WindowID, error)
	// Preview draws mask over the window for d, or until ctx is done.
	Preview(ctx context.Context, id WindowID, mask region.Set, color uint32, d time.Duration) error
	Disconnect()
}
