//go:build linux

package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/dragmask/internal/region"
	"github.com/1broseidon/dragmask/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn     *x11.Connection
	property string
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackendFromDisplay opens a fresh X11 connection. An empty display
// uses $DISPLAY.
func NewLinuxBackendFromDisplay(display, property string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, err
	}
	return &LinuxBackend{conn: conn, property: property}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops a running EventLoop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Window returns the mask window for id. The id is not checked against the
// server; a stale id is reported by the window's Valid method.
func (b *LinuxBackend) Window(id WindowID) (MaskWindow, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	return conn.Window(xproto.Window(id), b.property), nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// FindWindow returns the first client window whose title contains title.
func (b *LinuxBackend) FindWindow(title string) (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	wid, err := conn.FindWindowByTitle(title)
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// Preview flashes a shaped overlay of mask on top of the window.
func (b *LinuxBackend) Preview(ctx context.Context, id WindowID, mask region.Set, color uint32, d time.Duration) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	win := conn.Window(xproto.Window(id), b.property)
	if !win.Valid() {
		return fmt.Errorf("window %s does not exist", id)
	}
	x, y, err := win.Origin()
	if err != nil {
		return err
	}

	overlay, err := conn.NewOverlay(color)
	if err != nil {
		return err
	}
	return overlay.Flash(ctx, mask, x, y, d)
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
