package ipc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/dragmask/internal/config"
	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/platform"
	"github.com/1broseidon/dragmask/internal/region"
)

type fakeWindow struct {
	id     platform.WindowID
	framed bool

	mu        sync.Mutex
	mask      region.Set
	installed bool
}

func (w *fakeWindow) Key() string          { return w.id.String() }
func (w *fakeWindow) HasNativeFrame() bool { return w.framed }
func (w *fakeWindow) Title() string        { return "fake" }

func (w *fakeWindow) SetDraggableRegion(mask region.Set) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mask = mask
	w.installed = true
}

func (w *fakeWindow) current() (region.Set, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mask, w.installed
}

func (w *fakeWindow) DraggableRegion() (region.Set, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.installed {
		return region.Empty(), draggable.ErrNoRegion
	}
	return w.mask, nil
}

type fakeBackend struct {
	windows map[platform.WindowID]*fakeWindow
}

func (b *fakeBackend) Window(id platform.WindowID) (platform.MaskWindow, error) {
	w, ok := b.windows[id]
	if !ok {
		return nil, fmt.Errorf("unknown window %s", id)
	}
	return w, nil
}

func (b *fakeBackend) ActiveWindow() (platform.WindowID, error) { return 1, nil }

func (b *fakeBackend) FindWindow(string) (platform.WindowID, error) { return 1, nil }

func (b *fakeBackend) Preview(context.Context, platform.WindowID, region.Set, uint32, time.Duration) error {
	return nil
}

func (b *fakeBackend) Disconnect() {}

func startServer(t *testing.T, backend platform.Backend) (*Server, *Client) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("DRAGMASK_SOCKET", "")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(config.DefaultConfig(), filepath.Join(t.TempDir(), "config.yaml"), backend, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, NewClient()
}

func strip(left, top, right, bottom int, drag bool) draggable.Entry {
	return draggable.Entry{
		Bounds:    region.Rect{Left: left, Top: top, Right: right, Bottom: bottom},
		Draggable: drag,
	}
}

func TestServer_UpdateRegionsInstallsOnFramelessWindow(t *testing.T) {
	frameless := &fakeWindow{id: 0x10}
	framed := &fakeWindow{id: 0x20, framed: true}
	_, client := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{
		frameless.id: frameless,
		framed.id:    framed,
	}})

	entries := []draggable.Entry{
		strip(0, 0, 100, 20, true),
		strip(80, 0, 100, 20, false),
	}

	data, err := client.UpdateRegions(uint32(frameless.id), entries)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if data.Outcome != draggable.OutcomeApplied {
		t.Fatalf("expected applied, got %q", data.Outcome)
	}
	want := region.FromRects(region.Rect{Left: 0, Top: 0, Right: 80, Bottom: 20})
	if got, _ := frameless.current(); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want.Rects(), got.Rects())
	}

	data, err = client.UpdateRegions(uint32(framed.id), entries)
	if err != nil {
		t.Fatalf("update framed: %v", err)
	}
	if _, installed := framed.current(); data.Outcome != draggable.OutcomeFramed || installed {
		t.Fatalf("expected framed window to be left alone, outcome %q", data.Outcome)
	}

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Passes != 2 || status.Applied != 1 || status.Skipped != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestServer_GetRegion(t *testing.T) {
	win := &fakeWindow{id: 0x10}
	_, client := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{win.id: win}})

	data, err := client.GetRegion(uint32(win.id))
	if err != nil {
		t.Fatalf("get region: %v", err)
	}
	if data.Installed {
		t.Fatalf("expected no region before the first update")
	}

	if _, err := client.UpdateRegions(uint32(win.id), []draggable.Entry{strip(0, 0, 100, 20, true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	data, err = client.GetRegion(uint32(win.id))
	if err != nil {
		t.Fatalf("get region: %v", err)
	}
	if !data.Installed || len(data.Rects) != 1 || data.Rects[0] != (region.Rect{Right: 100, Bottom: 20}) {
		t.Fatalf("unexpected region data %+v", data)
	}
}

func TestServer_RejectsBadRequests(t *testing.T) {
	_, client := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{}})

	if _, err := client.UpdateRegions(0, nil); err == nil {
		t.Fatalf("expected missing window_id to fail")
	}
	if _, err := client.UpdateRegions(0x99, nil); err == nil {
		t.Fatalf("expected unknown window to fail")
	}
	if _, err := client.sendRequest(&Request{Command: "BOGUS"}); err == nil {
		t.Fatalf("expected unknown command to fail")
	}
}

func TestServer_ReloadPicksUpConfig(t *testing.T) {
	srv, client := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{}})

	if err := os.WriteFile(srv.configPath, []byte("trace_regions: true\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.TraceRegions {
		t.Fatalf("expected reload to enable region tracing")
	}
}

func TestServer_ReloadRunsConfigHook(t *testing.T) {
	srv, client := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{}})

	got := make(chan *config.Config, 1)
	srv.OnConfigChange(func(cfg *config.Config) { got <- cfg })

	if err := os.WriteFile(srv.configPath, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	select {
	case cfg := <-got:
		if cfg.LogLevel != "debug" {
			t.Fatalf("expected hook to see log_level debug, got %q", cfg.LogLevel)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected reload to run the config hook")
	}
}

func TestServer_ConcurrentUpdatesLeaveOneWholeMask(t *testing.T) {
	win := &fakeWindow{id: 0x10}
	_, client := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{win.id: win}})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(size int) {
			defer wg.Done()
			if _, err := client.UpdateRegions(uint32(win.id), []draggable.Entry{strip(0, 0, size, size, true)}); err != nil {
				errs <- err
			}
		}(10 * (i%3 + 1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("update: %v", err)
	}

	mask, _ := win.current()
	switch mask.Area() {
	case 100, 400, 900:
	default:
		t.Fatalf("expected one whole mask, got area %d", mask.Area())
	}
}

func TestServer_StopDoesNotWaitForIdleClients(t *testing.T) {
	srv, _ := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{}})

	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	// Give the accept loop time to hand the connection to a handler.
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a client that never sent a request")
	}
}

func TestServer_LargeEntryListWithinClientTimeout(t *testing.T) {
	win := &fakeWindow{id: 0x10}
	_, client := startServer(t, &fakeBackend{windows: map[platform.WindowID]*fakeWindow{win.id: win}})

	entries := make([]draggable.Entry, 0, 1500)
	for i := 0; i < 1500; i++ {
		entries = append(entries, strip(i*2, i, i*2+30, i+30, i%4 != 3))
	}

	data, err := client.UpdateRegions(uint32(win.id), entries)
	if err != nil {
		t.Fatalf("update with %d entries: %v", len(entries), err)
	}
	if data.Outcome != draggable.OutcomeApplied {
		t.Fatalf("expected applied, got %q", data.Outcome)
	}
	if got, _ := win.current(); !got.Equal(draggable.Compose(entries)) {
		t.Fatalf("installed mask differs from the composed one")
	}
}
