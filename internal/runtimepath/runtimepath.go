// Package runtimepath locates the per-user runtime directory holding the
// daemon socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// SocketEnv overrides the socket path for both daemon and clients.
	SocketEnv  = "DRAGMASK_SOCKET"
	socketName = "dragmask.sock"
)

// Dir returns the runtime directory, trying in order $XDG_RUNTIME_DIR,
// /run/user/<uid> and a private /tmp/dragmask-runtime-<uid>.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}
	return privateTempDir(filepath.Join(os.TempDir(), fmt.Sprintf("dragmask-runtime-%d", uid)))
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// privateTempDir creates dir with mode 0700 and refuses an existing one that
// other users can read or write.
func privateTempDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("failed to stat runtime dir: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return "", fmt.Errorf("runtime dir %s has mode %#o, want 0700", dir, perm)
	}
	return dir, nil
}
