package ipc

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketPath resolves the control-plane socket location: XDG_RUNTIME_DIR
// if set (the normal case under a logged-in session), falling back to
// os.TempDir() otherwise. Replaces the teacher's internal/runtimepath,
// which resolved several session-specific paths (socket, tmux, locks) for
// the terminal-tiling domain; the matcher needs only the one socket path.
func SocketPath() (string, error) {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("ipc: create runtime dir %s: %w", dir, err)
	}
	return filepath.Join(dir, "matcherctl.sock"), nil
}
