// Package wpdmstate resolves the daemon's on-disk state directory and the
// current-wallpaper config file within it, shared between the daemon
// (root package main) and the control CLI (cmd/wpdmctl) so both agree on
// where the cache, socket, and config live.
//
// Generalizes runtime_ipc.go's resolveSocketPath (an XDG_RUNTIME_DIR
// lookup with a hardcoded fallback) to XDG_STATE_HOME / $HOME/.local/state
// per spec.md §6.
package wpdmstate

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir resolves the state directory path without creating it.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "wpdm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve state directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "wpdm"), nil
}

// Ensure resolves the state directory and creates it if missing.
func Ensure() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state directory %s: %w", dir, err)
	}
	return dir, nil
}

// SocketPath is the control-plane endpoint's path under the state
// directory (SPEC_FULL.md §4.6: a Unix domain datagram socket).
func SocketPath(dir string) string {
	return filepath.Join(dir, "control.sock")
}

// ConfigPath is the single-line file holding the currently set wallpaper's
// absolute path (spec.md §6).
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.conf")
}

// ReadCurrentWallpaper reads the persisted "from" path, returning "" if no
// wallpaper has ever been set.
func ReadCurrentWallpaper(dir string) (string, error) {
	data, err := os.ReadFile(ConfigPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", ConfigPath(dir), err)
	}
	return string(data), nil
}

// WriteCurrentWallpaper atomically replaces config.conf with path
// (write-then-rename, SPEC_FULL.md §4.1's resolution of Open Question 3).
func WriteCurrentWallpaper(dir, path string) error {
	tmp, err := os.CreateTemp(dir, ".config.conf.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(path); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpName, ConfigPath(dir)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
