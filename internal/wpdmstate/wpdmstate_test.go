package wpdmstate

import (
	"os"
	"testing"
)

func TestDirUsesXDGStateHomeWhenSet(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if dir != "/custom/state/wpdm" {
		t.Fatalf("Dir() = %q, want /custom/state/wpdm", dir)
	}
}

func TestDirFallsBackToHomeLocalState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/example")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if dir != "/home/example/.local/state/wpdm" {
		t.Fatalf("Dir() = %q, want /home/example/.local/state/wpdm", dir)
	}
}

func TestReadCurrentWallpaperMissingFileReturnsEmpty(t *testing.T) {
	got, err := ReadCurrentWallpaper(t.TempDir())
	if err != nil {
		t.Fatalf("ReadCurrentWallpaper: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty string for a never-set wallpaper", got)
	}
}

func TestWriteThenReadCurrentWallpaperRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := WriteCurrentWallpaper(dir, "/imgs/a.png"); err != nil {
		t.Fatalf("WriteCurrentWallpaper: %v", err)
	}
	got, err := ReadCurrentWallpaper(dir)
	if err != nil {
		t.Fatalf("ReadCurrentWallpaper: %v", err)
	}
	if got != "/imgs/a.png" {
		t.Fatalf("got %q, want /imgs/a.png", got)
	}
}

func TestWriteCurrentWallpaperLeavesNoStrayTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := WriteCurrentWallpaper(dir, "/imgs/a.png"); err != nil {
		t.Fatalf("WriteCurrentWallpaper: %v", err)
	}
	if err := WriteCurrentWallpaper(dir, "/imgs/b.png"); err != nil {
		t.Fatalf("WriteCurrentWallpaper: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file in state dir, got %d", len(entries))
	}
}

func TestSocketAndConfigPathsAreUnderDir(t *testing.T) {
	dir := "/state/wpdm"
	if got := SocketPath(dir); got != "/state/wpdm/control.sock" {
		t.Fatalf("SocketPath = %q", got)
	}
	if got := ConfigPath(dir); got != "/state/wpdm/config.conf" {
		t.Fatalf("ConfigPath = %q", got)
	}
}
