package pixcache

import (
	"bytes"
	"os"
	"testing"
)

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("/imgs/a.png", 1920, 1080)
	b := Key("/imgs/a.png", 1920, 1080)
	if a != b {
		t.Fatalf("Key not deterministic: %q vs %q", a, b)
	}
	if got := Key("/imgs/b.png", 1920, 1080); got == a {
		t.Fatalf("different source paths collided: %q", got)
	}
	if got := Key("/imgs/a.png", 2560, 1440); got == a {
		t.Fatalf("different sizes collided: %q", got)
	}
}

func TestKeyShape(t *testing.T) {
	k := Key("/imgs/a.png", 1920, 1080)
	if len(k) < 20+1+len("1920x1080")+len(".bgra") {
		t.Fatalf("key too short: %q", k)
	}
	if k[len(k)-5:] != ".bgra" {
		t.Fatalf("key missing .bgra suffix: %q", k)
	}
}

func TestWriteThenMmapRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := Key("/imgs/a.png", 4, 4)
	want := bytes.Repeat([]byte{1, 2, 3, 4}, 4*4)
	if err := c.Write(key, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf, err := c.Mmap(key)
	if err != nil {
		t.Fatalf("Mmap: %v", err)
	}
	defer buf.Close()

	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("round-tripped bytes differ")
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	key := Key("/imgs/a.png", 2, 2)

	first := bytes.Repeat([]byte{0xAA}, 2*2*4)
	second := bytes.Repeat([]byte{0xBB}, 2*2*4)

	if err := c.Write(key, first); err != nil {
		t.Fatalf("Write first: %v", err)
	}
	if err := c.Write(key, second); err != nil {
		t.Fatalf("Write second: %v", err)
	}

	buf, err := c.Mmap(key)
	if err != nil {
		t.Fatalf("Mmap: %v", err)
	}
	defer buf.Close()
	if !bytes.Equal(buf.Bytes(), second) {
		t.Fatalf("expected second write's content, got stale bytes")
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.Name() != key {
			t.Fatalf("stray temp file left behind: %q", e.Name())
		}
	}
}

func TestMmapMissingKeyNotFound(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)

	_, err := c.Mmap(Key("/imgs/missing.png", 100, 100))
	if err == nil {
		t.Fatalf("expected error for missing key")
	}
	if !NotFound(err) {
		t.Fatalf("expected NotFound(err) == true, got %v", err)
	}
}
