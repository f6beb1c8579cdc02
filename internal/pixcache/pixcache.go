// Package pixcache implements the on-disk pixel cache (C1): a content-addressed
// store of raw pre-rendered per-size BGRA buffers, memory-mapped on read.
package pixcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// BytesPerPixel is the size of one native 32-bit ARGB (BGRA in memory) pixel.
const BytesPerPixel = 4

// Error provides operation context for cache failures, with the same
// Operation/Details/Err shape as shmpool.Error.
type Error struct {
	Operation string
	Details   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pixcache %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("pixcache %s failed: %s", e.Operation, e.Details)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports whether err represents a missing cache entry.
func NotFound(err error) bool {
	ce, ok := err.(*Error)
	return ok && os.IsNotExist(ce.Err)
}

// Cache is a directory of raw BGRA buffers named by CacheKey.
type Cache struct {
	dir string
}

// New opens (and creates, if missing) the cache directory.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Operation: "open", Details: dir, Err: err}
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// Key derives the deterministic, collision-resistant cache file name for a
// source path and target output size: first 20 hex chars of
// SHA256(canonical source path), plus the size, plus the ".bgra" extension.
func Key(canonicalSourcePath string, width, height int) string {
	sum := sha256.Sum256([]byte(canonicalSourcePath))
	return fmt.Sprintf("%s_%dx%d.bgra", hex.EncodeToString(sum[:])[:20], width, height)
}

// path returns the absolute path for a cache key, rejecting anything that
// would escape the cache directory (keys are opaque but caller-supplied).
func (c *Cache) path(key string) (string, error) {
	full := filepath.Join(c.dir, filepath.Base(key))
	rel, err := filepath.Rel(c.dir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", &Error{Operation: "path", Details: key, Err: os.ErrInvalid}
	}
	return full, nil
}

// Write atomically replaces the file at {cache_dir}/{key} with bytes, via
// write-then-rename: a reader never observes a partial write.
func (c *Cache) Write(key string, data []byte) error {
	dst, err := c.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".wpdm-tmp-*")
	if err != nil {
		return &Error{Operation: "write", Details: key, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Operation: "write", Details: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &Error{Operation: "write", Details: key, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return &Error{Operation: "write", Details: key, Err: err}
	}
	return nil
}

// Buffer is a read-only memory-mapped view of a cached pixel buffer. Callers
// must call Close when done to release the mapping.
type Buffer struct {
	data []byte
}

// Bytes returns the mapped pixel bytes.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the length of the mapped buffer in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Close unmaps the buffer. Safe to call more than once.
func (b *Buffer) Close() error {
	if b.data == nil {
		return nil
	}
	err := unix.Munmap(b.data)
	b.data = nil
	return err
}

// Mmap opens key read-only and maps it into memory. Returns an *Error
// wrapping os.ErrNotExist (see NotFound) if the key has no cache entry.
func (c *Cache) Mmap(key string) (*Buffer, error) {
	full, err := c.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, &Error{Operation: "mmap", Details: key, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &Error{Operation: "mmap", Details: key, Err: err}
	}
	size := int(info.Size())
	if size == 0 {
		return nil, &Error{Operation: "mmap", Details: key, Err: fmt.Errorf("empty cache file")}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, &Error{Operation: "mmap", Details: key, Err: err}
	}
	return &Buffer{data: data}, nil
}
