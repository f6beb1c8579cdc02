// Package shmpool implements the surface/buffer pool (C4): a shared-memory
// backed slot allocator for per-output pixel buffers. Slots of every size are
// carved out of memfd-created, mmap'd regions shared by all sizes; freed
// slots are returned to a free list for their size and reused instead of
// taking new space.
//
// This mirrors the pool/buffer split used by Wayland's own wl_shm_pool and
// wl_buffer objects (one fd-backed mapping, many sub-buffers carved out of
// it) without depending on the wire protocol itself — that belongs to the
// compositor backend (see compositor_backend.go), which this package is
// deliberately independent of.
package shmpool

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Error provides operation context for buffer pool failures.
type Error struct {
	Operation string
	Details   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("shmpool %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("shmpool %s failed: %s", e.Operation, e.Details)
}

func (e *Error) Unwrap() error { return e.Err }

// Buffer is one allocated slot: an exclusively-writable canvas until it is
// committed to a surface, after which the compositor owns it until release.
type Buffer struct {
	pool   *Pool
	region *region
	offset int
	size   int
	handle uint64
}

// Canvas returns the writable pixel bytes for this buffer.
func (b *Buffer) Canvas() []byte {
	return b.region.mem[b.offset : b.offset+b.size]
}

// Handle is an opaque identifier a compositor backend can use to correlate
// this buffer with its own wire-level object.
func (b *Buffer) Handle() uint64 { return b.handle }

// Release returns the slot to the pool's free list for its size class, for
// reuse by a future CreateBuffer call. Safe to call once per buffer.
func (b *Buffer) Release() {
	b.pool.release(b)
}

// region is one memfd-backed mapping. A pool grows into a new region when
// the current one lacks room for a requested slot, but never shrinks —
// regions live until the pool itself is closed.
type region struct {
	fd   int
	mem  []byte
	size int
}

// Pool allocates fixed-size buffer slots backed by shared memory, growing to
// accommodate concurrent demand and reusing freed slots.
type Pool struct {
	mu       sync.Mutex
	regions  []*region
	free     map[int][]*Buffer // size class -> free slots
	nextID   uint64
	capacity int // bytes of the current region already handed out
}

// New returns an empty pool. Regions are created lazily on first use.
func New() *Pool {
	return &Pool{free: make(map[int][]*Buffer)}
}

// CreateBuffer allocates a width*height*4 canvas (stride == width*4, native
// 32-bit ARGB). It reuses a freed slot of the same size if one is available,
// otherwise grows the pool.
func (p *Pool) CreateBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, &Error{Operation: "create_buffer", Details: "non-positive dimensions"}
	}
	size := width * height * 4

	p.mu.Lock()
	defer p.mu.Unlock()

	if slots := p.free[size]; len(slots) > 0 {
		buf := slots[len(slots)-1]
		p.free[size] = slots[:len(slots)-1]
		p.nextID++
		buf.handle = p.nextID
		return buf, nil
	}

	r, offset, err := p.growLocked(size)
	if err != nil {
		return nil, err
	}
	p.nextID++
	return &Buffer{pool: p, region: r, offset: offset, size: size, handle: p.nextID}, nil
}

// growLocked adds size bytes of capacity, creating a new region if the
// current one lacks room. Must be called with p.mu held.
func (p *Pool) growLocked(size int) (*region, int, error) {
	if n := len(p.regions); n > 0 {
		r := p.regions[n-1]
		if r.size-p.capacity >= size {
			offset := p.capacity
			p.capacity += size
			return r, offset, nil
		}
	}

	// New region sized generously so a burst of same-size buffers (the
	// common case: one per output) doesn't thrash memfd_create.
	const regionSize = 16 * 1024 * 1024
	grow := size
	if regionSize > grow {
		grow = regionSize
	}

	fd, err := unix.MemfdCreate("wpdm-shm-pool", 0)
	if err != nil {
		return nil, 0, &Error{Operation: "create_buffer", Details: "memfd_create", Err: err}
	}
	if err := unix.Ftruncate(fd, int64(grow)); err != nil {
		unix.Close(fd)
		return nil, 0, &Error{Operation: "create_buffer", Details: "ftruncate", Err: err}
	}
	mem, err := unix.Mmap(fd, 0, grow, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, 0, &Error{Operation: "create_buffer", Details: "mmap", Err: err}
	}

	r := &region{fd: fd, mem: mem, size: grow}
	p.regions = append(p.regions, r)
	p.capacity = size
	return r, 0, nil
}

// release returns buf's slot to the free list for its size class.
func (p *Pool) release(buf *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free[buf.size] = append(p.free[buf.size], buf)
}

// ReleaseIdlePages is an advisory hint that freed pages can be given back to
// the OS after a burst of transitions. No behavior depends on success.
func (p *Pool) ReleaseIdlePages() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.regions {
		_ = unix.Madvise(r.mem, unix.MADV_DONTNEED)
	}
}

// Close unmaps and closes every region the pool created.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for _, r := range p.regions {
		if err := unix.Munmap(r.mem); err != nil && first == nil {
			first = err
		}
		if err := unix.Close(r.fd); err != nil && first == nil {
			first = err
		}
	}
	p.regions = nil
	return first
}
