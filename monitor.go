package main

import (
	"sync"

	"github.com/BrynGhiffar/wpdm/internal/wpdmwire"
)

// monitor is the compositor-side per-output record (spec.md §3). It is
// exclusive to the compositor thread; no lock is required.
type monitor struct {
	id         OutputID
	name       string
	width      int32
	height     int32
	configured bool

	// framePending is true once RequestFrame has been issued and no
	// matching OnFrame callback has fired yet. Render admission explicitly
	// re-requests a frame for monitors whose previous render was Retired,
	// since no callback is already in flight for them.
	framePending bool
}

// monitorMetaSet is the MonitorMeta list shared with the control plane
// (spec.md §3: "readers: C6 inventory; writers: C5 only"), guarded by a
// multi-reader/single-writer lock per spec.md §9.
type monitorMetaSet struct {
	mu    sync.RWMutex
	items []wpdmwire.MonitorMeta
}

func (s *monitorMetaSet) add(m wpdmwire.MonitorMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, m)
}

func (s *monitorMetaSet) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.items {
		if m.Name == name {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the current monitor list, safe for the caller
// to use after the lock is released.
func (s *monitorMetaSet) snapshot() []wpdmwire.MonitorMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]wpdmwire.MonitorMeta, len(s.items))
	copy(out, s.items)
	return out
}

func (s *monitorMetaSet) isEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

// sizeOf returns the dimensions of a named monitor, if currently known.
func (s *monitorMetaSet) sizeOf(name string) (width, height int32, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.items {
		if m.Name == name {
			return m.Width, m.Height, true
		}
	}
	return 0, 0, false
}
