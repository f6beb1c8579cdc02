package transition

import (
	"fmt"
	"io"
	"sync"
)

// Outcome reports what Manager.Render did for a given monitor.
type Outcome int

const (
	// NoTransition means the monitor has no live transition; the caller
	// must skip commit, or commit a no-op.
	NoTransition Outcome = iota
	// Rendered means the kernel wrote a new frame into the caller's buffer.
	Rendered
	// Retired means the transition reached its terminal frame on this call;
	// the monitor has been removed from its transition and out was left
	// untouched — the caller commits nothing and schedules no next frame.
	Retired
)

// Transition is one admitted animation spanning one or more monitors that
// share a resolution.
type Transition struct {
	Monitors []string
	From, To []byte
	Kernel   Kernel

	// Closer, if set, is released exactly once when the transition is
	// removed from a Manager (either because its last monitor retired or
	// was pruned). Owns the mmap handles backing From/To (spec.md §9:
	// "mmaps are owned by the Transition; dropping the transition must
	// unmap").
	Closer io.Closer

	frameIndex map[string]uint32
}

// closeIfSet releases t.Closer at most once.
func (t *Transition) closeIfSet() {
	if t.Closer != nil {
		t.Closer.Close()
		t.Closer = nil
	}
}

// NewTransition builds a Transition, checking the frame-size invariant
// (spec.md §3 invariant 2): both buffers must be exactly width*height*4.
func NewTransition(monitors []string, width, height int, from, to []byte, kernel Kernel) (*Transition, error) {
	want := width * height * BytesPerPixel
	if len(from) != want || len(to) != want {
		return nil, &AdmitError{Width: width, Height: height, FromLen: len(from), ToLen: len(to)}
	}
	fi := make(map[string]uint32, len(monitors))
	for _, m := range monitors {
		fi[m] = 0
	}
	return &Transition{
		Monitors:   append([]string(nil), monitors...),
		From:       from,
		To:         to,
		Kernel:     kernel,
		frameIndex: fi,
	}, nil
}

// AdmitError reports a frame-size invariant violation at admission time.
type AdmitError struct {
	Width, Height  int
	FromLen, ToLen int
}

func (e *AdmitError) Error() string {
	want := e.Width * e.Height * BytesPerPixel
	return fmt.Sprintf("transition: buffer length mismatch: want %d bytes (from=%d to=%d)", want, e.FromLen, e.ToLen)
}

// removeMonitor drops name from the transition's monitor list.
func (t *Transition) removeMonitor(name string) {
	for i, m := range t.Monitors {
		if m == name {
			t.Monitors = append(t.Monitors[:i], t.Monitors[i+1:]...)
			break
		}
	}
	delete(t.frameIndex, name)
}

func (t *Transition) hasMonitor(name string) bool {
	_, ok := t.frameIndex[name]
	return ok
}

// Manager is the ordered collection of active Transitions (C3). A monitor
// name appears in at most one live transition; admitting a new transition
// for a name that is already live supersedes the old entry for that name
// only — the old entry keeps running for its other monitors until they
// individually complete.
type Manager struct {
	mu          sync.Mutex
	transitions []*Transition
}

// NewManager returns an empty Manager.
func NewManager() *Manager { return &Manager{} }

// Admit appends a new transition. O(1).
func (m *Manager) Admit(t *Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(t.Monitors) == 0 {
		return
	}
	m.transitions = append(m.transitions, t)
}

// HasActive reports whether any transition is currently live.
func (m *Manager) HasActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transitions) > 0
}

// Render looks up the transition owning monitorName by scanning in reverse
// insertion order (so the most recently admitted entry for a monitor wins),
// pruning older entries for that monitor as they are encountered, renders
// one frame into out, and reports the outcome.
func (m *Manager) Render(monitorName string, out []byte) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := -1
	for i := len(m.transitions) - 1; i >= 0; i-- {
		t := m.transitions[i]
		if !t.hasMonitor(monitorName) {
			continue
		}
		if found == -1 {
			found = i
			continue
		}
		// A newer entry for this monitor already matched; this older one
		// is stale for this monitor and is pruned now.
		t.removeMonitor(monitorName)
		if len(t.Monitors) == 0 {
			t.closeIfSet()
			m.transitions = append(m.transitions[:i], m.transitions[i+1:]...)
			if found > i {
				found--
			}
		}
	}

	if found == -1 {
		return NoTransition
	}

	t := m.transitions[found]
	frame := t.frameIndex[monitorName]
	done := t.Kernel.Render(frame, t.From, t.To, out)
	if done {
		t.removeMonitor(monitorName)
		if len(t.Monitors) == 0 {
			t.closeIfSet()
			m.transitions = append(m.transitions[:found], m.transitions[found+1:]...)
		}
		return Retired
	}

	t.frameIndex[monitorName] = frame + 1
	return Rendered
}

// PruneMonitor removes name from every active transition, e.g. on
// output-destroyed (spec.md §9 open question 2).
func (m *Manager) PruneMonitor(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.transitions[:0]
	for _, t := range m.transitions {
		t.removeMonitor(name)
		if len(t.Monitors) > 0 {
			kept = append(kept, t)
		} else {
			t.closeIfSet()
		}
	}
	m.transitions = kept
}
