package transition

import "testing"

// countingKernel is a test double that finishes after a fixed number of
// frames, mirroring the way video_compositor_test.go's mockScanlineSource
// stands in for a real VideoSource.
type countingKernel struct {
	terminalFrame uint32
	calls         []uint32
}

func (k *countingKernel) Render(frame uint32, from, to, out []byte) bool {
	k.calls = append(k.calls, frame)
	copy(out, to)
	return frame >= k.terminalFrame
}

func mustTransition(t *testing.T, monitors []string, w, h int, kernel Kernel) *Transition {
	t.Helper()
	from := solidBuffer(w, h, 1)
	to := solidBuffer(w, h, 2)
	tr, err := NewTransition(monitors, w, h, from, to, kernel)
	if err != nil {
		t.Fatalf("NewTransition: %v", err)
	}
	return tr
}

func TestManagerNoTransitionForUnknownMonitor(t *testing.T) {
	m := NewManager()
	out := make([]byte, 4*4*BytesPerPixel)
	if got := m.Render("eDP-1", out); got != NoTransition {
		t.Fatalf("got %v, want NoTransition", got)
	}
}

func TestManagerRendersThenRetires(t *testing.T) {
	m := NewManager()
	k := &countingKernel{terminalFrame: 2}
	tr := mustTransition(t, []string{"HDMI-A-1"}, 4, 4, k)
	m.Admit(tr)

	out := make([]byte, 4*4*BytesPerPixel)
	for i := 0; i < 2; i++ {
		if got := m.Render("HDMI-A-1", out); got != Rendered {
			t.Fatalf("call %d: got %v, want Rendered", i, got)
		}
	}
	if got := m.Render("HDMI-A-1", out); got != Retired {
		t.Fatalf("final call: got %v, want Retired", got)
	}
	if m.HasActive() {
		t.Fatalf("manager should be empty after retirement")
	}
	if got := m.Render("HDMI-A-1", out); got != NoTransition {
		t.Fatalf("after retirement: got %v, want NoTransition", got)
	}
}

func TestManagerFrameIndexMonotonic(t *testing.T) {
	m := NewManager()
	k := &countingKernel{terminalFrame: 100}
	tr := mustTransition(t, []string{"HDMI-A-1"}, 4, 4, k)
	m.Admit(tr)

	out := make([]byte, 4*4*BytesPerPixel)
	for i := 0; i < 5; i++ {
		m.Render("HDMI-A-1", out)
	}
	for i, f := range k.calls {
		if f != uint32(i) {
			t.Fatalf("call %d saw frame index %d, want %d", i, f, i)
		}
	}
}

func TestManagerMixedSizesAreIndependent(t *testing.T) {
	m := NewManager()
	kSmall := &countingKernel{terminalFrame: 100}
	kBig := &countingKernel{terminalFrame: 100}

	m.Admit(mustTransition(t, []string{"HDMI-A-1"}, 4, 4, kSmall))
	m.Admit(mustTransition(t, []string{"eDP-1"}, 8, 8, kBig))

	outSmall := make([]byte, 4*4*BytesPerPixel)
	outBig := make([]byte, 8*8*BytesPerPixel)

	m.Render("HDMI-A-1", outSmall)
	m.Render("HDMI-A-1", outSmall)
	m.Render("eDP-1", outBig)

	if len(kSmall.calls) != 2 {
		t.Fatalf("small transition got %d calls, want 2", len(kSmall.calls))
	}
	if len(kBig.calls) != 1 {
		t.Fatalf("big transition got %d calls, want 1", len(kBig.calls))
	}
}

func TestManagerNewerTransitionWinsOnConflict(t *testing.T) {
	m := NewManager()
	kOld := &countingKernel{terminalFrame: 100}
	kNew := &countingKernel{terminalFrame: 100}

	m.Admit(mustTransition(t, []string{"HDMI-A-1", "DP-1"}, 4, 4, kOld))
	m.Admit(mustTransition(t, []string{"HDMI-A-1"}, 4, 4, kNew))

	out := make([]byte, 4*4*BytesPerPixel)
	if got := m.Render("HDMI-A-1", out); got != Rendered {
		t.Fatalf("got %v, want Rendered", got)
	}
	if len(kNew.calls) != 1 || len(kOld.calls) != 0 {
		t.Fatalf("newest admitted transition should have rendered, not the superseded one")
	}

	// DP-1 was never touched by the newer transition, so the older entry
	// (now pruned of HDMI-A-1) must still serve it.
	if got := m.Render("DP-1", out); got != Rendered {
		t.Fatalf("got %v, want Rendered for surviving monitor on older transition", got)
	}
	if len(kOld.calls) != 1 {
		t.Fatalf("older transition should still serve its remaining monitor")
	}
}

func TestManagerAdmitRejectsEmptyMonitorList(t *testing.T) {
	m := NewManager()
	tr := mustTransition(t, nil, 4, 4, &countingKernel{terminalFrame: 1})
	m.Admit(tr)
	if m.HasActive() {
		t.Fatalf("admitting a transition with no monitors must be a no-op")
	}
}

func TestNewTransitionRejectsLengthMismatch(t *testing.T) {
	from := make([]byte, 4*4*BytesPerPixel)
	to := make([]byte, 4*4*BytesPerPixel-1)
	_, err := NewTransition([]string{"HDMI-A-1"}, 4, 4, from, to, &countingKernel{terminalFrame: 1})
	if err == nil {
		t.Fatalf("expected admission error for mismatched buffer length")
	}
}

func TestPruneMonitorRemovesFromAllTransitions(t *testing.T) {
	m := NewManager()
	m.Admit(mustTransition(t, []string{"HDMI-A-1", "DP-1"}, 4, 4, &countingKernel{terminalFrame: 100}))

	m.PruneMonitor("HDMI-A-1")

	out := make([]byte, 4*4*BytesPerPixel)
	if got := m.Render("HDMI-A-1", out); got != NoTransition {
		t.Fatalf("pruned monitor should have no transition, got %v", got)
	}
	if got := m.Render("DP-1", out); got != Rendered {
		t.Fatalf("remaining monitor should still render, got %v", got)
	}
}
