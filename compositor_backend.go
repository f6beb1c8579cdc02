package main

// Backend is the seam between the compositor loop (C5, the subject of this
// daemon) and the layer-shell/registry protocol library (an out-of-scope
// external collaborator per spec.md §1: "the actual layer-shell/registry
// protocol library, treated as a black-box that invokes callbacks and owns
// surface/output objects"). A real implementation wraps a Wayland
// connection and zwlr_layer_shell_v1; this interface is the only contract
// compositor_loop.go depends on, so the event-driven wiring can be written
// and tested against fakeBackend without a running compositor.
//
// The callback-registration shape mirrors the pack's own Wayland client
// bindings: per-event callback fields filled in once before the event pump
// starts, rather than a channel or a single fat dispatch method.
type Backend interface {
	// Connect binds the compositor/shm/layer-shell/output globals and
	// performs the initial roundtrip that enumerates already-present
	// outputs (each reported via a synchronous OnOutputAdded call before
	// Connect returns).
	Connect() error

	// Run pumps the event queue, invoking the registered callbacks, until
	// Close is called or the compositor connection errors out (spec.md
	// §7's "protocol errors from the compositor: fatal"). It returns that
	// error, or nil on a clean Close.
	Run() error

	// Close tears down the connection, unblocking a concurrent Run.
	Close() error

	// OnOutputAdded registers the new-output callback. Must be called
	// before Connect.
	OnOutputAdded(func(id OutputID, name string, width, height int32))
	// OnOutputRemoved registers the output-destroyed callback.
	OnOutputRemoved(func(id OutputID))
	// OnConfigure registers the layer-configure callback, fired once per
	// output after CreateLayerSurface, and potentially again on resize.
	OnConfigure(func(id OutputID))
	// OnFrame registers the frame-callback-fired callback.
	OnFrame(func(id OutputID))

	// CreateLayerSurface creates a layer surface anchored to the full
	// output, layer Background, no keyboard interactivity, and commits it
	// without a buffer (spec.md §4.5's startup sequence for a new output).
	CreateLayerSurface(id OutputID, width, height int32) error
	// RequestFrame asks for one frame callback on the output's surface.
	RequestFrame(id OutputID) error
	// AttachAndCommit attaches canvas (exactly width*height*4 bytes, the
	// buffer most recently allocated for this output) to the output's
	// surface, damages the full area, and commits.
	AttachAndCommit(id OutputID, canvas []byte, bufferHandle uint64) error
}

// OutputID identifies an output for the lifetime of its connection to the
// compositor; it is opaque outside this package and the Backend
// implementation that issues it.
type OutputID uint32
