package main

// fakeBackend is a test double for Backend: it records what the compositor
// loop asked it to do and lets tests fire events synchronously by calling
// the registered callback fields directly, the same way
// video_compositor_test.go exercised VideoCompositor against a
// mockScanlineSource satisfying VideoSource.
type fakeBackend struct {
	onOutputAdded   func(id OutputID, name string, width, height int32)
	onOutputRemoved func(id OutputID)
	onConfigure     func(id OutputID)
	onFrame         func(id OutputID)

	createLayerErr  error
	requestFrameErr error
	attachErr       error

	layerSurfacesCreated []OutputID
	frameRequests        []OutputID
	commits              []commitRecord
	closed               bool
}

type commitRecord struct {
	id     OutputID
	canvas []byte
	handle uint64
}

func newFakeBackend() *fakeBackend { return &fakeBackend{} }

func (f *fakeBackend) Connect() error { return nil }
func (f *fakeBackend) Run() error     { return nil }
func (f *fakeBackend) Close() error   { f.closed = true; return nil }

func (f *fakeBackend) OnOutputAdded(cb func(id OutputID, name string, width, height int32)) {
	f.onOutputAdded = cb
}
func (f *fakeBackend) OnOutputRemoved(cb func(id OutputID)) { f.onOutputRemoved = cb }
func (f *fakeBackend) OnConfigure(cb func(id OutputID))     { f.onConfigure = cb }
func (f *fakeBackend) OnFrame(cb func(id OutputID))         { f.onFrame = cb }

func (f *fakeBackend) CreateLayerSurface(id OutputID, width, height int32) error {
	if f.createLayerErr != nil {
		return f.createLayerErr
	}
	f.layerSurfacesCreated = append(f.layerSurfacesCreated, id)
	return nil
}

func (f *fakeBackend) RequestFrame(id OutputID) error {
	if f.requestFrameErr != nil {
		return f.requestFrameErr
	}
	f.frameRequests = append(f.frameRequests, id)
	return nil
}

func (f *fakeBackend) AttachAndCommit(id OutputID, canvas []byte, handle uint64) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	cp := make([]byte, len(canvas))
	copy(cp, canvas)
	f.commits = append(f.commits, commitRecord{id: id, canvas: cp, handle: handle})
	return nil
}

var _ Backend = (*fakeBackend)(nil)
