package main

import (
	"fmt"
	"io"

	"github.com/BrynGhiffar/wpdm/internal/pixcache"
	"github.com/BrynGhiffar/wpdm/internal/shmpool"
	"github.com/BrynGhiffar/wpdm/internal/transition"
	"github.com/BrynGhiffar/wpdm/internal/wpdmwire"
)

// RenderCommand is the control-to-render message (spec.md §3), carried from
// the control thread to the compositor thread on a bounded, blocking
// channel.
type RenderCommand struct {
	Monitors []string
	FromPath string
	ToPath   string
}

// Loop is the compositor event pump (C5): single-threaded, driven entirely
// by Backend callbacks. All fields below are touched only from the
// goroutine running Run, except commands, which is safe for concurrent
// send from the control thread by construction (a channel).
type Loop struct {
	backend Backend
	cache   *pixcache.Cache
	pool    *shmpool.Pool
	manager *transition.Manager
	meta    *monitorMetaSet

	monitors map[OutputID]*monitor
	byName   map[string]OutputID

	commands chan RenderCommand
}

// NewLoop builds a Loop. meta is shared with the control server.
func NewLoop(backend Backend, cache *pixcache.Cache, meta *monitorMetaSet) *Loop {
	return &Loop{
		backend:  backend,
		cache:    cache,
		pool:     shmpool.New(),
		manager:  transition.NewManager(),
		meta:     meta,
		monitors: make(map[OutputID]*monitor),
		byName:   make(map[string]OutputID),
		commands: make(chan RenderCommand, 1),
	}
}

// Commands returns the send side of the render-command channel, for the
// control server to push onto (spec.md §5: capacity 1, blocking both ends).
func (l *Loop) Commands() chan<- RenderCommand { return l.commands }

// Run connects to the compositor and pumps events until a fatal error or
// Close. Implements spec.md §4.5's startup and steady-state behavior.
func (l *Loop) Run() error {
	l.backend.OnOutputAdded(l.onOutputAdded)
	l.backend.OnOutputRemoved(l.onOutputRemoved)
	l.backend.OnConfigure(l.onConfigure)
	l.backend.OnFrame(l.onFrame)

	if err := l.backend.Connect(); err != nil {
		return fmt.Errorf("compositor connect: %w", err)
	}
	if err := l.backend.Run(); err != nil {
		return fmt.Errorf("compositor event loop: %w", err)
	}
	return nil
}

// Close tears down the compositor connection and releases the buffer pool.
func (l *Loop) Close() error {
	berr := l.backend.Close()
	perr := l.pool.Close()
	if berr != nil {
		return berr
	}
	return perr
}

func (l *Loop) onOutputAdded(id OutputID, name string, width, height int32) {
	if err := l.backend.CreateLayerSurface(id, width, height); err != nil {
		logerr(fmt.Sprintf("create layer surface for %s", name), err)
		return
	}
	l.monitors[id] = &monitor{id: id, name: name, width: width, height: height}
	l.byName[name] = id
	l.meta.add(wpdmwire.MonitorMeta{Name: name, Width: width, Height: height})
	logf("output added: %s (%dx%d)", name, width, height)
}

func (l *Loop) onOutputRemoved(id OutputID) {
	mon, ok := l.monitors[id]
	if !ok {
		return
	}
	delete(l.monitors, id)
	delete(l.byName, mon.name)
	l.meta.remove(mon.name)
	l.manager.PruneMonitor(mon.name)
	logf("output removed: %s", mon.name)
}

func (l *Loop) onConfigure(id OutputID) {
	mon, ok := l.monitors[id]
	if !ok {
		return
	}
	mon.configured = true
	l.render(mon)
}

func (l *Loop) onFrame(id OutputID) {
	mon, ok := l.monitors[id]
	if !ok {
		return
	}
	mon.framePending = false
	l.render(mon)
}

// render implements spec.md §4.5's render procedure, then blocks for the
// next command if the manager has gone idle.
func (l *Loop) render(mon *monitor) {
	if !mon.configured {
		return
	}

	buf, err := l.pool.CreateBuffer(int(mon.width), int(mon.height))
	if err != nil {
		// Per-frame recoverable error (spec.md §7 taxonomy item 3): skip
		// this frame but keep trying, since nothing else will re-arm it.
		logerr(fmt.Sprintf("allocate buffer for %s", mon.name), err)
		if rerr := l.backend.RequestFrame(mon.id); rerr == nil {
			mon.framePending = true
		}
		return
	}

	outcome := l.manager.Render(mon.name, buf.Canvas())
	switch outcome {
	case transition.Rendered:
		if err := l.backend.AttachAndCommit(mon.id, buf.Canvas(), buf.Handle()); err != nil {
			logerr(fmt.Sprintf("attach/commit for %s", mon.name), err)
			buf.Release()
			break
		}
		if err := l.backend.RequestFrame(mon.id); err != nil {
			logerr(fmt.Sprintf("request frame for %s", mon.name), err)
		} else {
			mon.framePending = true
		}
	case transition.Retired, transition.NoTransition:
		buf.Release()
	}

	if !l.manager.HasActive() {
		l.waitForCommands()
	}
}

// waitForCommands performs the blocking receive on the render-command
// channel (spec.md §4.5's wait_for_commands), then admits whatever
// transitions the command produces.
func (l *Loop) waitForCommands() {
	cmd := <-l.commands
	l.admit(cmd)
}

// admit partitions cmd's monitors by their current size, builds one
// Transition per distinct size, and requests a frame callback for any
// named monitor that does not already have one pending.
func (l *Loop) admit(cmd RenderCommand) {
	groups := make(map[[2]int32][]string)
	for _, name := range cmd.Monitors {
		w, h, ok := l.meta.sizeOf(name)
		if !ok {
			logf("render command names unknown monitor %q, skipping", name)
			continue
		}
		key := [2]int32{w, h}
		groups[key] = append(groups[key], name)
	}

	for size, names := range groups {
		l.admitSize(size[0], size[1], names, cmd.FromPath, cmd.ToPath)
	}
}

func (l *Loop) admitSize(width, height int32, names []string, fromPath, toPath string) {
	fromKey := pixcache.Key(fromPath, int(width), int(height))
	fromBuf, err := l.cache.Mmap(fromKey)
	if err != nil {
		logerr(fmt.Sprintf("mmap from-buffer for %dx%d", width, height), err)
		return
	}
	toKey := pixcache.Key(toPath, int(width), int(height))
	toBuf, err := l.cache.Mmap(toKey)
	if err != nil {
		logerr(fmt.Sprintf("mmap to-buffer for %dx%d", width, height), err)
		fromBuf.Close()
		return
	}

	kernel := transition.NewGrowCircle(int(width), int(height), transition.DefaultGrowCircleFrames)
	tr, err := transition.NewTransition(names, int(width), int(height), fromBuf.Bytes(), toBuf.Bytes(), kernel)
	if err != nil {
		logerr(fmt.Sprintf("admit transition for %dx%d", width, height), err)
		fromBuf.Close()
		toBuf.Close()
		return
	}
	tr.Closer = multiCloser{fromBuf, toBuf}
	l.manager.Admit(tr)

	for _, name := range names {
		id, ok := l.byName[name]
		if !ok {
			continue
		}
		mon := l.monitors[id]
		if mon.framePending {
			continue
		}
		if err := l.backend.RequestFrame(id); err != nil {
			logerr(fmt.Sprintf("request frame for %s", name), err)
			continue
		}
		mon.framePending = true
	}
}

// multiCloser closes every member, returning the first error encountered.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
