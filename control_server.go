package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/BrynGhiffar/wpdm/internal/wpdmstate"
	"github.com/BrynGhiffar/wpdm/internal/wpdmwire"
)

// ControlServer is the control thread (C6): it owns the control-plane
// listener endpoint, answers QueryMonitor against the shared MonitorMeta
// list, and turns SetWallpaper requests into RenderCommands pushed onto a
// bounded channel consumed by the compositor loop.
//
// Grounded on runtime_ipc.go's IPCServer: a Unix socket under a resolved
// directory, stale-socket removal when the first bind fails, and a done channel signaling
// the accept/receive loop has exited. Adapted from a stream JSON
// request/response protocol to a datagram, wire-tagged one (SPEC_FULL.md
// §4.6), since this transport has no notion of per-connection accept.
type ControlServer struct {
	conn     *net.UnixConn
	sockPath string
	stateDir string
	meta     *monitorMetaSet
	commands chan<- RenderCommand

	stop chan struct{}
	done chan struct{}
}

// NewControlServer binds the control socket at sockPath. If that bind fails,
// it removes whatever file is at sockPath and binds once more; it does not
// check whether another instance is still listening there.
func NewControlServer(sockPath, stateDir string, meta *monitorMetaSet, commands chan<- RenderCommand) (*ControlServer, error) {
	addr := &net.UnixAddr{Name: sockPath, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		os.Remove(sockPath)
		conn, err = net.ListenUnixgram("unixgram", addr)
		if err != nil {
			return nil, fmt.Errorf("control socket bind failed: %w", err)
		}
	}
	return &ControlServer{
		conn:     conn,
		sockPath: sockPath,
		stateDir: stateDir,
		meta:     meta,
		commands: commands,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Serve receives and dispatches control messages until Stop is called.
func (s *ControlServer) Serve() error {
	defer close(s.done)
	buf := make([]byte, wpdmwire.MaxMessageSize)
	for {
		n, addr, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("control socket read: %w", err)
		}

		msg, err := wpdmwire.Decode(buf[:n])
		if err != nil {
			logerr("decode control message", err)
			continue
		}
		s.handle(msg, addr)
	}
}

// Stop closes the listener, waits for Serve to exit, and removes the
// socket file. Later calls after the first return immediately.
func (s *ControlServer) Stop() {
	select {
	case <-s.stop:
		return
	default:
	}
	close(s.stop)
	s.conn.Close()
	<-s.done
	os.Remove(s.sockPath)
}

func (s *ControlServer) handle(msg wpdmwire.Message, addr *net.UnixAddr) {
	switch {
	case msg.IsQueryMonitor():
		s.replyMonitors(addr)
	case msg.IsSetWallpaper():
		s.handleSetWallpaper(msg)
	default:
		// Any other message variant is ignored (spec.md §4.6).
	}
}

func (s *ControlServer) replyMonitors(addr *net.UnixAddr) {
	if addr == nil {
		logf("QueryMonitor received with no return address, dropping")
		return
	}
	resp := wpdmwire.NewMonitors(s.meta.snapshot())
	data, err := wpdmwire.Encode(resp)
	if err != nil {
		logerr("encode Monitors response", err)
		return
	}
	if _, err := s.conn.WriteToUnix(data, addr); err != nil {
		logerr("reply to QueryMonitor", err)
	}
}

func (s *ControlServer) handleSetWallpaper(msg wpdmwire.Message) {
	from, err := wpdmstate.ReadCurrentWallpaper(s.stateDir)
	if err != nil {
		logerr("read current wallpaper", err)
		return
	}

	cmd := RenderCommand{Monitors: msg.Monitors, FromPath: from, ToPath: msg.Path}
	if !s.send(cmd) {
		return
	}

	if err := wpdmstate.WriteCurrentWallpaper(s.stateDir, msg.Path); err != nil {
		// In-memory state (what was actually sent to the render thread) is
		// authoritative for the next transition; persistence failure only
		// affects what gets restored on the next restart.
		logerr("persist current wallpaper", err)
	}
}

// send performs the blocking channel send from spec.md §4.6/§5, aborting if
// the server is stopping (spec.md §7: "on channel-send failure, log and
// abandon the command; the controller may retry").
func (s *ControlServer) send(cmd RenderCommand) bool {
	select {
	case s.commands <- cmd:
		return true
	case <-s.stop:
		logf("control server stopping, abandoning render command")
		return false
	}
}

// SynthesizeStartupWallpaper implements spec.md §4.6's startup behavior:
// once the monitor list becomes non-empty, replay the last persisted
// wallpaper onto every known output so the daemon shows it immediately on
// (re)launch.
func (s *ControlServer) SynthesizeStartupWallpaper() {
	for s.meta.isEmpty() {
		select {
		case <-s.stop:
			return
		case <-time.After(time.Second):
		}
	}

	path, err := wpdmstate.ReadCurrentWallpaper(s.stateDir)
	if err != nil {
		logerr("read current wallpaper at startup", err)
		return
	}
	if path == "" {
		logf("no prior wallpaper recorded, skipping startup synthesis")
		return
	}

	names := monitorNames(s.meta.snapshot())
	s.send(RenderCommand{Monitors: names, FromPath: path, ToPath: path})
}

func monitorNames(metas []wpdmwire.MonitorMeta) []string {
	names := make([]string, len(metas))
	for i, m := range metas {
		names[i] = m.Name
	}
	return names
}
