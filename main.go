package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/BrynGhiffar/wpdm/internal/pixcache"
	"github.com/BrynGhiffar/wpdm/internal/wpdmstate"
)

func main() {
	if err := run(); err != nil {
		logerr("fatal", err)
		os.Exit(1)
	}
}

// run wires the compositor loop (C5) and control server (C6) together and
// runs both concurrency domains under one cancellation scope, per
// SPEC_FULL.md §5: the first fatal error from either tears down both.
func run() error {
	dir, err := wpdmstate.Ensure()
	if err != nil {
		return fmt.Errorf("state directory: %w", err)
	}

	cache, err := pixcache.New(dir)
	if err != nil {
		return fmt.Errorf("pixel cache: %w", err)
	}

	backend, err := newDefaultBackend()
	if err != nil {
		return fmt.Errorf("compositor backend: %w", err)
	}

	meta := &monitorMetaSet{}
	loop := NewLoop(backend, cache, meta)
	defer loop.Close()

	server, err := NewControlServer(wpdmstate.SocketPath(dir), dir, meta, loop.Commands())
	if err != nil {
		return fmt.Errorf("control server: %w", err)
	}
	defer server.Stop()

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return loop.Run()
	})
	g.Go(func() error {
		return server.Serve()
	})
	g.Go(func() error {
		server.SynthesizeStartupWallpaper()
		return nil
	})
	g.Go(func() error {
		// Whichever of the two domains fails first cancels ctx; unblock
		// the other so Wait returns instead of hanging on its own
		// blocking receive/event loop.
		<-ctx.Done()
		loop.Close()
		server.Stop()
		return nil
	})

	return g.Wait()
}
