// Command wpdmctl is the control CLI for the wallpaper daemon: it
// preprocesses an image for every distinct monitor resolution the daemon
// currently reports, writes the results into the shared pixel cache, and
// asks the daemon to transition to the new wallpaper.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"github.com/BrynGhiffar/wpdm/internal/pixcache"
	"github.com/BrynGhiffar/wpdm/internal/wpdmstate"
	"github.com/BrynGhiffar/wpdm/internal/wpdmwire"
)

const queryTimeout = 2 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	imagePath := flag.String("image-path", "", "path to the image to set as wallpaper (required)")
	flag.Parse()

	useColor := term.IsTerminal(int(os.Stderr.Fd()))

	if *imagePath == "" {
		fail(useColor, "missing required flag -image-path")
		return 1
	}

	srcPath, err := canonicalPath(*imagePath)
	if err != nil {
		fail(useColor, "resolve image path: %v", err)
		return 1
	}

	stateDir, err := wpdmstate.Ensure()
	if err != nil {
		fail(useColor, "resolve state directory: %v", err)
		return 1
	}

	client, err := dialDaemon(wpdmstate.SocketPath(stateDir))
	if err != nil {
		fail(useColor, "%v", err)
		return 1
	}
	defer client.Close()

	monitors, err := client.queryMonitors(queryTimeout)
	if err != nil {
		fail(useColor, "query monitors: %v", err)
		return 1
	}
	if len(monitors) == 0 {
		fail(useColor, "daemon reports no monitors")
		return 1
	}

	sizes, namesBySize := groupBySize(monitors)

	cache, err := pixcache.New(stateDir)
	if err != nil {
		fail(useColor, "open pixel cache: %v", err)
		return 1
	}

	buffers, err := preprocess(srcPath, sizes)
	if err != nil {
		fail(useColor, "preprocess image: %v", err)
		return 1
	}

	for _, size := range sizes {
		key := pixcache.Key(srcPath, size.Width, size.Height)
		if err := cache.Write(key, buffers[size]); err != nil {
			fail(useColor, "write cache entry for %dx%d: %v", size.Width, size.Height, err)
			return 1
		}
	}

	allNames := make([]string, 0, len(monitors))
	for _, size := range sizes {
		allNames = append(allNames, namesBySize[size]...)
	}

	if err := client.setWallpaper(srcPath, allNames); err != nil {
		fail(useColor, "send wallpaper command: %v", err)
		return 1
	}

	return 0
}

// canonicalPath resolves path to an absolute, symlink-free form so it is a
// stable cache key. The result is also the path sent to the daemon, which
// derives its own cache keys from that string as received.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// groupBySize partitions monitors by distinct (width, height), returning
// the set of sizes to preprocess for and which monitor names need each one.
func groupBySize(monitors []wpdmwire.MonitorMeta) ([]imageSize, map[imageSize][]string) {
	namesBySize := make(map[imageSize][]string)
	var sizes []imageSize
	for _, m := range monitors {
		size := imageSize{Width: int(m.Width), Height: int(m.Height)}
		if _, ok := namesBySize[size]; !ok {
			sizes = append(sizes, size)
		}
		namesBySize[size] = append(namesBySize[size], m.Name)
	}
	return sizes, namesBySize
}

func fail(useColor bool, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if useColor {
		fmt.Fprintf(os.Stderr, "\x1b[31mwpdmctl: %s\x1b[0m\n", msg)
		return
	}
	fmt.Fprintf(os.Stderr, "wpdmctl: %s\n", msg)
}
