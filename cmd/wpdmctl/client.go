package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/BrynGhiffar/wpdm/internal/wpdmwire"
)

// daemonClient is a short-lived connection to the daemon's control socket,
// one per invocation of the CLI.
type daemonClient struct {
	conn       *net.UnixConn
	clientSock string
}

func dialDaemon(serverSock string) (*daemonClient, error) {
	clientSock := filepath.Join(os.TempDir(), fmt.Sprintf("wpdmctl-%d.sock", os.Getpid()))
	laddr := &net.UnixAddr{Name: clientSock, Net: "unixgram"}
	raddr := &net.UnixAddr{Name: serverSock, Net: "unixgram"}

	conn, err := net.DialUnix("unixgram", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", serverSock, err)
	}
	return &daemonClient{conn: conn, clientSock: clientSock}, nil
}

func (c *daemonClient) Close() {
	c.conn.Close()
	os.Remove(c.clientSock)
}

func (c *daemonClient) send(msg wpdmwire.Message) error {
	data, err := wpdmwire.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// queryMonitors asks the daemon for its current monitor inventory.
func (c *daemonClient) queryMonitors(timeout time.Duration) ([]wpdmwire.MonitorMeta, error) {
	if err := c.send(wpdmwire.NewQueryMonitor()); err != nil {
		return nil, err
	}
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, wpdmwire.MaxMessageSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read monitor reply: %w", err)
	}
	resp, err := wpdmwire.Decode(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("decode monitor reply: %w", err)
	}
	if !resp.IsMonitors() {
		return nil, fmt.Errorf("unexpected reply variant %d to QueryMonitor", resp.Tag)
	}
	return resp.MonitorList, nil
}

// setWallpaper asks the daemon to transition the named monitors to path.
func (c *daemonClient) setWallpaper(path string, monitors []string) error {
	return c.send(wpdmwire.NewSetWallpaper(path, monitors))
}
