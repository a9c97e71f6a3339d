//go:build !windows

package bridgeproxy

import (
	"net"
	"os"
	"path/filepath"
)

func defaultSocketPath() string {
	return filepath.Join(os.TempDir(), SocketName)
}

// Listen opens the transport endpoint. An empty path means the default
// unix socket under the system temporary directory.
func Listen(path string) (net.Listener, error) {
	if path == "" {
		path = defaultSocketPath()
	}
	// A leftover socket file from a previous run would fail the bind.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return net.Listen("unix", path)
}

// Dial connects to a serving endpoint.
func Dial(path string) (net.Conn, error) {
	if path == "" {
		path = defaultSocketPath()
	}
	return net.Dial("unix", path)
}
