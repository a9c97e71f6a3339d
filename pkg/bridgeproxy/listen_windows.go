package bridgeproxy

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// Listen opens the transport endpoint. An empty path means the default
// named pipe.
func Listen(path string) (net.Listener, error) {
	if path == "" {
		path = NamedPipePath
	}
	return winio.ListenPipe(path, nil)
}

// Dial connects to a serving endpoint.
func Dial(path string) (net.Conn, error) {
	if path == "" {
		path = NamedPipePath
	}
	return winio.DialPipe(path, nil)
}
