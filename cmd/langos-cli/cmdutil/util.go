// Package cmdutil holds state and helpers shared by every langos-cli
// subcommand: the global connection flags and the NM dial-and-handshake
// routine every subcommand starts with.
package cmdutil

import (
	"fmt"
	"net"

	"github.com/wolverine07/langos/internal/wire"
)

// Flags holds the persistent flags parsed from the root command, synced
// by its PersistentPreRun the way dfsctl's cmdutil.Flags is synced.
var Flags struct {
	NMAddr   string
	Username string
}

// DialNM connects to the Name Server and performs the INIT_CLIENT
// handshake, returning a ready-to-use connection.
func DialNM() (*wire.Conn, error) {
	nc, err := net.Dial("tcp", Flags.NMAddr)
	if err != nil {
		return nil, fmt.Errorf("connect to name server at %s: %w", Flags.NMAddr, err)
	}
	conn := wire.NewConn(nc)
	if err := conn.Sendf("INIT_CLIENT %s", Flags.Username); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send INIT_CLIENT: %w", err)
	}
	return conn, nil
}

// DialSS connects directly to a Storage Server address, as returned by a
// "202 OK <ip>:<port>" route response.
func DialSS(addr string) (*wire.Conn, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to storage server at %s: %w", addr, err)
	}
	return wire.NewConn(nc), nil
}

// ParseRoute extracts the "<ip>:<port>" address from a "202 OK <addr>"
// response line.
func ParseRoute(line string) (string, error) {
	_, rest := wire.SplitCommand(line)
	// rest is "OK <addr>"
	_, addr := wire.SplitCommand(rest)
	if addr == "" {
		return "", fmt.Errorf("malformed route response: %q", line)
	}
	return addr, nil
}
