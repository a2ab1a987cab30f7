// Package storageservertest provides a small in-process test harness that
// runs a real Storage Server behind a real net.Listener, for exercising
// WRITE-session races the way only concurrent, independently-scheduled
// real connections can (a net.Pipe-based test can't interleave two
// sessions the way the wire protocol's actual TCP goroutines do).
//
// Grounded on the teacher's pkg/metadata/storetest conformance-suite
// pattern: one shared setup helper (there, a StoreFactory; here,
// StartServer) plus a small client vocabulary every scenario test is
// built from (there, testCreateDirectory et al.; here, OpenWrite/Commit),
// generalized from "one store implementation, many conformance checks"
// to "one running server, many concurrent protocol clients."
package storageservertest

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/wolverine07/langos/internal/storageserver"
	"github.com/wolverine07/langos/internal/wire"
)

// StartServer starts a Storage Server listening on a real 127.0.0.1:0
// address and returns the dialable address plus the on-disk storage
// directory backing it (for scenario tests that need to seed a file's
// starting content directly). Torn down via t.Cleanup.
func StartServer(t *testing.T) (addr, dir string) {
	t.Helper()

	dir = t.TempDir()
	srv, err := storageserver.New(dir, nil)
	if err != nil {
		t.Fatalf("storageservertest: new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		t.Fatalf("storageservertest: listen: %v", err)
	}

	go func() {
		for {
			nc, acceptErr := ln.Accept()
			if acceptErr != nil {
				return
			}
			go srv.HandleConnection(ctx, wire.NewConn(nc), nil)
		}
	}()

	t.Cleanup(func() {
		cancel()
		ln.Close()
	})

	return ln.Addr().String(), dir
}

// Seed writes content to filename under dir, the way a file would already
// exist on disk from a prior WRITE session or SS-relayed CREATE.
func Seed(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
		t.Fatalf("storageservertest: seed %s: %v", filename, err)
	}
}

// Dial connects to a running Storage Server at addr.
func Dial(t *testing.T, addr string) *wire.Conn {
	t.Helper()
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("storageservertest: dial %s: %v", addr, err)
	}
	return wire.NewConn(nc)
}

// OpenWrite dials addr and opens a WRITE session against filename at
// sentNum, returning the live connection and the server's ACK_WRITE (or
// error) response. The session's lock is held from this call until
// Commit closes the connection.
func OpenWrite(t *testing.T, addr, filename string, sentNum int) (conn *wire.Conn, ack string) {
	t.Helper()
	conn = Dial(t, addr)
	if err := conn.Sendf("WRITE %s %d", filename, sentNum); err != nil {
		t.Fatalf("storageservertest: send WRITE: %v", err)
	}
	ack, err := conn.Recv()
	if err != nil {
		t.Fatalf("storageservertest: recv ack: %v", err)
	}
	return conn, ack
}

// Commit sends updates (each already formatted "<word_idx> <content>")
// followed by ETIRW, returning the commit response line. Closes conn.
func Commit(t *testing.T, conn *wire.Conn, updates ...string) string {
	t.Helper()
	defer conn.Close()
	for _, u := range updates {
		if err := conn.Send(u); err != nil {
			t.Fatalf("storageservertest: send update: %v", err)
		}
	}
	if err := conn.Send(wire.ETIRW); err != nil {
		t.Fatalf("storageservertest: send ETIRW: %v", err)
	}
	final, err := conn.Recv()
	if err != nil {
		t.Fatalf("storageservertest: recv final: %v", err)
	}
	return final
}

// WriteSession opens a WRITE session and immediately commits updates,
// for scenarios that don't need to hold the session open.
func WriteSession(t *testing.T, addr, filename string, sentNum int, updates ...string) string {
	t.Helper()
	conn, ack := OpenWrite(t, addr, filename, sentNum)
	if code, ok := wire.ParseStatus(ack); ok && wire.IsError(code) {
		conn.Close()
		return ack
	}
	return Commit(t, conn, updates...)
}

// Read dials addr and issues a READ, returning the full raw response.
func Read(t *testing.T, addr, filename string) string {
	t.Helper()
	conn := Dial(t, addr)
	defer conn.Close()
	if err := conn.Sendf("READ %s", filename); err != nil {
		t.Fatalf("storageservertest: send READ: %v", err)
	}
	buf := make([]byte, wire.MaxMessageSize)
	n, err := conn.Raw().Read(buf)
	if err != nil {
		t.Fatalf("storageservertest: read response: %v", err)
	}
	return string(buf[:n])
}
