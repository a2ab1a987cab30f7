package nameserver

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolverine07/langos/internal/nameserver/persistence"
	"github.com/wolverine07/langos/internal/wire"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := persistence.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, 8, nil)
}

// pipeConn wires a net.Pipe() pair into two *wire.Conn, one playing the
// client, one playing the component under test's peer.
func pipeConn() (*wire.Conn, *wire.Conn) {
	a, b := net.Pipe()
	return wire.NewConn(a), wire.NewConn(b)
}

// serveClient runs HandleConnection against one pipe end in a goroutine and
// returns the client-facing wire.Conn to drive the session from.
func serveClient(s *Server, remoteIP string) (*wire.Conn, <-chan struct{}) {
	client, server := pipeConn()
	done := make(chan struct{})
	go func() {
		s.HandleConnection(context.Background(), server, remoteIP)
		close(done)
	}()
	return client, done
}

func initClient(t *testing.T, s *Server, username string) *wire.Conn {
	t.Helper()
	conn, _ := serveClient(s, "127.0.0.1:9000")
	require.NoError(t, conn.Send("INIT_CLIENT "+username))
	return conn
}

func TestInitClientRegistersUser(t *testing.T) {
	s := newTestServer(t)
	_ = initClient(t, s, "alice")

	users, err := s.Store.ListUsers()
	require.NoError(t, err)
	assert.Contains(t, users, "alice")
}

func TestViewWithNoFilesReportsEmpty(t *testing.T) {
	s := newTestServer(t)
	conn := initClient(t, s, "alice")

	require.NoError(t, conn.Send("VIEW"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, "(No files to display)", resp)
}

func TestCreateWithoutLiveStorageServerFails(t *testing.T) {
	s := newTestServer(t)
	conn := initClient(t, s, "alice")

	require.NoError(t, conn.Send("CREATE story.txt"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusUnavailable, "No storage servers available."), resp)
}

func TestCreateThenDuplicateCreateConflicts(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Store.CreateFile(&persistence.FileMeta{
		Filename: "story.txt",
		Owner:    "alice",
		SSAddr:   "127.0.0.1:7000",
		Access:   []persistence.AccessGrant{{User: "alice", Perm: persistence.PermWrite}},
	}))

	conn := initClient(t, s, "alice")
	require.NoError(t, conn.Send("CREATE story.txt"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusConflict, "File already exists."), resp)
}

func TestDeleteByNonOwnerIsRejected(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Store.CreateFile(&persistence.FileMeta{
		Filename: "story.txt",
		Owner:    "alice",
		SSAddr:   "127.0.0.1:7000",
		Access:   []persistence.AccessGrant{{User: "alice", Perm: persistence.PermWrite}},
	}))

	conn := initClient(t, s, "bob")
	require.NoError(t, conn.Send("DELETE story.txt"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusUnauthorized, "Only the owner can delete a file."), resp)
}

func TestReadOnUnknownFileIsNotFound(t *testing.T) {
	s := newTestServer(t)
	conn := initClient(t, s, "alice")

	require.NoError(t, conn.Send("READ story.txt"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusNotFound, "File not found."), resp)
}

func TestReadWithoutGrantedAccessIsDenied(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Store.CreateFile(&persistence.FileMeta{
		Filename: "story.txt",
		Owner:    "alice",
		SSAddr:   "127.0.0.1:7000",
		Access:   []persistence.AccessGrant{{User: "alice", Perm: persistence.PermWrite}},
	}))

	conn := initClient(t, s, "bob")
	require.NoError(t, conn.Send("READ story.txt"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusUnauthorized, "R access denied."), resp)
}

func TestReadWithOfflineStorageServerIsUnavailable(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Store.CreateFile(&persistence.FileMeta{
		Filename: "story.txt",
		Owner:    "alice",
		SSAddr:   "127.0.0.1:7000",
		Offline:  true,
		Access:   []persistence.AccessGrant{{User: "alice", Perm: persistence.PermWrite}},
	}))

	conn := initClient(t, s, "alice")
	require.NoError(t, conn.Send("READ story.txt"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusUnavailable, "Storage server for this file is offline."), resp)
}

func TestAddAccessThenReadRoutesToStorageServer(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Store.CreateFile(&persistence.FileMeta{
		Filename: "story.txt",
		Owner:    "alice",
		SSAddr:   "127.0.0.1:7000",
		Access:   []persistence.AccessGrant{{User: "alice", Perm: persistence.PermWrite}},
	}))
	// Fake a live SS so READ can route to it.
	ssConn, _ := pipeConn()
	s.ss.Add(&LiveSS{Addr: "127.0.0.1:7000", Conn: ssConn})

	owner := initClient(t, s, "alice")
	require.NoError(t, owner.Send("ADDACCESS -R story.txt bob"))
	resp, err := owner.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.OKText("Access granted."), resp)

	bobConn := initClient(t, s, "bob")
	require.NoError(t, bobConn.Send("READ story.txt"))
	resp, err = bobConn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Route("127.0.0.1:7000"), resp)

	require.NoError(t, bobConn.Send("WRITE story.txt"))
	resp, err = bobConn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusUnauthorized, "W access denied."), resp)
}

func TestRemAccessRevokesGrant(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Store.CreateFile(&persistence.FileMeta{
		Filename: "story.txt",
		Owner:    "alice",
		SSAddr:   "127.0.0.1:7000",
		Access:   []persistence.AccessGrant{{User: "alice", Perm: persistence.PermWrite}, {User: "bob", Perm: persistence.PermRead}},
	}))

	owner := initClient(t, s, "alice")
	require.NoError(t, owner.Send("REMACCESS story.txt bob"))
	resp, err := owner.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.OKText("Access removed."), resp)

	bobConn := initClient(t, s, "bob")
	require.NoError(t, bobConn.Send("READ story.txt"))
	resp, err = bobConn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusUnauthorized, "R access denied."), resp)
}

func TestInfoIsServedFromCacheOnSecondRequest(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Store.CreateFile(&persistence.FileMeta{
		Filename: "story.txt",
		Owner:    "alice",
		SSAddr:   "127.0.0.1:7000",
		Access:   []persistence.AccessGrant{{User: "alice", Perm: persistence.PermWrite}},
	}))

	conn := initClient(t, s, "alice")
	require.NoError(t, conn.Send("INFO story.txt"))
	first, err := conn.Recv()
	require.NoError(t, err)
	assert.Contains(t, first, "story.txt")

	_, ok := s.infoCache.Get("story.txt")
	assert.True(t, ok, "INFO response should have been cached")

	require.NoError(t, conn.Send("INFO story.txt"))
	second, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListReturnsRegisteredUsers(t *testing.T) {
	s := newTestServer(t)
	_ = initClient(t, s, "alice")
	_ = initClient(t, s, "bob")

	conn := initClient(t, s, "alice")
	require.NoError(t, conn.Send("LIST"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Contains(t, resp, "--- Registered Users ---")
	assert.Contains(t, resp, "alice")
	assert.Contains(t, resp, "bob")
}

func TestUnknownCommandIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	conn := initClient(t, s, "alice")

	require.NoError(t, conn.Send("FROBNICATE story.txt"))
	resp, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, wire.Errorf(wire.StatusBadRequest, "Unknown command."), resp)
}
