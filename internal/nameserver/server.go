// Package nameserver implements the Name Server: connection dispatch for
// both clients and Storage Servers, the file metadata table, access
// control, round-robin CREATE placement, and EXEC subprocess streaming.
package nameserver

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/metrics"
	"github.com/wolverine07/langos/internal/nameserver/infocache"
	"github.com/wolverine07/langos/internal/nameserver/persistence"
	"github.com/wolverine07/langos/internal/wire"
)

// initTimeout bounds how long a freshly accepted connection has to send its
// INIT_CLIENT/INIT_SS handshake before the NM gives up on it. Grounded on
// nm_handle_new_connection's 5-second SO_RCVTIMEO.
const initTimeout = 5 * time.Second

// Server holds the Name Server's shared state: the persistent file/user
// store, the live Storage Server registry, and the INFO response cache.
type Server struct {
	Store     *persistence.Store
	ss        *ssRegistry
	infoCache *infocache.Cache
	metrics   *metrics.NameServerMetrics
}

// New creates a Server backed by store. infoCacheSize bounds the number of
// cached INFO response bodies.
func New(store *persistence.Store, infoCacheSize int, m *metrics.NameServerMetrics) *Server {
	return &Server{
		Store:     store,
		ss:        newSSRegistry(m),
		infoCache: infocache.New(infoCacheSize),
		metrics:   m,
	}
}

// HandleConnection is the top-level entry point for every accepted
// connection: it reads the handshake message under initTimeout and routes
// to the client or Storage Server connection loop. Grounded on
// nm_handle_new_connection's peek-the-first-message dispatch, simplified
// to a normal (consuming) Recv since wire.Conn's framing already gives us
// one message per call with no need to MSG_PEEK.
func (s *Server) HandleConnection(ctx context.Context, conn *wire.Conn, remoteIP string) {
	conn.SetDeadline(time.Now().Add(initTimeout))
	msg, err := conn.Recv()
	if err != nil {
		logger.WarnCtx(ctx, "new connection failed to send INIT or timed out", logger.Err(err))
		conn.Close()
		return
	}
	conn.SetDeadline(time.Time{})

	switch {
	case strings.HasPrefix(msg, "INIT_CLIENT"):
		s.handleClientInit(ctx, conn, msg)
	case strings.HasPrefix(msg, "INIT_SS"):
		s.handleSSInit(ctx, conn, msg, remoteIP)
	default:
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Invalid INIT message."))
		conn.Close()
	}
}

// handleClientInit validates INIT_CLIENT and enters the per-connection
// command loop. Grounded on nm_handle_client_request.
func (s *Server) handleClientInit(ctx context.Context, conn *wire.Conn, initMsg string) {
	fields := wire.Fields(initMsg)
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Invalid INIT_CLIENT message."))
		conn.Close()
		return
	}
	username := fields[1]

	ctx = logger.WithContext(ctx, logger.NewLogContext("nm", conn.RemoteAddr().String()).WithUsername(username))
	if err := s.Store.RegisterUser(username); err != nil {
		logger.WarnCtx(ctx, "failed to register user", logger.Err(err))
	}
	logger.InfoCtx(ctx, "client connected")
	defer func() {
		logger.InfoCtx(ctx, "client disconnected")
		conn.Close()
	}()

	for {
		msg, err := conn.Recv()
		if err != nil {
			return
		}
		fields := wire.Fields(msg)
		if len(fields) == 0 {
			continue
		}
		s.dispatchClientCommand(ctx, conn, username, fields)
	}
}

// dispatchClientCommand routes one client command. Grounded on
// nm_handle_client_request's command-loop switch.
func (s *Server) dispatchClientCommand(ctx context.Context, conn *wire.Conn, username string, fields []string) {
	cmd := fields[0]
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithCommand(cmd))
	logger.DebugCtx(ctx, "received client command", "args", fields)

	status := 200
	switch cmd {
	case "VIEW":
		s.handleView(ctx, conn, username, fields)
	case "CREATE":
		status = s.handleCreate(ctx, conn, username, fields)
	case "DELETE":
		status = s.handleDelete(ctx, conn, username, fields)
	case "READ", "WRITE", "STREAM", "UNDO":
		status = s.handleReadWriteStream(ctx, conn, username, fields)
	case "INFO":
		status = s.handleInfo(ctx, conn, username, fields)
	case "ADDACCESS", "REMACCESS":
		status = s.handleAccess(ctx, conn, username, fields)
	case "EXEC":
		status = s.handleExec(ctx, conn, username, fields)
	case "LIST":
		s.handleList(ctx, conn)
	default:
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Unknown command."))
		status = wire.StatusBadRequest
	}
	if s.metrics != nil {
		s.metrics.Command(cmd, status)
	}
}

// handleSSInit validates INIT_SS, reconciles reported files against the
// metadata table, registers the SS as live, and enters its control-channel
// listen loop. Grounded on nm_handle_ss_init.
func (s *Server) handleSSInit(ctx context.Context, conn *wire.Conn, initMsg, remoteIP string) {
	fields := wire.Fields(initMsg)
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Invalid INIT_SS message."))
		conn.Close()
		return
	}

	clientPort, err := strconv.Atoi(fields[1])
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Invalid INIT_SS message."))
		conn.Close()
		return
	}

	var advertised []string
	if len(fields) >= 3 {
		advertised = wire.ParseAdvertisedFiles(fields[2])
	}

	addr := remoteIP + ":" + strconv.Itoa(clientPort)
	ctx = logger.WithContext(ctx, logger.NewLogContext("nm", conn.RemoteAddr().String()))
	logger.InfoCtx(ctx, "storage server connected", "ss_addr", addr, "advertised_files", len(advertised))

	orphans, err := s.Store.RetargetFilesOnSS(addr, advertised)
	if err != nil {
		logger.WarnCtx(ctx, "failed to reconcile advertised files", logger.Err(err))
	}
	for _, orphan := range orphans {
		logger.WarnCtx(ctx, "storage server reported orphan file, ignoring", logger.Filename(orphan), "ss_addr", addr)
	}

	s.ss.Add(&LiveSS{Addr: addr, Conn: conn, Files: advertised})
	logger.InfoCtx(ctx, "storage server registered", "ss_addr", addr, "live_count", s.ss.Count())

	s.listenSS(ctx, conn, addr)
}

// listenSS services one Storage Server's control channel until it
// disconnects, applying async INFO_UPDATE messages; any other message on
// the channel (such as ACK_CREATE/ACK_DELETE) is read and ignored.
// Grounded on nm_handle_ss_messages.
func (s *Server) listenSS(ctx context.Context, conn *wire.Conn, addr string) {
	defer func() {
		s.ss.Remove(addr)
		if err := s.Store.MarkOffline(addr); err != nil {
			logger.WarnCtx(ctx, "failed to mark files offline", logger.Err(err))
		}
		logger.WarnCtx(ctx, "storage server disconnected, files now offline", "ss_addr", addr, "live_count", s.ss.Count())
		conn.Close()
	}()

	for {
		msg, err := conn.Recv()
		if err != nil {
			return
		}
		fields := wire.Fields(msg)
		if len(fields) < 2 {
			continue
		}

		if fields[0] == "INFO_UPDATE" && len(fields) == 5 {
			s.handleInfoUpdate(ctx, fields)
		}
	}
}

// handleInfoUpdate applies an async stats refresh from an SS. Grounded on
// nm_handle_ss_messages's INFO_UPDATE branch.
func (s *Server) handleInfoUpdate(ctx context.Context, fields []string) {
	filename := fields[1]
	size, err1 := strconv.ParseInt(fields[2], 10, 64)
	words, err2 := strconv.Atoi(fields[3])
	chars, err3 := strconv.Atoi(fields[4])
	if err1 != nil || err2 != nil || err3 != nil {
		logger.WarnCtx(ctx, "malformed INFO_UPDATE", logger.Filename(filename))
		return
	}

	err := s.Store.UpdateFile(filename, func(m *persistence.FileMeta) error {
		m.Size = size
		m.Words = words
		m.Chars = chars
		m.LastModified = time.Now()
		return nil
	})
	if err != nil {
		logger.WarnCtx(ctx, "failed to apply INFO_UPDATE", logger.Filename(filename), logger.Err(err))
		return
	}
	s.infoCache.Invalidate(filename)
}
