package storageserver

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/tokenizer"
	"github.com/wolverine07/langos/internal/wire"
)

// NotifyFunc delivers an async INFO_UPDATE to the Name Server after a
// commit or undo changes a file's stats. It is set once the server's NM
// link is established (see nm_link.go); nil until then, in which case the
// notification is simply skipped and logged — matching spec.md §7's
// "logged only" propagation policy for failed INFO_UPDATE delivery.
type NotifyFunc func(filename string, size int64, words, chars int)

// HandleConnection dispatches one client connection's command. Each
// connection issues exactly one top-level command (READ, STREAM, WRITE,
// UNDO, GET_CONTENT); WRITE then holds the connection open for its
// buffered-update phase. Grounded on ss_handle_client_connection.
func (s *Server) HandleConnection(ctx context.Context, conn *wire.Conn, notify NotifyFunc) {
	defer conn.Close()

	msg, err := conn.Recv()
	if err != nil {
		logger.DebugCtx(ctx, "client sent no request or disconnected")
		return
	}

	fields := wire.Fields(msg)
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Invalid command."))
		return
	}

	cmd, filename := fields[0], fields[1]
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithCommand(cmd).WithFilename(filename))
	logger.DebugCtx(ctx, "dispatching command", "raw", msg)

	switch cmd {
	case "READ", "GET_CONTENT":
		s.handleRead(ctx, conn, filename)
	case "STREAM":
		s.handleStream(ctx, conn, filename)
	case "WRITE":
		if len(fields) < 3 {
			conn.Send(wire.Errorf(wire.StatusBadRequest, "Usage: WRITE <file> <sent_num>"))
			return
		}
		sentNum, err := strconv.Atoi(fields[2])
		if err != nil {
			conn.Send(wire.Errorf(wire.StatusBadRequest, "Usage: WRITE <file> <sent_num>"))
			return
		}
		s.handleWrite(ctx, conn, filename, sentNum, notify)
	case "UNDO":
		s.handleUndo(ctx, conn, filename, notify)
	default:
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Unknown command for SS."))
	}
}

// handleRead streams the raw file bytes to the client. Grounded on
// handle_ss_read; also used for NM's GET_CONTENT (EXEC fetches a script
// this way).
func (s *Server) handleRead(ctx context.Context, conn *wire.Conn, filename string) {
	content, err := os.ReadFile(s.filePath(filename))
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "File not found on SS."))
		return
	}
	if _, err := conn.Raw().Write(content); err != nil {
		logger.WarnCtx(ctx, "read stream failed", logger.Err(err))
	}
}

// handleStream sends the file token by token (words and delimiters each as
// their own token), pacing 100ms between tokens. Grounded on
// handle_ss_stream.
func (s *Server) handleStream(ctx context.Context, conn *wire.Conn, filename string) {
	content, err := os.ReadFile(s.filePath(filename))
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "File not found on SS."))
		return
	}

	for _, tok := range tokenizer.SplitWords(string(content)) {
		if err := conn.Send(tok); err != nil {
			logger.WarnCtx(ctx, "stream send failed", logger.Err(err))
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// handleUndo restores the file from its single-shot backup. Grounded on
// handle_ss_undo.
func (s *Server) handleUndo(ctx context.Context, conn *wire.Conn, filename string, notify NotifyFunc) {
	lock := s.fileCommitLock(filename)
	lock.Lock()
	defer lock.Unlock()

	if err := performUndo(s.filePath(filename), s.undoPath(filename)); err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "No undo history."))
		return
	}

	conn.Send(wire.OKText("Undo Successful!"))
	if s.metrics != nil {
		s.metrics.Undo()
	}
	logger.InfoCtx(ctx, "undo successful")

	content, err := os.ReadFile(s.filePath(filename))
	if err == nil && notify != nil {
		size, words, chars := tokenizer.Stats(string(content))
		notify(filename, size, words, chars)
	}
}
