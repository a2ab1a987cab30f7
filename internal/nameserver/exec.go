package nameserver

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/nameserver/persistence"
	"github.com/wolverine07/langos/internal/wire"
)

// fetchDialTimeout bounds the NM's client-role connection to a Storage
// Server when fetching a script's content for EXEC.
const fetchDialTimeout = 5 * time.Second

// handleExec fetches a file's content from its Storage Server, writes it to
// a temporary script, runs it, and streams its merged stdout/stderr back to
// the client one line at a time. Grounded on handle_exec.
func (s *Server) handleExec(ctx context.Context, conn *wire.Conn, username string, fields []string) int {
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Usage: EXEC <filename>"))
		return wire.StatusBadRequest
	}
	filename := fields[1]

	meta, err := s.Store.GetFile(filename)
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "File not found."))
		return wire.StatusNotFound
	}
	if !checkAccess(meta, username, persistence.PermRead) {
		conn.Send(wire.Errorf(wire.StatusUnauthorized, "Read access denied."))
		return wire.StatusUnauthorized
	}

	if _, ok := s.ss.Get(meta.SSAddr); !ok {
		conn.Send(wire.Errorf(wire.StatusUnavailable, "Storage server for this file is offline."))
		return wire.StatusUnavailable
	}

	content, err := s.fetchScriptContent(meta.SSAddr, filename)
	if err != nil {
		logger.WarnCtx(ctx, "failed to fetch script content for EXEC", logger.Filename(filename), logger.Err(err))
		conn.Send(wire.Errorf(wire.StatusInternal, "Failed to read script content from storage server."))
		return wire.StatusInternal
	}

	logger.InfoCtx(ctx, "executing file", logger.Filename(filename), "username", username)

	scriptPath, err := writeTempScript(content)
	if err != nil {
		logger.WarnCtx(ctx, "failed to create temp script", logger.Err(err))
		conn.Send(wire.Errorf(wire.StatusInternal, "Could not create temp script."))
		return wire.StatusInternal
	}
	defer os.Remove(scriptPath)

	if err := runAndStream(ctx, conn, scriptPath); err != nil {
		logger.WarnCtx(ctx, "failed to execute script", logger.Filename(filename), logger.Err(err))
		conn.Send(wire.Errorf(wire.StatusInternal, "Failed to execute script."))
		return wire.StatusInternal
	}

	conn.Send(wire.Done("Execution finished."))
	return wire.StatusDone
}

// fetchScriptContent opens a fresh client-role connection to the owning
// Storage Server and issues GET_CONTENT, mirroring how a real client would
// fetch the file. Grounded on handle_exec's "connect to the SS's client
// port just like a client" step.
func (s *Server) fetchScriptContent(ssAddr, filename string) (string, error) {
	nc, err := net.DialTimeout("tcp", ssAddr, fetchDialTimeout)
	if err != nil {
		return "", err
	}
	defer nc.Close()

	ssConn := wire.NewConn(nc)
	if err := ssConn.Sendf("GET_CONTENT %s", filename); err != nil {
		return "", err
	}
	return ssConn.Recv()
}

// writeTempScript materializes content as an executable temp file, naming
// it with a uuid rather than the original's mkstemp template.
func writeTempScript(content string) (string, error) {
	path := filepath.Join(os.TempDir(), "langos-exec-"+uuid.NewString())
	if err := os.WriteFile(path, []byte(content), 0o700); err != nil {
		return "", err
	}
	return path, nil
}

// runAndStream runs scriptPath with stderr merged into stdout, sending one
// wire message per line of output as it arrives. Grounded on handle_exec's
// popen + fgets loop, realized with exec.CommandContext and a
// wire.NewLineStreamer over the pipe.
func runAndStream(ctx context.Context, conn *wire.Conn, scriptPath string) error {
	cmd := exec.CommandContext(ctx, scriptPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := wire.NewLineStreamer(stdout)
	for scanner.Scan() {
		conn.Send(scanner.Text())
	}

	return cmd.Wait()
}
