package storageserver

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/wire"
)

// ScanDirectory lists the files currently stored under StoragePath,
// excluding .undo backups, for the INIT_SS handshake's advertised file
// list. Grounded on persistence.c's ss_scan_directory.
func (s *Server) ScanDirectory() ([]string, error) {
	entries, err := os.ReadDir(s.StoragePath)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".undo") || strings.HasSuffix(e.Name(), ".undo.tmp") {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

// ConnectNM dials the Name Server and performs the INIT_SS handshake,
// advertising clientPort and the files already on disk. Grounded on
// ss_connect_to_nm.
func (s *Server) ConnectNM(ctx context.Context, nmAddr string, clientPort int) (*wire.Conn, error) {
	nc, err := net.Dial("tcp", nmAddr)
	if err != nil {
		return nil, fmt.Errorf("storageserver: connect to NM at %s: %w", nmAddr, err)
	}
	conn := wire.NewConnSize(nc, s.connSize())

	files, err := s.ScanDirectory()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("storageserver: scan storage dir: %w", err)
	}

	init := fmt.Sprintf("INIT_SS %d %s", clientPort, wire.FormatAdvertisedFiles(files))
	if err := conn.Send(init); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storageserver: send INIT_SS: %w", err)
	}

	logger.InfoCtx(ctx, "connected to name server", "nm_addr", nmAddr, "advertised_files", len(files))
	return conn, nil
}

// ListenNM services the NM's control channel until it disconnects:
// CREATE/DELETE/GET_CONTENT requests issued by the Name Server on behalf
// of clients. Grounded on ss_listen_to_nm.
func (s *Server) ListenNM(ctx context.Context, conn *wire.Conn) {
	for {
		msg, err := conn.Recv()
		if err != nil {
			logger.WarnCtx(ctx, "connection to name server lost", logger.Err(err))
			return
		}

		fields := wire.Fields(msg)
		if len(fields) < 2 {
			continue
		}
		cmd, filename := fields[0], fields[1]
		path := s.filePath(filename)

		switch cmd {
		case "CREATE":
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
				f.Close()
				conn.Send("ACK_CREATE OK")
			} else {
				conn.Send("ACK_CREATE FAIL")
			}
		case "DELETE":
			os.Remove(path)
			os.Remove(s.undoPath(filename))
			conn.Send("ACK_DELETE OK")
		case "GET_CONTENT":
			s.handleRead(ctx, conn, filename)
		}
	}
}

// NotifyNM returns a NotifyFunc that relays INFO_UPDATE over conn. A send
// failure is logged and otherwise ignored — INFO_UPDATE delivery is
// best-effort, matching spec.md §7's "logged only" propagation policy.
func NotifyNM(ctx context.Context, conn *wire.Conn) NotifyFunc {
	return func(filename string, size int64, words, chars int) {
		msg := fmt.Sprintf("INFO_UPDATE %s %d %d %d", filename, size, words, chars)
		if err := conn.Send(msg); err != nil {
			logger.WarnCtx(ctx, "failed to deliver INFO_UPDATE", logger.Filename(filename), logger.Err(err))
		}
	}
}
