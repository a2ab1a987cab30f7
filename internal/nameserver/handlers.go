package nameserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/nameserver/persistence"
	"github.com/wolverine07/langos/internal/wire"
)

// handleView lists files the user can see. Grounded on handle_view: `a`
// shows every file, `l` adds the detail columns, default shows only files
// the requester can read.
func (s *Server) handleView(ctx context.Context, conn *wire.Conn, username string, fields []string) {
	showAll, showDetails := false, false
	if len(fields) > 1 {
		showAll = strings.Contains(fields[1], "a")
		showDetails = strings.Contains(fields[1], "l")
	}

	files, err := s.Store.ListFiles()
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusInternal, "Failed to list files."))
		return
	}

	var visible []*persistence.FileMeta
	for _, f := range files {
		if showAll || checkAccess(f, username, persistence.PermRead) {
			visible = append(visible, f)
		}
	}

	if len(visible) == 0 {
		conn.Send("(No files to display)")
		return
	}

	if !showDetails {
		var b strings.Builder
		for _, f := range visible {
			b.WriteString(f.Filename)
			b.WriteString("\n")
		}
		conn.Send(strings.TrimRight(b.String(), "\n"))
		return
	}

	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Filename", "Owner", "Size", "Words", "Chars", "Last Modified"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, f := range visible {
		table.Append([]string{
			f.Filename, f.Owner,
			strconv.FormatInt(f.Size, 10),
			strconv.Itoa(f.Words),
			strconv.Itoa(f.Chars),
			f.LastModified.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	conn.Send(strings.TrimRight(b.String(), "\n"))
}

// handleCreate picks a live SS by round robin, asks it to create the file,
// and inserts metadata with the requester as owner. Grounded on
// handle_create_delete's is_create branch.
func (s *Server) handleCreate(ctx context.Context, conn *wire.Conn, username string, fields []string) int {
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Usage: CREATE <filename>"))
		return wire.StatusBadRequest
	}
	filename := fields[1]

	if _, err := s.Store.GetFile(filename); err == nil {
		conn.Send(wire.Errorf(wire.StatusConflict, "File already exists."))
		return wire.StatusConflict
	}

	ss, ok := s.ss.PickRoundRobin()
	if !ok {
		conn.Send(wire.Errorf(wire.StatusUnavailable, "No storage servers available."))
		return wire.StatusUnavailable
	}

	if err := ss.Conn.Sendf("CREATE %s", filename); err != nil {
		logger.WarnCtx(ctx, "failed to relay CREATE to storage server", logger.Err(err))
		conn.Send(wire.Errorf(wire.StatusUnavailable, "Storage server unreachable."))
		return wire.StatusUnavailable
	}

	meta := &persistence.FileMeta{
		Filename: filename,
		Owner:    username,
		SSAddr:   ss.Addr,
		Access:   []persistence.AccessGrant{{User: username, Perm: persistence.PermWrite}},
	}
	if err := s.Store.CreateFile(meta); err != nil {
		conn.Send(wire.Errorf(wire.StatusConflict, "File already exists."))
		return wire.StatusConflict
	}

	conn.Send(wire.Done("File created successfully!"))
	logger.InfoCtx(ctx, "file created", logger.Filename(filename), "ss_addr", ss.Addr)
	return wire.StatusDone
}

// handleDelete removes a file's metadata and asks its SS to delete the
// bytes. Grounded on handle_create_delete's delete branch.
func (s *Server) handleDelete(ctx context.Context, conn *wire.Conn, username string, fields []string) int {
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Usage: DELETE <filename>"))
		return wire.StatusBadRequest
	}
	filename := fields[1]

	meta, err := s.Store.GetFile(filename)
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "File not found."))
		return wire.StatusNotFound
	}
	if !isOwner(meta, username) {
		conn.Send(wire.Errorf(wire.StatusUnauthorized, "Only the owner can delete a file."))
		return wire.StatusUnauthorized
	}

	if ss, ok := s.ss.Get(meta.SSAddr); ok {
		if err := ss.Conn.Sendf("DELETE %s", filename); err != nil {
			logger.WarnCtx(ctx, "failed to relay DELETE to storage server", logger.Err(err))
		}
	}

	if err := s.Store.DeleteFile(filename); err != nil {
		conn.Send(wire.Errorf(wire.StatusInternal, "Failed to delete file metadata."))
		return wire.StatusInternal
	}
	s.infoCache.Invalidate(filename)

	conn.Send(wire.OKText("File deleted successfully."))
	logger.InfoCtx(ctx, "file deleted", logger.Filename(filename))
	return wire.StatusOK
}

// requiredPermFor returns the access level a command needs: READ/STREAM
// need R|W, WRITE/UNDO need W. Grounded on handle_read_write_stream.
func requiredPermFor(cmd string) persistence.Permission {
	if cmd == "WRITE" || cmd == "UNDO" {
		return persistence.PermWrite
	}
	return persistence.PermRead
}

// handleReadWriteStream authorizes and routes a READ/WRITE/STREAM/UNDO
// request to the file's Storage Server. Grounded on
// handle_read_write_stream.
func (s *Server) handleReadWriteStream(ctx context.Context, conn *wire.Conn, username string, fields []string) int {
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Missing filename."))
		return wire.StatusBadRequest
	}
	cmd, filename := fields[0], fields[1]

	meta, err := s.Store.GetFile(filename)
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "File not found."))
		return wire.StatusNotFound
	}

	perm := requiredPermFor(cmd)
	if !checkAccess(meta, username, perm) {
		conn.Send(wire.Errorf(wire.StatusUnauthorized, fmt.Sprintf("%c access denied.", perm)))
		return wire.StatusUnauthorized
	}

	s.Store.UpdateFile(filename, func(m *persistence.FileMeta) error {
		m.LastAccessed = time.Now()
		return nil
	})

	if meta.Offline {
		conn.Send(wire.Errorf(wire.StatusUnavailable, "Storage server for this file is offline."))
		return wire.StatusUnavailable
	}
	if _, ok := s.ss.Get(meta.SSAddr); !ok {
		conn.Send(wire.Errorf(wire.StatusUnavailable, "Storage server for this file is offline."))
		return wire.StatusUnavailable
	}

	conn.Send(wire.Route(meta.SSAddr))
	return wire.StatusRoute
}

// handleInfo formats a file's metadata block, consulting the INFO cache
// first. Grounded on handle_info.
func (s *Server) handleInfo(ctx context.Context, conn *wire.Conn, username string, fields []string) int {
	if len(fields) < 2 {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Usage: INFO <filename>"))
		return wire.StatusBadRequest
	}
	filename := fields[1]

	if cached, ok := s.infoCache.Get(filename); ok {
		s.metrics.InfoCacheHit()
		conn.Send(cached)
		return wire.StatusOK
	}
	s.metrics.InfoCacheMiss()

	meta, err := s.Store.GetFile(filename)
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "File not found."))
		return wire.StatusNotFound
	}
	if !checkAccess(meta, username, persistence.PermRead) {
		conn.Send(wire.Errorf(wire.StatusUnauthorized, "Read access denied."))
		return wire.StatusUnauthorized
	}

	body := formatInfo(meta)
	s.infoCache.Put(filename, body)
	conn.Send(body)
	return wire.StatusOK
}

func formatInfo(meta *persistence.FileMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- File Info: %s ---\n", meta.Filename)
	fmt.Fprintf(&b, "  Owner: %s\n", meta.Owner)
	fmt.Fprintf(&b, "  Modified: %s\n", meta.LastModified.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "  Accessed: %s\n", meta.LastAccessed.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "  Size: %d bytes\n", meta.Size)
	fmt.Fprintf(&b, "  Words: %d\n", meta.Words)
	fmt.Fprintf(&b, "  Chars: %d\n", meta.Chars)
	b.WriteString("  Access: ")
	b.WriteString(formatAccessList(meta.Access))
	return b.String()
}

func formatAccessList(access []persistence.AccessGrant) string {
	if len(access) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(access))
	for _, g := range access {
		parts = append(parts, fmt.Sprintf("%s:%c", g.User, g.Perm))
	}
	return strings.Join(parts, ",")
}

// handleAccess parses ADDACCESS/REMACCESS and mutates the file's access
// list. Grounded on handle_access's updated parsing logic (4 args for
// ADDACCESS with a -R/-W flag, 3 for REMACCESS).
func (s *Server) handleAccess(ctx context.Context, conn *wire.Conn, username string, fields []string) int {
	cmd := fields[0]
	isAdd := cmd == "ADDACCESS"

	var filename, target string
	var perm persistence.Permission

	switch {
	case isAdd && len(fields) == 4:
		filename, target = fields[2], fields[3]
		switch fields[1] {
		case "-R":
			perm = persistence.PermRead
		case "-W":
			perm = persistence.PermWrite
		default:
			conn.Send(wire.Errorf(wire.StatusBadRequest, "Invalid permission flag. Use -R or -W."))
			return wire.StatusBadRequest
		}
	case !isAdd && len(fields) == 3:
		filename, target = fields[1], fields[2]
	default:
		conn.Send(wire.Errorf(wire.StatusBadRequest,
			"Usage: ADDACCESS -R|-W <filename> <username> or REMACCESS <filename> <username>"))
		return wire.StatusBadRequest
	}

	meta, err := s.Store.GetFile(filename)
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusNotFound, "File not found."))
		return wire.StatusNotFound
	}
	if !isOwner(meta, username) {
		conn.Send(wire.Errorf(wire.StatusUnauthorized, "Only the owner can change permissions."))
		return wire.StatusUnauthorized
	}

	if isAdd && target == meta.Owner {
		conn.Send(wire.Errorf(wire.StatusBadRequest, "Cannot grant access to the owner."))
		return wire.StatusBadRequest
	}

	err = s.Store.UpdateFile(filename, func(m *persistence.FileMeta) error {
		if isAdd {
			m.Grant(target, perm)
		} else {
			m.Revoke(target)
		}
		return nil
	})
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusInternal, "Failed to update access list."))
		return wire.StatusInternal
	}
	s.infoCache.Invalidate(filename)

	if isAdd {
		conn.Send(wire.OKText("Access granted."))
	} else {
		conn.Send(wire.OKText("Access removed."))
	}
	return wire.StatusOK
}

// handleList dumps every known username. Grounded on handle_list.
func (s *Server) handleList(ctx context.Context, conn *wire.Conn) {
	users, err := s.Store.ListUsers()
	if err != nil {
		conn.Send(wire.Errorf(wire.StatusInternal, "Failed to list users."))
		return
	}
	if s.metrics != nil {
		s.metrics.SetKnownUsers(len(users))
	}
	var b strings.Builder
	b.WriteString("--- Registered Users ---\n")
	for _, u := range users {
		b.WriteString(u)
		b.WriteString("\n")
	}
	conn.Send(strings.TrimRight(b.String(), "\n"))
}
