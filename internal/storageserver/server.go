// Package storageserver implements the Storage Server: the collaborative
// sentence-level write engine, the read-side operations (READ, STREAM,
// UNDO, GET_CONTENT), and the control channel to the Name Server.
package storageserver

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wolverine07/langos/internal/metrics"
	"github.com/wolverine07/langos/internal/wire"
)

// modLogEntry is one entry in the monotonic modification log: a file grew
// or shrank by sentenceDelta sentences at originalIndex, as of log id id.
type modLogEntry struct {
	id            int
	filename      string
	originalIndex int
	sentenceDelta int
}

// Server holds a Storage Server's in-memory coordination state: per-file
// commit locks (created lazily, never removed — a file is never forgotten
// for the lifetime of the process), the set of sentence locks currently
// held, and the modification log used to translate a WRITE session's
// requested sentence index into the file's current real index.
//
// Grounded on original_source/include/storage_server.h's StorageServer
// struct: FileLockNode/SentenceLockNode/ModificationLogNode linked lists
// guarded by one internal_locks_mutex become Go maps guarded by one
// sync.Mutex; ss->next_log_id becomes Server.nextLogID.
type Server struct {
	StoragePath string

	// MaxMessageSize overrides the wire protocol's default frame size for
	// every connection this server wraps, matching
	// config.StorageServerConfig.MaxMessageSize. Zero means use
	// wire.MaxMessageSize.
	MaxMessageSize int

	mu            sync.Mutex
	fileLocks     map[string]*sync.Mutex
	sentenceLocks map[sentenceKey]int // value: holder's session startLogID
	modLog        []modLogEntry
	nextLogID     int

	lastLockActivity time.Time

	metrics *metrics.StorageServerMetrics
}

type sentenceKey struct {
	filename string
	index    int
}

// New creates a Storage Server rooted at storagePath, creating the
// directory if it doesn't exist yet.
func New(storagePath string, m *metrics.StorageServerMetrics) (*Server, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("storageserver: create storage dir: %w", err)
	}
	return &Server{
		StoragePath:   storagePath,
		fileLocks:     make(map[string]*sync.Mutex),
		sentenceLocks: make(map[sentenceKey]int),
		metrics:       m,
	}, nil
}

// filePath returns the on-disk path for filename under StoragePath.
func (s *Server) filePath(filename string) string {
	return filepath.Join(s.StoragePath, filename)
}

// connSize returns the frame size Conn wrappers created by this server
// should use: MaxMessageSize if configured, otherwise wire's default.
func (s *Server) connSize() int {
	if s.MaxMessageSize > 0 {
		return s.MaxMessageSize
	}
	return wire.MaxMessageSize
}

// undoPath returns the sibling undo-backup path for filename.
func (s *Server) undoPath(filename string) string {
	return s.filePath(filename) + ".undo"
}

// fileCommitLock returns the mutex guarding filename's commit phase,
// creating it on first reference. Grounded on get_file_commit_lock: once
// created, a file's lock is never removed, matching the original's
// grow-only FileLockNode list.
func (s *Server) fileCommitLock(filename string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.fileLocks[filename]
	if !ok {
		l = &sync.Mutex{}
		s.fileLocks[filename] = l
	}
	return l
}

// tryLockSentence attempts to add (filename, index) to the sentence-lock
// set, returning false if it's already held. startLogID is the
// requesting session's log-tip snapshot (see currentLogID), recorded
// against the lock so the quiescence compactor can tell which
// modification-log entries this in-flight session might still need.
// Grounded on try_lock_sentence.
func (s *Server) tryLockSentence(filename string, index, startLogID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sentenceKey{filename, index}
	if _, held := s.sentenceLocks[key]; held {
		return false
	}
	s.sentenceLocks[key] = startLogID
	s.lastLockActivity = time.Now()
	if s.metrics != nil {
		s.metrics.SetActiveLocks(len(s.sentenceLocks))
	}
	return true
}

// unlockSentence releases (filename, index). Grounded on unlock_sentence.
func (s *Server) unlockSentence(filename string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sentenceLocks, sentenceKey{filename, index})
	s.lastLockActivity = time.Now()
	if s.metrics != nil {
		s.metrics.SetActiveLocks(len(s.sentenceLocks))
	}
}

// currentLogID returns the id the next modification-log entry would get.
// Any entry with id >= a value captured here is "new" relative to that
// capture point. Grounded on get_current_log_id — captured before the
// sentence lock is acquired, not after, so a session's shift calculation
// sees every commit that happened after it began waiting for the lock.
func (s *Server) currentLogID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLogID
}

// logModification appends a modification-log entry if delta is nonzero.
// Grounded on log_modification.
func (s *Server) logModification(filename string, index, delta int) {
	if delta == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modLog = append(s.modLog, modLogEntry{
		id:            s.nextLogID,
		filename:      filename,
		originalIndex: index,
		sentenceDelta: delta,
	})
	s.nextLogID++
	if s.metrics != nil {
		s.metrics.SetModLogLength(len(s.modLog))
	}
}

// sentenceShift computes the drift a WRITE session must add to its
// requested sentence index to land on the right sentence in the file's
// current content. Only modification-log entries logged at or after
// startLogID (this session's snapshot of the log tip) and for the same
// file, whose originalIndex precedes requestedIndex, contribute.
//
// Grounded on get_sentence_shift.
func (s *Server) sentenceShift(filename string, requestedIndex, startLogID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	shift := 0
	for _, e := range s.modLog {
		if e.id < startLogID {
			continue
		}
		if e.filename != filename {
			continue
		}
		if e.originalIndex < requestedIndex {
			shift += e.sentenceDelta
		}
	}
	return shift
}

// compactModLog drops modification-log entries older than watermark. It is
// only ever called by the optional quiescence compactor (see compactor.go)
// — by default the log is never trimmed, matching the original
// implementation and spec.md's stated simplification.
func (s *Server) compactModLog(watermark int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.modLog[:0]
	for _, e := range s.modLog {
		if e.id >= watermark {
			kept = append(kept, e)
		}
	}
	s.modLog = kept
	if s.metrics != nil {
		s.metrics.SetModLogLength(len(s.modLog))
	}
}

// activeSentenceLockCount returns the number of sentence locks currently
// held, used by the quiescence compactor to decide whether the server is
// idle.
func (s *Server) activeSentenceLockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sentenceLocks)
}

// compactionSnapshot returns whether the server has been free of
// sentence locks for at least idleWindow, plus the watermark a
// compaction pass may safely truncate to: the lowest startLogID any
// currently-held lock's session snapshotted (or nextLogID, meaning
// "everything", when no session is in flight).
func (s *Server) compactionSnapshot(idleWindow time.Duration) (idle bool, watermark int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	watermark = s.nextLogID
	for _, startLogID := range s.sentenceLocks {
		if startLogID < watermark {
			watermark = startLogID
		}
	}
	idle = len(s.sentenceLocks) == 0 && time.Since(s.lastLockActivity) >= idleWindow
	return idle, watermark
}
