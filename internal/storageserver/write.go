package storageserver

import (
	"context"
	"os"
	"time"

	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/tokenizer"
	"github.com/wolverine07/langos/internal/wire"
)

// bufferedUpdate is one "<word_idx> <content>" line received during phase
// 2 of a WRITE session, queued until ETIRW (or disconnect) starts the
// commit phase.
type bufferedUpdate struct {
	wordIdx int
	content string
}

// handleWrite runs the full four-phase collaborative WRITE session for one
// client connection: index validation, sentence-lock acquisition with a
// log-tip snapshot, buffered update streaming, and an atomic commit that
// translates the session's requested sentence index through the
// modification log before applying it.
//
// Grounded on handle_ss_write end to end, including the exact statement
// order the original uses (log-id snapshot before the lock attempt, the
// last-sentence-delimiter scan for max_valid_index, and commit-time shift
// translation via sentenceShift).
func (s *Server) handleWrite(ctx context.Context, conn *wire.Conn, filename string, sentNum int, notify NotifyFunc) {
	startLogID := s.currentLogID()

	if !s.tryLockSentence(filename, sentNum, startLogID) {
		conn.Send(wire.Errorf(wire.StatusLocked, "This sentence is being edited by another user."))
		if s.metrics != nil {
			s.metrics.WriteSession("locked")
		}
		return
	}
	defer s.unlockSentence(filename, sentNum)
	logger.DebugCtx(ctx, "locked sentence for write session", logger.SentenceIndex(sentNum))

	content, err := os.ReadFile(s.filePath(filename))
	if err != nil {
		content = nil
	}

	maxValid := tokenizer.MaxValidSentenceIndex(string(content))
	if sentNum < 0 || sentNum > maxValid {
		conn.Send(wire.Errorf(wire.StatusBadRequest,
			"Sentence index out of range (Previous sentence might be incomplete)."))
		if s.metrics != nil {
			s.metrics.WriteSession("rejected")
		}
		return
	}

	conn.Send(wire.AckWrite())

	updates := s.collectUpdates(ctx, conn)

	start := time.Now()
	s.commitWrite(ctx, conn, filename, sentNum, startLogID, updates, notify)
	if s.metrics != nil {
		s.metrics.ObserveCommit(float64(time.Since(start).Microseconds()) / 1000.0)
	}
}

// collectUpdates reads buffered update lines until ETIRW or disconnect.
// Grounded on handle_ss_write's phase-2 recv loop; a disconnect (EOF) is
// treated identically to ETIRW per the decision recorded in SPEC_FULL.md
// §6.1 — whatever was buffered so far still commits.
func (s *Server) collectUpdates(ctx context.Context, conn *wire.Conn) []bufferedUpdate {
	var updates []bufferedUpdate
	for {
		line, err := conn.Recv()
		if err != nil {
			logger.DebugCtx(ctx, "write session ended by disconnect, committing buffered updates")
			return updates
		}
		if line == wire.ETIRW {
			logger.DebugCtx(ctx, "received ETIRW")
			return updates
		}
		wordIdx, text, ok := wire.ParseWriteUpdate(line)
		if !ok {
			continue
		}
		updates = append(updates, bufferedUpdate{wordIdx: wordIdx, content: text})
	}
}

// commitWrite applies the buffered updates under the file's commit lock:
// snapshot + backup, shift translation, sequential application, persist,
// log the net sentence-count delta, respond, and notify the NM.
//
// Grounded on handle_ss_write's STEP 3 commit block.
func (s *Server) commitWrite(ctx context.Context, conn *wire.Conn, filename string, sentNum, startLogID int, updates []bufferedUpdate, notify NotifyFunc) {
	lock := s.fileCommitLock(filename)
	lock.Lock()
	defer lock.Unlock()

	path := s.filePath(filename)
	undoPath := s.undoPath(filename)

	if err := createUndoBackup(path, undoPath); err != nil {
		logger.WarnCtx(ctx, "failed to create undo backup", logger.Err(err))
	}

	current, err := os.ReadFile(path)
	if err != nil {
		current = nil
	}
	countBefore := len(tokenizer.SplitSentences(string(current)))

	shift := s.sentenceShift(filename, sentNum, startLogID)
	realSentNum := sentNum + shift
	logAttrs := logger.Shift(startLogID, shift, realSentNum)
	logger.DebugCtx(ctx, "applying buffered updates", logAttrs[0], logAttrs[1], logAttrs[2])

	working := string(current)
	for _, u := range updates {
		next, err := tokenizer.ApplySingleUpdate(working, realSentNum, u.wordIdx, u.content)
		if err != nil {
			conn.Send(wire.Errorf(wire.StatusInternal, "Invalid update application during commit."))
			if s.metrics != nil {
				s.metrics.WriteSession("error")
			}
			return
		}
		working = next
	}

	if err := os.WriteFile(path, []byte(working), 0o644); err != nil {
		conn.Send(wire.Errorf(wire.StatusInternal, "Failed to write file."))
		if s.metrics != nil {
			s.metrics.WriteSession("error")
		}
		return
	}

	countAfter := len(tokenizer.SplitSentences(working))
	if delta := countAfter - countBefore; delta != 0 {
		s.logModification(filename, realSentNum, delta)
		logger.DebugCtx(ctx, "logged modification",
			logger.SentenceIndex(realSentNum), "delta", delta)
	}

	conn.Send(wire.OKText("Write Successful!"))
	if s.metrics != nil {
		s.metrics.WriteSession("committed")
	}

	size, words, chars := tokenizer.Stats(working)
	if notify != nil {
		notify(filename, size, words, chars)
	}
}
