package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the NM and SS. Use these
// keys consistently so log lines from either node can be aggregated and
// queried the same way.
const (
	KeyTraceID = "trace_id" // per-connection trace id

	KeyRole    = "role"    // "nm" or "ss"
	KeyCommand = "command" // wire command: VIEW, CREATE, WRITE, ...
	KeyStatus  = "status"  // wire status code: 200, 423, 503, ...

	KeyFilename      = "filename"
	KeySentenceIndex = "sentence_index"
	KeyWordIndex     = "word_index"
	KeySize          = "size"
	KeyWordCount     = "word_count"
	KeyCharCount     = "char_count"

	KeyUsername   = "username"
	KeyRemoteAddr = "remote_addr"
	KeySSAddr     = "ss_addr"

	KeyLogID       = "log_id"
	KeyShift       = "shift"
	KeyRealIndex   = "real_sentence_index"
	KeySentenceKey = "sentence_lock_key"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// Role returns a slog.Attr identifying which node is logging.
func Role(r string) slog.Attr { return slog.String(KeyRole, r) }

// Command returns a slog.Attr for the dispatched wire command.
func Command(c string) slog.Attr { return slog.String(KeyCommand, c) }

// Status returns a slog.Attr for the wire status code returned to the peer.
func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }

// Filename returns a slog.Attr for the target filename.
func Filename(f string) slog.Attr { return slog.String(KeyFilename, f) }

// SentenceIndex returns a slog.Attr for a requested sentence index.
func SentenceIndex(i int) slog.Attr { return slog.Int(KeySentenceIndex, i) }

// WordIndex returns a slog.Attr for a word index within a sentence.
func WordIndex(i int) slog.Attr { return slog.Int(KeyWordIndex, i) }

// Stats returns the size/word/char triple reported in INFO_UPDATE.
func Stats(size int64, words, chars int) []slog.Attr {
	return []slog.Attr{
		slog.Int64(KeySize, size),
		slog.Int(KeyWordCount, words),
		slog.Int(KeyCharCount, chars),
	}
}

// Username returns a slog.Attr for the asserted client username.
func Username(u string) slog.Attr { return slog.String(KeyUsername, u) }

// RemoteAddr returns a slog.Attr for the peer's network address.
func RemoteAddr(a string) slog.Attr { return slog.String(KeyRemoteAddr, a) }

// Shift returns the log-id/shift/real-index triple used to explain a
// sentence-index translation decision at commit time.
func Shift(sessionLogID, shift, real int) []slog.Attr {
	return []slog.Attr{
		slog.Int(KeyLogID, sessionLogID),
		slog.Int(KeyShift, shift),
		slog.Int(KeyRealIndex, real),
	}
}

// Err returns a slog.Attr for an error value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
