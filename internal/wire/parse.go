package wire

import (
	"strconv"
	"strings"
)

// Fields splits a message on runs of whitespace into its command and arguments,
// the way every dispatch table in this protocol expects (VIEW [flags],
// CREATE <f>, WRITE <f> <n>, ...).
func Fields(msg string) []string {
	return strings.Fields(msg)
}

// SplitCommand splits a message into its leading command word and the
// remainder, unsplit — useful for commands whose trailing argument may
// itself contain spaces (ADDACCESS's username, EXEC's content lines).
func SplitCommand(msg string) (cmd string, rest string) {
	msg = strings.TrimSpace(msg)
	sp := strings.IndexByte(msg, ' ')
	if sp < 0 {
		return msg, ""
	}
	return msg[:sp], strings.TrimLeft(msg[sp+1:], " ")
}

// ParseAdvertisedFiles parses INIT_SS's bracketed comma list argument,
// e.g. "[a.txt,b.txt]" or the empty list "[]". The original C parser
// null-terminates in place to strip the brackets and then strtok_r's the
// interior; a literal port of that onto strings.Split would call
// strings.Split("", ",") on the empty-list case and get back []string{""}
// (one empty-string entry) rather than zero entries, so the empty case is
// special-cased here.
func ParseAdvertisedFiles(arg string) []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(arg, "["), "]")
	if inner == "" {
		return nil
	}
	return strings.Split(inner, ",")
}

// FormatAdvertisedFiles is the inverse of ParseAdvertisedFiles, used by a
// Storage Server to build its INIT_SS handshake argument.
func FormatAdvertisedFiles(files []string) string {
	return "[" + strings.Join(files, ",") + "]"
}

// ParseWriteUpdate parses a buffered WRITE-session update line of the form
// "<word_idx> <content...>" into its word index and content. The content
// may itself contain spaces and is not re-split here; ok is false if the
// line has no leading integer.
func ParseWriteUpdate(line string) (wordIdx int, content string, ok bool) {
	idxStr, rest := SplitCommand(line)
	n, err := strconv.Atoi(idxStr)
	if err != nil {
		return 0, "", false
	}
	return n, rest, true
}
