// Package tokenizer implements the sentence/word model that defines what a
// WRITE session's updates mean: how a file's bytes are split into sentences
// and words, how those pieces are rejoined, and how a single buffered update
// is spliced into a sentence's word list.
package tokenizer

import (
	"errors"
	"strings"
	"unicode"
)

// ErrSentenceOutOfRange is returned when a requested sentence index falls
// outside [0, sentenceCount] (append is the one index past the end).
var ErrSentenceOutOfRange = errors.New("tokenizer: sentence index out of range")

// ErrWordOutOfRange is returned when a requested word index falls outside
// [0, wordCount] of the target sentence.
var ErrWordOutOfRange = errors.New("tokenizer: word index out of range")

// IsDelimiter reports whether b ends a sentence.
func IsDelimiter(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// SplitSentences splits content on sentence delimiters. The delimiter stays
// attached to the sentence it ends; whitespace immediately following a
// delimiter is discarded rather than carried into the next sentence. A
// trailing run of text with no delimiter becomes one final, incomplete
// sentence.
func SplitSentences(content string) []string {
	var sentences []string
	start := 0
	i := 0
	for i < len(content) {
		if IsDelimiter(content[i]) {
			sentences = append(sentences, content[start:i+1])
			start = i + 1
			for start < len(content) && isASCIISpace(content[start]) {
				start++
			}
			i = start
			continue
		}
		i++
	}
	if start < len(content) {
		sentences = append(sentences, content[start:])
	}
	return sentences
}

// SplitWords splits a sentence into whitespace-separated words, with a
// delimiter character always counted as its own one-byte word, even when it
// immediately follows non-whitespace (e.g. "line." yields ["line", "."]).
func SplitWords(sentence string) []string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(sentence); i++ {
		c := sentence[i]
		switch {
		case isASCIISpace(c):
			flush()
		case IsDelimiter(c):
			flush()
			words = append(words, string(c))
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return words
}

// JoinWords concatenates words with a single space between successive
// words, suppressing the space before a word whose first character is a
// delimiter.
func JoinWords(words []string) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	for i, w := range words {
		b.WriteString(w)
		if i < len(words)-1 {
			next := words[i+1]
			if next == "" || !IsDelimiter(next[0]) {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

// JoinSentences concatenates sentences with a single space between
// successive sentences, suppressing the space if the next sentence already
// starts with whitespace.
func JoinSentences(sentences []string) string {
	if len(sentences) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range sentences {
		b.WriteString(s)
		if i < len(sentences)-1 {
			next := sentences[i+1]
			if next == "" || next[0] != ' ' {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

// Stats returns the size (bytes), word count and char count (bytes) used in
// INFO and INFO_UPDATE responses. Word count is computed by tokenizing the
// whole content as a single unit — sentence boundaries don't affect it since
// delimiters are always their own word regardless of which sentence they
// fall in.
func Stats(content string) (size int64, words, chars int) {
	return int64(len(content)), len(SplitWords(content)), len(content)
}

// MaxValidSentenceIndex returns the highest sentence index a WRITE session
// may target. An empty file can only be appended to at index 0. Otherwise,
// if the last sentence ends with a delimiter the file is "complete" and a
// new sentence may be appended one past the end; if it does not, that
// trailing sentence is incomplete and is the only legal target near the end
// — no new sentence may be started past it.
func MaxValidSentenceIndex(content string) int {
	sentences := SplitSentences(content)
	if len(sentences) == 0 {
		return 0
	}
	last := sentences[len(sentences)-1]
	if last != "" && IsDelimiter(last[len(last)-1]) {
		return len(sentences)
	}
	return len(sentences) - 1
}

// ApplySingleUpdate applies one buffered (wordIndex, newContent) update
// against sentenceIndex of the given content, returning the new whole-file
// content. newContent is split on plain spaces and spliced into the target
// sentence's word list at wordIndex.
//
// sentenceIndex == len(sentences) is the append case: a new empty sentence
// is created. The result is re-tokenized before being returned so that any
// delimiter newly introduced by this update splits into new sentences for
// subsequent updates in the same session.
func ApplySingleUpdate(content string, sentenceIndex, wordIndex int, newContent string) (string, error) {
	sentences := SplitSentences(content)

	if sentenceIndex < 0 || sentenceIndex > len(sentences) {
		return "", ErrSentenceOutOfRange
	}
	if sentenceIndex == len(sentences) {
		sentences = append(sentences, "")
	}

	words := SplitWords(sentences[sentenceIndex])
	if wordIndex < 0 || wordIndex > len(words) {
		return "", ErrWordOutOfRange
	}

	var newWords []string
	if newContent != "" {
		newWords = strings.Split(newContent, " ")
	}

	spliced := make([]string, 0, len(words)+len(newWords))
	spliced = append(spliced, words[:wordIndex]...)
	spliced = append(spliced, newWords...)
	spliced = append(spliced, words[wordIndex:]...)

	sentences[sentenceIndex] = JoinWords(spliced)
	merged := JoinSentences(sentences)

	// Re-parse so delimiters introduced by this update become visible to
	// later updates in the same commit.
	return JoinSentences(SplitSentences(merged)), nil
}

func isASCIISpace(b byte) bool {
	return unicode.IsSpace(rune(b))
}
