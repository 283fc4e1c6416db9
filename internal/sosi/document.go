package sosi

import "strings"

// lineScanner walks a document line by line without materializing a
// line slice. Trailing carriage returns are stripped so consumers see
// the same line content regardless of newline convention.
type lineScanner struct {
	text string
	pos  int
}

// Next returns the next line and true, or "" and false once the
// document is exhausted. A trailing newline does not produce an empty
// final line.
func (s *lineScanner) Next() (string, bool) {
	if s.pos >= len(s.text) {
		return "", false
	}
	rest := s.text[s.pos:]
	var line string
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		line = rest[:i]
		s.pos += i + 1
	} else {
		line = rest
		s.pos = len(s.text)
	}
	return strings.TrimSuffix(line, "\r"), true
}

// detectNewline returns the document's newline convention, judged by
// its first line break. Documents without a line break default to LF.
func detectNewline(text string) string {
	if i := strings.IndexByte(text, '\n'); i > 0 && text[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// hasFinalNewline reports whether the document ends with a line break,
// so rewritten output can keep the same shape.
func hasFinalNewline(text string) bool {
	return strings.HasSuffix(text, "\n")
}
