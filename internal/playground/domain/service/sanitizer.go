package service

import "strings"

// Sanitize removes characters that could be interpreted as document-store
// operators: NUL bytes and leading '$'. Surrounding whitespace is trimmed.
// It does not escape HTML.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$")
	return strings.TrimSpace(s)
}
