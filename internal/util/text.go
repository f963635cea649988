package util

import (
	"strings"
	"unicode"
)

// SanitizeText drops invalid UTF-8, NUL bytes and other control characters
// (tabs and newlines survive) from collaborator output.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	sanitized = strings.ReplaceAll(sanitized, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, sanitized)
}
