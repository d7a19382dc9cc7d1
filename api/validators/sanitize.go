package validators

import (
	"strings"
	"unicode"
)

// SanitizeString flattens whitespace, strips control characters, trims, and
// caps the result at maxLen runes. A maxLen of zero means no cap.
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s))
	if maxLen <= 0 {
		return s
	}
	if runes := []rune(s); len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return s
}
