package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims s, drops control characters other than newlines and
// cuts the result to maxRunes characters. maxRunes <= 0 disables the cut.
func SanitizeString(s string, maxRunes int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return cleaned
}
