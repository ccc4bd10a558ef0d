package export

import (
	"strings"
	"unicode"
)

// SanitizeName turns a script title or visual cue into something safe for a
// download file name or an EDL clip label. Disallowed runes become '_', runs
// of spaces or underscores collapse to one, and the result is trimmed and cut
// to at most maxLen runes (no limit when maxLen <= 0).
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	var last rune
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			r = ' '
		case unicode.IsControl(r):
			continue
		case !isAllowedNameRune(r):
			r = '_'
		}
		if (r == ' ' || r == '_') && r == last {
			continue
		}
		b.WriteRune(r)
		last = r
	}

	cleaned := trimName(b.String())
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = trimName(string(runes[:maxLen]))
		}
	}
	return cleaned
}

func trimName(s string) string {
	return strings.Trim(s, " _.")
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '-', '_', '.', ',', '(', ')', '\'':
		return true
	}
	return false
}
