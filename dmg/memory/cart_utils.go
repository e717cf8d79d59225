package memory

import (
	"strings"
	"unicode"
)

// cleanGameboyTitle turns the raw title field into printable text: padding
// NULs end the title, anything unprintable becomes '?', surrounding space is
// trimmed.
func cleanGameboyTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))

	for _, b := range titleBytes {
		if b == 0 {
			break
		}
		r := rune(b)
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}

	return title
}
