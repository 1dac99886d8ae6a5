package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fallbackName is used when a title sanitizes to nothing
const fallbackName = "untitled"

// maxNameBytes keeps converted_<name>.mp3 within the 255 byte limit most
// filesystems put on a path component
const maxNameBytes = 255 - len("converted_") - len(".mp3")

// SanitizeFilename turns a video title into a single safe path component.
// Separators, reserved characters and control characters are dropped, the
// result is cut to maxNameBytes on a rune boundary, and leading and trailing
// dots and spaces are trimmed.
func SanitizeFilename(title string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return -1
		}
		return r
	}, title)

	name = truncateBytes(strings.Trim(name, " ."), maxNameBytes)
	name = strings.Trim(name, " .")
	if name == "" {
		return fallbackName
	}
	return name
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
