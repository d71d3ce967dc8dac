package stringutils

import (
	"regexp"
	"strings"
)

var reSpace = regexp.MustCompile(`\s+`)

// Truncate shortens a string to at most n runes, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// OneLine collapses runs of whitespace, newlines included, into single spaces.
func OneLine(s string) string {
	return strings.TrimSpace(reSpace.ReplaceAllString(s, " "))
}

// OrDefault returns s if it's not blank, or def otherwise.
func OrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
