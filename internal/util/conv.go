package util

import (
	"strconv"
)

// MustParseUint parses an unsigned integer, returning 0 on failure.
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// Truncate shortens a string to max runes, appending an ellipsis when
// anything was cut. Used for review excerpts in notifications.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
