package logutil

import "unicode/utf8"

// TruncateForLog cuts s to at most maxLen bytes without splitting a rune
// and appends "..." when anything was dropped.
func TruncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return "..."
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
