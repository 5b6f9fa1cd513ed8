package output

import "unicode/utf8"

// Truncate cuts s to at most max bytes, backing up so a multi-byte UTF-8
// sequence is never split. Invalid UTF-8 input is hard-cut at max.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return s[:cut]
}
