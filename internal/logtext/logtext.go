// Package logtext shortens untrusted text before it goes into log records.
package logtext

import "unicode/utf8"

// Limits used by callers when logging model replies and tool stderr.
const (
	ResponseLimit = 1000
	StderrLimit   = 8 << 10
	ErrorLimit    = 512
)

const suffix = "...(truncated)"

// Truncate returns s cut to at most max bytes plus a marker. The cut never
// splits a UTF-8 sequence.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
