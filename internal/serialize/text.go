package serialize

import "strings"

// Lines joins rendered result lines the way the teacher's output.Writer
// joins status lines: one per line, newline-terminated, no trailing blank
// line. Tool handlers building a lean grep-style text result (spec.md §7's
// "single human-readable explanation string in text mode") compose their
// lines and call this once.
func Lines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// EmptyResult renders the not-found/empty-result text the teacher's
// output.Writer would print as a status line — used when a tool's
// structured result has zero entries (spec.md §7 "NotFound ... never
// throws").
func EmptyResult(msg string) string {
	return msg + "\n"
}
