package serialize

import (
	"fmt"
	"strings"
)

// RenderCode indents a code snippet the way the teacher's output.Writer.Code
// does for CLI display: a blank line, each source line indented two spaces,
// a trailing blank line — plus 1-based line numbers, since code output is
// read standalone here rather than following other printed context.
func RenderCode(content string) string {
	lines := strings.Split(content, "\n")
	width := len(fmt.Sprintf("%d", len(lines)))

	var b strings.Builder
	b.WriteByte('\n')
	for i, line := range lines {
		fmt.Fprintf(&b, "  %*d  %s\n", width, i+1, line)
	}
	b.WriteByte('\n')
	return b.String()
}
