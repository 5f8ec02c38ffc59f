package errors

import (
	"strings"

	"github.com/fatih/color"
)

// RenderExcerpt renders the two-line human-readable context for a parse
// failure described in §6 ("Error offsets"): the source line containing the
// offset, followed by a caret pointing at the failing column. When color is
// attached to a terminal, the caret line is rendered in bold red, following
// the same "use color to highlight the exact failure point" idiom
// github.com/fatih/color is used for elsewhere in the retrieval pack
// (cjdwd-drug_fpn_lstm_vqa/edirect's diagnostic output).
func RenderExcerpt(source string, offset int64) string {
	if offset < 0 {
		offset = 0
	}
	if int64(len(source)) < offset {
		offset = int64(len(source))
	}

	lineStart := strings.LastIndexByte(source[:offset], '\n') + 1
	lineEnd := len(source)
	if idx := strings.IndexByte(source[offset:], '\n'); idx >= 0 {
		lineEnd = int(offset) + idx
	}

	line := source[lineStart:lineEnd]
	column := int(offset) - lineStart

	caret := strings.Repeat(" ", column) + "^"

	caretLine := color.New(color.FgRed, color.Bold).Sprint(caret)

	var b strings.Builder
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString(caretLine)
	return b.String()
}

// RenderError renders err's message together with its source excerpt when it
// carries a byte offset (see OffsetOf); otherwise it falls back to the bare
// error message.
func RenderError(err error, source string) string {
	offset, ok := OffsetOf(err)
	if !ok {
		return err.Error()
	}
	return err.Error() + "\n" + RenderExcerpt(source, offset)
}
