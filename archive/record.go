package archive

import "strings"

// NewLineMarker replaces line breaks so a record stays on one line.
const NewLineMarker = " <new_Line> "

var lineBreaks = strings.NewReplacer("\r\n", NewLineMarker, "\n", NewLineMarker, "\r", NewLineMarker)

// Record is one line of a log file.
type Record struct {
	Timestamp  string
	Actor      string
	Body       string
	MessageRef string
}

// EscapeLines folds a multi-line text into a single line.
func EscapeLines(s string) string {
	return lineBreaks.Replace(s)
}

// String renders the record without a trailing newline.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(EscapeLines(r.Timestamp))
	b.WriteString("\t")
	b.WriteString(EscapeLines(r.Actor))
	b.WriteString(":\t\t")
	b.WriteString(EscapeLines(r.Body))
	if r.MessageRef != "" {
		b.WriteString("    (messageID: ")
		b.WriteString(r.MessageRef)
		b.WriteString(")")
	}
	return b.String()
}
