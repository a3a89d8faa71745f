package sse

import "strings"

// Field prefixes recognized inside a frame.
const (
	fieldEvent = "event:"
	fieldData  = "data:"
	comment    = ":"
)

// Frame is the field content of one blank-line-delimited unit of the stream.
type Frame struct {
	// Type is the trimmed value of the last "event:" line, or empty.
	Type string
	// Data is the concatenation of every trimmed "data:" value.
	Data string
}

// ParseFrame extracts the event type and data from a frame. Comment lines
// and unknown fields are ignored. ok is false when the frame carries no
// data, in which case it produces no event.
func ParseFrame(text string) (frame Frame, ok bool) {
	var data strings.Builder

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, comment):
			continue
		case strings.HasPrefix(line, fieldEvent):
			frame.Type = strings.TrimSpace(line[len(fieldEvent):])
		case strings.HasPrefix(line, fieldData):
			data.WriteString(strings.TrimSpace(line[len(fieldData):]))
		}
	}

	frame.Data = data.String()
	return frame, frame.Data != ""
}
