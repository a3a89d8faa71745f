package sse

import (
	"bytes"
	"strings"
)

// FrameDelimiter separates frames on the wire.
const FrameDelimiter = "\n\n"

var frameDelimiter = []byte(FrameDelimiter)

// Splitter accumulates decoded text and cuts it into frames on blank-line
// boundaries. The trailing, possibly incomplete, segment stays buffered until
// more text arrives.
type Splitter struct {
	buf []byte
}

// Push appends text and returns every frame completed by it, in order.
// CRLF line endings are normalized to LF first, including a CR at the end
// of one chunk followed by LF at the start of the next.
//
// Only the new text is normalized and scanned, so a frame delivered in many
// chunks costs time linear in its size.
func (s *Splitter) Push(text string) []string {
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "\n") && bytes.HasSuffix(s.buf, []byte("\r")) {
		s.buf = s.buf[:len(s.buf)-1]
	}
	// The buffer holds no delimiter, but its last byte may begin one.
	from := max(len(s.buf)-1, 0)
	s.buf = append(s.buf, strings.ReplaceAll(text, "\r\n", "\n")...)

	var frames []string
	start := 0
	for {
		i := bytes.Index(s.buf[from:], frameDelimiter)
		if i < 0 {
			break
		}
		end := from + i
		frames = append(frames, string(s.buf[start:end]))
		start = end + len(frameDelimiter)
		from = start
	}

	if start > 0 {
		s.buf = append(s.buf[:0], s.buf[start:]...)
	}
	return frames
}

// Buffered returns the text not yet terminated by a delimiter.
func (s *Splitter) Buffered() string {
	return string(s.buf)
}

// Flush returns the buffered remainder and empties the Splitter.
func (s *Splitter) Flush() string {
	rest := strings.TrimSuffix(string(s.buf), "\r")
	s.buf = nil
	return rest
}

// Reset drops any buffered text.
func (s *Splitter) Reset() {
	s.buf = nil
}
