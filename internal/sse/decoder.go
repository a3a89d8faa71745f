// Package sse turns a chunked text/event-stream body into typed events.
//
// Bytes flow through three stages, each of which keeps the state needed to
// survive arbitrary chunk boundaries:
//
//	chunk bytes -> Decoder (UTF-8, stateful) -> Splitter (blank-line frames) -> ParseFrame -> Event
//
// Parser wires the stages together; Log stores the resulting events.
package sse

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder converts UTF-8 byte chunks to text. A multi-byte character split
// across two chunks is held back until its remaining bytes arrive. Invalid
// sequences decode to U+FFFD.
type Decoder struct {
	transformer transform.Transformer
	pending     []byte
}

// NewDecoder returns a Decoder with no buffered bytes.
func NewDecoder() *Decoder {
	return &Decoder{transformer: unicode.UTF8.NewDecoder()}
}

// Decode returns the text for every complete character in pending bytes
// plus chunk. Trailing bytes of an incomplete character are retained.
func (d *Decoder) Decode(chunk []byte) string {
	return d.decode(chunk, false)
}

// Flush decodes whatever is still buffered, replacing a truncated trailing
// character with U+FFFD, and resets the Decoder.
func (d *Decoder) Flush() string {
	out := d.decode(nil, true)
	d.transformer.Reset()
	return out
}

// Pending reports how many bytes are waiting for the rest of a character.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

func (d *Decoder) decode(chunk []byte, atEOF bool) string {
	src := append(d.pending, chunk...)
	d.pending = nil
	if len(src) == 0 {
		return ""
	}

	// Each invalid byte may expand to a 3-byte replacement character.
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	out := make([]byte, 0, len(src))

	for len(src) > 0 {
		nDst, nSrc, err := d.transformer.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return string(out)
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append([]byte(nil), src...)
			return string(out)
		case errors.Is(err, transform.ErrShortDst):
			if nSrc == 0 && nDst == 0 {
				dst = make([]byte, 2*len(dst))
			}
		default:
			// The UTF-8 decoder replaces invalid input instead of failing.
			return string(out)
		}
	}

	return string(out)
}
