package sse

// Parser runs the decode, split and parse stages over a sequence of body
// chunks. A Parser serves a single stream and is not safe for concurrent use.
type Parser struct {
	decoder  *Decoder
	builder  *Builder
	splitter Splitter
}

// NewParser returns a Parser that stamps events with b.
func NewParser(b *Builder) *Parser {
	if b == nil {
		b = NewBuilder(nil)
	}
	return &Parser{decoder: NewDecoder(), builder: b}
}

// Feed consumes one chunk and returns the events it completed, in wire order.
func (p *Parser) Feed(chunk []byte) []Event {
	return p.events(p.splitter.Push(p.decoder.Decode(chunk)))
}

// Flush is called at end of stream. Text left in the decoder or splitter is
// treated as one final frame.
func (p *Parser) Flush() []Event {
	frames := p.splitter.Push(p.decoder.Flush())
	if rest := p.splitter.Flush(); rest != "" {
		frames = append(frames, rest)
	}
	return p.events(frames)
}

func (p *Parser) events(frames []string) []Event {
	var out []Event
	for _, text := range frames {
		frame, ok := ParseFrame(text)
		if !ok {
			continue
		}
		out = append(out, p.builder.FromFrame(frame))
	}
	return out
}
