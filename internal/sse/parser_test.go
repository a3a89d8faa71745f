package sse_test

import (
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/sse-relay/internal/sse"
)

type frameView struct {
	Data any
	Type string
	Raw  string
}

func view(events []sse.Event) []frameView {
	return lo.Map(events, func(e sse.Event, _ int) frameView {
		return frameView{Type: e.Type, Data: e.Data, Raw: e.Raw}
	})
}

func feedAll(chunks ...[]byte) []sse.Event {
	p := sse.NewParser(nil)
	var out []sse.Event
	for _, c := range chunks {
		out = append(out, p.Feed(c)...)
	}
	return append(out, p.Flush()...)
}

func TestParserEvents(t *testing.T) {
	t.Parallel()

	events := feedAll([]byte("event: foo\ndata: {\"x\":1}\n\ndata: hello\n\n: ping\n\n"))

	assert.Equal(t, []frameView{
		{Type: "foo", Data: map[string]any{"x": float64(1)}, Raw: `{"x":1}`},
		{Type: "message", Data: "hello", Raw: "hello"},
	}, view(events))
}

func TestParserDelimiterAcrossChunks(t *testing.T) {
	t.Parallel()

	p := sse.NewParser(nil)

	assert.Empty(t, p.Feed([]byte("data: 1\n")))
	events := p.Feed([]byte("\ndata: 2\n\n"))

	require.Len(t, events, 2)
	assert.Equal(t, "1", events[0].Raw)
	assert.Equal(t, "2", events[1].Raw)
}

func TestParserSkipsEmptyFrames(t *testing.T) {
	t.Parallel()

	events := feedAll([]byte("data: 1\n\n\n\ndata: 2\n\n"))

	assert.Equal(t, []string{"1", "2"}, lo.Map(events, func(e sse.Event, _ int) string { return e.Raw }))
}

func TestParserFlushesTrailingFrame(t *testing.T) {
	t.Parallel()

	p := sse.NewParser(nil)
	assert.Empty(t, p.Feed([]byte("data: last")))

	events := p.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, "last", events[0].Raw)
	assert.Empty(t, p.Flush())
}

func TestParserMultiByteAtEveryOffset(t *testing.T) {
	t.Parallel()

	payload := []byte("data: €\n\n")
	for cut := 0; cut <= len(payload); cut++ {
		events := feedAll(payload[:cut], payload[cut:])

		require.Len(t, events, 1, "cut at %d", cut)
		assert.Equal(t, "€", events[0].Raw, "cut at %d", cut)
	}
}

// Splitting a stream into chunks at arbitrary offsets must not change the
// events it produces.
func TestParserChunkingInvariance(t *testing.T) {
	t.Parallel()

	stream := []byte("event: foo\ndata: {\"x\":1}\n\n" +
		"data: héllo wörld €\n\n" +
		": comment\n\n" +
		"data: {\"type\":\"bar\",\n" +
		"data: \"n\":2}\n\n" +
		"data: 1\r\n\r\n" +
		"event: tail\ndata: ✓")
	want := view(feedAll(stream))

	properties := gopter.NewProperties(nil)
	properties.Property("events independent of chunk boundaries", prop.ForAll(
		func(cuts []int) bool {
			got := view(feedAll(chunk(stream, cuts)...))
			return assert.ObjectsAreEqual(want, got)
		},
		gen.SliceOf(gen.IntRange(0, len(stream))),
	))

	properties.TestingRun(t)
}

// chunk splits b at the given offsets, in whatever order they are supplied.
func chunk(b []byte, cuts []int) [][]byte {
	offsets := lo.Uniq(append(cuts, 0, len(b)))
	offsets = lo.Filter(offsets, func(o int, _ int) bool { return o >= 0 && o <= len(b) })
	slices.Sort(offsets)

	chunks := make([][]byte, 0, len(offsets))
	for i := 1; i < len(offsets); i++ {
		chunks = append(chunks, b[offsets[i-1]:offsets[i]])
	}
	return chunks
}
