package sse_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omarluq/sse-relay/internal/sse"
)

func TestDecoderMultiByteSplitAtEveryOffset(t *testing.T) {
	t.Parallel()

	payload := []byte("data: price €42 ✓\n\n")
	for cut := 0; cut <= len(payload); cut++ {
		dec := sse.NewDecoder()
		got := dec.Decode(payload[:cut]) + dec.Decode(payload[cut:])

		assert.Equal(t, string(payload), got, "cut at %d", cut)
		assert.Zero(t, dec.Pending(), "cut at %d", cut)
	}
}

func TestDecoderHoldsIncompleteSequence(t *testing.T) {
	t.Parallel()

	euro := []byte("€")
	dec := sse.NewDecoder()

	assert.Equal(t, "a", dec.Decode(append([]byte("a"), euro[0])))
	assert.Equal(t, 1, dec.Pending())
	assert.Empty(t, dec.Decode(euro[1:2]))
	assert.Equal(t, 2, dec.Pending())
	assert.Equal(t, "€b", dec.Decode(append(euro[2:3:3], 'b')))
	assert.Zero(t, dec.Pending())
}

func TestDecoderInvalidBytes(t *testing.T) {
	t.Parallel()

	dec := sse.NewDecoder()
	got := dec.Decode([]byte{'o', 'k', 0xff, '!'})

	assert.Equal(t, "ok�!", got)
}

func TestDecoderFlushTruncated(t *testing.T) {
	t.Parallel()

	dec := sse.NewDecoder()
	assert.Equal(t, "x", dec.Decode([]byte{'x', 0xe2, 0x82}))

	flushed := dec.Flush()
	assert.True(t, strings.HasPrefix(flushed, "�"))
	assert.Zero(t, dec.Pending())
	assert.Empty(t, dec.Flush())
}
