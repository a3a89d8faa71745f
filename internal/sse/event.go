package sse

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Event types emitted by the client in addition to whatever the stream names.
const (
	TypeMessage      = "message"
	TypeConnected    = "connected"
	TypeDisconnected = "disconnected"
	TypeError        = "error"
)

// Event is one entry in the client's event log.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Raw       string    `json:"raw"`
}

// IsLifecycle reports whether the event was synthesized by the client
// rather than received from the stream.
func (e Event) IsLifecycle() bool {
	switch e.Type {
	case TypeConnected, TypeDisconnected, TypeError:
		return true
	default:
		return false
	}
}

// DecodeData interprets a frame's data text. Valid JSON decodes to its
// generic value (map[string]any, []any, float64, string, bool or nil); any
// other text is returned as-is. When the JSON is an object whose "type"
// member is a string, that string is returned as typeOverride.
func DecodeData(text string) (data any, typeOverride string) {
	if !gjson.Valid(text) {
		return text, ""
	}

	parsed := gjson.Parse(text)
	if parsed.IsObject() {
		if t := parsed.Get("type"); t.Type == gjson.String {
			typeOverride = t.String()
		}
	}
	return parsed.Value(), typeOverride
}

// Builder stamps events with unique identifiers and non-decreasing
// timestamps. It is safe for concurrent use.
type Builder struct {
	last  time.Time
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

// NewBuilder returns a Builder reading time from now. A nil now uses
// time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now, newID: uuid.NewString}
}

// stamp returns a fresh ID and a timestamp no earlier than the previous one.
func (b *Builder) stamp() (string, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now()
	if ts.Before(b.last) {
		ts = b.last
	}
	b.last = ts
	return b.newID(), ts
}

// FromFrame builds the event for a parsed frame. The type resolves, in
// order, to the JSON "type" member, the frame's event field, then "message".
func (b *Builder) FromFrame(f Frame) Event {
	data, override := DecodeData(f.Data)

	eventType := TypeMessage
	switch {
	case override != "":
		eventType = override
	case f.Type != "":
		eventType = f.Type
	}

	id, ts := b.stamp()
	return Event{ID: id, Type: eventType, Data: data, Timestamp: ts, Raw: f.Data}
}

// Connected builds the event recorded once a stream is established.
func (b *Builder) Connected(url string, authenticated bool) Event {
	raw := "{}"
	raw, _ = sjson.Set(raw, "message", "Connected to "+url)
	raw, _ = sjson.Set(raw, "url", url)
	raw, _ = sjson.Set(raw, "authenticated", authenticated)
	return b.lifecycle(TypeConnected, raw)
}

// Disconnected builds the event recorded when a live stream ends.
func (b *Builder) Disconnected(reason string) Event {
	raw, _ := sjson.Set("{}", "message", reason)
	return b.lifecycle(TypeDisconnected, raw)
}

// Error builds the event recorded when a connection attempt or an open
// stream fails. A zero status is omitted.
func (b *Builder) Error(message string, status int) Event {
	raw, _ := sjson.Set("{}", "message", message)
	if status != 0 {
		raw, _ = sjson.SetRaw(raw, "status", strconv.Itoa(status))
	}
	return b.lifecycle(TypeError, raw)
}

func (b *Builder) lifecycle(eventType, raw string) Event {
	id, ts := b.stamp()
	return Event{ID: id, Type: eventType, Data: gjson.Parse(raw).Value(), Timestamp: ts, Raw: raw}
}
