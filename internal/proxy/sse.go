package proxy

import (
	"mime"
	"net/http"
)

// ContentTypeSSE is the media type of a Server-Sent Events stream.
const ContentTypeSSE = "text/event-stream"

// SetSSEHeaders sets required headers for SSE streaming.
// These headers MUST be set for proper streaming through nginx/CDN:
//   - Content-Type: text/event-stream - SSE format
//   - Cache-Control: no-cache - prevent caching
//   - X-Accel-Buffering: no - disable nginx/Cloudflare buffering
//   - Connection: keep-alive - maintain streaming connection
func SetSSEHeaders(h http.Header) {
	h.Set("Content-Type", ContentTypeSSE)
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	h.Set("Connection", "keep-alive")
	h.Del("Content-Length")
}

// IsSSEContentType reports whether a Content-Type header names an event stream.
func IsSSEContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == ContentTypeSSE
}
