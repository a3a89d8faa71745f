// Package proxy implements the sse-relay HTTP server: a same-origin relay
// that forwards text/event-stream responses from arbitrary https origins.
package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error codes used in relay error bodies.
const (
	ErrorInvalidTarget  = "invalid_target"
	ErrorUpstream       = "upstream_error"
	ErrorUpstreamFailed = "upstream_unreachable"
)

// DecodeErrorResponse is returned when the relay path names no usable target.
type DecodeErrorResponse struct {
	Error string `json:"error"`
	URL   string `json:"url"`
}

// UpstreamErrorResponse is returned when the upstream answers non-2xx or
// cannot be reached.
type UpstreamErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	TargetURL string `json:"targetUrl"`
}

// WriteDecodeError writes a 400 for a request path that cannot be decoded.
func WriteDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, DecodeErrorResponse{
		Error: err.Error(),
		URL:   r.URL.RequestURI(),
	})
}

// WriteUpstreamError writes an upstream failure with the given status.
func WriteUpstreamError(w http.ResponseWriter, status int, code, message, targetURL string) {
	writeJSON(w, status, UpstreamErrorResponse{
		Error:     code,
		Message:   message,
		TargetURL: targetURL,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Content-Length")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
