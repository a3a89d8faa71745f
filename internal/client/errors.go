package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// maxDetailRunes bounds the upstream text quoted in an HTTPError message.
const maxDetailRunes = 200

var (
	// ErrMissingURL is returned by Connect when the request has no URL.
	ErrMissingURL = errors.New("client: url is required")

	// ErrInvalidURL is returned by Connect when the URL cannot be used.
	ErrInvalidURL = errors.New("client: invalid url")

	// ErrNoRelay is returned when relay mode is requested without a relay URL.
	ErrNoRelay = errors.New("client: relay url is not configured")
)

// ConfigError is a connection attempt rejected before any request was sent.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response from the stream endpoint.
type HTTPError struct {
	Message string
	Status  int
}

func (e *HTTPError) Error() string {
	return e.Message
}

// newHTTPError builds the user-facing message for status. The upstream body's
// JSON "message" or "error" member is preferred over the raw text.
func newHTTPError(status int, body []byte) *HTTPError {
	details := errorDetails(body)

	var msg string
	switch status {
	case http.StatusBadRequest:
		msg = "Bad request (400): the server rejected the request, check the URL, query parameters and headers"
	case http.StatusUnauthorized:
		msg = "Authentication failed (401): credentials are missing or invalid"
	case http.StatusForbidden:
		msg = "Access denied (403): the credentials do not grant access to this stream"
	default:
		if details == "" {
			details = http.StatusText(status)
		}
		return &HTTPError{Status: status, Message: fmt.Sprintf("HTTP %d: %s", status, details)}
	}

	if details != "" {
		msg += ": " + details
	}
	return &HTTPError{Status: status, Message: msg}
}

func errorDetails(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	if gjson.Valid(text) {
		parsed := gjson.Parse(text)
		for _, path := range []string{"message", "error", "error.message"} {
			if v := parsed.Get(path); v.Type == gjson.String && v.String() != "" {
				text = v.String()
				break
			}
		}
	}

	return truncate(text, maxDetailRunes)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
