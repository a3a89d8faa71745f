package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/omarluq/sse-relay/internal/auth"
	"github.com/omarluq/sse-relay/internal/header"
)

// ConnectRequest describes one connection attempt.
type ConnectRequest struct {
	URL string `json:"url" yaml:"url" toml:"url"`
	// Cookie is sent as the Cookie header, or as X-Cookie through the relay.
	Cookie string `json:"cookie,omitempty" yaml:"cookie" toml:"cookie"`
	// Headers are applied over the defaults and under the auth headers.
	// Later entries win over earlier ones with the same name.
	Headers  []header.Field `json:"headers,omitempty" yaml:"headers" toml:"headers"`
	Auth     auth.Config    `json:"auth" yaml:"auth" toml:"auth"`
	ViaRelay bool           `json:"via_relay,omitempty" yaml:"via_relay" toml:"via_relay"`
}

// Validate checks the request without touching the network.
func (r *ConnectRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return &ConfigError{Err: ErrMissingURL}
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return &ConfigError{Err: fmt.Errorf("%w: %w", ErrInvalidURL, err)}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Err: fmt.Errorf("%w: %q must be an absolute http(s) url", ErrInvalidURL, r.URL)}
	}
	if r.ViaRelay && u.Scheme != "https" {
		return &ConfigError{Err: fmt.Errorf("%w: the relay only reaches https targets", ErrInvalidURL)}
	}

	if err := r.Auth.Validate(); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

// headerSet assembles the outbound header set: defaults, then custom headers,
// then auth-derived headers, then the cookie.
func (r *ConnectRequest) headerSet() (*header.Set, error) {
	hs := header.Defaults()
	hs.Merge(header.NewSet(r.Headers...))

	authHeaders, err := r.Auth.Headers()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	hs.Merge(authHeaders)

	if r.Cookie != "" {
		if r.ViaRelay {
			hs.Set(header.CookieCarriers[0], r.Cookie)
		} else {
			hs.Set("Cookie", r.Cookie)
		}
	}
	return hs, nil
}

// endpoint returns the URL the request is actually sent to.
func (r *ConnectRequest) endpoint(relayURL string) (string, error) {
	if !r.ViaRelay {
		return r.URL, nil
	}
	if relayURL == "" {
		return "", &ConfigError{Err: ErrNoRelay}
	}
	return RelayTarget(relayURL, r.URL)
}

// newHTTPRequest builds the GET for r. It is not yet bound to a session
// context, so every configuration error surfaces before the previous stream
// is touched.
func (r *ConnectRequest) newHTTPRequest(relayURL string) (*http.Request, error) {
	endpoint, err := r.endpoint(relayURL)
	if err != nil {
		return nil, err
	}

	hs, err := r.headerSet()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %w", ErrInvalidURL, err)}
	}
	hs.Apply(req.Header)
	return req, nil
}

// RelayTarget rewrites an https target URL into the relay form
// {relayURL}/{host}{path}?{query}.
func RelayTarget(relayURL, target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", &ConfigError{Err: fmt.Errorf("%w: %w", ErrInvalidURL, err)}
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", &ConfigError{Err: fmt.Errorf("%w: %q is not an https url", ErrInvalidURL, target)}
	}

	rest := u.EscapedPath()
	if rest == "" {
		rest = "/"
	}
	if u.RawQuery != "" {
		rest += "?" + u.RawQuery
	}

	return strings.TrimRight(relayURL, "/") + "/" + u.Host + rest, nil
}
