package header

import (
	"net/http"

	"github.com/samber/lo"
)

// CookieCarriers are the request headers a browser can use to smuggle a
// cookie value to the relay, in priority order. Browsers refuse to let page
// code set Cookie on a cross-origin fetch, so the value travels under one of
// these names and is re-attached as Cookie on the upstream leg.
var CookieCarriers = []string{"X-Cookie", "X-Auth-Cookie", "X-Cookie-Header"}

// skipRequest is the set of inbound request headers (browser --> relay --> upstream)
// that are never forwarded to the upstream origin.
var skipRequest = map[string]struct{}{
	// The Host header is rewritten by http.Transport to match the upstream URL.
	"Host": {},

	// Hop-by-hop headers: only meaningful for a single transport-level connection.
	"Connection":        {},
	"Transfer-Encoding": {},
	"Upgrade":           {},

	// The relay streams the body itself; the transport computes its own length.
	"Content-Length": {},

	// Stripped so http.Transport negotiates (and transparently decodes) compression.
	"Accept-Encoding": {},

	// WebSocket negotiation never applies to an SSE stream.
	"Sec-Websocket-Key":        {},
	"Sec-Websocket-Version":    {},
	"Sec-Websocket-Extensions": {},
	"Sec-Websocket-Protocol":   {},
	"Sec-Websocket-Accept":     {},
}

// skipResponse is the set of upstream response headers (browser <-- relay <-- upstream)
// that are not copied back to the caller.
var skipResponse = map[string]struct{}{
	// The body the relay writes is already decoded by http.Transport.
	"Content-Encoding": {},

	// The caller-facing leg manages its own chunking.
	"Transfer-Encoding": {},
}

func isCookieCarrier(name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	return lo.ContainsBy(CookieCarriers, func(c string) bool {
		return http.CanonicalHeaderKey(c) == canonical
	})
}

// ResolveCookie picks the effective upstream Cookie value: the first
// non-empty cookie carrier in priority order, else the inbound Cookie
// header verbatim. ok is false when no cookie should be sent.
func ResolveCookie(in http.Header) (cookie string, ok bool) {
	carrier, found := lo.Find(CookieCarriers, func(name string) bool {
		return in.Get(name) != ""
	})
	if found {
		return in.Get(carrier), true
	}

	if cookie := in.Get("Cookie"); cookie != "" {
		return cookie, true
	}
	return "", false
}

// UpstreamRequest builds the outbound header for the relay's upstream call:
// SSE defaults, then every inbound header except the skip set and the cookie
// carriers, then the resolved Cookie.
func UpstreamRequest(in http.Header) http.Header {
	out := make(http.Header, len(in)+2)
	Defaults().Apply(out)

	for name, values := range in {
		canonical := http.CanonicalHeaderKey(name)
		if _, skip := skipRequest[canonical]; skip {
			continue
		}
		if isCookieCarrier(canonical) || canonical == "Cookie" {
			continue
		}
		out[canonical] = append([]string(nil), values...)
	}

	if cookie, ok := ResolveCookie(in); ok {
		out.Set("Cookie", cookie)
	}

	return out
}

// CopyResponse copies upstream response headers onto dst, skipping the
// encoding headers the relay cannot pass through.
func CopyResponse(dst, src http.Header) {
	for name, values := range src {
		if _, skip := skipResponse[http.CanonicalHeaderKey(name)]; skip {
			continue
		}
		dst[name] = append([]string(nil), values...)
	}
}
