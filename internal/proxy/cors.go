package proxy

import "net/http"

// CORS values advertised to callers.
const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "*"
	corsMaxAge       = "86400"
)

// SetCORSHeaders lets any origin read the response. An explicit Origin is
// echoed with credentials allowed; without one the wildcard is used and
// credentials are not.
func SetCORSHeaders(h http.Header, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
	} else {
		h.Set("Access-Control-Allow-Origin", "*")
		h.Del("Access-Control-Allow-Credentials")
	}
	h.Set("Access-Control-Expose-Headers", "*")
}

// WritePreflight answers an OPTIONS request without contacting the upstream.
func WritePreflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	SetCORSHeaders(h, r)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
		h.Set("Access-Control-Allow-Headers", requested)
	} else {
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	}
	h.Set("Access-Control-Max-Age", corsMaxAge)
	w.WriteHeader(http.StatusNoContent)
}
