package proxy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidTarget is matched by every TargetError.
var ErrInvalidTarget = errors.New("invalid relay target")

// TargetError reports a relay path that cannot be split into host and rest.
type TargetError struct {
	Path   string
	Reason string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("invalid relay target %q: %s", e.Path, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidTarget) match.
func (e *TargetError) Unwrap() error {
	return ErrInvalidTarget
}

// Target is the upstream decoded from a relay request path.
type Target struct {
	// Host is the authority, optionally with a port. It never contains
	// '/' or '?'.
	Host string
	// Path is the remainder, beginning with '/', including any query.
	Path string
}

// URL returns https://{Host}{Path}.
func (t Target) URL() string {
	return "https://" + t.Host + t.Path
}

// ParseTarget decodes {prefix}/{host}{rest} from u. The escaped path is used
// so percent-encoded segments reach the upstream unchanged.
func ParseTarget(prefix string, u *url.URL) (Target, error) {
	path := u.EscapedPath()
	fail := func(reason string) (Target, error) {
		return Target{}, &TargetError{Path: path, Reason: reason}
	}

	rest, ok := strings.CutPrefix(path, strings.TrimRight(prefix, "/"))
	if !ok {
		return fail("path is outside the relay prefix")
	}
	rest = strings.TrimPrefix(rest, "/")

	host, tail, _ := strings.Cut(rest, "/")
	if host == "" {
		return fail("missing target host")
	}
	if strings.ContainsAny(host, "?#@\\ ") {
		return fail("host contains invalid characters")
	}

	tail = "/" + tail
	if u.RawQuery != "" {
		tail += "?" + u.RawQuery
	}

	t := Target{Host: host, Path: tail}
	parsed, err := url.Parse(t.URL())
	if err != nil {
		return fail(err.Error())
	}
	if parsed.Host != host || parsed.Hostname() == "" {
		return fail("host is not a valid authority")
	}
	return t, nil
}
