// Package header provides the ordered header set used to build outbound
// stream requests and the header filtering rules applied by the relay.
//
// The relay sits between a browser and an arbitrary SSE origin:
//
//	Browser <--> Relay <--> Upstream origin
//
// and each leg negotiates hops, encoding and cookies independently.
package header

import (
	"net/http"
)

// Field is a single header name/value pair.
type Field struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// Set is an ordered mapping of header name to value. Names compare
// case-insensitively; setting an existing name replaces its value (and
// spelling) in place, so insertion order is the order of first appearance.
// A Set is built fresh for each connection attempt.
type Set struct {
	index  map[string]int
	fields []Field
}

// NewSet returns a Set holding fields, applied in order with
// last-write-wins semantics.
func NewSet(fields ...Field) *Set {
	s := &Set{index: make(map[string]int, len(fields))}
	s.Add(fields...)
	return s
}

// Defaults returns the fixed lowest-priority headers for an SSE request.
func Defaults() *Set {
	return NewSet(
		Field{Name: "Accept", Value: "text/event-stream"},
		Field{Name: "Cache-Control", Value: "no-cache"},
	)
}

func key(name string) string {
	return http.CanonicalHeaderKey(name)
}

// Set assigns value to name, replacing any existing entry.
func (s *Set) Set(name, value string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}

	k := key(name)
	if i, ok := s.index[k]; ok {
		s.fields[i] = Field{Name: name, Value: value}
		return
	}

	s.index[k] = len(s.fields)
	s.fields = append(s.fields, Field{Name: name, Value: value})
}

// Add applies fields in order. Empty names are skipped.
func (s *Set) Add(fields ...Field) {
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		s.Set(f.Name, f.Value)
	}
}

// Merge applies every field of other on top of s.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	s.Add(other.fields...)
}

// Get returns the value for name.
func (s *Set) Get(name string) (string, bool) {
	i, ok := s.index[key(name)]
	if !ok {
		return "", false
	}
	return s.fields[i].Value, true
}

// Del removes name if present.
func (s *Set) Del(name string) {
	k := key(name)
	i, ok := s.index[k]
	if !ok {
		return
	}

	s.fields = append(s.fields[:i], s.fields[i+1:]...)
	delete(s.index, k)
	for j := i; j < len(s.fields); j++ {
		s.index[key(s.fields[j].Name)] = j
	}
}

// Len returns the number of distinct header names.
func (s *Set) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the entries in order.
func (s *Set) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Apply writes every entry onto h, replacing existing values.
func (s *Set) Apply(h http.Header) {
	for _, f := range s.fields {
		h.Set(f.Name, f.Value)
	}
}
