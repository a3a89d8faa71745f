package client

import (
	"time"

	"github.com/samber/mo"
)

// Status is the connection phase of a Client.
type Status string

const (
	// StatusIdle means no stream is open.
	StatusIdle Status = "idle"
	// StatusConnecting means a request has been sent and no response has arrived.
	StatusConnecting Status = "connecting"
	// StatusConnected means the stream is open and being read.
	StatusConnected Status = "connected"
)

// State is a snapshot of the client's connection state.
type State struct {
	// Error holds the message of the last failure. It is cleared by the
	// next Connect.
	Error mo.Option[string]
	// Since is the instant the current stream was established.
	Since  mo.Option[time.Time]
	Status Status
}

// IsConnected reports whether a stream is open.
func (s State) IsConnected() bool {
	return s.Status == StatusConnected
}

func idleState() State {
	return State{Status: StatusIdle, Error: mo.None[string](), Since: mo.None[time.Time]()}
}
