package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/omarluq/sse-relay/internal/sse"
)

// typeColors maps event types to ANSI colors for terminal output.
var typeColors = map[string]string{
	sse.TypeConnected:    "\033[32m",
	sse.TypeDisconnected: "\033[33m",
	sse.TypeError:        "\033[31m",
}

const (
	colorDefault = "\033[36m"
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
)

// printer writes events as console lines or JSON lines.
type printer struct {
	out   io.Writer
	enc   *json.Encoder
	color bool
}

func newPrinter(out io.Writer, asJSON bool) *printer {
	p := &printer{out: out}
	if asJSON {
		p.enc = json.NewEncoder(out)
		return p
	}
	if f, ok := out.(*os.File); ok {
		p.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

// Print writes one event.
func (p *printer) Print(e sse.Event) error {
	if p.enc != nil {
		return p.enc.Encode(e)
	}

	ts := e.Timestamp.Format("15:04:05.000")
	tag := "[" + e.Type + "]"
	body := payload(e)

	if !p.color {
		_, err := fmt.Fprintf(p.out, "%s %s %s\n", ts, tag, body)
		return err
	}

	color, ok := typeColors[e.Type]
	if !ok {
		color = colorDefault
	}
	_, err := fmt.Fprintf(p.out, "%s%s%s %s%s%s %s\n", colorDim, ts, colorReset, color, tag, colorReset, body)
	return err
}

// payload is the raw frame data, or the message of a lifecycle event.
func payload(e sse.Event) string {
	if !e.IsLifecycle() {
		return e.Raw
	}
	if data, ok := e.Data.(map[string]any); ok {
		if msg, ok := data["message"].(string); ok {
			return msg
		}
	}
	return e.Raw
}
