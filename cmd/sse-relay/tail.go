package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omarluq/sse-relay/cmd/sse-relay/di"
	"github.com/omarluq/sse-relay/internal/auth"
	"github.com/omarluq/sse-relay/internal/client"
	"github.com/omarluq/sse-relay/internal/config"
	"github.com/omarluq/sse-relay/internal/header"
	relayro "github.com/omarluq/sse-relay/internal/ro"
)

// tailOptions holds the tail command flags.
type tailOptions struct {
	Bearer      string
	Basic       string
	APIKey      string
	Cookie      string
	RelayURL    string
	Contains    string
	Headers     []string
	Types       []string
	Limit       int64
	ViaRelay    bool
	Restore     bool
	JSON        bool
	NoLifecycle bool
	Debug       bool
}

var tailFlags tailOptions

var tailCmd = &cobra.Command{
	Use:   "tail [url]",
	Short: "Stream events from an SSE endpoint",
	Long: `Connect to a text/event-stream endpoint, directly or through the relay, and
print each event as it arrives. The stream ends when the server closes it, on
--limit, or on Ctrl-C.

The URL, cookie, headers and credentials default to the client section of the
config file. The last request is saved to the configured store; --restore
reconnects with it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	f := tailCmd.Flags()
	f.StringVar(&tailFlags.Bearer, "bearer", "", "send Authorization: Bearer <token>")
	f.StringVar(&tailFlags.Basic, "basic", "", "send basic auth as user:password")
	f.StringVar(&tailFlags.APIKey, "api-key", "", "send an API key as Header-Name:token")
	f.StringVar(&tailFlags.Cookie, "cookie", "", "cookie header value")
	f.StringArrayVarP(&tailFlags.Headers, "header", "H", nil, "extra request header as 'Name: value' (repeatable)")
	f.BoolVar(&tailFlags.ViaRelay, "via-relay", false, "connect through the relay")
	f.StringVar(&tailFlags.RelayURL, "relay-url", "", "relay base URL including mount prefix (default: local relay)")
	f.StringArrayVarP(&tailFlags.Types, "type", "t", nil, "only print events of this type (repeatable)")
	f.StringVar(&tailFlags.Contains, "grep", "", "only print events whose payload contains this text")
	f.BoolVar(&tailFlags.NoLifecycle, "no-lifecycle", false, "hide connected, disconnected and error events")
	f.Int64VarP(&tailFlags.Limit, "limit", "n", 0, "stop after this many printed events")
	f.BoolVar(&tailFlags.JSON, "json", false, "print events as JSON lines")
	f.BoolVar(&tailFlags.Restore, "restore", false, "reconnect with the last saved request")
	f.BoolVar(&tailFlags.Debug, "debug", false, "log each event and connection details to stderr")
	tailCmd.MarkFlagsMutuallyExclusive("bearer", "basic", "api-key")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	opts := tailFlags
	overrides := []di.ConfigOverride{func(c *config.Config) {
		if opts.RelayURL != "" {
			c.Client.RelayURL = opts.RelayURL
		}
		if opts.Debug {
			c.Logging.Level = config.LevelDebug
		}
	}}

	container, err := di.NewContainer(findConfigFile(), overrides...)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Shutdown(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		if _, err := relayro.WaitForShutdown(ctx); err == nil {
			cancel()
		}
	}()

	return tail(ctx, cmd.OutOrStdout(), container, opts, args)
}

// tail connects and prints events until the stream closes or ctx is done.
func tail(ctx context.Context, out io.Writer, container *di.Container, opts tailOptions, args []string) error {
	cfgSvc, err := di.Invoke[*di.ConfigService](container)
	if err != nil {
		return err
	}
	clientSvc, err := di.Invoke[*di.ClientService](container)
	if err != nil {
		return err
	}
	loggerSvc := di.MustInvoke[*di.LoggerService](container)
	c := clientSvc.Client

	base := requestFromConfig(cfgSvc.Get().Client)
	if opts.Restore {
		saved, err := c.Restore(ctx)
		if err != nil {
			return fmt.Errorf("no saved request to restore: %w", err)
		}
		base = saved
	}

	req, err := buildRequest(base, opts, args)
	if err != nil {
		return err
	}

	connectErr := c.Connect(ctx, req)
	var cfgErr *client.ConfigError
	switch {
	case errors.As(connectErr, &cfgErr):
		return connectErr
	case errors.Is(connectErr, context.Canceled):
		return nil
	}

	tailOpts := relayro.TailOptions{
		Filter: relayro.EventFilter{
			Types:         opts.Types,
			Contains:      opts.Contains,
			SkipLifecycle: opts.NoLifecycle,
		},
		Limit:       opts.Limit,
		UntilClosed: true,
	}
	if opts.Debug {
		tailOpts.Logger = loggerSvc.Logger
	}

	p := newPrinter(out, opts.JSON)
	tailErr := relayro.Tail(ctx, c.Observe(), tailOpts, p.Print)

	c.Disconnect()
	return errors.Join(connectErr, tailErr)
}

// requestFromConfig maps the client config section to a connect request.
func requestFromConfig(cc config.ClientConfig) client.ConnectRequest {
	return client.ConnectRequest{
		URL:      cc.URL,
		Cookie:   cc.Cookie,
		Headers:  append([]header.Field(nil), cc.Headers...),
		Auth:     cc.Auth,
		ViaRelay: cc.ViaRelay,
	}
}

// buildRequest applies the URL argument and flags on top of base.
func buildRequest(base client.ConnectRequest, opts tailOptions, args []string) (client.ConnectRequest, error) {
	req := base
	if len(args) > 0 {
		req.URL = args[0]
	}
	if opts.Cookie != "" {
		req.Cookie = opts.Cookie
	}
	if opts.ViaRelay {
		req.ViaRelay = true
	}

	for _, raw := range opts.Headers {
		f, err := parseHeader(raw)
		if err != nil {
			return req, err
		}
		req.Headers = append(req.Headers, f)
	}

	switch {
	case opts.Bearer != "":
		req.Auth = auth.Bearer(opts.Bearer)
	case opts.Basic != "":
		user, pass, ok := strings.Cut(opts.Basic, ":")
		if !ok {
			return req, fmt.Errorf("--basic must be user:password")
		}
		req.Auth = auth.Basic(user, pass)
	case opts.APIKey != "":
		name, token, ok := strings.Cut(opts.APIKey, ":")
		if !ok {
			return req, fmt.Errorf("--api-key must be Header-Name:token")
		}
		req.Auth = auth.APIKey(strings.TrimSpace(name), strings.TrimSpace(token))
	}

	return req, nil
}

// parseHeader parses "Name: value".
func parseHeader(raw string) (header.Field, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return header.Field{}, fmt.Errorf("invalid header %q: want 'Name: value'", raw)
	}
	return header.Field{Name: name, Value: strings.TrimSpace(value)}, nil
}
