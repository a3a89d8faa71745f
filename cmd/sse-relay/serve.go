package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omarluq/sse-relay/cmd/sse-relay/di"
	"github.com/omarluq/sse-relay/internal/config"
	relayro "github.com/omarluq/sse-relay/internal/ro"
	"github.com/omarluq/sse-relay/internal/vinfo"
)

// serveShutdownTimeout bounds how long open streams get after a shutdown signal.
const serveShutdownTimeout = 30 * time.Second

var (
	serveListen string
	serveDebug  bool
	serveHTTP2  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSE relay server",
	Long: `Start the relay server. Requests to {mount_prefix}/{host}/{path} are
forwarded to https://{host}/{path} and the response is streamed back with
permissive CORS headers.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging with all debug options")
	serveCmd.Flags().BoolVar(&serveHTTP2, "http2", false, "accept HTTP/2 cleartext (h2c) connections")
	rootCmd.AddCommand(serveCmd)
}

// serveOverrides turns serve flags into config overrides.
func serveOverrides() []di.ConfigOverride {
	var overrides []di.ConfigOverride
	if serveListen != "" {
		listen := serveListen
		overrides = append(overrides, func(c *config.Config) { c.Server.Listen = listen })
	}
	if serveDebug {
		overrides = append(overrides, func(c *config.Config) { c.Logging.EnableAllDebugOptions() })
	}
	if serveHTTP2 {
		overrides = append(overrides, func(c *config.Config) { c.Server.EnableHTTP2 = true })
	}
	return overrides
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath := findConfigFile()

	container, err := di.NewContainer(configPath, serveOverrides()...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		sig, err := relayro.WaitForShutdown(ctx)
		if err != nil {
			return
		}
		log.Info().Str("signal", sig.String()).Msg("shutting down...")
		cancel()
	}()

	return serve(ctx, container, nil)
}

// serve runs the relay until ctx is done, then shuts the container down.
// ready, when non-nil, receives the bound address once the listener is open.
func serve(ctx context.Context, container *di.Container, ready func(addr string)) error {
	if err := container.HealthCheck(); err != nil {
		return err
	}

	cfgSvc := di.MustInvoke[*di.ConfigService](container)
	loggerSvc, err := di.Invoke[*di.LoggerService](container)
	if err != nil {
		return err
	}
	logger := loggerSvc.Logger
	log.Logger = *logger

	serverSvc, err := di.Invoke[*di.ServerService](container)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build server")
		return err
	}

	if err := cfgSvc.StartWatching(ctx, *logger); err != nil {
		logger.Warn().Err(err).Msg("config hot reload disabled")
	}

	ln, err := net.Listen("tcp", serverSvc.Server.Addr())
	if err != nil {
		logger.Error().Err(err).Str("listen", serverSvc.Server.Addr()).Msg("failed to listen")
		return fmt.Errorf("listen %s: %w", serverSvc.Server.Addr(), err)
	}

	cfg := cfgSvc.Get()
	logger.Info().
		Str("listen", ln.Addr().String()).
		Str("mount_prefix", cfg.Relay.EffectiveMountPrefix()).
		Bool("http2", cfg.Server.EnableHTTP2).
		Str("version", vinfo.String()).
		Msg("starting sse-relay")

	errCh := make(chan error, 1)
	go func() {
		errCh <- serverSvc.Server.Serve(ln)
	}()
	if ready != nil {
		ready(ln.Addr().String())
	}

	var serveErr error
	select {
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error().Err(serveErr).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	if err := container.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		serveErr = errors.Join(serveErr, err)
	}

	logger.Info().Msg("server stopped")
	return serveErr
}
