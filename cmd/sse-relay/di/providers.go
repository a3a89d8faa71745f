package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/omarluq/sse-relay/internal/client"
	"github.com/omarluq/sse-relay/internal/proxy"
	"github.com/omarluq/sse-relay/internal/store"
)

// Service wrapper types for DI registration.

// LoggerService wraps the zerolog logger for DI.
type LoggerService struct {
	Logger *zerolog.Logger
}

// StoreService wraps the key-value store used by the client.
type StoreService struct {
	Store store.Store
}

// ClientService wraps the streaming client.
type ClientService struct {
	Client *client.Client
}

// HandlerService wraps the HTTP handler.
type HandlerService struct {
	Handler http.Handler
}

// ServerService wraps the HTTP server.
type ServerService struct {
	Server *proxy.Server
}

// storeInitTimeout bounds backend initialization (the Redis ping).
const storeInitTimeout = 10 * time.Second

// shutdownTimeout bounds how long open streams get to finish on shutdown.
const shutdownTimeout = 30 * time.Second

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
// 1. Config (no dependencies)
// 2. Logger (depends on Config)
// 3. Store (depends on Config, Logger)
// 4. Client (depends on Config, Logger, Store)
// 5. Handler (depends on Config, Logger)
// 6. Server (depends on Handler, Config).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewStore)
	do.Provide(i, NewClient)
	do.Provide(i, NewProxyHandler)
	do.Provide(i, NewHTTPServer)
}

// NewLogger creates the zerolog logger from configuration and installs it
// as the context default.
func NewLogger(i do.Injector) (*LoggerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	logger, err := proxy.NewLogger(cfgSvc.Config.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zerolog.DefaultContextLogger = &logger
	store.SetLogger(&logger)

	return &LoggerService{Logger: &logger}, nil
}

// NewStore creates the store based on configuration.
func NewStore(i do.Injector) (*StoreService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	do.MustInvoke[*LoggerService](i)

	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()

	s, err := store.New(ctx, &cfgSvc.Config.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return &StoreService{Store: s}, nil
}

// Shutdown implements do.Shutdowner for graceful store cleanup.
func (s *StoreService) Shutdown() error {
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}

// NewClient creates the streaming client. Its relay URL defaults to the
// local relay's mount point.
func NewClient(i do.Injector) (*ClientService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)
	storeSvc := do.MustInvoke[*StoreService](i)

	cfg := cfgSvc.Config
	relayURL := cfg.Client.RelayURL
	if relayURL == "" {
		relayURL = "http://" + cfg.Server.Listen + cfg.Relay.EffectiveMountPrefix()
	}

	c := client.New(
		client.WithLogger(*loggerSvc.Logger),
		client.WithStore(storeSvc.Store),
		client.WithRelayURL(relayURL),
		client.WithReadBufferSize(cfg.Relay.EffectiveBufferSize()),
	)
	return &ClientService{Client: c}, nil
}

// Shutdown implements do.Shutdowner and closes any open stream.
func (s *ClientService) Shutdown() error {
	if s.Client != nil {
		s.Client.Disconnect()
	}
	return nil
}

// NewProxyHandler creates the HTTP handler with all middleware. Buffer size,
// error body limit and debug options follow config hot reloads.
func NewProxyHandler(i do.Injector) (*HandlerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)

	handler := proxy.SetupRoutes(cfgSvc, *loggerSvc.Logger)
	return &HandlerService{Handler: handler}, nil
}

// NewHTTPServer creates the HTTP server.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	handlerSvc := do.MustInvoke[*HandlerService](i)

	server := proxy.NewServer(cfgSvc.Config.Server, handlerSvc.Handler)
	return &ServerService{Server: server}, nil
}

// Shutdown implements do.Shutdowner for graceful server shutdown.
func (s *ServerService) Shutdown() error {
	if s.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Server.Shutdown(ctx)
	}
	return nil
}
