// Package di provides dependency injection using samber/do v2.
// It creates and configures the DI container with all service providers.
package di

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/omarluq/sse-relay/internal/config"
)

// ConfigPathKey is the named key for the config path string.
// An empty path means defaults plus environment overrides.
const ConfigPathKey = "config.path"

// ConfigOverride adjusts the loaded configuration, typically from CLI flags.
// Overrides run after loading and before validation, and again on every
// hot reload so flags keep precedence over the file.
type ConfigOverride func(*config.Config)

// Container wraps the do.Injector with sse-relay specific configuration.
type Container struct {
	injector *do.RootScope
}

// NewContainer creates and configures the DI container.
// Services are resolved lazily on first Invoke.
func NewContainer(configPath string, overrides ...ConfigOverride) (*Container, error) {
	injector := do.New()

	do.ProvideNamedValue(injector, ConfigPathKey, configPath)
	do.ProvideValue(injector, overrides)

	RegisterSingletons(injector)

	return &Container{
		injector: injector,
	}, nil
}

// Injector returns the underlying do.Injector for service resolution.
func (c *Container) Injector() *do.RootScope {
	return c.injector
}

// Invoke resolves a service from the container.
// Returns an error if the service is not registered or fails to initialize.
func Invoke[T any](c *Container) (T, error) {
	return do.Invoke[T](c.injector)
}

// MustInvoke resolves a service from the container or panics.
// Use this only during application startup where errors are fatal.
func MustInvoke[T any](c *Container) T {
	return do.MustInvoke[T](c.injector)
}

// Shutdown gracefully shuts down all services in reverse order of initialization.
func (c *Container) Shutdown() error {
	report := c.injector.Shutdown()
	if report != nil && !report.Succeed {
		return fmt.Errorf("shutdown failed: %s", report.Error())
	}
	return nil
}

// ShutdownWithContext gracefully shuts down with context for timeout control.
func (c *Container) ShutdownWithContext(ctx context.Context) error {
	done := make(chan *do.ShutdownReport, 1)
	go func() {
		done <- c.injector.ShutdownWithContext(ctx)
	}()

	select {
	case report := <-done:
		if report != nil && !report.Succeed {
			return fmt.Errorf("shutdown failed: %s", report.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// HealthCheck resolves the configuration so load and validation errors
// surface before any listener or stream is opened.
func (c *Container) HealthCheck() error {
	if _, err := do.Invoke[*ConfigService](c.injector); err != nil {
		return fmt.Errorf("config service unhealthy: %w", err)
	}
	return nil
}
