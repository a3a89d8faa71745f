// Package auth describes the credentials attached to outbound stream
// requests. A Config is a tagged union: exactly one of none, bearer, basic
// or apikey, each with its own required fields.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/omarluq/sse-relay/internal/header"
)

// Type represents the authentication scheme.
type Type string

const (
	// TypeNone sends no credentials.
	TypeNone Type = "none"
	// TypeBearer sends Authorization: Bearer <token>.
	TypeBearer Type = "bearer"
	// TypeBasic sends Authorization: Basic base64(username:password).
	TypeBasic Type = "basic"
	// TypeAPIKey sends <header_name>: <token>.
	TypeAPIKey Type = "apikey"
)

// Errors returned by Validate.
var (
	// ErrIncomplete is matched by every ConfigError.
	ErrIncomplete = errors.New("auth: incomplete credentials")

	// ErrUnknownType is returned for an unrecognized Type.
	ErrUnknownType = errors.New("auth: unknown type")
)

// ConfigError reports a required credential field that is empty.
type ConfigError struct {
	Type  Type
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("auth: %s authentication requires %s", e.Type, e.Field)
}

// Unwrap lets errors.Is(err, ErrIncomplete) match.
func (e *ConfigError) Unwrap() error {
	return ErrIncomplete
}

// Config holds one authentication variant. Fields that do not belong to the
// selected Type are ignored.
type Config struct {
	Type       Type   `json:"type" yaml:"type" toml:"type"`
	Token      string `json:"token,omitempty" yaml:"token" toml:"token"`
	Username   string `json:"username,omitempty" yaml:"username" toml:"username"`
	Password   string `json:"password,omitempty" yaml:"password" toml:"password"`
	HeaderName string `json:"header_name,omitempty" yaml:"header_name" toml:"header_name"`
}

// None returns a Config that sends no credentials.
func None() Config {
	return Config{Type: TypeNone}
}

// Bearer returns a bearer-token Config.
func Bearer(token string) Config {
	return Config{Type: TypeBearer, Token: token}
}

// Basic returns a username/password Config.
func Basic(username, password string) Config {
	return Config{Type: TypeBasic, Username: username, Password: password}
}

// APIKey returns a Config that sends token under headerName.
func APIKey(headerName, token string) Config {
	return Config{Type: TypeAPIKey, HeaderName: headerName, Token: token}
}

// EffectiveType normalizes Type. Empty means none; "api_key" and "api-key"
// are accepted as spellings of apikey.
func (c Config) EffectiveType() Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(string(c.Type)))); t {
	case "":
		return TypeNone
	case "api_key", "api-key":
		return TypeAPIKey
	default:
		return t
	}
}

// IsConfigured reports whether any credentials will be sent.
func (c Config) IsConfigured() bool {
	return c.EffectiveType() != TypeNone
}

// Validate checks that the fields required by the selected variant are
// non-empty.
func (c Config) Validate() error {
	t := c.EffectiveType()
	switch t {
	case TypeNone:
		return nil
	case TypeBearer:
		return requireField(t, "token", c.Token)
	case TypeBasic:
		if err := requireField(t, "username", c.Username); err != nil {
			return err
		}
		return requireField(t, "password", c.Password)
	case TypeAPIKey:
		if err := requireField(t, "header_name", c.HeaderName); err != nil {
			return err
		}
		return requireField(t, "token", c.Token)
	default:
		return fmt.Errorf("%w %q", ErrUnknownType, c.Type)
	}
}

func requireField(t Type, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ConfigError{Type: t, Field: field}
	}
	return nil
}

// Headers returns the headers derived from the credentials. The Config is
// validated first.
func (c Config) Headers() (*header.Set, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	set := header.NewSet()
	switch c.EffectiveType() {
	case TypeBearer:
		set.Set("Authorization", "Bearer "+c.Token)
	case TypeBasic:
		credentials := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
		set.Set("Authorization", "Basic "+credentials)
	case TypeAPIKey:
		set.Set(c.HeaderName, c.Token)
	}
	return set, nil
}

// Redacted returns a copy safe for logging: secrets are masked.
func (c Config) Redacted() Config {
	out := c
	if out.Token != "" {
		out.Token = mask(out.Token)
	}
	if out.Password != "" {
		out.Password = "****"
	}
	return out
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
