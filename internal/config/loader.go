package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a config file syntax.
type Format string

// Supported config file formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for a config file extension that is
// neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and parses a configuration file from the given path.
// The format follows the file extension. Environment variables in the format
// ${VAR_NAME} are expanded before parsing and SSE_RELAY_* variables override
// the parsed values.
func Load(path string) (cfg *Config, err error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}

	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", cerr)
		}
	}()

	return LoadFromReader(file, format)
}

// LoadFromReader reads and parses configuration from an io.Reader.
// Values missing from the input keep their defaults.
func LoadFromReader(r io.Reader, format Format) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(content)))

	cfg := Default()
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(expanded, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(expanded))
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any SSE_RELAY_* environment variables that
// are set. Unset variables leave the existing values alone.
func ApplyEnv(cfg *Config) error {
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// Marshal renders cfg in the given format.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatTOML:
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
