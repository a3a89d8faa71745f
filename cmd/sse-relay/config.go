package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omarluq/sse-relay/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration file without starting the server.
Checks YAML/TOML syntax, addresses, relay settings and client credentials.`,
	RunE: runConfigValidate,
}

var (
	configInitOutput string
	configInitFormat string
	configInitForce  bool
	configShowFormat string
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config file",
	Long:  `Generate a default sse-relay configuration file at ~/.config/sse-relay/config.yaml`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and SSE_RELAY_* environment
overrides are applied. Client credentials and cookie are masked.`,
	RunE: runConfigShow,
}

func init() {
	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "",
		"output path (default: ~/.config/sse-relay/"+defaultConfigFile+")")
	configInitCmd.Flags().StringVar(&configInitFormat, "format", "", "yaml or toml (default: from output extension)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
	configShowCmd.Flags().StringVar(&configShowFormat, "format", string(config.FormatYAML), "yaml or toml")

	configCmd.AddCommand(configValidateCmd, configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	path := findConfigFile()
	if path == "" {
		return errors.New("no config file found (use --config)")
	}
	return validateConfigFile(cmd.OutOrStdout(), path)
}

func validateConfigFile(out io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(out, "✗ Config validation failed: %s\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "✗ Config validation failed: %s\n", err)
		return err
	}

	fmt.Fprintf(out, "✓ %s is valid\n", path)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	output := configInitOutput
	if output == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		output = filepath.Join(home, ".config", "sse-relay", defaultConfigFile)
	}
	return writeDefaultConfig(cmd.OutOrStdout(), output, config.Format(configInitFormat), configInitForce)
}

// writeDefaultConfig renders the default config to path. The format comes
// from the extension unless given.
func writeDefaultConfig(out io.Writer, path string, format config.Format, force bool) error {
	if format == "" {
		detected, err := config.DetectFormat(path)
		if err != nil {
			return err
		}
		format = detected
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	data, err := config.Marshal(config.Default(), format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(out, "✓ Config file created at %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Edit the config file to set the listen address and mount prefix")
	fmt.Fprintln(out, "  2. Validate with: sse-relay config validate --config "+path)
	fmt.Fprintln(out, "  3. Start the relay: sse-relay serve --config "+path)
	fmt.Fprintln(out, "  4. Tail a stream: sse-relay tail --via-relay https://example.com/events")
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigOrDefault(findConfigFile())
	if err != nil {
		return err
	}
	return showConfig(cmd.OutOrStdout(), cfg, config.Format(configShowFormat))
}

func showConfig(out io.Writer, cfg *config.Config, format config.Format) error {
	shown := *cfg
	shown.Client.Auth = cfg.Client.Auth.Redacted()
	if shown.Client.Cookie != "" {
		shown.Client.Cookie = "****"
	}

	data, err := config.Marshal(&shown, format)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
