// Package main is the entry point for sse-relay.
package main

import (
	"context"
	"os"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "config.yaml"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sse-relay",
	Short: "Same-origin relay and client for Server-Sent Events",
	Long: `sse-relay forwards text/event-stream responses from arbitrary https origins
through a single same-origin endpoint, so browser dashboards can attach cookies
and credentials the EventSource API cannot send. It also ships a streaming
client for tailing any SSE endpoint, directly or through the relay.`,
	SilenceUsage: true,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path, YAML or TOML (default: ./sse-relay.yaml or ~/.config/sse-relay/"+defaultConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
