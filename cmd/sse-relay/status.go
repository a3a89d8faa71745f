package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/omarluq/sse-relay/internal/config"
)

// statusTimeout bounds the health request.
const statusTimeout = 5 * time.Second

var statusURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if the sse-relay server is running",
	Long: `Check the health status of a running sse-relay server by querying
its /health endpoint.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "", "relay base URL (default: http://{server.listen})")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	base := statusURL
	if base == "" {
		cfg, err := loadConfigOrDefault(findConfigFile())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		base = "http://" + cfg.Server.Listen
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()
	return checkHealth(ctx, cmd.OutOrStdout(), http.DefaultClient, base)
}

// checkHealth queries base/health and reports the result on out.
func checkHealth(ctx context.Context, out io.Writer, hc *http.Client, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", http.NoBody)
	if err != nil {
		return err
	}

	resp, err := hc.Do(req)
	if err != nil {
		fmt.Fprintf(out, "✗ sse-relay is not running (%s)\n", base)
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(out, "✗ sse-relay returned unexpected status: %d\n", resp.StatusCode)
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	version := gjson.GetBytes(body, "version").String()
	if version == "" {
		version = "unknown version"
	}
	fmt.Fprintf(out, "✓ sse-relay is running (%s, %s)\n", base, version)
	return nil
}

// loadConfigOrDefault loads path, or defaults plus environment overrides
// when path is empty.
func loadConfigOrDefault(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, config.ApplyEnv(cfg)
	}
	return config.Load(path)
}
