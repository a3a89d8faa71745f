package main

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// localConfigNames are looked up in the working directory, in order.
var localConfigNames = []string{"sse-relay.yaml", "sse-relay.yml", "sse-relay.toml"}

// findConfigFile returns the --config flag, else the first config file found
// in the working directory or ~/.config/sse-relay/. It returns "" when none
// exists, which means defaults plus environment overrides.
func findConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}

	candidates := append([]string(nil), localConfigNames...)
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dir := filepath.Join(home, ".config", "sse-relay")
		candidates = append(candidates,
			filepath.Join(dir, defaultConfigFile),
			filepath.Join(dir, "config.toml"),
		)
	}

	path, _ := lo.Find(candidates, func(p string) bool {
		info, err := os.Stat(p)
		return err == nil && !info.IsDir()
	})
	return path
}
