// Package cli implements the productlobby command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/productlobby/signal/internal/daemon"
	"github.com/productlobby/signal/internal/infra/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "productlobby",
	Short: "ProductLobby demand signal service",
	Long: `productlobby scores consumer demand for product campaigns.

It serves the signal-score API, records lobbies and pledges, and keeps
cached scores fresh with a background rescore sweep.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default $PRODUCTLOBBY_HOME/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// loadConfig reads --config, or the default location when unset.
func loadConfig() (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.ConfigPath()
	}
	return daemon.Load(path)
}

// commandLogger logs to stderr so command output on stdout stays parseable.
func commandLogger(cfg daemon.Config) *slog.Logger {
	return logging.SetupWriter(os.Stderr, "productlobby", cfg.Log.Level, cfg.Log.Format)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
