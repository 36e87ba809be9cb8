// Package commands implements the lumi CLI commands.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var versionInfo struct {
	version string
	commit  string
	date    string
}

// SetVersionInfo sets version information from main (populated by goreleaser).
func SetVersionInfo(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
	rootCmd.Version = version
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lumi",
	Short: "Launcher for the Lumi file assistant",
	Long: `lumi launches and supervises the Lumi file assistant:

1. Starts the bundled worker process and waits for it to report ready
2. Serves the chat panel over loopback HTTP and opens it in your browser
3. Relays chat messages to the worker's local API

Commands:
  lumi start            - Start the worker and open the chat panel
  lumi chat [message]   - Chat with the worker from the terminal
  lumi ask <prompt>     - Send a raw prompt to the worker's LLM
  lumi status           - Check worker component health

Configuration (lumi.yaml, optional):
  worker_path               - Worker executable (default: install-relative)
  bundle_dir                - Prebuilt UI bundle (default: install-relative)
  worker_url                - Worker API endpoint (default: http://localhost:8000)
  startup_timeout_seconds   - Readiness wait bound (default: 30)
  open_browser              - Open the panel on start (default: true)

Environment variables LUMI_* override the file; a .env next to the working
directory is loaded best-effort.`,
	// Don't show usage/errors on errors from subcommands (main.go handles errors)
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to lumi.yaml (default: ./lumi.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statusCmd)
}

func loadDotenvBestEffort() {
	_ = godotenv.Load()
}

// Execute runs the root command.
func Execute() error {
	loadDotenvBestEffort()
	return rootCmd.Execute()
}
