package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumi-desktop/lumi/internal/client"
	"github.com/lumi-desktop/lumi/internal/config"
	"github.com/lumi-desktop/lumi/internal/notify"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check worker component health",
	Long: `Check the health of the running Lumi worker.

Queries the worker's health endpoint and reports the state of its LLM and
file-search backends.

Examples:
  lumi status           # Styled output
  lumi status --json    # Raw JSON`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), client.DefaultTimeout)
	defer cancel()

	health, err := client.New(cfg.WorkerURL).Health(ctx)
	if err != nil {
		return fmt.Errorf("worker unreachable at %s (is 'lumi start' running?): %w", cfg.WorkerURL, err)
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(health)
	}

	console := &notify.Console{W: os.Stdout}
	printComponent(console, "LLM (Ollama)", health.OllamaStatus)
	printComponent(console, "Search (Everything)", health.EverythingStatus)
	return nil
}

func printComponent(console *notify.Console, name string, detail client.HealthStatusDetail) {
	if detail.Status == "OK" {
		console.Successf("%s: %s", name, detail.Status)
		return
	}
	console.Warningf("%s: %s (%s)", name, detail.Status, detail.Detail)
}
