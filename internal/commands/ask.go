package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumi-desktop/lumi/internal/client"
	"github.com/lumi-desktop/lumi/internal/config"
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt...>",
	Short: "Send a raw prompt to the worker's LLM",
	Long: `Send a raw prompt to the worker's LLM endpoint and print the response.

Unlike 'lumi chat', the prompt goes straight to the model with no file
search or conversation state. The worker must already be running.

Examples:
  lumi ask summarize what a .gitignore file does
  lumi ask 파이썬이 뭐야?`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	resp, err := client.New(cfg.WorkerURL).Ask(cmd.Context(), &client.AskRequest{
		Prompt: strings.Join(args, " "),
	})
	if err != nil {
		return err
	}
	fmt.Println(resp.Response)
	return nil
}
