package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lumi-desktop/lumi/internal/client"
	"github.com/lumi-desktop/lumi/internal/config"
	"github.com/lumi-desktop/lumi/internal/relay"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Chat with the Lumi worker from the terminal",
	Long: `Chat with the Lumi worker from the terminal.

With arguments, sends a single message and prints the reply. Without
arguments, opens an interactive conversation (requires a terminal).
The worker must already be running; use 'lumi start' first.

Examples:
  lumi chat 빈 폴더 찾아줘
  lumi chat find the biggest files on C:
  lumi chat`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	r := relay.New(client.New(cfg.WorkerURL))

	if len(args) > 0 {
		reply, err := r.Send(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		printReply(reply)
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive chat requires a terminal; pass the message as arguments instead")
	}
	return runInteractive(cmd.Context(), r)
}

func runInteractive(ctx context.Context, r *relay.Relay) error {
	entries := r.Entries()
	fmt.Printf("lumi> %s\n", entries[0].Text)
	fmt.Println("(exit or Ctrl-D to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}

		reply, err := r.Send(ctx, line)
		if errors.Is(err, relay.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		printReply(reply)
	}
}

func printReply(reply relay.Entry) {
	fmt.Printf("lumi> %s\n", reply.Text)
	for _, item := range reply.Results {
		fmt.Printf("  - %s (%s)\n", item.Name, item.Path)
	}
}
