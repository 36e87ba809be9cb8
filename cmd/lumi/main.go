// lumi - launcher for the Lumi file assistant
//
// Supervises the bundled worker process, serves the chat panel, and relays
// chat messages to the worker's local HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/lumi-desktop/lumi/internal/commands"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
