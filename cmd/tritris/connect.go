package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tritris/internal/platform/tui"
	"github.com/vovakirdan/tui-tritris/internal/platform/web"
)

var flagLogFile string

var connectCmd = &cobra.Command{
	Use:   "connect [url]",
	Short: "Play online on a tritris server",
	Long: `Connect to a tritris server over websockets and open the online lobby.

Create a room and share its code, or join a room by code. The room owner
picks the mode, piece set and start level, and starts the match once
every other member is ready.

Examples:
  tritris connect
  tritris connect ws://example.com:8080/ws --name ann
  tritris connect --log ./client.log`,
	Args: cobra.MaximumNArgs(1),
	Run:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&flagLogFile, "log", "", "Write client logs to this file")
}

func runConnect(_ *cobra.Command, args []string) {
	url := "ws://localhost:8080/ws"
	if len(args) == 1 {
		url = args[0]
	}

	// The terminal belongs to the TUI; logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := log.NewWithOptions(out, log.Options{ReportTimestamp: true, Prefix: "client"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	link, err := web.Dial(ctx, url, logger)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.RunOnline(link, flagName, runtimeConfig())
	link.Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
