package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tritris/internal/platform/tui"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

var menuFlags gameFlags

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start tritris with an interactive menu",
	Long: `Start tritris in interactive menu mode.

Pick solo play or the scoreboard, cycle the mode with M and the
difficulty with Left/Right. After a game ends, Esc returns to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter        - Select
  Tab          - Scores
  Q            - Quit

Examples:
  tritris menu
  tritris menu --fps 30
  tritris menu --db ./scores.db
  tritris menu --set extended --width 10`,
	Args: cobra.NoArgs,
	Run:  runMenu,
}

func init() {
	menuFlags.bindBoard(menuCmd.Flags())
}

func runMenu(_ *cobra.Command, _ []string) {
	base, err := menuFlags.settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		store = nil
	}

	runErr := tui.RunMenu(store, base, runtimeConfig(), flagName)

	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
