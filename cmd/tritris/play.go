package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tritris/internal/platform/tui"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

var playFlags gameFlags

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a local game",
	Long: `Start a local game right away.

Controls:
  A/D, Left/Right  - Move
  S/Down           - Soft drop
  Z/J              - Rotate left
  X/K/Up           - Rotate right
  C/L              - Rotate 180
  Space            - Hard drop
  R                - Restart (after game over)
  Esc              - Back
  Q/Ctrl+C         - Quit

Difficulty options:
  easy   - Start at level 0
  normal - Start at level 9
  hard   - Start at level 19

Examples:
  tritris play
  tritris play --difficulty hard
  tritris play --mode garbage --set extended
  tritris play --seed abc123 --level 9`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playFlags.bind(playCmd.Flags())
}

func runPlay(_ *cobra.Command, _ []string) {
	settings, err := playFlags.settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Open score storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		// Continue without storage - game still works
		store = nil
	}

	runErr := tui.Run(settings, store, runtimeConfig(), flagName)

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}
}
