package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tritris/internal/registry"
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List available piece sets",
	Long:  `Shows every piece set registered in tritris.`,
	Args:  cobra.NoArgs,
	Run:   runSets,
}

func runSets(_ *cobra.Command, _ []string) {
	sets := registry.List()

	if len(sets) == 0 {
		fmt.Println("No piece sets available.")
		return
	}

	fmt.Println("Available piece sets:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, s := range sets {
		if len(s.ID) > maxIDLen {
			maxIDLen = len(s.ID)
		}
	}

	fmt.Printf("  %-*s  %-6s  %s\n", maxIDLen, "ID", "Pieces", "Title")
	fmt.Printf("  %-*s  %-6s  %s\n", maxIDLen, "--", "------", "-----")

	for _, s := range sets {
		fmt.Printf("  %-*s  %-6d  %s\n", maxIDLen, s.ID, s.Pieces, s.Title)
	}

	fmt.Println()
	fmt.Println("Run 'tritris play --set <id>' to play with a set.")
}
