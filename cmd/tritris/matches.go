package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tritris/internal/storage"
)

var flagMatchesLimit int

var matchesCmd = &cobra.Command{
	Use:   "matches [match-id]",
	Short: "Show finished online matches",
	Long: `List the most recent finished matches, or show one match in detail.

Examples:
  tritris matches
  tritris matches --limit 50
  tritris matches 3f1c2a9e-...`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMatches,
}

func init() {
	matchesCmd.Flags().IntVar(&flagMatchesLimit, "limit", 20, "Number of matches to list")
}

func runMatches(_ *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if len(args) == 1 {
		rec, err := store.MatchByID(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if rec == nil {
			fmt.Fprintf(os.Stderr, "No match with id %q\n", args[0])
			return
		}
		printMatch(*rec)
		return
	}

	matches, err := store.RecentMatches(flagMatchesLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving matches: %v\n", err)
		return
	}
	if len(matches) == 0 {
		fmt.Println("No matches recorded yet.")
		return
	}

	fmt.Printf("  %-36s  %-6s  %-8s  %-7s  %-12s  %s\n", "Match", "Room", "Mode", "Players", "Winner", "Date")
	fmt.Printf("  %-36s  %-6s  %-8s  %-7s  %-12s  %s\n", "-----", "----", "----", "-------", "------", "----")
	for _, m := range matches {
		winner := m.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Printf("  %-36s  %-6s  %-8s  %-7d  %-12s  %s\n",
			m.MatchID, m.Code, m.Mode, len(m.Players), winner, m.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func printMatch(m storage.MatchRecord) {
	fmt.Printf("Match    %s\n", m.MatchID)
	fmt.Printf("Room     %s\n", m.Code)
	fmt.Printf("Mode     %s\n", m.Mode)
	fmt.Printf("Seed     %s\n", m.Seed)
	fmt.Printf("Ended    %s after %s\n", m.Reason, m.Duration.Round(time.Second))
	fmt.Printf("Played   %s\n", m.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Println()

	fmt.Printf("  %-4s  %-12s  %-8s  %-5s  %-3s\n", "Seat", "Name", "Score", "Lines", "Lv")
	for _, p := range m.Players {
		name := p.Name
		if p.Name == m.Winner && m.Winner != "" {
			name += " *"
		}
		if p.Left {
			name += " (left)"
		}
		fmt.Printf("  %-4s  %-12s  %-8d  %-5d  %-3d\n", p.ID, name, p.Score, p.Lines, p.Level)
	}
}
