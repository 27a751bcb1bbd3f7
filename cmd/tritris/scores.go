package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/platform/tui"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

var (
	flagScoresLimit int
	flagScoresTUI   bool
	flagScoresStats bool
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [mode]",
	Short: "Show high scores",
	Long: `Display the top scores, for one mode or for all of them.

Modes: classic, versus, garbage

Examples:
  tritris scores
  tritris scores garbage --limit 20
  tritris scores --stats
  tritris scores --tui
  tritris scores classic --clear`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of scores to show")
	scoresCmd.Flags().BoolVar(&flagScoresTUI, "tui", false, "Browse scores in the interactive scoreboard")
	scoresCmd.Flags().BoolVar(&flagScoresStats, "stats", false, "Show per-mode statistics instead")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete the leaderboard of the given mode")
}

func runScores(_ *cobra.Command, args []string) {
	var mode config.Mode
	if len(args) == 1 {
		mode = config.Mode(args[0])
		switch mode {
		case config.ModeClassic, config.ModeVersus, config.ModeGarbage:
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown mode %q\n", args[0])
			os.Exit(1)
		}
	}

	// Open score storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening scores database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagScoresClear {
		if mode == "" {
			fmt.Fprintln(os.Stderr, "Error: --clear needs a mode")
			os.Exit(1)
		}
		if err := store.ClearScores(mode); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing scores: %v\n", err)
			return
		}
		fmt.Printf("Cleared %s scores.\n", mode)
		return
	}

	if flagScoresTUI {
		cfg := runtimeConfig()
		if _, err := tui.RunScoreboard(store, cfg.ScreenW, cfg.ScreenH); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return
	}
	if flagScoresStats {
		printStats(store)
		return
	}

	scores, err := store.TopScores(mode, flagScoresLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving scores: %v\n", err)
		return
	}

	title := "all modes"
	if mode != "" {
		title = string(mode)
	}
	fmt.Printf("High Scores - %s\n", title)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 'tritris play' to set the first high score!")
		return
	}

	fmt.Printf("  %-4s  %-12s  %-8s  %-5s  %-3s  %-8s  %s\n", "Rank", "Name", "Score", "Lines", "Lv", "Mode", "Date")
	fmt.Printf("  %-4s  %-12s  %-8s  %-5s  %-3s  %-8s  %s\n", "----", "----", "-----", "-----", "--", "----", "----")

	for i, e := range scores {
		fmt.Printf("  %-4d  %-12s  %-8d  %-5d  %-3d  %-8s  %s\n",
			i+1, e.Name, e.Score, e.Lines, e.Level, e.Mode, e.CreatedAt.Format("2006-01-02 15:04"))
	}

	if mode != "" {
		if high, err := store.HighScore(mode); err == nil {
			fmt.Println()
			fmt.Printf("Best: %d\n", high)
		}
	}
}

func printStats(store *storage.Store) {
	stats, err := store.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving stats: %v\n", err)
		return
	}
	if len(stats) == 0 {
		fmt.Println("No games recorded yet.")
		return
	}

	fmt.Printf("  %-8s  %-6s  %-8s  %-8s  %-6s  %s\n", "Mode", "Games", "Best", "Average", "Lines", "Last played")
	for _, mode := range []config.Mode{config.ModeClassic, config.ModeVersus, config.ModeGarbage} {
		st, ok := stats[mode]
		if !ok {
			continue
		}
		fmt.Printf("  %-8s  %-6d  %-8d  %-8.0f  %-6d  %s\n",
			st.Mode, st.GamesCount, st.HighScore, st.AvgScore, st.TotalLines, st.LastPlayed.Format("2006-01-02 15:04"))
	}
}
