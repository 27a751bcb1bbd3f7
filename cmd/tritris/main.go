// tritris is a terminal falling-block game with online matches.
//
// Usage:
//
//	tritris play             - Play a local game
//	tritris menu             - Start the menu to pick a mode interactively
//	tritris serve            - Start the match server (SSH and websocket)
//	tritris connect <url>    - Play online against a remote server
//	tritris scores [mode]    - Show high scores
//	tritris matches [id]     - Show finished matches
//	tritris sets             - List available piece sets
//	tritris simulate         - Run a headless game and print the result
//	tritris config           - Print the default server configuration
//
// Global flags:
//
//	--fps <rate>    - Set frame rate (default: 60)
//	--seed <value>  - Set the piece seed for reproducible games
//	--db <path>     - Set database path (default: ~/.tritris/scores.db)
//	--name <name>   - Player name shown in rooms and on the leaderboard
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-tritris/internal/core"
	// Import piece sets to register them
	_ "github.com/vovakirdan/tui-tritris/internal/tritris/pieces"
)

var (
	// Global flags
	flagFPS    int
	flagSeed   string
	flagDBPath string
	flagName   string
	flagStrict bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tritris",
	Short: "Tritris - falling three-wide blocks in your terminal",
	Long: `Tritris is a terminal falling-block game played on a narrow board with
three-cell pieces. Play alone or in rooms of up to four players over SSH
or websockets.

Available commands:
  play      - Play a local game
  menu      - Interactive menu
  serve     - Start the match server
  connect   - Join a remote server
  scores    - View high scores
  matches   - View finished matches
  sets      - List piece sets
  simulate  - Run a headless game

Examples:
  tritris play --difficulty hard
  tritris serve
  tritris connect ws://localhost:8080/ws --name ann
  tritris scores classic`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Frame rate (frames per second)")
	rootCmd.PersistentFlags().StringVar(&flagSeed, "seed", "", "Piece seed (empty = random)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.tritris/scores.db", "Path to scores database")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", defaultName(), "Player name")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "Panic on kernel invariant violations")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(setsCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(configCmd)
}

func defaultName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "player"
}

// runtimeConfig sizes the screen to the terminal, falling back to 80x24.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}
	if flagFPS > 0 {
		cfg.FrameRate = flagFPS
	}
	cfg.Seed = flagSeed
	return cfg
}
