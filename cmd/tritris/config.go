package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tritris/internal/config"
)

var flagCheck string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or check the server configuration",
	Long: `Print the built-in server configuration as YAML, or validate a file.

Examples:
  tritris config > ~/.tritris/configs/server.yaml
  tritris config --check ./server.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func init() {
	configCmd.Flags().StringVar(&flagCheck, "check", "", "Validate this config file (with environment overrides)")
}

func runConfig(_ *cobra.Command, _ []string) {
	if flagCheck == "" {
		os.Stdout.Write(config.DefaultYAML())
		return
	}

	cfg, err := config.Load(flagCheck)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: ssh %s, http %s, %s on %dx%d with %q, up to %d players\n",
		cfg.SSH.Addr, cfg.HTTP.Addr, cfg.Game.Mode, cfg.Game.BoardWidth, cfg.Game.BoardHeight,
		cfg.Game.PieceSet, cfg.Match.MaxPlayers)
}
