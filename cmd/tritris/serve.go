package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-tritris/internal/config"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/platform/tui"
	"github.com/vovakirdan/tui-tritris/internal/platform/web"
	"github.com/vovakirdan/tui-tritris/internal/storage"
)

var (
	flagConfig   string
	flagSSHAddr  string
	flagHTTPAddr string
	flagHostKey  string
	flagNoSSH    bool
	flagNoHTTP   bool
	flagDebug    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tritris match server",
	Long: `Start the server that hosts rooms and matches.

The server listens on two transports that share one coordinator:
  - SSH: each connection gets the full terminal client (menu, solo, online)
  - HTTP: a websocket endpoint at /ws for 'tritris connect', plus a JSON API
    at /health and /api/v1/{rooms,matches,scores}

Configuration is read from --config, ~/.tritris/configs/server.yaml,
./configs/server.yaml or the built-in defaults, then overridden by
TRITRIS_* environment variables and finally by flags.

Host key handling:
  - If --host-key or ssh.host_key_path is set, uses that key file
  - Otherwise, auto-generates a key at ~/.tritris/host_key

Examples:
  tritris serve
  tritris serve --ssh :2222 --http :8080
  tritris serve --config ./server.yaml --no-ssh
  TRITRIS_COUNTDOWN=5s tritris serve

Users can connect with:
  ssh localhost -p 2222
  tritris connect ws://localhost:8080/ws`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "Path to server config YAML")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file")
	serveCmd.Flags().BoolVar(&flagNoSSH, "no-ssh", false, "Disable the SSH listener")
	serveCmd.Flags().BoolVar(&flagNoHTTP, "no-http", false, "Disable the HTTP listener")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

func runServe(cmd *cobra.Command, _ []string) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tritris",
	})
	if flagDebug {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		logger.Fatal("cannot load config", "err", err)
	}
	applyServeFlags(cmd, &cfg)

	var (
		store *storage.Store
		board web.Leaderboard
	)
	if s, err := storage.Open(cfg.Storage.Path); err != nil {
		logger.Warn("running without persistence", "err", err)
	} else {
		store = s
		board = s
		defer store.Close()
	}

	sessions := multiplayer.NewSessionRegistry()
	coord := multiplayer.NewCoordinator(multiplayer.CoordinatorConfig{
		Match:    cfg.Match,
		Defaults: cfg.Game,
		Strict:   cfg.Strict,
	}, sessions, logger.WithPrefix("coordinator"))
	if store != nil {
		coord.SetResultSaver(store)
	}
	coord.Start()
	defer coord.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if !flagNoHTTP {
		httpSrv := web.NewServer(coord, sessions, board, cfg.HTTP, logger.WithPrefix("http"))
		g.Go(func() error { return httpSrv.ListenAndServe(ctx) })
	}
	if !flagNoSSH {
		sshSrv, err := tui.NewSSHServer(cfg.SSH, cfg.Game, coord, sessions, store, logger)
		if err != nil {
			logger.Fatal("cannot create SSH server", "err", err)
		}
		g.Go(func() error { return sshSrv.ListenAndServe(ctx) })
	}

	logger.Info("server ready",
		"ssh", listenAddr(cfg.SSH.Addr, flagNoSSH),
		"http", listenAddr(cfg.HTTP.Addr, flagNoHTTP),
		"mode", cfg.Game.Mode,
		"players", cfg.Match.MaxPlayers,
	)

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// applyServeFlags lets explicitly set flags win over file and environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("ssh") {
		cfg.SSH.Addr = flagSSHAddr
	}
	if flags.Changed("http") {
		cfg.HTTP.Addr = flagHTTPAddr
	}
	if flags.Changed("host-key") {
		cfg.SSH.HostKeyPath = flagHostKey
	}
	if flags.Changed("db") {
		cfg.Storage.Path = flagDBPath
	}
	if flags.Changed("strict") {
		cfg.Strict = flagStrict
	}
}

func listenAddr(addr string, disabled bool) string {
	if disabled {
		return "off"
	}
	return addr
}
