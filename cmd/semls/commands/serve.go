package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/server"
)

// ServeCmd starts the language server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server", "lsp"},
	Short:   "Run the language server",
	Long: `Run the semls language server.

By default the server speaks LSP over stdin/stdout, which is what editors
expect when they spawn a server process. With --ws it listens for
WebSocket clients on /lsp instead, one workspace per connection, and
reports its state on /healthz.

Examples:
  semls serve                        # stdio
  semls serve --ws                   # ws://localhost:7878/lsp
  semls serve --ws 0.0.0.0:9000      # custom address`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveWS string

func init() {
	ServeCmd.Flags().StringVar(&serveWS, "ws", "", "Serve over WebSocket at this address instead of stdio")
	ServeCmd.Flags().Lookup("ws").NoOptDefVal = am.DefaultWebSocketAddr
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if cfg.Log.Verbosity > verbosity {
		verbosity = cfg.Log.Verbosity
	}

	// glsp logs through commonlog; keep it off stdout with ours
	var logPath *string
	if cfg.Log.Path != "" {
		logPath = &cfg.Log.Path
	}
	commonlog.Configure(verbosity, logPath)

	log := logger.ComponentLogger("server")
	res, err := server.OpenResources(cfg, log.Named("resources"))
	if err != nil {
		return errors.Wrap(err, "failed to open resources")
	}
	defer res.Close()

	srv := server.New(cfg, res, log)

	if cfg.Server.Watch {
		project := am.FindProjectConfig()
		if project == "" {
			project = am.ProjectConfigFileName
		}
		watcher, err := am.NewConfigWatcher(project, am.UserConfigPath())
		if err != nil {
			logger.Warnw("Config watcher unavailable", logger.FieldError, err)
		} else {
			watcher.OnReload(srv.SetConfig)
			watcher.Start()
			defer watcher.Stop()
		}
	}

	addr := serveWS
	if addr == "" && !cmd.Flags().Changed("ws") {
		addr = cfg.Server.WebSocketAddr
	}
	if addr == "" {
		logger.Infow("Serving LSP over stdio")
		return srv.RunStdio()
	}
	return serveWebSocket(srv, addr, verbosity)
}

func serveWebSocket(srv *server.Server, addr string, verbosity int) error {
	printStartupBanner(addr, verbosity)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server stopped")
	case <-sigChan:
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}
