package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/cmd/semls/commands"
	"github.com/teranos/semls/logger"
)

var rootCmd = &cobra.Command{
	Use:   "semls",
	Short: "semls - language server for Turtle, JSON-LD and SPARQL",
	Long: `semls - language intelligence for RDF documents.

semls serves the Language Server Protocol for Turtle, JSON-LD and SPARQL
editors, and checks or formats the same files from the command line.

Available commands:
  serve   - Run the language server (stdio, or WebSocket with --ws)
  check   - Report syntax and semantic problems in files
  format  - Pretty-print files
  am      - Manage semls configuration ("I am")
  version - Show version information

Examples:
  semls serve                # stdio, for editors that spawn the server
  semls serve --ws           # WebSocket on localhost:7878/lsp
  semls check data/          # check every RDF file below data/
  semls format -w doc.ttl    # reformat a file in place
  semls am show              # show the effective configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		opts := logger.Options{Verbosity: verbosity}

		cfg, loadErr := am.Load()
		if loadErr == nil {
			opts.JSON = cfg.Log.JSON
			opts.Path = cfg.Log.Path
			if cfg.Log.Verbosity > opts.Verbosity {
				opts.Verbosity = cfg.Log.Verbosity
			}
		}
		if err := logger.Initialize(opts); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if loadErr != nil {
			logger.Warnw("Failed to load configuration, using defaults", logger.FieldError, loadErr)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.FormatCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
