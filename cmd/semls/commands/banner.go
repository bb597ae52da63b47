package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/version"
)

// printStartupBanner describes a WebSocket server on stderr. stdout is left
// alone in every mode.
func printStartupBanner(addr string, verbosity int) {
	info := version.Get()
	w := os.Stderr

	fmt.Fprintln(w)
	fmt.Fprintln(w, pterm.LightCyan("   semls")+pterm.Gray("  Turtle · JSON-LD · SPARQL"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, pterm.Green("┌─ semls ─────────────────────────────────────────────┐"))
	fmt.Fprintf(w, "%s Version:   %s (commit %s)\n", pterm.Green("│"), info.Version, info.Short())
	fmt.Fprintf(w, "%s Built:     %s\n", pterm.Green("│"), info.BuildTime)
	fmt.Fprintf(w, "%s Verbosity: %s\n", pterm.Green("│"), logger.LevelName(verbosity))
	fmt.Fprintf(w, "%s LSP:       ws://%s/lsp\n", pterm.Green("│"), addr)
	fmt.Fprintf(w, "%s Health:    http://%s/healthz\n", pterm.Green("│"), addr)
	fmt.Fprintln(w, pterm.Green("└─────────────────────────────────────────────────────┘"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, pterm.Yellow("Press Ctrl+C to stop"))
	fmt.Fprintln(w)
}
