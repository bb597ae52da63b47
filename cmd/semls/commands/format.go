package commands

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/lang"
)

// FormatCmd pretty-prints RDF files
var FormatCmd = &cobra.Command{
	Use:   "format <file|dir>...",
	Short: "Pretty-print Turtle, JSON-LD and SPARQL files",
	Long: `Format files the way the language server formats a document.

Without flags the formatted text of a single file is written to stdout.
Use --write to rewrite files in place, or --diff to show what would change.
Files with syntax errors are never rewritten.

Examples:
  semls format doc.ttl
  semls format -w data/
  semls format --diff --tab-size 4 query.rq`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFormat,
}

var (
	formatWrite   bool
	formatDiff    bool
	formatLang    string
	formatTabSize int
	formatUseTabs bool
)

func init() {
	FormatCmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "Write the result back to each file")
	FormatCmd.Flags().BoolVarP(&formatDiff, "diff", "d", false, "Print a unified diff instead of the result")
	FormatCmd.Flags().StringVar(&formatLang, "lang", "", "Language id for every file (turtle, jsonld, sparql)")
	FormatCmd.Flags().IntVar(&formatTabSize, "tab-size", 0, "Spaces per indent level (default from config)")
	FormatCmd.Flags().BoolVar(&formatUseTabs, "use-tabs", false, "Indent with tabs")
}

func runFormat(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) > 1 && !formatWrite && !formatDiff {
		return errors.WithHint(errors.New("several files to format"), "use --write or --diff")
	}

	opts := loadConfig().FormatOptions()
	if cmd.Flags().Changed("tab-size") {
		opts.TabSize = formatTabSize
	}
	if cmd.Flags().Changed("use-tabs") {
		opts.InsertSpaces = !formatUseTabs
	}

	out := cmd.OutOrStdout()
	var failed int
	for _, path := range files {
		before, after, err := formatFile(path, formatLang, opts)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			failed++
			continue
		}
		switch {
		case formatDiff:
			diff, err := unifiedDiff(path, before, after)
			if err != nil {
				return err
			}
			fmt.Fprint(out, diff)
		case formatWrite:
			if before == after {
				continue
			}
			if err := os.WriteFile(path, []byte(after), 0644); err != nil {
				return errors.Wrapf(err, "write %s", path)
			}
		default:
			fmt.Fprint(out, after)
		}
	}
	if failed > 0 {
		return errors.Newf("%d files could not be formatted", failed)
	}
	return nil
}

// formatFile returns the file's current and formatted text.
func formatFile(path, hint string, opts lang.FormatOptions) (string, string, error) {
	d, err := analyzeFile(path, hint)
	if err != nil {
		return "", "", err
	}
	after, ok := d.Format(opts)
	if !ok {
		n := lang.CountErrors(d.AllDiagnostics())
		return "", "", errors.Newf("%s: not formatted, %d syntax errors", path, n)
	}
	return d.Text, after, nil
}

func unifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + " (formatted)",
		Context:  3,
	})
}
