package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/document"
	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/index"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/server"
	"github.com/teranos/semls/vocab"
)

// CheckCmd reports the diagnostics an editor would show for each file
var CheckCmd = &cobra.Command{
	Use:   "check <file|dir>...",
	Short: "Report syntax and semantic problems in RDF files",
	Long: `Analyze Turtle, JSON-LD and SPARQL files and print their diagnostics.

Directories are searched recursively for files with a known extension.
With --vocab, the vocabularies of every declared namespace are fetched
(or read from the cache) and terms they do not define are reported.

The command fails when any file has an error-severity diagnostic.

Examples:
  semls check shapes.ttl
  semls check --format json data/
  semls check --vocab --jobs 8 ontology/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var (
	checkFormat string
	checkLang   string
	checkVocab  bool
	checkJobs   int
)

func init() {
	CheckCmd.Flags().StringVar(&checkFormat, "format", "text", "Output format: text, json, yaml")
	CheckCmd.Flags().StringVar(&checkLang, "lang", "", "Language id for every file (turtle, jsonld, sparql)")
	CheckCmd.Flags().BoolVar(&checkVocab, "vocab", false, "Check terms against fetched vocabularies")
	CheckCmd.Flags().IntVarP(&checkJobs, "jobs", "j", runtime.NumCPU(), "Files analyzed in parallel")
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no RDF files found")
	}

	var vocabs *vocabularies
	if checkVocab {
		cfg := loadConfig()
		res, err := server.OpenResources(cfg, logger.ComponentLogger("resources"))
		if err != nil {
			return err
		}
		defer res.Close()
		vocabs = newVocabularies(cfg, res)
	}

	reports, err := checkFiles(cmd.Context(), files, checkLang, checkJobs, vocabs)
	if err != nil {
		return err
	}
	if err := writeReports(cmd.OutOrStdout(), checkFormat, reports); err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if r.Errors > 0 {
			failed++
		}
	}
	if failed > 0 {
		return errors.Newf("%d of %d files have errors", failed, len(reports))
	}
	return nil
}

// checkFiles analyzes files with at most jobs running at once. Reports come
// back in the order of files.
func checkFiles(ctx context.Context, files []string, hint string, jobs int, vocabs *vocabularies) ([]FileReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs < 1 {
		jobs = 1
	}
	reports := make([]FileReport, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			d, err := analyzeFile(path, hint)
			if err != nil {
				return err
			}
			diags := d.AllDiagnostics()
			if vocabs != nil {
				diags = append(diags, vocabs.validate(ctx, d)...)
			}
			reports[i] = report(path, d, diags)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeReports(w io.Writer, format string, reports []FileReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return errors.Wrap(err, "failed to marshal report to JSON")
		}
	case "yaml":
		data, err := yaml.Marshal(reports)
		if err != nil {
			return errors.Wrap(err, "failed to marshal report to YAML")
		}
		fmt.Fprint(w, string(data))
	case "text":
		writeText(w, reports)
	default:
		return errors.Newf("unsupported format: %s (supported: text, json, yaml)", format)
	}
	return nil
}

func writeText(w io.Writer, reports []FileReport) {
	var errs, warnings int
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			loc := fmt.Sprintf("%s:%d:%d", r.Path, d.Line, d.Column)
			fmt.Fprintln(w, d.Diagnostic.Terminal(loc))
			switch d.Severity {
			case lang.SeverityError:
				errs++
			case lang.SeverityWarning:
				warnings++
			}
		}
	}
	summary := fmt.Sprintf("%d files checked, %d errors, %d warnings", len(reports), errs, warnings)
	if errs > 0 {
		fmt.Fprintln(w, pterm.Error.Sprint(summary))
		return
	}
	fmt.Fprintln(w, pterm.Success.Sprint(summary))
}

// vocabularies loads each namespace once for the whole run.
type vocabularies struct {
	loader *vocab.Loader

	mu     sync.Mutex
	loaded map[string]*vocab.Vocabulary
	failed map[string]bool
}

func newVocabularies(cfg *am.Config, res *server.Resources) *vocabularies {
	return &vocabularies{
		loader: vocab.NewLoader(vocab.Options{
			Fetcher:   res.Fetcher,
			Cache:     res.Cache,
			Overrides: cfg.OverrideMap(),
			Timeout:   cfg.VocabTimeout(),
		}, logger.ComponentLogger("vocab")),
		loaded: make(map[string]*vocab.Vocabulary),
		failed: make(map[string]bool),
	}
}

func (v *vocabularies) get(ctx context.Context, ns string) *vocab.Vocabulary {
	v.mu.Lock()
	if voc, ok := v.loaded[ns]; ok || v.failed[ns] {
		v.mu.Unlock()
		return voc
	}
	v.mu.Unlock()

	voc, err := v.loader.Load(ctx, ns)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		logger.Warnw("Vocabulary unavailable", logger.FieldNamespace, ns, logger.FieldError, err)
		v.failed[ns] = true
		return nil
	}
	v.loaded[ns] = voc
	return voc
}

// validate checks d against the vocabularies of its declared namespaces.
func (v *vocabularies) validate(ctx context.Context, d *document.Document) []lang.Diagnostic {
	var sources []index.Source
	for ns := range d.Prefixes().Namespaces() {
		voc := v.get(ctx, ns)
		if voc == nil {
			continue
		}
		sources = append(sources, index.Source{
			URI:        voc.URL,
			Graph:      voc.Graph,
			Namespaces: voc.Prefixes.Namespaces(),
			Vocabulary: voc.Namespace,
		})
	}
	if len(sources) == 0 {
		return nil
	}
	return document.Validate(d, index.Build(1, sources))
}
