package commands

import (
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/document"
	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/registry"
	"github.com/teranos/semls/logger"
)

// loadConfig returns the effective configuration, or the defaults when it
// cannot be loaded.
func loadConfig() *am.Config {
	cfg, err := am.Load()
	if err != nil {
		logger.Warnw("Failed to load configuration, using defaults", logger.FieldError, err)
		return am.DefaultConfig()
	}
	return cfg
}

// fileURI turns a path into the file:// URI documents are keyed by.
func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// collectFiles expands directories into the files below them that some
// grammar recognizes. Files named explicitly are always kept.
func collectFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read %s", arg)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if _, err := registry.Detect(path, ""); err == nil {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", arg)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// analyzeFile reads and analyzes one file outside any workspace. hint is a
// language id that overrides detection by extension.
func analyzeFile(path, hint string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	uri := fileURI(path)
	g, err := registry.Detect(uri, hint)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "%s", path), "pass --lang turtle, jsonld or sparql")
	}
	d := document.New(uri, g, 0, string(data))
	d.Analyze()
	return d, nil
}

// FileDiagnostic is a diagnostic with its 1-based position.
type FileDiagnostic struct {
	Line            int `json:"line" yaml:"line"`
	Column          int `json:"column" yaml:"column"`
	lang.Diagnostic `yaml:",inline"`
}

// FileReport is the result of checking one file.
type FileReport struct {
	Path        string           `json:"path" yaml:"path"`
	Language    string           `json:"language" yaml:"language"`
	Triples     int              `json:"triples" yaml:"triples"`
	Errors      int              `json:"errors" yaml:"errors"`
	Diagnostics []FileDiagnostic `json:"diagnostics" yaml:"diagnostics"`
}

func report(path string, d *document.Document, diags []lang.Diagnostic) FileReport {
	r := FileReport{
		Path:        path,
		Language:    d.Language().String(),
		Triples:     len(d.Graph()),
		Errors:      lang.CountErrors(diags),
		Diagnostics: make([]FileDiagnostic, 0, len(diags)),
	}
	for _, diag := range diags {
		p, _ := d.Lines.Position(diag.Span.Start)
		r.Diagnostics = append(r.Diagnostics, FileDiagnostic{
			Line:       p.Line + 1,
			Column:     p.Character + 1,
			Diagnostic: diag,
		})
	}
	return r
}
