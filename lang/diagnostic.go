package lang

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/semls/span"
)

// Severity indicates how serious a diagnostic is
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Kind categorizes diagnostics by the pass that produced them
type Kind string

const (
	KindLexical    Kind = "lexical"    // unrecognized character run
	KindSyntax     Kind = "syntax"     // grammar violation, recovered by skipping
	KindSemantic   Kind = "semantic"   // unknown prefix, unresolvable IRI, malformed literal
	KindVocabulary Kind = "vocabulary" // term unknown to a loaded vocabulary
)

// Diagnostic is a problem found in a document. Diagnostics never abort a
// pass: the pass records one and carries on.
type Diagnostic struct {
	Kind        Kind      `json:"kind" yaml:"kind"`
	Severity    Severity  `json:"severity" yaml:"severity"`
	Span        span.Span `json:"span" yaml:"span"`
	Message     string    `json:"message" yaml:"message"`
	Code        string    `json:"code,omitempty" yaml:"code,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	// Resume is the offset where parsing continued after recovery, -1 when
	// no input was skipped.
	Resume int `json:"resume" yaml:"resume"`
}

// Diagnostic codes
const (
	CodeInvalidToken    = "invalid-token"
	CodeUnexpected      = "unexpected-token"
	CodeMissingStop     = "missing-stop"
	CodeUnterminated    = "unterminated"
	CodeUnknownPrefix   = "unknown-prefix"
	CodeRelativeIRI     = "relative-iri"
	CodeMalformed       = "malformed-literal"
	CodeUnknownTerm     = "unknown-term"
	CodeDuplicatePrefix = "duplicate-prefix"
)

// NewDiagnostic creates an error-severity diagnostic.
func NewDiagnostic(kind Kind, sp span.Span, message string) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Span:     sp,
		Message:  message,
		Resume:   -1,
	}
}

// Errorf creates an error-severity diagnostic with a formatted message.
func Errorf(kind Kind, sp span.Span, format string, args ...any) *Diagnostic {
	return NewDiagnostic(kind, sp, fmt.Sprintf(format, args...))
}

func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	d.Severity = sev
	return d
}

func (d *Diagnostic) WithCode(code string) *Diagnostic {
	d.Code = code
	return d
}

func (d *Diagnostic) WithSuggestion(s ...string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, s...)
	return d
}

func (d *Diagnostic) WithResume(off int) *Diagnostic {
	d.Resume = off
	return d
}

// Plain renders the diagnostic for logs and editors.
func (d Diagnostic) Plain() string {
	msg := d.Message
	if len(d.Suggestions) > 0 {
		msg += ". Suggestions: " + strings.Join(d.Suggestions, ", ")
	}
	return msg
}

// Terminal renders the diagnostic with colors for the check command.
func (d Diagnostic) Terminal(loc string) string {
	var head string
	switch d.Severity {
	case SeverityError:
		head = pterm.Red(string(d.Severity))
	case SeverityWarning:
		head = pterm.Yellow(string(d.Severity))
	case SeverityInfo:
		head = pterm.Blue(string(d.Severity))
	default:
		head = pterm.LightCyan(string(d.Severity))
	}
	out := fmt.Sprintf("%s %s [%s] %s", pterm.Gray(loc), head, d.Kind, d.Message)
	for _, s := range d.Suggestions {
		out += "\n    " + pterm.Green("hint: ") + s
	}
	return out
}

// IsError reports error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Collect dereferences a list of built diagnostics.
func Collect(ds ...*Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(ds))
	for _, d := range ds {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// CountErrors counts error-severity diagnostics.
func CountErrors(ds []Diagnostic) int {
	n := 0
	for _, d := range ds {
		if d.IsError() {
			n++
		}
	}
	return n
}
