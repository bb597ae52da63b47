// Package document holds open documents and the workspace loop that owns
// them. A Document is a record of the source text and every artifact
// derived from it; Analyze recomputes only the artifacts whose input
// changed since they were built.
package document

import (
	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/index"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Reason groups diagnostics by the stage that produced them. Each reason
// is published and replaced independently.
type Reason string

const (
	ReasonSyntax     Reason = "syntax"     // lexical and parse errors
	ReasonSemantic   Reason = "semantic"   // derivation errors
	ReasonVocabulary Reason = "vocabulary" // save-time validation
)

// Reasons in publication order.
var Reasons = []Reason{ReasonSyntax, ReasonSemantic, ReasonVocabulary}

// Document is one open file and its derived artifacts.
type Document struct {
	URI     string
	Grammar lang.Grammar
	Version int32
	Text    string
	Lines   *span.LineIndex

	Tokens  []token.Spanned
	Lexical []lang.Diagnostic

	Tree   lang.Tree
	Syntax []lang.Diagnostic
	Roles  *diffctx.Roles

	Derived lang.Derivation

	// Vocabulary holds the findings of the last save-time validation.
	Vocabulary []lang.Diagnostic

	prior *diffctx.Context

	// Each artifact records the revision of its input it was built from.
	textRev    uint64
	tokensRev  uint64
	treeRev    uint64
	derivedRev uint64
	tokensOf   uint64
	treeOf     uint64
	derivedOf  uint64
}

// New creates a document. Nothing is analyzed until Analyze.
func New(uri string, g lang.Grammar, version int32, text string) *Document {
	return &Document{
		URI:     uri,
		Grammar: g,
		Version: version,
		Text:    text,
		Lines:   span.NewLineIndex(text),
		prior:   diffctx.New(),
		textRev: 1,
	}
}

// SetText replaces the whole text.
func (d *Document) SetText(version int32, text string) {
	d.Version = version
	if text == d.Text {
		return
	}
	d.Text = text
	d.Lines = span.NewLineIndex(text)
	d.textRev++
}

// Apply applies incremental or whole-document edits.
func (d *Document) Apply(version int32, changes []span.Change) error {
	text, err := span.Apply(d.Text, changes)
	if err != nil {
		return errors.Wrapf(err, "apply changes to %s at version %d", d.URI, version)
	}
	d.SetText(version, text)
	return nil
}

// Analyze brings every artifact up to date and returns the reasons whose
// diagnostics were recomputed.
func (d *Document) Analyze() []Reason {
	var changed []Reason

	if d.tokensOf != d.textRev {
		d.Tokens, d.Lexical = d.Grammar.Tokenize(d.Text)
		d.tokensOf = d.textRev
		d.tokensRev++
	}

	if d.treeOf != d.tokensRev {
		d.prior.Align(d.Tokens)
		d.Tree, d.Syntax, d.Roles = d.Grammar.Parse(d.Tokens, len(d.Text), d.prior)
		d.prior.Advance(d.Tokens, d.Roles)
		d.treeOf = d.tokensRev
		d.treeRev++
		changed = append(changed, ReasonSyntax)
	}

	if d.derivedOf != d.treeRev {
		d.Derived = d.Grammar.Derive(d.Tree, d.URI)
		d.derivedOf = d.treeRev
		d.derivedRev++
		changed = append(changed, ReasonSemantic)
	}
	return changed
}

// Stale reports whether some artifact lags behind the text.
func (d *Document) Stale() bool {
	return d.tokensOf != d.textRev || d.treeOf != d.tokensRev || d.derivedOf != d.treeRev
}

// Revision is the number of text changes seen so far.
func (d *Document) Revision() uint64 {
	return d.textRev
}

// Diagnostics returns the diagnostics of one reason.
func (d *Document) Diagnostics(r Reason) []lang.Diagnostic {
	switch r {
	case ReasonSyntax:
		out := make([]lang.Diagnostic, 0, len(d.Lexical)+len(d.Syntax))
		out = append(out, d.Lexical...)
		return append(out, d.Syntax...)
	case ReasonSemantic:
		return d.Derived.Diagnostics
	case ReasonVocabulary:
		return d.Vocabulary
	}
	return nil
}

// AllDiagnostics returns the diagnostics of every reason.
func (d *Document) AllDiagnostics() []lang.Diagnostic {
	var out []lang.Diagnostic
	for _, r := range Reasons {
		out = append(out, d.Diagnostics(r)...)
	}
	return out
}

func (d *Document) Graph() rdf.Graph {
	return rdf.Graph(d.Derived.Triples)
}

// Prefixes returns the declared prefixes, never nil.
func (d *Document) Prefixes() *rdf.Prefixes {
	if d.Derived.Prefixes == nil {
		return &rdf.Prefixes{}
	}
	return d.Derived.Prefixes
}

func (d *Document) Language() lang.Language {
	return d.Grammar.Language()
}

// Source is the document's input to the project index.
func (d *Document) Source() index.Source {
	return index.Source{
		URI:        d.URI,
		Graph:      d.Graph(),
		Namespaces: d.Prefixes().Namespaces(),
		Imports:    d.Derived.Imports,
	}
}

// Format pretty-prints the document. ok is false when the grammar has no
// formatter or the document has syntax errors a reformat would lose.
func (d *Document) Format(opts lang.FormatOptions) (string, bool) {
	if d.Stale() {
		d.Analyze()
	}
	if lang.CountErrors(d.Diagnostics(ReasonSyntax)) > 0 {
		return "", false
	}
	return d.Grammar.Format(d.Tree, d.Tokens, opts)
}
