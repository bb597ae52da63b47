// Package lang defines the capability interface every grammar implements
// and the values that flow between passes.
package lang

import (
	"path"
	"strings"

	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Language identifies a supported grammar.
type Language uint8

const (
	Unknown Language = iota
	Turtle
	JSONLD
	SPARQL
)

func (l Language) String() string {
	switch l {
	case Turtle:
		return "turtle"
	case JSONLD:
		return "jsonld"
	case SPARQL:
		return "sparql"
	}
	return "unknown"
}

// languageIDs maps editor language identifiers to grammars.
var languageIDs = map[string]Language{
	"turtle":  Turtle,
	"ttl":     Turtle,
	"trig":    Turtle,
	"n3":      Turtle,
	"jsonld":  JSONLD,
	"json-ld": JSONLD,
	"sparql":  SPARQL,
	"rq":      SPARQL,
}

var extensions = map[string]Language{
	".ttl":    Turtle,
	".turtle": Turtle,
	".nt":     Turtle,
	".n3":     Turtle,
	".jsonld": JSONLD,
	".json":   JSONLD,
	".rq":     SPARQL,
	".sparql": SPARQL,
	".sq":     SPARQL,
}

// DetectLanguage picks the grammar for a document: the explicit hint when it
// names a known language, otherwise the file extension of uri.
func DetectLanguage(uri, hint string) Language {
	if l, ok := languageIDs[strings.ToLower(hint)]; ok {
		return l
	}
	p := uri
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if l, ok := extensions[strings.ToLower(path.Ext(p))]; ok {
		return l
	}
	return Unknown
}

// Tree is the root of a grammar's syntax tree.
type Tree interface {
	Span() span.Span
}

// Derivation is the output of the triple derivation pass.
type Derivation struct {
	Triples     []rdf.Triple
	Prefixes    *rdf.Prefixes
	Base        string
	Imports     []string // owl:imports targets
	Diagnostics []Diagnostic
}

// Slot is what the cursor position expects next, used by completion.
type Slot uint8

const (
	SlotNone Slot = iota
	SlotSubject
	SlotPredicate
	SlotObject
	SlotClass // object of rdf:type
	SlotPrefixName
	SlotKeyword
)

func (s Slot) String() string {
	switch s {
	case SlotSubject:
		return "subject"
	case SlotPredicate:
		return "predicate"
	case SlotObject:
		return "object"
	case SlotClass:
		return "class"
	case SlotPrefixName:
		return "prefix"
	case SlotKeyword:
		return "keyword"
	}
	return "none"
}

// FormatOptions mirrors the editor's formatting options.
type FormatOptions struct {
	TabSize      int
	InsertSpaces bool
}

// Indent returns one level of indentation.
func (o FormatOptions) Indent() string {
	if !o.InsertSpaces {
		return "\t"
	}
	n := o.TabSize
	if n <= 0 {
		n = 2
	}
	return strings.Repeat(" ", n)
}

// Painter assigns a semantic type to a byte range. Later paints win.
type Painter func(sp span.Span, typ SemanticType)

// Grammar is the capability set of one language. Each document selects its
// grammar once, at open time.
type Grammar interface {
	Language() Language

	// Tokenize never fails: unrecognized runs become Invalid tokens with a
	// lexical diagnostic.
	Tokenize(text string) ([]token.Spanned, []Diagnostic)

	// Parse builds a best-effort tree. Roles recorded while parsing are
	// returned so they can bias the next parse through prior.
	Parse(tokens []token.Spanned, sourceLen int, prior *diffctx.Context) (Tree, []Diagnostic, *diffctx.Roles)

	// Derive resolves names and emits triples.
	Derive(tree Tree, base string) Derivation

	// Format pretty-prints the tree. ok is false when the grammar has no
	// formatter.
	Format(tree Tree, tokens []token.Spanned, opts FormatOptions) (string, bool)

	// Highlight paints semantic types over tokens and tree roles.
	Highlight(tree Tree, tokens []token.Spanned, paint Painter)

	// SlotAt classifies the cursor position at off.
	SlotAt(tree Tree, tokens []token.Spanned, roles *diffctx.Roles, off int) Slot

	// Keywords lists completion keywords.
	Keywords() []string

	// Legend lists the semantic types Highlight may paint.
	Legend() []SemanticType
}
