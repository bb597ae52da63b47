// Package turtle implements the Turtle grammar: scanner, error-recovering
// parser, triple derivation, formatter and highlighting. The scanner and
// parser are shared with the SPARQL grammar.
package turtle

import (
	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/token"
)

// Grammar is the Turtle lang.Grammar.
type Grammar struct{}

var _ lang.Grammar = Grammar{}

func (Grammar) Language() lang.Language { return lang.Turtle }

func (Grammar) Tokenize(text string) ([]token.Spanned, []lang.Diagnostic) {
	return Scan(text, Dialect{})
}

func (Grammar) Parse(tokens []token.Spanned, sourceLen int, prior *diffctx.Context) (lang.Tree, []lang.Diagnostic, *diffctx.Roles) {
	p := NewParser(tokens, sourceLen, prior, Dialect{})
	doc := p.Document()
	return doc, p.Diagnostics(), p.Roles()
}

func (Grammar) Derive(tree lang.Tree, base string) lang.Derivation {
	doc, ok := tree.(*Document)
	if !ok {
		return NewDeriver(base).Result()
	}
	return Derive(doc, base)
}

func (Grammar) Format(tree lang.Tree, _ []token.Spanned, opts lang.FormatOptions) (string, bool) {
	doc, ok := tree.(*Document)
	if !ok {
		return "", false
	}
	return Format(doc, opts)
}

func (Grammar) Highlight(tree lang.Tree, tokens []token.Spanned, paint lang.Painter) {
	if doc, ok := tree.(*Document); ok {
		Highlight(doc, tokens, paint)
		return
	}
	HighlightTokens(tokens, paint)
}

func (Grammar) SlotAt(_ lang.Tree, tokens []token.Spanned, roles *diffctx.Roles, off int) lang.Slot {
	return SlotAt(tokens, roles, off)
}

var keywords = []string{"@prefix", "@base", "@version", "PREFIX", "BASE", "a", "true", "false"}

func (Grammar) Keywords() []string { return keywords }

func (Grammar) Legend() []lang.SemanticType { return Legend }
