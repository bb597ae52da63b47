// Package jsonld implements the JSON-LD grammar: a JSON scanner, an
// arena-based parser with recovery, and derivation of the JSON-LD subset
// editors need for navigation and completion.
package jsonld

import (
	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/token"
)

// Grammar is the JSON-LD lang.Grammar.
type Grammar struct{}

var _ lang.Grammar = Grammar{}

func (Grammar) Language() lang.Language { return lang.JSONLD }

func (Grammar) Tokenize(text string) ([]token.Spanned, []lang.Diagnostic) {
	return Scan(text)
}

func (Grammar) Parse(tokens []token.Spanned, sourceLen int, _ *diffctx.Context) (lang.Tree, []lang.Diagnostic, *diffctx.Roles) {
	return Parse(tokens, sourceLen)
}

func (Grammar) Derive(tree lang.Tree, base string) lang.Derivation {
	t, ok := tree.(*Tree)
	if !ok {
		return lang.Derivation{}
	}
	return Derive(t, base)
}

func (Grammar) Format(tree lang.Tree, _ []token.Spanned, opts lang.FormatOptions) (string, bool) {
	t, ok := tree.(*Tree)
	if !ok {
		return "", false
	}
	return Format(t, opts.Indent())
}

// Legend lists the semantic types JSON-LD highlighting paints.
var Legend = []lang.SemanticType{
	lang.SemProperty,
	lang.SemKeyword,
	lang.SemString,
	lang.SemNumber,
	lang.SemClass,
	lang.SemEnumMember,
}

func (Grammar) Legend() []lang.SemanticType { return Legend }

// Highlight paints member keys as properties, @-keywords as keywords, and
// the values of @type and @id as classes and IRIs.
func (Grammar) Highlight(tree lang.Tree, tokens []token.Spanned, paint lang.Painter) {
	for _, t := range tokens {
		switch k := t.Value.Kind; {
		case k == token.String:
			paint(t.Span, lang.SemString)
		case k.IsNumber():
			paint(t.Span, lang.SemNumber)
		case k == token.True || k == token.False || k == token.Null:
			paint(t.Span, lang.SemKeyword)
		}
	}
	tr, ok := tree.(*Tree)
	if !ok {
		return
	}
	for i, n := range tr.Nodes {
		if n.Kind != Member {
			continue
		}
		if isKeyword(n.Value) {
			paint(n.Key, lang.SemKeyword)
		} else {
			paint(n.Key, lang.SemProperty)
		}
		v := tr.MemberValue(i)
		if v < 0 {
			continue
		}
		switch n.Value {
		case "@type":
			for _, s := range stringNodes(tr, v) {
				paint(tr.Nodes[s].Span, lang.SemClass)
			}
		case "@id":
			if tr.Nodes[v].Kind == String {
				paint(tr.Nodes[v].Span, lang.SemEnumMember)
			}
		}
	}
}

func stringNodes(tr *Tree, v int) []int {
	switch tr.Nodes[v].Kind {
	case String:
		return []int{v}
	case Array:
		var out []int
		for _, c := range tr.Nodes[v].Children {
			if tr.Nodes[c].Kind == String {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// SlotAt answers from the tree: a member key expects a property, the
// value of @type a class, any other value an object.
func (Grammar) SlotAt(tree lang.Tree, _ []token.Spanned, _ *diffctx.Roles, off int) lang.Slot {
	tr, ok := tree.(*Tree)
	if !ok {
		return lang.SlotNone
	}
	idx := tr.At(off)
	if idx < 0 {
		return lang.SlotNone
	}
	n := tr.Nodes[idx]
	switch n.Kind {
	case Object:
		return lang.SlotPredicate
	case Member:
		if n.Key.Contains(off) {
			return lang.SlotPredicate
		}
	}
	m := tr.EnclosingMember(idx)
	if m < 0 {
		return lang.SlotNone
	}
	switch tr.Nodes[m].Value {
	case "@type":
		return lang.SlotClass
	case "@id":
		return lang.SlotSubject
	case "@context":
		return lang.SlotNone
	}
	return lang.SlotObject
}

var keywords = []string{
	"@context", "@id", "@type", "@value", "@language", "@graph", "@list", "@set",
	"@vocab", "@base", "@container", "@reverse", "@index", "@nest", "@included",
	"@direction", "@json", "@none", "@version",
}

func isKeyword(s string) bool {
	for _, k := range keywords {
		if k == s {
			return true
		}
	}
	return false
}

func (Grammar) Keywords() []string { return keywords }
