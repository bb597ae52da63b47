// Package sparql implements the SPARQL query grammar on top of the Turtle
// scanner and triples productions. Queries are parsed, resolved and
// highlighted; there is no formatter.
package sparql

import (
	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/turtle"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Grammar is the SPARQL lang.Grammar.
type Grammar struct{}

var _ lang.Grammar = Grammar{}

func (Grammar) Language() lang.Language { return lang.SPARQL }

func (Grammar) Tokenize(text string) ([]token.Spanned, []lang.Diagnostic) {
	return turtle.Scan(text, dialect)
}

func (Grammar) Parse(tokens []token.Spanned, sourceLen int, prior *diffctx.Context) (lang.Tree, []lang.Diagnostic, *diffctx.Roles) {
	return Parse(tokens, sourceLen, prior)
}

func (Grammar) Derive(tree lang.Tree, base string) lang.Derivation {
	q, ok := tree.(*Query)
	if !ok {
		return turtle.NewDeriver(base).Result()
	}
	return Derive(q, base)
}

func (Grammar) Format(lang.Tree, []token.Spanned, lang.FormatOptions) (string, bool) {
	return "", false
}

// Legend adds function names to the Turtle legend.
var Legend = append(append([]lang.SemanticType{}, turtle.Legend...), lang.SemFunction)

func (Grammar) Legend() []lang.SemanticType { return Legend }

func (Grammar) Highlight(tree lang.Tree, tokens []token.Spanned, paint lang.Painter) {
	turtle.HighlightTokens(tokens, paint)
	for _, t := range tokens {
		if t.Value.Kind == token.Keyword && IsBuiltin(t.Value.Text) {
			paint(t.Span, lang.SemFunction)
		}
	}
	q, ok := tree.(*Query)
	if !ok {
		return
	}
	for _, st := range q.Prologue {
		if d, ok := st.(*turtle.PrefixDecl); ok && d.HasName {
			paint(d.Name.Span, lang.SemNamespace)
		}
	}
	VisitTriples(q, func(st *turtle.TripleStmt) {
		turtle.HighlightStatement(st, paint)
	})
}

// SlotAt follows the Turtle rules inside group patterns. Outside any
// braces the cursor expects a clause keyword.
func (Grammar) SlotAt(_ lang.Tree, tokens []token.Spanned, roles *diffctx.Roles, off int) lang.Slot {
	slot := turtle.SlotAt(tokens, roles, off)
	if slot == lang.SlotPrefixName || slot == lang.SlotNone {
		return slot
	}
	if braceDepth(tokens, off) == 0 {
		if slot == lang.SlotSubject {
			return lang.SlotKeyword
		}
	}
	return slot
}

func braceDepth(tokens []token.Spanned, off int) int {
	depth := 0
	for _, t := range tokens {
		if t.Span.Start >= off {
			break
		}
		switch t.Value.Kind {
		case token.CurlOpen:
			depth++
		case token.CurlClose:
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}

// Keywords lists the clause keywords and builtin functions.
func (Grammar) Keywords() []string {
	out := make([]string, 0, len(clauseKeywords)+len(builtins)+3)
	out = append(out, "PREFIX", "BASE", "a")
	out = append(out, clauseKeywords...)
	return append(out, builtins...)
}

// VisitTriples calls fn for every triple pattern of q, including the
// CONSTRUCT template and nested sub-queries.
func VisitTriples(q *Query, fn func(st *turtle.TripleStmt)) {
	if q == nil {
		return
	}
	var group func(g *Group)
	group = func(g *Group) {
		if g == nil {
			return
		}
		for _, e := range g.Elements {
			switch n := e.(type) {
			case *Triples:
				fn(n.Stmt)
			case *SubQuery:
				VisitTriples(n.Query, fn)
			default:
				for _, inner := range Groups(e) {
					group(inner)
				}
			}
		}
	}
	if q.Form != nil {
		group(q.Form.Template)
	}
	group(q.Where)
}

// Variables returns every occurrence of the variable name in q.
func Variables(q *Query, name string) []span.Span {
	var out []span.Span
	visitVariables(q, func(v *turtle.Variable) {
		if v.Name == name {
			out = append(out, v.Sp)
		}
	})
	return out
}
