package turtle

import (
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Legend lists the semantic types Turtle highlighting paints.
var Legend = []lang.SemanticType{
	lang.SemComment,
	lang.SemString,
	lang.SemNumber,
	lang.SemKeyword,
	lang.SemType,
	lang.SemOperator,
	lang.SemVariable,
	lang.SemNamespace,
	lang.SemEnumMember,
	lang.SemClass,
	lang.SemProperty,
}

// Highlight paints tokens by kind, then repaints named nodes by the role
// they play: subjects as classes, verbs as properties.
func Highlight(doc *Document, tokens []token.Spanned, paint lang.Painter) {
	HighlightTokens(tokens, paint)
	for _, st := range doc.Statements {
		switch s := st.(type) {
		case *PrefixDecl:
			if s.HasName {
				paint(s.Name.Span, lang.SemNamespace)
			}
		case *TripleStmt:
			HighlightStatement(s, paint)
		}
	}
}

// HighlightTokens paints every token by its lexical kind.
func HighlightTokens(tokens []token.Spanned, paint lang.Painter) {
	for _, t := range tokens {
		sp := t.Span
		switch k := t.Value.Kind; {
		case k == token.Comment:
			paint(sp, lang.SemComment)
		case k == token.String:
			paint(sp, lang.SemString)
		case k.IsNumber():
			paint(sp, lang.SemNumber)
		case k == token.True || k == token.False || k == token.PredType || k == token.Keyword || k.IsDirective():
			paint(sp, lang.SemKeyword)
		case k == token.LangTag:
			paint(sp, lang.SemType)
		case k == token.DataTypeTag || k == token.Op:
			paint(sp, lang.SemOperator)
		case k == token.Variable || k == token.BlankNodeLabel:
			paint(sp, lang.SemVariable)
		case k == token.PNameNS:
			paint(sp, lang.SemNamespace)
		case k == token.PNameLN:
			pre := span.New(sp.Start, sp.Start+len(t.Value.Prefix)+1)
			paint(pre, lang.SemNamespace)
			paint(span.New(pre.End, sp.End), lang.SemEnumMember)
		case k == token.IRIRef:
			paint(sp, lang.SemEnumMember)
		}
	}
}

// HighlightStatement repaints the named nodes of st by role.
func HighlightStatement(st *TripleStmt, paint lang.Painter) {
	Walk(st, func(t Term, role Role) {
		n, ok := t.(*NamedNode)
		if !ok || n.Kind == TypeKeyword {
			return
		}
		switch role {
		case RoleSubject:
			paint(n.LocalSpan(), lang.SemClass)
		case RolePredicate:
			paint(n.LocalSpan(), lang.SemProperty)
		}
	})
}
