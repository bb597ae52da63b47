package turtle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/token"
)

func parse(t *testing.T, text string) (*Document, []lang.Diagnostic) {
	t.Helper()
	tokens, lexical := Scan(text, Dialect{})
	p := NewParser(tokens, len(text), nil, Dialect{})
	doc := p.Document()
	return doc, append(lexical, p.Diagnostics()...)
}

func TestParse_ValidDocument(t *testing.T) {
	text := `@prefix ex: <http://example.org/> .
@base <http://example.org/base/> .
PREFIX foaf: <http://xmlns.com/foaf/0.1/>

ex:alice a foaf:Person ;
    foaf:name "Alice"@en ;
    foaf:knows [ foaf:name "Bob" ], _:carol ;
    ex:list ( 1 2.5 true ) ;
.
[ ex:p ex:o ] .
`
	doc, diags := parse(t, text)
	require.Empty(t, diags)
	require.Len(t, doc.Statements, 5)

	prefix := doc.Statements[0].(*PrefixDecl)
	assert.Equal(t, "ex", prefix.Name.Value)
	assert.Equal(t, "http://example.org/", prefix.IRI.Value)
	assert.True(t, prefix.Terminated)
	assert.True(t, doc.Statements[2].(*PrefixDecl).Sparql)

	st := doc.Statements[3].(*TripleStmt)
	assert.True(t, st.Terminated)
	assert.False(t, st.Broken)
	require.Len(t, st.Predicates, 4)
	assert.Equal(t, TypeKeyword, st.Predicates[0].Verb.(*NamedNode).Kind)
	assert.Len(t, st.Predicates[2].Objects, 2)
	assert.IsType(t, &BlankNodeList{}, st.Predicates[2].Objects[0])
	assert.Len(t, st.Predicates[3].Objects[0].(*Collection).Items, 3)

	bl := doc.Statements[4].(*TripleStmt)
	assert.IsType(t, &BlankNodeList{}, bl.Subject)
	assert.Empty(t, bl.Predicates)
}

func TestParse_StatementSpans(t *testing.T) {
	text := "ex:a ex:p ex:o .\nex:b ex:q ex:r ."
	doc, _ := parse(t, text)
	require.Len(t, doc.Statements, 2)
	assert.Equal(t, "ex:a ex:p ex:o .", doc.Statements[0].Span().Slice(text))
	assert.Equal(t, "ex:b ex:q ex:r .", doc.Statements[1].Span().Slice(text))
}

func TestParse_Recovery(t *testing.T) {
	t.Run("skips to the next stop", func(t *testing.T) {
		text := "ex:a ex:p ; . ex:b ex:p ex:o ."
		doc, diags := parse(t, text)
		require.Len(t, diags, 1)
		assert.Equal(t, lang.KindSyntax, diags[0].Kind)
		assert.Equal(t, 14, diags[0].Resume)

		require.Len(t, doc.Statements, 2)
		assert.True(t, doc.Statements[0].(*TripleStmt).Broken)
		assert.False(t, doc.Statements[1].(*TripleStmt).Broken)
	})

	t.Run("stops at a directive", func(t *testing.T) {
		doc, diags := parse(t, "ex:a ex:p ]\n@prefix ex: <http://ex/> .")
		require.Len(t, diags, 1)
		require.Len(t, doc.Statements, 2)
		assert.IsType(t, &PrefixDecl{}, doc.Statements[1])
	})

	t.Run("missing stop before next statement", func(t *testing.T) {
		doc, diags := parse(t, "ex:a ex:p ex:o\nex:b ex:p ex:o .")
		require.Len(t, diags, 1)
		assert.Equal(t, lang.CodeMissingStop, diags[0].Code)
		assert.Equal(t, -1, diags[0].Resume)
		require.Len(t, doc.Statements, 2)
		assert.False(t, doc.Statements[0].(*TripleStmt).Terminated)
		assert.True(t, doc.Statements[1].(*TripleStmt).Terminated)
	})

	t.Run("missing stop on the same line", func(t *testing.T) {
		doc, diags := parse(t, "ex:a ex:p ex:o ex:b ex:p ex:o .")
		require.Len(t, diags, 1)
		assert.Equal(t, lang.CodeMissingStop, diags[0].Code)
		require.Len(t, doc.Statements, 2)
		assert.True(t, doc.Statements[1].(*TripleStmt).Terminated)
	})

	t.Run("token that cannot start a statement", func(t *testing.T) {
		doc, diags := parse(t, "ex:a ex:p ex:o \"x\" .\nex:b ex:p ex:o .")
		require.Len(t, diags, 1)
		assert.Equal(t, lang.CodeUnexpected, diags[0].Code)
		assert.Contains(t, diags[0].Message, "expected '.'")
		require.Len(t, doc.Statements, 2)
		assert.True(t, doc.Statements[0].(*TripleStmt).Broken)
	})

	t.Run("missing stop at end of input", func(t *testing.T) {
		_, diags := parse(t, "ex:a ex:p ex:o")
		require.Len(t, diags, 1)
		assert.Equal(t, lang.CodeMissingStop, diags[0].Code)
	})

	t.Run("statement cut by end of input is not reported", func(t *testing.T) {
		for _, text := range []string{"ex:a", "ex:a ex:p", "ex:a ex:p ex:o ;", "ex:a ex:p [ ex:q", "@prefix ex:"} {
			_, diags := parse(t, text)
			assert.Empty(t, diags, text)
		}
	})

	t.Run("invalid token at statement start", func(t *testing.T) {
		_, diags := parse(t, "@prefix foaf: <>.\nfoa")
		require.Len(t, diags, 2)
		assert.Equal(t, lang.KindLexical, diags[0].Kind)
		assert.Equal(t, lang.KindSyntax, diags[1].Kind)
	})
}

func TestParse_LostSubjectFromPriorRoles(t *testing.T) {
	g := Grammar{}
	ctx := diffctx.New()

	before := "ex:s ex:p ex:o ."
	tokens, _ := g.Tokenize(before)
	ctx.Align(tokens)
	_, diags, roles := g.Parse(tokens, len(before), ctx)
	require.Empty(t, diags)
	ctx.Advance(tokens, roles)

	after := "ex:p ex:o ."
	tokens, _ = g.Tokenize(after)
	ctx.Align(tokens)
	tree, diags, roles := g.Parse(tokens, len(after), ctx)

	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "expected a subject")
	assert.True(t, roles.Has(0, diffctx.Predicate))
	assert.False(t, roles.Has(0, diffctx.Subject), "roles of the abandoned subject-first attempt are dropped")
	assert.True(t, roles.Has(1, diffctx.Object))

	doc := tree.(*Document)
	require.Len(t, doc.Statements, 1)
	st := doc.Statements[0].(*TripleStmt)
	assert.IsType(t, &Invalid{}, st.Subject)
	require.Len(t, st.Predicates, 1)
	assert.Equal(t, "p", st.Predicates[0].Verb.(*NamedNode).Value)
}

func TestParse_FormerPredicateInValidStatement(t *testing.T) {
	g := Grammar{}
	ctx := diffctx.New()

	before := "ex:s ex:p ex:o ."
	tokens, _ := g.Tokenize(before)
	ctx.Align(tokens)
	_, _, roles := g.Parse(tokens, len(before), ctx)
	ctx.Advance(tokens, roles)

	after := "ex:p ex:q ex:r ."
	tokens, _ = g.Tokenize(after)
	ctx.Align(tokens)
	require.True(t, ctx.WasPredicate(0))
	tree, diags, _ := g.Parse(tokens, len(after), ctx)
	assert.Empty(t, diags)

	fresh, _, _ := g.Parse(tokens, len(after), nil)
	assert.Equal(t, fresh, tree)
}

func TestParse_Deterministic(t *testing.T) {
	g := Grammar{}
	ctx := diffctx.New()

	before := "ex:s ex:p ex:o ; ex:q [ ex:r 1 ] .\nex:t a ex:C ."
	tokens, _ := g.Tokenize(before)
	ctx.Align(tokens)
	_, _, roles := g.Parse(tokens, len(before), ctx)
	ctx.Advance(tokens, roles)

	after := "ex:p ex:o ; ex:q [ ex:r 1 ; ] .\na ex:C .\nex:t ex:q ( 1"
	tokens, _ = g.Tokenize(after)
	ctx.Align(tokens)

	tree1, diags1, roles1 := g.Parse(tokens, len(after), ctx)
	tree2, diags2, roles2 := g.Parse(tokens, len(after), ctx)
	require.NotEmpty(t, diags1)
	assert.Equal(t, tree1, tree2)
	assert.Equal(t, diags1, diags2)
	assert.Equal(t, roles1, roles2)
}

func TestParse_Roles(t *testing.T) {
	text := "ex:s ex:p ex:o, [ ex:q ex:r ] ."
	tokens, _ := Scan(text, Dialect{})
	p := NewParser(tokens, len(text), nil, Dialect{})
	p.Document()
	roles := p.Roles()

	kinds := token.Kinds(tokens)
	require.Equal(t, token.PNameLN, kinds[0])
	assert.True(t, roles.Has(0, diffctx.Subject))
	assert.True(t, roles.Has(1, diffctx.Predicate))
	assert.True(t, roles.Has(2, diffctx.Object))
	assert.True(t, roles.Has(4, diffctx.Object))    // [
	assert.True(t, roles.Has(5, diffctx.Predicate)) // ex:q
	assert.True(t, roles.Has(6, diffctx.Object))    // ex:r
}
