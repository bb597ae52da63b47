package sparql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/turtle"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
)

func parse(t *testing.T, text string) (*Query, []lang.Diagnostic) {
	t.Helper()
	g := Grammar{}
	tokens, lexical := g.Tokenize(text)
	q, diags, _ := Parse(tokens, len(text), nil)
	return q, append(lexical, diags...)
}

const friends = `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT DISTINCT ?name (COUNT(?friend) AS ?n)
FROM <http://example.org/g>
WHERE {
  ?person a foaf:Person ;
          foaf:name ?name .
  OPTIONAL { ?person foaf:knows ?friend }
  FILTER (LANG(?name) = "en")
  { ?person foaf:age ?age } UNION { ?person foaf:nick ?age }
  BIND (STR(?name) AS ?label)
  VALUES ?age { 1 2 UNDEF }
}
GROUP BY ?name
ORDER BY DESC(?n)
LIMIT 10
`

func TestParse_Query(t *testing.T) {
	q, diags := parse(t, friends)
	require.Empty(t, diags)

	require.Len(t, q.Prologue, 1)
	require.NotNil(t, q.Form)
	assert.Equal(t, Select, q.Form.Kind)
	assert.True(t, q.Form.Distinct)
	require.Len(t, q.Form.Projection, 2)
	assert.Equal(t, "name", q.Form.Projection[0].Var.Name)
	assert.Equal(t, "n", q.Form.Projection[1].Var.Name)
	require.NotNil(t, q.Form.Projection[1].Expr)
	assert.Equal(t, "friend", q.Form.Projection[1].Expr.Vars[0].Name)

	require.Len(t, q.Datasets, 1)
	assert.Equal(t, "http://example.org/g", q.Datasets[0].IRI.Value)

	require.NotNil(t, q.Where)
	assert.True(t, q.Where.Closed)
	require.Len(t, q.Where.Elements, 6)
	assert.IsType(t, &Triples{}, q.Where.Elements[0])
	assert.IsType(t, &Optional{}, q.Where.Elements[1])
	assert.IsType(t, &Filter{}, q.Where.Elements[2])
	assert.Len(t, q.Where.Elements[3].(*Union).Groups, 2)
	assert.Equal(t, "label", q.Where.Elements[4].(*Bind).Var.Name)
	values := q.Where.Elements[5].(*InlineData)
	require.Len(t, values.Rows, 3)
	assert.Nil(t, values.Rows[2][0])

	require.Len(t, q.Modifiers, 3)
	assert.Equal(t, "GROUP BY", q.Modifiers[0].Keyword)
	assert.Equal(t, "ORDER BY", q.Modifiers[1].Keyword)
	assert.Equal(t, "10", q.Modifiers[2].Value)
}

func TestParse_Forms(t *testing.T) {
	t.Run("construct", func(t *testing.T) {
		q, diags := parse(t, "CONSTRUCT { ?s <http://ex/p> ?o } WHERE { ?s <http://ex/q> ?o }")
		require.Empty(t, diags)
		assert.Equal(t, Construct, q.Form.Kind)
		require.NotNil(t, q.Form.Template)
		assert.Len(t, q.Form.Template.Elements, 1)
		assert.Len(t, q.Where.Elements, 1)
	})

	t.Run("describe without where", func(t *testing.T) {
		q, diags := parse(t, "DESCRIBE <http://ex/a> ?x")
		require.Empty(t, diags)
		assert.Len(t, q.Form.Targets, 2)
		assert.Nil(t, q.Where)
	})

	t.Run("ask", func(t *testing.T) {
		q, diags := parse(t, "ASK { ?s ?p ?o }")
		require.Empty(t, diags)
		assert.Equal(t, Ask, q.Form.Kind)
	})

	t.Run("keywords are case insensitive", func(t *testing.T) {
		q, diags := parse(t, "select * where { ?s ?p ?o } limit 5")
		require.Empty(t, diags)
		assert.True(t, q.Form.Star)
		assert.Equal(t, "LIMIT", q.Modifiers[0].Keyword)
	})

	t.Run("sub-query and paths", func(t *testing.T) {
		q, diags := parse(t, "SELECT ?x { { SELECT ?x { ?x <http://ex/p>/<http://ex/q>* ?y } } FILTER NOT EXISTS { ?x ^<http://ex/r> ?z } }")
		require.Empty(t, diags)
		require.Len(t, q.Where.Elements, 2)
		inner := q.Where.Elements[0].(*Union).Groups[0]
		sub := inner.Elements[0].(*SubQuery)
		assert.Equal(t, Select, sub.Query.Form.Kind)
		f := q.Where.Elements[1].(*Filter)
		assert.True(t, f.Not)
		assert.NotNil(t, f.Exists)
	})
}

func TestParse_Recovery(t *testing.T) {
	t.Run("missing object", func(t *testing.T) {
		text := "SELECT ?x WHERE { ?x <http://ex/p> }"
		q, diags := parse(t, text)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "expected an object")
		assert.Equal(t, strings.LastIndex(text, "}"), diags[0].Resume)
		assert.True(t, q.Where.Closed)
	})

	t.Run("bad element skipped to stop", func(t *testing.T) {
		text := "SELECT * { ?a ?b 12 13 ?x . ?c ?d ?e }"
		q, diags := parse(t, text)
		require.Len(t, diags, 1)
		assert.Equal(t, strings.Index(text, "?c"), diags[0].Resume)
		assert.Len(t, q.Where.Elements, 2)
	})

	t.Run("missing dot between patterns", func(t *testing.T) {
		q, diags := parse(t, "SELECT * { ?a ?b ?c ?d ?e ?f }")
		require.Len(t, diags, 1)
		assert.Equal(t, lang.CodeMissingStop, diags[0].Code)
		assert.Len(t, q.Where.Elements, 2)
	})

	t.Run("cut at end of input is silent", func(t *testing.T) {
		q, diags := parse(t, "SELECT ?x WHERE { ?x <http://ex/p> ")
		assert.Empty(t, diags)
		require.Len(t, q.Where.Elements, 1)
		assert.True(t, q.Where.Elements[0].(*Triples).Stmt.Broken)
		assert.False(t, q.Where.Closed)
	})

	t.Run("missing form", func(t *testing.T) {
		q, diags := parse(t, "WHERE { ?s ?p ?o }")
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "SELECT, CONSTRUCT, DESCRIBE or ASK")
		assert.Nil(t, q.Form)
		require.NotNil(t, q.Where)
		assert.Len(t, q.Where.Elements, 1)
	})

	t.Run("trailing content", func(t *testing.T) {
		_, diags := parse(t, "ASK { } }")
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "after the query")
	})

	t.Run("unknown word", func(t *testing.T) {
		_, diags := parse(t, "SELECT * { ?s ?p ?o } ORDR BY ?s")
		require.NotEmpty(t, diags)
		assert.Equal(t, lang.KindLexical, diags[0].Kind)
	})
}

func TestParse_PriorRolesInGroupPatterns(t *testing.T) {
	g := Grammar{}
	ctx := diffctx.New()
	edit := func(text string) (*Query, []lang.Diagnostic) {
		tokens, _ := g.Tokenize(text)
		ctx.Align(tokens)
		q, diags, roles := Parse(tokens, len(text), ctx)
		ctx.Advance(tokens, roles)
		return q, diags
	}

	_, diags := edit("SELECT * WHERE { <http://ex/s> <http://ex/p> <http://ex/o> }")
	require.Empty(t, diags)

	q, diags := edit("SELECT * WHERE { <http://ex/p> <http://ex/q> <http://ex/r> }")
	assert.Empty(t, diags, "a valid pattern parses subject-first")
	require.Len(t, q.Where.Elements, 1)
	st := q.Where.Elements[0].(*Triples).Stmt
	assert.Equal(t, "http://ex/p", st.Subject.(*turtle.NamedNode).Value)

	q, diags = edit("SELECT * WHERE { <http://ex/q> <http://ex/r> }")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "expected a subject")
	st = q.Where.Elements[0].(*Triples).Stmt
	assert.IsType(t, &turtle.Invalid{}, st.Subject)
	require.Len(t, st.Predicates, 1)
}

func TestDerive(t *testing.T) {
	q, diags := parse(t, friends)
	require.Empty(t, diags)
	d := Derive(q, "file:///work/q.rq")
	require.Empty(t, d.Diagnostics)
	require.Len(t, d.Triples, 5)

	first := d.Triples[0]
	assert.Equal(t, rdf.Variable, first.Subject.Kind)
	assert.Equal(t, "person", first.Subject.Value)
	assert.Equal(t, rdf.RDFType, first.Predicate.Value)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/Person", first.Object.Value)

	ns, ok := d.Prefixes.Lookup("foaf")
	require.True(t, ok)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", ns.Namespace)
}

func TestDerive_UnknownPrefixInExpression(t *testing.T) {
	q, diags := parse(t, "SELECT * { ?s ?p ?o FILTER (?o = foaf:Person) }")
	require.Empty(t, diags)
	d := Derive(q, "")
	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, lang.CodeUnknownPrefix, d.Diagnostics[0].Code)
	assert.Equal(t, []string{"PREFIX foaf: <http://xmlns.com/foaf/0.1/>"}, d.Diagnostics[0].Suggestions)
}

func TestDerive_PathsEmitNothing(t *testing.T) {
	q, diags := parse(t, "SELECT * { ?s <http://ex/p>+ ?o . ?s <http://ex/q> ?o }")
	require.Empty(t, diags)
	d := Derive(q, "")
	require.Len(t, d.Triples, 1)
	assert.Equal(t, "http://ex/q", d.Triples[0].Predicate.Value)
}

func TestVariables(t *testing.T) {
	q, _ := parse(t, friends)
	spans := Variables(q, "name")
	require.Len(t, spans, 5)
	for _, sp := range spans {
		assert.Equal(t, "?name", sp.Slice(friends))
	}
}

func TestHighlight(t *testing.T) {
	text := "PREFIX ex: <http://ex/>\nSELECT ?s { ?s ex:p ?o FILTER (STRLEN(?o) > 1) }"
	g := Grammar{}
	tokens, _ := g.Tokenize(text)
	tree, _, _ := g.Parse(tokens, len(text), nil)

	painted := map[string]lang.SemanticType{}
	g.Highlight(tree, tokens, func(sp span.Span, typ lang.SemanticType) {
		painted[sp.Slice(text)] = typ
	})
	assert.Equal(t, lang.SemKeyword, painted["SELECT"])
	assert.Equal(t, lang.SemFunction, painted["STRLEN"])
	assert.Equal(t, lang.SemVariable, painted["?o"])
	assert.Equal(t, lang.SemProperty, painted["p"])
	assert.Equal(t, lang.SemNamespace, painted["ex:"])
}

func TestSlotAt(t *testing.T) {
	text := "PREFIX ex: <http://ex/>\nSELECT * WHERE { ?s ex:p ?o . } "
	g := Grammar{}
	tokens, _ := g.Tokenize(text)
	tree, _, roles := g.Parse(tokens, len(text), nil)

	at := func(marker string) lang.Slot {
		return g.SlotAt(tree, tokens, roles, strings.Index(text, marker))
	}
	assert.Equal(t, lang.SlotPredicate, at("ex:p"))
	assert.Equal(t, lang.SlotObject, at("?o"))
	assert.Equal(t, lang.SlotSubject, at("} "))
	assert.Equal(t, lang.SlotKeyword, g.SlotAt(tree, tokens, roles, len(text)))
}

func TestGrammarHasNoFormatter(t *testing.T) {
	_, ok := Grammar{}.Format(&Query{}, nil, lang.FormatOptions{})
	assert.False(t, ok)
	assert.Contains(t, Grammar{}.Keywords(), "OPTIONAL")
	assert.Contains(t, Legend, lang.SemFunction)
	var _ turtle.Statement = (*turtle.PrefixDecl)(nil)
}
