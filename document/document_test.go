package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/index"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/jsonld"
	"github.com/teranos/semls/lang/sparql"
	"github.com/teranos/semls/lang/turtle"
	"github.com/teranos/semls/span"
)

func TestAnalyze_Incremental(t *testing.T) {
	d := New("file:///a.ttl", turtle.Grammar{}, 1, "@prefix ex: <http://example.org/> .\nex:a ex:b ex:c .")
	assert.True(t, d.Stale())

	changed := d.Analyze()
	assert.Equal(t, []Reason{ReasonSyntax, ReasonSemantic}, changed)
	assert.False(t, d.Stale())
	require.Len(t, d.Derived.Triples, 1)

	assert.Empty(t, d.Analyze(), "nothing changed, nothing recomputed")

	d.SetText(2, d.Text)
	assert.False(t, d.Stale(), "identical text keeps artifacts")
	assert.Equal(t, int32(2), d.Version)

	require.NoError(t, d.Apply(3, []span.Change{{
		Range: &span.Range{Start: span.Position{Line: 1, Character: 10}, End: span.Position{Line: 1, Character: 14}},
		Text:  "ex:d",
	}}))
	assert.True(t, d.Stale())
	assert.Equal(t, uint64(2), d.Revision())
	d.Analyze()
	assert.Equal(t, "http://example.org/d", d.Derived.Triples[0].Object.Value)
}

func TestAnalyze_DiagnosticsByReason(t *testing.T) {
	d := New("file:///a.ttl", turtle.Grammar{}, 1, "@prefix foaf: <>.\nfoa")
	d.Analyze()
	assert.Len(t, d.Diagnostics(ReasonSyntax), 2)
	assert.Empty(t, d.Diagnostics(ReasonSemantic))
	assert.Empty(t, d.Diagnostics(ReasonVocabulary))
	assert.Len(t, d.AllDiagnostics(), 2)

	d.SetText(2, "@prefix foaf: <>.\nfoa:foaf")
	d.Analyze()
	assert.Empty(t, d.Diagnostics(ReasonSyntax))
	require.Len(t, d.Diagnostics(ReasonSemantic), 1)
	assert.Equal(t, lang.CodeUnknownPrefix, d.Diagnostics(ReasonSemantic)[0].Code)
}

const exPrefix = "@prefix ex: <http://example.org/> .\n"

func TestAnalyze_FormerPredicateAsSubject(t *testing.T) {
	d := New("file:///a.ttl", turtle.Grammar{}, 1, exPrefix+"ex:s ex:p ex:o .")
	d.Analyze()
	require.Empty(t, d.AllDiagnostics())

	// ex:p was only a predicate before, but the new text is valid
	d.SetText(2, exPrefix+"ex:p ex:q ex:r .")
	d.Analyze()
	assert.Empty(t, d.AllDiagnostics())
	require.Len(t, d.Derived.Triples, 1)
	assert.Equal(t, "http://example.org/p", d.Derived.Triples[0].Subject.Value)

	fresh := New("file:///a.ttl", turtle.Grammar{}, 2, d.Text)
	fresh.Analyze()
	assert.Equal(t, fresh.Tree, d.Tree)
	assert.Equal(t, fresh.Derived.Triples, d.Derived.Triples)

	// with the subject actually deleted the statement is read verb-first
	d.SetText(3, exPrefix+"ex:q ex:r .")
	d.Analyze()
	syntax := d.Diagnostics(ReasonSyntax)
	require.Len(t, syntax, 1)
	assert.Contains(t, syntax[0].Message, "expected a subject before 'ex:q'")
	st := d.Tree.(*turtle.Document).Statements[1].(*turtle.TripleStmt)
	assert.IsType(t, &turtle.Invalid{}, st.Subject)
	require.Len(t, st.Predicates, 1)
	assert.Equal(t, "q", st.Predicates[0].Verb.(*turtle.NamedNode).Value)
}

func TestAnalyze_Deterministic(t *testing.T) {
	versions := []string{
		exPrefix + "ex:s ex:p ex:o .\nex:t ex:q [ ex:r 1 ] .",
		exPrefix + "ex:p ex:o .\nex:t ex:q [ ex:r 1 ; ] ex:x .",
		exPrefix + "ex:p ex:o .\nex:t ex:q ( 1 2 \nex:u ex:v ex:w",
	}
	run := func() *Document {
		d := New("file:///a.ttl", turtle.Grammar{}, 1, versions[0])
		d.Analyze()
		for i, text := range versions[1:] {
			d.SetText(int32(i+2), text)
			d.Analyze()
		}
		return d
	}

	a, b := run(), run()
	require.NotEmpty(t, a.Syntax, "the last version has errors")
	assert.Equal(t, a.Tree, b.Tree)
	assert.Equal(t, a.Syntax, b.Syntax)
	assert.Equal(t, a.Roles, b.Roles)
	assert.Equal(t, a.Derived, b.Derived)
}

func TestAnalyze_Idempotent(t *testing.T) {
	inputs := []struct {
		grammar lang.Grammar
		text    string
	}{
		{turtle.Grammar{}, exPrefix + "ex:a ex:p [ ex:q ( 1 2 ) ] ; ex:r \"x\"@en .\nex:b ex:p ; .\nunknown:c ex:p ex:o ."},
		{sparql.Grammar{}, "PREFIX ex: <http://example.org/>\nSELECT ?s WHERE { ?s ex:p ?o . ?o ex:q [ ex:r ?x ] FILTER(?x > 1) }"},
		{jsonld.Grammar{}, `{"@context": {"ex": "http://example.org/"}, "@id": "ex:a", "ex:p": [{"@id": "ex:b"}, "lit"], "ex:broken": }`},
	}
	for _, in := range inputs {
		t.Run(in.grammar.Language().String(), func(t *testing.T) {
			once := New("file:///a", in.grammar, 1, in.text)
			once.Analyze()
			twice := New("file:///a", in.grammar, 1, in.text)
			twice.Analyze()

			assert.Equal(t, once.Derived.Triples, twice.Derived.Triples)
			assert.Equal(t, once.AllDiagnostics(), twice.AllDiagnostics())
		})
	}
}

func TestFormat(t *testing.T) {
	d := New("file:///a.ttl", turtle.Grammar{}, 1, "@prefix foaf: <>.")
	out, ok := d.Format(lang.FormatOptions{TabSize: 2, InsertSpaces: true})
	require.True(t, ok)
	assert.Equal(t, "@prefix foaf: <>.\n\n", out)

	broken := New("file:///b.ttl", turtle.Grammar{}, 1, "ex:a ex:b .")
	_, ok = broken.Format(lang.FormatOptions{})
	assert.False(t, ok, "syntax errors block formatting")

	q := New("file:///q.rq", sparql.Grammar{}, 1, "SELECT * WHERE { ?s ?p ?o }")
	_, ok = q.Format(lang.FormatOptions{})
	assert.False(t, ok, "no SPARQL formatter")
}

func TestSource(t *testing.T) {
	d := New("file:///a.ttl", turtle.Grammar{}, 1, `@prefix owl: <http://www.w3.org/2002/07/owl#> .
<> owl:imports <http://example.org/onto> .`)
	d.Analyze()
	src := d.Source()
	assert.Equal(t, "file:///a.ttl", src.URI)
	assert.Equal(t, []string{"http://example.org/onto"}, src.Imports)
	assert.Contains(t, src.Namespaces, "http://www.w3.org/2002/07/owl#")
	assert.Len(t, src.Graph, 1)
}

func TestValidate(t *testing.T) {
	const ns = "http://xmlns.com/foaf/0.1/"
	vocabulary := New(ns, turtle.Grammar{}, 0, `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
foaf:Person a owl:Class .
foaf:name a owl:DatatypeProperty .
foaf:knows a owl:ObjectProperty .`)
	vocabulary.Analyze()
	vsrc := vocabulary.Source()
	vsrc.Vocabulary = ns

	d := New("file:///a.ttl", turtle.Grammar{}, 1, `@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix ex: <http://example.org/> .
ex:me a foaf:Persn ; foaf:nam "me" ; foaf:knows ex:you ; ex:other "x" .`)
	d.Analyze()

	snap := index.Build(1, []index.Source{vsrc, d.Source()})
	diags := Validate(d, snap)
	require.Len(t, diags, 2)

	assert.Equal(t, lang.KindVocabulary, diags[0].Kind)
	assert.Equal(t, lang.SeverityWarning, diags[0].Severity)
	assert.Equal(t, lang.CodeUnknownTerm, diags[0].Code)
	assert.Contains(t, diags[0].Message, "foaf:Persn")
	assert.Contains(t, diags[0].Suggestions, "foaf:Person")

	assert.Contains(t, diags[1].Message, "foaf:nam")
	assert.Equal(t, "foaf:name", diags[1].Suggestions[0])
	assert.Equal(t, "foaf:nam", diags[1].Span.Slice(d.Text))

	assert.Empty(t, Validate(d, index.Build(2, []index.Source{d.Source()})), "no vocabulary, nothing checked")
}
