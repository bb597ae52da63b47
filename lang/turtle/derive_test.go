package turtle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/rdf"
)

const docURI = "file:///work/a.ttl"

func derive(t *testing.T, text string) lang.Derivation {
	t.Helper()
	doc, diags := parse(t, text)
	require.Empty(t, diags, "syntax errors in %q", text)
	return Derive(doc, docURI)
}

func TestDerive_Triples(t *testing.T) {
	text := `@prefix ex: <http://example.org/> .
ex:a a ex:C ;
  ex:p "x"@en, 42 ;
  ex:q [ ex:r ex:s ] ;
  ex:l ( ex:x ex:y ) .
`
	d := derive(t, text)
	require.Empty(t, d.Diagnostics)
	require.Len(t, d.Triples, 10)

	first := d.Triples[0]
	assert.Equal(t, "http://example.org/a", first.Subject.Value)
	assert.Equal(t, rdf.RDFType, first.Predicate.Value)
	assert.Equal(t, "http://example.org/C", first.Object.Value)

	lit := d.Triples[1].Object
	assert.Equal(t, "en", lit.Language)
	assert.Equal(t, rdf.RDFLangString, lit.Datatype)
	assert.Equal(t, rdf.XSDInteger, d.Triples[2].Object.Datatype)

	// the nested triple comes before the one that links it
	assert.Equal(t, rdf.BlankNode, d.Triples[3].Subject.Kind)
	assert.Equal(t, "http://example.org/q", d.Triples[4].Predicate.Value)
	assert.True(t, d.Triples[3].Subject.Equal(d.Triples[4].Object))

	// collection cells
	graph := rdf.Graph(d.Triples)
	list := d.Triples[9].Object
	heads := graph.Objects(list.Key(), rdf.RDFFirst)
	require.Len(t, heads, 1)
	assert.Equal(t, "http://example.org/x", heads[0].Value)

	ns, ok := d.Prefixes.Lookup("ex")
	require.True(t, ok)
	assert.Equal(t, "http://example.org/", ns.Namespace)
}

func TestDerive_SpansContained(t *testing.T) {
	text := "@prefix ex: <http://example.org/> .\nex:a ex:p [ ex:q ( ex:r ) ] ."
	doc, _ := parse(t, text)
	d := Derive(doc, docURI)

	stmt := doc.Statements[1].Span()
	for _, tr := range d.Triples {
		assert.True(t, stmt.Covers(tr.Span), "triple %s outside its statement", tr)
		for _, term := range tr.Terms() {
			assert.True(t, tr.Span.Covers(term.Span), "term %s outside triple %s", term, tr)
		}
	}
}

func TestDerive_BlankNodeLabels(t *testing.T) {
	d := derive(t, "@prefix ex: <http://example.org/> .\n[] ex:p [ ex:q _:x ], [] .")
	labels := map[string]bool{}
	for _, tr := range d.Triples {
		for _, term := range tr.Terms() {
			if term.Kind == rdf.BlankNode {
				labels[term.Value] = true
			}
		}
	}
	assert.Equal(t, map[string]bool{".0": true, ".1": true, ".2": true, "x": true}, labels)
}

func TestDerive_UnknownPrefix(t *testing.T) {
	doc, _ := parse(t, "@prefix foaf: <>.\nfoaf:me foaf:knows foa:foaf .")
	d := Derive(doc, docURI)

	require.Len(t, d.Diagnostics, 1)
	diag := d.Diagnostics[0]
	assert.Equal(t, lang.KindSemantic, diag.Kind)
	assert.Equal(t, lang.CodeUnknownPrefix, diag.Code)

	require.Len(t, d.Triples, 1)
	assert.Equal(t, rdf.Invalid, d.Triples[0].Object.Kind)
	assert.Equal(t, "foa:foaf", d.Triples[0].Object.Value)
}

func TestDerive_WellKnownSuggestion(t *testing.T) {
	doc, _ := parse(t, "<http://ex/a> foaf:name \"A\" .")
	d := Derive(doc, docURI)
	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, []string{"@prefix foaf: <http://xmlns.com/foaf/0.1/> ."}, d.Diagnostics[0].Suggestions)
}

func TestDerive_IncompleteStatementStillResolves(t *testing.T) {
	doc, diags := parse(t, "@prefix foaf: <>.\nfoa:foaf")
	require.Empty(t, diags)
	d := Derive(doc, docURI)
	assert.Len(t, d.Diagnostics, 1)
	assert.Empty(t, d.Triples)
}

func TestDerive_Base(t *testing.T) {
	d := derive(t, "@base <http://example.org/dir/> .\n<a> <b> <../c> .")
	require.Len(t, d.Triples, 1)
	assert.Equal(t, "http://example.org/dir/a", d.Triples[0].Subject.Value)
	assert.Equal(t, "http://example.org/c", d.Triples[0].Object.Value)
	assert.Equal(t, "http://example.org/dir/", d.Base)
}

func TestDerive_RelativeWithoutBase(t *testing.T) {
	doc, _ := parse(t, "<a> <b> <c> .")
	d := Derive(doc, "")
	assert.Len(t, d.Diagnostics, 3)
	for _, diag := range d.Diagnostics {
		assert.Equal(t, lang.CodeRelativeIRI, diag.Code)
	}
	require.Len(t, d.Triples, 1)
	assert.Equal(t, rdf.Invalid, d.Triples[0].Subject.Kind)
}

func TestDerive_MalformedLiteral(t *testing.T) {
	d := derive(t, `@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
<http://ex/a> <http://ex/n> "abc"^^xsd:integer, "12"^^xsd:integer .`)
	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, lang.SeverityWarning, d.Diagnostics[0].Severity)
	assert.Equal(t, lang.CodeMalformed, d.Diagnostics[0].Code)
	assert.Len(t, d.Triples, 2)
}

func TestDerive_Imports(t *testing.T) {
	d := derive(t, `@prefix owl: <http://www.w3.org/2002/07/owl#> .
<http://ex/onto> a owl:Ontology ; owl:imports <http://ex/vocab> .`)
	assert.Equal(t, []string{"http://ex/vocab"}, d.Imports)
}

func TestDerive_Redeclaration(t *testing.T) {
	d := derive(t, "@prefix ex: <http://a/> .\n@prefix ex: <http://b/> .\nex:x ex:y ex:z .")
	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, lang.CodeDuplicatePrefix, d.Diagnostics[0].Code)
	assert.Equal(t, "http://b/x", d.Triples[0].Subject.Value)
}
