package turtle

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/lang"
)

var spaces = lang.FormatOptions{TabSize: 2, InsertSpaces: true}

func format(t *testing.T, text string) string {
	t.Helper()
	doc, diags := parse(t, text)
	require.Empty(t, diags)
	out, ok := Format(doc, spaces)
	require.True(t, ok)
	return out
}

func TestFormat_EmptyPrefix(t *testing.T) {
	assert.Equal(t, "@prefix foaf: <>.\n\n", format(t, "@prefix foaf: <>."))
}

func TestFormat_Layout(t *testing.T) {
	in := `@prefix ex: <http://example.org/>.
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
ex:a ex:p ex:o;ex:q "x", 1 .
ex:b a ex:C.`
	want := `@prefix ex: <http://example.org/>.
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>

ex:a ex:p ex:o ;
  ex:q "x", 1.

ex:b a ex:C.
`
	assert.Equal(t, want, format(t, in))
}

func TestFormat_NestedAndLiterals(t *testing.T) {
	in := `ex:a ex:p [ ex:q ex:r ; ex:s "line\nbreak"@en ] , ( 1 2 ), [] ; ex:t "v"^^ex:D .`
	want := `ex:a ex:p [
    ex:q ex:r ;
    ex:s """line
break"""@en
  ], ( 1 2 ), [] ;
  ex:t "v"^^ex:D.
`
	assert.Equal(t, want, format(t, "@prefix ex: <http://ex/> .\n"+in)[len("@prefix ex: <http://ex/>.\n\n"):])
}

func TestFormat_Idempotent(t *testing.T) {
	inputs := []string{
		"@prefix foaf: <>.",
		"@prefix ex: <http://ex/> .\nex:a ex:p ex:o , ex:o2 ; ex:q [ ex:r 1.5 ] .\n\n\nex:b ex:p ( ) .",
		"# leading\n@prefix ex: <http://ex/> . # trailing\nex:a ex:p \"x\\\"y\" .\n# end",
		`<http://ex/a> <http://ex/p> ex:local\,name .`,
	}
	for _, in := range inputs {
		doc, diags := parse(t, in)
		if len(diags) > 0 {
			continue
		}
		once, ok := Format(doc, spaces)
		require.True(t, ok)
		assert.Equal(t, once, format(t, once), "input %q", in)
	}
}

func sortedTriples(t *testing.T, text string) []string {
	t.Helper()
	d := derive(t, text)
	require.Empty(t, d.Diagnostics, "derivation of %q", text)
	out := make([]string, len(d.Triples))
	for i, tr := range d.Triples {
		out[i] = tr.String()
	}
	sort.Strings(out)
	return out
}

func TestFormat_PreservesTriples(t *testing.T) {
	inputs := map[string]string{
		"long string ending in a quote": "@prefix ex: <http://ex/> .\nex:s ex:p \"\"\"first line\nsay \"hi\\\"\"\"\" ; ex:q \"short \\\"quoted\\\"\" .",
		"escaped local names":           "@prefix ex: <http://ex/> .\nex:local\\,name ex:with\\~tilde ex:a\\.b .",
		"base and relative IRIs": `@base <http://ex/base/> .
<rel> <p> <../up>, <#frag> .
@base <sub/> .
<x> <p> <y> .`,
		"numbers": "@prefix ex: <http://ex/> .\nex:n ex:int 42, -7, +3 ; ex:dec 2.50, -0.5 ; ex:dbl 1.0e10, 4E-2 ; ex:bool true, false .",
		"nested blank nodes and collections": `@prefix ex: <http://ex/> .
ex:a ex:p [ ex:q ( 1 [ ex:r ( ) ] ( 2 3 ) ) ; ex:s [ ex:t ex:u ] ] .
[ ex:v ( ex:w ) ] ex:x [] .
( ex:head ex:tail ) ex:y ex:z .`,
		"typed and tagged literals": "@prefix ex: <http://ex/> .\n@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\nex:a ex:p \"v\"^^xsd:string, \"w\"@en-GB, 'single' .",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			before := sortedTriples(t, in)
			require.NotEmpty(t, before)

			formatted := format(t, in)
			assert.Equal(t, before, sortedTriples(t, formatted), "formatted:\n%s", formatted)
		})
	}
}

func TestFormat_Comments(t *testing.T) {
	out := format(t, "# header\n@prefix ex: <http://ex/> .\nex:a ex:p ex:o . # same line\n# footer")
	assert.Equal(t, "# header\n@prefix ex: <http://ex/>.\n\nex:a ex:p ex:o.\n# same line\n# footer\n", out)
}

func TestFormat_RefusesBrokenDocuments(t *testing.T) {
	for _, text := range []string{"ex:a ex:p ; .", "ex:a ex:p", "@prefix ex:"} {
		doc, _ := parse(t, text)
		_, ok := Format(doc, spaces)
		assert.False(t, ok, text)
	}
}

func TestFormat_TabsByDefault(t *testing.T) {
	doc, _ := parse(t, "<http://a> <http://p> 1 ; <http://q> 2 .")
	out, ok := Format(doc, lang.FormatOptions{})
	require.True(t, ok)
	assert.Equal(t, "<http://a> <http://p> 1 ;\n\t<http://q> 2.\n", out)
}
