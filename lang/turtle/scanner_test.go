package turtle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/token"
)

func TestScan_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{"prefix directive", "@prefix foaf: <http://xmlns.com/foaf/0.1/> .",
			[]token.Kind{token.PrefixTag, token.PNameNS, token.IRIRef, token.Stop}},
		{"sparql directives", "PREFIX ex: <http://ex/>\nbase <http://ex/>",
			[]token.Kind{token.SparqlPrefix, token.PNameNS, token.IRIRef, token.SparqlBase, token.IRIRef}},
		{"literals", `ex:a ex:b "x"@en, 1, 1.5, 1e3, true .`,
			[]token.Kind{token.PNameLN, token.PNameLN, token.String, token.LangTag, token.Comma, token.Integer,
				token.Comma, token.Decimal, token.Comma, token.Double, token.Comma, token.True, token.Stop}},
		{"trailing dot after local name", "ex:a.",
			[]token.Kind{token.PNameLN, token.Stop}},
		{"integer then stop", "1.",
			[]token.Kind{token.Integer, token.Stop}},
		{"blank label then stop", "_:b1.",
			[]token.Kind{token.BlankNodeLabel, token.Stop}},
		{"datatype", `"1"^^xsd:int`,
			[]token.Kind{token.String, token.DataTypeTag, token.PNameLN}},
		{"punctuation", "[ ] ( ) ; ,",
			[]token.Kind{token.SqOpen, token.SqClose, token.BracketOpen, token.BracketClose, token.Semicolon, token.Comma}},
		{"type keyword", "ex:s a ex:C",
			[]token.Kind{token.PNameLN, token.PredType, token.PNameLN}},
		{"comment", "# hi\nex:a",
			[]token.Kind{token.Comment, token.PNameLN}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := Scan(tt.input, Dialect{})
			assert.Empty(t, diags)
			assert.Equal(t, tt.want, token.Kinds(tokens))
		})
	}
}

func TestScan_DecodedText(t *testing.T) {
	tokens, diags := Scan(`<http://ex/é> ex:a\-b "a\nb" """x"y""" _:n0 @en-GB`, Dialect{})
	require.Empty(t, diags)
	require.Len(t, tokens, 6)

	assert.Equal(t, "http://ex/é", tokens[0].Value.Text)
	assert.Equal(t, "ex", tokens[1].Value.Prefix)
	assert.Equal(t, "a-b", tokens[1].Value.Text)
	assert.Equal(t, "a\nb", tokens[2].Value.Text)
	assert.Equal(t, `x"y`, tokens[3].Value.Text)
	assert.True(t, tokens[3].Value.Long)
	assert.Equal(t, "n0", tokens[4].Value.Text)
	assert.Equal(t, "en-GB", tokens[5].Value.Text)
}

func TestScan_Spans(t *testing.T) {
	text := "ex:a  <http://x/>"
	tokens, _ := Scan(text, Dialect{})
	require.Len(t, tokens, 2)
	assert.Equal(t, "ex:a", tokens[0].Span.Slice(text))
	assert.Equal(t, "<http://x/>", tokens[1].Span.Slice(text))
}

func TestScan_InvalidRuns(t *testing.T) {
	t.Run("bare word", func(t *testing.T) {
		tokens, diags := Scan("foa", Dialect{})
		require.Len(t, tokens, 1)
		assert.Equal(t, token.Invalid, tokens[0].Value.Kind)
		assert.Equal(t, "foa", tokens[0].Value.Text)
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "foa")
	})

	t.Run("unterminated string resyncs on next line", func(t *testing.T) {
		tokens, diags := Scan("\"abc\nex:a", Dialect{})
		assert.Equal(t, []token.Kind{token.Invalid, token.PNameLN}, token.Kinds(tokens))
		assert.Len(t, diags, 1)
	})

	t.Run("unterminated IRI", func(t *testing.T) {
		tokens, diags := Scan("<http://ex/a", Dialect{})
		assert.Equal(t, []token.Kind{token.Invalid}, token.Kinds(tokens))
		assert.Len(t, diags, 1)
	})

	t.Run("stray character", func(t *testing.T) {
		tokens, diags := Scan("ex:a ` ex:b", Dialect{})
		assert.Equal(t, []token.Kind{token.PNameLN, token.Invalid, token.PNameLN}, token.Kinds(tokens))
		assert.Len(t, diags, 1)
	})
}

func TestScan_SPARQLDialect(t *testing.T) {
	d := Dialect{SPARQL: true, Keywords: map[string]struct{}{"SELECT": {}, "WHERE": {}, "FILTER": {}}}

	tokens, diags := Scan("select ?x WHERE { ?x a ex:C FILTER(?x < 3) }", d)
	require.Empty(t, diags)
	assert.Equal(t, []token.Kind{
		token.Keyword, token.Variable, token.Keyword, token.CurlOpen,
		token.Variable, token.PredType, token.PNameLN,
		token.Keyword, token.BracketOpen, token.Variable, token.Op, token.Integer, token.BracketClose,
		token.CurlClose,
	}, token.Kinds(tokens))
	assert.Equal(t, "SELECT", tokens[0].Value.Text)
	assert.Equal(t, "x", tokens[1].Value.Text)
	assert.Equal(t, "<", tokens[10].Value.Text)
}
