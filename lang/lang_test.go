package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/span"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		uri, hint string
		want      Language
	}{
		{"file:///a.ttl", "", Turtle},
		{"file:///a.TTL", "", Turtle},
		{"file:///a.txt", "turtle", Turtle},
		{"file:///a.ttl", "sparql", SPARQL},
		{"file:///q.rq", "", SPARQL},
		{"file:///ctx.jsonld", "", JSONLD},
		{"file:///ctx.json?x=1", "", JSONLD},
		{"file:///a.txt", "plaintext", Unknown},
		{"untitled:Untitled-1", "", Unknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectLanguage(tc.uri, tc.hint), "%s %s", tc.uri, tc.hint)
	}
}

func TestDiagnosticBuilder(t *testing.T) {
	d := Errorf(KindSyntax, span.New(3, 4), "unexpected %s", "'.'").
		WithCode(CodeUnexpected).
		WithResume(10).
		WithSuggestion("add a predicate")

	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, 10, d.Resume)
	assert.Equal(t, "unexpected '.'. Suggestions: add a predicate", d.Plain())
	assert.Contains(t, d.Terminal("a.ttl:1:4"), "unexpected '.'")

	w := NewDiagnostic(KindSemantic, span.At(0), "x").WithSeverity(SeverityWarning)
	assert.Equal(t, -1, w.Resume)

	ds := Collect(d, nil, w)
	require.Len(t, ds, 2)
	assert.Equal(t, 1, CountErrors(ds))
}

func TestLegendUnion(t *testing.T) {
	l := NewLegend(
		[]SemanticType{SemKeyword, SemNamespace, SemProperty},
		[]SemanticType{SemProperty, SemVariable},
	)
	assert.Equal(t, []string{"keyword", "namespace", "property", "variable"}, l.Types())
	i, ok := l.Index(SemVariable)
	require.True(t, ok)
	assert.Equal(t, 3, i)
	_, ok = l.Index(SemComment)
	assert.False(t, ok)
}

func TestFormatOptionsIndent(t *testing.T) {
	assert.Equal(t, "\t", FormatOptions{}.Indent())
	assert.Equal(t, "    ", FormatOptions{TabSize: 4, InsertSpaces: true}.Indent())
	assert.Equal(t, "  ", FormatOptions{InsertSpaces: true}.Indent())
}
