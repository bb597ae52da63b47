package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/lang"
)

func TestFor(t *testing.T) {
	for _, l := range []lang.Language{lang.Turtle, lang.JSONLD, lang.SPARQL} {
		g, err := For(l)
		require.NoError(t, err)
		assert.Equal(t, l, g.Language())
	}

	_, err := For(lang.Unknown)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedLanguage))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestDetect(t *testing.T) {
	g, err := Detect("file:///x/q.rq", "")
	require.NoError(t, err)
	assert.Equal(t, lang.SPARQL, g.Language())

	g, err = Detect("file:///x/data.txt", "turtle")
	require.NoError(t, err)
	assert.Equal(t, lang.Turtle, g.Language())
}

func TestLegend(t *testing.T) {
	l := Legend()
	assert.Same(t, l, Legend())

	types := l.Types()
	seen := map[string]bool{}
	for _, typ := range types {
		assert.False(t, seen[typ], "duplicate %s", typ)
		seen[typ] = true
	}
	// Turtle registers first, so its order is kept.
	assert.Equal(t, string(lang.SemComment), types[0])
	_, ok := l.Index(lang.SemFunction)
	assert.True(t, ok)
	_, ok = l.Index(lang.SemProperty)
	assert.True(t, ok)
}
