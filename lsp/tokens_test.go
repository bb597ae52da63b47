package lsp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/registry"
)

func TestEncoder(t *testing.T) {
	enc := NewEncoder()
	enc.Add(0, 2, 3, 1)
	enc.Add(0, 7, 2, 4)
	enc.Add(2, 1, 5, 0)
	assert.Equal(t, []uint32{
		0, 2, 3, 1, 0,
		0, 5, 2, 4, 0,
		2, 1, 5, 0, 0,
	}, enc.Data())
	assert.Equal(t, 3, enc.Len())

	// a new document starts from 0:0 again
	enc.Reset()
	enc.Add(1, 3, 2, 2)
	assert.Equal(t, []uint32{1, 3, 2, 2, 0}, enc.Data())
}

func analyzed(t *testing.T, uri, text string) *document.Document {
	t.Helper()
	g, err := registry.Detect(uri, "")
	require.NoError(t, err)
	d := document.New(uri, g, 1, text)
	d.Analyze()
	return d
}

func TestEncode_OneRecordPerRun(t *testing.T) {
	legend := registry.Legend()
	str, ok := legend.Index(lang.SemString)
	require.True(t, ok)
	comment, ok := legend.Index(lang.SemComment)
	require.True(t, ok)

	enc := NewEncoder()

	// one highlighted span across a line break gives one record per line
	Encode(enc, analyzed(t, "file:///s.ttl", "\"\"\"a\nb\"\"\""), legend)
	assert.Equal(t, []uint32{
		0, 0, 4, uint32(str), 0,
		1, 0, 4, uint32(str), 0,
	}, enc.Data())

	// the same encoder restarts for the next document
	Encode(enc, analyzed(t, "file:///c.ttl", "\n# hi"), legend)
	assert.Equal(t, []uint32{1, 0, 4, uint32(comment), 0}, enc.Data())
}

func TestEncode_AdjacentRunsSplit(t *testing.T) {
	legend := registry.Legend()
	ns, _ := legend.Index(lang.SemNamespace)
	class, _ := legend.Index(lang.SemClass)
	prop, _ := legend.Index(lang.SemProperty)
	kw, _ := legend.Index(lang.SemKeyword)
	str, _ := legend.Index(lang.SemString)

	text := "@prefix ex: <http://example.org/> .\nex:a ex:b \"x\" ."
	enc := NewEncoder()
	Encode(enc, analyzed(t, "file:///r.ttl", text), legend)
	data := enc.Data()
	require.Zero(t, len(data)%5)

	var line, char int
	type rec struct{ line, char, length, typ int }
	var got []rec
	for i := 0; i < len(data); i += 5 {
		if data[i] > 0 {
			line += int(data[i])
			char = 0
		}
		char += int(data[i+1])
		got = append(got, rec{line, char, int(data[i+2]), int(data[i+3])})
	}

	assert.Contains(t, got, rec{0, 0, 7, kw})
	assert.Contains(t, got, rec{0, 8, 3, ns})
	// prefix part and local part of a name are separate runs
	assert.Contains(t, got, rec{1, 0, 3, ns})
	assert.Contains(t, got, rec{1, 3, 1, class})
	assert.Contains(t, got, rec{1, 5, 3, ns})
	assert.Contains(t, got, rec{1, 8, 1, prop})
	assert.Contains(t, got, rec{1, 10, 3, str})
}

func TestSemanticTokens(t *testing.T) {
	s := newService(t, map[string]string{"file:///p.ttl": people})

	data, err := s.SemanticTokens(context.Background(), "file:///p.ttl")
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Zero(t, len(data)%5)
	for i := 3; i < len(data); i += 5 {
		assert.Less(t, int(data[i]), registry.Legend().Len())
	}
}
