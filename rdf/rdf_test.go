package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/span"
)

func TestResolveRFC3986(t *testing.T) {
	const base = "http://a/b/c/d;p?q"
	vectors := map[string]string{
		// normal examples, section 5.4.1
		"g:h":     "g:h",
		"g":       "http://a/b/c/g",
		"./g":     "http://a/b/c/g",
		"g/":      "http://a/b/c/g/",
		"/g":      "http://a/g",
		"//g":     "http://g",
		"?y":      "http://a/b/c/d;p?y",
		"g?y":     "http://a/b/c/g?y",
		"#s":      "http://a/b/c/d;p?q#s",
		"g#s":     "http://a/b/c/g#s",
		"g?y#s":   "http://a/b/c/g?y#s",
		";x":      "http://a/b/c/;x",
		"g;x":     "http://a/b/c/g;x",
		"g;x?y#s": "http://a/b/c/g;x?y#s",
		"":        "http://a/b/c/d;p?q",
		".":       "http://a/b/c/",
		"./":      "http://a/b/c/",
		"..":      "http://a/b/",
		"../":     "http://a/b/",
		"../g":    "http://a/b/g",
		"../..":   "http://a/",
		"../../":  "http://a/",
		"../../g": "http://a/g",
		// abnormal examples, section 5.4.2
		"../../../g":    "http://a/g",
		"../../../../g": "http://a/g",
		"/./g":          "http://a/g",
		"/../g":         "http://a/g",
		"g.":            "http://a/b/c/g.",
		".g":            "http://a/b/c/.g",
		"g..":           "http://a/b/c/g..",
		"..g":           "http://a/b/c/..g",
		"./../g":        "http://a/b/g",
		"./g/.":         "http://a/b/c/g/",
		"g/./h":         "http://a/b/c/g/h",
		"g/../h":        "http://a/b/c/h",
		"g;x=1/./y":     "http://a/b/c/g;x=1/y",
		"g;x=1/../y":    "http://a/b/c/y",
		"g?y/./x":       "http://a/b/c/g?y/./x",
		"g?y/../x":      "http://a/b/c/g?y/../x",
		"g#s/./x":       "http://a/b/c/g#s/./x",
		"g#s/../x":      "http://a/b/c/g#s/../x",
		"http:g":        "http:g",
	}
	for ref, want := range vectors {
		got, ok := Resolve(base, ref)
		require.True(t, ok, ref)
		assert.Equal(t, want, got, "resolve %q", ref)
	}
}

func TestResolveWithoutBase(t *testing.T) {
	got, ok := Resolve("", "#me")
	assert.False(t, ok)
	assert.Equal(t, "#me", got)

	got, ok = Resolve("", "http://example.org/a/../b")
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/b", got)

	got, ok = Resolve("file:///home/me/a.ttl", "#me")
	assert.True(t, ok)
	assert.Equal(t, "file:///home/me/a.ttl#me", got)
}

func TestPrefixes(t *testing.T) {
	var p Prefixes
	p.Add("foaf", "http://xmlns.com/foaf/0.1/", span.New(0, 10))
	p.Add("ex", "http://example.org/", span.New(11, 20))
	p.Add("exv", "http://example.org/vocab#", span.New(21, 30))

	iri, ok := p.Expand("foaf", "name")
	require.True(t, ok)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/name", iri)

	_, ok = p.Expand("foa", "name")
	assert.False(t, ok)

	short, ok := p.Shorten("http://example.org/vocab#term")
	require.True(t, ok)
	assert.Equal(t, "exv:term", short, "longest namespace wins")

	_, ok = p.Shorten("http://example.org/a/b")
	assert.False(t, ok, "slash is not a valid local name character")

	p.Add("ex", "http://example.com/", span.New(40, 50))
	assert.Equal(t, 3, p.Len())
	x, _ := p.Lookup("ex")
	assert.Equal(t, "http://example.com/", x.Namespace)
	assert.Contains(t, p.Namespaces(), "http://xmlns.com/foaf/0.1/")
}

func TestTermEqualityIgnoresSpan(t *testing.T) {
	a := NewIRI("http://x/a", span.New(0, 3))
	b := NewIRI("http://x/a", span.New(10, 13))
	assert.True(t, a.Equal(b))

	tr1 := Triple{Subject: a, Predicate: NewIRI(RDFType, span.New(4, 5)), Object: NewLiteral("x", "", "en", span.New(6, 9)), Span: span.New(0, 9)}
	tr2 := tr1
	tr2.Span = span.New(100, 200)
	assert.True(t, tr1.Equal(tr2))
	assert.Equal(t, RDFLangString, tr1.Object.Datatype)
	assert.Equal(t, `<http://x/a> <`+RDFType+`> "x"@en .`, tr1.String())
}

func TestGraphLookups(t *testing.T) {
	me := NewIRI("http://x/me", span.Span{})
	person := NewIRI("http://x/Person", span.Span{})
	g := Graph{
		{Subject: me, Predicate: NewIRI(RDFType, span.Span{}), Object: person, Span: span.New(0, 10)},
		{Subject: me, Predicate: NewIRI(RDFSLabel, span.Span{}), Object: NewLiteral("Me", XSDString, "", span.Span{}), Span: span.New(0, 20)},
	}

	assert.Equal(t, []Term{person}, g.Objects(me.Key(), RDFType))
	assert.Equal(t, []Term{me}, g.Subjects(RDFType, person.Key()))
	label, ok := g.Literal(me.Key(), RDFSLabel)
	require.True(t, ok)
	assert.Equal(t, "Me", label)
	assert.Len(t, g.Covering(15), 1)
	assert.Len(t, g.Set(), 2)
	assert.Equal(t, "Person", person.Local())
}

func TestWellKnownPrefixesSorted(t *testing.T) {
	list := WellKnownPrefixes()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Name, list[i].Name)
	}
}
