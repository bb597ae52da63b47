// Package vocab fetches, caches and parses the vocabularies behind the
// namespaces documents declare, so completion and validation can offer and
// check their terms.
package vocab

import (
	"bytes"
	"strings"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/registry"
	"github.com/teranos/semls/rdf"
)

// Vocabulary is a parsed namespace document.
type Vocabulary struct {
	Namespace string
	URL       string
	Graph     rdf.Graph
	Prefixes  *rdf.Prefixes
}

// Defines reports whether iri is the subject of some triple in v.
func (v *Vocabulary) Defines(iri string) bool {
	for _, t := range v.Graph {
		if t.Subject.Kind == rdf.IRI && t.Subject.Value == iri {
			return true
		}
	}
	return false
}

// Parse reads body as Turtle or JSON-LD, choosing by content type and
// falling back to sniffing the first significant byte.
func Parse(namespace, url, contentType string, body []byte) (*Vocabulary, error) {
	g, err := registry.For(formatOf(contentType, body))
	if err != nil {
		return nil, err
	}
	text := string(body)
	tokens, _ := g.Tokenize(text)
	tree, _, _ := g.Parse(tokens, len(text), nil)
	d := g.Derive(tree, url)
	if len(d.Triples) == 0 {
		return nil, errors.Wrapf(errors.ErrFetchFailed, "%s: no triples in vocabulary", url)
	}
	return &Vocabulary{
		Namespace: namespace,
		URL:       url,
		Graph:     rdf.Graph(d.Triples),
		Prefixes:  d.Prefixes,
	}, nil
}

func formatOf(contentType string, body []byte) lang.Language {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "turtle"):
		return lang.Turtle
	case strings.Contains(ct, "ld+json"), strings.Contains(ct, "json"):
		return lang.JSONLD
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n\uFEFF")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return lang.JSONLD
	}
	return lang.Turtle
}
