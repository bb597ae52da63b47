package rdf

import (
	"sort"
	"strings"

	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Prefix binds a label to a namespace IRI.
type Prefix struct {
	Name      string
	Namespace string
	Span      span.Span // declaration, empty for built-in prefixes
}

// Prefixes is the ordered prefix table of one document. The zero value is
// an empty table.
type Prefixes struct {
	list []Prefix
}

// Add declares name. A redeclaration replaces the namespace in place.
func (p *Prefixes) Add(name, namespace string, sp span.Span) {
	for i := range p.list {
		if p.list[i].Name == name {
			p.list[i].Namespace = namespace
			p.list[i].Span = sp
			return
		}
	}
	p.list = append(p.list, Prefix{Name: name, Namespace: namespace, Span: sp})
}

func (p *Prefixes) Lookup(name string) (Prefix, bool) {
	if p == nil {
		return Prefix{}, false
	}
	for _, x := range p.list {
		if x.Name == name {
			return x, true
		}
	}
	return Prefix{}, false
}

// Expand resolves name:local.
func (p *Prefixes) Expand(name, local string) (string, bool) {
	x, ok := p.Lookup(name)
	if !ok {
		return "", false
	}
	return x.Namespace + local, true
}

// Shorten writes iri as a prefixed name using the longest matching
// namespace whose remainder is a valid local name.
func (p *Prefixes) Shorten(iri string) (string, bool) {
	if p == nil {
		return "", false
	}
	best := -1
	for i, x := range p.list {
		if x.Namespace == "" || !strings.HasPrefix(iri, x.Namespace) {
			continue
		}
		if !ValidLocal(iri[len(x.Namespace):]) {
			continue
		}
		if best < 0 || len(x.Namespace) > len(p.list[best].Namespace) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	x := p.list[best]
	return x.Name + ":" + iri[len(x.Namespace):], true
}

// All returns the declarations in order.
func (p *Prefixes) All() []Prefix {
	if p == nil {
		return nil
	}
	return append([]Prefix(nil), p.list...)
}

func (p *Prefixes) Len() int {
	if p == nil {
		return 0
	}
	return len(p.list)
}

// Namespaces returns the set of declared namespace IRIs.
func (p *Prefixes) Namespaces() map[string]struct{} {
	out := make(map[string]struct{}, p.Len())
	for _, x := range p.All() {
		if x.Namespace != "" {
			out[x.Namespace] = struct{}{}
		}
	}
	return out
}

// ValidLocal reports whether s can be written as a PN_LOCAL without escapes.
func ValidLocal(s string) bool {
	if s == "" {
		return true
	}
	for i, r := range s {
		switch {
		case token.IsPNChars(r):
		case r == ':' || (i == 0 && token.IsDigit(r)):
		case r == '.' && i > 0 && i < len(s)-1:
		default:
			return false
		}
	}
	return true
}

// WellKnown maps common prefix labels to their namespaces.
var WellKnown = map[string]string{
	"rdf":     NSRDF,
	"rdfs":    NSRDFS,
	"owl":     NSOWL,
	"xsd":     NSXSD,
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
	"schema":  "https://schema.org/",
	"sh":      "http://www.w3.org/ns/shacl#",
	"prov":    "http://www.w3.org/ns/prov#",
	"dcat":    "http://www.w3.org/ns/dcat#",
	"vcard":   "http://www.w3.org/2006/vcard/ns#",
	"geo":     "http://www.w3.org/2003/01/geo/wgs84_pos#",
	"void":    "http://rdfs.org/ns/void#",
}

// WellKnownPrefixes returns WellKnown sorted by label.
func WellKnownPrefixes() []Prefix {
	out := make([]Prefix, 0, len(WellKnown))
	for name, ns := range WellKnown {
		out = append(out, Prefix{Name: name, Namespace: ns})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
