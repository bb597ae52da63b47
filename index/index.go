// Package index builds the immutable project-wide view of classes,
// properties and subjects across open documents and loaded vocabularies.
// A Snapshot is never modified after Build; the workspace swaps in a new
// one after every change.
package index

import (
	"sort"
	"strings"

	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
)

// Kind classifies an entry.
type Kind uint8

const (
	Subject Kind = iota
	Class
	Property
)

func (k Kind) String() string {
	switch k {
	case Class:
		return "class"
	case Property:
		return "property"
	}
	return "subject"
}

// Source is one input to Build: an open document or a loaded vocabulary.
type Source struct {
	URI        string
	Graph      rdf.Graph
	Namespaces map[string]struct{} // declared prefix namespaces
	Imports    []string            // owl:imports targets

	// Vocabulary is the namespace a fetched vocabulary was loaded for,
	// empty for open documents.
	Vocabulary string
}

// Entry is an IRI defined or used as a subject in some source.
type Entry struct {
	IRI     string
	Kind    Kind
	Label   string
	Comment string
	Source  string
	Span    span.Span // first subject occurrence in Source
	Domain  []string
	Range   []string
	Parents []string // rdfs:subClassOf targets

	// FromVocabulary marks entries that came from a fetched vocabulary.
	FromVocabulary bool
}

// Snapshot is an immutable project index.
type Snapshot struct {
	generation uint64
	sources    map[string]*Source
	order      []string
	byIRI      map[string][]Entry // classes and properties
	subjects   map[string][]Entry // per source URI
	vocabs     map[string]*Source // by namespace
}

// Empty is the snapshot before any document was opened.
func Empty() *Snapshot {
	return Build(0, nil)
}

// Build indexes sources. Later sources with the same URI replace earlier
// ones.
func Build(generation uint64, sources []Source) *Snapshot {
	s := &Snapshot{
		generation: generation,
		sources:    make(map[string]*Source, len(sources)),
		byIRI:      make(map[string][]Entry),
		subjects:   make(map[string][]Entry),
		vocabs:     make(map[string]*Source),
	}
	for i := range sources {
		src := sources[i]
		if _, dup := s.sources[src.URI]; !dup {
			s.order = append(s.order, src.URI)
		}
		s.sources[src.URI] = &src
	}
	sort.Strings(s.order)
	for _, uri := range s.order {
		src := s.sources[uri]
		if src.Vocabulary != "" {
			s.vocabs[src.Vocabulary] = src
		}
		s.add(src)
	}
	return s
}

func (s *Snapshot) add(src *Source) {
	g := src.Graph
	seen := make(map[string]int)
	var subjects []Entry

	entry := func(iri string, sp span.Span) int {
		if i, ok := seen[iri]; ok {
			return i
		}
		subj := rdf.TermKey{Kind: rdf.IRI, Value: iri}
		e := Entry{IRI: iri, Source: src.URI, Span: sp, FromVocabulary: src.Vocabulary != ""}
		e.Label, _ = g.Literal(subj, rdf.RDFSLabel)
		e.Comment, _ = g.Literal(subj, rdf.RDFSComment)
		seen[iri] = len(subjects)
		subjects = append(subjects, e)
		return len(subjects) - 1
	}

	for _, t := range g {
		if t.Subject.Kind != rdf.IRI {
			continue
		}
		i := entry(t.Subject.Value, t.Subject.Span)
		e := &subjects[i]
		if t.Predicate.Kind != rdf.IRI || t.Object.Kind != rdf.IRI {
			continue
		}
		switch p, o := t.Predicate.Value, t.Object.Value; {
		case p == rdf.RDFType && rdf.IsClassType(o):
			e.Kind = Class
		case p == rdf.RDFType && rdf.IsPropertyType(o):
			e.Kind = Property
		case p == rdf.RDFSSubClassOf:
			e.Kind = Class
			e.Parents = append(e.Parents, o)
		case p == rdf.RDFSDomain:
			e.Kind = Property
			e.Domain = append(e.Domain, o)
		case p == rdf.RDFSRange:
			e.Kind = Property
			e.Range = append(e.Range, o)
		}
	}

	s.subjects[src.URI] = subjects
	for _, e := range subjects {
		if e.Kind != Subject {
			s.byIRI[e.IRI] = append(s.byIRI[e.IRI], e)
		}
	}
}

func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Sources returns the indexed source URIs in sorted order.
func (s *Snapshot) Sources() []string {
	return append([]string(nil), s.order...)
}

// Source returns the indexed source for uri.
func (s *Snapshot) Source(uri string) (*Source, bool) {
	src, ok := s.sources[uri]
	return src, ok
}

// Lookup returns the class and property definitions of iri, one per source.
func (s *Snapshot) Lookup(iri string) []Entry {
	return s.byIRI[iri]
}

// Describe returns the first labelled entry for iri, searching definitions
// before plain subjects.
func (s *Snapshot) Describe(iri string) (Entry, bool) {
	for _, e := range s.byIRI[iri] {
		if e.Label != "" || e.Comment != "" {
			return e, true
		}
	}
	if defs := s.byIRI[iri]; len(defs) > 0 {
		return defs[0], true
	}
	for _, uri := range s.order {
		for _, e := range s.subjects[uri] {
			if e.IRI == iri {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// InNamespace returns the definitions of kind whose IRI starts with ns,
// sorted by IRI and source.
func (s *Snapshot) InNamespace(ns string, kind Kind) []Entry {
	var out []Entry
	for iri, defs := range s.byIRI {
		if !strings.HasPrefix(iri, ns) || len(iri) == len(ns) {
			continue
		}
		for _, e := range defs {
			if e.Kind == kind {
				out = append(out, e)
			}
		}
	}
	sortEntries(out)
	return out
}

// Of returns every definition of kind.
func (s *Snapshot) Of(kind Kind) []Entry {
	return s.InNamespace("", kind)
}

// Subjects returns the IRI subjects of uri in document order.
func (s *Snapshot) Subjects(uri string) []Entry {
	return s.subjects[uri]
}

// Vocabulary returns the fetched vocabulary loaded for ns.
func (s *Snapshot) Vocabulary(ns string) (*Source, bool) {
	v, ok := s.vocabs[ns]
	return v, ok
}

// Vocabularies returns the namespaces with a loaded vocabulary.
func (s *Snapshot) Vocabularies() []string {
	out := make([]string, 0, len(s.vocabs))
	for ns := range s.vocabs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Defines reports whether the source for uri has iri as a subject.
func (s *Snapshot) Defines(uri, iri string) bool {
	for _, e := range s.subjects[uri] {
		if e.IRI == iri {
			return true
		}
	}
	return false
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].IRI != es[j].IRI {
			return es[i].IRI < es[j].IRI
		}
		return es[i].Source < es[j].Source
	})
}
