package index

import "github.com/teranos/semls/rdf"

// Linked returns the open documents linked to uri, uri itself first. Two
// documents are linked when they declare a prefix for the same namespace,
// or when one owl:imports the other. Vocabularies are never linked.
func (s *Snapshot) Linked(uri string) []string {
	self, ok := s.sources[uri]
	if !ok {
		return nil
	}
	out := []string{uri}
	for _, other := range s.order {
		if other == uri {
			continue
		}
		src := s.sources[other]
		if src.Vocabulary != "" {
			continue
		}
		if sharesNamespace(self, src) || imports(self, src) || imports(src, self) {
			out = append(out, other)
		}
	}
	return out
}

func sharesNamespace(a, b *Source) bool {
	for ns := range a.Namespaces {
		if _, ok := b.Namespaces[ns]; ok {
			return true
		}
	}
	return false
}

// imports reports whether a imports b: the import target is b's URI or an
// ontology b declares.
func imports(a, b *Source) bool {
	for _, target := range a.Imports {
		if target == b.URI {
			return true
		}
		key := rdf.TermKey{Kind: rdf.IRI, Value: target}
		for _, o := range b.Graph.Objects(key, rdf.RDFType) {
			if o.Kind == rdf.IRI && o.Value == rdf.OWLOntology {
				return true
			}
		}
	}
	return false
}
