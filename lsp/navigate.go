package lsp

import (
	"context"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/lang/sparql"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
)

// spanSet collects locations once each, in insertion order.
type spanSet struct {
	seen map[Location]bool
	out  []Location
}

func (s *spanSet) add(d *document.Document, sp span.Span) {
	loc, ok := location(d, sp)
	if !ok {
		return
	}
	if s.seen == nil {
		s.seen = make(map[Location]bool)
	}
	if s.seen[loc] {
		return
	}
	s.seen[loc] = true
	s.out = append(s.out, loc)
}

// definitions returns every subject occurrence of t in the scanned
// documents, the current document first.
func definitions(v document.View, t rdf.Term) []Location {
	var set spanSet
	for _, d := range scope(v, t) {
		for _, tr := range d.Derived.Triples {
			if sameTerm(tr.Subject, t) {
				set.add(d, tr.Subject.Span)
			}
		}
	}
	return set.out
}

// Definition jumps from a term to the places it is described: subject
// occurrences in open documents, the declaration of a prefix, or the first
// binding of a query variable.
func (s *Service) Definition(ctx context.Context, uri string, pos span.Position) ([]Location, error) {
	return read(ctx, s, uri, func(v document.View) ([]Location, error) {
		c, ok := s.locate("definition", v.Doc, pos)
		if !ok {
			return nil, nil
		}
		if tok, ok := c.token(); ok && onPrefixLabel(tok, c.off) {
			p, ok := v.Doc.Prefixes().Lookup(tok.Value.Prefix)
			if !ok {
				s.noResult("definition", uri, "unknown prefix "+tok.Value.Prefix)
				return nil, nil
			}
			var set spanSet
			set.add(v.Doc, p.Span)
			return set.out, nil
		}

		term, ok := termAt(c)
		if !ok {
			s.noResult("definition", uri, "no term at cursor")
			return nil, nil
		}
		if term.Kind == rdf.Variable {
			if q, ok := v.Doc.Tree.(*sparql.Query); ok {
				if spans := sparql.Variables(q, term.Value); len(spans) > 0 {
					var set spanSet
					set.add(v.Doc, spans[0])
					return set.out, nil
				}
			}
			return nil, nil
		}
		return definitions(v, term), nil
	})
}

// TypeDefinition jumps to the definitions of the term's rdf:type classes,
// or of a literal's datatype.
func (s *Service) TypeDefinition(ctx context.Context, uri string, pos span.Position) ([]Location, error) {
	return read(ctx, s, uri, func(v document.View) ([]Location, error) {
		c, ok := s.locate("typeDefinition", v.Doc, pos)
		if !ok {
			return nil, nil
		}
		term, ok := termAt(c)
		if !ok {
			return nil, nil
		}

		var types []rdf.Term
		switch term.Kind {
		case rdf.Literal:
			if term.Datatype != "" {
				types = append(types, rdf.NewIRI(term.Datatype, span.Span{}))
			}
		case rdf.IRI, rdf.BlankNode:
			for _, d := range scope(v, term) {
				types = append(types, d.Graph().Objects(term.Key(), rdf.RDFType)...)
			}
		}

		var out []Location
		seen := make(map[Location]bool)
		for _, typ := range types {
			if typ.Kind != rdf.IRI {
				continue
			}
			for _, loc := range definitions(v, typ) {
				if !seen[loc] {
					seen[loc] = true
					out = append(out, loc)
				}
			}
		}
		if len(out) == 0 {
			s.noResult("typeDefinition", uri, "no typed definition")
		}
		return out, nil
	})
}

// Implementation lists the instances of a class and the statements that
// use a property.
func (s *Service) Implementation(ctx context.Context, uri string, pos span.Position) ([]Location, error) {
	return read(ctx, s, uri, func(v document.View) ([]Location, error) {
		c, ok := s.locate("implementation", v.Doc, pos)
		if !ok {
			return nil, nil
		}
		term, ok := termAt(c)
		if !ok || term.Kind != rdf.IRI {
			return nil, nil
		}

		var set spanSet
		for _, d := range scope(v, term) {
			for _, tr := range d.Derived.Triples {
				switch {
				case tr.Predicate.Kind == rdf.IRI && tr.Predicate.Value == rdf.RDFType && sameTerm(tr.Object, term):
					set.add(d, tr.Subject.Span)
				case sameTerm(tr.Predicate, term):
					set.add(d, tr.Span)
				}
			}
		}
		return set.out, nil
	})
}

// References lists every occurrence of the term under the cursor. Subject
// occurrences count as declarations and are left out unless
// includeDeclaration is set.
func (s *Service) References(ctx context.Context, uri string, pos span.Position, includeDeclaration bool) ([]Location, error) {
	return read(ctx, s, uri, func(v document.View) ([]Location, error) {
		c, ok := s.locate("references", v.Doc, pos)
		if !ok {
			return nil, nil
		}
		if tok, ok := c.token(); ok && onPrefixLabel(tok, c.off) {
			return prefixReferences(v.Doc, tok.Value.Prefix, includeDeclaration), nil
		}
		term, ok := termAt(c)
		if !ok {
			s.noResult("references", uri, "no term at cursor")
			return nil, nil
		}

		var set spanSet
		if term.Kind == rdf.Variable {
			if q, ok := v.Doc.Tree.(*sparql.Query); ok {
				for _, sp := range sparql.Variables(q, term.Value) {
					set.add(v.Doc, sp)
				}
			}
			return set.out, nil
		}

		for _, d := range scope(v, term) {
			for _, tr := range d.Derived.Triples {
				if includeDeclaration && sameTerm(tr.Subject, term) {
					set.add(d, tr.Subject.Span)
				}
				if sameTerm(tr.Predicate, term) {
					set.add(d, tr.Predicate.Span)
				}
				if sameTerm(tr.Object, term) {
					set.add(d, tr.Object.Span)
				}
			}
			if term.Kind == rdf.IRI {
				// names in statements that produced no triple yet
				for _, tok := range d.Tokens {
					if t, ok := resolveToken(d, tok); ok && t.Kind == rdf.IRI && t.Value == term.Value && !isSubjectSpan(d, tok.Span) {
						set.add(d, tok.Span)
					}
				}
			}
		}
		return set.out, nil
	})
}

// isSubjectSpan reports whether sp is the span of some triple's subject.
func isSubjectSpan(d *document.Document, sp span.Span) bool {
	for _, tr := range d.Derived.Triples {
		if tr.Subject.Span == sp {
			return true
		}
	}
	return false
}

// prefixReferences lists the prefixed names that use label.
func prefixReferences(d *document.Document, label string, includeDeclaration bool) []Location {
	var set spanSet
	decl, declared := d.Prefixes().Lookup(label)
	for _, tok := range prefixTokens(d, label) {
		if declared && decl.Span.Covers(tok.Span) && !includeDeclaration {
			continue
		}
		set.add(d, span.New(tok.Span.Start, tok.Span.Start+len(label)))
	}
	return set.out
}
