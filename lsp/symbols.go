package lsp

import (
	"context"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
)

// Symbols outlines a document: one symbol per named subject or labelled
// blank node, with its predicates as children.
func (s *Service) Symbols(ctx context.Context, uri string) ([]Symbol, error) {
	return read(ctx, s, uri, func(v document.View) ([]Symbol, error) {
		return outline(v.Doc), nil
	})
}

func outline(d *document.Document) []Symbol {
	type group struct {
		subject rdf.Term
		extent  span.Span
		triples []rdf.Triple
		kind    SymbolKind
	}
	var order []rdf.TermKey
	groups := make(map[rdf.TermKey]*group)

	for _, t := range d.Derived.Triples {
		subj := t.Subject
		switch {
		case subj.Kind == rdf.IRI, subj.Kind == rdf.Variable:
		case subj.Kind == rdf.BlankNode && !isSynthetic(subj):
		default:
			continue
		}
		key := subj.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{subject: subj, extent: t.Span, kind: SymbolObject}
			if subj.Kind == rdf.Variable {
				g.kind = SymbolVariable
			}
			groups[key] = g
			order = append(order, key)
		}
		g.extent = g.extent.Union(t.Span)
		g.triples = append(g.triples, t)
		if t.Predicate.Value == rdf.RDFType && t.Object.Kind == rdf.IRI {
			switch {
			case rdf.IsClassType(t.Object.Value):
				g.kind = SymbolClass
			case rdf.IsPropertyType(t.Object.Value):
				g.kind = SymbolProperty
			}
		}
	}

	out := make([]Symbol, 0, len(order))
	for _, key := range order {
		g := groups[key]
		full, ok := d.Lines.Range(g.extent)
		if !ok {
			continue
		}
		sel, ok := d.Lines.Range(g.subject.Span)
		if !ok || !g.extent.Covers(g.subject.Span) {
			sel = full
		}
		sym := Symbol{Name: display(d, g.subject), Kind: g.kind, Range: full, SelectionRange: sel}
		for _, t := range g.triples {
			r, ok := d.Lines.Range(t.Predicate.Span)
			if !ok || !g.extent.Covers(t.Predicate.Span) {
				continue
			}
			sym.Children = append(sym.Children, Symbol{
				Name:           display(d, t.Predicate),
				Detail:         display(d, t.Object),
				Kind:           SymbolField,
				Range:          r,
				SelectionRange: r,
			})
		}
		out = append(out, sym)
	}
	return out
}

// isSynthetic reports blank nodes allocated for [ ] and ( ).
func isSynthetic(t rdf.Term) bool {
	return t.Kind == rdf.BlankNode && len(t.Value) > 0 && t.Value[0] == '.'
}
