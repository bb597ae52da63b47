package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/lang/sparql"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Hover describes the term under the cursor. It returns nil when there is
// nothing to describe.
func (s *Service) Hover(ctx context.Context, uri string, pos span.Position) (*Hover, error) {
	return read(ctx, s, uri, func(v document.View) (*Hover, error) {
		c, ok := s.locate("hover", v.Doc, pos)
		if !ok {
			return nil, nil
		}

		if tok, ok := c.token(); ok && onPrefixLabel(tok, c.off) {
			return s.hoverPrefix(c, tok), nil
		}

		term, ok := termAt(c)
		if !ok {
			s.noResult("hover", uri, "no term at cursor")
			return nil, nil
		}
		r, ok := v.Doc.Lines.Range(term.Span)
		if !ok {
			return nil, nil
		}

		var md string
		switch term.Kind {
		case rdf.IRI:
			md = describeIRI(v, term)
		case rdf.Literal:
			md = describeLiteral(v.Doc, term)
		case rdf.BlankNode:
			md = describeBlank(v.Doc, term)
		case rdf.Variable:
			md = describeVariable(v.Doc, term)
		default:
			return nil, nil
		}
		return &Hover{Markdown: md, Range: r}, nil
	})
}

func (s *Service) hoverPrefix(c cursor, tok token.Spanned) *Hover {
	label := tok.Value.Prefix
	p, ok := c.doc.Prefixes().Lookup(label)
	var md string
	switch {
	case ok:
		md = fmt.Sprintf("**%s:** prefix for `<%s>`", label, p.Namespace)
	case rdf.WellKnown[label] != "":
		md = fmt.Sprintf("**%s:** is not declared. Commonly `<%s>`", label, rdf.WellKnown[label])
	default:
		s.noResult("hover", c.doc.URI, "unknown prefix "+label)
		return nil
	}
	sp := span.New(tok.Span.Start, tok.Span.Start+len(label)+1)
	r, ok := c.doc.Lines.Range(sp)
	if !ok {
		return nil
	}
	return &Hover{Markdown: md, Range: r}
}

func describeIRI(v document.View, term rdf.Term) string {
	d := v.Doc
	var b strings.Builder
	name := display(d, term)
	if name == term.String() {
		fmt.Fprintf(&b, "**%s**", name)
	} else {
		fmt.Fprintf(&b, "**%s** `<%s>`", name, term.Value)
	}

	key := term.Key()
	label, hasLabel := d.Graph().Literal(key, rdf.RDFSLabel)
	comment, hasComment := d.Graph().Literal(key, rdf.RDFSComment)
	entry, described := v.Index.Describe(term.Value)
	if !hasLabel && described {
		label, hasLabel = entry.Label, entry.Label != ""
	}
	if !hasComment && described {
		comment, hasComment = entry.Comment, entry.Comment != ""
	}
	if hasLabel {
		fmt.Fprintf(&b, "\n\n%s", label)
	}
	if hasComment {
		fmt.Fprintf(&b, "\n\n%s", comment)
	}

	var types []string
	seen := make(map[string]bool)
	for _, od := range scope(v, term) {
		for _, o := range od.Graph().Objects(key, rdf.RDFType) {
			if n := display(d, o); !seen[n] {
				seen[n] = true
				types = append(types, n)
			}
		}
	}
	if len(types) > 0 {
		fmt.Fprintf(&b, "\n\n*Type:* %s", strings.Join(types, ", "))
	}

	if defs := v.Index.Lookup(term.Value); len(defs) > 0 {
		e := defs[0]
		if len(e.Domain) > 0 {
			fmt.Fprintf(&b, "\n\n*Domain:* %s", displayAll(d, e.Domain))
		}
		if len(e.Range) > 0 {
			fmt.Fprintf(&b, "\n\n*Range:* %s", displayAll(d, e.Range))
		}
		if len(e.Parents) > 0 {
			fmt.Fprintf(&b, "\n\n*Subclass of:* %s", displayAll(d, e.Parents))
		}
	}

	if described && entry.Source != d.URI {
		if entry.FromVocabulary {
			fmt.Fprintf(&b, "\n\n*From vocabulary* `%s`", entry.Source)
		} else {
			fmt.Fprintf(&b, "\n\n*Defined in* `%s`", entry.Source)
		}
	}
	return b.String()
}

func displayAll(d *document.Document, iris []string) string {
	out := make([]string, len(iris))
	for i, iri := range iris {
		out[i] = display(d, rdf.NewIRI(iri, span.Span{}))
	}
	return strings.Join(out, ", ")
}

func describeLiteral(d *document.Document, term rdf.Term) string {
	if term.Language != "" {
		return fmt.Sprintf("literal `%s` in language `%s`", term.Value, term.Language)
	}
	if term.Datatype == "" {
		return fmt.Sprintf("literal `%s`", term.Value)
	}
	return fmt.Sprintf("literal `%s` of type %s", term.Value, display(d, rdf.NewIRI(term.Datatype, span.Span{})))
}

func describeBlank(d *document.Document, term rdf.Term) string {
	n := 0
	for _, t := range d.Derived.Triples {
		if t.Subject.Kind == rdf.BlankNode && t.Subject.Value == term.Value {
			n++
		}
	}
	if strings.HasPrefix(term.Value, ".") {
		return fmt.Sprintf("anonymous blank node with %d statements", n)
	}
	return fmt.Sprintf("blank node `_:%s` with %d statements", term.Value, n)
}

func describeVariable(d *document.Document, term rdf.Term) string {
	q, ok := d.Tree.(*sparql.Query)
	if !ok {
		return fmt.Sprintf("variable `?%s`", term.Value)
	}
	return fmt.Sprintf("variable `?%s`, %d occurrences", term.Value, len(sparql.Variables(q, term.Value)))
}
