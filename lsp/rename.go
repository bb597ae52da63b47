package lsp

import (
	"context"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// renameTarget is what a rename at the cursor would change.
type renameTarget struct {
	kind  renameKind
	name  string    // current text of the renamed part
	sp    span.Span // renamed part under the cursor
	iri   string    // renameLocal: the full IRI
	ns    string    // renameLocal: the namespace the local name extends
	label string    // renamePrefix: the prefix label
}

type renameKind uint8

const (
	renamePrefix renameKind = iota + 1
	renameLocal
	renameBlank
	renameVariable
)

func targetAt(c cursor) (renameTarget, bool) {
	tok, ok := c.token()
	if !ok {
		return renameTarget{}, false
	}
	v, sp := tok.Value, tok.Span
	switch v.Kind {
	case token.PNameNS:
		return renameTarget{kind: renamePrefix, name: v.Prefix, label: v.Prefix, sp: span.New(sp.Start, sp.Start+len(v.Prefix))}, true
	case token.PNameLN:
		if onPrefixLabel(tok, c.off) {
			return renameTarget{kind: renamePrefix, name: v.Prefix, label: v.Prefix, sp: span.New(sp.Start, sp.Start+len(v.Prefix))}, true
		}
		p, ok := c.doc.Prefixes().Lookup(v.Prefix)
		if !ok {
			return renameTarget{}, false
		}
		local := sp.Slice(c.doc.Text)[len(v.Prefix)+1:]
		return renameTarget{
			kind: renameLocal,
			name: local,
			iri:  p.Namespace + v.Text,
			ns:   p.Namespace,
			sp:   span.New(sp.End-len(local), sp.End),
		}, true
	case token.BlankNodeLabel:
		return renameTarget{kind: renameBlank, name: v.Text, sp: span.New(sp.Start+2, sp.End)}, true
	case token.Variable:
		return renameTarget{kind: renameVariable, name: v.Text, sp: span.New(sp.Start+1, sp.End)}, true
	}
	return renameTarget{}, false
}

// PrepareRename reports the range a rename at pos would change, or nil
// when nothing there can be renamed.
func (s *Service) PrepareRename(ctx context.Context, uri string, pos span.Position) (*PrepareRename, error) {
	return read(ctx, s, uri, func(v document.View) (*PrepareRename, error) {
		c, ok := s.locate("prepareRename", v.Doc, pos)
		if !ok {
			return nil, nil
		}
		tg, ok := targetAt(c)
		if !ok {
			s.noResult("prepareRename", uri, "nothing renameable")
			return nil, nil
		}
		r, ok := v.Doc.Lines.Range(tg.sp)
		if !ok {
			return nil, nil
		}
		return &PrepareRename{Range: r, Placeholder: tg.name}, nil
	})
}

// Rename renames the prefix label, local name, blank node label or
// variable under the cursor. Local names are renamed in every open
// document that writes the same IRI.
func (s *Service) Rename(ctx context.Context, uri string, pos span.Position, newName string) (WorkspaceEdit, error) {
	return read(ctx, s, uri, func(v document.View) (WorkspaceEdit, error) {
		c, ok := s.locate("rename", v.Doc, pos)
		if !ok {
			return nil, nil
		}
		tg, ok := targetAt(c)
		if !ok {
			return nil, errors.NewInvalidRequestError("nothing to rename at %d:%d", pos.Line, pos.Character)
		}
		if err := validName(tg.kind, newName); err != nil {
			return nil, err
		}

		edits := WorkspaceEdit{}
		switch tg.kind {
		case renamePrefix:
			for _, tok := range prefixTokens(v.Doc, tg.label) {
				edits.add(v.Doc, span.New(tok.Span.Start, tok.Span.Start+len(tg.label)), newName)
			}
		case renameBlank, renameVariable:
			kind := token.BlankNodeLabel
			skip := 2
			if tg.kind == renameVariable {
				kind, skip = token.Variable, 1
			}
			for _, tok := range v.Doc.Tokens {
				if tok.Value.Kind == kind && tok.Value.Text == tg.name {
					edits.add(v.Doc, span.New(tok.Span.Start+skip, tok.Span.End), newName)
				}
			}
		case renameLocal:
			for _, d := range v.Documents() {
				renameIRI(edits, d, tg.iri, tg.ns, newName)
			}
		}
		return edits, nil
	})
}

func (e WorkspaceEdit) add(d *document.Document, sp span.Span, text string) {
	r, ok := d.Lines.Range(sp)
	if !ok {
		return
	}
	e[d.URI] = append(e[d.URI], TextEdit{Range: r, NewText: text})
}

// renameIRI rewrites every token of d that denotes iri.
func renameIRI(edits WorkspaceEdit, d *document.Document, iri, ns, local string) {
	for _, tok := range d.Tokens {
		switch tok.Value.Kind {
		case token.PNameLN:
			full, ok := d.Prefixes().Expand(tok.Value.Prefix, tok.Value.Text)
			if !ok || full != iri {
				continue
			}
			p, _ := d.Prefixes().Lookup(tok.Value.Prefix)
			if p.Namespace == ns {
				edits.add(d, span.New(tok.Span.Start+len(tok.Value.Prefix)+1, tok.Span.End), local)
			} else {
				edits.add(d, tok.Span, "<"+ns+local+">")
			}
		case token.IRIRef:
			if t, ok := resolveToken(d, tok); ok && t.Value == iri {
				edits.add(d, tok.Span, "<"+ns+local+">")
			}
		}
	}
}

// prefixTokens returns the prefixed names of d that use label, including
// the name in its declaration.
func prefixTokens(d *document.Document, label string) []token.Spanned {
	var out []token.Spanned
	for _, tok := range d.Tokens {
		if (tok.Value.Kind == token.PNameLN || tok.Value.Kind == token.PNameNS) && tok.Value.Prefix == label {
			out = append(out, tok)
		}
	}
	return out
}

func validName(kind renameKind, name string) error {
	ok := name != ""
	switch kind {
	case renamePrefix:
		ok = validLabel(name, true)
	case renameLocal:
		ok = ok && rdf.ValidLocal(name)
	case renameBlank, renameVariable:
		ok = validLabel(name, false)
	}
	if !ok {
		return errors.NewInvalidRequestError("%q is not a valid name here", name)
	}
	return nil
}

// validLabel checks prefix labels, blank node labels and variable names.
// Only prefix labels may be empty.
func validLabel(s string, allowEmpty bool) bool {
	if s == "" {
		return allowEmpty
	}
	for i, r := range s {
		switch {
		case token.IsPNChars(r):
		case r == '.' && i > 0 && i < len(s)-1:
		default:
			return false
		}
	}
	return true
}
