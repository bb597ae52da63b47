// Package rdf holds the normalized data model every grammar derives into.
package rdf

import (
	"strings"

	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// TermKind tags the variant held by a Term.
type TermKind uint8

const (
	IRI TermKind = iota
	BlankNode
	Literal
	Variable
	Invalid
)

func (k TermKind) String() string {
	switch k {
	case IRI:
		return "iri"
	case BlankNode:
		return "blank"
	case Literal:
		return "literal"
	case Variable:
		return "variable"
	}
	return "invalid"
}

// Term is a subject, predicate or object. Invalid terms keep the raw text
// of a name that could not be resolved.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Language string
	Span     span.Span
}

// TermKey is a Term without its span, usable as a map key.
type TermKey struct {
	Kind     TermKind
	Value    string
	Datatype string
	Language string
}

func NewIRI(iri string, sp span.Span) Term {
	return Term{Kind: IRI, Value: iri, Span: sp}
}

func NewBlank(label string, sp span.Span) Term {
	return Term{Kind: BlankNode, Value: label, Span: sp}
}

func NewLiteral(value, datatype, lang string, sp span.Span) Term {
	if lang != "" {
		datatype = RDFLangString
	}
	return Term{Kind: Literal, Value: value, Datatype: datatype, Language: lang, Span: sp}
}

func NewVariable(name string, sp span.Span) Term {
	return Term{Kind: Variable, Value: name, Span: sp}
}

func NewInvalid(raw string, sp span.Span) Term {
	return Term{Kind: Invalid, Value: raw, Span: sp}
}

func (t Term) Key() TermKey {
	return TermKey{Kind: t.Kind, Value: t.Value, Datatype: t.Datatype, Language: t.Language}
}

// Equal compares terms ignoring spans.
func (t Term) Equal(o Term) bool {
	return t.Key() == o.Key()
}

func (t Term) IsIRI() bool {
	return t.Kind == IRI
}

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case IRI:
		return "<" + t.Value + ">"
	case BlankNode:
		return "_:" + t.Value
	case Variable:
		return "?" + t.Value
	case Literal:
		s := `"` + token.EscapeString(t.Value) + `"`
		if t.Language != "" {
			return s + "@" + t.Language
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	}
	return t.Value
}

// Local returns the part of an IRI after its last '#' or '/'.
func (t Term) Local() string {
	if t.Kind != IRI {
		return t.Value
	}
	if i := strings.LastIndexAny(t.Value, "#/"); i >= 0 && i < len(t.Value)-1 {
		return t.Value[i+1:]
	}
	return t.Value
}
