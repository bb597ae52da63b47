package turtle

import (
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Node is any element of the syntax tree.
type Node interface {
	Span() span.Span
}

// Document is the root of a Turtle syntax tree.
type Document struct {
	Statements []Statement
	Comments   []token.Spanned
	Sp         span.Span
}

func (d *Document) Span() span.Span { return d.Sp }

// Statement is a directive or a triples statement.
type Statement interface {
	Node
	statement()
}

// PrefixDecl is @prefix p: <iri>. or PREFIX p: <iri>
type PrefixDecl struct {
	Sparql     bool
	Name       span.Spanned[string] // label without the colon
	IRI        span.Spanned[string]
	HasName    bool
	HasIRI     bool
	Terminated bool
	Sp         span.Span
}

// BaseDecl is @base <iri>. or BASE <iri>
type BaseDecl struct {
	Sparql     bool
	IRI        span.Spanned[string]
	HasIRI     bool
	Terminated bool
	Sp         span.Span
}

// VersionDecl is @version "1.2". or VERSION "1.2"
type VersionDecl struct {
	Sparql     bool
	Version    span.Spanned[string]
	HasVersion bool
	Terminated bool
	Sp         span.Span
}

// TripleStmt is a subject with its predicate-object list. Broken is set
// when the statement was cut short by a syntax error.
type TripleStmt struct {
	Subject    Term
	Predicates []*PredicateObjects
	Terminated bool
	Broken     bool
	Sp         span.Span
}

func (d *PrefixDecl) Span() span.Span  { return d.Sp }
func (d *BaseDecl) Span() span.Span    { return d.Sp }
func (d *VersionDecl) Span() span.Span { return d.Sp }
func (s *TripleStmt) Span() span.Span  { return s.Sp }

func (*PrefixDecl) statement()  {}
func (*BaseDecl) statement()    {}
func (*VersionDecl) statement() {}
func (*TripleStmt) statement()  {}

// PredicateObjects is one verb and its object list.
type PredicateObjects struct {
	Verb    Term
	Objects []Term
	Sp      span.Span
}

func (p *PredicateObjects) Span() span.Span { return p.Sp }

// Term is a node in subject, verb or object position.
type Term interface {
	Node
	term()
}

// NamedKind distinguishes the spellings of a named node.
type NamedKind uint8

const (
	FullIRI NamedKind = iota
	PrefixedName
	TypeKeyword // a
)

// NamedNode is an IRI written in full, as a prefixed name, or as 'a'. For
// prefixed names Value holds the local part.
type NamedNode struct {
	Kind   NamedKind
	Prefix string
	Value  string
	Sp     span.Span
}

// PrefixSpan covers the label and colon of a prefixed name.
func (n *NamedNode) PrefixSpan() span.Span {
	if n.Kind != PrefixedName {
		return span.Span{Start: n.Sp.Start, End: n.Sp.Start}
	}
	return span.New(n.Sp.Start, n.Sp.Start+len(n.Prefix)+1)
}

// LocalSpan covers the part after the colon, or the whole node.
func (n *NamedNode) LocalSpan() span.Span {
	if n.Kind != PrefixedName {
		return n.Sp
	}
	return span.New(n.PrefixSpan().End, n.Sp.End)
}

// BlankNode is _:label, or [] when Label is empty.
type BlankNode struct {
	Label string
	Sp    span.Span
}

// BlankNodeList is [ p o ; ... ].
type BlankNodeList struct {
	Predicates []*PredicateObjects
	Closed     bool
	Sp         span.Span
}

// Collection is ( item ... ).
type Collection struct {
	Items  []Term
	Closed bool
	Sp     span.Span
}

// LiteralKind is the lexical form a literal was written in.
type LiteralKind uint8

const (
	StringLiteral LiteralKind = iota
	IntegerLiteral
	DecimalLiteral
	DoubleLiteral
	BooleanLiteral
)

// Literal is a string, number or boolean. Value is the decoded lexical form.
type Literal struct {
	Kind     LiteralKind
	Value    string
	Long     bool
	Lang     string
	Datatype *NamedNode
	Sp       span.Span
}

// Variable is a SPARQL ?name.
type Variable struct {
	Name string
	Sp   span.Span
}

// Path is a SPARQL property path other than a single IRI.
type Path struct {
	Steps []Term
	Sp    span.Span
}

// Invalid stands in for a term that could not be parsed.
type Invalid struct {
	Sp span.Span
}

func (n *NamedNode) Span() span.Span     { return n.Sp }
func (n *BlankNode) Span() span.Span     { return n.Sp }
func (n *BlankNodeList) Span() span.Span { return n.Sp }
func (n *Collection) Span() span.Span    { return n.Sp }
func (n *Literal) Span() span.Span       { return n.Sp }
func (n *Variable) Span() span.Span      { return n.Sp }
func (n *Path) Span() span.Span          { return n.Sp }
func (n *Invalid) Span() span.Span       { return n.Sp }

func (*NamedNode) term()     {}
func (*BlankNode) term()     {}
func (*BlankNodeList) term() {}
func (*Collection) term()    {}
func (*Literal) term()       {}
func (*Variable) term()      {}
func (*Path) term()          {}
func (*Invalid) term()       {}

// Role is the position a term occupies in its triple.
type Role uint8

const (
	RoleSubject Role = iota
	RolePredicate
	RoleObject
)

// Walk visits every term reachable from the statement, depth first, with
// the role it plays in its innermost triple.
func Walk(st *TripleStmt, fn func(t Term, role Role)) {
	if st.Subject != nil {
		walkTerm(st.Subject, RoleSubject, fn)
	}
	walkPredicates(st.Predicates, fn)
}

func walkPredicates(pos []*PredicateObjects, fn func(t Term, role Role)) {
	for _, po := range pos {
		if po.Verb != nil {
			walkTerm(po.Verb, RolePredicate, fn)
		}
		for _, o := range po.Objects {
			walkTerm(o, RoleObject, fn)
		}
	}
}

func walkTerm(t Term, role Role, fn func(t Term, role Role)) {
	fn(t, role)
	switch n := t.(type) {
	case *BlankNodeList:
		walkPredicates(n.Predicates, fn)
	case *Collection:
		for _, item := range n.Items {
			walkTerm(item, RoleObject, fn)
		}
	case *Literal:
		if n.Datatype != nil {
			fn(n.Datatype, RoleObject)
		}
	case *Path:
		for _, step := range n.Steps {
			walkTerm(step, RolePredicate, fn)
		}
	}
}
