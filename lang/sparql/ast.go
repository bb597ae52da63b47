package sparql

import (
	"github.com/teranos/semls/lang/turtle"
	"github.com/teranos/semls/span"
)

// Query is a parsed SPARQL query. Fields are nil when the query was cut
// short or the part is absent.
type Query struct {
	Prologue  []turtle.Statement
	Form      *Form
	Datasets  []*Dataset
	Where     *Group
	Modifiers []*Modifier
	Values    *InlineData
	Sp        span.Span
}

func (q *Query) Span() span.Span { return q.Sp }

// FormKind is the query form.
type FormKind uint8

const (
	Select FormKind = iota
	Construct
	Describe
	Ask
)

func (k FormKind) String() string {
	switch k {
	case Construct:
		return "CONSTRUCT"
	case Describe:
		return "DESCRIBE"
	case Ask:
		return "ASK"
	}
	return "SELECT"
}

// Form is the head of a query: SELECT and its projection, the CONSTRUCT
// template, or the DESCRIBE targets.
type Form struct {
	Kind       FormKind
	Keyword    span.Span
	Distinct   bool
	Reduced    bool
	Star       bool
	Projection []*Projection
	Template   *Group
	Targets    []turtle.Term
	Sp         span.Span
}

// Projection is ?v or ( expr AS ?v ).
type Projection struct {
	Var  *turtle.Variable
	Expr *Expr
	Sp   span.Span
}

// Dataset is FROM <iri> or FROM NAMED <iri>.
type Dataset struct {
	Named bool
	IRI   *turtle.NamedNode
	Sp    span.Span
}

// Expr is an expression kept as a balanced token run. Only the variables
// and IRIs it mentions are retained.
type Expr struct {
	Vars  []*turtle.Variable
	Names []*turtle.NamedNode
	Sp    span.Span
}

// Modifier is a solution modifier: GROUP BY, HAVING, ORDER BY, LIMIT or
// OFFSET.
type Modifier struct {
	Keyword string
	Exprs   []*Expr
	Value   string
	Sp      span.Span
}

// Group is { ... }.
type Group struct {
	Elements []Element
	Closed   bool
	Sp       span.Span
}

func (g *Group) Span() span.Span { return g.Sp }

// Element is a member of a group graph pattern.
type Element interface {
	Span() span.Span
	element()
}

// Triples is one subject with its predicate-object list.
type Triples struct {
	Stmt *turtle.TripleStmt
}

// Union is a nested group, or several joined by UNION.
type Union struct {
	Groups []*Group
	Sp     span.Span
}

type Optional struct {
	Group *Group
	Sp    span.Span
}

type Minus struct {
	Group *Group
	Sp    span.Span
}

// GraphPattern is GRAPH name { ... }.
type GraphPattern struct {
	Name  turtle.Term
	Group *Group
	Sp    span.Span
}

// Service is SERVICE [SILENT] name { ... }.
type Service struct {
	Silent bool
	Name   turtle.Term
	Group  *Group
	Sp     span.Span
}

// Filter is FILTER constraint, including FILTER [NOT] EXISTS { ... }.
type Filter struct {
	Expr   *Expr
	Exists *Group
	Not    bool
	Sp     span.Span
}

// Bind is BIND ( expr AS ?v ).
type Bind struct {
	Expr *Expr
	Var  *turtle.Variable
	Sp   span.Span
}

// InlineData is VALUES. A nil entry in a row is UNDEF.
type InlineData struct {
	Vars []*turtle.Variable
	Rows [][]turtle.Term
	Sp   span.Span
}

// SubQuery is a nested SELECT.
type SubQuery struct {
	Query *Query
}

func (t *Triples) Span() span.Span      { return t.Stmt.Sp }
func (u *Union) Span() span.Span        { return u.Sp }
func (o *Optional) Span() span.Span     { return o.Sp }
func (m *Minus) Span() span.Span        { return m.Sp }
func (g *GraphPattern) Span() span.Span { return g.Sp }
func (s *Service) Span() span.Span      { return s.Sp }
func (f *Filter) Span() span.Span       { return f.Sp }
func (b *Bind) Span() span.Span         { return b.Sp }
func (v *InlineData) Span() span.Span   { return v.Sp }
func (s *SubQuery) Span() span.Span     { return s.Query.Sp }

func (*Triples) element()      {}
func (*Union) element()        {}
func (*Optional) element()     {}
func (*Minus) element()        {}
func (*GraphPattern) element() {}
func (*Service) element()      {}
func (*Filter) element()       {}
func (*Bind) element()         {}
func (*InlineData) element()   {}
func (*SubQuery) element()     {}

// Groups returns the groups nested directly in e.
func Groups(e Element) []*Group {
	var out []*Group
	switch n := e.(type) {
	case *Union:
		out = n.Groups
	case *Optional:
		out = []*Group{n.Group}
	case *Minus:
		out = []*Group{n.Group}
	case *GraphPattern:
		out = []*Group{n.Group}
	case *Service:
		out = []*Group{n.Group}
	case *Filter:
		out = []*Group{n.Exists}
	case *SubQuery:
		out = []*Group{n.Query.Where}
	}
	groups := out[:0:0]
	for _, g := range out {
		if g != nil {
			groups = append(groups, g)
		}
	}
	return groups
}
