package sparql

import (
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/turtle"
)

// Derive resolves the names of q and emits its triple patterns, with
// variables kept as variable terms. Names inside expressions are resolved
// only for their diagnostics.
func Derive(q *Query, base string) lang.Derivation {
	d := turtle.NewDeriver(base).SparqlDirectives()
	deriveQuery(d, q)
	return d.Result()
}

func deriveQuery(d *turtle.Deriver, q *Query) {
	if q == nil {
		return
	}
	for _, st := range q.Prologue {
		d.Statement(st)
	}
	if f := q.Form; f != nil {
		for _, t := range f.Targets {
			d.Node(t)
		}
		for _, pr := range f.Projection {
			names(d, pr.Expr)
		}
		deriveGroup(d, f.Template)
	}
	for _, ds := range q.Datasets {
		if ds.IRI != nil {
			d.Node(ds.IRI)
		}
	}
	deriveGroup(d, q.Where)
	for _, m := range q.Modifiers {
		for _, e := range m.Exprs {
			names(d, e)
		}
	}
	values(d, q.Values)
}

func deriveGroup(d *turtle.Deriver, g *Group) {
	if g == nil {
		return
	}
	for _, e := range g.Elements {
		switch n := e.(type) {
		case *Triples:
			d.Triples(n.Stmt, n.Stmt.Sp)
		case *Filter:
			names(d, n.Expr)
			deriveGroup(d, n.Exists)
		case *Bind:
			names(d, n.Expr)
		case *InlineData:
			values(d, n)
		case *GraphPattern:
			d.Node(n.Name)
			deriveGroup(d, n.Group)
		case *Service:
			d.Node(n.Name)
			deriveGroup(d, n.Group)
		case *SubQuery:
			deriveQuery(d, n.Query)
		default:
			for _, inner := range Groups(e) {
				deriveGroup(d, inner)
			}
		}
	}
}

func names(d *turtle.Deriver, e *Expr) {
	if e == nil {
		return
	}
	for _, n := range e.Names {
		d.Node(n)
	}
}

func values(d *turtle.Deriver, v *InlineData) {
	if v == nil {
		return
	}
	for _, row := range v.Rows {
		for _, t := range row {
			if t != nil {
				d.Node(t)
			}
		}
	}
}
