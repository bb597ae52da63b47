package sparql

import "github.com/teranos/semls/lang/turtle"

// visitVariables calls fn for every variable occurrence in q, in clause
// order. Variables of nested sub-queries are included; SPARQL scoping is
// not modeled.
func visitVariables(q *Query, fn func(v *turtle.Variable)) {
	if q == nil {
		return
	}
	term := func(t turtle.Term) {
		if v, ok := t.(*turtle.Variable); ok {
			fn(v)
		}
	}
	expr := func(e *Expr) {
		if e == nil {
			return
		}
		for _, v := range e.Vars {
			fn(v)
		}
	}
	values := func(v *InlineData) {
		if v == nil {
			return
		}
		for _, x := range v.Vars {
			fn(x)
		}
	}

	var group func(g *Group)
	group = func(g *Group) {
		if g == nil {
			return
		}
		for _, e := range g.Elements {
			switch n := e.(type) {
			case *Triples:
				turtle.Walk(n.Stmt, func(t turtle.Term, _ turtle.Role) { term(t) })
				continue
			case *Filter:
				expr(n.Expr)
			case *Bind:
				expr(n.Expr)
				if n.Var != nil {
					fn(n.Var)
				}
			case *InlineData:
				values(n)
			case *GraphPattern:
				term(n.Name)
			case *Service:
				term(n.Name)
			case *SubQuery:
				visitVariables(n.Query, fn)
				continue
			}
			for _, inner := range Groups(e) {
				group(inner)
			}
		}
	}

	if f := q.Form; f != nil {
		for _, pr := range f.Projection {
			expr(pr.Expr)
			if pr.Var != nil {
				fn(pr.Var)
			}
		}
		for _, t := range f.Targets {
			term(t)
		}
		group(f.Template)
	}
	group(q.Where)
	for _, m := range q.Modifiers {
		for _, e := range m.Exprs {
			expr(e)
		}
	}
	values(q.Values)
}
