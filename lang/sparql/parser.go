package sparql

import (
	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/turtle"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Parse parses a query. Triple patterns go through the Turtle productions,
// so recovery, role marking and lost-subject detection behave the same in
// both languages.
func Parse(tokens []token.Spanned, srcLen int, prior *diffctx.Context) (*Query, []lang.Diagnostic, *diffctx.Roles) {
	p := &parser{Parser: turtle.NewParser(tokens, srcLen, prior, dialect)}
	q := p.query(true)
	q.Sp = span.New(0, srcLen)
	return q, p.Diagnostics(), p.Roles()
}

type parser struct {
	*turtle.Parser
}

func (p *parser) from(start int) span.Span {
	end := p.LastEnd()
	if end < start {
		end = start
	}
	return span.New(start, end)
}

// settle skips to the next clause after a failed one.
func (p *parser) settle() {
	if !p.Failed() {
		return
	}
	p.Recover(token.CurlClose, func(k token.Kind) bool {
		return k == token.CurlOpen || k == token.Keyword || k.IsDirective()
	})
}

func (p *parser) query(top bool) *Query {
	q := &Query{}
	start := p.Peek().Span.Start
	if top {
		p.prologue(q)
	}

	p.Begin()
	q.Form = p.form()
	p.settle()

	for p.AtKeyword("FROM") {
		p.Begin()
		q.Datasets = append(q.Datasets, p.dataset())
		p.settle()
	}

	p.Begin()
	q.Where = p.where(q.Form)
	p.settle()

	for p.AtKeyword("GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET") {
		p.Begin()
		q.Modifiers = append(q.Modifiers, p.modifier())
		p.settle()
	}

	if p.AtKeyword("VALUES") {
		p.Begin()
		q.Values = p.inlineData()
		p.settle()
	}

	if top {
		for !p.EOF() {
			p.Begin()
			t := p.Peek()
			p.Fail(t.Span, "unexpected %s after the query", turtle.Describe(t.Value))
			p.Recover(token.CurlClose, nil)
		}
	}
	q.Sp = p.from(start)
	return q
}

func (p *parser) prologue(q *Query) {
	for p.At(token.SparqlPrefix, token.SparqlBase, token.SparqlVersion, token.PrefixTag, token.BaseTag, token.VersionTag) {
		p.Begin()
		if st := p.Statement(); st != nil {
			q.Prologue = append(q.Prologue, st)
		}
		if p.Failed() {
			p.Recover(token.Stop, func(k token.Kind) bool {
				return k.IsDirective() || k == token.Keyword
			})
		}
	}
}

func (p *parser) form() *Form {
	if p.EOF() {
		p.SetCut()
		return nil
	}
	if !p.AtKeyword("SELECT", "CONSTRUCT", "DESCRIBE", "ASK") {
		p.Unexpected("SELECT, CONSTRUCT, DESCRIBE or ASK")
		return nil
	}
	kw := p.Next()
	f := &Form{Keyword: kw.Span}
	switch kw.Value.Text {
	case "SELECT":
		f.Kind = Select
		p.projection(f)
	case "CONSTRUCT":
		f.Kind = Construct
		if p.At(token.CurlOpen) {
			f.Template = p.group()
		}
	case "DESCRIBE":
		f.Kind = Describe
		p.describe(f)
	case "ASK":
		f.Kind = Ask
	}
	f.Sp = p.from(kw.Span.Start)
	return f
}

func (p *parser) projection(f *Form) {
	switch {
	case p.AtKeyword("DISTINCT"):
		p.Next()
		f.Distinct = true
	case p.AtKeyword("REDUCED"):
		p.Next()
		f.Reduced = true
	}
	if p.AtOp("*") {
		p.Next()
		f.Star = true
		return
	}
	for {
		switch {
		case p.At(token.Variable):
			t := p.Next()
			f.Projection = append(f.Projection, &Projection{Var: p.variable(t), Sp: t.Span})
		case p.At(token.BracketOpen):
			start := p.Peek().Span.Start
			e, v := p.binding()
			f.Projection = append(f.Projection, &Projection{Expr: e, Var: v, Sp: p.from(start)})
			if p.Failed() || p.Cut() {
				return
			}
		default:
			if len(f.Projection) == 0 {
				p.Unexpected("a variable or '*'")
			}
			return
		}
	}
}

func (p *parser) describe(f *Form) {
	if p.AtOp("*") {
		p.Next()
		f.Star = true
		return
	}
	for p.At(token.Variable, token.IRIRef, token.PNameLN, token.PNameNS) {
		f.Targets = append(f.Targets, p.Node(p.Next()))
	}
	if len(f.Targets) == 0 {
		p.Unexpected("a variable, IRI or '*'")
	}
}

func (p *parser) variable(t token.Spanned) *turtle.Variable {
	return &turtle.Variable{Name: t.Value.Text, Sp: t.Span}
}

func (p *parser) dataset() *Dataset {
	kw := p.Next()
	ds := &Dataset{}
	if p.AtKeyword("NAMED") {
		p.Next()
		ds.Named = true
	}
	if p.At(token.IRIRef, token.PNameLN, token.PNameNS) {
		ds.IRI = p.Node(p.Next()).(*turtle.NamedNode)
	} else {
		p.Unexpected("a graph IRI")
	}
	ds.Sp = p.from(kw.Span.Start)
	return ds
}

// where parses the WHERE clause. The keyword is optional; the group is
// optional only for DESCRIBE.
func (p *parser) where(f *Form) *Group {
	keyword := false
	if p.AtKeyword("WHERE") {
		p.Next()
		keyword = true
	}
	if p.At(token.CurlOpen) {
		return p.group()
	}
	if keyword || f == nil || f.Kind != Describe {
		p.Unexpected("'{'")
	}
	return nil
}

func (p *parser) expectGroup() *Group {
	if p.At(token.CurlOpen) {
		return p.group()
	}
	p.Unexpected("'{'")
	return nil
}

// group parses { ... }. Errors inside the group are recovered at the
// closing brace, so on return the state of the enclosing element only
// reflects a missing '{' or the end of input.
func (p *parser) group() *Group {
	open := p.Next()
	g := &Group{}
	if p.AtKeyword("SELECT") {
		g.Elements = append(g.Elements, &SubQuery{Query: p.query(false)})
	}

	afterTriples := false
	for {
		if p.EOF() {
			p.SetCut()
			g.Sp = p.from(open.Span.Start)
			return g
		}
		if p.At(token.CurlClose) {
			p.Next()
			g.Closed = true
			g.Sp = p.from(open.Span.Start)
			p.Begin()
			return g
		}
		if p.At(token.Stop) {
			p.Next()
			afterTriples = false
			continue
		}

		start := p.Index()
		p.Begin()
		if afterTriples && startsTriples(p.Peek().Value.Kind) {
			p.Report(lang.Errorf(lang.KindSyntax, span.At(p.LastEnd()), "expected '.' between triple patterns").
				WithCode(lang.CodeMissingStop))
		}
		el := p.element()
		afterTriples = false
		if el != nil {
			g.Elements = append(g.Elements, el)
			_, afterTriples = el.(*Triples)
		}
		if p.Failed() {
			p.Recover(token.Stop, func(k token.Kind) bool { return k == token.CurlClose })
			afterTriples = false
		}
		if p.Index() == start {
			p.Next()
		}
	}
}

func startsTriples(k token.Kind) bool {
	switch k {
	case token.IRIRef, token.PNameLN, token.PNameNS, token.BlankNodeLabel, token.Variable, token.SqOpen, token.BracketOpen:
		return true
	}
	return false
}

func (p *parser) element() Element {
	t := p.Peek()
	start := t.Span.Start
	if t.Value.Kind == token.Keyword {
		switch t.Value.Text {
		case "OPTIONAL":
			p.Next()
			return &Optional{Group: p.expectGroup(), Sp: p.from(start)}
		case "MINUS":
			p.Next()
			return &Minus{Group: p.expectGroup(), Sp: p.from(start)}
		case "GRAPH":
			p.Next()
			name := p.graphName()
			if name == nil {
				return nil
			}
			return &GraphPattern{Name: name, Group: p.expectGroup(), Sp: p.from(start)}
		case "SERVICE":
			p.Next()
			s := &Service{}
			if p.AtKeyword("SILENT") {
				p.Next()
				s.Silent = true
			}
			if s.Name = p.graphName(); s.Name == nil {
				return nil
			}
			s.Group = p.expectGroup()
			s.Sp = p.from(start)
			return s
		case "FILTER":
			p.Next()
			return p.filter(start)
		case "BIND":
			p.Next()
			if !p.At(token.BracketOpen) {
				p.Unexpected("'('")
				return nil
			}
			e, v := p.binding()
			return &Bind{Expr: e, Var: v, Sp: p.from(start)}
		case "VALUES":
			return p.inlineData()
		}
		p.Unexpected("a triple pattern")
		return nil
	}

	if p.At(token.CurlOpen) {
		u := &Union{Groups: []*Group{p.group()}}
		for p.AtKeyword("UNION") {
			p.Next()
			g := p.expectGroup()
			if g == nil {
				break
			}
			u.Groups = append(u.Groups, g)
		}
		u.Sp = p.from(start)
		return u
	}

	st := p.Triples()
	if st == nil {
		return nil
	}
	st.Broken = p.Failed() || p.Cut()
	return &Triples{Stmt: st}
}

func (p *parser) graphName() turtle.Term {
	if p.At(token.Variable, token.IRIRef, token.PNameLN, token.PNameNS) {
		return p.Node(p.Next())
	}
	p.Unexpected("a variable or IRI")
	return nil
}

func (p *parser) filter(start int) Element {
	f := &Filter{}
	if p.AtKeyword("NOT") {
		p.Next()
		f.Not = true
		if !p.AtKeyword("EXISTS") {
			p.Unexpected("EXISTS")
			return nil
		}
	}
	if p.AtKeyword("EXISTS") {
		p.Next()
		f.Exists = p.expectGroup()
	} else if f.Expr = p.constraint(); f.Expr == nil {
		return nil
	}
	f.Sp = p.from(start)
	return f
}

// binding parses ( expr AS ?v ).
func (p *parser) binding() (*Expr, *turtle.Variable) {
	open := p.Next()
	e := p.run(open.Span.Start, func() bool { return p.AtKeyword("AS") })
	if p.Failed() || p.Cut() {
		return e, nil
	}
	if !p.AtKeyword("AS") {
		p.Unexpected("AS")
		return e, nil
	}
	p.Next()
	if !p.At(token.Variable) {
		p.Unexpected("a variable after AS")
		return e, nil
	}
	v := p.variable(p.Next())
	if !p.At(token.BracketClose) {
		p.Unexpected("')'")
		return e, v
	}
	p.Next()
	e.Sp = p.from(open.Span.Start)
	return e, v
}

// bracketed parses ( ... ) as one expression.
func (p *parser) bracketed() *Expr {
	open := p.Next()
	e := p.run(open.Span.Start, func() bool { return false })
	if p.Failed() || p.Cut() {
		return e
	}
	if !p.At(token.BracketClose) {
		p.Unexpected("')'")
		return e
	}
	p.Next()
	e.Sp = p.from(open.Span.Start)
	return e
}

// run consumes a balanced token run up to a closing bracket or brace it
// did not open, or until stop reports true outside nested brackets.
func (p *parser) run(start int, stop func() bool) *Expr {
	e := &Expr{}
	depth := 0
	for {
		if p.EOF() {
			p.SetCut()
			break
		}
		if depth == 0 && stop() {
			break
		}
		t := p.Peek()
		switch t.Value.Kind {
		case token.BracketOpen, token.CurlOpen:
			depth++
		case token.BracketClose, token.CurlClose:
			if depth == 0 {
				e.Sp = p.from(start)
				return e
			}
			depth--
		case token.Variable:
			e.Vars = append(e.Vars, p.variable(t))
		case token.IRIRef, token.PNameLN, token.PNameNS:
			e.Names = append(e.Names, p.Node(t).(*turtle.NamedNode))
		}
		p.Next()
	}
	e.Sp = p.from(start)
	return e
}

// constraint parses a bracketed expression or a function call.
func (p *parser) constraint() *Expr {
	switch {
	case p.At(token.BracketOpen):
		return p.bracketed()
	case p.At(token.Keyword) && IsBuiltin(p.Peek().Value.Text), p.At(token.IRIRef, token.PNameLN, token.PNameNS):
		call := p.Next()
		e := &Expr{}
		if call.Value.Kind != token.Keyword {
			e.Names = append(e.Names, p.Node(call).(*turtle.NamedNode))
		}
		if !p.At(token.BracketOpen) {
			p.Unexpected("'('")
			e.Sp = call.Span
			return e
		}
		args := p.bracketed()
		e.Vars = append(e.Vars, args.Vars...)
		e.Names = append(e.Names, args.Names...)
		e.Sp = p.from(call.Span.Start)
		return e
	}
	p.Unexpected("a constraint")
	return nil
}

func (p *parser) inlineData() *InlineData {
	kw := p.Next()
	v := &InlineData{}
	defer func() { v.Sp = p.from(kw.Span.Start) }()

	single := false
	switch {
	case p.At(token.Variable):
		v.Vars = append(v.Vars, p.variable(p.Next()))
		single = true
	case p.At(token.BracketOpen):
		p.Next()
		for p.At(token.Variable) {
			v.Vars = append(v.Vars, p.variable(p.Next()))
		}
		if !p.At(token.BracketClose) {
			p.Unexpected("')'")
			return v
		}
		p.Next()
	default:
		p.Unexpected("a variable or '('")
		return v
	}

	if !p.At(token.CurlOpen) {
		p.Unexpected("'{'")
		return v
	}
	p.Next()
	for {
		if p.EOF() {
			p.SetCut()
			return v
		}
		if p.At(token.CurlClose) {
			p.Next()
			return v
		}
		if single {
			val, ok := p.dataValue()
			if !ok {
				return v
			}
			v.Rows = append(v.Rows, []turtle.Term{val})
			continue
		}
		if !p.At(token.BracketOpen) {
			p.Unexpected("'('")
			return v
		}
		p.Next()
		var row []turtle.Term
		for !p.At(token.BracketClose) {
			if p.EOF() {
				p.SetCut()
				return v
			}
			val, ok := p.dataValue()
			if !ok {
				return v
			}
			row = append(row, val)
		}
		p.Next()
		v.Rows = append(v.Rows, row)
	}
}

// dataValue parses one VALUES entry. UNDEF yields a nil term.
func (p *parser) dataValue() (turtle.Term, bool) {
	if p.AtKeyword("UNDEF") {
		p.Next()
		return nil, true
	}
	switch p.Peek().Value.Kind {
	case token.IRIRef, token.PNameLN, token.PNameNS, token.String,
		token.Integer, token.Decimal, token.Double, token.True, token.False:
		t := p.Term()
		return t, t != nil
	}
	p.Unexpected("a data value")
	return nil, false
}

func (p *parser) modifier() *Modifier {
	kw := p.Next()
	m := &Modifier{Keyword: kw.Value.Text}
	defer func() { m.Sp = p.from(kw.Span.Start) }()

	switch m.Keyword {
	case "GROUP", "ORDER":
		if !p.AtKeyword("BY") {
			p.Unexpected("BY")
			return m
		}
		p.Next()
		order := m.Keyword == "ORDER"
		m.Keyword += " BY"
		for p.atCondition(order) {
			e := p.condition()
			if e == nil || p.Failed() || p.Cut() {
				break
			}
			m.Exprs = append(m.Exprs, e)
		}
		if len(m.Exprs) == 0 {
			p.Unexpected("a condition")
		}
	case "HAVING":
		for p.atCondition(false) {
			e := p.constraint()
			if e == nil || p.Failed() || p.Cut() {
				break
			}
			m.Exprs = append(m.Exprs, e)
		}
		if len(m.Exprs) == 0 {
			p.Unexpected("a constraint")
		}
	case "LIMIT", "OFFSET":
		if !p.At(token.Integer) {
			p.Unexpected("an integer")
			return m
		}
		m.Value = p.Next().Value.Text
	}
	return m
}

func (p *parser) atCondition(order bool) bool {
	if p.At(token.Variable, token.BracketOpen, token.IRIRef, token.PNameLN, token.PNameNS) {
		return true
	}
	if !p.At(token.Keyword) {
		return false
	}
	w := p.Peek().Value.Text
	return IsBuiltin(w) || order && (w == "ASC" || w == "DESC")
}

func (p *parser) condition() *Expr {
	switch {
	case p.At(token.Variable):
		t := p.Next()
		return &Expr{Vars: []*turtle.Variable{p.variable(t)}, Sp: t.Span}
	case p.AtKeyword("ASC", "DESC"):
		kw := p.Next()
		if !p.At(token.BracketOpen) {
			p.Unexpected("'('")
			return nil
		}
		e := p.bracketed()
		e.Sp = p.from(kw.Span.Start)
		return e
	}
	return p.constraint()
}
