package turtle

import (
	"fmt"

	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Parser is a recursive-descent parser over Turtle tokens. It is exported
// so the SPARQL grammar can reuse the triples productions inside group
// patterns.
//
// Errors never abort a parse. The first error in a statement marks the
// statement failed; the caller then calls Recover to skip to a point where
// parsing can resume. A statement cut short by the end of input is marked
// cut and is not reported, since the user is usually still typing it.
type Parser struct {
	tokens   []token.Spanned
	order    []int // indices of non-comment tokens
	pos      int
	srcLen   int
	dialect  Dialect
	prior    *diffctx.Context
	roles    *diffctx.Roles
	diags    []lang.Diagnostic
	comments []token.Spanned
	failed   bool
	cut      bool
	last     span.Span
}

// NewParser prepares a parse of tokens. prior carries the roles of the
// previous parse of the same document and may be nil.
func NewParser(tokens []token.Spanned, srcLen int, prior *diffctx.Context, d Dialect) *Parser {
	p := &Parser{
		tokens:  tokens,
		srcLen:  srcLen,
		dialect: d,
		prior:   prior,
		roles:   diffctx.NewRoles(),
	}
	for i, t := range tokens {
		if t.Value.Kind == token.Comment {
			p.comments = append(p.comments, t)
			continue
		}
		p.order = append(p.order, i)
	}
	return p
}

func (p *Parser) Diagnostics() []lang.Diagnostic { return p.diags }
func (p *Parser) Roles() *diffctx.Roles          { return p.roles }
func (p *Parser) Comments() []token.Spanned      { return p.comments }

// EOF reports whether every significant token has been consumed.
func (p *Parser) EOF() bool {
	return p.pos >= len(p.order)
}

// Peek returns the next significant token. At the end of input it returns
// an Invalid token with an empty span at the end of the source.
func (p *Parser) Peek() token.Spanned {
	if p.EOF() {
		return span.Wrap(token.Token{}, span.At(p.srcLen))
	}
	return p.tokens[p.order[p.pos]]
}

// PeekAt looks n significant tokens ahead.
func (p *Parser) PeekAt(n int) (token.Spanned, bool) {
	if p.pos+n >= len(p.order) {
		return token.Spanned{}, false
	}
	return p.tokens[p.order[p.pos+n]], true
}

// Index is the position of the next token in the full token list, or -1.
func (p *Parser) Index() int {
	if p.EOF() {
		return -1
	}
	return p.order[p.pos]
}

func (p *Parser) Next() token.Spanned {
	t := p.Peek()
	if !p.EOF() {
		p.pos++
		p.last = t.Span
	}
	return t
}

// At reports whether the next token has one of the given kinds.
func (p *Parser) At(kinds ...token.Kind) bool {
	if p.EOF() {
		return false
	}
	k := p.Peek().Value.Kind
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// AtKeyword reports whether the next token is one of the given keywords.
func (p *Parser) AtKeyword(words ...string) bool {
	return p.atText(token.Keyword, words)
}

// AtOp reports whether the next token is one of the given operators.
func (p *Parser) AtOp(ops ...string) bool {
	return p.atText(token.Op, ops)
}

func (p *Parser) atText(k token.Kind, texts []string) bool {
	if !p.At(k) {
		return false
	}
	got := p.Peek().Value.Text
	for _, t := range texts {
		if got == t {
			return true
		}
	}
	return false
}

// LastEnd is the end offset of the last consumed token.
func (p *Parser) LastEnd() int { return p.last.End }

// Mark records the role of the token at idx.
func (p *Parser) Mark(idx int, role diffctx.Role) { p.roles.Mark(idx, role) }

// Begin starts a new statement.
func (p *Parser) Begin() {
	p.failed = false
	p.cut = false
}

func (p *Parser) Failed() bool { return p.failed }
func (p *Parser) Cut() bool    { return p.cut }

// SetCut marks the current statement as ended by the end of input.
func (p *Parser) SetCut() { p.cut = true }

// Report records a diagnostic without affecting the statement state.
func (p *Parser) Report(d *lang.Diagnostic) {
	p.diags = append(p.diags, *d)
}

// Fail records a syntax error and marks the statement failed. Only the
// first error of a statement is reported.
func (p *Parser) Fail(sp span.Span, format string, args ...any) {
	if p.failed {
		return
	}
	p.failed = true
	p.Report(lang.Errorf(lang.KindSyntax, sp, format, args...).WithCode(lang.CodeUnexpected))
}

// Unexpected fails the statement on the next token, or marks it cut at the
// end of input.
func (p *Parser) Unexpected(expected string) {
	if p.EOF() {
		p.cut = true
		return
	}
	t := p.Peek()
	p.Fail(t.Span, "expected %s, found %s", expected, Describe(t.Value))
}

// Recover skips tokens after a failed statement. It stops after a token of
// kind end, or before a token for which stop reports true, outside any
// braces opened while skipping. The resume offset is recorded on the last
// diagnostic.
func (p *Parser) Recover(end token.Kind, stop func(token.Kind) bool) {
	depth := 0
	for !p.EOF() {
		k := p.Peek().Value.Kind
		if depth == 0 && stop != nil && stop(k) {
			break
		}
		switch k {
		case token.CurlOpen:
			depth++
		case token.CurlClose:
			if depth > 0 {
				depth--
			}
		}
		p.Next()
		if depth == 0 && k == end {
			break
		}
	}
	resume := p.srcLen
	if !p.EOF() {
		resume = p.Peek().Span.Start
	}
	if n := len(p.diags); n > 0 && p.diags[n-1].Kind == lang.KindSyntax {
		p.diags[n-1].Resume = resume
	}
}

// Describe renders a token for error messages.
func Describe(t token.Token) string {
	if t.Kind == token.Invalid {
		if t.Text == "" {
			return "end of input"
		}
		return fmt.Sprintf("'%s'", t.Text)
	}
	return fmt.Sprintf("'%s'", t.String())
}

// Document parses statements until the end of input.
func (p *Parser) Document() *Document {
	doc := &Document{Sp: span.New(0, p.srcLen)}
	for !p.EOF() {
		start := p.pos
		p.Begin()
		if st := p.Statement(); st != nil {
			doc.Statements = append(doc.Statements, st)
		}
		if p.failed {
			p.Recover(token.Stop, token.Kind.IsDirective)
		}
		if p.pos == start {
			p.Next()
		}
	}
	doc.Comments = p.comments
	return doc
}

// Statement parses one directive or triples statement, including its
// terminating '.'.
func (p *Parser) Statement() Statement {
	switch p.Peek().Value.Kind {
	case token.PrefixTag, token.SparqlPrefix:
		return p.prefixDecl()
	case token.BaseTag, token.SparqlBase:
		return p.baseDecl()
	case token.VersionTag, token.SparqlVersion:
		return p.versionDecl()
	}
	st := p.Triples()
	if st == nil {
		return nil
	}
	if !p.failed && !p.cut {
		st.Terminated = p.expectStop(&st.Sp)
	}
	st.Broken = p.failed || p.cut
	return st
}

// expectStop consumes the '.' ending a complete statement. A missing '.'
// before something that starts a new statement is reported without
// skipping, so the next statement still parses.
func (p *Parser) expectStop(sp *span.Span) bool {
	if p.At(token.Stop) {
		*sp = sp.Union(p.Next().Span)
		return true
	}
	if p.EOF() || startsStatement(p.Peek().Value.Kind) {
		p.Report(lang.Errorf(lang.KindSyntax, p.last, "expected '.' to end the statement").WithCode(lang.CodeMissingStop))
		return false
	}
	t := p.Peek()
	p.Fail(t.Span, "expected '.', found %s", Describe(t.Value))
	return false
}

func startsStatement(k token.Kind) bool {
	switch k {
	case token.IRIRef, token.PNameLN, token.PNameNS, token.BlankNodeLabel, token.SqOpen, token.BracketOpen:
		return true
	}
	return k.IsDirective()
}

func (p *Parser) prefixDecl() *PrefixDecl {
	kw := p.Next()
	d := &PrefixDecl{Sparql: kw.Value.Kind == token.SparqlPrefix}
	defer func() { d.Sp = span.New(kw.Span.Start, p.last.End) }()

	if !p.At(token.PNameNS) {
		p.Unexpected("a prefix label such as 'ex:'")
		return d
	}
	n := p.Next()
	d.Name, d.HasName = span.Wrap(n.Value.Prefix, n.Span), true

	if !p.At(token.IRIRef) {
		p.Unexpected("an IRI such as <http://example.org/>")
		return d
	}
	i := p.Next()
	d.IRI, d.HasIRI = span.Wrap(i.Value.Text, i.Span), true

	if !d.Sparql {
		sp := span.New(kw.Span.Start, p.last.End)
		d.Terminated = p.expectStop(&sp)
	}
	return d
}

func (p *Parser) baseDecl() *BaseDecl {
	kw := p.Next()
	d := &BaseDecl{Sparql: kw.Value.Kind == token.SparqlBase}
	defer func() { d.Sp = span.New(kw.Span.Start, p.last.End) }()

	if !p.At(token.IRIRef) {
		p.Unexpected("an IRI such as <http://example.org/>")
		return d
	}
	i := p.Next()
	d.IRI, d.HasIRI = span.Wrap(i.Value.Text, i.Span), true

	if !d.Sparql {
		sp := span.New(kw.Span.Start, p.last.End)
		d.Terminated = p.expectStop(&sp)
	}
	return d
}

func (p *Parser) versionDecl() *VersionDecl {
	kw := p.Next()
	d := &VersionDecl{Sparql: kw.Value.Kind == token.SparqlVersion}
	defer func() { d.Sp = span.New(kw.Span.Start, p.last.End) }()

	if !p.At(token.String) {
		p.Unexpected("a version string")
		return d
	}
	v := p.Next()
	d.Version, d.HasVersion = span.Wrap(v.Value.Text, v.Span), true

	if !d.Sparql {
		sp := span.New(kw.Span.Start, p.last.End)
		d.Terminated = p.expectStop(&sp)
	}
	return d
}

// Triples parses a subject and its predicate-object list, without the
// terminating '.'. It returns nil when no subject could be parsed.
//
// A statement whose first term the previous parse saw as a predicate, and
// never as a subject, most likely lost its subject in an edit. When such a
// statement fails to parse subject-first it is parsed again as a verb, so
// the rest of the statement keeps its meaning.
func (p *Parser) Triples() *TripleStmt {
	first := p.Peek()
	if first.Value.Kind == token.PredType {
		return p.verbFirst(first)
	}
	if p.failed || !p.lostSubject(p.Index(), first.Value.Kind) {
		return p.subjectFirst(first)
	}

	cp := p.checkpoint()
	st := p.subjectFirst(first)
	if !p.failed {
		return st
	}
	p.rewind(cp)
	return p.verbFirst(first)
}

func (p *Parser) subjectFirst(first token.Spanned) *TripleStmt {
	subj := p.subject()
	if subj == nil {
		return nil
	}
	st := &TripleStmt{Sp: first.Span, Subject: subj}
	if bl, ok := subj.(*BlankNodeList); ok && bl.Closed && !p.atVerb() {
		st.Sp = span.New(st.Sp.Start, p.last.End)
		return st
	}
	st.Predicates = p.predicateObjectList()
	st.Sp = span.New(st.Sp.Start, p.last.End)
	return st
}

func (p *Parser) verbFirst(first token.Spanned) *TripleStmt {
	p.Report(lang.Errorf(lang.KindSyntax, first.Span, "expected a subject before %s", Describe(first.Value)).
		WithCode(lang.CodeUnexpected))
	st := &TripleStmt{Sp: first.Span, Subject: &Invalid{Sp: span.At(first.Span.Start)}}
	st.Predicates = p.predicateObjectList()
	st.Sp = span.New(st.Sp.Start, p.last.End)
	return st
}

// state is the part of the parser a statement can change.
type state struct {
	pos    int
	diags  int
	roles  *diffctx.Roles
	failed bool
	cut    bool
	last   span.Span
}

func (p *Parser) checkpoint() state {
	return state{
		pos:    p.pos,
		diags:  len(p.diags),
		roles:  p.roles.Clone(),
		failed: p.failed,
		cut:    p.cut,
		last:   p.last,
	}
}

func (p *Parser) rewind(s state) {
	p.pos = s.pos
	p.diags = p.diags[:s.diags]
	p.roles = s.roles
	p.failed = s.failed
	p.cut = s.cut
	p.last = s.last
}

func (p *Parser) lostSubject(idx int, k token.Kind) bool {
	if !k.IsIRI() {
		return false
	}
	return p.prior.WasPredicate(idx) && !p.prior.WasSubject(idx)
}

func (p *Parser) subject() Term {
	t := p.Peek()
	idx := p.Index()
	switch t.Value.Kind {
	case token.IRIRef, token.PNameLN, token.PNameNS, token.BlankNodeLabel:
		p.Next()
		p.Mark(idx, diffctx.Subject)
		return p.Node(t)
	case token.Variable:
		if p.dialect.SPARQL {
			p.Next()
			p.Mark(idx, diffctx.Subject)
			return p.Node(t)
		}
	case token.SqOpen:
		return p.blankNodeList(idx, diffctx.Subject)
	case token.BracketOpen:
		return p.collection(idx, diffctx.Subject)
	}
	p.Unexpected("a subject")
	return nil
}

func (p *Parser) atVerb() bool {
	if p.At(token.IRIRef, token.PNameLN, token.PNameNS, token.PredType) {
		return true
	}
	return p.dialect.SPARQL && (p.At(token.Variable, token.BracketOpen) || p.AtOp("^", "!"))
}

func (p *Parser) predicateObjectList() []*PredicateObjects {
	var list []*PredicateObjects
	for {
		if p.EOF() {
			p.cut = true
			return list
		}
		if !p.atVerb() {
			if len(list) > 0 && p.At(token.Stop, token.SqClose, token.CurlClose) {
				return list
			}
			p.Unexpected("a predicate")
			return list
		}

		po := &PredicateObjects{Verb: p.verb()}
		if po.Verb == nil {
			return list
		}
		po.Objects = p.objectList()
		po.Sp = span.New(po.Verb.Span().Start, p.last.End)
		list = append(list, po)

		if p.failed || p.cut || !p.At(token.Semicolon) {
			return list
		}
		for p.At(token.Semicolon) {
			p.Next()
		}
	}
}

func (p *Parser) verb() Term {
	t := p.Peek()
	idx := p.Index()
	if p.dialect.SPARQL {
		if t.Value.Kind == token.Variable {
			p.Next()
			p.Mark(idx, diffctx.Predicate)
			return p.Node(t)
		}
		return p.path(idx)
	}
	p.Next()
	p.Mark(idx, diffctx.Predicate)
	return p.Node(t)
}

// path parses a property path. A path of one IRI without modifiers is
// returned as that IRI.
func (p *Parser) path(idx int) Term {
	start := p.Peek().Span.Start
	var steps []Term
	plain := true
	for {
		if p.AtOp("^", "!") {
			p.Next()
			plain = false
		}
		switch {
		case p.At(token.IRIRef, token.PNameLN, token.PNameNS, token.PredType):
			t := p.Next()
			steps = append(steps, p.Node(t))
		case p.At(token.BracketOpen):
			p.Next()
			plain = false
			inner := p.path(-1)
			if inner == nil {
				return nil
			}
			steps = append(steps, inner)
			if !p.At(token.BracketClose) {
				p.Unexpected("')'")
				return nil
			}
			p.Next()
		default:
			p.Unexpected("a property path")
			return nil
		}
		if p.AtOp("*", "+", "?") {
			p.Next()
			plain = false
		}
		if !p.AtOp("/", "|") {
			break
		}
		p.Next()
		plain = false
	}
	p.Mark(idx, diffctx.Predicate)
	if plain && len(steps) == 1 {
		return steps[0]
	}
	return &Path{Steps: steps, Sp: span.New(start, p.last.End)}
}

func (p *Parser) objectList() []Term {
	var list []Term
	for {
		o := p.Term()
		if o == nil {
			return list
		}
		list = append(list, o)
		if !p.At(token.Comma) {
			return list
		}
		p.Next()
	}
}

// Term parses one term in object position.
func (p *Parser) Term() Term {
	if p.EOF() {
		p.cut = true
		return nil
	}
	t := p.Peek()
	idx := p.Index()
	switch t.Value.Kind {
	case token.IRIRef, token.PNameLN, token.PNameNS, token.BlankNodeLabel:
		p.Next()
		p.Mark(idx, diffctx.Object)
		return p.Node(t)
	case token.Variable:
		if p.dialect.SPARQL {
			p.Next()
			p.Mark(idx, diffctx.Object)
			return p.Node(t)
		}
	case token.String:
		return p.literal(idx)
	case token.Integer, token.Decimal, token.Double, token.True, token.False:
		p.Next()
		p.Mark(idx, diffctx.Object)
		return &Literal{Kind: literalKinds[t.Value.Kind], Value: t.Value.String(), Sp: t.Span}
	case token.SqOpen:
		return p.blankNodeList(idx, diffctx.Object)
	case token.BracketOpen:
		return p.collection(idx, diffctx.Object)
	}
	p.Unexpected("an object")
	return nil
}

var literalKinds = map[token.Kind]LiteralKind{
	token.Integer: IntegerLiteral,
	token.Decimal: DecimalLiteral,
	token.Double:  DoubleLiteral,
	token.True:    BooleanLiteral,
	token.False:   BooleanLiteral,
}

func (p *Parser) literal(idx int) Term {
	t := p.Next()
	p.Mark(idx, diffctx.Object)
	lit := &Literal{Kind: StringLiteral, Value: t.Value.Text, Long: t.Value.Long, Sp: t.Span}

	switch {
	case p.At(token.LangTag):
		l := p.Next()
		lit.Lang = l.Value.Text
	case p.At(token.DataTypeTag):
		p.Next()
		if !p.At(token.IRIRef, token.PNameLN, token.PNameNS) {
			p.Unexpected("a datatype IRI after '^^'")
			break
		}
		dt := p.Next()
		lit.Datatype = p.Node(dt).(*NamedNode)
	}
	lit.Sp = span.New(t.Span.Start, p.last.End)
	return lit
}

func (p *Parser) blankNodeList(idx int, role diffctx.Role) Term {
	open := p.Next()
	p.Mark(idx, role)
	if p.At(token.SqClose) {
		p.Next()
		return &BlankNode{Sp: span.New(open.Span.Start, p.last.End)}
	}

	bl := &BlankNodeList{}
	bl.Predicates = p.predicateObjectList()
	if !p.failed && !p.cut {
		switch {
		case p.EOF():
			p.cut = true
		case p.At(token.SqClose):
			p.Next()
			bl.Closed = true
		default:
			p.Unexpected("']'")
		}
	}
	bl.Sp = span.New(open.Span.Start, p.last.End)
	return bl
}

func (p *Parser) collection(idx int, role diffctx.Role) Term {
	open := p.Next()
	p.Mark(idx, role)
	c := &Collection{}
	for {
		if p.EOF() {
			p.cut = true
			break
		}
		if p.At(token.BracketClose) {
			p.Next()
			c.Closed = true
			break
		}
		item := p.Term()
		if item == nil {
			break
		}
		c.Items = append(c.Items, item)
	}
	c.Sp = span.New(open.Span.Start, p.last.End)
	return c
}

// Node converts a single-token term.
func (p *Parser) Node(t token.Spanned) Term {
	v := t.Value
	switch v.Kind {
	case token.IRIRef:
		return &NamedNode{Kind: FullIRI, Value: v.Text, Sp: t.Span}
	case token.PNameLN, token.PNameNS:
		return &NamedNode{Kind: PrefixedName, Prefix: v.Prefix, Value: v.Text, Sp: t.Span}
	case token.PredType:
		return &NamedNode{Kind: TypeKeyword, Value: "a", Sp: t.Span}
	case token.BlankNodeLabel:
		return &BlankNode{Label: v.Text, Sp: t.Span}
	case token.Variable:
		return &Variable{Name: v.Text, Sp: t.Span}
	}
	return &Invalid{Sp: t.Span}
}
