package jsonld

import (
	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// parser builds the arena. Errors are recorded and the parser skips to the
// next comma or closing bracket at the same depth.
type parser struct {
	tokens []token.Spanned
	pos    int
	srcLen int
	tree   *Tree
	diags  []lang.Diagnostic
	roles  *diffctx.Roles
	last   span.Span
}

// Parse builds a best-effort tree from tokens.
func Parse(tokens []token.Spanned, srcLen int) (*Tree, []lang.Diagnostic, *diffctx.Roles) {
	p := &parser{
		tokens: tokens,
		srcLen: srcLen,
		tree:   &Tree{Sp: span.New(0, srcLen)},
		roles:  diffctx.NewRoles(),
	}
	if len(tokens) > 0 {
		p.value(-1, diffctx.Subject)
		if !p.eof() {
			t := p.peek()
			p.fail(t.Span, "unexpected %s after the document", describe(t.Value))
			p.pos = len(p.tokens)
			p.diags[len(p.diags)-1].Resume = srcLen
		}
	}
	return p.tree, p.diags, p.roles
}

func (p *parser) eof() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token.Spanned {
	if p.eof() {
		return span.Wrap(token.Token{}, span.At(p.srcLen))
	}
	return p.tokens[p.pos]
}

func (p *parser) at(k token.Kind) bool {
	return !p.eof() && p.tokens[p.pos].Value.Kind == k
}

func (p *parser) next() token.Spanned {
	t := p.peek()
	if !p.eof() {
		p.pos++
		p.last = t.Span
	}
	return t
}

func (p *parser) fail(sp span.Span, format string, args ...any) {
	p.diags = append(p.diags, *lang.Errorf(lang.KindSyntax, sp, format, args...).WithCode(lang.CodeUnexpected))
}

// failEOF reports the end of input once, however many containers are open.
func (p *parser) failEOF(expected string) {
	if n := len(p.diags); n > 0 && p.diags[n-1].Span.Start == p.srcLen {
		return
	}
	p.fail(span.At(p.srcLen), "unexpected end of input, expected %s", expected)
}

func describe(t token.Token) string {
	if t.Kind == token.Invalid && t.Text == "" {
		return "end of input"
	}
	if t.Kind == token.String {
		return `"` + token.EscapeString(t.Text) + `"`
	}
	return "'" + t.String() + "'"
}

// recover skips to the next comma or closer outside nested brackets, and
// records where parsing resumes on the last error.
func (p *parser) recover(closer token.Kind) {
	depth := 0
	for !p.eof() {
		k := p.peek().Value.Kind
		if depth == 0 && (k == token.Comma || k == closer) {
			break
		}
		switch k {
		case token.CurlOpen, token.SqOpen:
			depth++
		case token.CurlClose, token.SqClose:
			if depth == 0 {
				// a closer of an enclosing container
				p.resume()
				return
			}
			depth--
		}
		p.next()
	}
	p.resume()
}

func (p *parser) resume() {
	if n := len(p.diags); n > 0 {
		off := p.srcLen
		if !p.eof() {
			off = p.peek().Span.Start
		}
		p.diags[n-1].Resume = off
	}
}

var leafKinds = map[token.Kind]NodeKind{
	token.String:  String,
	token.Integer: Number,
	token.Decimal: Number,
	token.Double:  Number,
	token.True:    True,
	token.False:   False,
	token.Null:    Null,
}

func (p *parser) value(parent int, role diffctx.Role) int {
	if p.eof() {
		p.failEOF("a value")
		return p.tree.add(Node{Kind: Invalid, Span: span.At(p.srcLen), Parent: parent})
	}
	t := p.peek()
	switch t.Value.Kind {
	case token.CurlOpen:
		return p.object(parent)
	case token.SqOpen:
		return p.array(parent, role)
	}
	if k, ok := leafKinds[t.Value.Kind]; ok {
		p.roles.Mark(p.pos, role)
		p.next()
		return p.tree.add(Node{Kind: k, Span: t.Span, Parent: parent, Value: t.Value.Text})
	}
	p.fail(t.Span, "expected a value, found %s", describe(t.Value))
	if t.Value.Kind == token.Invalid {
		p.next()
	}
	return p.tree.add(Node{Kind: Invalid, Span: t.Span, Parent: parent, Value: t.Value.Text})
}

func (p *parser) object(parent int) int {
	open := p.next()
	obj := p.tree.add(Node{Kind: Object, Span: open.Span, Parent: parent})
	defer func() { p.tree.Nodes[obj].Span = span.New(open.Span.Start, p.last.End) }()

	if p.at(token.CurlClose) {
		p.next()
		p.tree.Nodes[obj].Closed = true
		return obj
	}
	for {
		if p.eof() {
			p.failEOF("'}'")
			return obj
		}
		before := len(p.diags)
		p.member(obj)
		if len(p.diags) > before && p.at(token.SqClose) {
			return obj
		}

		switch {
		case p.at(token.Comma):
			p.next()
			if p.at(token.CurlClose) {
				p.fail(p.last, "trailing comma before '}'")
			}
			continue
		case p.at(token.CurlClose):
			p.next()
			p.tree.Nodes[obj].Closed = true
			return obj
		case p.eof():
			continue
		}
		t := p.peek()
		p.fail(t.Span, "expected ',' or '}', found %s", describe(t.Value))
		p.recover(token.CurlClose)
		if p.at(token.CurlClose) {
			p.next()
			p.tree.Nodes[obj].Closed = true
			return obj
		}
		if !p.at(token.Comma) {
			return obj
		}
		p.next()
	}
}

func (p *parser) member(obj int) {
	if p.at(token.CurlClose) {
		return
	}
	if !p.at(token.String) {
		t := p.peek()
		p.fail(t.Span, "expected a member name, found %s", describe(t.Value))
		p.recover(token.CurlClose)
		return
	}
	keyIdx := p.pos
	key := p.next()
	m := p.tree.add(Node{Kind: Member, Span: key.Span, Key: key.Span, Parent: obj, Value: key.Value.Text})
	p.roles.Mark(keyIdx, diffctx.Predicate)

	if !p.at(token.Colon) {
		t := p.peek()
		if p.eof() {
			p.failEOF("':'")
			return
		}
		p.fail(t.Span, "expected ':' after member name, found %s", describe(t.Value))
		p.recover(token.CurlClose)
		p.tree.Nodes[m].Span = span.New(key.Span.Start, p.last.End)
		return
	}
	p.next()
	role := diffctx.Object
	if key.Value.Text == "@id" {
		role = diffctx.Subject
	}
	v := p.value(m, role)
	p.tree.Nodes[m].Span = key.Span.Union(p.tree.Nodes[v].Span)
}

func (p *parser) array(parent int, role diffctx.Role) int {
	open := p.next()
	arr := p.tree.add(Node{Kind: Array, Span: open.Span, Parent: parent})
	defer func() { p.tree.Nodes[arr].Span = span.New(open.Span.Start, p.last.End) }()

	if p.at(token.SqClose) {
		p.next()
		p.tree.Nodes[arr].Closed = true
		return arr
	}
	for {
		p.value(arr, role)
		switch {
		case p.at(token.Comma):
			p.next()
			if p.at(token.SqClose) {
				p.fail(p.last, "trailing comma before ']'")
			}
			if !p.at(token.SqClose) {
				continue
			}
			fallthrough
		case p.at(token.SqClose):
			p.next()
			p.tree.Nodes[arr].Closed = true
			return arr
		case p.eof():
			p.failEOF("']'")
			return arr
		}
		t := p.peek()
		p.fail(t.Span, "expected ',' or ']', found %s", describe(t.Value))
		p.recover(token.SqClose)
		if p.at(token.SqClose) {
			p.next()
			p.tree.Nodes[arr].Closed = true
			return arr
		}
		if !p.at(token.Comma) {
			return arr
		}
		p.next()
	}
}
