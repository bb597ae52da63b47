package turtle

import (
	"fmt"
	"strings"

	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/token"
)

// Format pretty-prints doc. It refuses documents with broken statements,
// since rewriting them would drop the user's text. Comments are kept and
// placed before the statement they precede.
func Format(doc *Document, opts lang.FormatOptions) (string, bool) {
	for _, st := range doc.Statements {
		if !complete(st) {
			return "", false
		}
	}

	f := &formatter{indent: opts.Indent()}
	comments := doc.Comments
	for i, st := range doc.Statements {
		for len(comments) > 0 && comments[0].Span.Start < st.Span().End {
			f.comment(comments[0])
			comments = comments[1:]
		}
		f.statement(st)

		if i == len(doc.Statements)-1 {
			break
		}
		_, triples := st.(*TripleStmt)
		_, nextTriples := doc.Statements[i+1].(*TripleStmt)
		if triples || nextTriples {
			f.b.WriteByte('\n')
		}
	}
	if len(doc.Statements) > 0 {
		if _, ok := doc.Statements[len(doc.Statements)-1].(*TripleStmt); !ok {
			f.b.WriteByte('\n')
		}
	}
	for _, c := range comments {
		f.comment(c)
	}
	return f.b.String(), true
}

func complete(st Statement) bool {
	switch s := st.(type) {
	case *PrefixDecl:
		return s.HasName && s.HasIRI
	case *BaseDecl:
		return s.HasIRI
	case *VersionDecl:
		return s.HasVersion
	case *TripleStmt:
		return !s.Broken
	}
	return false
}

type formatter struct {
	b      strings.Builder
	indent string
}

func (f *formatter) comment(c token.Spanned) {
	f.b.WriteString(c.Value.Text)
	f.b.WriteByte('\n')
}

func (f *formatter) statement(st Statement) {
	switch s := st.(type) {
	case *PrefixDecl:
		if s.Sparql {
			fmt.Fprintf(&f.b, "PREFIX %s: <%s>\n", s.Name.Value, escapeIRI(s.IRI.Value))
		} else {
			fmt.Fprintf(&f.b, "@prefix %s: <%s>.\n", s.Name.Value, escapeIRI(s.IRI.Value))
		}
	case *BaseDecl:
		if s.Sparql {
			fmt.Fprintf(&f.b, "BASE <%s>\n", escapeIRI(s.IRI.Value))
		} else {
			fmt.Fprintf(&f.b, "@base <%s>.\n", escapeIRI(s.IRI.Value))
		}
	case *VersionDecl:
		if s.Sparql {
			fmt.Fprintf(&f.b, "VERSION \"%s\"\n", token.EscapeString(s.Version.Value))
		} else {
			fmt.Fprintf(&f.b, "@version \"%s\".\n", token.EscapeString(s.Version.Value))
		}
	case *TripleStmt:
		f.term(s.Subject, 0)
		if len(s.Predicates) > 0 {
			f.b.WriteByte(' ')
			f.predicates(s.Predicates, 1)
		}
		f.b.WriteString(".\n")
	}
}

func (f *formatter) predicates(pos []*PredicateObjects, depth int) {
	for i, po := range pos {
		if i > 0 {
			f.b.WriteString(" ;\n")
			f.b.WriteString(strings.Repeat(f.indent, depth))
		}
		f.term(po.Verb, depth)
		f.b.WriteByte(' ')
		for j, o := range po.Objects {
			if j > 0 {
				f.b.WriteString(", ")
			}
			f.term(o, depth)
		}
	}
}

func (f *formatter) term(t Term, depth int) {
	switch n := t.(type) {
	case *NamedNode:
		f.b.WriteString(n.Text())
	case *BlankNode:
		if n.Label == "" {
			f.b.WriteString("[]")
		} else {
			f.b.WriteString("_:" + n.Label)
		}
	case *BlankNodeList:
		if len(n.Predicates) <= 1 {
			f.b.WriteString("[ ")
			f.predicates(n.Predicates, depth+1)
			f.b.WriteString(" ]")
			return
		}
		f.b.WriteString("[\n")
		f.b.WriteString(strings.Repeat(f.indent, depth+1))
		f.predicates(n.Predicates, depth+1)
		f.b.WriteByte('\n')
		f.b.WriteString(strings.Repeat(f.indent, depth))
		f.b.WriteByte(']')
	case *Collection:
		f.b.WriteByte('(')
		for _, item := range n.Items {
			f.b.WriteByte(' ')
			f.term(item, depth)
		}
		if len(n.Items) > 0 {
			f.b.WriteByte(' ')
		}
		f.b.WriteByte(')')
	case *Literal:
		f.literal(n)
	case *Variable:
		f.b.WriteString("?" + n.Name)
	}
}

func (f *formatter) literal(l *Literal) {
	if l.Kind != StringLiteral {
		f.b.WriteString(l.Value)
		return
	}
	if l.Long || strings.ContainsAny(l.Value, "\n\r") {
		f.b.WriteString(`"""` + escapeLong(l.Value) + `"""`)
	} else {
		f.b.WriteString(`"` + token.EscapeString(l.Value) + `"`)
	}
	switch {
	case l.Lang != "":
		f.b.WriteString("@" + l.Lang)
	case l.Datatype != nil:
		f.b.WriteString("^^" + l.Datatype.Text())
	}
}

// Text renders the node the way it should be written back.
func (n *NamedNode) Text() string {
	switch n.Kind {
	case TypeKeyword:
		return "a"
	case PrefixedName:
		return n.Prefix + ":" + escapeLocal(n.Value)
	}
	return "<" + escapeIRI(n.Value) + ">"
}

// escapeLong keeps newlines and escapes what would close the literal.
func escapeLong(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func escapeIRI(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			fmt.Fprintf(&b, "\\u%04X", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeLocal backslash-escapes the characters a local name cannot hold
// as written. Percent escapes were kept verbatim by the scanner.
func escapeLocal(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		ok := token.IsPNChars(r) || r == ':' || r == '%' ||
			(i == 0 && token.IsDigit(r)) ||
			(r == '.' && i > 0 && i < len(runes)-1)
		if i == 0 && r == '-' {
			ok = false
		}
		if !ok && token.IsLocalEscape(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
