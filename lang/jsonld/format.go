package jsonld

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Format re-indents the tree. Documents with syntax errors are refused.
func Format(tree *Tree, indent string) (string, bool) {
	for _, n := range tree.Nodes {
		if n.Kind == Invalid || (n.Kind == Object || n.Kind == Array) && !n.Closed {
			return "", false
		}
		if n.Kind == Member && len(n.Children) == 0 {
			return "", false
		}
	}
	root := tree.Root()
	if root < 0 {
		return "", true
	}
	var b strings.Builder
	writeValue(&b, tree, root, indent, 0)
	b.WriteByte('\n')
	return b.String(), true
}

func writeValue(b *strings.Builder, tree *Tree, idx int, indent string, depth int) {
	n := tree.Nodes[idx]
	switch n.Kind {
	case Object, Array:
		open, close := "{", "}"
		if n.Kind == Array {
			open, close = "[", "]"
		}
		if len(n.Children) == 0 {
			b.WriteString(open + close)
			return
		}
		b.WriteString(open + "\n")
		for i, c := range n.Children {
			b.WriteString(strings.Repeat(indent, depth+1))
			if n.Kind == Object {
				m := tree.Nodes[c]
				b.WriteString(quote(m.Value) + ": ")
				writeValue(b, tree, m.Children[0], indent, depth+1)
			} else {
				writeValue(b, tree, c, indent, depth+1)
			}
			if i < len(n.Children)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indent, depth) + close)
	case String:
		b.WriteString(quote(n.Value))
	case Number:
		b.WriteString(n.Value)
	default:
		b.WriteString(n.Kind.String())
	}
}

// quote encodes s as a JSON string, leaving non-ASCII text as written.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == utf8.RuneError {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
