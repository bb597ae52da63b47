package jsonld

import (
	"github.com/teranos/semls/span"
)

// NodeKind is the JSON value type of a node.
type NodeKind uint8

const (
	Object NodeKind = iota
	Member
	Array
	String
	Number
	True
	False
	Null
	Invalid
)

var nodeKindNames = [...]string{
	Object:  "object",
	Member:  "member",
	Array:   "array",
	String:  "string",
	Number:  "number",
	True:    "true",
	False:   "false",
	Null:    "null",
	Invalid: "invalid",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// Node is one entry of the arena. Members hold their key in Value and
// their value as the only child.
type Node struct {
	Kind     NodeKind
	Span     span.Span
	Parent   int // -1 for the root
	Children []int
	Value    string    // decoded string, number text, or member key
	Key      span.Span // member key, including quotes
	Closed   bool      // object or array reached its closing bracket
}

// Tree is a JSON syntax tree stored as a flat arena. Node 0 is the root;
// an empty document has no nodes.
type Tree struct {
	Nodes []Node
	Sp    span.Span
}

func (t *Tree) Span() span.Span { return t.Sp }

func (t *Tree) add(n Node) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	if n.Parent >= 0 {
		p := &t.Nodes[n.Parent]
		p.Children = append(p.Children, idx)
	}
	return idx
}

// Root returns the root node index, or -1 for an empty document.
func (t *Tree) Root() int {
	if len(t.Nodes) == 0 {
		return -1
	}
	return 0
}

// MemberValue returns the value node of member m, or -1.
func (t *Tree) MemberValue(m int) int {
	if n := t.Nodes[m]; n.Kind == Member && len(n.Children) > 0 {
		return n.Children[0]
	}
	return -1
}

// Lookup finds the value of the member named key in object obj.
func (t *Tree) Lookup(obj int, key string) (int, bool) {
	for _, c := range t.Nodes[obj].Children {
		if n := t.Nodes[c]; n.Kind == Member && n.Value == key {
			v := t.MemberValue(c)
			return v, v >= 0
		}
	}
	return -1, false
}

// At returns the innermost node whose span contains off, or -1.
func (t *Tree) At(off int) int {
	best := -1
	for i, n := range t.Nodes {
		if !n.Span.Contains(off) {
			continue
		}
		if best < 0 || n.Span.Len() <= t.Nodes[best].Span.Len() {
			best = i
		}
	}
	return best
}

// EnclosingMember walks up from idx to the nearest member.
func (t *Tree) EnclosingMember(idx int) int {
	for idx >= 0 {
		if t.Nodes[idx].Kind == Member {
			return idx
		}
		idx = t.Nodes[idx].Parent
	}
	return -1
}
