// Package diffctx carries subject/predicate/object roles from one version
// of a document's tokens to the next.
//
// Roles recorded while parsing version N are keyed by token index in N.
// When version N+1 arrives, its tokens are aligned with version N by a
// sequence diff over token values; a role lookup for a new index first goes
// through that alignment. Missing alignments simply mean "no hint".
package diffctx

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/teranos/semls/token"
)

// Role is the position a term held in a triple.
type Role uint8

const (
	Subject Role = 1 << iota
	Predicate
	Object
)

func (r Role) String() string {
	var parts []string
	if r&Subject != 0 {
		parts = append(parts, "subject")
	}
	if r&Predicate != 0 {
		parts = append(parts, "predicate")
	}
	if r&Object != 0 {
		parts = append(parts, "object")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Roles records the roles of token indices during one parse.
type Roles struct {
	byIndex map[int]Role
}

func NewRoles() *Roles {
	return &Roles{byIndex: make(map[int]Role)}
}

// Mark adds role to the token at idx.
func (r *Roles) Mark(idx int, role Role) {
	if r == nil || idx < 0 {
		return
	}
	r.byIndex[idx] |= role
}

// Of returns every role recorded for idx.
func (r *Roles) Of(idx int) Role {
	if r == nil {
		return 0
	}
	return r.byIndex[idx]
}

func (r *Roles) Has(idx int, role Role) bool {
	return r.Of(idx)&role != 0
}

// Clone returns an independent copy of r.
func (r *Roles) Clone() *Roles {
	c := NewRoles()
	if r == nil {
		return c
	}
	for idx, role := range r.byIndex {
		c.byIndex[idx] = role
	}
	return c
}

func (r *Roles) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byIndex)
}

// IndexMap maps a token index in the new sequence to the index of the
// unchanged token in the old sequence.
type IndexMap map[int]int

// Reconcile aligns new with old using difflib's matching-block search
// (Ratcliff/Obershelp), which can miss some alignments a full LCS would
// find. Only tokens reported as equal are linked, so every new index
// appears at most once.
func Reconcile(old, new []token.Spanned) IndexMap {
	a := keys(old)
	b := keys(new)
	m := difflib.NewMatcherWithJunk(a, b, false, nil)

	out := make(IndexMap)
	for _, op := range m.GetOpCodes() {
		if op.Tag != 'e' {
			continue
		}
		for k := 0; k < op.I2-op.I1; k++ {
			out[op.J1+k] = op.I1 + k
		}
	}
	return out
}

func keys(tokens []token.Spanned) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		v := t.Value
		out[i] = v.Kind.String() + "\x00" + v.Prefix + "\x00" + v.Text
	}
	return out
}

// Context is the role information of the previous version, aligned with
// the current token list.
type Context struct {
	prev    []token.Spanned
	roles   *Roles
	mapping IndexMap
}

// New returns an empty context: no previous version, no hints.
func New() *Context {
	return &Context{roles: NewRoles(), mapping: IndexMap{}}
}

// Align computes the alignment of tokens against the previous version.
// Call it before parsing the current version.
func (c *Context) Align(tokens []token.Spanned) {
	if c == nil {
		return
	}
	c.mapping = Reconcile(c.prev, tokens)
}

// Advance makes tokens and the roles recorded while parsing them the
// previous version for the next edit.
func (c *Context) Advance(tokens []token.Spanned, roles *Roles) {
	if c == nil {
		return
	}
	c.prev = tokens
	if roles == nil {
		roles = NewRoles()
	}
	c.roles = roles
	c.mapping = IndexMap{}
}

// Previous returns the old index aligned with newIdx.
func (c *Context) Previous(newIdx int) (int, bool) {
	if c == nil {
		return 0, false
	}
	old, ok := c.mapping[newIdx]
	return old, ok
}

// Was reports whether the token at newIdx held role in the previous version.
func (c *Context) Was(newIdx int, role Role) bool {
	old, ok := c.Previous(newIdx)
	if !ok {
		return false
	}
	return c.roles.Has(old, role)
}

func (c *Context) WasSubject(newIdx int) bool   { return c.Was(newIdx, Subject) }
func (c *Context) WasPredicate(newIdx int) bool { return c.Was(newIdx, Predicate) }
func (c *Context) WasObject(newIdx int) bool    { return c.Was(newIdx, Object) }
