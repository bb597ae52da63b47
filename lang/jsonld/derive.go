package jsonld

import (
	"fmt"
	"strings"

	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
)

// termDef is one entry of an active context.
type termDef struct {
	id        string
	typ       string // @id, @vocab or a datatype IRI
	language  string
	container string
}

// activeContext is the subset of the JSON-LD context model used for
// derivation: term definitions, @base, @vocab and @language.
type activeContext struct {
	base     string
	vocab    string
	language string
	terms    map[string]termDef
}

func (c *activeContext) clone() *activeContext {
	out := *c
	out.terms = make(map[string]termDef, len(c.terms))
	for k, v := range c.terms {
		out.terms[k] = v
	}
	return &out
}

type deriver struct {
	tree     *Tree
	triples  []rdf.Triple
	prefixes *rdf.Prefixes
	imports  []string
	diags    []lang.Diagnostic
	blanks   int
	base     string
}

// Derive emits triples for the JSON-LD subset: @context term definitions,
// @base, @vocab, @language, @id, @type, @value, @language, @graph, @list
// and nested node objects. Remote contexts are not fetched; their URLs are
// returned as imports.
func Derive(tree *Tree, base string) lang.Derivation {
	d := &deriver{tree: tree, prefixes: &rdf.Prefixes{}, base: base}
	if root := tree.Root(); root >= 0 {
		ctx := &activeContext{base: base, terms: map[string]termDef{}}
		d.top(root, ctx)
	}
	return lang.Derivation{
		Triples:     d.triples,
		Prefixes:    d.prefixes,
		Base:        d.base,
		Imports:     d.imports,
		Diagnostics: d.diags,
	}
}

func (d *deriver) report(diag *lang.Diagnostic) {
	d.diags = append(d.diags, *diag)
}

func (d *deriver) node(i int) *Node { return &d.tree.Nodes[i] }

func (d *deriver) top(idx int, ctx *activeContext) {
	switch d.node(idx).Kind {
	case Object:
		d.nodeObject(idx, ctx)
	case Array:
		for _, c := range d.node(idx).Children {
			if d.node(c).Kind == Object {
				d.nodeObject(c, ctx)
			}
		}
	}
}

func (d *deriver) fresh(sp span.Span) rdf.Term {
	t := rdf.NewBlank(fmt.Sprintf(".%d", d.blanks), sp)
	d.blanks++
	return t
}

// nodeObject derives the members of a node object and returns its subject.
func (d *deriver) nodeObject(obj int, ctx *activeContext) rdf.Term {
	if v, ok := d.tree.Lookup(obj, "@context"); ok {
		ctx = d.context(v, ctx)
	}

	var subject rdf.Term
	if v, ok := d.tree.Lookup(obj, "@id"); ok && d.node(v).Kind == String {
		subject = d.expandID(d.node(v).Value, d.node(v).Span, ctx)
	} else {
		subject = d.fresh(d.node(obj).Span)
	}

	for _, m := range d.node(obj).Children {
		member := d.node(m)
		if member.Kind != Member {
			continue
		}
		v := d.tree.MemberValue(m)
		if v < 0 {
			continue
		}
		switch member.Value {
		case "@context", "@id":
		case "@type":
			for _, t := range d.strings(v) {
				typ, ok := d.expandVocab(d.node(t).Value, d.node(t).Span, ctx)
				if ok {
					d.emit(subject, rdf.NewIRI(rdf.RDFType, member.Key), typ, member.Span)
				}
			}
		case "@graph":
			d.top(v, ctx)
		default:
			if strings.HasPrefix(member.Value, "@") {
				continue
			}
			pred, ok := d.expandVocab(member.Value, member.Key, ctx)
			if !ok {
				d.report(lang.Errorf(lang.KindSemantic, member.Key, "term %q is not defined in the context, the property is dropped", member.Value).
					WithSeverity(lang.SeverityWarning).
					WithCode(lang.CodeUnknownTerm).
					WithSuggestion(`add "@vocab" or a term definition to "@context"`))
				continue
			}
			def := ctx.terms[member.Value]
			for _, o := range d.values(v, def, ctx) {
				d.emit(subject, pred, o, member.Span)
			}
		}
	}
	return subject
}

func (d *deriver) emit(s, p, o rdf.Term, sp span.Span) {
	d.triples = append(d.triples, rdf.Triple{Subject: s, Predicate: p, Object: o, Span: sp})
}

// strings returns the string nodes of a string or array-of-strings value.
func (d *deriver) strings(v int) []int {
	switch d.node(v).Kind {
	case String:
		return []int{v}
	case Array:
		var out []int
		for _, c := range d.node(v).Children {
			if d.node(c).Kind == String {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// values converts a member value into object terms.
func (d *deriver) values(v int, def termDef, ctx *activeContext) []rdf.Term {
	n := d.node(v)
	switch n.Kind {
	case Array:
		if def.container == "@list" {
			return []rdf.Term{d.list(n.Children, n.Span, def, ctx)}
		}
		var out []rdf.Term
		for _, c := range n.Children {
			out = append(out, d.values(c, def, ctx)...)
		}
		return out
	case Object:
		if _, ok := d.tree.Lookup(v, "@value"); ok {
			if t, ok := d.valueObject(v, ctx); ok {
				return []rdf.Term{t}
			}
			return nil
		}
		if l, ok := d.tree.Lookup(v, "@list"); ok {
			items := []int{l}
			if d.node(l).Kind == Array {
				items = d.node(l).Children
			}
			return []rdf.Term{d.list(items, n.Span, def, ctx)}
		}
		return []rdf.Term{d.nodeObject(v, ctx)}
	case String:
		switch def.typ {
		case "@id":
			return []rdf.Term{d.expandID(n.Value, n.Span, ctx)}
		case "@vocab":
			if t, ok := d.expandVocab(n.Value, n.Span, ctx); ok {
				return []rdf.Term{t}
			}
			return []rdf.Term{d.expandID(n.Value, n.Span, ctx)}
		case "":
			language := def.language
			if language == "" {
				language = ctx.language
			}
			return []rdf.Term{rdf.NewLiteral(n.Value, rdf.XSDString, language, n.Span)}
		}
		return []rdf.Term{rdf.NewLiteral(n.Value, def.typ, "", n.Span)}
	case Number:
		dt := rdf.XSDDouble
		if !strings.ContainsAny(n.Value, ".eE") {
			dt = rdf.XSDInteger
		}
		if def.typ != "" && def.typ != "@id" && def.typ != "@vocab" {
			dt = def.typ
		}
		return []rdf.Term{rdf.NewLiteral(n.Value, dt, "", n.Span)}
	case True, False:
		return []rdf.Term{rdf.NewLiteral(n.Kind.String(), rdf.XSDBoolean, "", n.Span)}
	}
	return nil
}

func (d *deriver) valueObject(obj int, ctx *activeContext) (rdf.Term, bool) {
	v, _ := d.tree.Lookup(obj, "@value")
	n := d.node(v)
	sp := d.node(obj).Span

	var language, dt string
	if l, ok := d.tree.Lookup(obj, "@language"); ok && d.node(l).Kind == String {
		language = d.node(l).Value
	}
	if t, ok := d.tree.Lookup(obj, "@type"); ok && d.node(t).Kind == String {
		if iri, ok := d.expandVocab(d.node(t).Value, d.node(t).Span, ctx); ok && iri.Kind == rdf.IRI {
			dt = iri.Value
		}
	}
	switch n.Kind {
	case String:
		if dt == "" {
			dt = rdf.XSDString
		}
		return rdf.NewLiteral(n.Value, dt, language, sp), true
	case Number, True, False:
		terms := d.values(v, termDef{typ: dt}, ctx)
		if len(terms) == 1 {
			terms[0].Span = sp
			return terms[0], true
		}
	}
	return rdf.Term{}, false
}

func (d *deriver) list(items []int, sp span.Span, def termDef, ctx *activeContext) rdf.Term {
	def.container = ""
	var values []rdf.Term
	for _, it := range items {
		values = append(values, d.values(it, def, ctx)...)
	}
	if len(values) == 0 {
		return rdf.NewIRI(rdf.RDFNil, sp)
	}
	first := rdf.NewIRI(rdf.RDFFirst, sp)
	rest := rdf.NewIRI(rdf.RDFRest, sp)
	head := d.fresh(sp)
	cell := head
	for i, v := range values {
		d.emit(cell, first, v, sp)
		next := rdf.NewIRI(rdf.RDFNil, sp)
		if i < len(values)-1 {
			next = d.fresh(sp)
		}
		d.emit(cell, rest, next, sp)
		cell = next
	}
	return head
}

// context processes a local context. Remote contexts are recorded as
// imports.
func (d *deriver) context(v int, ctx *activeContext) *activeContext {
	n := d.node(v)
	switch n.Kind {
	case String:
		d.imports = append(d.imports, n.Value)
		return ctx
	case Array:
		for _, c := range n.Children {
			ctx = d.context(c, ctx)
		}
		return ctx
	case Null:
		return &activeContext{base: d.base, terms: map[string]termDef{}}
	case Object:
	default:
		return ctx
	}

	ctx = ctx.clone()
	for _, m := range n.Children {
		member := d.node(m)
		val := d.tree.MemberValue(m)
		if member.Kind != Member || val < 0 {
			continue
		}
		vn := d.node(val)
		switch member.Value {
		case "@base":
			if vn.Kind == String {
				if iri, ok := d.resolve(vn.Value, vn.Span, ctx); ok {
					ctx.base = iri
					d.base = iri
				}
			}
		case "@vocab":
			if vn.Kind == String {
				if iri, ok := d.expandPrefix(vn.Value, ctx); ok {
					ctx.vocab = iri
				} else if iri, ok := d.resolve(vn.Value, vn.Span, ctx); ok {
					ctx.vocab = iri
				}
			}
		case "@language":
			if vn.Kind == String {
				ctx.language = vn.Value
			}
		default:
			if strings.HasPrefix(member.Value, "@") {
				continue
			}
			d.define(member, vn, val, ctx)
		}
	}
	return ctx
}

func (d *deriver) define(member *Node, vn *Node, val int, ctx *activeContext) {
	var def termDef
	switch vn.Kind {
	case Null:
		delete(ctx.terms, member.Value)
		return
	case String:
		def.id = vn.Value
	case Object:
		if id, ok := d.tree.Lookup(val, "@id"); ok && d.node(id).Kind == String {
			def.id = d.node(id).Value
		}
		if t, ok := d.tree.Lookup(val, "@type"); ok && d.node(t).Kind == String {
			def.typ = d.node(t).Value
		}
		if l, ok := d.tree.Lookup(val, "@language"); ok && d.node(l).Kind == String {
			def.language = d.node(l).Value
		}
		if c, ok := d.tree.Lookup(val, "@container"); ok && d.node(c).Kind == String {
			def.container = d.node(c).Value
		}
	default:
		return
	}

	if def.id == "" {
		if iri, ok := d.expandPrefix(member.Value, ctx); ok {
			def.id = iri
		} else if ctx.vocab != "" {
			def.id = ctx.vocab + member.Value
		}
	} else if iri, ok := d.expandPrefix(def.id, ctx); ok {
		def.id = iri
	}
	if def.typ != "" && def.typ != "@id" && def.typ != "@vocab" {
		if iri, ok := d.expandPrefix(def.typ, ctx); ok {
			def.typ = iri
		}
	}
	ctx.terms[member.Value] = def

	if strings.HasSuffix(def.id, "/") || strings.HasSuffix(def.id, "#") {
		d.prefixes.Add(member.Value, def.id, member.Span)
	}
}

// expandPrefix expands a compact IRI through a term used as prefix, or
// accepts an absolute IRI.
func (d *deriver) expandPrefix(s string, ctx *activeContext) (string, bool) {
	if i := strings.IndexByte(s, ':'); i > 0 {
		prefix, local := s[:i], s[i+1:]
		if !strings.HasPrefix(local, "//") {
			if def, ok := ctx.terms[prefix]; ok && def.id != "" {
				return def.id + local, true
			}
		}
	}
	if rdf.IsAbsolute(s) {
		return s, true
	}
	return "", false
}

// expandVocab expands a property name or type: terms, compact IRIs,
// absolute IRIs, then @vocab.
func (d *deriver) expandVocab(s string, sp span.Span, ctx *activeContext) (rdf.Term, bool) {
	if def, ok := ctx.terms[s]; ok && def.id != "" {
		return rdf.NewIRI(def.id, sp), true
	}
	if strings.HasPrefix(s, "_:") {
		return rdf.NewBlank(s[2:], sp), true
	}
	if iri, ok := d.expandPrefix(s, ctx); ok {
		return rdf.NewIRI(iri, sp), true
	}
	if ctx.vocab != "" {
		return rdf.NewIRI(ctx.vocab+s, sp), true
	}
	return rdf.Term{}, false
}

// expandID expands a node reference: blank node labels, compact and
// absolute IRIs, then IRIs relative to the base.
func (d *deriver) expandID(s string, sp span.Span, ctx *activeContext) rdf.Term {
	if strings.HasPrefix(s, "_:") {
		return rdf.NewBlank(s[2:], sp)
	}
	if iri, ok := d.expandPrefix(s, ctx); ok {
		return rdf.NewIRI(iri, sp)
	}
	if iri, ok := d.resolve(s, sp, ctx); ok {
		return rdf.NewIRI(iri, sp)
	}
	return rdf.NewInvalid(s, sp)
}

func (d *deriver) resolve(s string, sp span.Span, ctx *activeContext) (string, bool) {
	if iri, ok := rdf.Resolve(ctx.base, s); ok {
		return iri, true
	}
	d.report(lang.Errorf(lang.KindSemantic, sp, "relative IRI %q cannot be resolved without a base", s).
		WithCode(lang.CodeRelativeIRI))
	return "", false
}
