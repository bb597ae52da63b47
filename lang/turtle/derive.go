package turtle

import (
	"fmt"
	"regexp"

	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
)

// Deriver turns statements into triples. Names are resolved against the
// prefixes and base declared so far, so statements must be fed in document
// order. SPARQL feeds it triple patterns the same way.
type Deriver struct {
	base     string
	prefixes *rdf.Prefixes
	triples  []rdf.Triple
	imports  []string
	diags    []lang.Diagnostic
	blanks   int
	sparql   bool
}

// NewDeriver starts a derivation. base is usually the document URI.
func NewDeriver(base string) *Deriver {
	return &Deriver{base: base, prefixes: &rdf.Prefixes{}}
}

// Derive resolves every statement of doc.
func Derive(doc *Document, base string) lang.Derivation {
	d := NewDeriver(base)
	for _, st := range doc.Statements {
		d.Statement(st)
	}
	return d.Result()
}

func (d *Deriver) Result() lang.Derivation {
	return lang.Derivation{
		Triples:     d.triples,
		Prefixes:    d.prefixes,
		Base:        d.base,
		Imports:     d.imports,
		Diagnostics: d.diags,
	}
}

func (d *Deriver) Prefixes() *rdf.Prefixes { return d.prefixes }

// SparqlDirectives makes suggested prefix declarations use PREFIX syntax.
func (d *Deriver) SparqlDirectives() *Deriver {
	d.sparql = true
	return d
}

func (d *Deriver) report(diag *lang.Diagnostic) {
	d.diags = append(d.diags, *diag)
}

func (d *Deriver) Statement(st Statement) {
	switch s := st.(type) {
	case *PrefixDecl:
		d.Prefix(s)
	case *BaseDecl:
		d.Base(s)
	case *VersionDecl:
	case *TripleStmt:
		d.Triples(s, s.Sp)
	}
}

func (d *Deriver) Prefix(decl *PrefixDecl) {
	if !decl.HasName || !decl.HasIRI {
		return
	}
	ns, ok := d.resolve(decl.IRI.Value, decl.IRI.Span)
	if !ok {
		return
	}
	if prev, ok := d.prefixes.Lookup(decl.Name.Value); ok && prev.Namespace != ns {
		d.report(lang.Errorf(lang.KindSemantic, decl.Name.Span, "prefix '%s:' redeclared, was <%s>", decl.Name.Value, prev.Namespace).
			WithSeverity(lang.SeverityWarning).
			WithCode(lang.CodeDuplicatePrefix))
	}
	d.prefixes.Add(decl.Name.Value, ns, decl.Sp)
}

func (d *Deriver) Base(decl *BaseDecl) {
	if !decl.HasIRI {
		return
	}
	if iri, ok := d.resolve(decl.IRI.Value, decl.IRI.Span); ok {
		d.base = iri
	}
}

// resolve makes iri absolute against the current base.
func (d *Deriver) resolve(iri string, sp span.Span) (string, bool) {
	if rdf.IsAbsolute(iri) {
		return iri, true
	}
	if out, ok := rdf.Resolve(d.base, iri); ok {
		return out, true
	}
	d.report(lang.Errorf(lang.KindSemantic, sp, "relative IRI <%s> cannot be resolved without a base", iri).
		WithCode(lang.CodeRelativeIRI).
		WithSuggestion("declare @base <http://example.org/> before using relative IRIs"))
	return "", false
}

// Triples emits the triples of st. sp is the span given to the outermost
// triples; triples nested in [ ] or ( ) take the span of their brackets.
func (d *Deriver) Triples(st *TripleStmt, sp span.Span) {
	if st.Subject == nil {
		return
	}
	if _, missing := st.Subject.(*Invalid); missing {
		// still resolve names so unknown prefixes are reported
		scratch := *d
		scratch.triples = nil
		subj := rdf.NewInvalid("", st.Subject.Span())
		scratch.predicates(subj, st.Predicates, sp)
		d.diags, d.blanks, d.imports = scratch.diags, scratch.blanks, scratch.imports
		return
	}
	subj, ok := d.Node(st.Subject)
	if !ok {
		return
	}
	d.predicates(subj, st.Predicates, sp)
}

func (d *Deriver) predicates(subj rdf.Term, pos []*PredicateObjects, sp span.Span) {
	for _, po := range pos {
		pred, ok := d.Node(po.Verb)
		if !ok {
			continue
		}
		for _, o := range po.Objects {
			obj, ok := d.Node(o)
			if !ok {
				continue
			}
			d.emit(subj, pred, obj, sp)
		}
	}
}

func (d *Deriver) emit(s, p, o rdf.Term, sp span.Span) {
	d.triples = append(d.triples, rdf.Triple{Subject: s, Predicate: p, Object: o, Span: sp})
	if p.Kind == rdf.IRI && p.Value == rdf.OWLImports && o.Kind == rdf.IRI {
		d.imports = append(d.imports, o.Value)
	}
}

// fresh allocates a blank node label that cannot clash with a written one.
func (d *Deriver) fresh(sp span.Span) rdf.Term {
	t := rdf.NewBlank(fmt.Sprintf(".%d", d.blanks), sp)
	d.blanks++
	return t
}

// Node resolves a term. Nested blank node lists and collections emit their
// own triples. ok is false for terms that produce no RDF term, such as
// property paths.
func (d *Deriver) Node(t Term) (rdf.Term, bool) {
	switch n := t.(type) {
	case *NamedNode:
		return d.named(n), true
	case *BlankNode:
		if n.Label == "" {
			return d.fresh(n.Sp), true
		}
		return rdf.NewBlank(n.Label, n.Sp), true
	case *BlankNodeList:
		b := d.fresh(n.Sp)
		d.predicates(b, n.Predicates, n.Sp)
		return b, true
	case *Collection:
		return d.collection(n), true
	case *Literal:
		return d.literal(n), true
	case *Variable:
		return rdf.NewVariable(n.Name, n.Sp), true
	case *Invalid:
		return rdf.NewInvalid("", n.Sp), true
	case *Path:
		for _, step := range n.Steps {
			d.Node(step)
		}
	}
	return rdf.Term{}, false
}

func (d *Deriver) named(n *NamedNode) rdf.Term {
	switch n.Kind {
	case TypeKeyword:
		return rdf.NewIRI(rdf.RDFType, n.Sp)
	case PrefixedName:
		if iri, ok := d.prefixes.Expand(n.Prefix, n.Value); ok {
			return rdf.NewIRI(iri, n.Sp)
		}
		raw := n.Prefix + ":" + n.Value
		diag := lang.Errorf(lang.KindSemantic, n.PrefixSpan(), "unknown prefix '%s:'", n.Prefix).
			WithCode(lang.CodeUnknownPrefix)
		if ns, ok := rdf.WellKnown[n.Prefix]; ok {
			if d.sparql {
				diag.WithSuggestion(fmt.Sprintf("PREFIX %s: <%s>", n.Prefix, ns))
			} else {
				diag.WithSuggestion(fmt.Sprintf("@prefix %s: <%s> .", n.Prefix, ns))
			}
		}
		d.report(diag)
		return rdf.NewInvalid(raw, n.Sp)
	}
	iri, ok := d.resolve(n.Value, n.Sp)
	if !ok {
		return rdf.NewInvalid("<"+n.Value+">", n.Sp)
	}
	return rdf.NewIRI(iri, n.Sp)
}

func (d *Deriver) collection(c *Collection) rdf.Term {
	if len(c.Items) == 0 {
		return rdf.NewIRI(rdf.RDFNil, c.Sp)
	}
	first := rdf.NewIRI(rdf.RDFFirst, c.Sp)
	rest := rdf.NewIRI(rdf.RDFRest, c.Sp)

	head := d.fresh(c.Sp)
	cell := head
	for i, item := range c.Items {
		v, ok := d.Node(item)
		if !ok {
			v = rdf.NewInvalid("", item.Span())
		}
		d.emit(cell, first, v, c.Sp)
		next := rdf.NewIRI(rdf.RDFNil, c.Sp)
		if i < len(c.Items)-1 {
			next = d.fresh(c.Sp)
		}
		d.emit(cell, rest, next, c.Sp)
		cell = next
	}
	return head
}

var lexicalForms = map[string]*regexp.Regexp{
	rdf.XSDInteger: regexp.MustCompile(`^[+-]?[0-9]+$`),
	rdf.XSDDecimal: regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`),
	rdf.XSDDouble:  regexp.MustCompile(`^([+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?|[+-]?INF|NaN)$`),
	rdf.XSDBoolean: regexp.MustCompile(`^(true|false|1|0)$`),
}

var literalDatatypes = map[LiteralKind]string{
	IntegerLiteral: rdf.XSDInteger,
	DecimalLiteral: rdf.XSDDecimal,
	DoubleLiteral:  rdf.XSDDouble,
	BooleanLiteral: rdf.XSDBoolean,
}

func (d *Deriver) literal(l *Literal) rdf.Term {
	if l.Kind != StringLiteral {
		return rdf.NewLiteral(l.Value, literalDatatypes[l.Kind], "", l.Sp)
	}
	if l.Lang != "" {
		return rdf.NewLiteral(l.Value, "", l.Lang, l.Sp)
	}
	if l.Datatype == nil {
		return rdf.NewLiteral(l.Value, rdf.XSDString, "", l.Sp)
	}
	dt := d.named(l.Datatype)
	if dt.Kind != rdf.IRI {
		return rdf.NewLiteral(l.Value, "", "", l.Sp)
	}
	if re, ok := lexicalForms[dt.Value]; ok && !re.MatchString(l.Value) {
		short, ok := d.prefixes.Shorten(dt.Value)
		if !ok {
			short = "<" + dt.Value + ">"
		}
		d.report(lang.Errorf(lang.KindSemantic, l.Sp, "%q is not a valid %s", l.Value, short).
			WithSeverity(lang.SeverityWarning).
			WithCode(lang.CodeMalformed))
	}
	return rdf.NewLiteral(l.Value, dt.Value, "", l.Sp)
}
