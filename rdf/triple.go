package rdf

import "github.com/teranos/semls/span"

// Triple is one subject-predicate-object statement. Span is the syntax it
// was derived from.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
	Span      span.Span
}

// TripleKey is a Triple without spans.
type TripleKey struct {
	Subject   TermKey
	Predicate TermKey
	Object    TermKey
}

func (t Triple) Key() TripleKey {
	return TripleKey{Subject: t.Subject.Key(), Predicate: t.Predicate.Key(), Object: t.Object.Key()}
}

// Equal compares triples ignoring spans.
func (t Triple) Equal(o Triple) bool {
	return t.Key() == o.Key()
}

func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// Terms returns subject, predicate and object.
func (t Triple) Terms() [3]Term {
	return [3]Term{t.Subject, t.Predicate, t.Object}
}

// Graph is an ordered list of triples with lookup helpers.
type Graph []Triple

// Set returns the distinct triple keys of g.
func (g Graph) Set() map[TripleKey]struct{} {
	out := make(map[TripleKey]struct{}, len(g))
	for _, t := range g {
		out[t.Key()] = struct{}{}
	}
	return out
}

// Objects returns the objects of every triple with the given subject and
// predicate IRI, in document order.
func (g Graph) Objects(subject TermKey, predicate string) []Term {
	var out []Term
	for _, t := range g {
		if t.Subject.Key() == subject && t.Predicate.Kind == IRI && t.Predicate.Value == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// Subjects returns the subjects of every triple with the given predicate
// IRI and object, in document order.
func (g Graph) Subjects(predicate string, object TermKey) []Term {
	var out []Term
	for _, t := range g {
		if t.Object.Key() == object && t.Predicate.Kind == IRI && t.Predicate.Value == predicate {
			out = append(out, t.Subject)
		}
	}
	return out
}

// Covering returns every triple whose span contains off.
func (g Graph) Covering(off int) []Triple {
	var out []Triple
	for _, t := range g {
		if t.Span.Contains(off) {
			out = append(out, t)
		}
	}
	return out
}

// Literal returns the first literal object for subject and predicate.
func (g Graph) Literal(subject TermKey, predicate string) (string, bool) {
	for _, o := range g.Objects(subject, predicate) {
		if o.Kind == Literal {
			return o.Value, true
		}
	}
	return "", false
}
