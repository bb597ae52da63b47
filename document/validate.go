package document

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/teranos/semls/index"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/rdf"
)

// maxSuggestions bounds the "did you mean" list of an unknown term.
const maxSuggestions = 3

// Validate checks predicates and rdf:type objects against the loaded
// vocabularies of their namespaces. Terms in a namespace without a loaded
// vocabulary are not checked.
func Validate(d *Document, snap *index.Snapshot) []lang.Diagnostic {
	namespaces := snap.Vocabularies()
	if len(namespaces) == 0 {
		return nil
	}
	prefixes := d.Prefixes()

	var out []lang.Diagnostic
	check := func(t rdf.Term) {
		if t.Kind != rdf.IRI {
			return
		}
		ns := longestNamespace(namespaces, t.Value)
		if ns == "" {
			return
		}
		v, _ := snap.Vocabulary(ns)
		if snap.Defines(v.URI, t.Value) {
			return
		}
		name, ok := prefixes.Shorten(t.Value)
		if !ok {
			name = "<" + t.Value + ">"
		}
		diag := lang.Errorf(lang.KindVocabulary, t.Span, "%s is not defined by the vocabulary <%s>", name, ns).
			WithSeverity(lang.SeverityWarning).
			WithCode(lang.CodeUnknownTerm)
		for _, s := range suggest(snap, v.URI, ns, t.Value) {
			if short, ok := prefixes.Shorten(s); ok {
				s = short
			}
			diag.WithSuggestion(s)
		}
		out = append(out, *diag)
	}

	for _, t := range d.Graph() {
		check(t.Predicate)
		if t.Predicate.Kind == rdf.IRI && t.Predicate.Value == rdf.RDFType {
			check(t.Object)
		}
	}
	return out
}

func longestNamespace(namespaces []string, iri string) string {
	best := ""
	for _, ns := range namespaces {
		if strings.HasPrefix(iri, ns) && len(iri) > len(ns) && len(ns) > len(best) {
			best = ns
		}
	}
	return best
}

// suggest ranks the vocabulary's local names by fuzzy closeness to iri's.
func suggest(snap *index.Snapshot, vocabURI, ns, iri string) []string {
	local := strings.TrimPrefix(iri, ns)
	var names []string
	for _, e := range snap.Subjects(vocabURI) {
		if strings.HasPrefix(e.IRI, ns) {
			names = append(names, strings.TrimPrefix(e.IRI, ns))
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(local, names)
	if len(ranks) == 0 {
		// a transposition breaks subsequence matching, retry on the first letters
		ranks = fuzzy.RankFindNormalizedFold(local[:min(len(local), 2)], names)
	}
	sort.Sort(ranks)
	out := make([]string, 0, maxSuggestions)
	for _, r := range ranks {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, ns+r.Target)
	}
	return out
}
