package lsp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/index"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/sparql"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// maxCompletions bounds one completion response.
const maxCompletions = 200

// Completion proposes keywords, prefixes, vocabulary terms and subjects of
// linked documents for the position, depending on what the grammar expects
// there.
//
// Keywords and prefixes need at least one typed character. At an empty
// subject position the named subjects of every linked document are
// offered, one item per label and defining document.
func (s *Service) Completion(ctx context.Context, uri string, pos span.Position) ([]CompletionItem, error) {
	return read(ctx, s, uri, func(v document.View) ([]CompletionItem, error) {
		c, ok := s.locate("completion", v.Doc, pos)
		if !ok {
			return nil, nil
		}
		word := wordBefore(v.Doc.Text, c.off)
		if t, ok := c.token(); ok && t.Value.Kind == token.String && v.Doc.Language() == lang.JSONLD {
			word = strings.TrimPrefix(v.Doc.Text[t.Span.Start:c.off], `"`)
		}
		replace, ok := v.Doc.Lines.Range(span.New(c.off-len(word), c.off))
		if !ok {
			return nil, nil
		}

		b := &completer{
			v:       v,
			doc:     v.Doc,
			slot:    v.Doc.Grammar.SlotAt(v.Doc.Tree, v.Doc.Tokens, v.Doc.Roles, c.off),
			word:    word,
			replace: replace,
			seen:    make(map[string]bool),
		}
		b.keywords()
		b.variables()
		b.prefixes()
		b.terms()
		b.subjects()

		items := b.items
		if len(items) > maxCompletions {
			items = items[:maxCompletions]
		}
		s.logger.Debugw("Completion",
			"slot", b.slot.String(),
			"word", word,
			"items", len(items),
		)
		return items, nil
	})
}

type completer struct {
	v       document.View
	doc     *document.Document
	slot    lang.Slot
	word    string
	replace span.Range
	seen    map[string]bool
	items   []CompletionItem
}

// add appends an item unless one with the same label and detail exists.
func (b *completer) add(item CompletionItem) {
	key := item.Label + "\x00" + item.Detail
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	item.Edit = TextEdit{Range: b.replace, NewText: item.Label}
	if item.SortText == "" {
		item.SortText = fmt.Sprintf("%d_%s", len(b.items), item.Label)
	}
	b.items = append(b.items, item)
}

func (b *completer) keywords() {
	if b.word == "" || strings.Contains(b.word, ":") {
		return
	}
	for _, kw := range b.doc.Grammar.Keywords() {
		if kw == "a" && b.slot != lang.SlotPredicate {
			continue
		}
		if hasPrefixFold(kw, b.word) && kw != b.word {
			b.add(CompletionItem{Label: kw, Kind: CompletionKeyword, SortText: "0_" + kw})
		}
	}
}

func (b *completer) variables() {
	q, ok := b.doc.Tree.(*sparql.Query)
	if !ok || (!strings.HasPrefix(b.word, "?") && !strings.HasPrefix(b.word, "$")) {
		return
	}
	typed := b.word[1:]
	var names []string
	seen := make(map[string]bool)
	for _, t := range b.doc.Tokens {
		if t.Value.Kind == token.Variable && !seen[t.Value.Text] && t.Value.Text != typed {
			seen[t.Value.Text] = true
			names = append(names, t.Value.Text)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		if hasPrefixFold(n, typed) {
			occurrences := len(sparql.Variables(q, n))
			b.add(CompletionItem{
				Label:  b.word[:1] + n,
				Kind:   CompletionVariable,
				Detail: fmt.Sprintf("%d occurrences", occurrences),
			})
		}
	}
}

// prefixes offers declared prefixes, then well-known ones with an edit that
// declares them.
func (b *completer) prefixes() {
	if b.word == "" || strings.Contains(b.word, ":") || b.doc.Language() == lang.JSONLD {
		return
	}
	if strings.HasPrefix(b.word, "@") || strings.HasPrefix(b.word, "?") {
		return
	}
	if b.slot == lang.SlotPrefixName || b.slot == lang.SlotKeyword {
		return
	}
	declared := b.doc.Prefixes()
	for _, p := range declared.All() {
		if hasPrefixFold(p.Name, b.word) {
			b.add(CompletionItem{Label: p.Name + ":", Kind: CompletionPrefix, Detail: p.Namespace, SortText: "1_" + p.Name})
		}
	}
	for _, p := range rdf.WellKnownPrefixes() {
		if _, ok := declared.Lookup(p.Name); ok || !hasPrefixFold(p.Name, b.word) {
			continue
		}
		b.add(CompletionItem{
			Label:           p.Name + ":",
			Kind:            CompletionPrefix,
			Detail:          p.Namespace,
			Documentation:   "adds " + strings.TrimSpace(declaration(b.doc, p.Name, p.Namespace)),
			SortText:        "2_" + p.Name,
			AdditionalEdits: []TextEdit{declare(b.doc, p.Name, p.Namespace)},
		})
	}
}

// declaration renders a prefix declaration in the document's syntax.
func declaration(d *document.Document, name, ns string) string {
	if isSPARQL(d) {
		return fmt.Sprintf("PREFIX %s: <%s>\n", name, ns)
	}
	return fmt.Sprintf("@prefix %s: <%s> .\n", name, ns)
}

// declare inserts a prefix declaration after the last existing one, or at
// the top of the document.
func declare(d *document.Document, name, ns string) TextEdit {
	at := 0
	for _, p := range d.Prefixes().All() {
		if p.Span.End > at {
			at = p.Span.End
		}
	}
	text := declaration(d, name, ns)
	if at > 0 {
		// after the declaration's line
		if nl := strings.IndexByte(d.Text[at:], '\n'); nl >= 0 {
			at += nl + 1
		} else {
			at = len(d.Text)
			text = "\n" + strings.TrimSuffix(text, "\n")
		}
	}
	r, _ := d.Lines.Range(span.At(at))
	return TextEdit{Range: r, NewText: text}
}

// kindsFor maps the slot to the catalog kinds worth offering there.
func kindsFor(slot lang.Slot) []index.Kind {
	switch slot {
	case lang.SlotPredicate:
		return []index.Kind{index.Property}
	case lang.SlotClass:
		return []index.Kind{index.Class}
	case lang.SlotSubject, lang.SlotObject:
		return []index.Kind{index.Class, index.Property}
	}
	return nil
}

// terms offers classes and properties of the namespace the typed prefix
// names, or of every declared namespace when nothing is typed.
func (b *completer) terms() {
	kinds := kindsFor(b.slot)
	if len(kinds) == 0 {
		return
	}
	declared := b.doc.Prefixes()

	type target struct {
		prefix, ns, local string
		declare           bool
	}
	var targets []target
	if i := strings.IndexByte(b.word, ':'); i >= 0 {
		prefix, local := b.word[:i], b.word[i+1:]
		if p, ok := declared.Lookup(prefix); ok {
			targets = append(targets, target{prefix: prefix, ns: p.Namespace, local: local})
		} else if ns, ok := rdf.WellKnown[prefix]; ok && b.doc.Language() != lang.JSONLD {
			targets = append(targets, target{prefix: prefix, ns: ns, local: local, declare: true})
		}
	} else if b.word == "" && b.slot != lang.SlotSubject {
		for _, p := range declared.All() {
			targets = append(targets, target{prefix: p.Name, ns: p.Namespace})
		}
	}

	for _, tg := range targets {
		if tg.ns == "" {
			continue
		}
		for _, kind := range kinds {
			for _, e := range b.v.Index.InNamespace(tg.ns, kind) {
				local := strings.TrimPrefix(e.IRI, tg.ns)
				if !rdf.ValidLocal(local) || (tg.local != "" && !fuzzy.MatchNormalizedFold(tg.local, local)) {
					continue
				}
				item := CompletionItem{
					Label:         tg.prefix + ":" + local,
					Kind:          completionKind(kind),
					Detail:        e.Label,
					Documentation: e.Comment,
					SortText:      "3_" + local,
				}
				if item.Detail == "" {
					item.Detail = "<" + e.IRI + ">"
				}
				if tg.declare {
					item.AdditionalEdits = []TextEdit{declare(b.doc, tg.prefix, tg.ns)}
				}
				b.add(item)
			}
		}
	}
}

func completionKind(k index.Kind) CompletionKind {
	switch k {
	case index.Class:
		return CompletionClass
	case index.Property:
		return CompletionProperty
	}
	return CompletionReference
}

// subjects offers the named subjects of every linked document.
func (b *completer) subjects() {
	if b.slot != lang.SlotSubject && b.slot != lang.SlotObject {
		return
	}
	if strings.HasPrefix(b.word, "?") || strings.HasPrefix(b.word, "@") {
		return
	}
	for _, uri := range b.v.Index.Linked(b.doc.URI) {
		for _, e := range b.v.Index.Subjects(uri) {
			label := display(b.doc, rdf.NewIRI(e.IRI, e.Span))
			if b.word != "" && !fuzzy.MatchNormalizedFold(b.word, label) {
				continue
			}
			if b.doc.Language() == lang.JSONLD && strings.HasPrefix(label, "<") {
				label = e.IRI
			}
			detail := e.Source
			if e.Label != "" {
				detail = e.Label + " (" + e.Source + ")"
			}
			b.add(CompletionItem{
				Label:    label,
				Kind:     CompletionReference,
				Detail:   detail,
				SortText: "4_" + label,
			})
		}
	}
}
