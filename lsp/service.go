// Package lsp answers editor queries over the open documents: hover,
// completion, navigation, rename, symbols, semantic tokens and formatting.
// Every query runs on the workspace loop through document.Query, so it
// sees a consistent set of documents and never races with edits.
//
// Queries never fail on user input. A position outside the document, an
// unknown prefix or a cursor on whitespace yields "no result" and a debug
// log line.
package lsp

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Service provides language intelligence for the documents of a workspace.
type Service struct {
	ws     *document.Workspace
	logger *zap.SugaredLogger
}

// NewService creates a language service over ws.
func NewService(ws *document.Workspace, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{ws: ws, logger: log}
}

// Workspace returns the workspace the service reads.
func (s *Service) Workspace() *document.Workspace {
	return s.ws
}

// cursor is a resolved position in a document.
type cursor struct {
	doc *document.Document
	off int
	tok int // narrowest token containing off, -1 when none
}

func (c cursor) token() (token.Spanned, bool) {
	if c.tok < 0 {
		return token.Spanned{}, false
	}
	return c.doc.Tokens[c.tok], true
}

// locate converts pos. ok is false when pos is outside the document.
func (s *Service) locate(method string, d *document.Document, pos span.Position) (cursor, bool) {
	off, ok := d.Lines.Offset(pos)
	if !ok {
		s.logger.Debugw("Missing rope position",
			logger.FieldMethod, method,
			logger.FieldURI, d.URI,
			"line", pos.Line,
			"character", pos.Character,
		)
		return cursor{}, false
	}
	c := cursor{doc: d, off: off, tok: tokenAt(d.Tokens, off)}
	if c.tok < 0 {
		if near := nearestToken(d.Tokens, off); near >= 0 {
			s.logger.Debugw("No token at cursor",
				logger.FieldMethod, method,
				logger.FieldURI, d.URI,
				logger.FieldOffset, off,
				"nearest", d.Tokens[near].Value.String(),
			)
		}
	}
	return c, true
}

// tokenAt returns the narrowest token whose span contains off.
func tokenAt(tokens []token.Spanned, off int) int {
	best := -1
	for i, t := range tokens {
		if t.Value.Kind == token.Comment || !t.Span.Contains(off) {
			continue
		}
		if best < 0 || t.Span.Len() < tokens[best].Span.Len() {
			best = i
		}
	}
	return best
}

// nearestToken returns the token closest to off.
func nearestToken(tokens []token.Spanned, off int) int {
	best, dist := -1, 0
	for i, t := range tokens {
		if d := t.Span.Distance(off); best < 0 || d < dist {
			best, dist = i, d
		}
	}
	return best
}

// termAt returns the narrowest derived term whose span contains off. When
// no triple covers the cursor, the token under it is resolved on its own.
func termAt(c cursor) (rdf.Term, bool) {
	var best rdf.Term
	found := false
	for _, t := range c.doc.Derived.Triples {
		if !t.Span.Contains(c.off) {
			continue
		}
		for _, term := range t.Terms() {
			if !term.Span.Contains(c.off) || term.Kind == rdf.Invalid {
				continue
			}
			if !found || term.Span.Len() < best.Span.Len() {
				best, found = term, true
			}
		}
	}
	if found {
		return best, true
	}
	tok, ok := c.token()
	if !ok {
		return rdf.Term{}, false
	}
	return resolveToken(c.doc, tok)
}

// resolveToken turns a single name token into a term using the document's
// prefixes and base.
func resolveToken(d *document.Document, t token.Spanned) (rdf.Term, bool) {
	switch t.Value.Kind {
	case token.PNameLN, token.PNameNS:
		if iri, ok := d.Prefixes().Expand(t.Value.Prefix, t.Value.Text); ok {
			return rdf.NewIRI(iri, t.Span), true
		}
	case token.IRIRef:
		if rdf.IsAbsolute(t.Value.Text) {
			return rdf.NewIRI(t.Value.Text, t.Span), true
		}
		if iri, ok := rdf.Resolve(d.Derived.Base, t.Value.Text); ok {
			return rdf.NewIRI(iri, t.Span), true
		}
	case token.PredType:
		return rdf.NewIRI(rdf.RDFType, t.Span), true
	case token.BlankNodeLabel:
		return rdf.NewBlank(t.Value.Text, t.Span), true
	case token.Variable:
		return rdf.NewVariable(t.Value.Text, t.Span), true
	}
	return rdf.Term{}, false
}

// onPrefixLabel reports whether off lies on the prefix label of a prefixed
// name token, including the colon.
func onPrefixLabel(t token.Spanned, off int) bool {
	if t.Value.Kind != token.PNameLN && t.Value.Kind != token.PNameNS {
		return false
	}
	return off >= t.Span.Start && off <= t.Span.Start+len(t.Value.Prefix)
}

// display writes iri the way the document would: prefixed when a declared
// prefix covers it, bracketed otherwise.
func display(d *document.Document, t rdf.Term) string {
	if t.Kind == rdf.IRI {
		if short, ok := d.Prefixes().Shorten(t.Value); ok {
			return short
		}
		if t.Value == rdf.RDFType {
			return "a"
		}
	}
	return t.String()
}

// location converts a span in d. ok is false for spans outside the text.
func location(d *document.Document, sp span.Span) (Location, bool) {
	r, ok := d.Lines.Range(sp)
	if !ok {
		return Location{}, false
	}
	return Location{URI: d.URI, Range: r}, true
}

// sameTerm reports whether a and b denote the same node. Blank nodes only
// match within one document, which callers enforce.
func sameTerm(a, b rdf.Term) bool {
	return a.Kind == b.Kind && a.Value == b.Value && a.Datatype == b.Datatype && a.Language == b.Language
}

// scope returns the documents a cross-document lookup for t scans.
func scope(v document.View, t rdf.Term) []*document.Document {
	if t.Kind == rdf.BlankNode || t.Kind == rdf.Variable {
		return []*document.Document{v.Doc}
	}
	docs := []*document.Document{v.Doc}
	for _, d := range v.Documents() {
		if d != v.Doc {
			docs = append(docs, d)
		}
	}
	return docs
}

func isSPARQL(d *document.Document) bool {
	return d.Language() == lang.SPARQL
}

// wordBefore returns the partially typed word ending at off.
func wordBefore(text string, off int) string {
	if off > len(text) {
		off = len(text)
	}
	start := off
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	return text[start:off]
}

func isWordByte(b byte) bool {
	if b >= 0x80 {
		return true
	}
	return b == '_' || b == '-' || b == ':' || b == '@' || b == '?' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// noResult logs a query that produced nothing.
func (s *Service) noResult(method, uri, reason string) {
	s.logger.Debugw("No result", logger.FieldMethod, method, logger.FieldURI, uri, logger.FieldReason, reason)
}

// read runs fn for uri on the workspace loop.
func read[T any](ctx context.Context, s *Service, uri string, fn func(document.View) (T, error)) (T, error) {
	return document.Query(ctx, s.ws, uri, fn)
}
