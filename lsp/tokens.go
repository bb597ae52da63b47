package lsp

import (
	"context"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/registry"
	"github.com/teranos/semls/span"
)

// SemanticTokens paints the document and returns the LSP relative
// encoding against the process-wide legend.
func (s *Service) SemanticTokens(ctx context.Context, uri string) ([]uint32, error) {
	return read(ctx, s, uri, func(v document.View) ([]uint32, error) {
		enc := NewEncoder()
		Encode(enc, v.Doc, registry.Legend())
		return enc.Data(), nil
	})
}

// Encoder accumulates semantic tokens as 5-tuples (deltaLine, deltaStart,
// length, tokenType, modifiers). Deltas are relative to the previous token
// of the same document; Reset starts a new document.
type Encoder struct {
	line, char int
	data       []uint32
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Reset forgets the previous token, so the next one is encoded from 0:0.
func (e *Encoder) Reset() {
	e.line, e.char = 0, 0
	e.data = e.data[:0]
}

// Add appends a token at an absolute position. Tokens must be added in
// document order.
func (e *Encoder) Add(line, char, length, typ int) {
	dl := line - e.line
	dc := char
	if dl == 0 {
		dc = char - e.char
	}
	e.data = append(e.data, uint32(dl), uint32(dc), uint32(length), uint32(typ), 0)
	e.line, e.char = line, char
}

func (e *Encoder) Data() []uint32 {
	return append([]uint32(nil), e.data...)
}

// Len is the number of encoded tokens.
func (e *Encoder) Len() int {
	return len(e.data) / 5
}

// Paint returns one legend index per byte of d, -1 where nothing is
// painted.
func Paint(d *document.Document, legend *lang.Legend) []int {
	tags := make([]int, len(d.Text))
	for i := range tags {
		tags[i] = -1
	}
	d.Grammar.Highlight(d.Tree, d.Tokens, func(sp span.Span, typ lang.SemanticType) {
		idx, ok := legend.Index(typ)
		if !ok {
			return
		}
		for i := max(sp.Start, 0); i < sp.End && i < len(tags); i++ {
			tags[i] = idx
		}
	})
	return tags
}

// Encode appends one token per maximal run of equal tags in d, splitting
// runs at line breaks. The encoder is reset first.
func Encode(enc *Encoder, d *document.Document, legend *lang.Legend) {
	enc.Reset()
	tags := Paint(d, legend)
	text := d.Text

	for i := 0; i < len(tags); {
		if tags[i] < 0 || text[i] == '\n' || text[i] == '\r' {
			i++
			continue
		}
		j := i + 1
		for j < len(tags) && tags[j] == tags[i] && text[j] != '\n' && text[j] != '\r' {
			j++
		}
		if pos, ok := d.Lines.Position(i); ok {
			enc.Add(pos.Line, pos.Character, span.UTF16Len(text[i:j]), tags[i])
		}
		i = j
	}
}
