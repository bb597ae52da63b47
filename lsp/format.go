package lsp

import (
	"context"

	"github.com/teranos/semls/document"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/span"
)

// Format returns one edit replacing the whole document with its formatted
// text, or nothing when the grammar has no formatter, the document has
// syntax errors or it is already formatted.
func (s *Service) Format(ctx context.Context, uri string, opts lang.FormatOptions) ([]TextEdit, error) {
	return read(ctx, s, uri, func(v document.View) ([]TextEdit, error) {
		out, ok := v.Doc.Format(opts)
		if !ok {
			s.noResult("formatting", uri, "not formattable")
			return nil, nil
		}
		if out == v.Doc.Text {
			return nil, nil
		}
		r, ok := v.Doc.Lines.Range(span.New(0, len(v.Doc.Text)))
		if !ok {
			return nil, nil
		}
		return []TextEdit{{Range: r, NewText: out}}, nil
	})
}
