package server

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lsp"
	"github.com/teranos/semls/span"
)

// diagnosticSource labels every published diagnostic.
const diagnosticSource = "semls"

func toPosition(p span.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(p.Character),
	}
}

func toRange(r span.Range) protocol.Range {
	return protocol.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

func fromPosition(p protocol.Position) span.Position {
	return span.Position{Line: int(p.Line), Character: int(p.Character)}
}

func fromRange(r protocol.Range) span.Range {
	return span.Range{Start: fromPosition(r.Start), End: fromPosition(r.End)}
}

// fromChanges accepts both incremental and whole-document change events.
func fromChanges(events []any) []span.Change {
	out := make([]span.Change, 0, len(events))
	for _, ev := range events {
		switch c := ev.(type) {
		case protocol.TextDocumentContentChangeEvent:
			var r *span.Range
			if c.Range != nil {
				rr := fromRange(*c.Range)
				r = &rr
			}
			out = append(out, span.Change{Range: r, Text: c.Text})
		case protocol.TextDocumentContentChangeEventWhole:
			out = append(out, span.Change{Text: c.Text})
		}
	}
	return out
}

func toTextEdit(e lsp.TextEdit) protocol.TextEdit {
	return protocol.TextEdit{Range: toRange(e.Range), NewText: e.NewText}
}

func toTextEdits(edits []lsp.TextEdit) []protocol.TextEdit {
	out := make([]protocol.TextEdit, len(edits))
	for i, e := range edits {
		out[i] = toTextEdit(e)
	}
	return out
}

var completionKinds = map[lsp.CompletionKind]protocol.CompletionItemKind{
	lsp.CompletionKeyword:   protocol.CompletionItemKindKeyword,
	lsp.CompletionPrefix:    protocol.CompletionItemKindModule,
	lsp.CompletionClass:     protocol.CompletionItemKindClass,
	lsp.CompletionProperty:  protocol.CompletionItemKindProperty,
	lsp.CompletionReference: protocol.CompletionItemKindReference,
	lsp.CompletionVariable:  protocol.CompletionItemKindVariable,
}

func toCompletionItems(items []lsp.CompletionItem) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, len(items))
	for i, item := range items {
		kind, ok := completionKinds[item.Kind]
		if !ok {
			kind = protocol.CompletionItemKindText
		}
		ci := protocol.CompletionItem{
			Label:    item.Label,
			Kind:     &kind,
			Detail:   stringPtrOrNil(item.Detail),
			SortText: stringPtrOrNil(item.SortText),
			TextEdit: toTextEdit(item.Edit),
		}
		if item.Documentation != "" {
			ci.Documentation = protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: item.Documentation,
			}
		}
		if len(item.AdditionalEdits) > 0 {
			ci.AdditionalTextEdits = toTextEdits(item.AdditionalEdits)
		}
		out[i] = ci
	}
	return out
}

func toHover(h *lsp.Hover) *protocol.Hover {
	if h == nil {
		return nil
	}
	r := toRange(h.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: h.Markdown,
		},
		Range: &r,
	}
}

func toLocations(locs []lsp.Location) []protocol.Location {
	out := make([]protocol.Location, len(locs))
	for i, l := range locs {
		out[i] = protocol.Location{URI: protocol.DocumentUri(l.URI), Range: toRange(l.Range)}
	}
	return out
}

var symbolKinds = map[lsp.SymbolKind]protocol.SymbolKind{
	lsp.SymbolClass:    protocol.SymbolKindClass,
	lsp.SymbolProperty: protocol.SymbolKindProperty,
	lsp.SymbolObject:   protocol.SymbolKindObject,
	lsp.SymbolField:    protocol.SymbolKindField,
	lsp.SymbolVariable: protocol.SymbolKindVariable,
}

func toDocumentSymbols(symbols []lsp.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, len(symbols))
	for i, s := range symbols {
		kind, ok := symbolKinds[s.Kind]
		if !ok {
			kind = protocol.SymbolKindObject
		}
		out[i] = protocol.DocumentSymbol{
			Name:           s.Name,
			Detail:         stringPtrOrNil(s.Detail),
			Kind:           kind,
			Range:          toRange(s.Range),
			SelectionRange: toRange(s.SelectionRange),
		}
		if len(s.Children) > 0 {
			out[i].Children = toDocumentSymbols(s.Children)
		}
	}
	return out
}

func toWorkspaceEdit(e lsp.WorkspaceEdit) *protocol.WorkspaceEdit {
	changes := make(map[protocol.DocumentUri][]protocol.TextEdit, len(e))
	for uri, edits := range e {
		changes[protocol.DocumentUri(uri)] = toTextEdits(edits)
	}
	return &protocol.WorkspaceEdit{Changes: changes}
}

var severities = map[lang.Severity]protocol.DiagnosticSeverity{
	lang.SeverityError:   protocol.DiagnosticSeverityError,
	lang.SeverityWarning: protocol.DiagnosticSeverityWarning,
	lang.SeverityInfo:    protocol.DiagnosticSeverityInformation,
	lang.SeverityHint:    protocol.DiagnosticSeverityHint,
}

// toDiagnostic maps a span through lines. Suggestions are appended to the
// message because LSP has no field for them.
func toDiagnostic(d lang.Diagnostic, lines *span.LineIndex) protocol.Diagnostic {
	var r span.Range
	if lines != nil {
		r, _ = lines.Range(d.Span)
	}
	sev, ok := severities[d.Severity]
	if !ok {
		sev = protocol.DiagnosticSeverityError
	}
	source := diagnosticSource
	msg := d.Message
	if len(d.Suggestions) > 0 {
		msg += "\n" + strings.Join(d.Suggestions, "\n")
	}
	out := protocol.Diagnostic{
		Range:    toRange(r),
		Severity: &sev,
		Source:   &source,
		Message:  msg,
	}
	if d.Code != "" {
		out.Code = &protocol.IntegerOrString{Value: d.Code}
	}
	return out
}

// formatOptions reads the editor's options, falling back to def for
// anything missing. JSON numbers arrive as float64.
func formatOptions(opts protocol.FormattingOptions, def lang.FormatOptions) lang.FormatOptions {
	out := def
	switch v := opts["tabSize"].(type) {
	case float64:
		out.TabSize = int(v)
	case int:
		out.TabSize = v
	case protocol.UInteger:
		out.TabSize = int(v)
	}
	if v, ok := opts["insertSpaces"].(bool); ok {
		out.InsertSpaces = v
	}
	return out
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool { return &b }
