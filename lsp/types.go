package lsp

import "github.com/teranos/semls/span"

// CompletionKind classifies a completion item.
type CompletionKind string

const (
	CompletionKeyword   CompletionKind = "keyword"
	CompletionPrefix    CompletionKind = "module"
	CompletionClass     CompletionKind = "class"
	CompletionProperty  CompletionKind = "property"
	CompletionReference CompletionKind = "reference"
	CompletionVariable  CompletionKind = "variable"
)

// TextEdit replaces Range with NewText.
type TextEdit struct {
	Range   span.Range `json:"range"`
	NewText string     `json:"newText"`
}

// CompletionItem is one completion proposal.
type CompletionItem struct {
	Label         string         `json:"label"`
	Kind          CompletionKind `json:"kind"`
	Detail        string         `json:"detail,omitempty"`
	Documentation string         `json:"documentation,omitempty"`
	SortText      string         `json:"sortText,omitempty"`
	Edit          TextEdit       `json:"textEdit"`
	// AdditionalEdits insert what the item needs elsewhere, such as a
	// missing prefix declaration.
	AdditionalEdits []TextEdit `json:"additionalTextEdits,omitempty"`
}

// Hover is markdown shown for the term under the cursor.
type Hover struct {
	Markdown string     `json:"contents"`
	Range    span.Range `json:"range"`
}

// Location is a range in some document.
type Location struct {
	URI   string     `json:"uri"`
	Range span.Range `json:"range"`
}

// SymbolKind classifies a document symbol.
type SymbolKind string

const (
	SymbolClass    SymbolKind = "class"
	SymbolProperty SymbolKind = "property"
	SymbolObject   SymbolKind = "object"
	SymbolField    SymbolKind = "field"
	SymbolVariable SymbolKind = "variable"
)

// Symbol is an outline entry: a subject with its predicates as children.
type Symbol struct {
	Name           string     `json:"name"`
	Detail         string     `json:"detail,omitempty"`
	Kind           SymbolKind `json:"kind"`
	Range          span.Range `json:"range"`
	SelectionRange span.Range `json:"selectionRange"`
	Children       []Symbol   `json:"children,omitempty"`
}

// WorkspaceEdit maps document URIs to edits.
type WorkspaceEdit map[string][]TextEdit

// PrepareRename is the renameable range and its current text.
type PrepareRename struct {
	Range       span.Range `json:"range"`
	Placeholder string     `json:"placeholder"`
}
