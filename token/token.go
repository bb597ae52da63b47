// Package token defines the lexical vocabulary shared by every grammar.
package token

import (
	"strings"

	"github.com/teranos/semls/span"
)

// Kind is the lexical category of a token.
type Kind uint8

const (
	Invalid Kind = iota
	Comment

	// Terms
	IRIRef         // <http://example.org/>
	PNameLN        // foaf:name
	PNameNS        // foaf:
	BlankNodeLabel // _:b0
	Variable       // ?x or $x
	String         // "text", 'text', """text"""
	Integer
	Decimal
	Double
	True
	False
	Null

	// Literal decorations
	LangTag     // @en
	DataTypeTag // ^^

	// Directives
	PrefixTag    // @prefix
	BaseTag      // @base
	VersionTag   // @version
	SparqlPrefix // PREFIX
	SparqlBase   // BASE
	SparqlVersion

	PredType // a
	Keyword  // SPARQL keyword or builtin, upper-cased in Text
	Op       // SPARQL operator

	// Punctuation
	Stop      // .
	Comma     // ,
	Semicolon // ;
	Colon     // : in JSON
	SqOpen    // [
	SqClose   // ]
	BracketOpen
	BracketClose
	CurlOpen  // {
	CurlClose // }
)

var kindNames = [...]string{
	Invalid:        "Invalid",
	Comment:        "Comment",
	IRIRef:         "IRIRef",
	PNameLN:        "PNameLN",
	PNameNS:        "PNameNS",
	BlankNodeLabel: "BlankNodeLabel",
	Variable:       "Variable",
	String:         "String",
	Integer:        "Integer",
	Decimal:        "Decimal",
	Double:         "Double",
	True:           "True",
	False:          "False",
	Null:           "Null",
	LangTag:        "LangTag",
	DataTypeTag:    "DataTypeTag",
	PrefixTag:      "PrefixTag",
	BaseTag:        "BaseTag",
	VersionTag:     "VersionTag",
	SparqlPrefix:   "SparqlPrefix",
	SparqlBase:     "SparqlBase",
	SparqlVersion:  "SparqlVersion",
	PredType:       "PredType",
	Keyword:        "Keyword",
	Op:             "Op",
	Stop:           "Stop",
	Comma:          "Comma",
	Semicolon:      "Semicolon",
	Colon:          "Colon",
	SqOpen:         "SqOpen",
	SqClose:        "SqClose",
	BracketOpen:    "BracketOpen",
	BracketClose:   "BracketClose",
	CurlOpen:       "CurlOpen",
	CurlClose:      "CurlClose",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsDirective reports whether k starts a prefix, base or version directive.
func (k Kind) IsDirective() bool {
	switch k {
	case PrefixTag, BaseTag, VersionTag, SparqlPrefix, SparqlBase, SparqlVersion:
		return true
	}
	return false
}

// IsIRI reports whether k names an IRI, either written out or prefixed.
func (k Kind) IsIRI() bool {
	return k == IRIRef || k == PNameLN || k == PNameNS
}

// IsNumber reports whether k is a numeric literal.
func (k Kind) IsNumber() bool {
	return k == Integer || k == Decimal || k == Double
}

// Token is one lexical unit. Text holds the decoded value: the IRI between
// the angle brackets, the string content with escapes resolved, the local
// part of a prefixed name, the keyword in upper case.
type Token struct {
	Kind   Kind
	Text   string
	Prefix string // prefix label of PNameLN and PNameNS
	Long   bool   // triple-quoted string
}

// Spanned is a token with its position in the source.
type Spanned = span.Spanned[Token]

// New creates a token of kind k.
func New(k Kind, text string) Token {
	return Token{Kind: k, Text: text}
}

// String renders the token roughly as it was written, for messages.
func (t Token) String() string {
	switch t.Kind {
	case IRIRef:
		return "<" + t.Text + ">"
	case PNameLN:
		return t.Prefix + ":" + t.Text
	case PNameNS:
		return t.Prefix + ":"
	case BlankNodeLabel:
		return "_:" + t.Text
	case Variable:
		return "?" + t.Text
	case String:
		return `"` + EscapeString(t.Text) + `"`
	case LangTag:
		return "@" + t.Text
	case DataTypeTag:
		return "^^"
	case PrefixTag:
		return "@prefix"
	case BaseTag:
		return "@base"
	case VersionTag:
		return "@version"
	case Stop:
		return "."
	case Comma:
		return ","
	case Semicolon:
		return ";"
	case Colon:
		return ":"
	case SqOpen:
		return "["
	case SqClose:
		return "]"
	case BracketOpen:
		return "("
	case BracketClose:
		return ")"
	case CurlOpen:
		return "{"
	case CurlClose:
		return "}"
	case True:
		return "true"
	case False:
		return "false"
	case Null:
		return "null"
	case PredType:
		return "a"
	}
	return t.Text
}

// Kinds returns the kind of every token, in order.
func Kinds(tokens []Spanned) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Value.Kind
	}
	return out
}

// EscapeString escapes s for use inside a double-quoted literal.
func EscapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
