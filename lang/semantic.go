package lang

// SemanticType is an LSP semantic token type name.
type SemanticType string

const (
	SemNamespace  SemanticType = "namespace"
	SemClass      SemanticType = "class"
	SemProperty   SemanticType = "property"
	SemEnumMember SemanticType = "enumMember"
	SemVariable   SemanticType = "variable"
	SemKeyword    SemanticType = "keyword"
	SemString     SemanticType = "string"
	SemNumber     SemanticType = "number"
	SemComment    SemanticType = "comment"
	SemOperator   SemanticType = "operator"
	SemType       SemanticType = "type"
	SemFunction   SemanticType = "function"
	SemParameter  SemanticType = "parameter"
)

// Legend is an immutable table from semantic type to its index in the
// encoding sent to editors.
type Legend struct {
	types []SemanticType
	index map[SemanticType]int
}

// NewLegend unions the given legends in order, dropping duplicates.
func NewLegend(parts ...[]SemanticType) *Legend {
	l := &Legend{index: make(map[SemanticType]int)}
	for _, p := range parts {
		for _, t := range p {
			if _, ok := l.index[t]; ok {
				continue
			}
			l.index[t] = len(l.types)
			l.types = append(l.types, t)
		}
	}
	return l
}

// Index returns the legend index of t.
func (l *Legend) Index(t SemanticType) (int, bool) {
	i, ok := l.index[t]
	return i, ok
}

// Types returns the legend as strings, in index order.
func (l *Legend) Types() []string {
	out := make([]string, len(l.types))
	for i, t := range l.types {
		out[i] = string(t)
	}
	return out
}

func (l *Legend) Len() int {
	return len(l.types)
}
