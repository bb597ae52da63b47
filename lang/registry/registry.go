// Package registry maps languages to their grammars and owns the
// process-wide semantic token legend.
package registry

import (
	"sync"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/jsonld"
	"github.com/teranos/semls/lang/sparql"
	"github.com/teranos/semls/lang/turtle"
)

// grammars in registration order. The legend is built in this order.
var grammars = []lang.Grammar{
	turtle.Grammar{},
	jsonld.Grammar{},
	sparql.Grammar{},
}

// For returns the grammar of l.
func For(l lang.Language) (lang.Grammar, error) {
	for _, g := range grammars {
		if g.Language() == l {
			return g, nil
		}
	}
	return nil, errors.WithHint(
		errors.Wrapf(errors.ErrUnsupportedLanguage, "%s", l),
		"use a .ttl, .jsonld or .rq extension, or set the languageId",
	)
}

// Detect picks the grammar for a document by language id, then extension.
func Detect(uri, hint string) (lang.Grammar, error) {
	return For(lang.DetectLanguage(uri, hint))
}

func All() []lang.Grammar {
	return append([]lang.Grammar(nil), grammars...)
}

var legend = sync.OnceValue(func() *lang.Legend {
	parts := make([][]lang.SemanticType, 0, len(grammars))
	for _, g := range grammars {
		parts = append(parts, g.Legend())
	}
	return lang.NewLegend(parts...)
})

// Legend is the union of every grammar's legend. It is built on first use
// and never changes afterwards.
func Legend() *lang.Legend {
	return legend()
}
