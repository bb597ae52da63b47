package turtle

import (
	"github.com/teranos/semls/diffctx"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/token"
)

// SlotAt classifies what is expected at off from the token before the word
// under the cursor and the roles the last parse gave it.
func SlotAt(tokens []token.Spanned, roles *diffctx.Roles, off int) lang.Slot {
	prev := previous(tokens, off)
	if prev < 0 {
		return lang.SlotSubject
	}
	t := tokens[prev].Value
	switch t.Kind {
	case token.Stop, token.CurlOpen, token.CurlClose:
		return lang.SlotSubject
	case token.Semicolon, token.SqOpen:
		return lang.SlotPredicate
	case token.Comma:
		if typeVerb(tokens, roles, prev) {
			return lang.SlotClass
		}
		return lang.SlotObject
	case token.BracketOpen:
		return lang.SlotObject
	case token.PredType:
		return lang.SlotClass
	case token.PrefixTag, token.SparqlPrefix:
		return lang.SlotPrefixName
	case token.IRIRef:
		if directiveIRI(tokens, prev) {
			if p := previousFrom(tokens, prev); p >= 0 && tokens[p].Value.Kind == token.PNameNS {
				if pp := previousFrom(tokens, p); pp >= 0 && tokens[pp].Value.Kind == token.SparqlPrefix {
					return lang.SlotSubject
				}
			} else if p >= 0 && tokens[p].Value.Kind == token.SparqlBase {
				return lang.SlotSubject
			}
			return lang.SlotNone
		}
	}

	switch {
	case roles.Has(prev, diffctx.Predicate):
		if isTypeIRI(t) {
			return lang.SlotClass
		}
		return lang.SlotObject
	case roles.Has(prev, diffctx.Subject):
		return lang.SlotPredicate
	case roles.Has(prev, diffctx.Object):
		return lang.SlotNone
	}
	if t.Kind.IsIRI() || t.Kind == token.BlankNodeLabel || t.Kind == token.Variable {
		return termsSinceBoundary(tokens, prev)
	}
	return lang.SlotNone
}

// previous returns the index of the last significant token that ends
// before the word containing off.
func previous(tokens []token.Spanned, off int) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		if t.Value.Kind == token.Comment {
			continue
		}
		if t.Span.End < off {
			return i
		}
		if t.Span.End == off && !isWord(t.Value.Kind) {
			return i
		}
	}
	return -1
}

func previousFrom(tokens []token.Spanned, idx int) int {
	for i := idx - 1; i >= 0; i-- {
		if tokens[i].Value.Kind != token.Comment {
			return i
		}
	}
	return -1
}

// isWord reports kinds a user may still be typing when the cursor touches
// their end.
func isWord(k token.Kind) bool {
	switch k {
	case token.PNameLN, token.PNameNS, token.Invalid, token.Keyword, token.PredType, token.Variable, token.BlankNodeLabel,
		token.PrefixTag, token.BaseTag, token.VersionTag, token.SparqlPrefix, token.SparqlBase, token.True, token.False:
		return true
	}
	return false
}

func directiveIRI(tokens []token.Spanned, idx int) bool {
	p := previousFrom(tokens, idx)
	if p < 0 {
		return false
	}
	switch tokens[p].Value.Kind {
	case token.PNameNS:
		pp := previousFrom(tokens, p)
		return pp >= 0 && (tokens[pp].Value.Kind == token.PrefixTag || tokens[pp].Value.Kind == token.SparqlPrefix)
	case token.BaseTag, token.SparqlBase:
		return true
	}
	return false
}

func isTypeIRI(t token.Token) bool {
	switch t.Kind {
	case token.PredType:
		return true
	case token.PNameLN:
		return t.Prefix == "rdf" && t.Text == "type"
	case token.IRIRef:
		return t.Text == rdf.RDFType
	}
	return false
}

// typeVerb reports whether the object list the comma at idx belongs to has
// rdf:type as its verb.
func typeVerb(tokens []token.Spanned, roles *diffctx.Roles, idx int) bool {
	for i := idx - 1; i >= 0; i-- {
		switch tokens[i].Value.Kind {
		case token.Stop, token.Semicolon:
			return false
		}
		if roles.Has(i, diffctx.Predicate) {
			return isTypeIRI(tokens[i].Value)
		}
	}
	return false
}

// termsSinceBoundary guesses the slot when the last parse recorded no
// roles, by counting terms since the last statement boundary.
func termsSinceBoundary(tokens []token.Spanned, idx int) lang.Slot {
	n := 0
	for i := idx; i >= 0; i-- {
		k := tokens[i].Value.Kind
		if k == token.Comment {
			continue
		}
		if k == token.Stop || k == token.CurlOpen || k == token.CurlClose {
			break
		}
		if k == token.Semicolon {
			n++
			break
		}
		n++
	}
	switch n {
	case 1:
		return lang.SlotPredicate
	case 2:
		return lang.SlotObject
	}
	return lang.SlotNone
}
