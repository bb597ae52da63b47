package turtle

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Dialect selects the terminals Scan accepts beyond plain Turtle.
type Dialect struct {
	// SPARQL enables variables, operators and case-insensitive keywords.
	SPARQL bool
	// Keywords are the upper-case bare words accepted as token.Keyword.
	Keywords map[string]struct{}
}

// Scan tokenizes text. It never stops early: an unrecognized run becomes a
// token.Invalid covering the run, with one lexical diagnostic, and scanning
// resumes at the next whitespace or delimiter.
func Scan(text string, d Dialect) ([]token.Spanned, []lang.Diagnostic) {
	s := &scanner{src: text, dialect: d}
	s.run()
	return s.tokens, s.diags
}

type scanner struct {
	src     string
	pos     int
	dialect Dialect
	tokens  []token.Spanned
	diags   []lang.Diagnostic
}

func (s *scanner) emit(t token.Token, start int) {
	s.tokens = append(s.tokens, span.Wrap(t, span.New(start, s.pos)))
}

func (s *scanner) errorf(sp span.Span, format string, args ...any) *lang.Diagnostic {
	d := lang.Errorf(lang.KindLexical, sp, format, args...).WithCode(lang.CodeInvalidToken)
	s.diags = append(s.diags, *d)
	return &s.diags[len(s.diags)-1]
}

func (s *scanner) peekRune(off int) (rune, int) {
	if s.pos+off >= len(s.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s.src[s.pos+off:])
}

func (s *scanner) peekByte(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *scanner) run() {
	for {
		for s.pos < len(s.src) && token.IsSpace(rune(s.src[s.pos])) {
			s.pos++
		}
		if s.pos >= len(s.src) {
			return
		}
		start := s.pos
		r, _ := s.peekRune(0)

		switch {
		case r == '#':
			end := strings.IndexByte(s.src[s.pos:], '\n')
			if end < 0 {
				end = len(s.src) - s.pos
			}
			s.pos += end
			s.emit(token.New(token.Comment, strings.TrimRight(s.src[start:s.pos], "\r")), start)
		case r == '<':
			s.scanIRI(start)
		case r == '"' || r == '\'':
			s.scanString(start, byte(r))
		case r == '@':
			s.scanAt(start)
		case r == '^':
			if s.peekByte(1) == '^' {
				s.pos += 2
				s.emit(token.New(token.DataTypeTag, "^^"), start)
			} else if s.dialect.SPARQL {
				s.pos++
				s.emit(token.New(token.Op, "^"), start)
			} else {
				s.invalid(start, "expected '^^' before a datatype")
			}
		case r == '_' && s.peekByte(1) == ':':
			s.scanBlankLabel(start)
		case (r == '?' || r == '$') && s.dialect.SPARQL:
			s.scanVariable(start)
		case token.IsDigit(r) || (r == '.' && token.IsDigit(rune(s.peekByte(1)))) ||
			((r == '+' || r == '-') && s.numberFollows(1)):
			s.scanNumber(start)
		case r == '.':
			s.pos++
			s.emit(token.New(token.Stop, "."), start)
		case r == ',':
			s.punct(token.Comma, start)
		case r == ';':
			s.punct(token.Semicolon, start)
		case r == '[':
			s.punct(token.SqOpen, start)
		case r == ']':
			s.punct(token.SqClose, start)
		case r == '(':
			s.punct(token.BracketOpen, start)
		case r == ')':
			s.punct(token.BracketClose, start)
		case r == '{':
			s.punct(token.CurlOpen, start)
		case r == '}':
			s.punct(token.CurlClose, start)
		case s.dialect.SPARQL && strings.ContainsRune("=!<>&|+-*/", r):
			s.scanOperator(start)
		case token.IsPNCharsBase(r) || r == ':':
			s.scanName(start)
		default:
			s.invalid(start, "unexpected character %q", r)
		}
	}
}

func (s *scanner) punct(k token.Kind, start int) {
	s.pos++
	s.emit(token.New(k, s.src[start:s.pos]), start)
}

// invalid consumes the run starting at start up to the next delimiter and
// emits it as one Invalid token.
func (s *scanner) invalid(start int, format string, args ...any) {
	s.pos = start
	_, size := s.peekRune(0)
	s.pos += max(size, 1)
	for s.pos < len(s.src) {
		r, size := s.peekRune(0)
		if token.IsDelimiter(r) {
			break
		}
		s.pos += size
	}
	s.invalidTo(start, format, args...)
}

func (s *scanner) invalidTo(start int, format string, args ...any) {
	raw := s.src[start:s.pos]
	s.emit(token.New(token.Invalid, raw), start)
	s.errorf(span.New(start, s.pos), format, args...)
}

func (s *scanner) scanIRI(start int) {
	var b strings.Builder
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '>':
			s.pos++
			s.emit(token.New(token.IRIRef, b.String()), start)
			return
		case c == '\\':
			r, ok := s.scanUChar()
			if !ok {
				s.invalid(start, "invalid escape in IRI")
				return
			}
			b.WriteRune(r)
			continue
		case c <= 0x20 || strings.IndexByte("<\"{}|^`", c) >= 0:
			s.iriFailed(start)
			return
		}
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		b.WriteRune(r)
		s.pos += size
	}
	s.iriFailed(start)
}

// iriFailed handles a '<' that does not open a well-formed IRI. SPARQL
// reads it as a comparison operator.
func (s *scanner) iriFailed(start int) {
	if s.dialect.SPARQL {
		s.pos = start
		s.scanOperator(start)
		return
	}
	for s.pos < len(s.src) && !token.IsSpace(rune(s.src[s.pos])) {
		s.pos++
	}
	s.invalidTo(start, "unterminated IRI, expected '>'")
}

// scanUChar decodes \uXXXX or \UXXXXXXXX at the current position.
func (s *scanner) scanUChar() (rune, bool) {
	var n int
	switch s.peekByte(1) {
	case 'u':
		n = 4
	case 'U':
		n = 8
	default:
		return 0, false
	}
	if s.pos+2+n > len(s.src) {
		return 0, false
	}
	hex := s.src[s.pos+2 : s.pos+2+n]
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	s.pos += 2 + n
	return rune(v), true
}

func (s *scanner) scanString(start int, q byte) {
	long := s.peekByte(1) == q && s.peekByte(2) == q
	if long {
		s.pos += 3
	} else {
		s.pos++
	}

	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == q && !long:
			s.pos++
			s.emit(token.Token{Kind: token.String, Text: b.String()}, start)
			return
		case c == q && long && s.peekByte(1) == q && s.peekByte(2) == q:
			// a long string may end with up to two extra quotes
			for s.peekByte(3) == q {
				b.WriteByte(q)
				s.pos++
			}
			s.pos += 3
			s.emit(token.Token{Kind: token.String, Text: b.String(), Long: true}, start)
			return
		case (c == '\n' || c == '\r') && !long:
			s.invalidTo(start, "unterminated string, expected %c", q)
			return
		case c == '\\':
			if r, ok := s.scanEscape(); ok {
				b.WriteRune(r)
				continue
			}
			escStart := s.pos
			s.pos++
			s.errorf(span.New(escStart, s.pos), "invalid escape sequence")
			continue
		}
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		b.WriteRune(r)
		s.pos += size
	}
	d := s.errorf(span.New(start, s.pos), "unterminated string, expected %c", q)
	d.Code = lang.CodeUnterminated
	s.emit(token.New(token.Invalid, s.src[start:s.pos]), start)
}

func (s *scanner) scanEscape() (rune, bool) {
	switch s.peekByte(1) {
	case 't':
		s.pos += 2
		return '\t', true
	case 'b':
		s.pos += 2
		return '\b', true
	case 'n':
		s.pos += 2
		return '\n', true
	case 'r':
		s.pos += 2
		return '\r', true
	case 'f':
		s.pos += 2
		return '\f', true
	case '"', '\'', '\\':
		c := s.peekByte(1)
		s.pos += 2
		return rune(c), true
	case 'u', 'U':
		return s.scanUChar()
	}
	return 0, false
}

func (s *scanner) scanAt(start int) {
	s.pos++
	for s.pos < len(s.src) && isAlpha(s.src[s.pos]) {
		s.pos++
	}
	word := s.src[start+1 : s.pos]
	if word == "" {
		s.invalid(start, "expected a language tag or directive after '@'")
		return
	}
	switch word {
	case "prefix":
		s.emit(token.New(token.PrefixTag, "@prefix"), start)
		return
	case "base":
		s.emit(token.New(token.BaseTag, "@base"), start)
		return
	case "version":
		s.emit(token.New(token.VersionTag, "@version"), start)
		return
	}
	for s.peekByte(0) == '-' && isAlnum(s.peekByte(1)) {
		s.pos++
		for s.pos < len(s.src) && isAlnum(s.src[s.pos]) {
			s.pos++
		}
	}
	s.emit(token.New(token.LangTag, s.src[start+1:s.pos]), start)
}

func (s *scanner) scanBlankLabel(start int) {
	s.pos += 2
	r, size := s.peekRune(0)
	if !(token.IsPNCharsU(r) || token.IsDigit(r)) {
		s.invalid(start, "expected a blank node label after '_:'")
		return
	}
	s.pos += size
	last := s.pos
	for s.pos < len(s.src) {
		r, size := s.peekRune(0)
		if !token.IsPNChars(r) && r != '.' {
			break
		}
		s.pos += size
		if r != '.' {
			last = s.pos
		}
	}
	s.pos = last
	s.emit(token.New(token.BlankNodeLabel, s.src[start+2:s.pos]), start)
}

func (s *scanner) scanVariable(start int) {
	s.pos++
	for s.pos < len(s.src) {
		r, size := s.peekRune(0)
		if !(token.IsPNCharsU(r) || token.IsDigit(r) || r == 0x00B7 ||
			(0x0300 <= r && r <= 0x036F) || (0x203F <= r && r <= 0x2040)) {
			break
		}
		s.pos += size
	}
	if s.pos == start+1 {
		// a lone '?' is the zero-or-one path modifier
		s.emit(token.New(token.Op, s.src[start:s.pos]), start)
		return
	}
	s.emit(token.New(token.Variable, s.src[start+1:s.pos]), start)
}

// numberFollows reports whether a digit, or '.' and a digit, follow at off.
func (s *scanner) numberFollows(off int) bool {
	c := s.peekByte(off)
	return isDigit(c) || (c == '.' && isDigit(s.peekByte(off+1)))
}

func (s *scanner) scanNumber(start int) {
	if c := s.peekByte(0); c == '+' || c == '-' {
		s.pos++
	}
	intDigits := s.digits()
	kind := token.Integer

	if s.peekByte(0) == '.' {
		frac := 0
		for isDigit(s.peekByte(1 + frac)) {
			frac++
		}
		switch {
		case frac > 0:
			s.pos += 1 + frac
			kind = token.Decimal
		case intDigits > 0 && s.exponentAt(1):
			s.pos++
			kind = token.Decimal
		}
	}
	if s.exponentAt(0) {
		s.pos++
		if c := s.peekByte(0); c == '+' || c == '-' {
			s.pos++
		}
		s.digits()
		kind = token.Double
	}
	s.emit(token.New(kind, s.src[start:s.pos]), start)
}

func (s *scanner) digits() int {
	n := 0
	for isDigit(s.peekByte(0)) {
		s.pos++
		n++
	}
	return n
}

func (s *scanner) exponentAt(off int) bool {
	c := s.peekByte(off)
	if c != 'e' && c != 'E' {
		return false
	}
	n := s.peekByte(off + 1)
	if n == '+' || n == '-' {
		n = s.peekByte(off + 2)
	}
	return isDigit(n)
}

var twoCharOps = []string{"&&", "||", "!=", "<=", ">="}

func (s *scanner) scanOperator(start int) {
	for _, op := range twoCharOps {
		if strings.HasPrefix(s.src[s.pos:], op) {
			s.pos += 2
			s.emit(token.New(token.Op, op), start)
			return
		}
	}
	s.pos++
	s.emit(token.New(token.Op, s.src[start:s.pos]), start)
}

func (s *scanner) scanName(start int) {
	// PN_PREFIX
	if s.peekByte(0) != ':' {
		_, size := s.peekRune(0)
		s.pos += size
		last := s.pos
		for s.pos < len(s.src) {
			r, size := s.peekRune(0)
			if !token.IsPNChars(r) && r != '.' {
				break
			}
			s.pos += size
			if r != '.' {
				last = s.pos
			}
		}
		s.pos = last
	}

	if s.peekByte(0) != ':' {
		s.word(start, s.src[start:s.pos])
		return
	}

	prefix := s.src[start:s.pos]
	s.pos++
	local, ok := s.scanLocal()
	if !ok {
		s.invalid(start, "invalid local name in %s:", prefix)
		return
	}
	if s.pos == start+len(prefix)+1 {
		s.emit(token.Token{Kind: token.PNameNS, Prefix: prefix}, start)
		return
	}
	s.emit(token.Token{Kind: token.PNameLN, Prefix: prefix, Text: local}, start)
}

// scanLocal reads a PN_LOCAL, decoding backslash escapes and keeping
// percent escapes as written. Trailing dots are left for the statement
// terminator.
func (s *scanner) scanLocal() (string, bool) {
	var b strings.Builder
	lastPos, lastLen := s.pos, 0
	first := true
	for s.pos < len(s.src) {
		r, size := s.peekRune(0)
		switch {
		case r == '\\':
			e := rune(s.peekByte(1))
			if !token.IsLocalEscape(e) {
				return "", false
			}
			b.WriteRune(e)
			s.pos += 2
		case r == '%':
			if !token.IsHex(rune(s.peekByte(1))) || !token.IsHex(rune(s.peekByte(2))) {
				return "", false
			}
			b.WriteString(s.src[s.pos : s.pos+3])
			s.pos += 3
		case first && (token.IsPNCharsU(r) || r == ':' || token.IsDigit(r)):
			b.WriteRune(r)
			s.pos += size
		case !first && (token.IsPNChars(r) || r == ':'):
			b.WriteRune(r)
			s.pos += size
		case !first && r == '.':
			b.WriteRune(r)
			s.pos += size
			first = false
			continue
		default:
			s.pos = lastPos
			return b.String()[:lastLen], true
		}
		first = false
		lastPos, lastLen = s.pos, b.Len()
	}
	s.pos = lastPos
	return b.String()[:lastLen], true
}

func (s *scanner) word(start int, w string) {
	switch w {
	case "a":
		s.emit(token.New(token.PredType, "a"), start)
		return
	case "true":
		s.emit(token.New(token.True, w), start)
		return
	case "false":
		s.emit(token.New(token.False, w), start)
		return
	}
	upper := strings.ToUpper(w)
	switch upper {
	case "PREFIX":
		s.emit(token.New(token.SparqlPrefix, upper), start)
		return
	case "BASE":
		s.emit(token.New(token.SparqlBase, upper), start)
		return
	case "VERSION":
		s.emit(token.New(token.SparqlVersion, upper), start)
		return
	}
	if _, ok := s.dialect.Keywords[upper]; ok {
		s.emit(token.New(token.Keyword, upper), start)
		return
	}
	s.invalidTo(start, "unknown keyword %q, expected a prefixed name such as %s", w, fmt.Sprintf("'%s:…'", w))
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
