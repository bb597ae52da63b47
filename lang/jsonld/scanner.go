package jsonld

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/token"
)

// Scan tokenizes JSON text. Unrecognized runs become Invalid tokens with a
// lexical diagnostic; scanning resumes at the next delimiter.
func Scan(text string) ([]token.Spanned, []lang.Diagnostic) {
	s := &scanner{src: text}
	s.run()
	return s.tokens, s.diags
}

type scanner struct {
	src    string
	pos    int
	tokens []token.Spanned
	diags  []lang.Diagnostic
}

func (s *scanner) emit(t token.Token, start int) {
	s.tokens = append(s.tokens, span.Wrap(t, span.New(start, s.pos)))
}

func (s *scanner) errorf(sp span.Span, format string, args ...any) {
	s.diags = append(s.diags, *lang.Errorf(lang.KindLexical, sp, format, args...).WithCode(lang.CodeInvalidToken))
}

var punctuation = map[byte]token.Kind{
	',': token.Comma,
	':': token.Colon,
	'[': token.SqOpen,
	']': token.SqClose,
	'{': token.CurlOpen,
	'}': token.CurlClose,
}

var literals = map[string]token.Kind{
	"null":  token.Null,
	"true":  token.True,
	"false": token.False,
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
		c := s.src[s.pos]

		if k, ok := punctuation[c]; ok {
			s.pos++
			s.emit(token.New(k, string(c)), start)
			continue
		}
		switch {
		case c == '"':
			s.scanString(start)
		case c == '-' || isDigit(c):
			s.scanNumber(start)
		default:
			s.scanWord(start)
		}
	}
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isDelimiter(c byte) bool {
	_, punct := punctuation[c]
	return punct || c == '"' || token.IsSpace(rune(c))
}

func (s *scanner) scanWord(start int) {
	_, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	for s.pos < len(s.src) && !isDelimiter(s.src[s.pos]) {
		s.pos++
	}
	word := s.src[start:s.pos]
	if k, ok := literals[word]; ok {
		s.emit(token.New(k, word), start)
		return
	}
	s.emit(token.New(token.Invalid, word), start)
	s.errorf(span.New(start, s.pos), "unexpected %q, expected a string, number, object, array, true, false or null", word)
}

func (s *scanner) scanNumber(start int) {
	if s.src[s.pos] == '-' {
		s.pos++
	}
	intStart := s.pos
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == intStart {
		s.invalidRun(start, "expected digits after '-'")
		return
	}
	kind := token.Integer
	if s.pos < len(s.src) && s.src[s.pos] == '.' {
		s.pos++
		fracStart := s.pos
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
		if s.pos == fracStart {
			s.invalidRun(start, "expected digits after '.'")
			return
		}
		kind = token.Decimal
	}
	if s.pos < len(s.src) && (s.src[s.pos] == 'e' || s.src[s.pos] == 'E') {
		s.pos++
		if s.pos < len(s.src) && (s.src[s.pos] == '+' || s.src[s.pos] == '-') {
			s.pos++
		}
		expStart := s.pos
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
		if s.pos == expStart {
			s.invalidRun(start, "expected digits in exponent")
			return
		}
		kind = token.Double
	}
	if s.pos < len(s.src) && !isDelimiter(s.src[s.pos]) {
		s.invalidRun(start, "unexpected character in number")
		return
	}
	s.emit(token.New(kind, s.src[start:s.pos]), start)
}

func (s *scanner) invalidRun(start int, msg string) {
	for s.pos < len(s.src) && !isDelimiter(s.src[s.pos]) {
		s.pos++
	}
	s.emit(token.New(token.Invalid, s.src[start:s.pos]), start)
	s.errorf(span.New(start, s.pos), "%s", msg)
}

func (s *scanner) scanString(start int) {
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"':
			s.pos++
			s.emit(token.New(token.String, b.String()), start)
			return
		case c == '\n':
			s.emit(token.New(token.Invalid, s.src[start:s.pos]), start)
			s.errorf(span.New(start, s.pos), "unterminated string")
			return
		case c == '\\':
			if !s.escape(&b) {
				s.errorf(span.New(s.pos, s.pos+2), "invalid escape sequence")
				s.pos = min(s.pos+2, len(s.src))
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		b.WriteRune(r)
		s.pos += size
	}
	s.emit(token.New(token.Invalid, s.src[start:s.pos]), start)
	s.errorf(span.New(start, s.pos), "unterminated string")
}

var simpleEscapes = map[byte]rune{
	'"': '"', '\\': '\\', '/': '/', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t',
}

func (s *scanner) escape(b *strings.Builder) bool {
	if s.pos+1 >= len(s.src) {
		return false
	}
	if r, ok := simpleEscapes[s.src[s.pos+1]]; ok {
		b.WriteRune(r)
		s.pos += 2
		return true
	}
	if s.src[s.pos+1] != 'u' {
		return false
	}
	r, ok := s.hex4(s.pos + 2)
	if !ok {
		return false
	}
	s.pos += 6
	if utf16.IsSurrogate(r) && strings.HasPrefix(s.src[s.pos:], `\u`) {
		if lo, ok := s.hex4(s.pos + 2); ok {
			if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
				s.pos += 6
				r = pair
			}
		}
	}
	b.WriteRune(r)
	return true
}

func (s *scanner) hex4(at int) (rune, bool) {
	if at+4 > len(s.src) {
		return 0, false
	}
	v, err := strconv.ParseUint(s.src[at:at+4], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
