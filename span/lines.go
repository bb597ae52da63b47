package span

import (
	"sort"
	"unicode/utf8"
)

// Position is an editor position: 0-based line and 0-based character
// counted in UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a pair of editor positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineIndex converts between byte offsets and editor positions for one
// immutable text.
type LineIndex struct {
	text  string
	lines []int // byte offset of each line start
}

// NewLineIndex indexes the line starts of text.
func NewLineIndex(text string) *LineIndex {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &LineIndex{text: text, lines: lines}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (l *LineIndex) LineCount() int {
	return len(l.lines)
}

// Position converts a byte offset. ok is false when off is outside the text.
func (l *LineIndex) Position(off int) (Position, bool) {
	if off < 0 || off > len(l.text) {
		return Position{}, false
	}
	line := sort.Search(len(l.lines), func(i int) bool { return l.lines[i] > off }) - 1
	return Position{Line: line, Character: utf16Len(l.text[l.lines[line]:off])}, true
}

// Offset converts an editor position. Characters past the end of the line
// clamp to the line end; lines past the end of the text are not ok.
func (l *LineIndex) Offset(p Position) (int, bool) {
	if p.Line < 0 || p.Line >= len(l.lines) || p.Character < 0 {
		return 0, false
	}
	start := l.lines[p.Line]
	end := len(l.text)
	if p.Line+1 < len(l.lines) {
		end = l.lines[p.Line+1] - 1
	}

	units := 0
	off := start
	for off < end && units < p.Character {
		r, size := utf8.DecodeRuneInString(l.text[off:])
		units += runeUTF16(r)
		off += size
	}
	return off, true
}

// Range converts a span.
func (l *LineIndex) Range(s Span) (Range, bool) {
	start, ok := l.Position(s.Start)
	if !ok {
		return Range{}, false
	}
	end, ok := l.Position(s.End)
	if !ok {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// Span converts an editor range.
func (l *LineIndex) Span(r Range) (Span, bool) {
	start, ok := l.Offset(r.Start)
	if !ok {
		return Span{}, false
	}
	end, ok := l.Offset(r.End)
	if !ok || end < start {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}

// UTF16Len counts the UTF-16 code units of s.
func UTF16Len(s string) int {
	return utf16Len(s)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUTF16(r)
	}
	return n
}

func runeUTF16(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
