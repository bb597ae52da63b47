// Package span models byte ranges into source text and the conversion
// between byte offsets and editor positions.
package span

import "fmt"

// Span is a half-open byte range [Start, End) into a source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New returns the span [start, end).
func New(start, end int) Span {
	return Span{Start: start, End: end}
}

// At returns the empty span at off.
func At(off int) Span {
	return Span{Start: off, End: off}
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether off lies inside s. The end is inclusive so a
// cursor placed right after a token still selects it.
func (s Span) Contains(off int) bool {
	return s.Start <= off && off <= s.End
}

// Covers reports whether o lies entirely inside s.
func (s Span) Covers(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// Distance is the number of bytes between off and the nearest edge of s,
// zero when s contains off.
func (s Span) Distance(off int) int {
	if s.Contains(off) {
		return 0
	}
	if off < s.Start {
		return s.Start - off
	}
	return off - s.End
}

// Slice returns the text covered by s, clamped to text.
func (s Span) Slice(text string) string {
	start := max(0, min(s.Start, len(text)))
	end := max(start, min(s.End, len(text)))
	return text[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Spanned pairs a value with the span it was read from.
type Spanned[T comparable] struct {
	Value T
	Span  Span
}

// Wrap pairs v with sp.
func Wrap[T comparable](v T, sp Span) Spanned[T] {
	return Spanned[T]{Value: v, Span: sp}
}

// Equal compares values only. Two tokens at different offsets with the same
// lexical value are equal.
func (s Spanned[T]) Equal(o Spanned[T]) bool {
	return s.Value == o.Value
}

// Values strips the spans, keeping order.
func Values[T comparable](items []Spanned[T]) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out
}
