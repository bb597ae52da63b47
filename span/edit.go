package span

import (
	"github.com/teranos/semls/errors"
)

// Change is one content change sent by an editor. A nil Range replaces the
// whole text.
type Change struct {
	Range *Range
	Text  string
}

// Apply applies changes in order and returns the new text. Each change is
// resolved against the text produced by the previous one.
func Apply(text string, changes []Change) (string, error) {
	for i, c := range changes {
		if c.Range == nil {
			text = c.Text
			continue
		}
		idx := NewLineIndex(text)
		sp, ok := idx.Span(*c.Range)
		if !ok {
			return "", errors.Wrapf(errors.ErrInvalidRequest,
				"change %d: range %d:%d-%d:%d outside document", i,
				c.Range.Start.Line, c.Range.Start.Character, c.Range.End.Line, c.Range.End.Character)
		}
		text = text[:sp.Start] + c.Text + text[sp.End:]
	}
	return text, nil
}
