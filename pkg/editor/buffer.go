// Package editor models the query editor's text state: the buffer, the
// cursor and an optional selection. It derives the query to run and the
// completion request for the cursor position, and applies completions.
package editor

import (
	"strings"

	"github.com/leapstack-labs/sqlpad/pkg/completion"
)

// Range is a half-open byte range [From, To) of the buffer. From may be
// greater than To when the selection was made backwards.
type Range struct {
	From int
	To   int
}

// Empty reports whether the range selects nothing.
func (r Range) Empty() bool { return r.From == r.To }

// Normalize returns the range ordered and clamped to [0, n].
func (r Range) Normalize(n int) Range {
	if r.From > r.To {
		r.From, r.To = r.To, r.From
	}
	r.From = clamp(r.From, 0, n)
	r.To = clamp(r.To, 0, n)
	return r
}

// Buffer is the editor content. Offsets are byte offsets into Text.
type Buffer struct {
	Text      string
	Cursor    int
	Selection Range
}

// New returns a buffer with the cursor at the end of text.
func New(text string) Buffer {
	return Buffer{Text: text, Cursor: len(text)}
}

// QueryText returns the text to execute: the selection when one is active,
// otherwise the whole buffer.
func (b Buffer) QueryText() string {
	sel := b.Selection.Normalize(len(b.Text))
	if !sel.Empty() {
		return b.Text[sel.From:sel.To]
	}
	return b.Text
}

// HasSelection reports whether a non-empty selection is active.
func (b Buffer) HasSelection() bool {
	return !b.Selection.Normalize(len(b.Text)).Empty()
}

// LineBeforeCursor returns the cursor's line up to the cursor, the document
// offset where that line starts, and the cursor column in bytes.
func (b Buffer) LineBeforeCursor() (line string, lineStart, col int) {
	cur := clamp(b.Cursor, 0, len(b.Text))
	lineStart = strings.LastIndexByte(b.Text[:cur], '\n') + 1
	return b.Text[lineStart:cur], lineStart, cur - lineStart
}

// CompletionRequest builds the request for the cursor position.
func (b Buffer) CompletionRequest(explicit bool) completion.Request {
	line, start, col := b.LineBeforeCursor()
	return completion.Request{
		Line:      line,
		Cursor:    col,
		LineStart: start,
		Explicit:  explicit,
	}
}

// Apply replaces the text between res.From and the cursor with option and
// places the cursor after it. The selection is cleared.
func (b Buffer) Apply(res completion.Result, option string) Buffer {
	cur := clamp(b.Cursor, 0, len(b.Text))
	from := clamp(res.From, 0, cur)

	text := b.Text[:from] + option + b.Text[cur:]
	return Buffer{Text: text, Cursor: from + len(option)}
}

// Insert inserts s at the cursor, replacing the selection if any.
func (b Buffer) Insert(s string) Buffer {
	from, to := clamp(b.Cursor, 0, len(b.Text)), clamp(b.Cursor, 0, len(b.Text))
	if b.HasSelection() {
		sel := b.Selection.Normalize(len(b.Text))
		from, to = sel.From, sel.To
	}
	return Buffer{Text: b.Text[:from] + s + b.Text[to:], Cursor: from + len(s)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
