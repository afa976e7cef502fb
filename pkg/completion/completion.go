// Package completion computes editor completions from a ranked list of raw
// backend suggestions.
//
// The backend (for DuckDB, the sql_auto_complete table function) is asked for
// suggestions for the line text before the cursor. Complete picks the token
// boundary reported by the first suggestion, drops suggestions anchored
// elsewhere, and adapts each label to the casing the user is typing in.
package completion

import (
	"context"
)

// Suggestion is a raw candidate returned by a backend.
type Suggestion struct {
	// Label is the candidate text in the backend's casing.
	Label string
	// Start is the byte offset in the line prefix where the matched token
	// begins.
	Start int
	// Source is the line prefix the suggestion was computed for.
	Source string
}

// Result is a completion the editor can apply: replace the text between
// From and the cursor with one of Options.
type Result struct {
	From    int
	Options []string
}

// Request describes the editor state a completion is computed for.
type Request struct {
	// Line is the text of the cursor's line.
	Line string
	// Cursor is the byte offset of the cursor within Line.
	Cursor int
	// LineStart is the document offset of Line's first byte. Result.From is
	// reported relative to the document.
	LineStart int
	// Explicit is set when the user asked for completion instead of it
	// firing while typing.
	Explicit bool
}

// Prefix returns the line text before the cursor.
func (r Request) Prefix() string {
	c := r.Cursor
	if c < 0 {
		c = 0
	}
	if c > len(r.Line) {
		c = len(r.Line)
	}
	return r.Line[:c]
}

// Fetcher returns ranked suggestions for a line prefix.
type Fetcher func(ctx context.Context, prefix string) ([]Suggestion, error)

// Complete asks fetch for suggestions and shapes them into a Result. It
// reports false when nothing should be offered: an empty prefix on an
// implicit request, a failing or cancelled fetch, or no candidates.
func Complete(ctx context.Context, req Request, fetch Fetcher) (Result, bool) {
	prefix := req.Prefix()
	if prefix == "" && !req.Explicit {
		return Result{}, false
	}
	if fetch == nil {
		return Result{}, false
	}

	raw, err := fetch(ctx, prefix)
	if err != nil || ctx.Err() != nil || len(raw) == 0 {
		return Result{}, false
	}
	return Match(prefix, req.LineStart, raw), true
}

// Match builds a Result from raw suggestions for prefix. raw must not be
// empty. Only suggestions sharing the first suggestion's Start are kept, in
// their original order.
func Match(prefix string, lineStart int, raw []Suggestion) Result {
	anchor := raw[0].Start
	boundary := anchor
	if boundary < 0 {
		boundary = 0
	}
	if boundary > len(prefix) {
		boundary = len(prefix)
	}

	typed := prefix[boundary:]
	shout := isShoutCase(typed, prefix)

	options := make([]string, 0, len(raw))
	for _, s := range raw {
		if s.Start != anchor {
			continue
		}
		if shout {
			options = append(options, s.Label)
		} else {
			options = append(options, MatchCase(typed, s.Label))
		}
	}

	return Result{From: lineStart + boundary, Options: options}
}
