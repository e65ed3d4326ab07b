package token

import "unicode/utf8"

// Tracker maps byte offsets to Position values. It is built incrementally
// as the lexer advances through the source via monotonic appends, and
// supports random-access queries via a binary search over the recorded
// line starts (O(log n) via a sorted line-start index).
type Tracker struct {
	src        []byte
	lineStarts []int // byte offset of the first byte of each line; lineStarts[0] == 0
}

// NewTracker creates a position tracker over src. The tracker does not copy
// src; callers must not mutate it afterwards.
func NewTracker(src []byte) *Tracker {
	return &Tracker{src: src, lineStarts: []int{0}}
}

// NoteNewline records that a newline byte was consumed ending at byte
// offset nextLineStart (the offset of the first byte of the following
// line). The lexer calls this each time it advances past a '\n', which
// keeps the line index monotonic and the amortised cost O(1) per line.
func (t *Tracker) NoteNewline(nextLineStart int) {
	if n := len(t.lineStarts); n == 0 || t.lineStarts[n-1] < nextLineStart {
		t.lineStarts = append(t.lineStarts, nextLineStart)
	}
}

// Position resolves a byte offset to a line/column Position. Column counts
// Unicode code points from the start of the line, not bytes, so it stays
// meaningful for non-ASCII source.
func (t *Tracker) Position(offset int) Position {
	line := searchLine(t.lineStarts, offset)
	lineStart := t.lineStarts[line]
	col := utf8.RuneCount(t.src[lineStart:min(offset, len(t.src))]) + 1
	return Position{Offset: offset, Line: line + 1, Column: col}
}

// Span builds a Span from a half-open byte range, resolving both ends.
func (t *Tracker) Span(start, end int) Span {
	return Span{Start: start, End: end, StartPos: t.Position(start), EndPos: t.Position(end)}
}

// searchLine returns the index i such that lineStarts[i] <= x, maximal.
func searchLine(lineStarts []int, x int) int {
	i, j := 0, len(lineStarts)
	for i < j {
		h := i + (j-i)/2
		if lineStarts[h] <= x {
			i = h + 1
		} else {
			j = h
		}
	}
	return i - 1
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
