package expand

import (
	"strconv"
	"strings"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

// Braces performs brace expansion, the first step of word expansion, on a
// single word, returning one word per combination. Rather than splitting
// "{a,b,c}" into a dedicated word part at parse time and expanding that
// part later, brace groups are recognised and expanded in one
// expand-time pass directly over the text of each unquoted Literal
// part. A brace group that spans more than one WordPart — e.g. one
// side of the comma coming from a parameter expansion — is not
// recognised, matching real shells' own refusal to brace-expand across
// anything but literal text.
func Braces(word *ast.Word) []*ast.Word {
	words := []*ast.Word{word}
	for {
		var next []*ast.Word
		changed := false
		for _, w := range words {
			if expanded, ok := expandOneBrace(w); ok {
				next = append(next, expanded...)
				changed = true
			} else {
				next = append(next, w)
			}
		}
		words = next
		if !changed {
			return words
		}
	}
}

// expandOneBrace finds the first brace-expandable Literal part in w and
// returns the words produced by expanding just that one group.
func expandOneBrace(w *ast.Word) ([]*ast.Word, bool) {
	for i, wp := range w.Parts {
		lit, ok := wp.(*ast.Literal)
		if !ok || lit.Quote != token.QuoteNone {
			continue
		}
		prefix, items, suffix, ok := splitBraceGroup(lit.Text)
		if !ok {
			continue
		}
		var out []*ast.Word
		for _, item := range items {
			parts := make([]ast.WordPart, 0, len(w.Parts))
			parts = append(parts, w.Parts[:i]...)
			parts = append(parts, &ast.Literal{Text: prefix + item + suffix, Quote: token.QuoteNone, Sp: lit.Sp})
			parts = append(parts, w.Parts[i+1:]...)
			out = append(out, &ast.Word{Parts: parts, Outer: w.Outer, Sp: w.Sp})
		}
		return out, true
	}
	return nil, false
}

// splitBraceGroup scans text for the first "{...}" group that is
// either a comma list with at least two alternatives or a "first..last"
// sequence, and reports the text surrounding it plus its expansion.
func splitBraceGroup(text string) (prefix string, items []string, suffix string, ok bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := matchingBrace(text, start)
		if end < 0 {
			continue
		}
		inner := text[start+1 : end]
		if seq, ok := expandSequence(inner); ok {
			return text[:start], seq, text[end+1:], true
		}
		if parts, ok := splitTopLevelCommas(inner); ok && len(parts) > 1 {
			return text[:start], parts, text[end+1:], true
		}
	}
	return "", nil, "", false
}

func matchingBrace(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevelCommas(s string) ([]string, bool) {
	depth := 0
	start := 0
	var parts []string
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts, true
}

// expandSequence recognises "first..last" and "first..last..step" for
// both integers ("1..5", "5..1..2") and single letters ("a..e").
func expandSequence(s string) ([]string, bool) {
	fields := strings.Split(s, "..")
	if len(fields) != 2 && len(fields) != 3 {
		return nil, false
	}
	step := 1
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n == 0 {
			return nil, false
		}
		step = n
	}
	if n1, err1 := strconv.Atoi(fields[0]); err1 == nil {
		n2, err2 := strconv.Atoi(fields[1])
		if err2 != nil {
			return nil, false
		}
		width := 0
		if hasLeadingZero(fields[0]) || hasLeadingZero(fields[1]) {
			width = maxLen(digitsOnly(fields[0]), digitsOnly(fields[1]))
		}
		return intSequence(n1, n2, step, width), true
	}
	if len(fields[0]) == 1 && len(fields[1]) == 1 && isAlpha(fields[0][0]) && isAlpha(fields[1][0]) {
		return letterSequence(fields[0][0], fields[1][0], step), true
	}
	return nil, false
}

// hasLeadingZero reports whether s spells a number with a zero-padded
// width, e.g. "01" or "-007", as opposed to a bare "0".
func hasLeadingZero(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	return len(s) > 1 && s[0] == '0'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func intSequence(from, to, step, width int) []string {
	if step < 0 {
		step = -step
	}
	var out []string
	if from <= to {
		for n := from; n <= to; n += step {
			out = append(out, padInt(n, width))
		}
	} else {
		for n := from; n >= to; n -= step {
			out = append(out, padInt(n, width))
		}
	}
	return out
}

func digitsOnly(s string) string {
	return strings.TrimPrefix(s, "-")
}

func maxLen(a, b string) int {
	if len(a) > len(b) {
		return len(a)
	}
	return len(b)
}

func padInt(n, width int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	digits := s
	if neg {
		digits = s[1:]
	}
	for len(digits) < width {
		digits = "0" + digits
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func letterSequence(from, to byte, step int) []string {
	if step < 0 {
		step = -step
	}
	var out []string
	if from <= to {
		for c := from; c <= to; c += byte(step) {
			out = append(out, string(c))
		}
	} else {
		for c := from; c >= to; c -= byte(step) {
			out = append(out, string(c))
		}
	}
	return out
}
