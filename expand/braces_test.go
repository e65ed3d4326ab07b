package expand

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

func litWord(s string) *ast.Word {
	return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Text: s, Quote: token.QuoteNone}}}
}

func litTexts(t *testing.T, words []*ast.Word) []string {
	t.Helper()
	out := make([]string, len(words))
	for i, w := range words {
		s, ok := w.Lit()
		require.True(t, ok, "word %d is not a single literal", i)
		out[i] = s
	}
	return out
}

func TestBracesCommaList(t *testing.T) {
	got := litTexts(t, Braces(litWord("foo{bar,baz}")))
	require.Equal(t, []string{"foobar", "foobaz"}, got)
}

func TestBracesNoExpansionWithoutComma(t *testing.T) {
	got := litTexts(t, Braces(litWord("foo{bar}")))
	require.Equal(t, []string{"foo{bar}"}, got)
}

func TestBracesIntegerSequence(t *testing.T) {
	got := litTexts(t, Braces(litWord("item{1..3}")))
	require.Equal(t, []string{"item1", "item2", "item3"}, got)
}

func TestBracesIntegerSequenceDescending(t *testing.T) {
	got := litTexts(t, Braces(litWord("item{3..1}")))
	require.Equal(t, []string{"item3", "item2", "item1"}, got)
}

func TestBracesLetterSequence(t *testing.T) {
	got := litTexts(t, Braces(litWord("{a..e}")))
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestBracesSequenceWithStep(t *testing.T) {
	got := litTexts(t, Braces(litWord("{0..10..5}")))
	require.Equal(t, []string{"0", "5", "10"}, got)
}

func TestBracesZeroPadded(t *testing.T) {
	got := litTexts(t, Braces(litWord("{01..03}")))
	require.Equal(t, []string{"01", "02", "03"}, got)
}

func TestBracesMultipleGroups(t *testing.T) {
	got := litTexts(t, Braces(litWord("{a,b}-{1,2}")))
	require.ElementsMatch(t, []string{"a-1", "a-2", "b-1", "b-2"}, got)
}

func TestBracesNested(t *testing.T) {
	got := litTexts(t, Braces(litWord("{a,b{c,d}}")))
	require.ElementsMatch(t, []string{"a", "bc", "bd"}, got)
}
