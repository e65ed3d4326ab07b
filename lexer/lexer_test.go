package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

func kinds(toks []Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeOperators(t *testing.T) {
	cases := []struct {
		in   string
		want []token.Kind
	}{
		{"a && b", []token.Kind{token.WORD, token.AND_IF, token.WORD, token.EOF}},
		{"a || b", []token.Kind{token.WORD, token.OR_IF, token.WORD, token.EOF}},
		{"a | b", []token.Kind{token.WORD, token.PIPE, token.WORD, token.EOF}},
		{"a;;b", []token.Kind{token.WORD, token.DSEMI, token.WORD, token.EOF}},
		{"a;&b", []token.Kind{token.WORD, token.SEMI_AMP, token.WORD, token.EOF}},
		{"a;;&b", []token.Kind{token.WORD, token.DSEMI_AMP, token.WORD, token.EOF}},
		{"a & b", []token.Kind{token.WORD, token.AMP, token.WORD, token.EOF}},
		{"( a )", []token.Kind{token.LPAREN, token.WORD, token.RPAREN, token.EOF}},
		{"((1))", []token.Kind{token.DLPAREN, token.WORD, token.DRPAREN, token.EOF}},
		{"[[ a ]]", []token.Kind{token.DLBRACK, token.WORD, token.DRBRACK, token.EOF}},
		{"a << b\nbody\nb\n", []token.Kind{token.WORD, token.HEREDOC, token.WORD, token.NEWLINE, token.EOF}},
	}
	for _, c := range cases {
		toks, _, err := Tokenize([]byte(c.in), Config{})
		require.NoError(t, err, c.in)
		if diff := cmp.Diff(c.want, kinds(toks)); diff != "" {
			t.Errorf("%q: kinds mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestTokenizeKeywords(t *testing.T) {
	toks, _, err := Tokenize([]byte("if a; then b; fi"), Config{})
	require.NoError(t, err)
	want := []token.Kind{token.IF, token.WORD, token.SEMI, token.THEN, token.WORD, token.SEMI, token.FI, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeKeywordNotAtCommandPosition(t *testing.T) {
	toks, _, err := Tokenize([]byte("echo if"), Config{})
	require.NoError(t, err)
	want := []token.Kind{token.WORD, token.WORD, token.EOF}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeAssignmentWord(t *testing.T) {
	toks, _, err := Tokenize([]byte("FOO=bar"), Config{})
	require.NoError(t, err)
	require.Len(t, toks, 2)
	require.Equal(t, token.ASSIGNMENT_WORD, toks[0].Kind)
	require.Equal(t, "FOO=bar", toks[0].Lexeme)
}

func TestTokenizeArrayAssignWord(t *testing.T) {
	toks, _, err := Tokenize([]byte("FOO=(a b c)"), Config{})
	require.NoError(t, err)
	require.Equal(t, token.ARRAY_ASSIGN_WORD, toks[0].Kind)
	require.Len(t, toks[0].Word.Parts, 2)
	arr, ok := toks[0].Word.Parts[1].(interface{ Span() token.Span })
	require.True(t, ok)
	_ = arr
}

func TestTokenizeSingleQuote(t *testing.T) {
	toks, _, err := Tokenize([]byte(`echo 'a b'`), Config{})
	require.NoError(t, err)
	require.Equal(t, token.WORD, toks[1].Kind)
	lit, ok := toks[1].Word.Lit()
	require.True(t, ok)
	require.Equal(t, "a b", lit)
}

func TestTokenizeVarExpansion(t *testing.T) {
	toks, _, err := Tokenize([]byte(`echo "$HOME/x"`), Config{})
	require.NoError(t, err)
	w := toks[1].Word
	require.Len(t, w.Parts, 3)
	lead, ok := w.Parts[0].(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, token.QuoteDouble, lead.Quote)
	require.Equal(t, "", lead.Text)
	v, ok := w.Parts[1].(interface{ Span() token.Span })
	require.True(t, ok)
	_ = v
}

func TestTokenizeUnterminatedQuote(t *testing.T) {
	_, _, err := Tokenize([]byte(`echo 'unterminated`), Config{})
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, UnterminatedQuote, lexErr.Kind)
}

func TestTokenizeUnterminatedHeredoc(t *testing.T) {
	_, _, err := Tokenize([]byte("cat <<EOF\nbody\n"), Config{})
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, UnterminatedHeredoc, lexErr.Kind)
}

func TestTokenizeHeredocBody(t *testing.T) {
	toks, bodies, err := Tokenize([]byte("cat <<EOF\nhello\nEOF\n"), Config{})
	require.NoError(t, err)
	var key string
	for _, tok := range toks {
		if tok.HeredocKey != "" {
			key = tok.HeredocKey
		}
	}
	require.NotEmpty(t, key)
	require.Equal(t, "hello\n", bodies[key])
}

func TestTokenizeNestingTooDeep(t *testing.T) {
	deep := ""
	for i := 0; i < 10; i++ {
		deep += "$("
	}
	deep += "x"
	for i := 0; i < 10; i++ {
		deep += ")"
	}
	_, _, err := Tokenize([]byte(deep), Config{MaxNestingDepth: 3})
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, NestingTooDeep, lexErr.Kind)
}
