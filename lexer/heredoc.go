package lexer

import (
	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

// lexHeredocDelim lexes the word immediately following a HEREDOC or
// HEREDOC_STRIP operator. It is always treated as a single WORD token
// (never a keyword), registers a pending heredoc to be collected once the
// current line's NEWLINE is reached, and stamps the token with the key
// the parser should use to look up the collected body afterwards.
func (l *lexer) lexHeredocDelim(strip bool) (Token, error) {
	start := l.pos
	word, _, err := l.lexWord()
	if err != nil {
		return Token{}, err
	}
	delim := lexemeOf(word)
	quoted := wordIsQuoted(word)

	l.hdSeq++
	key := delimKey(delim, l.hdSeq)
	l.heredocs = append(l.heredocs, heredocPending{key: key, delim: delim, strip: strip, quoted: quoted})

	return Token{
		Kind:          token.WORD,
		Lexeme:        delim,
		Word:          word,
		Quote:         word.Outer,
		Sp:            l.span(start),
		HeredocKey:    key,
		HeredocQuoted: quoted,
	}, nil
}

// wordIsQuoted reports whether any part of the delimiter word was quoted,
// which disables expansion of the collected heredoc body.
func wordIsQuoted(w *ast.Word) bool {
	if w.Outer != token.QuoteNone {
		return true
	}
	for _, p := range w.Parts {
		if lit, ok := p.(*ast.Literal); ok && lit.Quote != token.QuoteNone {
			return true
		}
	}
	return false
}

func delimKey(delim string, seq int) string {
	return delim + "#" + itoa(seq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
