// Package lexer turns shell source into a flat token stream. It is the
// first of the three pipeline stages: tokens carry fully resolved Word
// values (composite literal/expansion parts already split out) so the
// parser never has to re-scan quoting or expansion boundaries itself.
package lexer

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

// Token is one lexical token: its Kind, the raw source it was lexed from,
// and — for WORD/ASSIGNMENT_WORD/ARRAY_ASSIGN_WORD kinds — the resolved
// Word value carrying its literal/expansion parts.
type Token struct {
	Kind   token.Kind
	Lexeme string
	Word   *ast.Word // nil for tokens that aren't word-shaped
	Quote  token.QuoteKind
	Sp     token.Span

	// HeredocKey is set on the delimiter WORD token immediately following
	// a HEREDOC/HEREDOC_STRIP operator token; it is the key under which
	// Tokenize's returned body map stores that heredoc's collected body.
	HeredocKey    string
	HeredocQuoted bool
}

// Config controls lexing. The zero value is usable; MaxNestingDepth
// defaults to 200 when unset. Log, if set, receives a debug-level entry
// per token produced — left nil in normal use, since tracing every token
// is only useful while debugging the lexer itself.
type Config struct {
	MaxNestingDepth int
	Log             *logrus.Logger
}

func (c Config) maxDepth() int {
	if c.MaxNestingDepth > 0 {
		return c.MaxNestingDepth
	}
	return 200
}

// heredocPending is a heredoc redirection recorded while scanning a line,
// whose body is collected once the line's NEWLINE is reached.
type heredocPending struct {
	key      string
	delim    string
	strip    bool // <<-, strips leading tabs and allows an indented delimiter
	quoted   bool // delimiter was quoted: body is literal, no expansion
}

// Tokenize lexes the whole of src and returns its token stream together
// with the collected heredoc bodies, keyed by the HeredocKey recorded on
// the delimiter WORD token that follows each HEREDOC/HEREDOC_STRIP
// operator. The last token is always
// EOF, unless an error is returned first.
func Tokenize(src []byte, cfg Config) ([]Token, map[string]string, error) {
	l := &lexer{
		src:     src,
		tracker: token.NewTracker(src),
		cfg:     cfg,
		bodies:  map[string]string{},
		atCmd:   true,
	}
	for {
		tok, err := l.next()
		if err != nil {
			return l.out, l.bodies, err
		}
		if cfg.Log != nil {
			cfg.Log.WithField("kind", tok.Kind).Debug("lexer: token")
		}
		l.out = append(l.out, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return l.out, l.bodies, nil
}

type lexer struct {
	src     []byte
	pos     int
	tracker *token.Tracker
	cfg     Config
	out     []Token
	bodies  map[string]string

	atCmd    bool // next word begins a command position (keyword recognition)
	depth    int  // nesting depth of $()/${}/$(())/<()/>()/array literals/extglobs — guards against runaway recursion
	heredocs []heredocPending
	hdSeq    int

	pendingHeredocStrip *bool // non-nil means the next word is a heredoc delimiter
}

func (l *lexer) pos0() token.Position { return l.tracker.Position(l.pos) }

func (l *lexer) errorf(kind ErrorKind, format string, args ...interface{}) error {
	return errf(kind, l.pos0(), format, args...)
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) pushDepth() error {
	l.depth++
	if l.depth > l.cfg.maxDepth() {
		return l.errorf(NestingTooDeep, "nesting exceeds maximum depth %d", l.cfg.maxDepth())
	}
	return nil
}

func (l *lexer) popDepth() { l.depth-- }

// next lexes and returns the following token.
func (l *lexer) next() (Token, error) {
	if err := l.skipBlanksAndComments(); err != nil {
		return Token{}, err
	}
	start := l.pos
	if l.eof() {
		return l.tok(token.EOF, start), nil
	}
	b := l.peekByte()

	if b == '\n' {
		l.pos++
		l.tracker.NoteNewline(l.pos)
		tok := l.tok(token.NEWLINE, start)
		if err := l.collectHeredocs(); err != nil {
			return Token{}, err
		}
		l.atCmd = true
		return tok, nil
	}

	if op, ok := l.lexOperator(); ok {
		l.atCmd = operatorEntersCommandPosition(op)
		tok := l.tokOp(op, start)
		if op == token.HEREDOC || op == token.HEREDOC_STRIP {
			strip := op == token.HEREDOC_STRIP
			l.pendingHeredocStrip = &strip
		}
		return tok, nil
	}

	if l.pendingHeredocStrip != nil {
		strip := *l.pendingHeredocStrip
		l.pendingHeredocStrip = nil
		return l.lexHeredocDelim(strip)
	}

	word, kind, err := l.lexWord()
	if err != nil {
		return Token{}, err
	}
	atCmd := l.atCmd || looksLikeKeywordAfterReserved(l.out)
	l.atCmd = false
	if atCmd && kind == token.WORD {
		if lit, ok := word.Lit(); ok {
			if kw, ok := token.Keywords[lit]; ok {
				return Token{Kind: kw, Lexeme: lit, Quote: token.QuoteNone, Sp: l.span(start)}, nil
			}
		}
	}
	// a word immediately followed by '(' with no space, at command
	// position, and containing no expansions, is a function-definition
	// name; the parser disambiguates that from the token shape alone
	// (ASSIGNMENT_WORD vs WORD vs the following LPAREN with no gap), so
	// no separate token kind is needed here.
	return Token{Kind: kind, Lexeme: lexemeOf(word), Word: word, Quote: word.Outer, Sp: word.Sp}, nil
}

// looksLikeKeywordAfterReserved reports whether the previous token is a
// keyword that leaves the next word at command position, so that e.g. the
// word after "if", "then", "do" or "in" can itself be a keyword.
func looksLikeKeywordAfterReserved(out []Token) bool {
	if len(out) == 0 {
		return false
	}
	switch out[len(out)-1].Kind {
	case token.IN, token.DO, token.THEN, token.ELSE, token.ELIF, token.IF, token.WHILE, token.UNTIL:
		return true
	}
	return false
}

func operatorEntersCommandPosition(k token.Kind) bool {
	switch k {
	case token.SEMI, token.AMP, token.AND_IF, token.OR_IF, token.PIPE, token.PIPE_AMP,
		token.LPAREN, token.LBRACE, token.BANG, token.DSEMI, token.SEMI_AMP, token.DSEMI_AMP,
		token.DLPAREN, token.DLBRACK:
		return true
	}
	return false
}

func (l *lexer) tok(k token.Kind, start int) Token {
	return Token{Kind: k, Sp: l.span(start)}
}

func (l *lexer) tokOp(k token.Kind, start int) Token {
	return Token{Kind: k, Lexeme: string(l.src[start:l.pos]), Sp: l.span(start)}
}

func (l *lexer) span(start int) token.Span { return l.tracker.Span(start, l.pos) }

func lexemeOf(w *ast.Word) string {
	var sb strings.Builder
	for _, p := range w.Parts {
		if lit, ok := p.(*ast.Literal); ok {
			sb.WriteString(lit.Text)
		}
	}
	return sb.String()
}

// skipBlanksAndComments consumes spaces, tabs, backslash-newline line
// continuations, and '#' comments, but stops at a real newline (which is
// itself significant).
func (l *lexer) skipBlanksAndComments() error {
	for !l.eof() {
		switch b := l.peekByte(); {
		case b == ' ' || b == '\t' || b == '\r':
			l.pos++
		case b == '\\' && l.peekAt(1) == '\n':
			l.pos += 2
			l.tracker.NoteNewline(l.pos)
		case b == '#':
			for !l.eof() && l.peekByte() != '\n' {
				l.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

// collectHeredocs runs the second phase of heredoc handling: for every heredoc recorded on the line just ended, read
// lines until one matches the delimiter exactly (or, for <<-, after
// stripping leading tabs), store the joined body, and pop it.
func (l *lexer) collectHeredocs() error {
	pending := l.heredocs
	l.heredocs = nil
	for _, hd := range pending {
		var sb strings.Builder
		for {
			lineStart := l.pos
			for !l.eof() && l.src[l.pos] != '\n' {
				l.pos++
			}
			line := string(l.src[lineStart:l.pos])
			atEOF := l.eof()
			if !atEOF {
				l.pos++ // consume newline
				l.tracker.NoteNewline(l.pos)
			}
			cmp := line
			if hd.strip {
				cmp = strings.TrimLeft(line, "\t")
			}
			if cmp == hd.delim {
				break
			}
			if hd.strip {
				sb.WriteString(strings.TrimLeft(line, "\t"))
			} else {
				sb.WriteString(line)
			}
			sb.WriteByte('\n')
			if atEOF {
				return l.errorf(UnterminatedHeredoc, "heredoc %q not terminated before end of input", hd.delim)
			}
		}
		l.bodies[hd.key] = sb.String()
	}
	return nil
}
