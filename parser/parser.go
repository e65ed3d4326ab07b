// Package parser builds an AST from a shell token stream: a recursive-descent grammar with one token of lookahead,
// consuming exactly the Token slice produced by the lexer package.
package parser

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/lexer"
	"github.com/gopsh/shcore/token"
)

// ErrorMode controls what the parser does when it hits a syntax error.
type ErrorMode int

const (
	// ModeStrict aborts parsing at the first error.
	ModeStrict ErrorMode = iota
	// ModeCollecting records every error it can recover from, resyncing
	// at the next statement boundary, and returns everything it managed
	// to parse alongside the accumulated error list.
	ModeCollecting
	// ModeSuggesting behaves like ModeCollecting; the distinction exists
	// for callers that want to label recovered errors as candidates for
	// an auto-fix rather than hard failures.
	ModeSuggesting
)

// Variant selects which dialect of keywords and constructs are accepted.
type Variant int

const (
	VariantBash Variant = iota
	VariantPosix
	VariantPermissive
)

// Config controls parsing. The zero value parses bash in ModeStrict.
type Config struct {
	Mode            ErrorMode
	Variant         Variant
	MaxNestingDepth int
	Log             *logrus.Logger
}

func (c Config) lexerConfig() lexer.Config {
	return lexer.Config{MaxNestingDepth: c.MaxNestingDepth, Log: c.Log}
}

// Parse lexes and parses src in one call, returning the resulting program
// together with any errors. In ModeStrict a lexing or syntax error ends
// the parse and is returned as the only error with a nil program; an error
// from parsing a nested substitution body is appended after the main parse,
// with the program still returned. In the collecting modes the program
// reflects everything parsed despite the listed errors.
func Parse(src []byte, cfg Config) (*ast.Program, []error) {
	toks, bodies, err := lexer.Tokenize(src, cfg.lexerConfig())
	if err != nil {
		return nil, []error{err}
	}
	p := &parser{toks: toks, bodies: bodies, cfg: cfg}
	prog, errs := p.run()
	if prog != nil {
		if err := resolveAll(prog, bodies, cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return prog, errs
}

type parser struct {
	toks   []lexer.Token
	pos    int
	cfg    Config
	bodies map[string]string
	errs   []error
	depth  int
}

func (p *parser) run() (prog *ast.Program, errs []error) {
	if p.cfg.Mode == ModeStrict {
		defer func() {
			if r := recover(); r != nil {
				ab, ok := r.(abortParse)
				if !ok {
					panic(r)
				}
				prog = nil
				errs = []error{ab.err}
			}
		}()
	}
	prog = p.parseProgram()
	return prog, p.errs
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) is(k token.Kind) bool { return p.cur().Kind == k }

func (p *parser) isAny(ks ...token.Kind) bool {
	for _, k := range ks {
		if p.is(k) {
			return true
		}
	}
	return false
}

func (p *parser) accept(k token.Kind) (lexer.Token, bool) {
	if p.is(k) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

// expect consumes the current token if it matches k, else records a
// MissingKeyword error (for keyword kinds) or UnexpectedToken error and
// returns the current token without consuming it.
func (p *parser) expect(k token.Kind) lexer.Token {
	if t, ok := p.accept(k); ok {
		return t
	}
	if isKeywordKind(k) {
		p.fail(errf(MissingKeyword, p.cur().Sp.StartPos, "expected %s, found %s", k, p.cur().Kind))
	} else {
		p.fail(errf(UnexpectedToken, p.cur().Sp.StartPos, "expected %s, found %s", k, p.cur().Kind))
	}
	return p.cur()
}

func isKeywordKind(k token.Kind) bool {
	switch k {
	case token.IF, token.THEN, token.ELSE, token.ELIF, token.FI, token.WHILE, token.UNTIL,
		token.DO, token.DONE, token.FOR, token.IN, token.CASE, token.ESAC, token.FUNCTION,
		token.SELECT, token.TIME, token.LET, token.COPROC:
		return true
	}
	return false
}

// fail records a syntax error. In ModeStrict it unwinds immediately via
// panic; otherwise it records the error and leaves recovery to the
// caller (typically skipToStatementBoundary).
func (p *parser) fail(e *Error) {
	p.errs = append(p.errs, e)
	if p.cfg.Mode == ModeStrict {
		panic(abortParse{e})
	}
}

// skipToStatementBoundary resyncs after a recorded error in a collecting
// mode by discarding tokens until a NEWLINE, SEMI, or EOF.
func (p *parser) skipToStatementBoundary() {
	for !p.isAny(token.NEWLINE, token.SEMI, token.EOF) {
		p.advance()
	}
}

func (p *parser) pushDepth() {
	p.depth++
	if p.depth > p.maxDepth() {
		p.fail(errf(UnexpectedToken, p.cur().Sp.StartPos, "nesting exceeds maximum depth %d", p.maxDepth()))
	}
}

func (p *parser) popDepth() { p.depth-- }

func (p *parser) maxDepth() int {
	if p.cfg.MaxNestingDepth > 0 {
		return p.cfg.MaxNestingDepth
	}
	return 200
}

// skipNewlines consumes any run of NEWLINE tokens, which the grammar
// allows in most places a linebreak is permitted between constructs.
func (p *parser) skipNewlines() {
	for p.is(token.NEWLINE) {
		p.advance()
	}
}

// skipSeparators consumes NEWLINE and SEMI tokens, used between
// top-level program items and inside statement lists.
func (p *parser) skipSeparators() {
	for p.isAny(token.NEWLINE, token.SEMI) {
		p.advance()
	}
}

func spanFrom(start, end token.Span) token.Span {
	return token.Span{Start: start.Start, End: end.End, StartPos: start.StartPos, EndPos: end.EndPos}
}

// prevSpan is the span of the token just consumed, used as the end point
// for a node whose last token has already been advanced past.
func (p *parser) prevSpan() token.Span {
	if p.pos == 0 {
		return p.toks[0].Sp
	}
	return p.toks[p.pos-1].Sp
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func isNameCont(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
