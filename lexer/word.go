package lexer

import (
	"strings"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

// lexWord scans one WORD/ASSIGNMENT_WORD/ARRAY_ASSIGN_WORD token starting
// at the current position, resolving every quote and expansion boundary
// inline so the result already carries its parts.
func (l *lexer) lexWord() (*ast.Word, token.Kind, error) {
	start := l.pos
	kind := token.WORD
	var parts []ast.WordPart

	if prefix, arrayForm, ok := l.tryAssignPrefix(); ok {
		prefixSp := l.tracker.Span(start, l.pos)
		parts = append(parts, &ast.Literal{Text: prefix, Quote: token.QuoteNone, Sp: prefixSp})
		if arrayForm {
			kind = token.ARRAY_ASSIGN_WORD
			arr, err := l.scanArrayLiteral()
			if err != nil {
				return nil, 0, err
			}
			parts = append(parts, arr)
			return &ast.Word{Parts: parts, Outer: token.QuoteNone, Sp: l.tracker.Span(start, l.pos)}, kind, nil
		}
		kind = token.ASSIGNMENT_WORD
	}

	var lit strings.Builder
	litStart := l.pos

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, &ast.Literal{Text: lit.String(), Quote: token.QuoteNone, Sp: l.tracker.Span(litStart, l.pos)})
			lit.Reset()
		}
	}

	for !l.eof() {
		b := l.peekByte()
		isProcSub := (b == '<' || b == '>') && l.peekAt(1) == '('
		if wordBreak(b) && !isProcSub {
			break
		}
		switch {
		case b == '\\':
			if l.peekAt(1) == '\n' {
				l.pos += 2
				l.tracker.NoteNewline(l.pos)
				continue
			}
			if l.pos+1 >= len(l.src) {
				return nil, 0, l.errorf(InvalidEscape, "trailing backslash at end of input")
			}
			if lit.Len() == 0 {
				litStart = l.pos
			}
			lit.WriteByte(l.src[l.pos+1])
			l.pos += 2

		case b == '\'':
			flush()
			part, err := l.scanSingleQuote()
			if err != nil {
				return nil, 0, err
			}
			parts = append(parts, part)

		case b == '"':
			flush()
			dqParts, err := l.scanDoubleQuote()
			if err != nil {
				return nil, 0, err
			}
			parts = append(parts, dqParts...)

		case b == '`':
			flush()
			bqStart := l.pos
			l.pos++
			raw, err := l.scanBacktickRaw()
			if err != nil {
				return nil, 0, err
			}
			parts = append(parts, &ast.CmdSubst{Raw: raw, Backtick: true, Sp: l.tracker.Span(bqStart, l.pos)})

		case b == '$':
			flush()
			part, err := l.scanDollar(token.QuoteNone)
			if err != nil {
				return nil, 0, err
			}
			parts = append(parts, part)

		case isProcSub:
			flush()
			part, err := l.scanProcSubst()
			if err != nil {
				return nil, 0, err
			}
			parts = append(parts, part)

		case isExtGlobPrefix(b) && l.peekAt(1) == '(':
			flush()
			part, err := l.scanExtGlob(b)
			if err != nil {
				return nil, 0, err
			}
			parts = append(parts, part)

		default:
			if lit.Len() == 0 {
				litStart = l.pos
			}
			lit.WriteByte(b)
			l.pos++
		}
	}
	flush()
	if len(parts) == 0 {
		parts = append(parts, &ast.Literal{Sp: l.tracker.Span(l.pos, l.pos)})
	}
	return &ast.Word{Parts: parts, Outer: uniformQuote(parts), Sp: l.tracker.Span(start, l.pos)}, kind, nil
}

// uniformQuote reports the single QuoteKind shared by every part, or
// QuoteNone if the word mixes quoting regimes.
func uniformQuote(parts []ast.WordPart) token.QuoteKind {
	q := token.QuoteNone
	for i, p := range parts {
		lit, ok := p.(*ast.Literal)
		if !ok {
			return token.QuoteNone
		}
		if i == 0 {
			q = lit.Quote
		} else if lit.Quote != q {
			return token.QuoteNone
		}
	}
	return q
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameCont(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}

func isSpecialParam(b byte) bool {
	switch b {
	case '@', '*', '#', '?', '-', '$', '!', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}

func isExtGlobPrefix(b byte) bool {
	switch b {
	case '?', '*', '+', '@', '!':
		return true
	}
	return false
}

// tryAssignPrefix looks for "name=" / "name+=" / "name[index]=" /
// "name=(" at the current position without committing unless it finds
// one. On success it advances l.pos past the
// trailing '=' (or leaves it positioned at the '(' for the array form)
// and returns the consumed prefix text.
func (l *lexer) tryAssignPrefix() (prefix string, arrayForm bool, ok bool) {
	j := l.pos
	if j >= len(l.src) || !isNameStart(l.src[j]) {
		return "", false, false
	}
	j++
	for j < len(l.src) && isNameCont(l.src[j]) {
		j++
	}
	if j < len(l.src) && l.src[j] == '[' {
		depth := 1
		k := j + 1
		for k < len(l.src) && depth > 0 {
			switch l.src[k] {
			case '[':
				depth++
			case ']':
				depth--
			}
			k++
		}
		if depth != 0 {
			return "", false, false
		}
		j = k
	}
	if j < len(l.src) && l.src[j] == '+' && j+1 < len(l.src) && l.src[j+1] == '=' {
		j += 2
	} else if j < len(l.src) && l.src[j] == '=' {
		j++
	} else {
		return "", false, false
	}
	array := j < len(l.src) && l.src[j] == '('
	prefix = string(l.src[l.pos:j])
	l.pos = j
	return prefix, array, true
}

// scanArrayLiteral scans "(word word ...)" after an array-assignment "=",
// with the current position on the opening '('.
func (l *lexer) scanArrayLiteral() (*ast.ArrayExpr, error) {
	start := l.pos
	l.pos++ // consume '('
	if err := l.pushDepth(); err != nil {
		return nil, err
	}
	defer l.popDepth()
	var elems []*ast.Word
	for {
		for !l.eof() {
			b := l.peekByte()
			if b == ' ' || b == '\t' || b == '\r' {
				l.pos++
				continue
			}
			if b == '\n' {
				l.pos++
				l.tracker.NoteNewline(l.pos)
				continue
			}
			if b == '#' {
				for !l.eof() && l.peekByte() != '\n' {
					l.pos++
				}
				continue
			}
			break
		}
		if l.eof() {
			return nil, l.errorf(UnterminatedExpansion, "unterminated array assignment, expected ')'")
		}
		if l.peekByte() == ')' {
			l.pos++
			break
		}
		w, _, err := l.lexWord()
		if err != nil {
			return nil, err
		}
		elems = append(elems, w)
	}
	return &ast.ArrayExpr{Elems: elems, Sp: l.tracker.Span(start, l.pos)}, nil
}

// scanSingleQuote scans '...' with the current position on the opening
// quote; no escapes are recognised inside.
func (l *lexer) scanSingleQuote() (*ast.Literal, error) {
	start := l.pos
	l.pos++
	contentStart := l.pos
	for !l.eof() && l.src[l.pos] != '\'' {
		l.pos++
	}
	if l.eof() {
		return nil, l.errorf(UnterminatedQuote, "unterminated single-quoted string")
	}
	text := string(l.src[contentStart:l.pos])
	l.pos++
	return &ast.Literal{Text: text, Quote: token.QuoteSingle, Sp: l.tracker.Span(start, l.pos)}, nil
}

// scanDoubleQuote scans "..." with the current position on the opening
// quote, returning the parts found inside: '$'
// and '`' still introduce expansions, '\' escapes only $ ` " \ and
// newline, everything else is literal.
func (l *lexer) scanDoubleQuote() ([]ast.WordPart, error) {
	l.pos++ // consume opening quote
	var parts []ast.WordPart
	var lit strings.Builder
	litStart := l.pos
	// flush always emits its first Literal, even an empty one, so the
	// opening quote's context is never lost: every double-quoted run
	// starts with a QuoteDouble Literal regardless of what follows it,
	// which is what lets later stages track quoting without depending
	// on the order in which part kinds happen to appear.
	flush := func() {
		if lit.Len() > 0 || len(parts) == 0 {
			parts = append(parts, &ast.Literal{Text: lit.String(), Quote: token.QuoteDouble, Sp: l.tracker.Span(litStart, l.pos)})
			lit.Reset()
		}
	}
	for {
		if l.eof() {
			return nil, l.errorf(UnterminatedQuote, "unterminated double-quoted string")
		}
		b := l.peekByte()
		switch b {
		case '"':
			flush()
			l.pos++
			return parts, nil
		case '\\':
			nb := l.peekAt(1)
			switch nb {
			case '$', '`', '"', '\\':
				if lit.Len() == 0 {
					litStart = l.pos
				}
				lit.WriteByte(nb)
				l.pos += 2
			case '\n':
				l.pos += 2
				l.tracker.NoteNewline(l.pos)
			default:
				if lit.Len() == 0 {
					litStart = l.pos
				}
				lit.WriteByte('\\')
				l.pos++
			}
		case '$':
			flush()
			part, err := l.scanDollar(token.QuoteDouble)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		case '`':
			flush()
			bqStart := l.pos
			l.pos++
			raw, err := l.scanBacktickRaw()
			if err != nil {
				return nil, err
			}
			parts = append(parts, &ast.CmdSubst{Raw: raw, Backtick: true, Sp: l.tracker.Span(bqStart, l.pos)})
		default:
			if lit.Len() == 0 {
				litStart = l.pos
			}
			lit.WriteByte(b)
			l.pos++
		}
	}
}

// scanBacktickRaw scans the raw text of a `...` command substitution,
// with the current position just past the opening backtick.
func (l *lexer) scanBacktickRaw() (string, error) {
	start := l.pos
	for {
		if l.eof() {
			return "", l.errorf(UnterminatedQuote, "unterminated command substitution, expected closing backtick")
		}
		b := l.src[l.pos]
		if b == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if b == '`' {
			raw := string(l.src[start:l.pos])
			l.pos++
			return raw, nil
		}
		l.pos++
	}
}

// scanProcSubst scans "<(...)" or ">(...)" with the current position on
// the direction byte.
func (l *lexer) scanProcSubst() (*ast.ProcSubst, error) {
	start := l.pos
	dir := ast.ProcIn
	if l.peekByte() == '>' {
		dir = ast.ProcOut
	}
	l.pos += 2 // consume direction byte and '('
	if err := l.pushDepth(); err != nil {
		return nil, err
	}
	raw, err := l.scanBalancedPair('(', ')', 1)
	l.popDepth()
	if err != nil {
		return nil, err
	}
	return &ast.ProcSubst{Direction: dir, Raw: raw, Sp: l.tracker.Span(start, l.pos)}, nil
}

// scanExtGlob scans "OP(pattern)" for OP in ?*+@!.
func (l *lexer) scanExtGlob(op byte) (*ast.ExtGlob, error) {
	start := l.pos
	l.pos += 2 // consume op byte and '('
	if err := l.pushDepth(); err != nil {
		return nil, err
	}
	raw, err := l.scanBalancedPair('(', ')', 1)
	l.popDepth()
	if err != nil {
		return nil, err
	}
	return &ast.ExtGlob{Op: op, Pattern: raw, Sp: l.tracker.Span(start, l.pos)}, nil
}

// scanBalancedPair scans until the matching close byte is found at the
// given starting depth, skipping over quoted regions so that parens or
// braces inside a nested string don't perturb the count. It returns the
// raw text up to (excluding) the final close byte, and leaves the
// position just past that byte.
func (l *lexer) scanBalancedPair(open, close byte, depth int) (string, error) {
	start := l.pos
	for depth > 0 {
		if l.eof() {
			return "", l.errorf(UnterminatedExpansion, "unterminated expansion, expected closing %q", close)
		}
		b := l.src[l.pos]
		switch {
		case b == '\\' && l.pos+1 < len(l.src):
			l.pos += 2
		case b == '\'':
			l.pos++
			for !l.eof() && l.src[l.pos] != '\'' {
				l.pos++
			}
			if l.eof() {
				return "", l.errorf(UnterminatedQuote, "unterminated single quote")
			}
			l.pos++
		case b == '"':
			l.pos++
			for !l.eof() && l.src[l.pos] != '"' {
				if l.src[l.pos] == '\\' {
					l.pos++
				}
				l.pos++
			}
			if l.eof() {
				return "", l.errorf(UnterminatedQuote, "unterminated double quote")
			}
			l.pos++
		case b == open:
			depth++
			l.pos++
			if depth > l.cfg.maxDepth() {
				return "", l.errorf(NestingTooDeep, "nesting exceeds maximum depth %d", l.cfg.maxDepth())
			}
		case b == close:
			depth--
			l.pos++
		default:
			l.pos++
		}
	}
	return string(l.src[start : l.pos-1]), nil
}

// scanArithRaw scans the body of "$((...))" with the current position
// just past the opening "((". Unlike scanBalancedPair, the close
// condition is two consecutive ')' at depth zero, so nested single
// parens (ordinary grouping inside the expression) don't confuse it.
func (l *lexer) scanArithRaw() (string, error) {
	start := l.pos
	depth := 0
	for {
		if l.eof() {
			return "", l.errorf(UnterminatedExpansion, "unterminated arithmetic expansion")
		}
		b := l.src[l.pos]
		switch {
		case b == '\\' && l.pos+1 < len(l.src):
			l.pos += 2
		case b == '\'':
			l.pos++
			for !l.eof() && l.src[l.pos] != '\'' {
				l.pos++
			}
			if l.eof() {
				return "", l.errorf(UnterminatedQuote, "unterminated single quote in arithmetic expansion")
			}
			l.pos++
		case b == '"':
			l.pos++
			for !l.eof() && l.src[l.pos] != '"' {
				if l.src[l.pos] == '\\' {
					l.pos++
				}
				l.pos++
			}
			if l.eof() {
				return "", l.errorf(UnterminatedQuote, "unterminated double quote in arithmetic expansion")
			}
			l.pos++
		case b == '(':
			depth++
			l.pos++
			if depth > l.cfg.maxDepth() {
				return "", l.errorf(NestingTooDeep, "nesting exceeds maximum depth %d", l.cfg.maxDepth())
			}
		case b == ')' && depth == 0 && l.peekAt(1) == ')':
			raw := string(l.src[start:l.pos])
			l.pos += 2
			return raw, nil
		case b == ')':
			depth--
			l.pos++
		default:
			l.pos++
		}
	}
}

// scanDollar scans an expansion introduced by '$', with the current
// position on the '$' byte. quoteCtx tags any resulting literal fallback
// part (a lone '$' with nothing expansion-shaped after it).
func (l *lexer) scanDollar(quoteCtx token.QuoteKind) (ast.WordPart, error) {
	start := l.pos
	l.pos++
	if l.eof() {
		return &ast.Literal{Text: "$", Quote: quoteCtx, Sp: l.tracker.Span(start, l.pos)}, nil
	}
	b := l.peekByte()
	switch {
	case b == '(' && l.peekAt(1) == '(':
		l.pos += 2
		if err := l.pushDepth(); err != nil {
			return nil, err
		}
		raw, err := l.scanArithRaw()
		l.popDepth()
		if err != nil {
			return nil, err
		}
		expr, err := l.subLexWord(raw)
		if err != nil {
			return nil, err
		}
		return &ast.ArithmeticExpansion{Expr: expr, Sp: l.tracker.Span(start, l.pos)}, nil

	case b == '(':
		l.pos++
		if err := l.pushDepth(); err != nil {
			return nil, err
		}
		raw, err := l.scanBalancedPair('(', ')', 1)
		l.popDepth()
		if err != nil {
			return nil, err
		}
		return &ast.CmdSubst{Raw: raw, Sp: l.tracker.Span(start, l.pos)}, nil

	case b == '{':
		l.pos++
		if err := l.pushDepth(); err != nil {
			return nil, err
		}
		raw, err := l.scanBalancedPair('{', '}', 1)
		l.popDepth()
		if err != nil {
			return nil, err
		}
		return l.parseParamExpansion(raw, start)

	case isSpecialParam(b):
		l.pos++
		return &ast.VarExpansion{Name: string(b), Sp: l.tracker.Span(start, l.pos)}, nil

	case isNameStart(b):
		nstart := l.pos
		for !l.eof() && isNameCont(l.peekByte()) {
			l.pos++
		}
		return &ast.VarExpansion{Name: string(l.src[nstart:l.pos]), Sp: l.tracker.Span(start, l.pos)}, nil

	default:
		return &ast.Literal{Text: "$", Quote: quoteCtx, Sp: l.tracker.Span(start, l.pos)}, nil
	}
}

// subLexWord lexes the whole of raw as one standalone word (arithmetic
// expressions and "${...}" operands, which only need their $-expansions
// resolved; arithmetic text is handed whole to the external evaluator).
// Blanks and operator bytes that would end an ordinary word are kept as
// unquoted literal text.
func (l *lexer) subLexWord(raw string) (*ast.Word, error) {
	sub := &lexer{src: []byte(raw), tracker: token.NewTracker([]byte(raw)), cfg: l.cfg}
	var parts []ast.WordPart
	for {
		w, _, err := sub.lexWord()
		if err != nil {
			return nil, err
		}
		parts = append(parts, w.Parts...)
		if sub.eof() {
			break
		}
		parts = append(parts, &ast.Literal{Text: raw[sub.pos : sub.pos+1], Quote: token.QuoteNone, Sp: sub.tracker.Span(sub.pos, sub.pos+1)})
		sub.pos++
	}
	return &ast.Word{Parts: parts, Outer: uniformQuote(parts), Sp: sub.tracker.Span(0, len(raw))}, nil
}
