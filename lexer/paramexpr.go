package lexer

import "github.com/gopsh/shcore/ast"

// parseParamExpansion parses the text found between the braces of a
// "${...}" expansion. raw has already been
// extracted by a balanced-brace scan in scanDollar; start is the byte
// offset of the expansion's opening '$' in the outer source, used only
// to compute the resulting node's Span.
func (l *lexer) parseParamExpansion(raw string, start int) (*ast.ParamExpansion, error) {
	p := &paramCursor{src: []byte(raw)}
	pe := &ast.ParamExpansion{}

	if p.peek() == '#' && len(p.src) > 1 {
		p.pos++
		pe.Length = true
		if err := p.scanNameAndIndex(l, pe); err != nil {
			return nil, err
		}
		pe.Sp = l.tracker.Span(start, l.pos)
		return pe, nil
	}

	if p.peek() == '!' {
		p.pos++
		nameStart := p.pos
		for !p.eof() && isNameCont(p.peek()) {
			p.pos++
		}
		name := string(p.src[nameStart:p.pos])
		switch {
		case p.peek() == '*' && p.pos+1 == len(p.src):
			pe.NamesPrefix = true
			pe.Name = name
			pe.Sp = l.tracker.Span(start, l.pos)
			return pe, nil
		case p.peek() == '@' && p.pos+1 == len(p.src):
			pe.NamesAll = true
			pe.Name = name
			pe.Sp = l.tracker.Span(start, l.pos)
			return pe, nil
		default:
			pe.Indirect = true
			pe.Name = name
		}
	} else {
		nameStart := p.pos
		if p.eof() {
			return nil, l.errorf(UnterminatedExpansion, "empty parameter expansion")
		}
		if isSpecialParam(p.peek()) && !isNameStart(p.peek()) {
			p.pos++
		} else {
			for !p.eof() && isNameCont(p.peek()) {
				p.pos++
			}
		}
		pe.Name = string(p.src[nameStart:p.pos])
	}

	if p.peek() == '[' {
		idxRaw, err := p.scanBalancedBracket()
		if err != nil {
			return nil, l.errorf(UnterminatedExpansion, "%s", err.Error())
		}
		idx, err := l.subLexWord(idxRaw)
		if err != nil {
			return nil, err
		}
		pe.Index = idx
	}

	if p.eof() {
		pe.Sp = l.tracker.Span(start, l.pos)
		return pe, nil
	}

	if err := l.applyParamOp(p, pe); err != nil {
		return nil, err
	}
	pe.Sp = l.tracker.Span(start, l.pos)
	return pe, nil
}

func (p *paramCursor) scanNameAndIndex(l *lexer, pe *ast.ParamExpansion) error {
	nameStart := p.pos
	if p.eof() {
		return l.errorf(UnterminatedExpansion, "empty parameter expansion")
	}
	if isSpecialParam(p.peek()) && !isNameStart(p.peek()) {
		p.pos++
	} else {
		for !p.eof() && isNameCont(p.peek()) {
			p.pos++
		}
	}
	pe.Name = string(p.src[nameStart:p.pos])
	if p.peek() == '[' {
		idxRaw, err := p.scanBalancedBracket()
		if err != nil {
			return l.errorf(UnterminatedExpansion, "%s", err.Error())
		}
		idx, err := l.subLexWord(idxRaw)
		if err != nil {
			return err
		}
		pe.Index = idx
	}
	return nil
}

func (l *lexer) applyParamOp(p *paramCursor, pe *ast.ParamExpansion) error {
	b := p.peek()
	rest := func() string { return string(p.src[p.pos:]) }

	switch b {
	case ':':
		nb := p.peekAt(1)
		switch nb {
		case '-', '=', '?', '+':
			pe.Op = map[byte]ast.ParamOp{'-': ast.OpColonMinus, '=': ast.OpColonAssign, '?': ast.OpColonQuestion, '+': ast.OpColonPlus}[nb]
			p.pos += 2
			w, err := l.subLexWord(rest())
			if err != nil {
				return err
			}
			pe.OpWord = w
		default:
			p.pos++
			offsetText, lengthText, hasLength := splitTopLevel(rest(), ':')
			off, err := l.subLexWord(offsetText)
			if err != nil {
				return err
			}
			slice := &ast.SliceExpr{Offset: off}
			if hasLength {
				ln, err := l.subLexWord(lengthText)
				if err != nil {
					return err
				}
				slice.Length = ln
			}
			pe.Op = ast.OpSlice
			pe.Slice = slice
		}

	case '#':
		pe.Op = ast.OpRemoveShortestPrefix
		p.pos++
		if p.peek() == '#' {
			pe.Op = ast.OpRemoveLongestPrefix
			p.pos++
		}
		w, err := l.subLexWord(rest())
		if err != nil {
			return err
		}
		pe.OpWord = w

	case '%':
		pe.Op = ast.OpRemoveShortestSuffix
		p.pos++
		if p.peek() == '%' {
			pe.Op = ast.OpRemoveLongestSuffix
			p.pos++
		}
		w, err := l.subLexWord(rest())
		if err != nil {
			return err
		}
		pe.OpWord = w

	case '/':
		all := false
		p.pos++
		if p.peek() == '/' {
			all = true
			p.pos++
		}
		patText, withText, hasWith := splitTopLevel(rest(), '/')
		pat, err := l.subLexWord(patText)
		if err != nil {
			return err
		}
		repl := &ast.ReplaceExpr{All: all, Pattern: pat}
		if hasWith {
			with, err := l.subLexWord(withText)
			if err != nil {
				return err
			}
			repl.With = with
		}
		pe.Op = ast.OpReplace
		pe.Replace = repl

	case '^':
		pe.Op = ast.OpUpperFirst
		p.pos++
		if p.peek() == '^' {
			pe.Op = ast.OpUpperAll
			p.pos++
		}
		if !p.eof() {
			w, err := l.subLexWord(rest())
			if err != nil {
				return err
			}
			pe.OpWord = w
		}

	case ',':
		pe.Op = ast.OpLowerFirst
		p.pos++
		if p.peek() == ',' {
			pe.Op = ast.OpLowerAll
			p.pos++
		}
		if !p.eof() {
			w, err := l.subLexWord(rest())
			if err != nil {
				return err
			}
			pe.OpWord = w
		}

	case '-', '=', '?', '+':
		pe.Op = map[byte]ast.ParamOp{'-': ast.OpMinus, '=': ast.OpAssign, '?': ast.OpQuestion, '+': ast.OpPlus}[b]
		p.pos++
		w, err := l.subLexWord(rest())
		if err != nil {
			return err
		}
		pe.OpWord = w

	default:
		return l.errorf(UnterminatedExpansion, "unexpected %q in parameter expansion", b)
	}
	return nil
}

// paramCursor is a tiny cursor over the already-extracted text between
// the braces of a "${...}" expansion.
type paramCursor struct {
	src []byte
	pos int
}

func (p *paramCursor) eof() bool  { return p.pos >= len(p.src) }
func (p *paramCursor) peek() byte { if p.eof() { return 0 }; return p.src[p.pos] }
func (p *paramCursor) peekAt(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

// scanBalancedBracket scans "[...]" with the cursor on the opening '[',
// returning the text between the brackets and leaving the cursor just
// past the closing ']'.
func (p *paramCursor) scanBalancedBracket() (string, error) {
	start := p.pos + 1
	depth := 1
	p.pos++
	for depth > 0 {
		if p.eof() {
			return "", errUnterminatedBracket
		}
		switch p.src[p.pos] {
		case '[':
			depth++
		case ']':
			depth--
		}
		p.pos++
	}
	return string(p.src[start : p.pos-1]), nil
}

var errUnterminatedBracket = errBracket{}

type errBracket struct{}

func (errBracket) Error() string { return "unterminated '[' in parameter expansion index" }

// splitTopLevel splits s at the first occurrence of sep that isn't inside
// a nested (), {}, [], '', or "" region, mirroring the balanced-scan
// discipline used elsewhere in this package. It reports whether sep was
// found at all.
func splitTopLevel(s string, sep byte) (before, after string, found bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch b := s[i]; {
		case b == '\\' && i+1 < len(s):
			i++
		case b == '\'':
			i++
			for i < len(s) && s[i] != '\'' {
				i++
			}
		case b == '"':
			i++
			for i < len(s) && s[i] != '"' {
				if s[i] == '\\' {
					i++
				}
				i++
			}
		case b == '(' || b == '{' || b == '[':
			depth++
		case b == ')' || b == '}' || b == ']':
			depth--
		case b == sep && depth == 0:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
