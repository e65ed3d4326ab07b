package parser

import (
	"strings"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/lexer"
	"github.com/gopsh/shcore/token"
)

// parseProgram is the grammar's start symbol: a sequence of top-level
// items (function definitions and statements).
func (p *parser) parseProgram() *ast.Program {
	start := p.cur().Sp
	var items []ast.ProgramItem
	p.skipSeparators()
	for !p.is(token.EOF) {
		item := p.parseProgramItem()
		if item == nil {
			if !p.is(token.EOF) {
				p.fail(errf(UnexpectedToken, p.cur().Sp.StartPos, "unexpected token %s", p.cur().Kind))
				if p.cfg.Mode != ModeStrict {
					p.skipToStatementBoundary()
				}
			}
			p.skipSeparators()
			continue
		}
		items = append(items, item)
		p.skipSeparators()
	}
	return &ast.Program{Items: items, Sp: spanFrom(start, p.prevSpan())}
}

// parseProgramItem parses one statement. A function definition standing
// alone is returned as its own FunctionDefinition item; one that is a
// stage of a longer pipeline or and-or list stays inside the Statement.
func (p *parser) parseProgramItem() ast.ProgramItem {
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	if pls := stmt.List.Pipelines; len(pls) == 1 && !pls[0].Negated && len(pls[0].Stages) == 1 {
		st := pls[0].Stages[0]
		if fd, ok := st.Command.(*ast.FunctionDefinition); ok && len(st.Assigns) == 0 && len(st.Redirects) == 0 && stmt.Terminator != token.AMP {
			return fd
		}
	}
	return stmt
}

// parseStatementList parses and_or_list+ up to (but not consuming) one of
// enders, skipping separators between statements.
func (p *parser) parseStatementList(enders ...token.Kind) ast.StatementList {
	var list ast.StatementList
	p.skipSeparators()
	for !p.isAny(enders...) && !p.is(token.EOF) {
		stmt := p.parseStatement()
		if stmt == nil {
			break
		}
		list = append(list, stmt)
		p.skipSeparators()
	}
	return list
}

func (p *parser) parseStatement() *ast.Statement {
	start := p.cur().Sp
	list := p.parseAndOrList()
	if list == nil {
		return nil
	}
	term := token.ILLEGAL
	end := list.Span()
	switch {
	case p.is(token.AMP):
		p.advance()
		term = token.AMP
		end = p.prevSpan()
	case p.is(token.SEMI):
		p.advance()
		term = token.SEMI
		end = p.prevSpan()
	case p.is(token.NEWLINE):
		term = token.NEWLINE
	}
	return &ast.Statement{List: list, Terminator: term, Sp: spanFrom(start, end)}
}

func (p *parser) parseAndOrList() *ast.AndOrList {
	first := p.parsePipeline()
	if first == nil {
		return nil
	}
	start := first.Span()
	pipelines := []*ast.Pipeline{first}
	var ops []token.Kind
	for p.isAny(token.AND_IF, token.OR_IF) {
		op := p.advance().Kind
		p.skipNewlines()
		next := p.parsePipeline()
		if next == nil {
			p.fail(errf(UnexpectedToken, p.cur().Sp.StartPos, "expected a command after %s", op))
			break
		}
		ops = append(ops, op)
		pipelines = append(pipelines, next)
	}
	end := pipelines[len(pipelines)-1].Span()
	return &ast.AndOrList{Pipelines: pipelines, Ops: ops, Sp: spanFrom(start, end)}
}

func (p *parser) parsePipeline() *ast.Pipeline {
	start := p.cur().Sp
	negated := false
	var bangPos token.Position
	if p.is(token.BANG) {
		bangPos = p.cur().Sp.StartPos
		p.advance()
		negated = true
	}
	stage := p.parsePipelineStage()
	if stage == nil {
		if negated {
			p.fail(errf(UnexpectedToken, p.cur().Sp.StartPos, "expected a command after !"))
		}
		return nil
	}
	stages := []*ast.PipelineStage{stage}
	for p.isAny(token.PIPE, token.PIPE_AMP) {
		p.advance()
		p.skipNewlines()
		next := p.parsePipelineStage()
		if next == nil {
			p.fail(errf(UnexpectedToken, p.cur().Sp.StartPos, "expected a command after a pipe"))
			break
		}
		stages = append(stages, next)
	}
	end := stages[len(stages)-1].Span()
	return &ast.Pipeline{Negated: negated, Bang: bangPos, Stages: stages, Sp: spanFrom(start, end)}
}

func (p *parser) parsePipelineStage() *ast.PipelineStage {
	start := p.cur().Sp
	var assigns []*ast.Assign
	var redirects []*ast.Redirect

	for {
		if p.isAny(token.ASSIGNMENT_WORD, token.ARRAY_ASSIGN_WORD) {
			if a := p.parseAssign(); a != nil {
				assigns = append(assigns, a)
			}
			continue
		}
		if r := p.tryParseRedirect(); r != nil {
			redirects = append(redirects, r)
			continue
		}
		break
	}

	var cmd ast.Command
	switch {
	case isCompoundStart(p.cur().Kind):
		cmd = p.parseCommandBody()
	case p.is(token.WORD) && p.isFunctionDefShape():
		cmd = p.parseCommandBody()
	case p.is(token.WORD) && isDeclareVariant(litOf(p.cur())):
		cmd = p.parseCommandBody()
	case p.is(token.WORD):
		cmd = p.parseSimpleCommandTail(&redirects)
	}

	for {
		if r := p.tryParseRedirect(); r != nil {
			redirects = append(redirects, r)
			continue
		}
		break
	}

	if cmd == nil && len(assigns) == 0 && len(redirects) == 0 {
		return nil
	}
	return &ast.PipelineStage{Assigns: assigns, Command: cmd, Redirects: redirects, Sp: spanFrom(start, p.prevSpan())}
}

// parseSimpleCommandTail collects a command's argument words, folding any
// interleaved redirections into redirects rather than treating them as
// arguments.
func (p *parser) parseSimpleCommandTail(redirects *[]*ast.Redirect) *ast.SimpleCommand {
	start := p.cur().Sp
	var args []*ast.Word
	for p.is(token.WORD) || p.isRedirectStart() {
		if r := p.tryParseRedirect(); r != nil {
			*redirects = append(*redirects, r)
			continue
		}
		args = append(args, p.advance().Word)
	}
	if len(args) == 0 {
		return nil
	}
	return &ast.SimpleCommand{Args: args, Sp: spanFrom(start, p.prevSpan())}
}

// parseCommandBody dispatches to the right compound-command parser, or a
// bare simple command, based on the current token. It is also the entry
// point a function definition's body is parsed through.
func (p *parser) parseCommandBody() ast.Command {
	if fd := p.tryParseFunctionDefinition(); fd != nil {
		return fd
	}
	switch p.cur().Kind {
	case token.IF:
		return p.parseIfClause()
	case token.WHILE:
		return p.parseWhileClause()
	case token.UNTIL:
		return p.parseUntilClause()
	case token.FOR:
		return p.parseForClause()
	case token.CASE:
		return p.parseCaseClause()
	case token.SELECT:
		return p.parseSelectClause()
	case token.LPAREN:
		return p.parseSubshell()
	case token.LBRACE:
		return p.parseBraceGroup()
	case token.DLPAREN:
		return p.parseArithmeticCommand()
	case token.DLBRACK:
		return p.parseEnhancedTestCommand()
	case token.LET:
		return p.parseLetCommand()
	case token.WORD:
		if isDeclareVariant(litOf(p.cur())) {
			return p.parseDeclareCommand()
		}
		var redirects []*ast.Redirect
		return p.parseSimpleCommandTail(&redirects)
	default:
		return nil
	}
}

func isCompoundStart(k token.Kind) bool {
	switch k {
	case token.IF, token.WHILE, token.UNTIL, token.FOR, token.CASE, token.SELECT,
		token.LPAREN, token.LBRACE, token.DLPAREN, token.DLBRACK, token.FUNCTION, token.LET:
		return true
	}
	return false
}

func isDeclareVariant(s string) bool {
	switch s {
	case "declare", "typeset", "local", "export", "readonly":
		return true
	}
	return false
}

func litOf(tok lexer.Token) string {
	if tok.Word == nil {
		return ""
	}
	s, _ := tok.Word.Lit()
	return s
}

func adjacent(a, b token.Span) bool { return a.End == b.Start }

// isFunctionDefShape reports whether the parser is looking at "NAME ( )"
// with no gaps, bash/POSIX's alternative function-definition syntax,
// without consuming anything.
func (p *parser) isFunctionDefShape() bool {
	return p.is(token.WORD) && p.peekAt(1).Kind == token.LPAREN && p.peekAt(2).Kind == token.RPAREN &&
		adjacent(p.cur().Sp, p.peekAt(1).Sp) && adjacent(p.peekAt(1).Sp, p.peekAt(2).Sp)
}

func (p *parser) tryParseFunctionDefinition() *ast.FunctionDefinition {
	start := p.cur().Sp
	if p.is(token.FUNCTION) {
		p.advance()
		nameTok := p.expect(token.WORD)
		name := litOf(nameTok)
		if p.is(token.LPAREN) && adjacent(nameTok.Sp, p.cur().Sp) && p.peekAt(1).Kind == token.RPAREN {
			p.advance()
			p.advance()
		}
		p.skipNewlines()
		body := p.parseCommandBody()
		if body == nil {
			p.fail(errf(EmptyBody, p.cur().Sp.StartPos, "function %q has no body", name))
		}
		return &ast.FunctionDefinition{Name: name, NamePos: nameTok.Sp.StartPos, BashStyle: true, Body: body, Sp: spanFrom(start, p.prevSpan())}
	}
	if p.isFunctionDefShape() {
		nameTok := p.advance()
		name := litOf(nameTok)
		if !isValidFuncName(name) {
			p.fail(errf(InvalidFunctionName, nameTok.Sp.StartPos, "invalid function name %q", nameTok.Lexeme))
		}
		p.advance() // (
		p.advance() // )
		p.skipNewlines()
		body := p.parseCommandBody()
		if body == nil {
			p.fail(errf(EmptyBody, p.cur().Sp.StartPos, "function %q has no body", name))
		}
		return &ast.FunctionDefinition{Name: name, NamePos: nameTok.Sp.StartPos, BashStyle: false, Body: body, Sp: spanFrom(start, p.prevSpan())}
	}
	return nil
}

func isValidFuncName(name string) bool {
	if name == "" || !isNameStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isNameCont(name[i]) {
			return false
		}
	}
	return true
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// --- redirections ---

func isRedirectOpKind(k token.Kind) bool {
	switch k {
	case token.REDIR_IN, token.REDIR_OUT, token.REDIR_APPEND, token.REDIR_DUP,
		token.REDIR_CLOBBER, token.REDIR_INOUT, token.HEREDOC, token.HEREDOC_STRIP, token.HERE_STRING:
		return true
	}
	return false
}

func (p *parser) isRedirectStart() bool {
	if isRedirectOpKind(p.cur().Kind) {
		return true
	}
	if p.is(token.WORD) && isAllDigits(p.cur().Lexeme) {
		nxt := p.peekAt(1)
		if isRedirectOpKind(nxt.Kind) && adjacent(p.cur().Sp, nxt.Sp) {
			return true
		}
	}
	return false
}

func (p *parser) tryParseRedirect() *ast.Redirect {
	if !p.isRedirectStart() {
		return nil
	}
	start := p.cur().Sp
	var fd *int
	if p.is(token.WORD) {
		fdTok := p.advance()
		n := atoiOrZero(fdTok.Lexeme)
		fd = &n
	}
	opTok := p.advance()
	r := &ast.Redirect{Kind: redirKindFor(opTok), OpPos: opTok.Sp.StartPos, Fd: fd}
	switch r.Kind {
	case ast.Heredoc, ast.HeredocStrip:
		delim := p.expect(token.WORD)
		r.HeredocKey = delim.HeredocKey
		r.HeredocQuoted = delim.HeredocQuoted
		r.ExpansionEligible = !delim.HeredocQuoted
	default:
		target := p.expect(token.WORD)
		r.Target = target.Word
	}
	r.Sp = spanFrom(start, p.prevSpan())
	return r
}

func redirKindFor(op lexer.Token) ast.RedirKind {
	switch op.Kind {
	case token.REDIR_IN:
		return ast.InputFile
	case token.REDIR_OUT:
		return ast.OutputFile
	case token.REDIR_APPEND:
		return ast.OutputAppend
	case token.REDIR_CLOBBER:
		return ast.OutputClobber
	case token.REDIR_INOUT:
		return ast.ReadWrite
	case token.REDIR_DUP:
		if len(op.Lexeme) > 0 && op.Lexeme[0] == '<' {
			return ast.DupRead
		}
		return ast.DupWrite
	case token.HEREDOC:
		return ast.Heredoc
	case token.HEREDOC_STRIP:
		return ast.HeredocStrip
	case token.HERE_STRING:
		return ast.HereString
	default:
		return ast.OutputFile
	}
}

// --- assignments ---

func (p *parser) parseAssign() *ast.Assign {
	tok := p.advance()
	if tok.Word == nil || len(tok.Word.Parts) == 0 {
		p.fail(errf(InvalidAssignment, tok.Sp.StartPos, "malformed assignment %q", tok.Lexeme))
		return nil
	}
	prefixLit, ok := tok.Word.Parts[0].(*ast.Literal)
	if !ok {
		p.fail(errf(InvalidAssignment, tok.Sp.StartPos, "malformed assignment %q", tok.Lexeme))
		return nil
	}
	name, indexRaw, appnd := splitAssignPrefix(prefixLit.Text)
	if !isValidFuncName(name) {
		p.fail(errf(InvalidAssignment, tok.Sp.StartPos, "invalid assignment target %q", name))
	}
	a := &ast.Assign{Name: name, NamePos: prefixLit.Sp.StartPos, Append: appnd, Sp: tok.Sp}
	if indexRaw != "" {
		a.Index = p.parseSubWord(indexRaw, prefixLit.Sp.StartPos)
	}
	if tok.Kind == token.ARRAY_ASSIGN_WORD {
		if len(tok.Word.Parts) > 1 {
			if arr, ok := tok.Word.Parts[1].(*ast.ArrayExpr); ok {
				a.Array = arr.Elems
			}
		}
		return a
	}
	rest := tok.Word.Parts[1:]
	valSp := token.Span{Start: tok.Sp.End, End: tok.Sp.End, StartPos: tok.Sp.EndPos, EndPos: tok.Sp.EndPos}
	if len(rest) > 0 {
		valSp = spanFrom(rest[0].Span(), rest[len(rest)-1].Span())
	} else {
		rest = []ast.WordPart{&ast.Literal{Sp: valSp}}
	}
	a.Value = &ast.Word{Parts: rest, Outer: tok.Quote, Sp: valSp}
	return a
}

// splitAssignPrefix decomposes the prefix text captured by the lexer's
// tryAssignPrefix ("NAME=", "NAME+=", "NAME[idx]=", "NAME[idx]+=") into
// its name, raw index text (empty if there was none), and append flag.
func splitAssignPrefix(prefix string) (name, indexRaw string, appnd bool) {
	body := prefix
	switch {
	case strings.HasSuffix(body, "+="):
		appnd = true
		body = body[:len(body)-2]
	case strings.HasSuffix(body, "="):
		body = body[:len(body)-1]
	}
	if i := strings.IndexByte(body, '['); i >= 0 && strings.HasSuffix(body, "]") {
		name = body[:i]
		indexRaw = body[i+1 : len(body)-1]
		return
	}
	name = body
	return
}

// parseSubWord re-lexes a raw substring captured by the lexer (an array
// index, for example) into its own *ast.Word, so it keeps carrying
// expansions instead of collapsing to plain text.
func (p *parser) parseSubWord(raw string, pos token.Position) *ast.Word {
	if raw == "" {
		return &ast.Word{Parts: []ast.WordPart{&ast.Literal{}}, Sp: token.Span{StartPos: pos, EndPos: pos}}
	}
	toks, _, err := lexer.Tokenize([]byte(raw), p.cfg.lexerConfig())
	if err != nil {
		p.fail(errf(InvalidAssignment, pos, "invalid index expression %q: %v", raw, err))
		return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Text: raw}}}
	}
	if len(toks) > 0 && toks[0].Word != nil {
		return toks[0].Word
	}
	return &ast.Word{Parts: []ast.WordPart{&ast.Literal{}}}
}

// --- arithmetic text reconstruction ---
//
// Bare "((...))" (an ArithmeticCommand or a C-style for-loop header) is
// tokenised by the lexer using the ordinary grammar rules, not captured
// as raw text the way "$((...))" is. collectArithWord reassembles that
// string from the already-split tokens so both forms reach the
// evaluator the same way.

func (p *parser) collectArithWord(enders ...token.Kind) *ast.Word {
	start := p.cur().Sp
	var sb strings.Builder
	depth := 0
	for {
		if depth == 0 && p.isAny(enders...) {
			break
		}
		if p.is(token.EOF) {
			break
		}
		t := p.advance()
		switch t.Kind {
		case token.LPAREN, token.DLPAREN:
			depth++
		case token.RPAREN, token.DRPAREN:
			if depth > 0 {
				depth--
			}
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tokenText(t))
	}
	sp := spanFrom(start, p.prevSpan())
	if sb.Len() == 0 {
		return nil
	}
	return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Text: sb.String(), Sp: sp}}, Sp: sp}
}

func tokenText(t lexer.Token) string {
	if t.Word != nil {
		return wordSourceText(t.Word)
	}
	return t.Lexeme
}

// wordSourceText reconstructs an approximation of a word's original
// source text from its parts, well enough for the ArithmeticEvaluator
// and LetCommand collaborators, which only need the variable names and
// operators, not exact original spacing.
func wordSourceText(w *ast.Word) string {
	if w == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range w.Parts {
		switch v := part.(type) {
		case *ast.Literal:
			sb.WriteString(v.Text)
		case *ast.VarExpansion:
			sb.WriteByte('$')
			sb.WriteString(v.Name)
		case *ast.ParamExpansion:
			sb.WriteString("${")
			sb.WriteString(v.Name)
			sb.WriteByte('}')
		case *ast.CmdSubst:
			sb.WriteString("$(")
			sb.WriteString(v.Raw)
			sb.WriteByte(')')
		case *ast.ArithmeticExpansion:
			sb.WriteString("$((")
			sb.WriteString(wordSourceText(v.Expr))
			sb.WriteString("))")
		case *ast.ArrayExpr:
			sb.WriteByte('(')
			for i, e := range v.Elems {
				if i > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(wordSourceText(e))
			}
			sb.WriteByte(')')
		}
	}
	return sb.String()
}
