package parser

import (
	"strings"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

func (p *parser) parseIfClause() *ast.IfClause {
	start := p.cur().Sp
	p.expect(token.IF)
	cond := p.parseStatementList(token.THEN)
	p.expect(token.THEN)
	then := p.parseStatementList(token.ELIF, token.ELSE, token.FI)
	if len(then) == 0 {
		p.fail(errf(EmptyBody, start.StartPos, "if clause has an empty then body"))
	}
	var elifs []*ast.ElifBranch
	for p.is(token.ELIF) {
		estart := p.cur().Sp
		p.advance()
		ec := p.parseStatementList(token.THEN)
		p.expect(token.THEN)
		et := p.parseStatementList(token.ELIF, token.ELSE, token.FI)
		elifs = append(elifs, &ast.ElifBranch{Cond: ec, Then: et, Sp: spanFrom(estart, p.prevSpan())})
	}
	var elseBody ast.StatementList
	if p.is(token.ELSE) {
		p.advance()
		elseBody = p.parseStatementList(token.FI)
	}
	p.expect(token.FI)
	return &ast.IfClause{Cond: cond, Then: then, Elifs: elifs, Else: elseBody, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseWhileClause() *ast.WhileClause {
	start := p.cur().Sp
	p.expect(token.WHILE)
	cond := p.parseStatementList(token.DO)
	p.expect(token.DO)
	body := p.parseStatementList(token.DONE)
	p.expect(token.DONE)
	return &ast.WhileClause{Cond: cond, Body: body, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseUntilClause() *ast.UntilClause {
	start := p.cur().Sp
	p.expect(token.UNTIL)
	cond := p.parseStatementList(token.DO)
	p.expect(token.DO)
	body := p.parseStatementList(token.DONE)
	p.expect(token.DONE)
	return &ast.UntilClause{Cond: cond, Body: body, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseForClause() *ast.ForClause {
	start := p.cur().Sp
	p.expect(token.FOR)
	var loop ast.Loop
	if p.is(token.DLPAREN) {
		loop = p.parseCStyleLoopHeader()
	} else {
		loop = p.parseWordIterHeader()
	}
	p.skipSeparators()
	p.expect(token.DO)
	body := p.parseStatementList(token.DONE)
	p.expect(token.DONE)
	return &ast.ForClause{Loop: loop, Body: body, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseWordIterHeader() *ast.WordIter {
	start := p.cur().Sp
	nameTok := p.expect(token.WORD)
	name := litOf(nameTok)
	w := &ast.WordIter{Name: name, NamePos: nameTok.Sp.StartPos}
	p.skipSeparators()
	// "in" is not at command position here, so the lexer hands it over as
	// a plain WORD rather than the IN keyword.
	if p.is(token.IN) || p.isWordLit("in") {
		p.advance()
		w.HasIn = true
		for p.is(token.WORD) {
			w.Items = append(w.Items, p.advance().Word)
		}
	}
	w.Sp = spanFrom(start, p.prevSpan())
	return w
}

func (p *parser) parseCStyleLoopHeader() *ast.CStyleLoop {
	start := p.cur().Sp
	p.expect(token.DLPAREN)
	init := p.collectArithWord(token.SEMI, token.DSEMI)
	var cond *ast.Word
	// an empty condition clause leaves its two ";" adjacent, which the
	// lexer emits as one DSEMI token
	if _, ok := p.accept(token.DSEMI); !ok {
		p.expect(token.SEMI)
		cond = p.collectArithWord(token.SEMI)
		p.expect(token.SEMI)
	}
	post := p.collectArithWord(token.DRPAREN)
	p.expect(token.DRPAREN)
	return &ast.CStyleLoop{Init: init, Cond: cond, Post: post, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseSelectClause() *ast.SelectClause {
	start := p.cur().Sp
	p.expect(token.SELECT)
	loop := p.parseWordIterHeader()
	p.skipSeparators()
	p.expect(token.DO)
	body := p.parseStatementList(token.DONE)
	p.expect(token.DONE)
	return &ast.SelectClause{Loop: loop, Body: body, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseCaseClause() *ast.CaseClause {
	start := p.cur().Sp
	p.expect(token.CASE)
	subjTok := p.expect(token.WORD)
	p.skipSeparators()
	if p.isWordLit("in") {
		p.advance()
	} else {
		p.expect(token.IN)
	}
	p.skipSeparators()
	var items []*ast.CaseItem
	for !p.is(token.ESAC) && !p.is(token.EOF) {
		items = append(items, p.parseCaseItem())
		p.skipSeparators()
	}
	p.expect(token.ESAC)
	return &ast.CaseClause{Subject: subjTok.Word, Items: items, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseCaseItem() *ast.CaseItem {
	start := p.cur().Sp
	if p.is(token.LPAREN) {
		p.advance()
	}
	var patterns []*ast.Word
	for {
		tok := p.expect(token.WORD)
		patterns = append(patterns, tok.Word)
		if p.is(token.PIPE) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	p.skipSeparators()
	body := p.parseStatementList(token.DSEMI, token.SEMI_AMP, token.DSEMI_AMP, token.ESAC)
	term := token.DSEMI
	if p.isAny(token.DSEMI, token.SEMI_AMP, token.DSEMI_AMP) {
		term = p.advance().Kind
	}
	return &ast.CaseItem{Patterns: patterns, Body: body, Terminator: term, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseSubshell() *ast.Subshell {
	start := p.cur().Sp
	p.expect(token.LPAREN)
	body := p.parseStatementList(token.RPAREN)
	p.expect(token.RPAREN)
	if len(body) == 0 {
		p.fail(errf(EmptyBody, start.StartPos, "subshell has an empty body"))
	}
	return &ast.Subshell{Body: body, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseBraceGroup() *ast.BraceGroup {
	start := p.cur().Sp
	p.expect(token.LBRACE)
	body := p.parseStatementList(token.RBRACE)
	p.expect(token.RBRACE)
	if len(body) == 0 {
		p.fail(errf(EmptyBody, start.StartPos, "brace group has an empty body"))
	}
	return &ast.BraceGroup{Body: body, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseArithmeticCommand() *ast.ArithmeticCommand {
	start := p.cur().Sp
	p.expect(token.DLPAREN)
	expr := p.collectArithWord(token.DRPAREN)
	p.expect(token.DRPAREN)
	return &ast.ArithmeticCommand{Expr: expr, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseLetCommand() *ast.LetCommand {
	start := p.cur().Sp
	p.expect(token.LET)
	var exprs []*ast.Word
	for p.isAny(token.WORD, token.ASSIGNMENT_WORD, token.ARRAY_ASSIGN_WORD) {
		exprs = append(exprs, p.advance().Word)
	}
	if len(exprs) == 0 {
		p.fail(errf(EmptyBody, p.cur().Sp.StartPos, "let requires at least one expression"))
	}
	return &ast.LetCommand{Exprs: exprs, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) parseDeclareCommand() *ast.DeclareCommand {
	start := p.cur().Sp
	variantTok := p.advance()
	variant := litOf(variantTok)
	var opts []*ast.Word
	var assigns []*ast.Assign
	for p.isAny(token.WORD, token.ASSIGNMENT_WORD, token.ARRAY_ASSIGN_WORD) {
		if p.isAny(token.ASSIGNMENT_WORD, token.ARRAY_ASSIGN_WORD) {
			if a := p.parseAssign(); a != nil {
				assigns = append(assigns, a)
			}
			continue
		}
		lit := litOf(p.cur())
		if strings.HasPrefix(lit, "-") {
			opts = append(opts, p.advance().Word)
			continue
		}
		nameTok := p.advance()
		assigns = append(assigns, &ast.Assign{Name: litOf(nameTok), NamePos: nameTok.Sp.StartPos, Sp: nameTok.Sp})
	}
	return &ast.DeclareCommand{Variant: variant, Opts: opts, Assigns: assigns, Sp: spanFrom(start, p.prevSpan())}
}

// --- [[ ... ]] enhanced test, bash's documented precedence: unary "!"
// binds tightest, then "-a"/"&&", then "-o"/"||"; parens override
// (Open Question decision, see DESIGN.md).

func (p *parser) parseEnhancedTestCommand() *ast.EnhancedTest {
	start := p.cur().Sp
	p.expect(token.DLBRACK)
	expr := p.parseTestOr()
	p.expect(token.DRBRACK)
	return &ast.EnhancedTest{X: expr, Sp: spanFrom(start, p.prevSpan())}
}

func (p *parser) isWordLit(s string) bool {
	return p.is(token.WORD) && litOf(p.cur()) == s
}

func (p *parser) parseTestOr() ast.TestExpr {
	start := p.cur().Sp
	x := p.parseTestAnd()
	for p.is(token.OR_IF) || p.isWordLit("-o") {
		p.advance()
		y := p.parseTestAnd()
		x = &ast.BinaryTest{Op: token.OR_IF, OpStr: "-o", X: x, Y: y, Sp: spanFrom(start, p.prevSpan())}
	}
	return x
}

func (p *parser) parseTestAnd() ast.TestExpr {
	start := p.cur().Sp
	x := p.parseTestUnary()
	for p.is(token.AND_IF) || p.isWordLit("-a") {
		p.advance()
		y := p.parseTestUnary()
		x = &ast.BinaryTest{Op: token.AND_IF, OpStr: "-a", X: x, Y: y, Sp: spanFrom(start, p.prevSpan())}
	}
	return x
}

func (p *parser) parseTestUnary() ast.TestExpr {
	start := p.cur().Sp
	if p.is(token.BANG) {
		p.advance()
		x := p.parseTestUnary()
		return &ast.UnaryTest{Op: token.BANG, OpStr: "!", X: x, Sp: spanFrom(start, p.prevSpan())}
	}
	if p.is(token.LPAREN) {
		p.advance()
		x := p.parseTestOr()
		p.expect(token.RPAREN)
		return &ast.ParenTest{X: x, Sp: spanFrom(start, p.prevSpan())}
	}
	if p.is(token.WORD) {
		if lit := litOf(p.cur()); isTestUnaryOp(lit) {
			p.advance()
			operand := p.parseTestOperand()
			return &ast.UnaryTest{Op: token.WORD, OpStr: lit, X: operand, Sp: spanFrom(start, p.prevSpan())}
		}
	}
	return p.parseTestPrimary()
}

func (p *parser) parseTestOperand() ast.TestExpr {
	tok := p.expect(token.WORD)
	return &ast.WordTest{Word: tok.Word, Sp: tok.Sp}
}

func (p *parser) parseTestPrimary() ast.TestExpr {
	start := p.cur().Sp
	tok := p.expect(token.WORD)
	lhs := ast.TestExpr(&ast.WordTest{Word: tok.Word, Sp: tok.Sp})
	if opStr, k, ok := p.peekTestBinaryOp(); ok {
		p.advance()
		rhsTok := p.expect(token.WORD)
		rhs := &ast.WordTest{Word: rhsTok.Word, Sp: rhsTok.Sp}
		return &ast.BinaryTest{Op: k, OpStr: opStr, X: lhs, Y: rhs, Sp: spanFrom(start, p.prevSpan())}
	}
	return lhs
}

func (p *parser) peekTestBinaryOp() (string, token.Kind, bool) {
	switch p.cur().Kind {
	case token.REDIR_IN:
		return "<", token.REDIR_IN, true
	case token.REDIR_OUT:
		return ">", token.REDIR_OUT, true
	case token.WORD:
		if lit := litOf(p.cur()); isTestBinaryOp(lit) {
			return lit, token.WORD, true
		}
	}
	return "", 0, false
}

func isTestUnaryOp(s string) bool {
	switch s {
	case "-e", "-f", "-d", "-r", "-w", "-x", "-s", "-z", "-n", "-L", "-h", "-p",
		"-S", "-b", "-c", "-g", "-u", "-k", "-O", "-G", "-N", "-v", "-R":
		return true
	}
	return false
}

func isTestBinaryOp(s string) bool {
	switch s {
	case "==", "=", "!=", "=~", "-eq", "-ne", "-lt", "-gt", "-le", "-ge", "-nt", "-ot", "-ef":
		return true
	}
	return false
}
