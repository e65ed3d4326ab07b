package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/token"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := Parse([]byte(src), Config{})
	require.Empty(t, errs, "src=%q", src)
	require.NotNil(t, prog)
	return prog
}

func onlyStatement(t *testing.T, prog *ast.Program) *ast.Statement {
	t.Helper()
	require.Len(t, prog.Items, 1)
	s, ok := prog.Items[0].(*ast.Statement)
	require.True(t, ok)
	return s
}

func onlyStage(t *testing.T, s *ast.Statement) *ast.PipelineStage {
	t.Helper()
	require.Len(t, s.List.Pipelines, 1)
	pl := s.List.Pipelines[0]
	require.Len(t, pl.Stages, 1)
	return pl.Stages[0]
}

func onlyCommand(t *testing.T, src string) ast.Command {
	t.Helper()
	prog := parse(t, src)
	st := onlyStatement(t, prog)
	return onlyStage(t, st).Command
}

func TestParseSimpleCommand(t *testing.T) {
	cmd := onlyCommand(t, "echo foo bar\n")
	sc, ok := cmd.(*ast.SimpleCommand)
	require.True(t, ok)
	require.Len(t, sc.Args, 3)
	lit, ok := sc.Args[0].Lit()
	require.True(t, ok)
	require.Equal(t, "echo", lit)
}

func TestParsePipeline(t *testing.T) {
	prog := parse(t, "a | b | c\n")
	s := onlyStatement(t, prog)
	require.Len(t, s.List.Pipelines, 1)
	pl := s.List.Pipelines[0]
	require.False(t, pl.Negated)
	require.Len(t, pl.Stages, 3)
}

func TestParseNegatedPipeline(t *testing.T) {
	prog := parse(t, "! a | b\n")
	s := onlyStatement(t, prog)
	pl := s.List.Pipelines[0]
	require.True(t, pl.Negated)
	require.Len(t, pl.Stages, 2)
}

func TestParseAndOrList(t *testing.T) {
	prog := parse(t, "a && b || c\n")
	s := onlyStatement(t, prog)
	require.Len(t, s.List.Pipelines, 3)
	require.Equal(t, []token.Kind{token.AND_IF, token.OR_IF}, s.List.Ops)
}

func TestParseBackgroundStatement(t *testing.T) {
	prog := parse(t, "sleep 1 &\n")
	s := onlyStatement(t, prog)
	require.True(t, s.Background())
}

func TestParseScalarAssignment(t *testing.T) {
	prog := parse(t, "FOO=bar\n")
	s := onlyStatement(t, prog)
	st := onlyStage(t, s)
	require.Nil(t, st.Command)
	require.Len(t, st.Assigns, 1)
	a := st.Assigns[0]
	require.Equal(t, "FOO", a.Name)
	require.False(t, a.Append)
	lit, ok := a.Value.Lit()
	require.True(t, ok)
	require.Equal(t, "bar", lit)
}

func TestParseAppendAssignment(t *testing.T) {
	prog := parse(t, "FOO+=bar\n")
	st := onlyStage(t, onlyStatement(t, prog))
	require.True(t, st.Assigns[0].Append)
}

func TestParseArrayAssignment(t *testing.T) {
	prog := parse(t, "FOO=(a b c)\n")
	st := onlyStage(t, onlyStatement(t, prog))
	a := st.Assigns[0]
	require.Nil(t, a.Value)
	require.Len(t, a.Array, 3)
}

func TestParseIndexedAssignment(t *testing.T) {
	prog := parse(t, "FOO[1]=bar\n")
	st := onlyStage(t, onlyStatement(t, prog))
	a := st.Assigns[0]
	require.NotNil(t, a.Index)
	lit, ok := a.Index.Lit()
	require.True(t, ok)
	require.Equal(t, "1", lit)
}

func TestParsePrefixAssignmentWithCommand(t *testing.T) {
	prog := parse(t, "FOO=bar echo baz\n")
	st := onlyStage(t, onlyStatement(t, prog))
	require.Len(t, st.Assigns, 1)
	require.NotNil(t, st.Command)
}

func TestParseRedirectAfterCommand(t *testing.T) {
	prog := parse(t, "echo hi > out.txt\n")
	st := onlyStage(t, onlyStatement(t, prog))
	require.Len(t, st.Redirects, 1)
	r := st.Redirects[0]
	require.Equal(t, ast.OutputFile, r.Kind)
	require.Nil(t, r.Fd)
	lit, ok := r.Target.Lit()
	require.True(t, ok)
	require.Equal(t, "out.txt", lit)
}

func TestParseRedirectWithExplicitFd(t *testing.T) {
	prog := parse(t, "echo hi 2>&1\n")
	st := onlyStage(t, onlyStatement(t, prog))
	r := st.Redirects[0]
	require.Equal(t, ast.DupWrite, r.Kind)
	require.NotNil(t, r.Fd)
	require.Equal(t, 2, *r.Fd)
}

func TestParseAppendRedirect(t *testing.T) {
	prog := parse(t, "echo hi >> out.txt\n")
	st := onlyStage(t, onlyStatement(t, prog))
	require.Equal(t, ast.OutputAppend, st.Redirects[0].Kind)
}

func TestParseHeredoc(t *testing.T) {
	prog := parse(t, "cat <<EOF\nhello\nworld\nEOF\n")
	st := onlyStage(t, onlyStatement(t, prog))
	require.Len(t, st.Redirects, 1)
	r := st.Redirects[0]
	require.Equal(t, ast.Heredoc, r.Kind)
	require.Equal(t, "hello\nworld\n", r.HeredocBody)
	require.True(t, r.ExpansionEligible)
}

func TestParseQuotedHeredocDisablesExpansion(t *testing.T) {
	prog := parse(t, "cat <<'EOF'\n$HOME\nEOF\n")
	st := onlyStage(t, onlyStatement(t, prog))
	r := st.Redirects[0]
	require.True(t, r.HeredocQuoted)
	require.False(t, r.ExpansionEligible)
}

func TestParseRedirectsInterleavedWithArgs(t *testing.T) {
	prog := parse(t, "echo 1> out a b\n")
	st := onlyStage(t, onlyStatement(t, prog))
	sc := st.Command.(*ast.SimpleCommand)
	require.Len(t, sc.Args, 3)
	require.Len(t, st.Redirects, 1)
	require.NotNil(t, st.Redirects[0].Fd)
	require.Equal(t, 1, *st.Redirects[0].Fd)
}

func TestParseIfClause(t *testing.T) {
	cmd := onlyCommand(t, "if true; then echo a; elif false; then echo b; else echo c; fi\n")
	ic, ok := cmd.(*ast.IfClause)
	require.True(t, ok)
	require.Len(t, ic.Cond, 1)
	require.Len(t, ic.Then, 1)
	require.Len(t, ic.Elifs, 1)
	require.Len(t, ic.Else, 1)
}

func TestParseWhileClause(t *testing.T) {
	cmd := onlyCommand(t, "while true; do echo a; done\n")
	wc, ok := cmd.(*ast.WhileClause)
	require.True(t, ok)
	require.Len(t, wc.Cond, 1)
	require.Len(t, wc.Body, 1)
}

func TestParseUntilClause(t *testing.T) {
	cmd := onlyCommand(t, "until false; do echo a; done\n")
	_, ok := cmd.(*ast.UntilClause)
	require.True(t, ok)
}

func TestParseForWordList(t *testing.T) {
	cmd := onlyCommand(t, "for x in a b c; do echo $x; done\n")
	fc, ok := cmd.(*ast.ForClause)
	require.True(t, ok)
	wi, ok := fc.Loop.(*ast.WordIter)
	require.True(t, ok)
	require.Equal(t, "x", wi.Name)
	require.True(t, wi.HasIn)
	require.Len(t, wi.Items, 3)
}

func TestParseForWithoutIn(t *testing.T) {
	cmd := onlyCommand(t, "for x; do echo $x; done\n")
	fc := cmd.(*ast.ForClause)
	wi := fc.Loop.(*ast.WordIter)
	require.False(t, wi.HasIn)
	require.Nil(t, wi.Items)
}

func TestParseCStyleFor(t *testing.T) {
	cmd := onlyCommand(t, "for ((i=0; i<10; i++)); do echo $i; done\n")
	fc := cmd.(*ast.ForClause)
	cl, ok := fc.Loop.(*ast.CStyleLoop)
	require.True(t, ok)
	require.NotNil(t, cl.Init)
	require.NotNil(t, cl.Cond)
	require.NotNil(t, cl.Post)
}

func TestParseCStyleForEmptyClauses(t *testing.T) {
	cmd := onlyCommand(t, "for ((;;)); do echo hi; done\n")
	fc := cmd.(*ast.ForClause)
	cl := fc.Loop.(*ast.CStyleLoop)
	require.Nil(t, cl.Init)
	require.Nil(t, cl.Cond)
	require.Nil(t, cl.Post)
}

func TestParseSelectClause(t *testing.T) {
	cmd := onlyCommand(t, "select x in a b; do echo $x; done\n")
	sc, ok := cmd.(*ast.SelectClause)
	require.True(t, ok)
	require.Equal(t, "x", sc.Loop.Name)
	require.Len(t, sc.Loop.Items, 2)
}

func TestParseCaseClause(t *testing.T) {
	cmd := onlyCommand(t, "case $x in a) echo a ;; b|c) echo bc ;; *) echo other ;; esac\n")
	cc, ok := cmd.(*ast.CaseClause)
	require.True(t, ok)
	require.Len(t, cc.Items, 3)
	require.Len(t, cc.Items[1].Patterns, 2)
	for _, it := range cc.Items {
		require.Equal(t, token.DSEMI, it.Terminator)
	}
}

func TestParseSubshell(t *testing.T) {
	cmd := onlyCommand(t, "( echo a; echo b )\n")
	sh, ok := cmd.(*ast.Subshell)
	require.True(t, ok)
	require.Len(t, sh.Body, 2)
}

func TestParseBraceGroup(t *testing.T) {
	cmd := onlyCommand(t, "{ echo a; echo b; }\n")
	bg, ok := cmd.(*ast.BraceGroup)
	require.True(t, ok)
	require.Len(t, bg.Body, 2)
}

func TestParseArithmeticCommand(t *testing.T) {
	cmd := onlyCommand(t, "((x + 1))\n")
	ac, ok := cmd.(*ast.ArithmeticCommand)
	require.True(t, ok)
	require.NotNil(t, ac.Expr)
	lit, ok := ac.Expr.Lit()
	require.True(t, ok)
	require.Equal(t, "x + 1", lit)
}

func TestParseLetCommand(t *testing.T) {
	cmd := onlyCommand(t, "let x=1 y=2\n")
	lc, ok := cmd.(*ast.LetCommand)
	require.True(t, ok)
	require.Len(t, lc.Exprs, 2)
}

func TestParseDeclareCommand(t *testing.T) {
	cmd := onlyCommand(t, "declare -i -x FOO=1 BAR\n")
	dc, ok := cmd.(*ast.DeclareCommand)
	require.True(t, ok)
	require.Equal(t, "declare", dc.Variant)
	require.Len(t, dc.Opts, 2)
	require.Len(t, dc.Assigns, 2)
	require.Equal(t, "FOO", dc.Assigns[0].Name)
	require.Nil(t, dc.Assigns[1].Value)
}

func TestParseLocalCommand(t *testing.T) {
	cmd := onlyCommand(t, "local x=1\n")
	dc, ok := cmd.(*ast.DeclareCommand)
	require.True(t, ok)
	require.Equal(t, "local", dc.Variant)
}

func TestParseFunctionDefinitionPosixStyle(t *testing.T) {
	prog := parse(t, "foo() { echo hi; }\n")
	require.Len(t, prog.Items, 1)
	fd, ok := prog.Items[0].(*ast.FunctionDefinition)
	require.True(t, ok)
	require.Equal(t, "foo", fd.Name)
	require.False(t, fd.BashStyle)
	require.NotNil(t, fd.Body)
}

func TestParseFunctionDefinitionBashStyle(t *testing.T) {
	prog := parse(t, "function foo { echo hi; }\n")
	fd, ok := prog.Items[0].(*ast.FunctionDefinition)
	require.True(t, ok)
	require.Equal(t, "foo", fd.Name)
	require.True(t, fd.BashStyle)
}

func TestParseFunctionDefinitionBashStyleWithParens(t *testing.T) {
	prog := parse(t, "function foo() { echo hi; }\n")
	fd, ok := prog.Items[0].(*ast.FunctionDefinition)
	require.True(t, ok)
	require.Equal(t, "foo", fd.Name)
	require.True(t, fd.BashStyle)
}

func TestParseFunctionDefinitionAsPipelineStage(t *testing.T) {
	prog := parse(t, "foo() { echo hi; } | cat\n")
	s := onlyStatement(t, prog)
	pl := s.List.Pipelines[0]
	require.Len(t, pl.Stages, 2)
	_, ok := pl.Stages[0].Command.(*ast.FunctionDefinition)
	require.True(t, ok)
}

func TestParseEnhancedTestPrecedence(t *testing.T) {
	// "-a" binds tighter than "-o", so this parses as a || (b && c).
	cmd := onlyCommand(t, "[[ a || b && c ]]\n")
	et, ok := cmd.(*ast.EnhancedTest)
	require.True(t, ok)
	bt, ok := et.X.(*ast.BinaryTest)
	require.True(t, ok)
	require.Equal(t, token.OR_IF, bt.Op)
	_, ok = bt.Y.(*ast.BinaryTest)
	require.True(t, ok)
}

func TestParseEnhancedTestUnaryAndParen(t *testing.T) {
	cmd := onlyCommand(t, "[[ ! ( -f a && -d b ) ]]\n")
	et := cmd.(*ast.EnhancedTest)
	ut, ok := et.X.(*ast.UnaryTest)
	require.True(t, ok)
	require.Equal(t, token.BANG, ut.Op)
	pt, ok := ut.X.(*ast.ParenTest)
	require.True(t, ok)
	_, ok = pt.X.(*ast.BinaryTest)
	require.True(t, ok)
}

func TestParseEnhancedTestComparison(t *testing.T) {
	cmd := onlyCommand(t, "[[ $a == $b ]]\n")
	et := cmd.(*ast.EnhancedTest)
	bt, ok := et.X.(*ast.BinaryTest)
	require.True(t, ok)
	require.Equal(t, "==", bt.OpStr)
}

func TestParseCmdSubstBodyIsResolved(t *testing.T) {
	prog := parse(t, "echo $(echo hi)\n")
	st := onlyStage(t, onlyStatement(t, prog))
	sc := st.Command.(*ast.SimpleCommand)
	require.Len(t, sc.Args, 2)
	cs, ok := sc.Args[1].Parts[0].(*ast.CmdSubst)
	require.True(t, ok)
	require.Len(t, cs.Body, 1)
}

func TestParseProcSubstBodyIsResolved(t *testing.T) {
	prog := parse(t, "diff <(sort a) <(sort b)\n")
	st := onlyStage(t, onlyStatement(t, prog))
	sc := st.Command.(*ast.SimpleCommand)
	ps, ok := sc.Args[1].Parts[0].(*ast.ProcSubst)
	require.True(t, ok)
	require.Equal(t, ast.ProcIn, ps.Direction)
	require.Len(t, ps.Body, 1)
}

func TestParseNestedCmdSubstHeredocResolved(t *testing.T) {
	prog := parse(t, "x=$(cat <<EOF\nhi\nEOF\n)\n")
	st := onlyStage(t, onlyStatement(t, prog))
	cs, ok := st.Assigns[0].Value.Parts[0].(*ast.CmdSubst)
	require.True(t, ok)
	require.Len(t, cs.Body, 1)
	inner := onlyStage(t, cs.Body[0])
	require.Equal(t, "hi\n", inner.Redirects[0].HeredocBody)
}

func TestParseCollectingModeRecordsError(t *testing.T) {
	_, errs := Parse([]byte("if true; then echo a\n"), Config{Mode: ModeCollecting})
	require.NotEmpty(t, errs)
}

func TestParseStrictModeAbortsOnFirstError(t *testing.T) {
	prog, errs := Parse([]byte("if true; then echo a\n"), Config{Mode: ModeStrict})
	require.Nil(t, prog)
	require.Len(t, errs, 1)
}
