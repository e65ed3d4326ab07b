package ast

import "github.com/gopsh/shcore/token"

// IfClause is an if/elif/else/fi compound command.
type IfClause struct {
	Cond  StatementList
	Then  StatementList
	Elifs []*ElifBranch
	Else  StatementList // nil if there was no else branch
	Sp    token.Span
}

func (c *IfClause) Span() token.Span { return c.Sp }

// ElifBranch is one "elif COND then BODY" branch of an IfClause.
type ElifBranch struct {
	Cond StatementList
	Then StatementList
	Sp   token.Span
}

// WhileClause is a while/do/done compound command.
type WhileClause struct {
	Cond StatementList
	Body StatementList
	Sp   token.Span
}

func (c *WhileClause) Span() token.Span { return c.Sp }

// UntilClause is an until/do/done compound command.
type UntilClause struct {
	Cond StatementList
	Body StatementList
	Sp   token.Span
}

func (c *UntilClause) Span() token.Span { return c.Sp }

// ForClause is a for/do/done compound command, iterating either over a
// word list (Loop is *WordIter) or C-style (Loop is *CStyleLoop).
type ForClause struct {
	Loop Loop
	Body StatementList
	Sp   token.Span
}

func (c *ForClause) Span() token.Span { return c.Sp }

// SelectClause is bash's "select NAME in WORDS; do BODY; done" — it shares
// WordIter's shape with ForClause's word-list form.
type SelectClause struct {
	Loop *WordIter
	Body StatementList
	Sp   token.Span
}

func (c *SelectClause) Span() token.Span { return c.Sp }

// Loop is implemented by WordIter and CStyleLoop.
type Loop interface {
	Node
	loopNode()
}

func (*WordIter) loopNode()   {}
func (*CStyleLoop) loopNode() {}

// WordIter is "NAME [in WORD...]" — the default for-loop form, omitting
// "in ..." iterates over "$@" at execution time.
type WordIter struct {
	Name    string
	NamePos token.Position
	Items   []*Word // nil if "in ..." was omitted
	HasIn   bool
	Sp      token.Span
}

func (w *WordIter) Span() token.Span { return w.Sp }

// CStyleLoop is "((init; cond; post))". Each expression is carried as a
// Word (not a parsed arithmetic tree) because the arithmetic evaluator
// is an external collaborator that only ever sees a string; any
// $var/$(...) inside these words still needs ordinary expansion first.
// A nil field means that clause was left empty, e.g. "((;;))".
type CStyleLoop struct {
	Init, Cond, Post *Word
	Sp               token.Span
}

func (c *CStyleLoop) Span() token.Span { return c.Sp }

// CaseClause is a case/in/esac compound command.
type CaseClause struct {
	Subject *Word
	Items   []*CaseItem
	Sp      token.Span
}

func (c *CaseClause) Span() token.Span { return c.Sp }

// CaseItem is one "pattern[|pattern...]) body ;;" entry.
type CaseItem struct {
	Patterns   []*Word
	Body       StatementList // may be empty, e.g. "pat) ;;"
	Terminator token.Kind    // DSEMI, SEMI_AMP, or DSEMI_AMP
	Sp         token.Span
}

func (c *CaseItem) Span() token.Span { return c.Sp }

// Subshell is "( and_or_list+ )".
type Subshell struct {
	Body StatementList
	Sp   token.Span
}

func (s *Subshell) Span() token.Span { return s.Sp }

// BraceGroup is "{ and_or_list+ ; }".
type BraceGroup struct {
	Body StatementList
	Sp   token.Span
}

func (b *BraceGroup) Span() token.Span { return b.Sp }

// ArithmeticCommand is "(( expr ))" used as a command (its exit status is
// 0 if expr evaluates non-zero, 1 otherwise — that evaluation itself is
// the ArithmeticEvaluator collaborator's job, not the core's).
type ArithmeticCommand struct {
	Expr *Word
	Sp   token.Span
}

func (a *ArithmeticCommand) Span() token.Span { return a.Sp }

// EnhancedTest is "[[ test_expr ]]".
type EnhancedTest struct {
	X  TestExpr
	Sp token.Span
}

func (t *EnhancedTest) Span() token.Span { return t.Sp }

// TestExpr is implemented by the nodes that can appear inside [[ ... ]].
type TestExpr interface {
	Node
	testExprNode()
}

func (*BinaryTest) testExprNode() {}
func (*UnaryTest) testExprNode()  {}
func (*ParenTest) testExprNode()  {}
func (*WordTest) testExprNode()   {}

// BinaryTest is "X op Y" inside [[ ]], e.g. X -eq Y, X =~ Y, X && Y.
type BinaryTest struct {
	Op    token.Kind
	OpStr string // captures bash's word-shaped binary operators (-eq, -nt, ...)
	X, Y  TestExpr
	Sp    token.Span
}

func (b *BinaryTest) Span() token.Span { return b.Sp }

// UnaryTest is "op X" inside [[ ]], e.g. -f X, ! X, -z X.
type UnaryTest struct {
	Op    token.Kind
	OpStr string
	X     TestExpr
	Sp    token.Span
}

func (u *UnaryTest) Span() token.Span { return u.Sp }

// ParenTest is "( X )" inside [[ ]], grouping for precedence.
type ParenTest struct {
	X  TestExpr
	Sp token.Span
}

func (p *ParenTest) Span() token.Span { return p.Sp }

// WordTest is a bare word operand inside [[ ]] (true iff non-empty).
type WordTest struct {
	Word *Word
	Sp   token.Span
}

func (w *WordTest) Span() token.Span { return w.Sp }

// FunctionDefinition declares a function. It is both a ProgramItem (it may
// appear at the top level) and a Command (so "foo() { :; } | bar" is
// valid), since the grammar lists function_def as one of the
// compound_command alternatives.
type FunctionDefinition struct {
	Name      string
	NamePos   token.Position
	BashStyle bool // true for "function name { ... }"; false for "name() { ... }"
	Body      Command
	Sp        token.Span
}

func (f *FunctionDefinition) Span() token.Span { return f.Sp }

// DeclareCommand models bash's declare/typeset/local/export/readonly
// family: a variant keyword, option
// words (-a, -A, -i, -x, ...), and zero or more assignments.
type DeclareCommand struct {
	Variant string // "declare", "typeset", "local", "export", "readonly", ...
	Opts    []*Word
	Assigns []*Assign
	Sp      token.Span
}

func (d *DeclareCommand) Span() token.Span { return d.Sp }

// LetCommand models bash's "let EXPR...": one or more arithmetic words, each evaluated in turn by the
// external ArithmeticEvaluator once expanded.
type LetCommand struct {
	Exprs []*Word
	Sp    token.Span
}

func (l *LetCommand) Span() token.Span { return l.Sp }
