// Package ast defines the abstract syntax tree produced by the parser.
// Every node is a small value type; the tree holds no back-references,
// so ownership is strictly tree-shaped.
package ast

import "github.com/gopsh/shcore/token"

// Node is implemented by every AST node.
type Node interface {
	Span() token.Span
}

// Program is the root node: an ordered list of top-level items, each a
// FunctionDefinition or a Statement.
type Program struct {
	Items []ProgramItem
	Sp    token.Span
}

func (p *Program) Span() token.Span { return p.Sp }

// ProgramItem is either a *Statement or a *FunctionDefinition.
type ProgramItem interface {
	Node
	programItemNode()
}

func (*Statement) programItemNode()          {}
func (*FunctionDefinition) programItemNode() {}

// StatementList is a non-empty sequence of statements forming a compound
// command's body or condition.
type StatementList []*Statement

func (l StatementList) Span() token.Span {
	if len(l) == 0 {
		return token.Span{}
	}
	return token.Span{Start: l[0].Span().Start, End: l[len(l)-1].Span().End,
		StartPos: l[0].Span().StartPos, EndPos: l[len(l)-1].Span().EndPos}
}

// Statement wraps an and-or list together with the separator that
// terminated it.
type Statement struct {
	List       *AndOrList
	Terminator token.Kind // one of SEMI, AMP, NEWLINE, or ILLEGAL meaning "none" (EOF-terminated)
	Sp         token.Span
}

func (s *Statement) Span() token.Span { return s.Sp }

// Background reports whether this statement was terminated by '&',
// i.e. its and-or list runs in the background.
func (s *Statement) Background() bool { return s.Terminator == token.AMP }

// AndOrList is a non-empty sequence of Pipelines joined by && / ||,
// left-associative.
type AndOrList struct {
	Pipelines []*Pipeline
	Ops       []token.Kind // len(Ops) == len(Pipelines)-1; each is AND_IF or OR_IF
	Sp        token.Span
}

func (a *AndOrList) Span() token.Span { return a.Sp }

// Pipeline is "[negated] command (| command)*".
type Pipeline struct {
	Negated bool
	Bang    token.Position // valid iff Negated
	Stages  []*PipelineStage
	Sp      token.Span
}

func (p *Pipeline) Span() token.Span { return p.Sp }

// PipelineStage is one stage of a pipeline: optional prefix assignments, an
// optional Command (absent for a pure assignment statement), and trailing
// redirections, matching the assignment-prefix and redirection-suffix
// grammar that every pipe_component carries.
type PipelineStage struct {
	Assigns   []*Assign
	Command   Command // nil for a bare assignment with no command word
	Redirects []*Redirect
	Sp        token.Span
}

func (s *PipelineStage) Span() token.Span { return s.Sp }

// Command is implemented by every node that may appear as a pipeline
// stage's command: SimpleCommand or any CompoundCommand variant. A
// compound command may appear anywhere a simple command may.
type Command interface {
	Node
	commandNode()
}

func (*SimpleCommand) commandNode()       {}
func (*IfClause) commandNode()            {}
func (*WhileClause) commandNode()         {}
func (*UntilClause) commandNode()         {}
func (*ForClause) commandNode()           {}
func (*CaseClause) commandNode()          {}
func (*SelectClause) commandNode()        {}
func (*Subshell) commandNode()            {}
func (*BraceGroup) commandNode()          {}
func (*ArithmeticCommand) commandNode()   {}
func (*EnhancedTest) commandNode()        {}
func (*FunctionDefinition) commandNode()  {}
func (*DeclareCommand) commandNode()      {}
func (*LetCommand) commandNode()          {}

// SimpleCommand is a command word plus its arguments, all as Words.
// Prefix assignments and redirections live on the enclosing
// PipelineStage.
type SimpleCommand struct {
	Args []*Word
	Sp   token.Span
}

func (c *SimpleCommand) Span() token.Span { return c.Sp }

// Assign represents an assignment, whether a command prefix
// ("FOO=bar cmd") or a standalone assignment statement.
type Assign struct {
	Name    string
	NamePos token.Position
	Index   *Word // non-nil for "name[index]=value"
	Append  bool  // true for +=
	Value   *Word // scalar value; nil if Array is set
	Array   []*Word // non-nil for "name=(a b c)" array-initialiser assignments
	Sp      token.Span
}

func (a *Assign) Span() token.Span { return a.Sp }

// Redirect is an input/output redirection.
type Redirect struct {
	Kind   RedirKind
	OpPos  token.Position
	Fd     *int // explicit source fd, e.g. "2" in "2>file"; nil means default
	Target *Word

	// Heredoc-specific fields, populated by the heredoc post-processor
	// for Kind == Heredoc or HeredocStrip.
	HeredocKey        string // placeholder key generated by the lexer while parsing
	HeredocBody       string // filled in after the post-processing pass
	HeredocQuoted     bool   // true if the delimiter was quoted (disables expansion)
	ExpansionEligible bool   // !HeredocQuoted, set by the post-processor

	Sp token.Span
}

func (r *Redirect) Span() token.Span { return r.Sp }

// RedirKind is the closed set of redirection kinds the parser produces.
type RedirKind int

const (
	InputFile RedirKind = iota
	OutputFile
	OutputAppend
	OutputClobber
	ErrorFile
	ErrorAppend
	DupRead
	DupWrite
	Heredoc
	HeredocStrip
	HereString
	ReadWrite
)

func (k RedirKind) String() string {
	switch k {
	case InputFile:
		return "InputFile"
	case OutputFile:
		return "OutputFile"
	case OutputAppend:
		return "OutputAppend"
	case OutputClobber:
		return "OutputClobber"
	case ErrorFile:
		return "ErrorFile"
	case ErrorAppend:
		return "ErrorAppend"
	case DupRead:
		return "DupRead"
	case DupWrite:
		return "DupWrite"
	case Heredoc:
		return "Heredoc"
	case HeredocStrip:
		return "HeredocStrip"
	case HereString:
		return "HereString"
	case ReadWrite:
		return "ReadWrite"
	default:
		return "RedirKind(?)"
	}
}
