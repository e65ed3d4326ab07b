// Package shellapi defines the collaborator interfaces the expansion
// evaluator depends on but does not itself implement: variable storage,
// the function table, running a command to capture its output or set
// up a process substitution, arithmetic evaluation, and pathname
// globbing. The core never holds a direct reference to a surrounding
// shell's internals; it only ever talks to these interfaces.
package shellapi

import (
	"context"

	"github.com/gopsh/shcore/ast"
)

// ValueKind describes which shape a Variable's value takes.
type ValueKind uint8

const (
	Unknown ValueKind = iota
	String
	Indexed
	Associative
	NameRef
)

// Variable describes a shell variable: its attributes and its value.
// The zero Variable is unset.
type Variable struct {
	Set      bool
	Exported bool
	ReadOnly bool
	Local    bool

	Kind ValueKind

	Str string            // Kind == String or NameRef
	List []string         // Kind == Indexed
	Map  map[string]string // Kind == Associative
}

// IsSet reports whether the variable currently holds a value.
func (v Variable) IsSet() bool { return v.Set }

// Scalar returns the variable's value collapsed to a single string, the
// way an unindexed reference to an array yields its first element.
func (v Variable) Scalar() string {
	switch v.Kind {
	case String, NameRef:
		return v.Str
	case Indexed:
		if len(v.List) > 0 {
			return v.List[0]
		}
	}
	return ""
}

// VariableStore is the scoped variable environment the expander reads
// from and occasionally writes to (the `${name:=word}` and array
// auto-creation cases). Implementations decide their own
// scoping/export/concurrency discipline; the expander only ever calls
// through this interface.
type VariableStore interface {
	// Get retrieves a variable by name. An unset variable is reported by
	// Variable.IsSet returning false, not by a nil/ok pair.
	Get(name string) Variable

	// Set assigns a variable. Implementations may reject the write (e.g.
	// a readonly target) by returning an error.
	Set(name string, v Variable) error

	// GetArrayElement fetches one element of an indexed or associative
	// array by its (already-expanded) index/key text.
	GetArrayElement(name, index string) (string, bool)

	// NamesWithPrefix lists every currently-set variable name starting
	// with prefix, for "${!prefix*}"/"${!prefix@}".
	NamesWithPrefix(prefix string) []string

	// Positional returns the n'th positional parameter (1-based) and
	// whether it is set; n == 0 is "$0".
	Positional(n int) (string, bool)

	// PositionalCount is "$#".
	PositionalCount() int

	// AllPositional is the expansion of "$@"/"$*" as a slice of fields.
	AllPositional() []string
}

// FunctionTable looks up and registers shell functions by name.
type FunctionTable interface {
	Get(name string) (*ast.FunctionDefinition, bool)
	Set(name string, def *ast.FunctionDefinition)
}

// ProcDirection mirrors ast.ProcDir without importing it, so callers
// implementing CommandRunner don't need an ast import solely for this.
type ProcDirection int

const (
	ProcIn ProcDirection = iota
	ProcOut
)

// CommandRunner executes a parsed statement list on the surrounding
// program's behalf: capturing output for command substitution, or
// arranging a process substitution's backing descriptor/FIFO.
type CommandRunner interface {
	// RunCapture runs body and returns its captured stdout, optionally
	// feeding stdin. Trailing newlines are the caller's (expander's) job
	// to strip, not the runner's.
	RunCapture(ctx context.Context, body ast.StatementList, stdin []byte) ([]byte, error)

	// RunProcSub arranges for body to run with its stdin or stdout
	// connected to a path (a FIFO or /dev/fd/N) and returns that path.
	RunProcSub(ctx context.Context, body ast.StatementList, dir ProcDirection) (string, error)
}

// ArithmeticEvaluator evaluates an already-expanded arithmetic
// expression string. The core never parses arithmetic itself; it only
// ever hands the evaluator a string, after running one pass of
// parameter/command substitution over it.
type ArithmeticEvaluator interface {
	Eval(ctx context.Context, expr string, vars VariableStore) (int64, error)
}

// Globber performs pathname expansion, the last step of word expansion.
type Globber interface {
	Glob(pattern string, cwd string) ([]string, error)
}
