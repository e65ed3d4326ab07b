package expand

import (
	"context"

	"github.com/gopsh/shcore/ast"
)

// Arith evaluates an arithmetic word: "$((expr))", a C-style for loop's
// init/cond/post clauses, a let operand, or an ((...)) command's
// expression. The bash arithmetic grammar itself is never parsed here:
// the evaluator collaborator gets one pass of parameter/command
// substituted text and does the rest itself, so this is a thin wrapper
// around the same expansion machinery every other word goes through
// plus a call out to Config.Arith.
func Arith(ctx context.Context, cfg *Config, word *ast.Word) (int64, error) {
	return cfg.evalArithWord(ctx, word)
}
