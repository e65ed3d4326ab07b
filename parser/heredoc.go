package parser

import "github.com/gopsh/shcore/ast"

// resolveAll is the post-processing pass the 4.6 describes as
// a second walk over the tree: it fills each Redirect's HeredocBody from
// the bodies collected while lexing, and recursively parses every
// CmdSubst/ProcSubst's Raw text into its Body, recursing into a nested
// "$(...)" the same way the parser does while walking word parts. Both
// concerns share one walk since they visit the same tree shape.
func resolveAll(prog *ast.Program, bodies map[string]string, cfg Config) error {
	w := &resolver{bodies: bodies, cfg: cfg}
	w.walkItems(prog.Items)
	return w.err
}

type resolver struct {
	bodies map[string]string
	cfg    Config
	err    error
}

func (w *resolver) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *resolver) walkItems(items []ast.ProgramItem) {
	for _, item := range items {
		switch v := item.(type) {
		case *ast.Statement:
			w.walkStatement(v)
		case *ast.FunctionDefinition:
			w.walkFunctionDefinition(v)
		}
	}
}

func (w *resolver) walkStatementList(list ast.StatementList) {
	for _, s := range list {
		w.walkStatement(s)
	}
}

func (w *resolver) walkStatement(s *ast.Statement) {
	if s == nil || s.List == nil {
		return
	}
	for _, pl := range s.List.Pipelines {
		w.walkPipeline(pl)
	}
}

func (w *resolver) walkPipeline(pl *ast.Pipeline) {
	for _, st := range pl.Stages {
		w.walkPipelineStage(st)
	}
}

func (w *resolver) walkPipelineStage(st *ast.PipelineStage) {
	for _, a := range st.Assigns {
		w.walkAssign(a)
	}
	for _, r := range st.Redirects {
		w.walkRedirect(r)
	}
	w.walkCommand(st.Command)
}

func (w *resolver) walkAssign(a *ast.Assign) {
	if a == nil {
		return
	}
	w.walkWord(a.Index)
	w.walkWord(a.Value)
	for _, e := range a.Array {
		w.walkWord(e)
	}
}

func (w *resolver) walkRedirect(r *ast.Redirect) {
	if r == nil {
		return
	}
	if r.Kind == ast.Heredoc || r.Kind == ast.HeredocStrip {
		r.HeredocBody = w.bodies[r.HeredocKey]
		r.ExpansionEligible = !r.HeredocQuoted
	}
	w.walkWord(r.Target)
}

func (w *resolver) walkFunctionDefinition(f *ast.FunctionDefinition) {
	if f == nil {
		return
	}
	w.walkCommand(f.Body)
}

func (w *resolver) walkCommand(c ast.Command) {
	switch v := c.(type) {
	case nil:
	case *ast.SimpleCommand:
		for _, a := range v.Args {
			w.walkWord(a)
		}
	case *ast.IfClause:
		w.walkStatementList(v.Cond)
		w.walkStatementList(v.Then)
		for _, e := range v.Elifs {
			w.walkStatementList(e.Cond)
			w.walkStatementList(e.Then)
		}
		w.walkStatementList(v.Else)
	case *ast.WhileClause:
		w.walkStatementList(v.Cond)
		w.walkStatementList(v.Body)
	case *ast.UntilClause:
		w.walkStatementList(v.Cond)
		w.walkStatementList(v.Body)
	case *ast.ForClause:
		w.walkLoop(v.Loop)
		w.walkStatementList(v.Body)
	case *ast.SelectClause:
		w.walkWordIter(v.Loop)
		w.walkStatementList(v.Body)
	case *ast.CaseClause:
		w.walkWord(v.Subject)
		for _, it := range v.Items {
			for _, pat := range it.Patterns {
				w.walkWord(pat)
			}
			w.walkStatementList(it.Body)
		}
	case *ast.Subshell:
		w.walkStatementList(v.Body)
	case *ast.BraceGroup:
		w.walkStatementList(v.Body)
	case *ast.ArithmeticCommand:
		w.walkWord(v.Expr)
	case *ast.EnhancedTest:
		w.walkTestExpr(v.X)
	case *ast.FunctionDefinition:
		w.walkFunctionDefinition(v)
	case *ast.DeclareCommand:
		for _, o := range v.Opts {
			w.walkWord(o)
		}
		for _, a := range v.Assigns {
			w.walkAssign(a)
		}
	case *ast.LetCommand:
		for _, e := range v.Exprs {
			w.walkWord(e)
		}
	}
}

func (w *resolver) walkLoop(l ast.Loop) {
	switch v := l.(type) {
	case *ast.WordIter:
		w.walkWordIter(v)
	case *ast.CStyleLoop:
		w.walkWord(v.Init)
		w.walkWord(v.Cond)
		w.walkWord(v.Post)
	}
}

func (w *resolver) walkWordIter(it *ast.WordIter) {
	if it == nil {
		return
	}
	for _, item := range it.Items {
		w.walkWord(item)
	}
}

func (w *resolver) walkTestExpr(t ast.TestExpr) {
	switch v := t.(type) {
	case *ast.BinaryTest:
		w.walkTestExpr(v.X)
		w.walkTestExpr(v.Y)
	case *ast.UnaryTest:
		w.walkTestExpr(v.X)
	case *ast.ParenTest:
		w.walkTestExpr(v.X)
	case *ast.WordTest:
		w.walkWord(v.Word)
	}
}

func (w *resolver) walkWord(word *ast.Word) {
	if word == nil {
		return
	}
	for _, part := range word.Parts {
		w.walkWordPart(part)
	}
}

func (w *resolver) walkWordPart(part ast.WordPart) {
	switch v := part.(type) {
	case *ast.ParamExpansion:
		w.walkWord(v.Index)
		w.walkWord(v.OpWord)
		if v.Slice != nil {
			w.walkWord(v.Slice.Offset)
			w.walkWord(v.Slice.Length)
		}
		if v.Replace != nil {
			w.walkWord(v.Replace.Pattern)
			w.walkWord(v.Replace.With)
		}
	case *ast.CmdSubst:
		w.resolveSub(v.Raw, &v.Body)
	case *ast.ArithmeticExpansion:
		w.walkWord(v.Expr)
	case *ast.ProcSubst:
		w.resolveSub(v.Raw, &v.Body)
	case *ast.ArrayExpr:
		for _, e := range v.Elems {
			w.walkWord(e)
		}
	}
}

// resolveSub recursively parses a CmdSubst/ProcSubst's Raw text into a
// StatementList. It calls Parse itself, so nested substitutions and
// heredocs inside raw resolve through this same pass one level down.
func (w *resolver) resolveSub(raw string, body *ast.StatementList) {
	if raw == "" {
		return
	}
	sub, errs := Parse([]byte(raw), w.cfg)
	if len(errs) > 0 {
		w.fail(errs[0])
		return
	}
	var list ast.StatementList
	for _, item := range sub.Items {
		if s, ok := item.(*ast.Statement); ok {
			list = append(list, s)
		}
	}
	*body = list
}
