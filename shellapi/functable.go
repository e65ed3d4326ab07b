package shellapi

import "github.com/gopsh/shcore/ast"

// MapFunctionTable is a default, in-memory FunctionTable.
type MapFunctionTable struct {
	fns map[string]*ast.FunctionDefinition
}

func NewMapFunctionTable() *MapFunctionTable {
	return &MapFunctionTable{fns: make(map[string]*ast.FunctionDefinition)}
}

func (t *MapFunctionTable) Get(name string) (*ast.FunctionDefinition, bool) {
	fn, ok := t.fns[name]
	return fn, ok
}

func (t *MapFunctionTable) Set(name string, def *ast.FunctionDefinition) {
	t.fns[name] = def
}
