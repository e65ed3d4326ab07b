// Package expand implements the expansion evaluator: it rewrites AST
// Words into runtime strings, in the fixed order brace expansion,
// tilde expansion, parameter/command/arithmetic expansion, quote
// removal, field splitting, and pathname expansion. It never mutates
// the AST it is given; the only state it touches is the VariableStore
// collaborator, and only for "${var:=w}" and array auto-creation.
package expand

import (
	"context"
	"strconv"
	"strings"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/pattern"
	"github.com/gopsh/shcore/shellapi"
	"github.com/gopsh/shcore/token"
)

// Config bundles the collaborators the evaluator calls out to plus the
// handful of options that change its behaviour.
type Config struct {
	Vars   shellapi.VariableStore
	Funcs  shellapi.FunctionTable
	Runner shellapi.CommandRunner
	Arith  shellapi.ArithmeticEvaluator
	Glob   shellapi.Globber

	Cwd    string
	NoGlob bool

	ifs string
}

func (c *Config) prepareIFS() {
	vr := c.Vars.Get("IFS")
	if !vr.IsSet() {
		c.ifs = " \t\n"
		return
	}
	c.ifs = vr.Scalar()
}

func (c *Config) ifsRune(r rune) bool {
	for _, r2 := range c.ifs {
		if r == r2 {
			return true
		}
	}
	return false
}

func (c *Config) ifsJoin(strs []string) string {
	sep := ""
	if c.ifs != "" {
		sep = c.ifs[:1]
	}
	return strings.Join(strs, sep)
}

// fieldPart is one already-expanded, not-yet-joined piece of a field,
// tagged with the quoting regime its source text came from so later
// steps know whether it is eligible for splitting/globbing.
type fieldPart struct {
	val   string
	quote token.QuoteKind
}

func joinParts(parts []fieldPart) string {
	if len(parts) == 1 {
		return parts[0].val
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.val)
	}
	return sb.String()
}

// Literal expands word without field splitting or pathname expansion —
// the form assignment right-hand sides and here-document delimiters use,
// since assignment values are never field-split.
func Literal(ctx context.Context, cfg *Config, word *ast.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	cfg.prepareIFS()
	field, err := cfg.wordField(ctx, word.Parts, token.QuoteDouble)
	if err != nil {
		return "", err
	}
	return joinParts(field), nil
}

// Pattern expands word for use as a glob/case pattern: quoted runs are
// escaped with pattern.QuoteMeta so they match themselves literally once
// handed to the pattern package, rather than being treated as glob
// metacharacters.
func Pattern(ctx context.Context, cfg *Config, word *ast.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	field, err := cfg.wordField(ctx, word.Parts, token.QuoteSingle)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, part := range field {
		if part.quote != token.QuoteNone {
			sb.WriteString(pattern.QuoteMeta(part.val, 0))
		} else {
			sb.WriteString(part.val)
		}
	}
	return sb.String(), nil
}

// Fields runs the full pipeline over words: brace expansion, then per
// resulting word tilde/parameter/command/arithmetic expansion, quote
// removal, field splitting, and pathname expansion.
func Fields(ctx context.Context, cfg *Config, words ...*ast.Word) ([]string, error) {
	cfg.prepareIFS()
	var fields []string
	for _, w := range words {
		for _, braced := range Braces(w) {
			wfields, err := cfg.wordFields(ctx, braced.Parts)
			if err != nil {
				return nil, err
			}
			for _, field := range wfields {
				path, doGlob := cfg.escapedGlobField(field)
				if doGlob && !cfg.NoGlob {
					matches, err := cfg.glob(path)
					if err != nil {
						return nil, err
					}
					if len(matches) > 0 {
						fields = append(fields, matches...)
						continue
					}
				}
				fields = append(fields, joinParts(field))
			}
		}
	}
	return fields, nil
}

func (c *Config) glob(escapedPattern string) ([]string, error) {
	if c.Glob == nil {
		return nil, nil
	}
	return c.Glob.Glob(escapedPattern, c.Cwd)
}

func (c *Config) escapedGlobField(parts []fieldPart) (escaped string, doGlob bool) {
	var sb strings.Builder
	for _, part := range parts {
		if part.quote != token.QuoteNone {
			sb.WriteString(pattern.QuoteMeta(part.val, 0))
			continue
		}
		sb.WriteString(part.val)
		if pattern.HasMeta(part.val, 0) {
			doGlob = true
		}
	}
	if doGlob {
		escaped = sb.String()
	}
	return escaped, doGlob
}

// wordField expands wps into one field without splitting, tagging each
// resulting piece with the quote kind in effect when it was produced
// (ql is the "ambient" quoting to report for expansions that have no
// directly preceding Literal to inherit from — Literal expands with
// quoteDouble ambient since that suppresses glob/split same as a
// real double-quoted context, while Pattern expansion uses quoteSingle
// ambient so an expansion with no preceding Literal is glob-escaped;
// every Literal keeps its own quote kind).
func (c *Config) wordField(ctx context.Context, wps []ast.WordPart, ql token.QuoteKind) ([]fieldPart, error) {
	var field []fieldPart
	curQuote := ql
	for i, wp := range wps {
		switch x := wp.(type) {
		case *ast.Literal:
			curQuote = x.Quote
			s := x.Text
			if i == 0 {
				s = c.expandTilde(s)
			}
			if curQuote == token.QuoteDouble {
				s = unescapeDouble(s)
			}
			field = append(field, fieldPart{val: s, quote: curQuote})
		case *ast.VarExpansion:
			val := c.varScalar(x.Name)
			field = append(field, fieldPart{val: val, quote: curQuote})
		case *ast.ParamExpansion:
			val, err := c.paramExp(ctx, x)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: val, quote: curQuote})
		case *ast.CmdSubst:
			val, err := c.cmdSubst(ctx, x)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: val, quote: curQuote})
		case *ast.ArithmeticExpansion:
			n, err := c.evalArithWord(ctx, x.Expr)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: strconv.FormatInt(n, 10), quote: curQuote})
		case *ast.ProcSubst:
			val, err := c.procSubst(ctx, x)
			if err != nil {
				return nil, err
			}
			field = append(field, fieldPart{val: val, quote: curQuote})
		case *ast.ExtGlob:
			field = append(field, fieldPart{val: extGlobText(x), quote: curQuote})
		}
	}
	return field, nil
}

func extGlobText(x *ast.ExtGlob) string {
	return string(x.Op) + "(" + x.Pattern + ")"
}

// wordFields is like wordField but performs IFS field splitting on the
// unquoted pieces of each part, the way an argument-list context needs.
func (c *Config) wordFields(ctx context.Context, wps []ast.WordPart) ([][]fieldPart, error) {
	var fields [][]fieldPart
	var cur []fieldPart
	allowEmpty := false
	curQuote := token.QuoteNone

	flush := func() {
		if len(cur) == 0 {
			return
		}
		fields = append(fields, cur)
		cur = nil
	}
	splitAdd := func(val string, quote token.QuoteKind) {
		if quote != token.QuoteNone {
			cur = append(cur, fieldPart{val: val, quote: quote})
			return
		}
		parts := strings.FieldsFunc(val, c.ifsRune)
		for i, piece := range parts {
			if i > 0 {
				flush()
			}
			cur = append(cur, fieldPart{val: piece})
		}
	}

	for i, wp := range wps {
		switch x := wp.(type) {
		case *ast.Literal:
			curQuote = x.Quote
			s := x.Text
			if i == 0 {
				s = c.expandTilde(s)
			}
			if curQuote != token.QuoteNone {
				allowEmpty = true
				if curQuote == token.QuoteDouble {
					s = unescapeDouble(s)
				}
				cur = append(cur, fieldPart{val: s, quote: curQuote})
			} else {
				splitAdd(s, token.QuoteNone)
			}
		case *ast.VarExpansion:
			if curQuote == token.QuoteDouble && x.Name == "@" {
				c.splitPositionalAll(&fields, &cur, flush)
				continue
			}
			splitAdd(c.varScalar(x.Name), curQuote)
		case *ast.ParamExpansion:
			if curQuote == token.QuoteDouble {
				if elems, ok := c.quotedArrayElems(x); ok {
					for i, e := range elems {
						if i > 0 {
							flush()
						}
						cur = append(cur, fieldPart{val: e, quote: token.QuoteDouble})
					}
					continue
				}
			}
			val, err := c.paramExp(ctx, x)
			if err != nil {
				return nil, err
			}
			splitAdd(val, curQuote)
		case *ast.CmdSubst:
			val, err := c.cmdSubst(ctx, x)
			if err != nil {
				return nil, err
			}
			splitAdd(val, curQuote)
		case *ast.ArithmeticExpansion:
			n, err := c.evalArithWord(ctx, x.Expr)
			if err != nil {
				return nil, err
			}
			cur = append(cur, fieldPart{val: strconv.FormatInt(n, 10), quote: curQuote})
		case *ast.ProcSubst:
			val, err := c.procSubst(ctx, x)
			if err != nil {
				return nil, err
			}
			cur = append(cur, fieldPart{val: val, quote: curQuote})
		case *ast.ExtGlob:
			cur = append(cur, fieldPart{val: extGlobText(x), quote: curQuote})
		}
	}
	flush()
	if allowEmpty && len(fields) == 0 {
		fields = append(fields, cur)
	}
	return fields, nil
}

// splitPositionalAll implements "$@" inside double quotes: each
// positional parameter becomes its own field, regardless of IFS; text
// directly before or after it joins the first or last field.
func (c *Config) splitPositionalAll(fields *[][]fieldPart, cur *[]fieldPart, flush func()) {
	for i, p := range c.Vars.AllPositional() {
		if i > 0 {
			flush()
		}
		*cur = append(*cur, fieldPart{val: p, quote: token.QuoteDouble})
	}
}

// quotedArrayElems reports whether pe is exactly "${@}" or "${name[@]}",
// the two shapes that must explode into one field per element even
// inside double quotes, and if so returns those elements.
func (c *Config) quotedArrayElems(pe *ast.ParamExpansion) ([]string, bool) {
	if pe.Indirect || pe.Length {
		return nil, false
	}
	if pe.Name == "@" && pe.Index == nil {
		return c.Vars.AllPositional(), true
	}
	if pe.Index == nil {
		return nil, false
	}
	idx, ok := pe.Index.Lit()
	if !ok || idx != "@" {
		return nil, false
	}
	vr := c.Vars.Get(pe.Name)
	if vr.Kind != shellapi.Indexed {
		return nil, false
	}
	return vr.List, true
}

func (c *Config) varScalar(name string) string {
	switch name {
	case "@", "*":
		return c.ifsJoin(c.Vars.AllPositional())
	case "#":
		return strconv.Itoa(c.Vars.PositionalCount())
	}
	if n, err := strconv.Atoi(name); err == nil {
		s, _ := c.Vars.Positional(n)
		return s
	}
	return c.Vars.Get(name).Scalar()
}

func (c *Config) cmdSubst(ctx context.Context, cs *ast.CmdSubst) (string, error) {
	out, err := c.Runner.RunCapture(ctx, cs.Body, nil)
	if err != nil {
		return "", errf(CommandSubstitutionFailure, "command substitution failed: %v", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func (c *Config) procSubst(ctx context.Context, ps *ast.ProcSubst) (string, error) {
	dir := shellapi.ProcIn
	if ps.Direction == ast.ProcOut {
		dir = shellapi.ProcOut
	}
	path, err := c.Runner.RunProcSub(ctx, ps.Body, dir)
	if err != nil {
		return "", errf(ProcessSubstitutionUnsupported, "process substitution failed: %v", err)
	}
	return path, nil
}

func (c *Config) evalArithWord(ctx context.Context, w *ast.Word) (int64, error) {
	text, err := Literal(ctx, c, w)
	if err != nil {
		return 0, err
	}
	n, err := c.Arith.Eval(ctx, text, c.Vars)
	if err != nil {
		return 0, errf(ArithError, "%v", err)
	}
	return n, nil
}

// unescapeDouble resolves the handful of escapes double quotes still
// honour once the lexer has already stripped everything else: "\$",
// "\`", "\"", "\\" stay escaped verbatim by the lexer's scanDoubleQuote,
// so by the time expansion sees the Literal, only a literal backslash
// run might remain to collapse.
func unescapeDouble(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '$', '`', '"', '\\':
				sb.WriteByte(s[i+1])
				i++
				continue
			}
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func (c *Config) expandTilde(field string) string {
	if len(field) == 0 || field[0] != '~' {
		return field
	}
	name := field[1:]
	rest := ""
	if i := strings.IndexByte(name, '/'); i >= 0 {
		rest = name[i:]
		name = name[:i]
	}
	if name == "" {
		return c.Vars.Get("HOME").Scalar() + rest
	}
	// Looking up other users' home directories needs os/user, which is
	// a surrounding-program concern outside the collaborator boundary;
	// the core only ever resolves its own $HOME.
	return field
}
