package expand

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gopsh/shcore/ast"
	"github.com/gopsh/shcore/pattern"
	"github.com/gopsh/shcore/shellapi"
)

// paramExp implements the "${...}" operator table, reading and
// occasionally writing through the VariableStore collaborator.
func (c *Config) paramExp(ctx context.Context, pe *ast.ParamExpansion) (string, error) {
	if pe.NamesPrefix || pe.NamesAll {
		names := c.Vars.NamesWithPrefix(pe.Name)
		return c.ifsJoin(names), nil
	}

	if pe.Indirect && pe.Index == nil {
		target := c.Vars.Get(pe.Name).Scalar()
		return c.resolveParam(ctx, pe, target)
	}

	return c.resolveParam(ctx, pe, pe.Name)
}

// resolveParam handles the common body of parameter expansion once the
// variable name to actually look up (name, or the indirect target of
// "${!name}") has been decided.
func (c *Config) resolveParam(ctx context.Context, pe *ast.ParamExpansion, name string) (string, error) {
	vr, set, value, err := c.indexedValue(ctx, pe, name)
	if err != nil {
		return "", err
	}

	if pe.Length {
		if pe.Index != nil {
			return strconv.Itoa(utf8.RuneCountInString(value)), nil
		}
		switch vr.Kind {
		case shellapi.Indexed:
			return strconv.Itoa(len(vr.List)), nil
		case shellapi.Associative:
			return strconv.Itoa(len(vr.Map)), nil
		}
		return strconv.Itoa(utf8.RuneCountInString(value)), nil
	}

	null := value == ""
	unset := !set

	switch pe.Op {
	case ast.OpNone:
		return value, nil

	case ast.OpMinus:
		if unset {
			return c.opWordText(ctx, pe)
		}
		return value, nil
	case ast.OpColonMinus:
		if unset || null {
			return c.opWordText(ctx, pe)
		}
		return value, nil

	case ast.OpAssign:
		if unset {
			return c.assignDefault(ctx, pe, name)
		}
		return value, nil
	case ast.OpColonAssign:
		if unset || null {
			return c.assignDefault(ctx, pe, name)
		}
		return value, nil

	case ast.OpQuestion:
		if unset {
			return "", c.unsetError(ctx, pe, name)
		}
		return value, nil
	case ast.OpColonQuestion:
		if unset || null {
			return "", c.unsetError(ctx, pe, name)
		}
		return value, nil

	case ast.OpPlus:
		if !unset {
			return c.opWordText(ctx, pe)
		}
		return "", nil
	case ast.OpColonPlus:
		if !unset && !null {
			return c.opWordText(ctx, pe)
		}
		return "", nil

	case ast.OpRemoveShortestPrefix, ast.OpRemoveLongestPrefix, ast.OpRemoveShortestSuffix, ast.OpRemoveLongestSuffix:
		pat, err := Pattern(ctx, c, pe.OpWord)
		if err != nil {
			return "", err
		}
		return removeMatch(value, pat, pe.Op)

	case ast.OpUpperFirst, ast.OpUpperAll, ast.OpLowerFirst, ast.OpLowerAll:
		return applyCase(value, pe.Op), nil

	case ast.OpSlice:
		return c.sliceValue(ctx, value, pe.Slice)

	case ast.OpReplace:
		return c.replaceValue(ctx, value, pe.Replace)
	}
	return value, nil
}

// indexedValue resolves name (optionally through pe.Index) to its
// current Variable and scalar string value.
func (c *Config) indexedValue(ctx context.Context, pe *ast.ParamExpansion, name string) (shellapi.Variable, bool, string, error) {
	switch name {
	case "@", "*":
		all := c.Vars.AllPositional()
		return shellapi.Variable{Set: len(all) > 0, Kind: shellapi.Indexed, List: all}, len(all) > 0, c.ifsJoin(all), nil
	case "#":
		return shellapi.Variable{Set: true}, true, strconv.Itoa(c.Vars.PositionalCount()), nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		s, ok := c.Vars.Positional(n)
		return shellapi.Variable{Set: ok, Str: s}, ok, s, nil
	}

	vr := c.Vars.Get(name)
	if pe.Index == nil {
		return vr, vr.Set, vr.Scalar(), nil
	}

	idxWord, err := Literal(ctx, c, pe.Index)
	if err != nil {
		return vr, false, "", err
	}
	if idxWord == "@" || idxWord == "*" {
		switch vr.Kind {
		case shellapi.Indexed:
			return vr, vr.Set, c.ifsJoin(vr.List), nil
		case shellapi.Associative:
			vals := make([]string, 0, len(vr.Map))
			for _, v := range vr.Map {
				vals = append(vals, v)
			}
			return vr, vr.Set, c.ifsJoin(vals), nil
		}
		return vr, vr.Set, vr.Scalar(), nil
	}
	val, ok := c.Vars.GetArrayElement(name, idxWord)
	return vr, ok, val, nil
}

func (c *Config) opWordText(ctx context.Context, pe *ast.ParamExpansion) (string, error) {
	if pe.OpWord == nil {
		return "", nil
	}
	return Literal(ctx, c, pe.OpWord)
}

func (c *Config) assignDefault(ctx context.Context, pe *ast.ParamExpansion, name string) (string, error) {
	val, err := c.opWordText(ctx, pe)
	if err != nil {
		return "", err
	}
	if err := c.Vars.Set(name, shellapi.Variable{Set: true, Kind: shellapi.String, Str: val}); err != nil {
		return "", errf(BadSubstitution, "%v", err)
	}
	return val, nil
}

func (c *Config) unsetError(ctx context.Context, pe *ast.ParamExpansion, name string) error {
	msg, err := c.opWordText(ctx, pe)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "parameter null or not set"
	}
	return errf(ParameterUnsetOrNull, "%s: %s", name, msg)
}

// removeMatch implements the "#"/"##"/"%"/"%%" operators. The suffix
// case needs a little care: Go's regexp engine always reports the
// leftmost-starting match, which by itself only ever finds the
// longest possible suffix. To get the shortest suffix (the rightmost
// start that still matches to the end of the string), a greedy ".*"
// is prepended ahead of a capturing group — forcing the engine to
// consume as much as it can before the capture even has a chance to
// start matching.
func removeMatch(value, pat string, op ast.ParamOp) (string, error) {
	if pat == "" {
		return value, nil
	}
	shortest := op == ast.OpRemoveShortestPrefix || op == ast.OpRemoveShortestSuffix
	mode := pattern.Mode(0)
	if shortest {
		mode |= pattern.Shortest
	}
	reStr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return "", errf(BadSubstitution, "%v", err)
	}
	var anchored string
	switch op {
	case ast.OpRemoveShortestPrefix, ast.OpRemoveLongestPrefix:
		anchored = "^(" + reStr + ")"
	case ast.OpRemoveShortestSuffix:
		anchored = ".*(" + reStr + ")$"
	default:
		anchored = "(" + reStr + ")$"
	}
	re, err := regexp.Compile(anchored)
	if err != nil {
		return "", errf(BadSubstitution, "%v", err)
	}
	loc := re.FindStringSubmatchIndex(value)
	if loc == nil {
		return value, nil
	}
	return value[:loc[2]] + value[loc[3]:], nil
}

func applyCase(value string, op ast.ParamOp) string {
	switch op {
	case ast.OpUpperAll:
		return cases.Upper(language.Und).String(value)
	case ast.OpLowerAll:
		return cases.Lower(language.Und).String(value)
	case ast.OpUpperFirst:
		return mapFirstRune(value, unicode.ToUpper)
	case ast.OpLowerFirst:
		return mapFirstRune(value, unicode.ToLower)
	}
	return value
}

func mapFirstRune(s string, f func(rune) rune) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(f(r)) + s[size:]
}

func (c *Config) sliceValue(ctx context.Context, value string, sl *ast.SliceExpr) (string, error) {
	runes := []rune(value)
	n := len(runes)

	offset, err := c.evalArithWord(ctx, sl.Offset)
	if err != nil {
		return "", err
	}
	off := int(offset)
	if off < 0 {
		off += n
	}
	if off < 0 {
		off = 0
	}
	if off > n {
		off = n
	}

	length := n - off
	if sl.Length != nil {
		l, err := c.evalArithWord(ctx, sl.Length)
		if err != nil {
			return "", err
		}
		length = int(l)
		if length < 0 {
			length += n - off
		}
		if length < 0 {
			length = 0
		}
	}
	end := off + length
	if end > n {
		end = n
	}
	if end < off {
		end = off
	}
	return string(runes[off:end]), nil
}

func (c *Config) replaceValue(ctx context.Context, value string, r *ast.ReplaceExpr) (string, error) {
	pat, err := Pattern(ctx, c, r.Pattern)
	if err != nil {
		return "", err
	}
	if pat == "" {
		return value, nil
	}
	with := ""
	if r.With != nil {
		with, err = Literal(ctx, c, r.With)
		if err != nil {
			return "", err
		}
	}
	reStr, err := pattern.Regexp(pat, 0)
	if err != nil {
		return "", errf(BadSubstitution, "%v", err)
	}
	re, err := regexp.Compile(reStr)
	if err != nil {
		return "", errf(BadSubstitution, "%v", err)
	}
	with = strings.ReplaceAll(with, `$`, `$$`)
	if r.All {
		return re.ReplaceAllString(value, with), nil
	}
	loc := re.FindStringIndex(value)
	if loc == nil {
		return value, nil
	}
	matched := re.ReplaceAllString(value[loc[0]:loc[1]], with)
	return value[:loc[0]] + matched + value[loc[1]:], nil
}
